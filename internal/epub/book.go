package epub

import (
	"context"
	"log/slog"
)

// LoadOptions configure Load.
type LoadOptions struct {
	Decoder PackageDecoder // nil selects XMLDecoder
	Parser  ContentParser  // nil selects GoqueryParser
	RTL     bool
	Logger  *slog.Logger
}

// Book is a fully loaded EPUB: its package view and its pages.
type Book struct {
	Archive  *Archive
	Package  *Package
	Chapters []Chapter
}

// Load opens data as an EPUB and extracts its chapters in spine order.
func Load(ctx context.Context, data []byte, opts LoadOptions) (*Book, error) {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	a, err := OpenArchive(data)
	if err != nil {
		return nil, err
	}

	pkg, err := ResolvePackage(a, opts.Decoder)
	if err != nil {
		return nil, err
	}

	refs := pkg.ChapterRefs()
	logger.Debug("package resolved",
		"opf", pkg.OPFPath,
		"manifest_items", len(pkg.Manifest),
		"spine_items", len(pkg.Spine),
		"chapter_refs", len(refs),
	)

	ex := &Extractor{Parser: opts.Parser, RTL: opts.RTL, Logger: logger}
	chapters, err := ex.Extract(ctx, a, refs)
	if err != nil {
		return nil, err
	}

	return &Book{Archive: a, Package: pkg, Chapters: chapters}, nil
}
