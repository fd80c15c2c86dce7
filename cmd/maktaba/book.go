package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/yuanying/maktaba/internal/assets"
	"github.com/yuanying/maktaba/internal/epub"
)

// loadError prints as the diagnostic a reader would see.
type loadError struct{ err error }

func (e loadError) Error() string { return epub.Describe(e.err) }

func (e loadError) Unwrap() error { return e.err }

func loadBook(ctx context.Context, opts bookOptions) (*epub.Book, error) {
	data, err := os.ReadFile(opts.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", opts.Path, err)
	}

	book, err := epub.Load(ctx, data, epub.LoadOptions{
		Decoder: opts.Decoder,
		Parser:  opts.Parser,
		RTL:     opts.RTL,
		Logger:  opts.Logger,
	})
	if err != nil {
		opts.Logger.Debug("load failed", "path", opts.Path, "error", err)
		return nil, loadError{err: err}
	}
	return book, nil
}

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate FILE",
		Short: "Check that an EPUB opens and has readable chapters",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readBookOptions(cmd, args)
			if err != nil {
				return err
			}
			book, err := loadBook(cmd.Context(), opts)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			md := book.Package.Metadata
			fmt.Fprintf(out, "OK: %s\n", opts.Path)
			fmt.Fprintf(out, "Title: %s\n", md.Title)
			fmt.Fprintf(out, "Author: %s\n", strings.Join(md.Creators, ", "))
			fmt.Fprintf(out, "Language: %s\n", md.Language)
			fmt.Fprintf(out, "Chapters: %d\n", len(book.Chapters))
			for i, ch := range book.Chapters {
				fmt.Fprintf(out, "  %d. %s (%d bytes)\n", i+1, ch.Title, len(ch.Content))
			}
			return nil
		},
	}
	addBookFlags(cmd)
	return cmd
}

// renderedBook is the chapters.json document written by render.
type renderedBook struct {
	Title    string         `json:"title"`
	Authors  []string       `json:"authors"`
	Language string         `json:"language"`
	Dir      string         `json:"dir"`
	Chapters []epub.Chapter `json:"chapters"`
}

func newRenderCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "render FILE",
		Short: "Extract sanitized chapters to chapters.json",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readBookOptions(cmd, args)
			if err != nil {
				return err
			}
			outDir, _ := cmd.Flags().GetString("output")
			if outDir == "" {
				outDir = defaultOutputDir(opts.Path)
			}
			coverWidth, _ := cmd.Flags().GetInt("cover-width")
			if coverWidth < 0 {
				return fmt.Errorf("invalid --cover-width %d: must not be negative", coverWidth)
			}

			book, err := loadBook(cmd.Context(), opts)
			if err != nil {
				return err
			}
			return renderBook(book, opts, outDir, coverWidth)
		},
	}
	addBookFlags(cmd)
	cmd.Flags().StringP("output", "o", "", "Output directory (default: input path without extension)")
	cmd.Flags().Int("cover-width", assets.DefaultThumbnailWidth, "Cover thumbnail width in pixels, 0 to skip the cover")
	return cmd
}

func renderBook(book *epub.Book, opts bookOptions, outDir string, coverWidth int) error {
	if err := os.MkdirAll(outDir, 0o755); err != nil {
		return fmt.Errorf("failed to create %s: %w", outDir, err)
	}

	dir := "ltr"
	if opts.RTL {
		dir = "rtl"
	}
	md := book.Package.Metadata
	doc := renderedBook{
		Title:    md.Title,
		Authors:  md.Creators,
		Language: md.Language,
		Dir:      dir,
		Chapters: book.Chapters,
	}
	data, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return err
	}
	chaptersPath := filepath.Join(outDir, "chapters.json")
	if err := os.WriteFile(chaptersPath, data, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", chaptersPath, err)
	}
	opts.Logger.Info("chapters written", "path", chaptersPath, "chapters", len(book.Chapters))

	if coverWidth == 0 {
		return nil
	}
	img, info, err := book.CoverImage()
	if err != nil {
		opts.Logger.Debug("no cover image", "error", err)
		return nil
	}
	thumb, err := assets.Thumbnail(img, coverWidth)
	if err != nil {
		opts.Logger.Warn("cover image skipped", "path", info.Path, "error", err)
		return nil
	}
	coverPath := filepath.Join(outDir, "cover.jpg")
	if err := os.WriteFile(coverPath, thumb, 0o644); err != nil {
		return fmt.Errorf("failed to write %s: %w", coverPath, err)
	}
	opts.Logger.Info("cover written", "path", coverPath, "source", info.Path, "method", info.DetectionMethod)
	return nil
}

func newInspectCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "inspect FILE [ENTRY...]",
		Short: "Print the package structure of an EPUB, and optionally raw entries",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			opts, err := readBookOptions(cmd, args[:1])
			if err != nil {
				return err
			}

			a, err := epub.OpenArchiveFile(opts.Path)
			if errors.Is(err, epub.ErrArchiveFormat) {
				return loadError{err: err}
			}
			if err != nil {
				return err
			}
			pkg, err := epub.ResolvePackage(a, opts.Decoder)
			if err != nil {
				return loadError{err: err}
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "OPF: %s\n", pkg.OPFPath)
			fmt.Fprintf(out, "Title: %s\n", pkg.Metadata.Title)
			fmt.Fprintf(out, "Identifier: %s\n", pkg.Metadata.Identifier)
			fmt.Fprintf(out, "Files: %d\n", len(a.Names()))

			fmt.Fprintf(out, "\nManifest (%d):\n", len(pkg.ManifestOrder))
			for _, id := range pkg.ManifestOrder {
				item := pkg.Manifest[id]
				fmt.Fprintf(out, "  %s  %s  %s", item.ID, item.Path, item.MediaType)
				if len(item.Properties) > 0 {
					fmt.Fprintf(out, "  [%s]", strings.Join(item.Properties, " "))
				}
				fmt.Fprintln(out)
			}

			refs := pkg.ChapterRefs()
			fmt.Fprintf(out, "\nSpine (%d entries, %d content documents):\n", len(pkg.Spine), len(refs))
			for _, ref := range refs {
				fmt.Fprintf(out, "  %d. %s  %s\n", ref.Index+1, ref.ID, ref.Path)
			}

			if cover := pkg.DetectCover(); cover != nil {
				fmt.Fprintf(out, "\nCover: %s (%s)\n", cover.Path, cover.DetectionMethod)
			}

			if toc, err := epub.LoadTOC(a, pkg); err == nil {
				fmt.Fprintf(out, "\nContents (%s):\n", toc.Source)
				printTOC(out, toc.Entries, 1)
			} else {
				opts.Logger.Debug("no table of contents", "error", err)
			}

			for _, name := range args[1:] {
				text, err := a.ReadText(name)
				if err != nil {
					return fmt.Errorf("failed to read %s: %w", name, err)
				}
				fmt.Fprintf(out, "\n--- %s ---\n%s\n", name, text)
			}
			return nil
		},
	}
	addBookFlags(cmd)
	return cmd
}

func printTOC(out io.Writer, entries []epub.TOCEntry, depth int) {
	for _, e := range entries {
		target := e.Path
		if e.Fragment != "" {
			target += "#" + e.Fragment
		}
		fmt.Fprintf(out, "%s%s  %s\n", strings.Repeat("  ", depth), e.Label, target)
		printTOC(out, e.Children, depth+1)
	}
}
