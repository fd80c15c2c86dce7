package assets

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"github.com/yuanying/maktaba/internal/catalog"
	"github.com/yuanying/maktaba/internal/translation"
)

// MaxEPUBSize caps the size of a fetched EPUB.
const MaxEPUBSize = 256 << 20

// ErrTooLarge is returned when an asset exceeds its size cap.
var ErrTooLarge = errors.New("asset too large")

// LoadCatalog reads and normalizes epubs/manifest.json.
func LoadCatalog(ctx context.Context, src Source) (*catalog.Catalog, error) {
	rc, err := src.Open(ctx, ManifestName)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return catalog.Decode(rc)
}

// LoadTranslations reads word-translations.json, falling back to
// word-translations-extended.json when the first cannot be read.
func LoadTranslations(ctx context.Context, src Source) (*translation.Table, error) {
	var errs []error
	for _, name := range []string{TranslationsName, ExtendedTranslationsName} {
		table, err := loadTranslationFile(ctx, src, name)
		if err == nil {
			return table, nil
		}
		errs = append(errs, err)
	}
	return nil, errors.Join(errs...)
}

func loadTranslationFile(ctx context.Context, src Source, name string) (*translation.Table, error) {
	rc, err := src.Open(ctx, name)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	return translation.Decode(rc)
}

// LoadFeatured reads featured-books.json. On failure it returns
// catalog.DefaultFeatured together with the error.
func LoadFeatured(ctx context.Context, src Source) ([]string, error) {
	rc, err := src.Open(ctx, FeaturedName)
	if err != nil {
		return catalog.DefaultFeatured, err
	}
	defer rc.Close()

	titles, err := catalog.DecodeFeatured(rc)
	if err != nil {
		return catalog.DefaultFeatured, err
	}
	return titles, nil
}

// FetchEPUB reads epubs/<filename> fully into memory.
func FetchEPUB(ctx context.Context, src Source, filename string) ([]byte, error) {
	if filename == "" {
		return nil, fmt.Errorf("book has no file")
	}
	rc, err := src.Open(ctx, path.Join(EPUBDir, filename))
	if err != nil {
		return nil, err
	}
	defer rc.Close()

	data, err := io.ReadAll(io.LimitReader(rc, MaxEPUBSize+1))
	if err != nil {
		return nil, &FetchError{Name: filename, Err: err}
	}
	if len(data) > MaxEPUBSize {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", ErrTooLarge, filename, MaxEPUBSize)
	}
	return data, nil
}
