package server

import (
	"context"
	"log/slog"
	"sync"

	"github.com/yuanying/maktaba/internal/assets"
	"github.com/yuanying/maktaba/internal/catalog"
	"github.com/yuanying/maktaba/internal/epub"
	"github.com/yuanying/maktaba/internal/translation"
)

// Library is everything the API serves: the asset source and the data loaded
// from it at startup.
type Library struct {
	Source       assets.Source
	Catalog      *catalog.Catalog
	Translations *translation.Table
	Featured     []string

	Decoder epub.PackageDecoder // nil selects epub.XMLDecoder
	Parser  epub.ContentParser  // nil selects epub.GoqueryParser
}

// LoadLibrary reads the manifest, translations, and featured list from src.
// Only the manifest is required; the other two degrade to empty and default.
func LoadLibrary(ctx context.Context, src assets.Source, logger *slog.Logger) (*Library, error) {
	cat, err := assets.LoadCatalog(ctx, src)
	if err != nil {
		return nil, err
	}

	table, err := assets.LoadTranslations(ctx, src)
	if err != nil {
		logger.Warn("word translations unavailable", "error", err)
		table = translation.NewTable(nil)
	}

	featured, err := assets.LoadFeatured(ctx, src)
	if err != nil {
		logger.Warn("featured list unavailable, using defaults", "error", err)
	}

	logger.Info("library loaded",
		"books", cat.Len(),
		"translations", table.Len(),
		"featured", len(featured),
	)
	return &Library{Source: src, Catalog: cat, Translations: table, Featured: featured}, nil
}

// bookCacheSize bounds the number of extracted books kept in memory.
const bookCacheSize = 8

type bookKey struct {
	file string
	rtl  bool
}

// bookCache keeps recently extracted chapter lists, evicting the oldest.
type bookCache struct {
	mu    sync.Mutex
	books map[bookKey][]epub.Chapter
	order []bookKey
}

func newBookCache() *bookCache {
	return &bookCache{books: make(map[bookKey][]epub.Chapter)}
}

func (c *bookCache) get(k bookKey) ([]epub.Chapter, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	ch, ok := c.books[k]
	return ch, ok
}

func (c *bookCache) put(k bookKey, chapters []epub.Chapter) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.books[k]; ok {
		return
	}
	if len(c.order) >= bookCacheSize {
		delete(c.books, c.order[0])
		c.order = c.order[1:]
	}
	c.books[k] = chapters
	c.order = append(c.order, k)
}
