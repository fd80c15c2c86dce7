package catalog

import (
	"encoding/json"
	"fmt"
	"io"
)

// DefaultFeatured is used when featured-books.json cannot be loaded.
var DefaultFeatured = []string{
	"الورقة النحوية",
	"نواقض الإسلام",
	"المنظومة البيقونية",
	"أبناؤنا والصلاة",
}

// DecodeFeatured reads featured-books.json: an array of title substrings.
func DecodeFeatured(r io.Reader) ([]string, error) {
	var titles []string
	if err := json.NewDecoder(r).Decode(&titles); err != nil {
		return nil, fmt.Errorf("failed to decode featured books: %w", err)
	}
	return titles, nil
}
