// Package translation serves word glosses for Arabic tokens.
package translation

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/yuanying/maktaba/internal/epub"
)

// Entry is one gloss from word-translations.json.
type Entry struct {
	Translation     string `json:"translation"`
	Transliteration string `json:"transliteration,omitempty"`
	Root            string `json:"root,omitempty"`
	Meaning         string `json:"meaning,omitempty"`
}

// Table maps bare Arabic tokens to entries. It is read-only after Decode.
type Table struct {
	entries map[string]Entry
}

// Decode reads a token → entry JSON object.
func Decode(r io.Reader) (*Table, error) {
	var entries map[string]Entry
	if err := json.NewDecoder(r).Decode(&entries); err != nil {
		return nil, fmt.Errorf("failed to decode word translations: %w", err)
	}
	if entries == nil {
		entries = map[string]Entry{}
	}
	return &Table{entries: entries}, nil
}

// NewTable builds a Table from entries.
func NewTable(entries map[string]Entry) *Table {
	t := &Table{entries: make(map[string]Entry, len(entries))}
	for k, v := range entries {
		t.entries[k] = v
	}
	return t
}

// Lookup strips non-Arabic characters from token and returns its entry.
// A nil table has no entries.
func (t *Table) Lookup(token string) (Entry, bool) {
	if t == nil {
		return Entry{}, false
	}
	key := epub.StripNonArabic(token)
	if key == "" {
		return Entry{}, false
	}
	e, ok := t.entries[key]
	return e, ok
}

// Len returns the number of entries.
func (t *Table) Len() int {
	if t == nil {
		return 0
	}
	return len(t.entries)
}
