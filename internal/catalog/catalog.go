// Package catalog models the library manifest: books with localized fields,
// their categories, search and featured ordering.
package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// Defaults applied to missing manifest fields.
const (
	DefaultTitleAr   = "عنوان غير معروف"
	DefaultAuthorAr  = "مؤلف غير معروف"
	DefaultTitleEn   = "Unknown Title"
	DefaultAuthorEn  = "Unknown Author"
	DefaultCoverText = "كتاب"
	DefaultType      = "epub"
	DefaultSource    = "local"
	DefaultCategory  = "Miscellaneous"
)

// AllID is the pseudo-category that selects every book.
const AllID = "all"

// Book is one normalized manifest record.
type Book struct {
	ID         string `json:"id"`
	TitleAr    string `json:"title_ar"`
	AuthorAr   string `json:"author_ar"`
	TitleEn    string `json:"title_en"`
	AuthorEn   string `json:"author_en"`
	File       string `json:"filename"`
	FileAr     string `json:"filename_ar"`
	FileEn     string `json:"filename_en"`
	CoverText  string `json:"coverText"`
	Type       string `json:"type"`
	Source     string `json:"source"`
	Category   string `json:"category"`
	IsFeatured bool   `json:"featured"`
}

func (b Book) titles() LocalizedField[string] {
	return LocalizedField[string]{Arabic: b.TitleAr, English: b.TitleEn}
}

// Title returns the title shown in lang.
func (b Book) Title(lang Lang) string { return b.titles().Resolve(lang) }

// Author returns the author shown in lang.
func (b Book) Author(lang Lang) string {
	return LocalizedField[string]{Arabic: b.AuthorAr, English: b.AuthorEn}.Resolve(lang)
}

// Filename returns the EPUB file to open in lang.
func (b Book) Filename(lang Lang) string {
	f := LocalizedField[string]{Arabic: b.FileAr, English: b.FileEn}
	if v := f[lang]; v != "" {
		return v
	}
	if b.File != "" {
		return b.File
	}
	return f.Resolve(lang)
}

// rawBook is a manifest record as written, before defaults.
type rawBook struct {
	ID         json.RawMessage `json:"id"`
	TitleAr    string          `json:"title_ar"`
	AuthorAr   string          `json:"author_ar"`
	TitleEn    string          `json:"title_en"`
	AuthorEn   string          `json:"author_en"`
	Filename   string          `json:"filename"`
	FilenameAr string          `json:"filename_ar"`
	FilenameEn string          `json:"filename_en"`
	CoverText  string          `json:"coverText"`
	Type       string          `json:"type"`
	Source     string          `json:"source"`
	Category   string          `json:"category"`
	Featured   bool            `json:"featured"`
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// rawID accepts a JSON number or string id. Zero, empty and null ids are
// treated as missing.
func rawID(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil && n.String() != "0" {
		return n.String()
	}
	return ""
}

func (r rawBook) normalize(index int) Book {
	return Book{
		ID:         firstNonEmpty(rawID(r.ID), strconv.Itoa(index+1)),
		TitleAr:    firstNonEmpty(r.TitleAr, DefaultTitleAr),
		AuthorAr:   firstNonEmpty(r.AuthorAr, DefaultAuthorAr),
		TitleEn:    firstNonEmpty(r.TitleEn, r.TitleAr, DefaultTitleEn),
		AuthorEn:   firstNonEmpty(r.AuthorEn, r.AuthorAr, DefaultAuthorEn),
		File:       firstNonEmpty(r.Filename, r.FilenameAr, r.FilenameEn),
		FileAr:     firstNonEmpty(r.FilenameAr, r.Filename),
		FileEn:     firstNonEmpty(r.FilenameEn, r.Filename),
		CoverText:  firstNonEmpty(r.CoverText, DefaultCoverText),
		Type:       firstNonEmpty(r.Type, DefaultType),
		Source:     firstNonEmpty(r.Source, DefaultSource),
		Category:   firstNonEmpty(r.Category, DefaultCategory),
		IsFeatured: r.Featured,
	}
}

// Category is a filterable book category.
type Category struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

var categoryIDPattern = regexp.MustCompile(`[^a-z0-9\x{0600}-\x{06FF}]`)

// CategoryID derives the id of a category name: lowercase, with every
// character outside a-z, 0-9 and the Arabic block replaced by "-".
func CategoryID(name string) string {
	return categoryIDPattern.ReplaceAllString(strings.ToLower(name), "-")
}

// Catalog is the read-only, ordered book collection.
type Catalog struct {
	books      []Book
	byID       map[string]int
	categories []Category
}

// Decode reads manifest.json: an array of book records.
func Decode(r io.Reader) (*Catalog, error) {
	var raw []rawBook
	if err := json.NewDecoder(r).Decode(&raw); err != nil {
		return nil, fmt.Errorf("failed to decode manifest: %w", err)
	}

	books := make([]Book, len(raw))
	for i, rb := range raw {
		books[i] = rb.normalize(i)
	}
	return New(books), nil
}

// New builds a catalog from already normalized books.
func New(books []Book) *Catalog {
	c := &Catalog{
		books: books,
		byID:  make(map[string]int, len(books)),
	}
	for i, b := range books {
		if _, dup := c.byID[b.ID]; !dup {
			c.byID[b.ID] = i
		}
	}

	c.categories = []Category{{ID: AllID, Name: "All Books"}}
	seen := make(map[string]bool)
	for _, b := range books {
		name := strings.TrimSpace(b.Category)
		if seen[name] {
			continue
		}
		seen[name] = true
		c.categories = append(c.categories, Category{ID: CategoryID(name), Name: name})
	}
	return c
}

// Books returns every book in manifest order.
func (c *Catalog) Books() []Book {
	return append([]Book(nil), c.books...)
}

// Len returns the number of books.
func (c *Catalog) Len() int { return len(c.books) }

// Book returns the book with the given id.
func (c *Catalog) Book(id string) (Book, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Book{}, false
	}
	return c.books[i], true
}

// Categories returns "all" followed by the distinct trimmed categories in
// first-seen order.
func (c *Catalog) Categories() []Category {
	return append([]Category(nil), c.categories...)
}

// categoryName resolves a category id to its name. Unknown ids are used as
// names directly.
func (c *Catalog) categoryName(id string) string {
	for _, cat := range c.categories {
		if cat.ID == id {
			return cat.Name
		}
	}
	return id
}

func sameCategory(a, b string) bool {
	return strings.ToLower(strings.TrimSpace(a)) == strings.ToLower(strings.TrimSpace(b))
}

// CategoryCount returns how many books are in the category with id.
func (c *Catalog) CategoryCount(id string) int {
	if id == AllID {
		return len(c.books)
	}
	name := c.categoryName(id)
	n := 0
	for _, b := range c.books {
		if sameCategory(b.Category, name) {
			n++
		}
	}
	return n
}

// Query selects books. An empty Category means "all".
type Query struct {
	Category string
	Search   string
	// Featured holds title substrings; a book whose Arabic title contains
	// one is pinned first when listing all books unsearched.
	Featured []string
}

func fold(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

func (b Book) matches(q string) bool {
	for _, field := range [...]string{b.TitleAr, b.AuthorAr, b.TitleEn, b.AuthorEn, b.Category} {
		if strings.Contains(fold(field), q) {
			return true
		}
	}
	return false
}

// IsFeaturedBy reports whether the Arabic title contains any of titles.
func (b Book) IsFeaturedBy(titles []string) bool {
	for _, t := range titles {
		if t != "" && strings.Contains(b.TitleAr, t) {
			return true
		}
	}
	return false
}

// Filter applies q. Books are filtered by category, then by search text.
// Listing all books without a search orders featured books first and the
// rest by Arabic collation of their Arabic titles.
func (c *Catalog) Filter(q Query) []Book {
	category := q.Category
	if category == "" {
		category = AllID
	}

	out := c.Books()
	if category != AllID {
		name := c.categoryName(category)
		kept := out[:0]
		for _, b := range out {
			if sameCategory(b.Category, name) {
				kept = append(kept, b)
			}
		}
		out = kept
	}

	if search := fold(strings.TrimSpace(q.Search)); search != "" {
		kept := out[:0]
		for _, b := range out {
			if b.matches(search) {
				kept = append(kept, b)
			}
		}
		return kept
	}

	if category == AllID {
		col := collate.New(language.Arabic)
		sort.SliceStable(out, func(i, j int) bool {
			fi, fj := out[i].IsFeaturedBy(q.Featured), out[j].IsFeaturedBy(q.Featured)
			if fi != fj {
				return fi
			}
			return col.CompareString(out[i].TitleAr, out[j].TitleAr) < 0
		})
	}
	return out
}
