package epub

// Package is the resolved view of an EPUB package document (OPF).
type Package struct {
	OPFPath  string
	BasePath string // directory of OPFPath including the trailing slash, "" at archive root
	Metadata Metadata
	Manifest map[string]ManifestItem // id -> item
	// ManifestOrder keeps manifest ids in document order.
	ManifestOrder []string
	Spine         []string // ordered idrefs, unfiltered
	Guide         []GuideReference
}

// Metadata represents the subset of OPF metadata the library uses.
type Metadata struct {
	Title      string
	Creators   []string
	Language   string
	Identifier string
	CoverID    string // EPUB 2.0 cover image manifest item ID (from meta name="cover")
}

// ManifestItem represents an item in the manifest
type ManifestItem struct {
	ID         string
	Href       string // as written in the OPF
	Path       string // absolute path within the archive
	MediaType  string
	Properties []string
}

// GuideReference represents an EPUB 2.0 guide reference.
type GuideReference struct {
	Type  string
	Title string
	Href  string // absolute path within the archive, fragment removed
}

// ChapterRef is a spine entry resolved to a content document.
type ChapterRef struct {
	Index int // 0-based position in the spine, counting skipped entries
	ID    string
	Path  string
}

// Chapter is one extracted, sanitized content document. One chapter is one page.
type Chapter struct {
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

// OPF is the decoder-neutral result of parsing a package document.
// Hrefs are kept exactly as written; resolution happens in ResolvePackage.
type OPF struct {
	Metadata Metadata
	Items    []OPFItem
	ItemRefs []string
	Guide    []GuideReference
}

// OPFItem is a raw manifest item.
type OPFItem struct {
	ID         string
	Href       string
	MediaType  string
	Properties string
}
