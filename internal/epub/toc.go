package epub

import (
	"bytes"
	"encoding/xml"
	"fmt"
	"path"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

const ncxMediaType = "application/x-dtbncx+xml"

// TOC is a book's table of contents, from the EPUB 3 nav document or the
// EPUB 2 NCX.
type TOC struct {
	Title   string
	Source  string // archive path of the nav or NCX document
	Entries []TOCEntry
}

// TOCEntry is one navigation point.
type TOCEntry struct {
	Label    string
	Path     string // archive path, fragment removed
	Fragment string
	Children []TOCEntry
}

// Flatten returns the entries depth-first.
func (t *TOC) Flatten() []TOCEntry {
	var out []TOCEntry
	var walk func([]TOCEntry)
	walk = func(entries []TOCEntry) {
		for _, e := range entries {
			out = append(out, e)
			walk(e.Children)
		}
	}
	walk(t.Entries)
	return out
}

// tocItems returns the nav document and NCX manifest items, if any.
func (p *Package) tocItems() (nav, ncx *ManifestItem) {
	for _, id := range p.ManifestOrder {
		item := p.Manifest[id]
		if nav == nil {
			for _, prop := range item.Properties {
				if prop == "nav" {
					nav = &item
					break
				}
			}
		}
		if ncx == nil && item.MediaType == ncxMediaType {
			ncx = &item
		}
	}
	return nav, ncx
}

// LoadTOC reads the table of contents, preferring the nav document and
// falling back to the NCX when the nav document is unusable.
func LoadTOC(a *Archive, p *Package) (*TOC, error) {
	nav, ncx := p.tocItems()

	var errs []string
	if nav != nil {
		data, err := a.ReadFile(nav.Path)
		if err == nil {
			toc, perr := parseNAV(data, nav.Path)
			if perr == nil && len(toc.Entries) > 0 {
				return toc, nil
			}
			err = perr
		}
		if err != nil {
			errs = append(errs, err.Error())
		}
	}
	if ncx != nil {
		data, err := a.ReadFile(ncx.Path)
		if err != nil {
			return nil, err
		}
		return parseNCX(data, ncx.Path)
	}
	if len(errs) > 0 {
		return nil, fmt.Errorf("%w: table of contents (%s)", ErrEntryNotFound, strings.Join(errs, "; "))
	}
	return nil, fmt.Errorf("%w: table of contents", ErrEntryNotFound)
}

func docDir(docPath string) string {
	dir := path.Dir(docPath)
	if dir == "." {
		return ""
	}
	return dir + "/"
}

func tocEntry(label, href, dir string) TOCEntry {
	_, fragment := splitFragment(href)
	return TOCEntry{
		Label:    strings.Join(strings.Fields(label), " "),
		Path:     resolveHref(dir, href),
		Fragment: fragment,
	}
}

type ncxDocument struct {
	XMLName xml.Name   `xml:"ncx"`
	Title   string     `xml:"docTitle>text"`
	Points  []ncxPoint `xml:"navMap>navPoint"`
}

type ncxPoint struct {
	Label   string `xml:"navLabel>text"`
	Content struct {
		Src string `xml:"src,attr"`
	} `xml:"content"`
	Children []ncxPoint `xml:"navPoint"`
}

func parseNCX(data []byte, ncxPath string) (*TOC, error) {
	var doc ncxDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("failed to parse NCX: %w", err)
	}

	dir := docDir(ncxPath)
	var convert func([]ncxPoint) []TOCEntry
	convert = func(points []ncxPoint) []TOCEntry {
		var out []TOCEntry
		for _, p := range points {
			e := tocEntry(p.Label, p.Content.Src, dir)
			e.Children = convert(p.Children)
			out = append(out, e)
		}
		return out
	}

	return &TOC{
		Title:   strings.TrimSpace(doc.Title),
		Source:  ncxPath,
		Entries: convert(doc.Points),
	}, nil
}

func parseNAV(data []byte, navPath string) (*TOC, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse nav document: %w", err)
	}

	nav := doc.Find("nav").FilterFunction(func(_ int, s *goquery.Selection) bool {
		t, _ := s.Attr("epub:type")
		for _, f := range strings.Fields(t) {
			if f == "toc" {
				return true
			}
		}
		return false
	}).First()
	if nav.Length() == 0 {
		nav = doc.Find("nav").First()
	}
	if nav.Length() == 0 {
		return nil, fmt.Errorf("nav document %s has no <nav>", navPath)
	}

	dir := docDir(navPath)
	var convert func(ol *goquery.Selection) []TOCEntry
	convert = func(ol *goquery.Selection) []TOCEntry {
		var out []TOCEntry
		ol.ChildrenFiltered("li").Each(func(_ int, li *goquery.Selection) {
			label := li.ChildrenFiltered("a, span").First()
			href, _ := label.Attr("href")
			e := tocEntry(label.Text(), href, dir)
			e.Children = convert(li.ChildrenFiltered("ol").First())
			out = append(out, e)
		})
		return out
	}

	return &TOC{
		Title:   strings.TrimSpace(nav.ChildrenFiltered("h1, h2, h3, h4, h5, h6").First().Text()),
		Source:  navPath,
		Entries: convert(nav.ChildrenFiltered("ol").First()),
	}, nil
}
