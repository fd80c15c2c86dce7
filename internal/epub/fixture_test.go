package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"sort"
	"strings"
	"testing"
)

type fixtureItem struct {
	id         string
	href       string
	mediaType  string
	properties string
}

// epubFixture describes an in-memory EPUB for tests.
type epubFixture struct {
	opfPath     string // default OEBPS/content.opf
	container   string // raw container.xml; generated when empty
	noContainer bool
	noOPF       bool
	rawOPF      string // written instead of the generated OPF when set
	manifest    []fixtureItem
	spine       []string
	chapters    map[string]string // archive path -> content
	files       map[string]string // additional raw entries
}

func xhtml(title, body string) string {
	return fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<html xmlns="http://www.w3.org/1999/xhtml">
<head><title>%s</title></head>
<body>%s</body>
</html>`, title, body)
}

func (f epubFixture) opf() string {
	var sb strings.Builder
	sb.WriteString(`<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="2.0" unique-identifier="bookid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Test Book</dc:title>
    <dc:creator>Test Author</dc:creator>
    <dc:language>ar</dc:language>
    <dc:identifier id="bookid">urn:uuid:test</dc:identifier>
  </metadata>
  <manifest>
`)
	for _, item := range f.manifest {
		mt := item.mediaType
		if mt == "" {
			mt = "application/xhtml+xml"
		}
		fmt.Fprintf(&sb, `    <item id="%s" href="%s" media-type="%s"`, item.id, item.href, mt)
		if item.properties != "" {
			fmt.Fprintf(&sb, ` properties="%s"`, item.properties)
		}
		sb.WriteString("/>\n")
	}
	sb.WriteString("  </manifest>\n  <spine>\n")
	for _, idref := range f.spine {
		fmt.Fprintf(&sb, "    <itemref idref=\"%s\"/>\n", idref)
	}
	sb.WriteString("  </spine>\n</package>")
	return sb.String()
}

// buildEPUB writes the fixture as a ZIP and returns its bytes.
func buildEPUB(t *testing.T, f epubFixture) []byte {
	t.Helper()
	if f.opfPath == "" {
		f.opfPath = "OEBPS/content.opf"
	}

	var buf bytes.Buffer
	w := zip.NewWriter(&buf)

	write := func(name, content string, method uint16) {
		t.Helper()
		fw, err := w.CreateHeader(&zip.FileHeader{Name: name, Method: method})
		if err != nil {
			t.Fatalf("failed to create %s: %v", name, err)
		}
		if _, err := fw.Write([]byte(content)); err != nil {
			t.Fatalf("failed to write %s: %v", name, err)
		}
	}

	// mimetype (must be uncompressed/stored)
	write("mimetype", "application/epub+zip", zip.Store)

	if !f.noContainer {
		container := f.container
		if container == "" {
			container = fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles>
    <rootfile full-path="%s" media-type="application/oebps-package+xml"/>
  </rootfiles>
</container>`, f.opfPath)
		}
		write("META-INF/container.xml", container, zip.Deflate)
	}

	if !f.noOPF {
		opf := f.rawOPF
		if opf == "" {
			opf = f.opf()
		}
		write(f.opfPath, opf, zip.Deflate)
	}

	for _, entries := range []map[string]string{f.chapters, f.files} {
		names := make([]string, 0, len(entries))
		for name := range entries {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			write(name, entries[name], zip.Deflate)
		}
	}

	if err := w.Close(); err != nil {
		t.Fatalf("failed to close zip: %v", err)
	}
	return buf.Bytes()
}

// twoChapterFixture is a two-chapter book under OEBPS/text.
func twoChapterFixture() epubFixture {
	return epubFixture{
		manifest: []fixtureItem{
			{id: "ch1", href: "text/ch1.xhtml"},
			{id: "ch2", href: "text/ch2.xhtml"},
		},
		spine: []string{"ch1", "ch2"},
		chapters: map[string]string{
			"OEBPS/text/ch1.xhtml": xhtml("First", "<p>One</p>"),
			"OEBPS/text/ch2.xhtml": xhtml("Second", "<p>Two</p>"),
		},
	}
}
