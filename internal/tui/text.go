package tui

import (
	"strings"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"

	"github.com/yuanying/maktaba/internal/epub"
)

// blockAtoms end a paragraph when flattening chapter markup.
var blockAtoms = map[atom.Atom]bool{
	atom.P: true, atom.Div: true, atom.Br: true, atom.Li: true,
	atom.H1: true, atom.H2: true, atom.H3: true, atom.H4: true, atom.H5: true, atom.H6: true,
	atom.Blockquote: true, atom.Pre: true, atom.Tr: true, atom.Section: true,
	atom.Article: true, atom.Hr: true, atom.Figcaption: true, atom.Dt: true, atom.Dd: true,
}

// Paragraphs flattens sanitized chapter HTML into plain-text paragraphs.
// Whitespace inside a paragraph collapses to single spaces.
func Paragraphs(content string) []string {
	doc, err := html.Parse(strings.NewReader(content))
	if err != nil {
		return nil
	}

	var (
		out []string
		cur strings.Builder
	)
	flush := func() {
		if p := strings.Join(strings.Fields(cur.String()), " "); p != "" {
			out = append(out, p)
		}
		cur.Reset()
	}

	var walk func(*html.Node)
	walk = func(n *html.Node) {
		switch n.Type {
		case html.TextNode:
			cur.WriteString(n.Data)
		case html.ElementNode:
			if blockAtoms[n.DataAtom] {
				flush()
			}
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
		if n.Type == html.ElementNode && blockAtoms[n.DataAtom] {
			flush()
		}
	}
	walk(doc)
	flush()
	return out
}

// arabicWords returns the whitespace-separated tokens of s that carry Arabic
// letters, stripped of everything else.
func arabicWords(s string) []string {
	var out []string
	for _, f := range strings.Fields(s) {
		if w := epub.StripNonArabic(f); w != "" {
			out = append(out, w)
		}
	}
	return out
}
