package epub

import (
	"strings"
	"unicode/utf8"

	"golang.org/x/net/html"
	"golang.org/x/net/html/atom"
)

// HoverClass marks spans that carry a lookup token in data-word.
const HoverClass = "hoverable-word"

// IsArabic reports whether r is in the Arabic (U+0600–U+06FF) or
// Arabic Supplement (U+0750–U+077F) blocks.
func IsArabic(r rune) bool {
	return (r >= 0x0600 && r <= 0x06FF) || (r >= 0x0750 && r <= 0x077F)
}

// StripNonArabic keeps only Arabic-script code points of token.
func StripNonArabic(token string) string {
	return strings.TrimSpace(strings.Map(func(r rune) rune {
		if IsArabic(r) {
			return r
		}
		return -1
	}, token))
}

// textRun is a maximal slice of text that is either all Arabic or has none.
type textRun struct {
	text   string
	arabic bool
}

// splitArabicRuns splits s into alternating Arabic and non-Arabic runs.
func splitArabicRuns(s string) []textRun {
	var runs []textRun
	start := 0
	inArabic := false
	for i, r := range s {
		a := IsArabic(r)
		if i == 0 {
			inArabic = a
			continue
		}
		if a != inArabic {
			runs = append(runs, textRun{text: s[start:i], arabic: inArabic})
			start = i
			inArabic = a
		}
	}
	if start < len(s) {
		runs = append(runs, textRun{text: s[start:], arabic: inArabic})
	}
	return runs
}

func hasArabic(s string) bool {
	for len(s) > 0 {
		r, size := utf8.DecodeRuneInString(s)
		if IsArabic(r) {
			return true
		}
		s = s[size:]
	}
	return false
}

// textOnlyElements hold text that browsers never parse as markup, so spans
// inserted there would show up literally.
var textOnlyElements = map[atom.Atom]bool{
	atom.Textarea:  true,
	atom.Title:     true,
	atom.Script:    true,
	atom.Style:     true,
	atom.Xmp:       true,
	atom.Iframe:    true,
	atom.Noembed:   true,
	atom.Noframes:  true,
	atom.Noscript:  true,
	atom.Plaintext: true,
}

// annotateArabic wraps every Arabic run in the text nodes below n in a
// hoverable span. Existing hoverable spans and text-only elements are left
// alone.
func annotateArabic(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch c.Type {
		case html.TextNode:
			if hasArabic(c.Data) {
				wrapArabicRuns(c)
			}
		case html.ElementNode:
			if !isHoverSpan(c) && !textOnlyElements[c.DataAtom] {
				annotateArabic(c)
			}
		}
		c = next
	}
}

func wrapArabicRuns(text *html.Node) {
	parent := text.Parent
	for _, run := range splitArabicRuns(text.Data) {
		if !run.arabic {
			parent.InsertBefore(&html.Node{Type: html.TextNode, Data: run.text}, text)
			continue
		}
		span := &html.Node{
			Type:     html.ElementNode,
			DataAtom: atom.Span,
			Data:     "span",
			Attr: []html.Attribute{
				{Key: "class", Val: HoverClass},
				{Key: "data-word", Val: run.text},
			},
		}
		span.AppendChild(&html.Node{Type: html.TextNode, Data: run.text})
		parent.InsertBefore(span, text)
	}
	parent.RemoveChild(text)
}

func isHoverSpan(n *html.Node) bool {
	if n.Data != "span" {
		return false
	}
	for _, attr := range n.Attr {
		if attr.Key == "class" && strings.Contains(" "+attr.Val+" ", " "+HoverClass+" ") {
			return true
		}
	}
	return false
}
