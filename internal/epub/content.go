package epub

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Content is a parsed, sanitized content document.
type Content struct {
	Title string // <title> text, else first h1/h2/h3 text, else ""
	Body  string // inner HTML of <body>, or the whole document without one
}

// ContentOptions control content parsing.
type ContentOptions struct {
	// AnnotateArabic wraps Arabic-script runs in hoverable spans.
	AnnotateArabic bool
}

// ContentParser parses a content document into sanitized markup.
type ContentParser interface {
	ParseContent(data []byte, opts ContentOptions) (*Content, error)
}

// GoqueryParser is a ContentParser built on goquery selections.
type GoqueryParser struct{}

// ParseContent parses XHTML using goquery
func (GoqueryParser) ParseContent(data []byte, opts ContentOptions) (*Content, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}

	doc.Find(strippedSelector).Remove()
	doc.Find("*").Each(func(i int, s *goquery.Selection) {
		cleanAttrs(s.Get(0))
	})
	for _, n := range doc.Nodes {
		removeComments(n)
	}

	c := &Content{
		Title: strings.TrimSpace(doc.Find("title").First().Text()),
	}
	if c.Title == "" {
		c.Title = strings.TrimSpace(doc.Find("h1, h2, h3").First().Text())
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		if opts.AnnotateArabic {
			for _, n := range doc.Nodes {
				annotateArabic(n)
			}
		}
		c.Body, err = doc.Html()
		if err != nil {
			return nil, fmt.Errorf("failed to render content: %w", err)
		}
		return c, nil
	}

	if opts.AnnotateArabic {
		annotateArabic(body.Get(0))
	}
	c.Body, err = body.Html()
	if err != nil {
		return nil, fmt.Errorf("failed to render body: %w", err)
	}
	return c, nil
}

// NodeParser is a ContentParser that walks the golang.org/x/net/html tree
// directly, without a selector engine.
type NodeParser struct{}

// ParseContent parses data with html.Parse.
func (NodeParser) ParseContent(data []byte, opts ContentOptions) (*Content, error) {
	doc, err := html.Parse(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("failed to parse XHTML: %w", err)
	}

	sanitizeTree(doc)

	c := &Content{}
	if title := findElement(doc, "title"); title != nil {
		c.Title = strings.TrimSpace(textContent(title))
	}
	if c.Title == "" {
		if h := findElement(doc, "h1", "h2", "h3"); h != nil {
			c.Title = strings.TrimSpace(textContent(h))
		}
	}

	root := doc
	if body := findElement(doc, "body"); body != nil {
		root = body
	}
	if opts.AnnotateArabic {
		annotateArabic(root)
	}

	var buf bytes.Buffer
	for child := root.FirstChild; child != nil; child = child.NextSibling {
		if err := html.Render(&buf, child); err != nil {
			return nil, fmt.Errorf("failed to render body: %w", err)
		}
	}
	c.Body = buf.String()
	return c, nil
}

// sanitizeTree removes stripped elements, comments and unsafe attributes.
func sanitizeTree(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		switch {
		case c.Type == html.CommentNode:
			n.RemoveChild(c)
		case c.Type == html.ElementNode && strippedElements[strings.ToLower(c.Data)]:
			n.RemoveChild(c)
		case c.Type == html.ElementNode:
			cleanAttrs(c)
			sanitizeTree(c)
		default:
			sanitizeTree(c)
		}
		c = next
	}
}

// findElement returns the first element in document order whose tag is one of tags.
func findElement(n *html.Node, tags ...string) *html.Node {
	if n.Type == html.ElementNode {
		for _, tag := range tags {
			if n.Data == tag {
				return n
			}
		}
	}
	for c := n.FirstChild; c != nil; c = c.NextSibling {
		if found := findElement(c, tags...); found != nil {
			return found
		}
	}
	return nil
}

// textContent concatenates all text below n.
func textContent(n *html.Node) string {
	var sb strings.Builder
	var walk func(*html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.TextNode {
			sb.WriteString(n.Data)
		}
		for c := n.FirstChild; c != nil; c = c.NextSibling {
			walk(c)
		}
	}
	walk(n)
	return sb.String()
}
