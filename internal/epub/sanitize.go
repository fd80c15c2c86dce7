package epub

import (
	"strings"

	"golang.org/x/net/html"
)

// strippedElements are removed with their whole subtree. Besides script and
// style this covers every element whose children html.Render writes unescaped.
var strippedElements = map[string]bool{
	"script":    true,
	"style":     true,
	"noscript":  true,
	"iframe":    true,
	"noembed":   true,
	"noframes":  true,
	"xmp":       true,
	"plaintext": true,
	"object":    true,
	"embed":     true,
}

// strippedSelector matches strippedElements for goquery.
const strippedSelector = "script, style, noscript, iframe, noembed, noframes, xmp, plaintext, object, embed"

// urlAttrs may carry javascript: URLs.
var urlAttrs = map[string]bool{
	"href":       true,
	"src":        true,
	"xlink:href": true,
	"action":     true,
	"formaction": true,
}

// unsafeAttr reports whether an attribute must be dropped from content.
func unsafeAttr(attr html.Attribute) bool {
	key := strings.ToLower(attr.Key)
	if attr.Namespace != "" {
		key = strings.ToLower(attr.Namespace) + ":" + key
	}
	if strings.HasPrefix(key, "on") {
		return true
	}
	if urlAttrs[key] {
		v := strings.ToLower(strings.TrimSpace(attr.Val))
		return strings.HasPrefix(v, "javascript:") || strings.HasPrefix(v, "vbscript:")
	}
	return false
}

// cleanAttrs removes unsafe attributes from an element in place.
func cleanAttrs(n *html.Node) {
	kept := n.Attr[:0]
	for _, attr := range n.Attr {
		if !unsafeAttr(attr) {
			kept = append(kept, attr)
		}
	}
	n.Attr = kept
}

// removeComments drops comment nodes below n. Comments render verbatim.
func removeComments(n *html.Node) {
	for c := n.FirstChild; c != nil; {
		next := c.NextSibling
		if c.Type == html.CommentNode {
			n.RemoveChild(c)
		} else {
			removeComments(c)
		}
		c = next
	}
}

// collapseWhitespace folds every run of Unicode whitespace into one space.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
