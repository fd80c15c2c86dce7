package epub

import (
	"strings"
	"testing"
)

var parsers = map[string]ContentParser{
	"goquery": GoqueryParser{},
	"node":    NodeParser{},
}

func TestParseContent_Title(t *testing.T) {
	tests := []struct {
		name string
		doc  string
		want string
	}{
		{"title element", xhtml("  Intro  ", "<h1>Heading</h1>"), "Intro"},
		{"first heading", xhtml("", "<p>x</p><h2>Second</h2><h1>First?</h1>"), "Second"},
		{"no title", xhtml("", "<p>Only text</p>"), ""},
	}

	for name, p := range parsers {
		for _, tt := range tests {
			t.Run(name+"/"+tt.name, func(t *testing.T) {
				c, err := p.ParseContent([]byte(tt.doc), ContentOptions{})
				if err != nil {
					t.Fatalf("ParseContent() failed: %v", err)
				}
				if c.Title != tt.want {
					t.Errorf("Title = %q, want %q", c.Title, tt.want)
				}
			})
		}
	}
}

func TestParseContent_BodyOnly(t *testing.T) {
	for name, p := range parsers {
		t.Run(name, func(t *testing.T) {
			c, err := p.ParseContent([]byte(xhtml("T", `<p class="x">Hello</p>`)), ContentOptions{})
			if err != nil {
				t.Fatalf("ParseContent() failed: %v", err)
			}
			body := collapseWhitespace(c.Body)
			if body != `<p class="x">Hello</p>` {
				t.Errorf("Body = %q, want %q", body, `<p class="x">Hello</p>`)
			}
			if strings.Contains(c.Body, "<title>") {
				t.Errorf("Body should not contain the head: %q", c.Body)
			}
		})
	}
}

func TestParseContent_Sanitize(t *testing.T) {
	doc := xhtml("T", `
<script>alert(1)</script>
<style>p { color: red }</style>
<!-- <script>alert(2)</script> -->
<noscript><script>alert(3)</script></noscript>
<p onclick="evil()" onmouseover="evil()">Text</p>
<a href="javascript:evil()">bad</a>
<a href="ch2.xhtml">good</a>
<iframe src="x.html"></iframe>
<xmp><script>alert(4)</script></xmp>`)

	for name, p := range parsers {
		t.Run(name, func(t *testing.T) {
			c, err := p.ParseContent([]byte(doc), ContentOptions{})
			if err != nil {
				t.Fatalf("ParseContent() failed: %v", err)
			}
			lower := strings.ToLower(c.Body)
			for _, banned := range []string{"<script", "<style", "onclick", "onmouseover", "javascript:", "<iframe", "<!--", "alert("} {
				if strings.Contains(lower, banned) {
					t.Errorf("Body contains %q: %q", banned, c.Body)
				}
			}
			if !strings.Contains(c.Body, `<a href="ch2.xhtml">good</a>`) {
				t.Errorf("Body lost a safe link: %q", c.Body)
			}
			if !strings.Contains(c.Body, "<p>Text</p>") {
				t.Errorf("Body lost paragraph text: %q", c.Body)
			}
		})
	}
}

func TestParseContent_AnnotateArabic(t *testing.T) {
	doc := xhtml("عنوان", `<p title="كلمة">قال الرجل: hello</p>`)

	for name, p := range parsers {
		t.Run(name, func(t *testing.T) {
			c, err := p.ParseContent([]byte(doc), ContentOptions{AnnotateArabic: true})
			if err != nil {
				t.Fatalf("ParseContent() failed: %v", err)
			}
			want := `<p title="كلمة"><span class="hoverable-word" data-word="قال">قال</span> ` +
				`<span class="hoverable-word" data-word="الرجل">الرجل</span>: hello</p>`
			if got := collapseWhitespace(c.Body); got != want {
				t.Errorf("Body =\n%q\nwant\n%q", got, want)
			}
			if c.Title != "عنوان" {
				t.Errorf("Title = %q, want %q", c.Title, "عنوان")
			}
		})
	}
}

func TestParseContent_AnnotateArabicSkipsTextOnlyElements(t *testing.T) {
	doc := xhtml("", `<textarea>نص</textarea><p>قال</p>`)

	for name, p := range parsers {
		t.Run(name, func(t *testing.T) {
			c, err := p.ParseContent([]byte(doc), ContentOptions{AnnotateArabic: true})
			if err != nil {
				t.Fatalf("ParseContent() failed: %v", err)
			}
			if !strings.Contains(c.Body, "<textarea>نص</textarea>") {
				t.Errorf("textarea should keep its plain text: %q", c.Body)
			}
			if !strings.Contains(c.Body, `data-word="قال"`) {
				t.Errorf("paragraph should still be annotated: %q", c.Body)
			}
		})
	}
}

func TestParseContent_NoAnnotationByDefault(t *testing.T) {
	for name, p := range parsers {
		t.Run(name, func(t *testing.T) {
			c, err := p.ParseContent([]byte(xhtml("", "<p>مرحبا</p>")), ContentOptions{})
			if err != nil {
				t.Fatalf("ParseContent() failed: %v", err)
			}
			if strings.Contains(c.Body, HoverClass) {
				t.Errorf("Body should not be annotated: %q", c.Body)
			}
		})
	}
}
