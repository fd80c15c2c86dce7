package main

import (
	"archive/zip"
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/yuanying/maktaba/internal/epub"
)

const testOPF = `<?xml version="1.0" encoding="UTF-8"?>
<package xmlns="http://www.idpf.org/2007/opf" version="3.0" unique-identifier="uid">
  <metadata xmlns:dc="http://purl.org/dc/elements/1.1/">
    <dc:title>Sample Book</dc:title>
    <dc:creator>Sample Author</dc:creator>
    <dc:language>ar</dc:language>
    <dc:identifier id="uid">urn:uuid:sample</dc:identifier>
  </metadata>
  <manifest>
    <item id="ch1" href="text/ch1.xhtml" media-type="application/xhtml+xml"/>
    <item id="ch2" href="text/ch2.xhtml" media-type="application/xhtml+xml"/>
    <item id="css" href="style.css" media-type="text/css"/>
    <item id="nav" href="nav.xhtml" media-type="application/xhtml+xml" properties="nav"/>
  </manifest>
  <spine>
    <itemref idref="ch1"/>
    <itemref idref="css"/>
    <itemref idref="ch2"/>
  </spine>
</package>`

func writeTestEPUB(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	files := []struct{ name, body string }{
		{"mimetype", "application/epub+zip"},
		{"META-INF/container.xml", `<?xml version="1.0"?>
<container version="1.0" xmlns="urn:oasis:names:tc:opendocument:xmlns:container">
  <rootfiles><rootfile full-path="OEBPS/content.opf" media-type="application/oebps-package+xml"/></rootfiles>
</container>`},
		{"OEBPS/content.opf", testOPF},
		{"OEBPS/text/ch1.xhtml", `<?xml version="1.0" encoding="UTF-8"?><html xmlns="http://www.w3.org/1999/xhtml"><head><title>First</title></head><body><p>قال الشيخ</p></body></html>`},
		{"OEBPS/text/ch2.xhtml", `<?xml version="1.0" encoding="UTF-8"?><html xmlns="http://www.w3.org/1999/xhtml"><head><title>Second</title></head><body><p>Two</p><script>alert(1)</script></body></html>`},
		{"OEBPS/style.css", "p { margin: 0 }"},
		{"OEBPS/nav.xhtml", `<?xml version="1.0" encoding="UTF-8"?><html xmlns="http://www.w3.org/1999/xhtml" xmlns:epub="http://www.idpf.org/2007/ops"><body><nav epub:type="toc"><ol><li><a href="text/ch1.xhtml">Opening</a><ol><li><a href="text/ch1.xhtml#s2">Section</a></li></ol></li><li><a href="text/ch2.xhtml">Closing</a></li></ol></nav></body></html>`},
	}
	for _, f := range files {
		w, err := zw.Create(f.name)
		if err != nil {
			t.Fatalf("Create(%q) failed: %v", f.name, err)
		}
		if _, err := w.Write([]byte(f.body)); err != nil {
			t.Fatalf("Write(%q) failed: %v", f.name, err)
		}
	}
	if err := zw.Close(); err != nil {
		t.Fatalf("zip Close() failed: %v", err)
	}

	path := filepath.Join(t.TempDir(), "sample.epub")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	return path
}

// run executes the CLI with args and returns stdout and stderr.
func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), stderr.String(), err
}

func readBookOptionsForTest(t *testing.T, flagArgs ...string) (bookOptions, error) {
	t.Helper()
	root := newRootCmd()
	cmd, _, err := root.Find([]string{"validate"})
	if err != nil {
		t.Fatalf("Find(validate) error = %v", err)
	}
	if err := cmd.ParseFlags(flagArgs); err != nil {
		return bookOptions{}, err
	}
	return readBookOptions(cmd, []string{"./input/book.epub"})
}

func TestReadBookOptions_Defaults(t *testing.T) {
	opts, err := readBookOptionsForTest(t)
	if err != nil {
		t.Fatalf("readBookOptions() error = %v", err)
	}

	if opts.Path != "./input/book.epub" {
		t.Fatalf("Path = %q, want %q", opts.Path, "./input/book.epub")
	}
	if _, ok := opts.Parser.(epub.GoqueryParser); !ok {
		t.Fatalf("Parser = %T, want epub.GoqueryParser", opts.Parser)
	}
	if _, ok := opts.Decoder.(epub.XMLDecoder); !ok {
		t.Fatalf("Decoder = %T, want epub.XMLDecoder", opts.Decoder)
	}
	if opts.RTL {
		t.Fatal("RTL = true, want false")
	}
	if opts.Logger == nil {
		t.Fatal("Logger is nil, want non-nil")
	}
	if !opts.Logger.Enabled(context.Background(), slog.LevelInfo) {
		t.Fatal("Logger should be enabled at INFO level by default")
	}
	if opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("Logger should not be enabled at DEBUG level by default")
	}
}

func TestReadBookOptions_CustomFlags(t *testing.T) {
	opts, err := readBookOptionsForTest(t,
		"--parser", "node",
		"--decoder", "ETREE",
		"--arabic",
		"--log-level", "warn",
		"--verbose",
	)
	if err != nil {
		t.Fatalf("readBookOptions() error = %v", err)
	}

	if _, ok := opts.Parser.(epub.NodeParser); !ok {
		t.Fatalf("Parser = %T, want epub.NodeParser", opts.Parser)
	}
	if _, ok := opts.Decoder.(epub.EtreeDecoder); !ok {
		t.Fatalf("Decoder = %T, want epub.EtreeDecoder", opts.Decoder)
	}
	if !opts.RTL {
		t.Fatal("RTL = false, want true")
	}
	// --verbose overrides log-level to debug
	if !opts.Logger.Enabled(context.Background(), slog.LevelDebug) {
		t.Fatal("Logger should be enabled at DEBUG level when --verbose is set")
	}
}

func TestReadBookOptions_InvalidFlags(t *testing.T) {
	tests := []struct {
		args []string
		flag string
	}{
		{[]string{"--parser", "regex"}, "--parser"},
		{[]string{"--decoder", "sax"}, "--decoder"},
		{[]string{"--log-level", "trace"}, "--log-level"},
		{[]string{"--log-format", "yaml"}, "--log-format"},
	}
	for _, tt := range tests {
		_, err := readBookOptionsForTest(t, tt.args...)
		if err == nil || !strings.Contains(err.Error(), tt.flag) {
			t.Errorf("readBookOptions(%v) error = %v, want mention of %s", tt.args, err, tt.flag)
		}
	}
}

func TestBuildLogger_FormatNormalization(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "info", "JSON")
	logger.Info("test message")
	// JSON format should produce JSON output (starts with '{')
	output := buf.String()
	if len(output) == 0 || output[0] != '{' {
		t.Fatalf("expected JSON output for format 'JSON', got: %s", output)
	}
}

func TestBuildLogger_Level(t *testing.T) {
	var buf bytes.Buffer
	logger := buildLogger(&buf, "error", "text")
	logger.Warn("hidden")
	if buf.Len() != 0 {
		t.Fatalf("WARN should be filtered at ERROR level, got: %s", buf.String())
	}
}

func TestDefaultOutputDir(t *testing.T) {
	got := defaultOutputDir("./books/sample.epub")
	if got != "./books/sample" {
		t.Fatalf("defaultOutputDir() = %q", got)
	}
}

func TestValidateCommand(t *testing.T) {
	path := writeTestEPUB(t)

	for _, parser := range []string{"goquery", "node"} {
		for _, decoder := range []string{"xml", "etree"} {
			stdout, _, err := run(t, "validate", path, "--parser", parser, "--decoder", decoder)
			if err != nil {
				t.Fatalf("validate (%s/%s) error = %v", parser, decoder, err)
			}
			for _, want := range []string{"Title: Sample Book", "Author: Sample Author", "Chapters: 3", "1. First", "2. Chapter 2", "3. Second"} {
				if !strings.Contains(stdout, want) {
					t.Errorf("validate (%s/%s) output missing %q:\n%s", parser, decoder, want, stdout)
				}
			}
		}
	}
}

func TestValidateCommand_Corrupted(t *testing.T) {
	path := filepath.Join(t.TempDir(), "broken.epub")
	if err := os.WriteFile(path, []byte("not a zip"), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}

	_, stderr, err := run(t, "validate", path)
	if err == nil {
		t.Fatal("validate should fail for a corrupted file")
	}
	want := "Unable to open the book: the file may be corrupted."
	if err.Error() != want {
		t.Errorf("error = %q, want %q", err.Error(), want)
	}
	if !strings.Contains(stderr, want) {
		t.Errorf("stderr = %q, want the diagnostic", stderr)
	}
}

func TestValidateCommand_MissingFile(t *testing.T) {
	_, _, err := run(t, "validate", filepath.Join(t.TempDir(), "nope.epub"))
	if err == nil || !strings.Contains(err.Error(), "failed to read") {
		t.Fatalf("error = %v, want read failure", err)
	}
}

func TestRenderCommand(t *testing.T) {
	path := writeTestEPUB(t)
	outDir := filepath.Join(t.TempDir(), "out")

	if _, _, err := run(t, "render", path, "-o", outDir, "--arabic"); err != nil {
		t.Fatalf("render error = %v", err)
	}

	data, err := os.ReadFile(filepath.Join(outDir, "chapters.json"))
	if err != nil {
		t.Fatalf("ReadFile(chapters.json) failed: %v", err)
	}
	var doc renderedBook
	if err := json.Unmarshal(data, &doc); err != nil {
		t.Fatalf("Unmarshal() failed: %v", err)
	}
	if doc.Title != "Sample Book" || doc.Dir != "rtl" || len(doc.Chapters) != 3 {
		t.Fatalf("chapters.json = %+v", doc)
	}
	if !strings.Contains(doc.Chapters[0].Content, epub.HoverClass) {
		t.Errorf("Arabic chapter should carry lookup spans: %q", doc.Chapters[0].Content)
	}
	// Every spine entry is read as a document, the stylesheet included.
	if doc.Chapters[1].ID != "css" || doc.Chapters[1].Content != "p { margin: 0 }" {
		t.Errorf("chapter 2 = %+v, want the spine stylesheet as text", doc.Chapters[1])
	}
	if strings.Contains(doc.Chapters[2].Content, "<script") {
		t.Errorf("chapter content should be sanitized: %q", doc.Chapters[2].Content)
	}
	if _, err := os.Stat(filepath.Join(outDir, "cover.jpg")); !os.IsNotExist(err) {
		t.Errorf("cover.jpg should not exist for a book without a cover, Stat() error = %v", err)
	}
}

func TestRenderCommand_InvalidCoverWidth(t *testing.T) {
	path := writeTestEPUB(t)
	_, _, err := run(t, "render", path, "--cover-width", "-1")
	if err == nil || !strings.Contains(err.Error(), "--cover-width") {
		t.Fatalf("error = %v, want cover-width validation error", err)
	}
}

func TestInspectCommand(t *testing.T) {
	path := writeTestEPUB(t)

	stdout, _, err := run(t, "inspect", path, "OEBPS/style.css")
	if err != nil {
		t.Fatalf("inspect error = %v", err)
	}
	for _, want := range []string{
		"OPF: OEBPS/content.opf",
		"Identifier: urn:uuid:sample",
		"ch1  OEBPS/text/ch1.xhtml  application/xhtml+xml",
		"Spine (3 entries, 3 content documents)",
		"2. css  OEBPS/style.css",
		"3. ch2  OEBPS/text/ch2.xhtml",
		"Contents (OEBPS/nav.xhtml):",
		"  Opening  OEBPS/text/ch1.xhtml\n",
		"    Section  OEBPS/text/ch1.xhtml#s2",
		"  Closing  OEBPS/text/ch2.xhtml",
		"--- OEBPS/style.css ---",
		"p { margin: 0 }",
	} {
		if !strings.Contains(stdout, want) {
			t.Errorf("inspect output missing %q:\n%s", want, stdout)
		}
	}
}

func TestLoadGlossary(t *testing.T) {
	table, err := loadGlossary("")
	if err != nil || table.Len() != 0 {
		t.Fatalf("loadGlossary(\"\") = (%v, %v), want empty table", table, err)
	}

	path := filepath.Join(t.TempDir(), "t.json")
	if err := os.WriteFile(path, []byte(`{"قال": {"translation": "he said"}}`), 0o644); err != nil {
		t.Fatalf("WriteFile() failed: %v", err)
	}
	table, err = loadGlossary(path)
	if err != nil {
		t.Fatalf("loadGlossary() error = %v", err)
	}
	if e, ok := table.Lookup("قال"); !ok || e.Translation != "he said" {
		t.Errorf("Lookup() = (%+v, %v)", e, ok)
	}
}
