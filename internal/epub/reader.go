package epub

import (
	"archive/zip"
	"bytes"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// Archive provides access to the entries of an EPUB (ZIP) container.
type Archive struct {
	files map[string]*zip.File
	size  int64
}

// OpenArchive reads the ZIP central directory from data.
// A malformed directory fails the whole load with ErrArchiveFormat.
func OpenArchive(data []byte) (*Archive, error) {
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrArchiveFormat, err)
	}

	a := &Archive{
		files: make(map[string]*zip.File, len(zr.File)),
		size:  int64(len(data)),
	}

	// Build file map with normalized paths
	for _, f := range zr.File {
		if f.FileInfo().IsDir() {
			continue
		}
		a.files[normalizePath(f.Name)] = f
	}

	return a, nil
}

// OpenArchiveFile reads an EPUB from disk.
func OpenArchiveFile(path string) (*Archive, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read EPUB: %w", err)
	}
	return OpenArchive(data)
}

// Size returns the size in bytes of the underlying buffer.
func (a *Archive) Size() int64 {
	return a.size
}

// Has reports whether the archive contains path.
func (a *Archive) Has(path string) bool {
	_, ok := a.files[normalizePath(path)]
	return ok
}

// Names returns all entry names in sorted order.
func (a *Archive) Names() []string {
	names := make([]string, 0, len(a.files))
	for name := range a.files {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// ReadFile decompresses a single entry.
func (a *Archive) ReadFile(path string) ([]byte, error) {
	path = normalizePath(path)
	f, ok := a.files[path]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrEntryNotFound, path)
	}

	rc, err := f.Open()
	if err != nil {
		return nil, fmt.Errorf("failed to open file %s: %w", path, err)
	}
	defer rc.Close()

	data, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("failed to decompress %s: %w", path, err)
	}
	return data, nil
}

// ReadText decompresses a single entry as UTF-8 text.
func (a *Archive) ReadText(path string) (string, error) {
	data, err := a.ReadFile(path)
	if err != nil {
		return "", err
	}
	return string(bytes.TrimPrefix(data, utf8BOM)), nil
}

// normalizePath normalizes archive paths (removes ./ and leading / prefixes)
func normalizePath(path string) string {
	path = strings.ReplaceAll(path, "\\", "/")
	for {
		switch {
		case strings.HasPrefix(path, "./"):
			path = path[2:]
		case strings.HasPrefix(path, "/"):
			path = path[1:]
		default:
			return path
		}
	}
}
