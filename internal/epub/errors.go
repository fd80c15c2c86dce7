package epub

import (
	"errors"
	"fmt"
)

var (
	ErrArchiveFormat          = errors.New("not a valid ZIP archive")
	ErrMissingContainer       = errors.New("META-INF/container.xml not found")
	ErrInvalidContainer       = errors.New("OPF path not found in container.xml")
	ErrMissingPackageDocument = errors.New("package document not found")
	ErrInvalidPackageDocument = errors.New("package document could not be parsed")
	ErrNoReadableContent      = errors.New("no readable content found in this EPUB file")
	ErrEntryNotFound          = errors.New("entry not found")
)

// statusError is implemented by transport errors that carry an HTTP status.
type statusError interface {
	error
	StatusCode() int
}

// Describe converts a load failure into the message shown to a reader.
func Describe(err error) string {
	if err == nil {
		return ""
	}

	var se statusError
	switch {
	case errors.Is(err, ErrArchiveFormat):
		return "Unable to open the book: the file may be corrupted."
	case errors.Is(err, ErrMissingContainer):
		return "Invalid EPUB: container.xml not found"
	case errors.Is(err, ErrInvalidContainer):
		return "Invalid EPUB: OPF path not found"
	case errors.Is(err, ErrMissingPackageDocument):
		return "Invalid EPUB: OPF file not found"
	case errors.Is(err, ErrInvalidPackageDocument):
		return "Invalid EPUB: OPF file could not be parsed"
	case errors.Is(err, ErrNoReadableContent):
		return "No readable content found in this EPUB file"
	case errors.As(err, &se):
		if code := se.StatusCode(); code != 0 {
			return fmt.Sprintf("Failed to fetch EPUB file: %d", code)
		}
		return "Failed to fetch EPUB file"
	}
	return "Failed to load the book"
}
