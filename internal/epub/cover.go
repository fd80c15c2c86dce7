package epub

import (
	"fmt"
	"path"
	"strings"
)

// CoverInfo holds information about the detected cover image.
type CoverInfo struct {
	ManifestID      string
	Path            string
	MediaType       string
	DetectionMethod string // "properties", "meta", "guide", "filename"
}

// DetectCover detects the cover image from the manifest using multiple methods.
// Methods are tried in priority order:
//  1. properties="cover-image" (EPUB 3.0)
//  2. meta name="cover" (EPUB 2.0)
//  3. guide type="cover" (matched to image manifest items)
//  4. filename pattern (basename contains "cover", case-insensitive, SVG excluded)
//
// Returns nil if no cover image is found.
func (p *Package) DetectCover() *CoverInfo {
	for _, id := range p.ManifestOrder {
		item := p.Manifest[id]
		for _, prop := range item.Properties {
			if prop == "cover-image" {
				return coverInfo(item, "properties")
			}
		}
	}

	if p.Metadata.CoverID != "" {
		if item, ok := p.Manifest[p.Metadata.CoverID]; ok {
			return coverInfo(item, "meta")
		}
	}

	for _, ref := range p.Guide {
		if ref.Type != "cover" {
			continue
		}
		href, _ := splitFragment(ref.Href)
		for _, id := range p.ManifestOrder {
			item := p.Manifest[id]
			if isImageMediaType(item.MediaType) && item.Path == href {
				return coverInfo(item, "guide")
			}
		}
		// Guide points to a non-image → fall through to the filename pattern
	}

	for _, id := range p.ManifestOrder {
		item := p.Manifest[id]
		if !isImageMediaType(item.MediaType) {
			continue
		}
		if strings.Contains(strings.ToLower(path.Base(item.Path)), "cover") {
			return coverInfo(item, "filename")
		}
	}

	return nil
}

// CoverImage returns the raw bytes of the detected cover image.
func (b *Book) CoverImage() ([]byte, *CoverInfo, error) {
	info := b.Package.DetectCover()
	if info == nil {
		return nil, nil, fmt.Errorf("%w: cover image", ErrEntryNotFound)
	}
	data, err := b.Archive.ReadFile(info.Path)
	if err != nil {
		return nil, nil, err
	}
	return data, info, nil
}

func coverInfo(item ManifestItem, method string) *CoverInfo {
	return &CoverInfo{
		ManifestID:      item.ID,
		Path:            item.Path,
		MediaType:       item.MediaType,
		DetectionMethod: method,
	}
}

// isImageMediaType checks if a media type is a raster image (SVG excluded).
func isImageMediaType(mediaType string) bool {
	if mediaType == "image/svg+xml" {
		return false
	}
	return strings.HasPrefix(mediaType, "image/")
}
