package epub

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// PackageDecoder decodes the two XML documents that describe an EPUB package.
type PackageDecoder interface {
	// DecodeContainer returns the full-path of the package document.
	DecodeContainer(data []byte) (string, error)
	DecodePackage(data []byte) (*OPF, error)
}

const packageMediaType = "application/oebps-package+xml"

// XMLDecoder is a strict PackageDecoder built on encoding/xml.
type XMLDecoder struct{}

// container.xml structure
type container struct {
	Rootfiles struct {
		Rootfile []struct {
			FullPath  string `xml:"full-path,attr"`
			MediaType string `xml:"media-type,attr"`
		} `xml:"rootfile"`
	} `xml:"rootfiles"`
}

// opfPackage represents the OPF XML structure
type opfPackage struct {
	XMLName  xml.Name    `xml:"package"`
	UniqueID string      `xml:"unique-identifier,attr"`
	Metadata opfMetadata `xml:"metadata"`
	Manifest opfManifest `xml:"manifest"`
	Spine    opfSpine    `xml:"spine"`
	Guide    opfGuide    `xml:"guide"`
}

// opfMetadata represents the metadata section
type opfMetadata struct {
	Title      []string        `xml:"http://purl.org/dc/elements/1.1/ title"`
	Creator    []string        `xml:"http://purl.org/dc/elements/1.1/ creator"`
	Language   []string        `xml:"http://purl.org/dc/elements/1.1/ language"`
	Identifier []opfIdentifier `xml:"http://purl.org/dc/elements/1.1/ identifier"`
	Meta       []opfMeta       `xml:"meta"`
}

// opfIdentifier represents an identifier element
type opfIdentifier struct {
	Value string `xml:",chardata"`
	ID    string `xml:"id,attr"`
}

// opfMeta represents a meta element (EPUB 2.0 and 3.0)
type opfMeta struct {
	Name    string `xml:"name,attr"`
	Content string `xml:"content,attr"`
}

type opfManifest struct {
	Items []opfManifestItem `xml:"item"`
}

type opfManifestItem struct {
	ID         string `xml:"id,attr"`
	Href       string `xml:"href,attr"`
	MediaType  string `xml:"media-type,attr"`
	Properties string `xml:"properties,attr"`
}

type opfSpine struct {
	ItemRefs []opfItemRef `xml:"itemref"`
}

type opfItemRef struct {
	IDRef string `xml:"idref,attr"`
}

type opfGuide struct {
	References []opfReference `xml:"reference"`
}

type opfReference struct {
	Type  string `xml:"type,attr"`
	Title string `xml:"title,attr"`
	Href  string `xml:"href,attr"`
}

// DecodeContainer parses container.xml to extract the OPF path
func (XMLDecoder) DecodeContainer(data []byte) (string, error) {
	var c container
	if err := xml.Unmarshal(data, &c); err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}

	paths := make([]rootfile, 0, len(c.Rootfiles.Rootfile))
	for _, rf := range c.Rootfiles.Rootfile {
		paths = append(paths, rootfile{fullPath: rf.FullPath, mediaType: rf.MediaType})
	}
	return pickRootfile(paths)
}

// DecodePackage parses an OPF file content.
func (XMLDecoder) DecodePackage(data []byte) (*OPF, error) {
	var pkg opfPackage
	if err := xml.Unmarshal(data, &pkg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackageDocument, err)
	}

	doc := &OPF{
		Metadata: parseMetadata(&pkg.Metadata, pkg.UniqueID),
	}

	for _, item := range pkg.Manifest.Items {
		doc.Items = append(doc.Items, OPFItem{
			ID:         item.ID,
			Href:       item.Href,
			MediaType:  item.MediaType,
			Properties: item.Properties,
		})
	}

	for _, ref := range pkg.Spine.ItemRefs {
		doc.ItemRefs = append(doc.ItemRefs, ref.IDRef)
	}

	for _, ref := range pkg.Guide.References {
		doc.Guide = append(doc.Guide, GuideReference{
			Type:  ref.Type,
			Title: ref.Title,
			Href:  ref.Href,
		})
	}

	return doc, nil
}

// parseMetadata parses the metadata section
func parseMetadata(meta *opfMetadata, uniqueID string) Metadata {
	md := Metadata{}

	if len(meta.Title) > 0 {
		md.Title = strings.TrimSpace(meta.Title[0])
	}
	if len(meta.Language) > 0 {
		md.Language = strings.TrimSpace(meta.Language[0])
	}

	// Identifier (find the one marked as unique-identifier)
	for _, id := range meta.Identifier {
		if id.ID == uniqueID {
			md.Identifier = strings.TrimSpace(id.Value)
			break
		}
	}
	if md.Identifier == "" && len(meta.Identifier) > 0 {
		md.Identifier = strings.TrimSpace(meta.Identifier[0].Value)
	}

	for _, creator := range meta.Creator {
		if name := strings.TrimSpace(creator); name != "" {
			md.Creators = append(md.Creators, name)
		}
	}

	// EPUB 2.0 cover meta element
	for _, m := range meta.Meta {
		if m.Name == "cover" && m.Content != "" {
			md.CoverID = m.Content
			break
		}
	}

	return md
}

type rootfile struct {
	fullPath  string
	mediaType string
}

// pickRootfile prefers the package media type, otherwise the first rootfile.
func pickRootfile(rootfiles []rootfile) (string, error) {
	for _, rf := range rootfiles {
		if rf.fullPath != "" && (rf.mediaType == packageMediaType || rf.mediaType == "") {
			return normalizePath(rf.fullPath), nil
		}
	}
	for _, rf := range rootfiles {
		if rf.fullPath != "" {
			return normalizePath(rf.fullPath), nil
		}
	}
	return "", ErrInvalidContainer
}
