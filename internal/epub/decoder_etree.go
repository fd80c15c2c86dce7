package epub

import (
	"fmt"
	"strings"

	"github.com/beevik/etree"
)

// EtreeDecoder is a tolerant PackageDecoder built on beevik/etree.
// It accepts documents with undeclared prefixes and stray markup that
// encoding/xml rejects.
type EtreeDecoder struct{}

func readEtree(data []byte) (*etree.Document, error) {
	doc := etree.NewDocument()
	doc.ReadSettings.Permissive = true
	if err := doc.ReadFromBytes(data); err != nil {
		return nil, err
	}
	return doc, nil
}

// DecodeContainer returns the first usable rootfile full-path.
func (EtreeDecoder) DecodeContainer(data []byte) (string, error) {
	doc, err := readEtree(data)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidContainer, err)
	}

	var rootfiles []rootfile
	for _, el := range doc.FindElements("//rootfile") {
		rootfiles = append(rootfiles, rootfile{
			fullPath:  el.SelectAttrValue("full-path", ""),
			mediaType: el.SelectAttrValue("media-type", ""),
		})
	}
	return pickRootfile(rootfiles)
}

// DecodePackage parses an OPF document.
func (EtreeDecoder) DecodePackage(data []byte) (*OPF, error) {
	doc, err := readEtree(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidPackageDocument, err)
	}

	root := doc.SelectElement("package")
	if root == nil {
		return nil, fmt.Errorf("%w: no package element found", ErrInvalidPackageDocument)
	}

	opf := &OPF{}
	if meta := root.SelectElement("metadata"); meta != nil {
		opf.Metadata = parseEtreeMetadata(meta, root.SelectAttrValue("unique-identifier", ""))
	}

	if manifest := root.SelectElement("manifest"); manifest != nil {
		for _, item := range manifest.SelectElements("item") {
			opf.Items = append(opf.Items, OPFItem{
				ID:         item.SelectAttrValue("id", ""),
				Href:       item.SelectAttrValue("href", ""),
				MediaType:  item.SelectAttrValue("media-type", ""),
				Properties: item.SelectAttrValue("properties", ""),
			})
		}
	}

	if spine := root.SelectElement("spine"); spine != nil {
		for _, ref := range spine.SelectElements("itemref") {
			opf.ItemRefs = append(opf.ItemRefs, ref.SelectAttrValue("idref", ""))
		}
	}

	if guide := root.SelectElement("guide"); guide != nil {
		for _, ref := range guide.SelectElements("reference") {
			opf.Guide = append(opf.Guide, GuideReference{
				Type:  ref.SelectAttrValue("type", ""),
				Title: ref.SelectAttrValue("title", ""),
				Href:  ref.SelectAttrValue("href", ""),
			})
		}
	}

	return opf, nil
}

func parseEtreeMetadata(elem *etree.Element, uniqueID string) Metadata {
	md := Metadata{}

	if title := elem.SelectElement("title"); title != nil {
		md.Title = strings.TrimSpace(title.Text())
	}
	if lang := elem.SelectElement("language"); lang != nil {
		md.Language = strings.TrimSpace(lang.Text())
	}

	ids := elem.SelectElements("identifier")
	for _, id := range ids {
		if id.SelectAttrValue("id", "") == uniqueID {
			md.Identifier = strings.TrimSpace(id.Text())
			break
		}
	}
	if md.Identifier == "" && len(ids) > 0 {
		md.Identifier = strings.TrimSpace(ids[0].Text())
	}

	for _, creator := range elem.SelectElements("creator") {
		if name := strings.TrimSpace(creator.Text()); name != "" {
			md.Creators = append(md.Creators, name)
		}
	}

	for _, m := range elem.SelectElements("meta") {
		if m.SelectAttrValue("name", "") == "cover" {
			if content := m.SelectAttrValue("content", ""); content != "" {
				md.CoverID = content
				break
			}
		}
	}

	return md
}
