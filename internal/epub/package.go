package epub

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

const containerPath = "META-INF/container.xml"

// ResolvePackage locates the package document through container.xml and
// resolves its manifest and spine. A nil decoder selects XMLDecoder.
func ResolvePackage(a *Archive, decoder PackageDecoder) (*Package, error) {
	if decoder == nil {
		decoder = XMLDecoder{}
	}

	containerData, err := a.ReadFile(containerPath)
	if err != nil {
		return nil, ErrMissingContainer
	}

	opfPath, err := decoder.DecodeContainer(containerData)
	if err != nil {
		return nil, err
	}

	opfData, err := a.ReadFile(opfPath)
	if err != nil {
		return nil, fmt.Errorf("%w: %s", ErrMissingPackageDocument, opfPath)
	}

	opf, err := decoder.DecodePackage(opfData)
	if err != nil {
		return nil, err
	}

	basePath := ""
	if idx := strings.LastIndex(opfPath, "/"); idx >= 0 {
		basePath = opfPath[:idx+1]
	}

	pkg := &Package{
		OPFPath:  opfPath,
		BasePath: basePath,
		Metadata: opf.Metadata,
		Manifest: make(map[string]ManifestItem, len(opf.Items)),
		Spine:    opf.ItemRefs,
	}

	for _, item := range opf.Items {
		if item.ID == "" {
			continue
		}
		if _, dup := pkg.Manifest[item.ID]; !dup {
			pkg.ManifestOrder = append(pkg.ManifestOrder, item.ID)
		}
		pkg.Manifest[item.ID] = ManifestItem{
			ID:         item.ID,
			Href:       item.Href,
			Path:       resolveHref(basePath, item.Href),
			MediaType:  item.MediaType,
			Properties: strings.Fields(item.Properties),
		}
	}

	for _, ref := range opf.Guide {
		ref.Href = resolveHref(basePath, ref.Href)
		pkg.Guide = append(pkg.Guide, ref)
	}

	return pkg, nil
}

// ChapterRefs resolves the spine in reading order. Idrefs with no manifest
// entry are skipped.
func (p *Package) ChapterRefs() []ChapterRef {
	refs := make([]ChapterRef, 0, len(p.Spine))
	for i, idref := range p.Spine {
		item, ok := p.Manifest[idref]
		if !ok || item.Href == "" {
			continue
		}
		refs = append(refs, ChapterRef{Index: i, ID: idref, Path: item.Path})
	}
	return refs
}

// resolveHref joins an OPF-relative href onto the OPF directory.
func resolveHref(basePath, href string) string {
	href, _ = splitFragment(href)
	if href == "" {
		return ""
	}
	if unescaped, err := url.PathUnescape(href); err == nil {
		href = unescaped
	}
	return normalizePath(path.Clean(basePath + href))
}

// splitFragment splits a source path into the path and fragment identifier.
func splitFragment(src string) (path, fragment string) {
	if src == "" {
		return "", ""
	}
	parts := strings.SplitN(src, "#", 2)
	path = parts[0]
	if len(parts) == 2 {
		fragment = parts[1]
	}
	return path, fragment
}
