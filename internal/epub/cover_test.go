package epub

import "testing"

func TestDetectCover_Properties(t *testing.T) {
	pkg := &Package{
		Manifest: map[string]ManifestItem{
			"cover-img": {
				ID:         "cover-img",
				Path:       "OEBPS/images/cover.jpg",
				MediaType:  "image/jpeg",
				Properties: []string{"cover-image"},
			},
			"ch1": {
				ID:        "ch1",
				Path:      "OEBPS/text/ch1.xhtml",
				MediaType: "application/xhtml+xml",
			},
		},
		ManifestOrder: []string{"cover-img", "ch1"},
	}

	info := pkg.DetectCover()
	if info == nil {
		t.Fatal("DetectCover() returned nil, want CoverInfo")
	}
	if info.ManifestID != "cover-img" {
		t.Errorf("ManifestID = %q, want %q", info.ManifestID, "cover-img")
	}
	if info.Path != "OEBPS/images/cover.jpg" {
		t.Errorf("Path = %q, want %q", info.Path, "OEBPS/images/cover.jpg")
	}
	if info.DetectionMethod != "properties" {
		t.Errorf("DetectionMethod = %q, want %q", info.DetectionMethod, "properties")
	}
}

func TestDetectCover_Meta(t *testing.T) {
	pkg := &Package{
		Metadata: Metadata{CoverID: "cover-image"},
		Manifest: map[string]ManifestItem{
			"cover-image": {
				ID:        "cover-image",
				Path:      "OEBPS/images/front.jpg",
				MediaType: "image/jpeg",
			},
		},
		ManifestOrder: []string{"cover-image"},
	}

	info := pkg.DetectCover()
	if info == nil {
		t.Fatal("DetectCover() returned nil, want CoverInfo")
	}
	if info.DetectionMethod != "meta" {
		t.Errorf("DetectionMethod = %q, want %q", info.DetectionMethod, "meta")
	}
}

func TestDetectCover_GuideWithFragment(t *testing.T) {
	pkg := &Package{
		Manifest: map[string]ManifestItem{
			"img": {
				ID:        "img",
				Path:      "OEBPS/images/front.jpg",
				MediaType: "image/jpeg",
			},
		},
		ManifestOrder: []string{"img"},
		Guide: []GuideReference{
			{Type: "cover", Href: "OEBPS/images/front.jpg#fragment"},
		},
	}

	info := pkg.DetectCover()
	if info == nil {
		t.Fatal("DetectCover() returned nil, want CoverInfo")
	}
	if info.DetectionMethod != "guide" {
		t.Errorf("DetectionMethod = %q, want %q", info.DetectionMethod, "guide")
	}
}

func TestDetectCover_GuidePointsToXHTML_SkipsToFilename(t *testing.T) {
	pkg := &Package{
		Manifest: map[string]ManifestItem{
			"cover-page": {
				ID:        "cover-page",
				Path:      "OEBPS/cover.xhtml",
				MediaType: "application/xhtml+xml",
			},
			"img-cover": {
				ID:        "img-cover",
				Path:      "OEBPS/images/Cover.png",
				MediaType: "image/png",
			},
		},
		ManifestOrder: []string{"cover-page", "img-cover"},
		Guide:         []GuideReference{{Type: "cover", Href: "OEBPS/cover.xhtml"}},
	}

	info := pkg.DetectCover()
	if info == nil {
		t.Fatal("DetectCover() returned nil, want CoverInfo")
	}
	if info.ManifestID != "img-cover" {
		t.Errorf("ManifestID = %q, want %q", info.ManifestID, "img-cover")
	}
	if info.DetectionMethod != "filename" {
		t.Errorf("DetectionMethod = %q, want %q", info.DetectionMethod, "filename")
	}
}

func TestDetectCover_SVGExcluded(t *testing.T) {
	pkg := &Package{
		Manifest: map[string]ManifestItem{
			"svg": {ID: "svg", Path: "cover.svg", MediaType: "image/svg+xml"},
		},
		ManifestOrder: []string{"svg"},
	}

	if info := pkg.DetectCover(); info != nil {
		t.Errorf("DetectCover() = %+v, want nil", info)
	}
}

func TestBook_CoverImage(t *testing.T) {
	data := buildEPUB(t, epubFixture{
		files: map[string]string{"OEBPS/images/cover.jpg": "jpeg-bytes"},
		manifest: []fixtureItem{
			{id: "ch1", href: "text/ch1.xhtml"},
			{id: "cover", href: "images/cover.jpg", mediaType: "image/jpeg", properties: "cover-image"},
		},
		spine:    []string{"ch1"},
		chapters: map[string]string{"OEBPS/text/ch1.xhtml": xhtml("One", "<p>one</p>")},
	})

	a, err := OpenArchive(data)
	if err != nil {
		t.Fatalf("OpenArchive() error = %v", err)
	}
	pkg, err := ResolvePackage(a, nil)
	if err != nil {
		t.Fatalf("ResolvePackage() error = %v", err)
	}

	b := &Book{Archive: a, Package: pkg}
	img, info, err := b.CoverImage()
	if err != nil {
		t.Fatalf("CoverImage() error = %v", err)
	}
	if string(img) != "jpeg-bytes" {
		t.Errorf("CoverImage() = %q, want %q", img, "jpeg-bytes")
	}
	if info.MediaType != "image/jpeg" {
		t.Errorf("MediaType = %q, want %q", info.MediaType, "image/jpeg")
	}
}
