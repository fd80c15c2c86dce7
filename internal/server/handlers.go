package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"mime"
	"net/http"
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"

	"github.com/yuanying/maktaba/internal/apperr"
	"github.com/yuanying/maktaba/internal/assets"
	"github.com/yuanying/maktaba/internal/catalog"
	"github.com/yuanying/maktaba/internal/epub"
	"github.com/yuanying/maktaba/internal/reader"
)

const (
	sessionCookie   = "maktaba_session"
	epubContentType = "application/epub+zip"
	maxScrollBody   = 1 << 10
)

type bookView struct {
	ID        string `json:"id"`
	Title     string `json:"title"`
	Author    string `json:"author"`
	TitleAr   string `json:"title_ar"`
	TitleEn   string `json:"title_en"`
	AuthorAr  string `json:"author_ar"`
	AuthorEn  string `json:"author_en"`
	Filename  string `json:"filename"`
	CoverText string `json:"coverText"`
	Type      string `json:"type"`
	Source    string `json:"source"`
	Category  string `json:"category"`
	Featured  bool   `json:"featured"`
}

func (s *Server) newBookView(b catalog.Book, lang catalog.Lang) bookView {
	return bookView{
		ID:        b.ID,
		Title:     b.Title(lang),
		Author:    b.Author(lang),
		TitleAr:   b.TitleAr,
		TitleEn:   b.TitleEn,
		AuthorAr:  b.AuthorAr,
		AuthorEn:  b.AuthorEn,
		Filename:  b.Filename(lang),
		CoverText: b.CoverText,
		Type:      b.Type,
		Source:    b.Source,
		Category:  b.Category,
		Featured:  b.IsFeatured || b.IsFeaturedBy(s.lib.Featured),
	}
}

type categoryView struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Count int    `json:"count"`
}

type chapterView struct {
	Index   int    `json:"index"`
	ID      string `json:"id"`
	Title   string `json:"title"`
	Content string `json:"content"`
}

type chaptersView struct {
	BookID   string        `json:"book_id"`
	Lang     catalog.Lang  `json:"lang"`
	Dir      string        `json:"dir"`
	Total    int           `json:"total"`
	Chapters []chapterView `json:"chapters"`
}

type chapterPageView struct {
	BookID  string       `json:"book_id"`
	Lang    catalog.Lang `json:"lang"`
	Dir     string       `json:"dir"`
	Page    int          `json:"page"`
	Total   int          `json:"total"`
	Chapter chapterView  `json:"chapter"`
}

type scrollView struct {
	Offset   float64 `json:"offset"`
	Restored bool    `json:"restored"`
}

func dir(lang catalog.Lang) string {
	if lang.RTL() {
		return "rtl"
	}
	return "ltr"
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeOK(w, map[string]any{"status": "ok", "books": s.lib.Catalog.Len()})
}

// handleAsset streams a static library file from the asset source.
func (s *Server) handleAsset(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimPrefix(r.URL.Path, "/")
	rc, err := s.lib.Source.Open(r.Context(), name)
	if err != nil {
		writeError(w, r, assetError(err))
		return
	}
	defer rc.Close()

	ctype := mime.TypeByExtension(path.Ext(name))
	if path.Ext(name) == ".epub" {
		ctype = epubContentType
	}
	if ctype != "" {
		w.Header().Set("Content-Type", ctype)
	}
	if _, err := io.Copy(w, rc); err != nil {
		loggerFrom(r.Context()).Warn("asset copy interrupted", "name", name, "error", err)
	}
}

func assetError(err error) error {
	if assets.IsNotFound(err) {
		return apperr.NotFound("Asset")
	}
	var fe *assets.FetchError
	if errors.As(err, &fe) {
		return apperr.BadGateway("Failed to fetch asset", err)
	}
	return apperr.ValidationError("Invalid asset path")
}

func (s *Server) handleBooks(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	lang := catalog.ParseLang(q.Get("lang"))

	books := s.lib.Catalog.Filter(catalog.Query{
		Category: q.Get("category"),
		Search:   q.Get("q"),
		Featured: s.lib.Featured,
	})
	out := make([]bookView, len(books))
	for i, b := range books {
		out[i] = s.newBookView(b, lang)
	}
	writeOK(w, out)
}

func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request) {
	cats := s.lib.Catalog.Categories()
	out := make([]categoryView, len(cats))
	for i, c := range cats {
		out[i] = categoryView{ID: c.ID, Name: c.Name, Count: s.lib.Catalog.CategoryCount(c.ID)}
	}
	writeOK(w, out)
}

func (s *Server) book(r *http.Request) (catalog.Book, error) {
	b, ok := s.lib.Catalog.Book(chi.URLParam(r, "id"))
	if !ok {
		return catalog.Book{}, apperr.NotFound("Book")
	}
	return b, nil
}

// loadChapters fetches and extracts a book through a reader session so the
// load is bounded by the session timeout. Results are cached per file and
// direction.
func (s *Server) loadChapters(ctx context.Context, file string, rtl bool) ([]epub.Chapter, error) {
	key := bookKey{file: file, rtl: rtl}
	if chapters, ok := s.books.get(key); ok {
		return chapters, nil
	}

	sess := reader.NewSession(reader.SessionOptions{
		LoadTimeout: s.loadTimeout,
		Logger:      loggerFrom(ctx),
	})
	err := sess.Load(ctx, func(ctx context.Context) ([]epub.Chapter, error) {
		data, err := assets.FetchEPUB(ctx, s.lib.Source, file)
		if err != nil {
			return nil, err
		}
		book, err := epub.Load(ctx, data, epub.LoadOptions{
			Decoder: s.lib.Decoder,
			Parser:  s.lib.Parser,
			RTL:     rtl,
			Logger:  loggerFrom(ctx),
		})
		if err != nil {
			return nil, err
		}
		return book.Chapters, nil
	})
	if err != nil {
		return nil, apperr.FromLoad(err)
	}

	chapters := sess.Chapters()
	s.books.put(key, chapters)
	return chapters, nil
}

func (s *Server) handleChapters(w http.ResponseWriter, r *http.Request) {
	b, err := s.book(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lang := catalog.ParseLang(r.URL.Query().Get("lang"))

	chapters, err := s.loadChapters(r.Context(), b.Filename(lang), lang.RTL())
	if err != nil {
		writeError(w, r, err)
		return
	}

	out := chaptersView{
		BookID:   b.ID,
		Lang:     lang,
		Dir:      dir(lang),
		Total:    len(chapters),
		Chapters: make([]chapterView, len(chapters)),
	}
	for i, ch := range chapters {
		out.Chapters[i] = chapterView{Index: i, ID: ch.ID, Title: ch.Title, Content: ch.Content}
	}
	writeOK(w, out)
}

// handleChapter returns one page. The index is 0-based.
func (s *Server) handleChapter(w http.ResponseWriter, r *http.Request) {
	b, err := s.book(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	index, err := strconv.Atoi(chi.URLParam(r, "index"))
	if err != nil || index < 0 {
		writeError(w, r, apperr.ValidationError("Chapter index must be a non-negative integer"))
		return
	}
	lang := catalog.ParseLang(r.URL.Query().Get("lang"))

	chapters, err := s.loadChapters(r.Context(), b.Filename(lang), lang.RTL())
	if err != nil {
		writeError(w, r, err)
		return
	}
	if index >= len(chapters) {
		writeError(w, r, apperr.NotFound("Chapter"))
		return
	}

	ch := chapters[index]
	writeOK(w, chapterPageView{
		BookID:  b.ID,
		Lang:    lang,
		Dir:     dir(lang),
		Page:    index + 1,
		Total:   len(chapters),
		Chapter: chapterView{Index: index, ID: ch.ID, Title: ch.Title, Content: ch.Content},
	})
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	b, err := s.book(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	file := b.Filename(catalog.ParseLang(r.URL.Query().Get("lang")))

	data, err := assets.FetchEPUB(r.Context(), s.lib.Source, file)
	if err != nil {
		writeError(w, r, apperr.FromLoad(err))
		return
	}

	w.Header().Set("Content-Type", epubContentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": path.Base(file)}))
	w.Header().Set("Content-Length", strconv.Itoa(len(data)))
	_, _ = w.Write(data)
}

func (s *Server) handleCover(w http.ResponseWriter, r *http.Request) {
	b, err := s.book(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	width := assets.DefaultThumbnailWidth
	if v := r.URL.Query().Get("w"); v != "" {
		width, err = strconv.Atoi(v)
		if err != nil || width <= 0 {
			writeError(w, r, apperr.ValidationError("w must be a positive integer"))
			return
		}
	}

	a, pkg, err := s.openPackage(r.Context(), b.Filename(catalog.ParseLang(r.URL.Query().Get("lang"))))
	if err != nil {
		writeError(w, r, err)
		return
	}
	info := pkg.DetectCover()
	if info == nil {
		writeError(w, r, apperr.NotFound("Cover"))
		return
	}
	img, err := a.ReadFile(info.Path)
	if err != nil {
		writeError(w, r, apperr.NotFound("Cover"))
		return
	}
	thumb, err := assets.Thumbnail(img, width)
	if err != nil {
		writeError(w, r, apperr.Unprocessable("Unable to render the cover image", err))
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(thumb)
}

// chaptersOf returns the cached chapters for key, extracting them from an
// already opened archive on a miss.
func (s *Server) chaptersOf(ctx context.Context, key bookKey, a *epub.Archive, pkg *epub.Package) ([]epub.Chapter, error) {
	if chapters, ok := s.books.get(key); ok {
		return chapters, nil
	}
	ex := &epub.Extractor{Parser: s.lib.Parser, RTL: key.rtl, Logger: loggerFrom(ctx)}
	chapters, err := ex.Extract(ctx, a, pkg.ChapterRefs())
	if err != nil {
		return nil, apperr.FromLoad(err)
	}
	s.books.put(key, chapters)
	return chapters, nil
}

// openPackage fetches a book and resolves its package document without
// extracting chapters.
func (s *Server) openPackage(ctx context.Context, file string) (*epub.Archive, *epub.Package, error) {
	data, err := assets.FetchEPUB(ctx, s.lib.Source, file)
	if err != nil {
		return nil, nil, apperr.FromLoad(err)
	}
	a, err := epub.OpenArchive(data)
	if err != nil {
		return nil, nil, apperr.FromLoad(err)
	}
	pkg, err := epub.ResolvePackage(a, s.lib.Decoder)
	if err != nil {
		return nil, nil, apperr.FromLoad(err)
	}
	return a, pkg, nil
}

type tocEntryView struct {
	Label    string         `json:"label"`
	Page     int            `json:"page"` // 0-based chapter index, -1 when not a page
	Fragment string         `json:"fragment,omitempty"`
	Children []tocEntryView `json:"children,omitempty"`
}

type tocView struct {
	BookID  string         `json:"book_id"`
	Title   string         `json:"title"`
	Entries []tocEntryView `json:"entries"`
}

// handleTOC returns the table of contents with each entry mapped to the page
// that shows its document.
func (s *Server) handleTOC(w http.ResponseWriter, r *http.Request) {
	b, err := s.book(r)
	if err != nil {
		writeError(w, r, err)
		return
	}
	lang := catalog.ParseLang(r.URL.Query().Get("lang"))
	file := b.Filename(lang)

	a, pkg, err := s.openPackage(r.Context(), file)
	if err != nil {
		writeError(w, r, err)
		return
	}
	toc, err := epub.LoadTOC(a, pkg)
	if err != nil {
		if errors.Is(err, epub.ErrEntryNotFound) {
			writeError(w, r, apperr.NotFound("Table of contents"))
			return
		}
		writeError(w, r, apperr.Unprocessable("Unable to read the table of contents", err))
		return
	}
	chapters, err := s.chaptersOf(r.Context(), bookKey{file: file, rtl: lang.RTL()}, a, pkg)
	if err != nil {
		writeError(w, r, err)
		return
	}

	pageByID := make(map[string]int, len(chapters))
	for i, ch := range chapters {
		pageByID[ch.ID] = i
	}
	idByPath := make(map[string]string, len(pkg.Manifest))
	for id, item := range pkg.Manifest {
		idByPath[item.Path] = id
	}

	var convert func([]epub.TOCEntry) []tocEntryView
	convert = func(entries []epub.TOCEntry) []tocEntryView {
		out := make([]tocEntryView, 0, len(entries))
		for _, e := range entries {
			page := -1
			if p, ok := pageByID[idByPath[e.Path]]; ok && e.Path != "" {
				page = p
			}
			out = append(out, tocEntryView{
				Label:    e.Label,
				Page:     page,
				Fragment: e.Fragment,
				Children: convert(e.Children),
			})
		}
		return out
	}

	writeOK(w, tocView{BookID: b.ID, Title: toc.Title, Entries: convert(toc.Entries)})
}

func (s *Server) handleTranslation(w http.ResponseWriter, r *http.Request) {
	token, err := url.PathUnescape(chi.URLParam(r, "token"))
	if err != nil {
		writeError(w, r, apperr.ValidationError("Invalid token"))
		return
	}
	entry, ok := s.lib.Translations.Lookup(token)
	if !ok {
		writeError(w, r, apperr.NotFound("Translation"))
		return
	}
	writeOK(w, map[string]any{
		"word":  epub.StripNonArabic(token),
		"entry": entry,
	})
}

// session returns the reader session named by the session cookie, minting
// the cookie when create is set.
func (s *Server) session(w http.ResponseWriter, r *http.Request, create bool) *reader.Session {
	key := ""
	if c, err := r.Cookie(sessionCookie); err == nil {
		key = c.Value
	}
	if key == "" && create {
		key = newID()
		http.SetCookie(w, &http.Cookie{
			Name:     sessionCookie,
			Value:    key,
			Path:     "/",
			HttpOnly: true,
			SameSite: http.SameSiteLaxMode,
		})
	}
	return reader.NewSession(reader.SessionOptions{Key: key, Scroll: s.scroll, Logger: loggerFrom(r.Context())})
}

// handleSaveScroll records the catalog offset of a reader who is opening a
// book.
func (s *Server) handleSaveScroll(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Offset *float64 `json:"offset"`
	}
	if err := json.NewDecoder(io.LimitReader(r.Body, maxScrollBody)).Decode(&body); err != nil || body.Offset == nil {
		writeError(w, r, apperr.ValidationError("Body must be {\"offset\": number}"))
		return
	}
	if *body.Offset < 0 {
		writeError(w, r, apperr.ValidationError("offset must not be negative"))
		return
	}

	if err := s.session(w, r, true).Close(r.Context(), *body.Offset); err != nil {
		writeError(w, r, apperr.ServiceUnavailable("Unable to save the scroll position", err))
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleRestoreScroll returns the saved offset once; a second call reports
// nothing to restore.
func (s *Server) handleRestoreScroll(w http.ResponseWriter, r *http.Request) {
	offset, ok, err := s.session(w, r, false).Restore(r.Context())
	if err != nil {
		writeError(w, r, apperr.ServiceUnavailable("Unable to restore the scroll position", err))
		return
	}
	writeOK(w, scrollView{Offset: offset, Restored: ok})
}
