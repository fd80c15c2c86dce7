// Package server exposes the library over HTTP: the catalog, pre-rendered
// chapters, downloads, cover thumbnails, word lookups, and the catalog scroll
// position of a reader session.
package server

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/yuanying/maktaba/internal/reader"
)

const (
	readTimeout       = 15 * time.Second
	readHeaderTimeout = 5 * time.Second
	writeTimeout      = 2 * time.Minute
	idleTimeout       = 60 * time.Second

	// DefaultLoadTimeout bounds fetching and extracting one book.
	DefaultLoadTimeout = 60 * time.Second
)

// Options configure New.
type Options struct {
	Addr    string
	Library *Library
	// Scroll stores catalog offsets between page loads. Nil keeps them in
	// memory.
	Scroll      reader.ScrollStore
	ScrollTTL   time.Duration
	LoadTimeout time.Duration
	// RateLimit is requests per second per client; zero disables limiting.
	RateLimit float64
	Burst     int
	Logger    *slog.Logger
}

// Server wraps the chi router and the http.Server.
type Server struct {
	httpServer  *http.Server
	router      *chi.Mux
	lib         *Library
	scroll      reader.ScrollStore
	books       *bookCache
	loadTimeout time.Duration
	log         *slog.Logger
}

// New builds the router. ctx bounds background work such as rate limiter
// cleanup.
func New(ctx context.Context, opts Options) *Server {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	scroll := opts.Scroll
	if scroll == nil {
		scroll = reader.NewMemoryScrollStore(opts.ScrollTTL)
	}
	loadTimeout := opts.LoadTimeout
	if loadTimeout <= 0 {
		loadTimeout = DefaultLoadTimeout
	}

	s := &Server{
		lib:         opts.Library,
		scroll:      scroll,
		books:       newBookCache(),
		loadTimeout: loadTimeout,
		log:         logger,
	}

	r := chi.NewRouter()
	r.Use(requestID)
	r.Use(structuredLogger(logger))
	if opts.RateLimit > 0 {
		rl := newRateLimiter(opts.RateLimit, opts.Burst)
		go rl.run(ctx)
		r.Use(rl.middleware)
	}
	r.Use(panicRecovery)
	r.Use(chimw.CleanPath)

	r.Get("/health", s.handleHealth)

	r.Get("/epubs/*", s.handleAsset)
	r.Get("/word-translations.json", s.handleAsset)
	r.Get("/featured-books.json", s.handleAsset)

	r.Route("/api", func(api chi.Router) {
		api.Get("/books", s.handleBooks)
		api.Get("/categories", s.handleCategories)
		api.Route("/books/{id}", func(b chi.Router) {
			b.Get("/chapters", s.handleChapters)
			b.Get("/chapters/{index}", s.handleChapter)
			b.Get("/download", s.handleDownload)
			b.Get("/cover", s.handleCover)
			b.Get("/toc", s.handleTOC)
		})
		api.Get("/translations/{token}", s.handleTranslation)
		api.Get("/scroll", s.handleRestoreScroll)
		api.Put("/scroll", s.handleSaveScroll)
	})

	s.router = r
	s.httpServer = &http.Server{
		Addr:              opts.Addr,
		Handler:           r,
		ReadTimeout:       readTimeout,
		ReadHeaderTimeout: readHeaderTimeout,
		WriteTimeout:      writeTimeout,
		IdleTimeout:       idleTimeout,
	}
	return s
}

// Handler returns the root handler.
func (s *Server) Handler() http.Handler { return s.router }

// ListenAndServe blocks until the server is closed or fails.
func (s *Server) ListenAndServe() error {
	s.log.Info("server starting", slog.String("addr", s.httpServer.Addr))
	return s.httpServer.ListenAndServe()
}

// Shutdown gracefully stops the server, waiting up to timeout for in-flight
// requests.
func (s *Server) Shutdown(timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	return s.httpServer.Shutdown(ctx)
}
