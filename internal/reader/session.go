package reader

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/yuanying/maktaba/internal/epub"
)

// ErrStaleLoad is returned by Load when a newer load superseded it.
var ErrStaleLoad = errors.New("load superseded by a newer request")

// Ticket identifies one load. Results for any ticket but the latest are
// discarded.
type Ticket uint64

// SessionOptions configure a Session.
type SessionOptions struct {
	// Key names the session in the scroll store.
	Key string
	// Scroll persists the catalog offset on Close. Nil disables it.
	Scroll ScrollStore
	// LoadTimeout bounds each Load. Zero means no timeout.
	LoadTimeout time.Duration
	Logger      *slog.Logger
}

// Session owns the state and chapters of the one book a reader has open.
// It is safe for concurrent use.
type Session struct {
	mu       sync.Mutex
	gen      uint64
	state    State
	chapters []epub.Chapter

	key     string
	scroll  ScrollStore
	timeout time.Duration
	logger  *slog.Logger
}

func NewSession(opts SessionOptions) *Session {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{
		state:   Loading(),
		key:     opts.Key,
		scroll:  opts.Scroll,
		timeout: opts.LoadTimeout,
		logger:  logger,
	}
}

// Begin starts a new load, resetting the session to Loading. Any earlier
// ticket becomes stale.
func (s *Session) Begin() Ticket {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.gen++
	s.state = Loading()
	s.chapters = nil
	return Ticket(s.gen)
}

// Commit installs the chapters of load t. It reports false and changes
// nothing when t is stale.
func (s *Session) Commit(t Ticket, chapters []epub.Chapter) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(t) != s.gen {
		s.logger.Debug("discarding stale load", "ticket", uint64(t), "current", s.gen)
		return false
	}
	s.chapters = chapters
	s.state = Ready(len(chapters))
	return true
}

// Fail moves load t to the error state with the user-facing message for err.
// It reports false when t is stale.
func (s *Session) Fail(t Ticket, err error) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if uint64(t) != s.gen {
		s.logger.Debug("discarding stale failure", "ticket", uint64(t), "current", s.gen, "error", err)
		return false
	}
	s.chapters = nil
	s.state = Failed(epub.Describe(err))
	return true
}

// Load runs fetch under the session timeout and commits its result.
func (s *Session) Load(ctx context.Context, fetch func(context.Context) ([]epub.Chapter, error)) error {
	t := s.Begin()

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	chapters, err := fetch(ctx)
	if err != nil {
		s.logger.Warn("book load failed", "error", err)
		if !s.Fail(t, err) {
			return ErrStaleLoad
		}
		return err
	}
	if !s.Commit(t, chapters) {
		return ErrStaleLoad
	}
	if len(chapters) == 0 {
		return epub.ErrNoReadableContent
	}
	return nil
}

// State returns the current snapshot.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Chapter returns the page currently shown.
func (s *Session) Chapter() (epub.Chapter, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state.Phase != PhaseReady || s.state.PageIndex >= len(s.chapters) {
		return epub.Chapter{}, false
	}
	return s.chapters[s.state.PageIndex], true
}

// Chapters returns the loaded pages.
func (s *Session) Chapters() []epub.Chapter {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.chapters
}

// Update applies a pure transition atomically.
func (s *Session) Update(fn func(State) State) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = fn(s.state)
	return s.state
}

// Dispatch applies an input event atomically.
func (s *Session) Dispatch(ev Event) (State, Effect) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var eff Effect
	s.state, eff = Dispatch(s.state, ev)
	return s.state, eff
}

// Close persists the caller's catalog scroll offset and drops the book.
func (s *Session) Close(ctx context.Context, offset float64) error {
	s.mu.Lock()
	s.gen++
	s.chapters = nil
	s.state = Loading()
	s.mu.Unlock()

	if s.scroll == nil || s.key == "" {
		return nil
	}
	return s.scroll.Save(ctx, s.key, offset)
}

// Restore returns the saved catalog offset once.
func (s *Session) Restore(ctx context.Context) (float64, bool, error) {
	if s.scroll == nil || s.key == "" {
		return 0, false, nil
	}
	return s.scroll.Restore(ctx, s.key)
}
