// Package reader holds the reading session: a pure page/zoom/magnifier state
// machine, the input events that drive it, and the session that owns a
// loaded book.
package reader

import (
	"math"
	"strconv"
	"strings"

	"github.com/yuanying/maktaba/internal/epub"
	"github.com/yuanying/maktaba/internal/translation"
)

// Phase is the load phase of a session.
type Phase int

const (
	PhaseLoading Phase = iota
	PhaseReady
	PhaseError
)

func (p Phase) String() string {
	switch p {
	case PhaseLoading:
		return "loading"
	case PhaseReady:
		return "ready"
	case PhaseError:
		return "error"
	}
	return "unknown"
}

const (
	MinZoom     = 50
	MaxZoom     = 200
	ZoomStep    = 25
	DefaultZoom = 100

	// LensRadius is the magnifier lens radius in pixels.
	LensRadius = 64
)

// Point is a pointer position in viewport pixels.
type Point struct {
	X, Y float64
}

// Hover is the word under the pointer. The zero value means none.
type Hover struct {
	Token string
	Entry translation.Entry
	At    Point
}

// Active reports whether a word is hovered.
func (h Hover) Active() bool { return h.Token != "" }

// State is an immutable snapshot of a reader. Transitions return a new value
// and leave the receiver untouched. Only PhaseReady accepts transitions.
type State struct {
	Phase      Phase
	PageIndex  int
	TotalPages int
	Zoom       int
	Magnifier  bool
	Lens       Point
	Hover      Hover
	PageInput  string // contents of the page number field, 1-based
	Err        string // user-facing message in PhaseError
}

// Loading is the state while a book is being fetched and extracted.
func Loading() State {
	return State{Phase: PhaseLoading, Zoom: DefaultZoom, PageInput: "1"}
}

// Ready is the state after a load produced total pages. A zero-page book
// is never ready.
func Ready(total int) State {
	if total <= 0 {
		return Failed(epub.Describe(epub.ErrNoReadableContent))
	}
	return State{Phase: PhaseReady, TotalPages: total, Zoom: DefaultZoom, PageInput: "1"}
}

// Failed is the terminal state for a book whose load failed.
func Failed(msg string) State {
	return State{Phase: PhaseError, Zoom: DefaultZoom, Err: msg}
}

func (s State) ready() bool { return s.Phase == PhaseReady && s.TotalPages > 0 }

func (s State) clamp(n int) int {
	if n < 0 {
		return 0
	}
	if n > s.TotalPages-1 {
		return s.TotalPages - 1
	}
	return n
}

func (s State) withPage(n int) State {
	s.PageIndex = s.clamp(n)
	s.PageInput = strconv.Itoa(s.PageIndex + 1)
	return s
}

// Next advances one page; it is a no-op on the last page.
func (s State) Next() State {
	if !s.ready() {
		return s
	}
	return s.withPage(s.PageIndex + 1)
}

// Prev goes back one page; it is a no-op on the first page.
func (s State) Prev() State {
	if !s.ready() {
		return s
	}
	return s.withPage(s.PageIndex - 1)
}

func (s State) First() State {
	if !s.ready() {
		return s
	}
	return s.withPage(0)
}

func (s State) Last() State {
	if !s.ready() {
		return s
	}
	return s.withPage(s.TotalPages - 1)
}

// JumpTo moves to the 0-based page n, clamped to the book.
func (s State) JumpTo(n int) State {
	if !s.ready() {
		return s
	}
	return s.withPage(n)
}

// EditPageInput records what the user typed in the page field. A number
// within the book is applied immediately; anything else only edits the field.
func (s State) EditPageInput(v string) State {
	if !s.ready() {
		return s
	}
	s.PageInput = v
	if n, ok := parsePageNumber(v); ok && n >= 1 && n <= s.TotalPages {
		s.PageIndex = n - 1
	}
	return s
}

// SubmitPageInput jumps to the 1-based page in the field, clamped. A field
// that holds no number reverts to the current page.
func (s State) SubmitPageInput() State {
	if !s.ready() {
		return s
	}
	n, ok := parsePageNumber(s.PageInput)
	if !ok {
		return s.withPage(s.PageIndex)
	}
	return s.withPage(n - 1)
}

// ClickProgress maps a click x pixels into a progress bar width pixels wide
// to the 1-based page floor(x/width*total), clamped to the book.
func (s State) ClickProgress(x, width float64) State {
	if !s.ready() || width <= 0 {
		return s
	}
	frac := x / width
	if math.IsNaN(frac) {
		return s
	}
	frac = min(max(frac, 0), 1)
	page := int(math.Floor(frac * float64(s.TotalPages)))
	return s.withPage(page - 1)
}

func (s State) ZoomIn() State {
	if !s.ready() {
		return s
	}
	s.Zoom = min(s.Zoom+ZoomStep, MaxZoom)
	return s
}

func (s State) ZoomOut() State {
	if !s.ready() {
		return s
	}
	s.Zoom = max(s.Zoom-ZoomStep, MinZoom)
	return s
}

func (s State) ResetZoom() State {
	if !s.ready() {
		return s
	}
	s.Zoom = DefaultZoom
	return s
}

func (s State) ToggleMagnifier() State {
	if !s.ready() {
		return s
	}
	s.Magnifier = !s.Magnifier
	return s
}

// MovePointer moves the lens while the magnifier is on.
func (s State) MovePointer(x, y float64) State {
	if !s.ready() || !s.Magnifier {
		return s
	}
	s.Lens = Point{X: x, Y: y}
	return s
}

// Glossary looks up hovered tokens.
type Glossary interface {
	Lookup(token string) (translation.Entry, bool)
}

// HoverWord shows the gloss for raw at (x, y) when the glossary knows its
// Arabic letters. Unknown tokens leave the state unchanged.
func (s State) HoverWord(g Glossary, raw string, x, y float64) State {
	if !s.ready() || g == nil {
		return s
	}
	token := epub.StripNonArabic(raw)
	if token == "" {
		return s
	}
	entry, ok := g.Lookup(token)
	if !ok {
		return s
	}
	s.Hover = Hover{Token: token, Entry: entry, At: Point{X: x, Y: y}}
	return s
}

func (s State) LeaveWord() State {
	if !s.ready() {
		return s
	}
	s.Hover = Hover{}
	return s
}

// Progress is the fraction of the book read, in (0, 1].
func (s State) Progress() float64 {
	if s.TotalPages == 0 {
		return 0
	}
	return float64(s.PageIndex+1) / float64(s.TotalPages)
}

// parsePageNumber reads the leading integer of v, ignoring surrounding
// blanks and any trailing text ("12abc" is 12).
func parsePageNumber(v string) (int, bool) {
	v = strings.TrimSpace(v)
	end := 0
	if end < len(v) && (v[end] == '+' || v[end] == '-') {
		end++
	}
	digits := end
	for end < len(v) && v[end] >= '0' && v[end] <= '9' {
		end++
	}
	if end == digits {
		return 0, false
	}
	n, err := strconv.Atoi(v[:end])
	if err != nil {
		return 0, false
	}
	return n, true
}
