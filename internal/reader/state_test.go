package reader

import (
	"math"
	"math/rand"
	"testing"

	"github.com/yuanying/maktaba/internal/translation"
)

func TestReady_Reset(t *testing.T) {
	s := Ready(12)
	want := State{Phase: PhaseReady, PageIndex: 0, TotalPages: 12, Zoom: 100, PageInput: "1"}
	if s != want {
		t.Errorf("Ready(12) = %+v, want %+v", s, want)
	}
}

func TestReady_ZeroPages(t *testing.T) {
	s := Ready(0)
	if s.Phase != PhaseError {
		t.Fatalf("Ready(0).Phase = %v, want %v", s.Phase, PhaseError)
	}
	if s.Err != "No readable content found in this EPUB file" {
		t.Errorf("Ready(0).Err = %q", s.Err)
	}
}

func TestNavigation(t *testing.T) {
	s := Ready(3)

	s = s.Prev()
	if s.PageIndex != 0 {
		t.Errorf("Prev() at first page = %d, want 0", s.PageIndex)
	}

	s = s.Next().Next()
	if s.PageIndex != 2 || s.PageInput != "3" {
		t.Errorf("after two Next() = (%d, %q), want (2, %q)", s.PageIndex, s.PageInput, "3")
	}

	for i := 0; i < 5; i++ {
		s = s.Next()
	}
	if s.PageIndex != 2 {
		t.Errorf("Next() at last page = %d, want 2", s.PageIndex)
	}

	if got := s.First().PageIndex; got != 0 {
		t.Errorf("First() = %d, want 0", got)
	}
	if got := s.First().Last().PageIndex; got != 2 {
		t.Errorf("Last() = %d, want 2", got)
	}
}

func TestJumpTo_Clamps(t *testing.T) {
	s := Ready(10)
	tests := []struct {
		n    int
		want int
	}{
		{4, 4},
		{-3, 0},
		{10, 9},
		{1000, 9},
	}
	for _, tt := range tests {
		if got := s.JumpTo(tt.n).PageIndex; got != tt.want {
			t.Errorf("JumpTo(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

// Random Next/Prev/Jump sequences never leave [0, total-1].
func TestPaginationBounds(t *testing.T) {
	rng := rand.New(rand.NewSource(1))
	for _, total := range []int{1, 2, 7, 50} {
		s := Ready(total)
		for i := 0; i < 2000; i++ {
			switch rng.Intn(4) {
			case 0:
				s = s.Next()
			case 1:
				s = s.Prev()
			case 2:
				s = s.JumpTo(rng.Intn(3*total) - total)
			case 3:
				s = s.ClickProgress(rng.Float64()*300-50, 200)
			}
			if s.PageIndex < 0 || s.PageIndex >= total {
				t.Fatalf("total=%d step=%d: PageIndex = %d out of range", total, i, s.PageIndex)
			}
		}
	}
}

func TestZoomBounds(t *testing.T) {
	s := Ready(1)
	for i := 0; i < 20; i++ {
		s = s.ZoomIn()
	}
	if s.Zoom != MaxZoom {
		t.Errorf("Zoom after repeated ZoomIn() = %d, want %d", s.Zoom, MaxZoom)
	}
	if got := s.ResetZoom().Zoom; got != 100 {
		t.Errorf("ResetZoom() = %d, want 100", got)
	}

	for i := 0; i < 20; i++ {
		s = s.ZoomOut()
	}
	if s.Zoom != MinZoom {
		t.Errorf("Zoom after repeated ZoomOut() = %d, want %d", s.Zoom, MinZoom)
	}
	if got := s.ResetZoom().Zoom; got != 100 {
		t.Errorf("ResetZoom() = %d, want 100", got)
	}

	if got := Ready(1).ZoomIn().Zoom; got != 125 {
		t.Errorf("ZoomIn() from default = %d, want 125", got)
	}
	if got := Ready(1).ZoomOut().Zoom; got != 75 {
		t.Errorf("ZoomOut() from default = %d, want 75", got)
	}
}

// A click at 75% of the bar of a 20-page book lands on page 15 (index 14).
func TestClickProgress(t *testing.T) {
	s := Ready(20)
	tests := []struct {
		x, width float64
		want     int
	}{
		{150, 200, 14},
		{0, 200, 0},
		{10, 200, 0},
		{20, 200, 1},
		{199.9, 200, 18},
		{200, 200, 19},
		{-10, 200, 0},
		{250, 200, 19},
		{-1e20, 100, 0},
		{-1, 1e-300, 0},
		{1e20, 100, 19},
		{math.Inf(1), 100, 19},
	}
	for _, tt := range tests {
		if got := s.ClickProgress(tt.x, tt.width).PageIndex; got != tt.want {
			t.Errorf("ClickProgress(%v, %v) = %d, want %d", tt.x, tt.width, got, tt.want)
		}
	}

	if got := s.JumpTo(3).ClickProgress(10, 0).PageIndex; got != 3 {
		t.Errorf("ClickProgress with zero width = %d, want unchanged 3", got)
	}
}

func TestMagnifierToggleTwice(t *testing.T) {
	s := Ready(5).JumpTo(2).ZoomIn()

	on := s.ToggleMagnifier()
	if !on.Magnifier {
		t.Fatal("first ToggleMagnifier() should turn the magnifier on")
	}
	off := on.ToggleMagnifier()
	if off.Magnifier {
		t.Fatal("second ToggleMagnifier() should turn the magnifier off")
	}
	if off.PageIndex != 2 || off.Zoom != 125 {
		t.Errorf("after toggling = (page %d, zoom %d), want (2, 125)", off.PageIndex, off.Zoom)
	}
}

func TestMovePointer(t *testing.T) {
	s := Ready(1)
	if got := s.MovePointer(10, 20).Lens; got != (Point{}) {
		t.Errorf("Lens with magnifier off = %+v, want zero", got)
	}
	if got := s.ToggleMagnifier().MovePointer(10, 20).Lens; got != (Point{X: 10, Y: 20}) {
		t.Errorf("Lens with magnifier on = %+v, want {10 20}", got)
	}
}

func TestPageInput(t *testing.T) {
	s := Ready(10).JumpTo(4)

	tests := []struct {
		name      string
		input     string
		wantEdit  int // page index after EditPageInput
		wantIndex int // page index after SubmitPageInput
		wantField string
	}{
		{"valid", "7", 6, 6, "7"},
		{"leading blanks", "  3", 2, 2, "3"},
		{"trailing text", "8abc", 7, 7, "8"},
		{"non-numeric reverts", "abc", 4, 4, "5"},
		{"empty reverts", "", 4, 4, "5"},
		{"too large clamps on submit", "42", 4, 9, "10"},
		{"zero clamps on submit", "0", 4, 0, "1"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			edited := s.EditPageInput(tt.input)
			if edited.PageIndex != tt.wantEdit {
				t.Errorf("EditPageInput(%q).PageIndex = %d, want %d", tt.input, edited.PageIndex, tt.wantEdit)
			}
			if edited.PageInput != tt.input {
				t.Errorf("EditPageInput(%q).PageInput = %q, want %q", tt.input, edited.PageInput, tt.input)
			}

			submitted := edited.SubmitPageInput()
			if submitted.PageIndex != tt.wantIndex {
				t.Errorf("SubmitPageInput().PageIndex = %d, want %d", submitted.PageIndex, tt.wantIndex)
			}
			if submitted.PageInput != tt.wantField {
				t.Errorf("SubmitPageInput().PageInput = %q, want %q", submitted.PageInput, tt.wantField)
			}
		})
	}
}

func TestHoverWord(t *testing.T) {
	table := translation.NewTable(map[string]translation.Entry{
		"كتاب": {Translation: "book"},
	})
	s := Ready(1)

	hovered := s.HoverWord(table, "«كتاب»", 40, 60)
	want := Hover{Token: "كتاب", Entry: translation.Entry{Translation: "book"}, At: Point{X: 40, Y: 60}}
	if hovered.Hover != want {
		t.Errorf("HoverWord() Hover = %+v, want %+v", hovered.Hover, want)
	}

	if got := hovered.HoverWord(table, "قلم", 1, 1).Hover; got != want {
		t.Errorf("unknown token changed Hover to %+v", got)
	}
	if got := s.HoverWord(table, "book", 1, 1).Hover; got.Active() {
		t.Errorf("non-Arabic token set Hover to %+v", got)
	}
	if got := hovered.LeaveWord().Hover; got.Active() {
		t.Errorf("LeaveWord() Hover = %+v, want zero", got)
	}
	if got := s.HoverWord(nil, "كتاب", 1, 1).Hover; got.Active() {
		t.Errorf("nil glossary set Hover to %+v", got)
	}
}

func TestNonReadyIgnoresTransitions(t *testing.T) {
	for _, s := range []State{Loading(), Failed("boom")} {
		transitions := map[string]State{
			"Next":            s.Next(),
			"Prev":            s.Prev(),
			"First":           s.First(),
			"Last":            s.Last(),
			"JumpTo":          s.JumpTo(3),
			"EditPageInput":   s.EditPageInput("2"),
			"SubmitPageInput": s.SubmitPageInput(),
			"ClickProgress":   s.ClickProgress(50, 100),
			"ZoomIn":          s.ZoomIn(),
			"ZoomOut":         s.ZoomOut(),
			"ResetZoom":       s.ResetZoom(),
			"ToggleMagnifier": s.ToggleMagnifier(),
			"MovePointer":     s.MovePointer(1, 2),
			"LeaveWord":       s.LeaveWord(),
		}
		for name, got := range transitions {
			if got != s {
				t.Errorf("%s() in phase %v = %+v, want unchanged", name, s.Phase, got)
			}
		}
	}
}

func TestParsePageNumber(t *testing.T) {
	tests := []struct {
		in     string
		want   int
		wantOK bool
	}{
		{"12", 12, true},
		{" 12 ", 12, true},
		{"12abc", 12, true},
		{"-3", -3, true},
		{"+4", 4, true},
		{"abc", 0, false},
		{"-", 0, false},
		{"", 0, false},
	}
	for _, tt := range tests {
		got, ok := parsePageNumber(tt.in)
		if got != tt.want || ok != tt.wantOK {
			t.Errorf("parsePageNumber(%q) = (%d, %v), want (%d, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
