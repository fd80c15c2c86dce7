package reader

// MinSwipeDistance is the horizontal travel in pixels a touch must exceed to
// turn a page.
const MinSwipeDistance = 50

// Key is a keyboard command.
type Key int

const (
	KeyNone Key = iota
	KeyLeft
	KeyRight
	KeyHome
	KeyEnd
	KeyEscape
	KeyMagnifier
	KeyZoomIn
	KeyZoomOut
	KeyZoomReset
)

// ParseKey maps DOM and terminal key names to a Key.
func ParseKey(name string) Key {
	switch name {
	case "ArrowLeft", "left", "h":
		return KeyLeft
	case "ArrowRight", "right", "l":
		return KeyRight
	case "Home", "home":
		return KeyHome
	case "End", "end":
		return KeyEnd
	case "Escape", "esc":
		return KeyEscape
	case "m", "M":
		return KeyMagnifier
	case "+", "=":
		return KeyZoomIn
	case "-", "_":
		return KeyZoomOut
	case "0":
		return KeyZoomReset
	}
	return KeyNone
}

// Target is a clickable reader control.
type Target int

const (
	TargetNone Target = iota
	TargetPrev
	TargetNext
	TargetFirst
	TargetLast
	TargetProgress
	TargetGo
	TargetZoomIn
	TargetZoomOut
	TargetZoomReset
	TargetMagnifier
	TargetDownload
	TargetClose
)

// Event is an input to Dispatch.
type Event interface {
	isEvent()
}

type KeyEvent struct {
	Key Key
}

// SwipeEvent is a completed horizontal touch gesture.
type SwipeEvent struct {
	StartX, EndX float64
}

// ClickEvent is a click on a control. X and Width locate the click inside
// the progress bar and are ignored for other targets.
type ClickEvent struct {
	Target   Target
	X, Width float64
}

// PointerEvent is a pointer move over the page.
type PointerEvent struct {
	X, Y float64
}

func (KeyEvent) isEvent()     {}
func (SwipeEvent) isEvent()   {}
func (ClickEvent) isEvent()   {}
func (PointerEvent) isEvent() {}

// Effect is a side effect the caller must perform after a dispatch.
type Effect int

const (
	EffectNone Effect = iota
	// EffectScrollTop: the page changed, scroll the content back to the top.
	EffectScrollTop
	EffectClose
	EffectDownload
)

func (e Effect) String() string {
	switch e {
	case EffectNone:
		return "none"
	case EffectScrollTop:
		return "scroll-top"
	case EffectClose:
		return "close"
	case EffectDownload:
		return "download"
	}
	return "unknown"
}

// Dispatch applies ev to s. Close and download work in every phase so a
// failed load can still be left or fetched raw.
func Dispatch(s State, ev Event) (State, Effect) {
	var next State
	switch ev := ev.(type) {
	case KeyEvent:
		switch ev.Key {
		case KeyEscape:
			return s, EffectClose
		case KeyLeft:
			next = s.Prev()
		case KeyRight:
			next = s.Next()
		case KeyHome:
			next = s.First()
		case KeyEnd:
			next = s.Last()
		case KeyMagnifier:
			next = s.ToggleMagnifier()
		case KeyZoomIn:
			next = s.ZoomIn()
		case KeyZoomOut:
			next = s.ZoomOut()
		case KeyZoomReset:
			next = s.ResetZoom()
		default:
			return s, EffectNone
		}
	case SwipeEvent:
		distance := ev.StartX - ev.EndX
		switch {
		case distance > MinSwipeDistance:
			next = s.Next()
		case distance < -MinSwipeDistance:
			next = s.Prev()
		default:
			return s, EffectNone
		}
	case ClickEvent:
		switch ev.Target {
		case TargetClose:
			return s, EffectClose
		case TargetDownload:
			return s, EffectDownload
		case TargetPrev:
			next = s.Prev()
		case TargetNext:
			next = s.Next()
		case TargetFirst:
			next = s.First()
		case TargetLast:
			next = s.Last()
		case TargetProgress:
			next = s.ClickProgress(ev.X, ev.Width)
		case TargetGo:
			next = s.SubmitPageInput()
		case TargetZoomIn:
			next = s.ZoomIn()
		case TargetZoomOut:
			next = s.ZoomOut()
		case TargetZoomReset:
			next = s.ResetZoom()
		case TargetMagnifier:
			next = s.ToggleMagnifier()
		default:
			return s, EffectNone
		}
	case PointerEvent:
		return s.MovePointer(ev.X, ev.Y), EffectNone
	default:
		return s, EffectNone
	}

	if next.PageIndex != s.PageIndex {
		return next, EffectScrollTop
	}
	return next, EffectNone
}
