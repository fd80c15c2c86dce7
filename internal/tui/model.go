// Package tui is a terminal front end for a reader session: one chapter per
// page, keyboard and mouse navigation, zoom, and Arabic word lookup.
package tui

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/yuanying/maktaba/internal/epub"
	"github.com/yuanying/maktaba/internal/reader"
)

var (
	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Bold(true)

	statusStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888"))

	controlsStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#666666"))

	glossStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFAA00")).
			Bold(true)

	lensStyle = lipgloss.NewStyle().Reverse(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FF0000")).
			Bold(true)
)

const (
	defaultWidth  = 80
	defaultHeight = 24
	minTextWidth  = 20
	// chrome is the number of rows outside the page body: header, status,
	// progress bar, and controls.
	chrome = 4
)

// LoadFunc fetches and extracts the chapters of the book to read.
type LoadFunc func(ctx context.Context) ([]epub.Chapter, error)

// Options configure New.
type Options struct {
	Title    string
	Glossary reader.Glossary
	// RTL right-aligns the page text.
	RTL bool
}

type loadedMsg struct{ err error }

// Model is the bubbletea model of the reader.
type Model struct {
	sess     *reader.Session
	load     LoadFunc
	title    string
	glossary reader.Glossary
	rtl      bool

	input     textinput.Model
	inputOpen bool
	inputFrom int // page shown when the input opened
	bar       progress.Model

	width, height int
	offset        int    // first visible line of the page
	wordIndex     int    // position in the top line's Arabic words, -1 for none
	lookup        string // last looked-up word
	quitting      bool
}

// New returns a model that loads the book through sess when started.
func New(sess *reader.Session, load LoadFunc, opts Options) Model {
	ti := textinput.New()
	ti.Prompt = "Go to page: "
	ti.Placeholder = "number"
	ti.CharLimit = 6
	ti.Width = 8

	bar := progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage())
	bar.Width = defaultWidth

	return Model{
		sess:      sess,
		load:      load,
		title:     opts.Title,
		glossary:  opts.Glossary,
		rtl:       opts.RTL,
		input:     ti,
		bar:       bar,
		width:     defaultWidth,
		height:    defaultHeight,
		wordIndex: -1,
	}
}

func (m Model) Init() tea.Cmd {
	sess, load := m.sess, m.load
	return func() tea.Msg {
		return loadedMsg{err: sess.Load(context.Background(), load)}
	}
}

// State returns the session snapshot the model renders.
func (m Model) State() reader.State { return m.sess.State() }

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case loadedMsg:
		if errors.Is(msg.err, reader.ErrStaleLoad) {
			return m, nil
		}
		m.offset, m.wordIndex, m.lookup = 0, -1, ""
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.bar.Width = max(msg.Width, 1)
		m.clampOffset()
		return m, nil

	case tea.MouseMsg:
		return m.handleMouse(msg)

	case tea.KeyMsg:
		if m.inputOpen {
			return m.handlePageInput(msg)
		}
		return m.handleKey(msg)
	}
	return m, nil
}

func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case "g":
		if m.State().Phase != reader.PhaseReady {
			return m, nil
		}
		m.inputOpen = true
		m.inputFrom = m.State().PageIndex
		m.input.SetValue("")
		m.input.Focus()
		return m, textinput.Blink
	case "j", "down":
		m.scroll(1)
		return m, nil
	case "k", "up":
		m.scroll(-1)
		return m, nil
	case "pgdown", " ":
		m.scroll(m.bodyHeight())
		return m, nil
	case "pgup":
		m.scroll(-m.bodyHeight())
		return m, nil
	case "t":
		m.lookupNext()
		return m, nil
	case "T":
		m.sess.Update(reader.State.LeaveWord)
		m.wordIndex, m.lookup = -1, ""
		return m, nil
	}

	key := reader.ParseKey(msg.String())
	if key == reader.KeyNone {
		return m, nil
	}
	return m.dispatch(reader.KeyEvent{Key: key})
}

func (m Model) handlePageInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	before := m.State().PageIndex
	switch msg.String() {
	case "enter":
		m.sess.Update(reader.State.SubmitPageInput)
		m.closeInput()
	case "esc":
		from := m.inputFrom
		m.sess.Update(func(s reader.State) reader.State {
			return s.EditPageInput(strconv.Itoa(from + 1))
		})
		m.closeInput()
	default:
		var cmd tea.Cmd
		m.input, cmd = m.input.Update(msg)
		value := m.input.Value()
		m.sess.Update(func(s reader.State) reader.State { return s.EditPageInput(value) })
		if m.State().PageIndex != before {
			m.pageChanged()
		}
		return m, cmd
	}
	if m.State().PageIndex != before {
		m.pageChanged()
	}
	return m, nil
}

func (m *Model) closeInput() {
	m.inputOpen = false
	m.input.Blur()
}

func (m Model) handleMouse(msg tea.MouseMsg) (tea.Model, tea.Cmd) {
	switch {
	case msg.Button == tea.MouseButtonWheelDown:
		m.scroll(3)
	case msg.Button == tea.MouseButtonWheelUp:
		m.scroll(-3)
	case msg.Action == tea.MouseActionPress && msg.Button == tea.MouseButtonLeft && msg.Y == m.progressRow():
		// The bar starts at column 0; clicking cell c selects the fraction
		// (c+1)/width of the book.
		return m.dispatch(reader.ClickEvent{
			Target: reader.TargetProgress,
			X:      float64(msg.X + 1),
			Width:  float64(m.bar.Width),
		})
	case msg.Action == tea.MouseActionMotion:
		m.sess.Dispatch(reader.PointerEvent{X: float64(msg.X), Y: float64(msg.Y)})
	}
	return m, nil
}

func (m Model) dispatch(ev reader.Event) (tea.Model, tea.Cmd) {
	_, eff := m.sess.Dispatch(ev)
	switch eff {
	case reader.EffectScrollTop:
		m.pageChanged()
	case reader.EffectClose:
		m.quitting = true
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) pageChanged() {
	m.offset, m.wordIndex, m.lookup = 0, -1, ""
	m.sess.Update(reader.State.LeaveWord)
}

// lookupNext glosses the next Arabic word of the top visible line.
func (m *Model) lookupNext() {
	lines := m.pageLines()
	if m.offset >= len(lines) {
		return
	}
	words := arabicWords(lines[m.offset])
	if len(words) == 0 {
		return
	}
	m.wordIndex = (m.wordIndex + 1) % len(words)
	word := words[m.wordIndex]
	m.lookup = word
	row := float64(m.offset + 1)
	m.sess.Update(func(s reader.State) reader.State {
		return s.LeaveWord().HoverWord(m.glossary, word, float64(m.wordIndex), row)
	})
}

func (m *Model) scroll(n int) {
	m.offset += n
	m.clampOffset()
	m.wordIndex = -1
}

func (m *Model) clampOffset() {
	m.offset = min(m.offset, len(m.pageLines())-m.bodyHeight())
	m.offset = max(m.offset, 0)
}

func (m Model) bodyHeight() int { return max(m.height-chrome, 1) }

func (m Model) progressRow() int { return m.height - 2 }

// textWidth narrows the text column as zoom grows.
func (m Model) textWidth() int {
	zoom := m.State().Zoom
	if zoom <= 0 {
		zoom = reader.DefaultZoom
	}
	w := m.width * reader.DefaultZoom / zoom
	return max(min(w, m.width), minTextWidth)
}

// pageLines wraps the current chapter to the text width.
func (m Model) pageLines() []string {
	ch, ok := m.sess.Chapter()
	if !ok {
		return nil
	}
	style := lipgloss.NewStyle().Width(m.textWidth())
	if m.rtl {
		style = style.Align(lipgloss.Right)
	}

	var lines []string
	for i, p := range Paragraphs(ch.Content) {
		if i > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, strings.Split(style.Render(p), "\n")...)
	}
	return lines
}

func (m Model) View() string {
	if m.quitting {
		return ""
	}

	st := m.State()
	switch st.Phase {
	case reader.PhaseLoading:
		return statusStyle.Render("Loading book...")
	case reader.PhaseError:
		return errorStyle.Render(st.Err) + "\n\n" + controlsStyle.Render("esc/q: close")
	}

	var sb strings.Builder
	sb.WriteString(m.header(st))
	sb.WriteString("\n")

	lines := m.pageLines()
	end := min(m.offset+m.bodyHeight(), len(lines))
	for row := m.offset; row < m.offset+m.bodyHeight(); row++ {
		line := ""
		if row < end {
			line = lines[row]
		}
		// Screen row = row - offset + 1 (below the header).
		if st.Magnifier && int(st.Lens.Y) == row-m.offset+1 {
			line = lensStyle.Render(line)
		}
		sb.WriteString(line)
		sb.WriteString("\n")
	}

	sb.WriteString(m.status(st))
	sb.WriteString("\n")
	sb.WriteString(m.bar.ViewAs(st.Progress()))
	sb.WriteString("\n")
	sb.WriteString(controlsStyle.Render("←/→: page  home/end  g: go to  +/-/0: zoom  m: magnifier  t: translate  q: quit"))
	return sb.String()
}

func (m Model) header(st reader.State) string {
	parts := []string{}
	if m.title != "" {
		parts = append(parts, m.title)
	}
	parts = append(parts,
		fmt.Sprintf("Page %d of %d", st.PageIndex+1, st.TotalPages),
		fmt.Sprintf("%d%%", st.Zoom),
	)
	if st.Magnifier {
		parts = append(parts, "magnifier")
	}
	return headerStyle.Render(strings.Join(parts, " | "))
}

func (m Model) status(st reader.State) string {
	switch {
	case m.inputOpen:
		return m.input.View()
	case st.Hover.Active():
		e := st.Hover.Entry
		s := st.Hover.Token + ": " + e.Translation
		if e.Transliteration != "" {
			s += " (" + e.Transliteration + ")"
		}
		if e.Root != "" {
			s += " root " + e.Root
		}
		return glossStyle.Render(s)
	case m.lookup != "":
		return statusStyle.Render(m.lookup + ": no translation")
	}
	if ch, ok := m.sess.Chapter(); ok {
		return statusStyle.Render(ch.Title)
	}
	return ""
}
