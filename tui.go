package main

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"tsuyaku/clipboard"
	"tsuyaku/history"
	"tsuyaku/log"
	"tsuyaku/pipeline"
)

type uiMode int

const (
	modeListening uiMode = iota
	modeTyping
)

type eventMsg struct{ ev pipeline.Event }

// busClosedMsg ends event consumption after pipeline shutdown.
type busClosedMsg struct{}

// waitEvent blocks on the pipeline bus for one event. The returned command is
// re-issued after each event, making the update loop the bus's single
// consumer.
func waitEvent(ch <-chan pipeline.Event) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return busClosedMsg{}
		}
		return eventMsg{ev: ev}
	}
}

type uiModel struct {
	pl     *pipeline.Pipeline
	hist   *history.History
	events <-chan pipeline.Event

	mode     uiMode
	status   string
	errText  string
	liveText string
	input    []rune

	srcScroll int // transcript pane
	dstScroll int // translation pane

	totalSamples int64
	rawSamples   int64
	repairs      int
	ended        bool

	sourceLang string
	targetLang string
	deviceLine string

	width, height int
}

func newUIModel(pl *pipeline.Pipeline, sourceLang, targetLang, deviceLine string) uiModel {
	return uiModel{
		pl:         pl,
		hist:       history.New(),
		events:     pl.Events(),
		status:     "Listening... Press 's' to Stop/Start, 'q' to Quit",
		sourceLang: sourceLang,
		targetLang: targetLang,
		deviceLine: deviceLine,
	}
}

func (m uiModel) Init() tea.Cmd {
	return waitEvent(m.events)
}

func (m uiModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case eventMsg:
		return m.apply(msg.ev), waitEvent(m.events)

	case busClosedMsg:
		return m, nil

	case tea.KeyMsg:
		return m.handleKey(msg)
	}
	return m, nil
}

func (m uiModel) apply(ev pipeline.Event) uiModel {
	switch ev := ev.(type) {
	case pipeline.StatusEvent:
		m.status = ev.Text

	case pipeline.ErrorEvent:
		m.errText = ev.Err.Error()

	case pipeline.LiveTextEvent:
		m.liveText = ev.Text

	case pipeline.UnitFinalizedEvent:
		m.hist.AddUnit(ev.Seq, ev.Text, false)
		m.liveText = ""

	case pipeline.SurrogateUnitEvent:
		m.hist.AddUnit(ev.Seq, ev.Text, true)

	case pipeline.AnnotationPendingEvent:
		m.hist.MarkPending(ev.Seq)

	case pipeline.AnnotationReadyEvent:
		m.hist.Resolve(ev.Seq, ev.Text)
		if r := m.hist.Repairs(); r > m.repairs {
			m.repairs = r
			log.Repair(r)
		}

	case pipeline.SamplesProcessedEvent:
		m.totalSamples += int64(ev.Count)

	case pipeline.RawSamplesEvent:
		m.rawSamples += int64(ev.Count)

	case pipeline.EndedEvent:
		m.ended = true
		m.status = "Audio stream ended. Press 'q' to Quit."
	}
	return m
}

func (m uiModel) handleKey(key tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Global keys first: quit and pane scrolling work in both modes.
	switch key.String() {
	case "ctrl+c", "esc":
		return m, tea.Quit
	case "ctrl+j", "ctrl+down":
		m.dstScroll++
		return m, nil
	case "ctrl+k", "ctrl+up":
		if m.dstScroll > 0 {
			m.dstScroll--
		}
		return m, nil
	case "alt+j", "alt+down":
		m.srcScroll++
		return m, nil
	case "alt+k", "alt+up":
		if m.srcScroll > 0 {
			m.srcScroll--
		}
		return m, nil
	}

	if m.mode == modeListening {
		switch key.String() {
		case "q":
			return m, tea.Quit
		case "s":
			m.mode = modeTyping
			m.pl.SetListening(false)
			m.liveText = ""
			m.input = nil
			m.status = "Stopped. Press 's' to Start. Type your message, Enter to process."
		case "y":
			m = m.copyNewestTranslation()
		}
		return m, nil
	}

	// Typing mode. 's' and 'q' stay reserved; everything else printable
	// feeds the input buffer.
	switch key.String() {
	case "q":
		return m, tea.Quit
	case "s":
		m.mode = modeListening
		m.pl.SetListening(true)
		m.input = nil
		m.status = "Starting... Press 's' to Stop/Start, 'q' to Quit"
	case "enter":
		if _, ok := m.pl.SubmitText(string(m.input)); ok {
			m.status = "Processing typed input..."
		}
		m.input = nil
	case "backspace":
		if len(m.input) > 0 {
			m.input = m.input[:len(m.input)-1]
		}
	default:
		switch key.Type {
		case tea.KeySpace:
			m.input = append(m.input, ' ')
		case tea.KeyRunes:
			m.input = append(m.input, key.Runes...)
		}
	}
	return m, nil
}

func (m uiModel) copyNewestTranslation() uiModel {
	for _, a := range m.hist.Annotations() {
		if a.Status == history.Ready {
			if err := clipboard.Copy(a.Text); err != nil {
				m.errText = fmt.Sprintf("clipboard: %v", err)
			} else {
				m.status = "Copied newest translation to clipboard."
			}
			return m
		}
	}
	m.status = "Nothing to copy yet."
	return m
}

var (
	statusStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	deviceStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	errStyle         = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	liveStyle        = lipgloss.NewStyle().Foreground(lipgloss.Color("4"))
	placeholderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
	titleStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("246")).Bold(true)
	newestStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("255"))
	olderStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("243"))
	pendingStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("241")).Italic(true)
)

func (m uiModel) View() string {
	if m.width == 0 || m.height == 0 {
		return "Loading..."
	}

	var b strings.Builder

	b.WriteString(statusStyle.Render(m.status) + "\n")
	info := fmt.Sprintf("%s  |  %d samples processed", m.deviceLine, m.totalSamples)
	if m.repairs > 0 {
		info += fmt.Sprintf("  |  %d repairs", m.repairs)
	}
	b.WriteString(deviceStyle.Render(info) + "\n")
	if m.errText != "" {
		b.WriteString(errStyle.Render("! "+m.errText) + "\n")
	} else {
		b.WriteString("\n")
	}

	// Live / typing pane.
	switch {
	case m.mode == modeTyping:
		b.WriteString(liveStyle.Render("> "+string(m.input)+"█") + "\n")
	case m.liveText != "":
		b.WriteString(liveStyle.Render(m.liveText) + "\n")
	default:
		b.WriteString(placeholderStyle.Render(fmt.Sprintf("Listening… (%d raw samples)", m.rawSamples)) + "\n")
	}
	b.WriteString("\n")

	paneWidth := m.width/2 - 1
	if paneWidth < 12 {
		paneWidth = 12
	}
	paneHeight := m.height - 7
	if paneHeight < 3 {
		paneHeight = 3
	}

	left := m.renderUnitsPane(paneWidth, paneHeight)
	right := m.renderAnnotationsPane(paneWidth, paneHeight)

	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top,
		lipgloss.NewStyle().Width(paneWidth).Render(left),
		" ",
		lipgloss.NewStyle().Width(paneWidth).Render(right),
	))
	return b.String()
}

func (m uiModel) renderUnitsPane(width, height int) string {
	lines := []string{titleStyle.Render(m.sourceLang)}
	for i, u := range m.hist.Units() {
		style := olderStyle
		if i == 0 {
			style = newestStyle
		}
		prefix := "• "
		if u.Surrogate {
			prefix = "⌨ "
		}
		for j, line := range wrapRunes(prefix+u.Text, width-1) {
			if j > 0 {
				line = "  " + line
			}
			lines = append(lines, style.Render(line))
		}
	}
	return scrollWindow(lines, m.srcScroll, height)
}

func (m uiModel) renderAnnotationsPane(width, height int) string {
	lines := []string{titleStyle.Render(m.targetLang)}
	for i, a := range m.hist.Annotations() {
		if a.Status == history.Pending {
			lines = append(lines, pendingStyle.Render("• …"))
			continue
		}
		style := olderStyle
		if i == 0 {
			style = newestStyle
		}
		for j, line := range wrapRunes("• "+a.Text, width-1) {
			if j > 0 {
				line = "  " + line
			}
			lines = append(lines, style.Render(line))
		}
	}
	return scrollWindow(lines, m.dstScroll, height)
}

// scrollWindow keeps the title line fixed and scrolls the body by offset.
func scrollWindow(lines []string, offset, height int) string {
	if len(lines) == 0 {
		return ""
	}
	title, body := lines[0], lines[1:]
	if offset > len(body)-(height-1) {
		offset = len(body) - (height - 1)
	}
	if offset < 0 {
		offset = 0
	}
	end := offset + height - 1
	if end > len(body) {
		end = len(body)
	}
	out := append([]string{title}, body[offset:end]...)
	return strings.Join(out, "\n")
}

// wrapRunes wraps by rune count, preferring to break at spaces. Rune-based so
// multibyte source text never splits mid-character.
func wrapRunes(text string, width int) []string {
	if width <= 0 {
		width = 1
	}
	runes := []rune(text)
	if len(runes) == 0 {
		return []string{""}
	}
	var lines []string
	for len(runes) > width {
		splitAt := width
		for i := width; i > 0; i-- {
			if runes[i] == ' ' {
				splitAt = i
				break
			}
		}
		lines = append(lines, string(runes[:splitAt]))
		runes = runes[splitAt:]
		for len(runes) > 0 && runes[0] == ' ' {
			runes = runes[1:]
		}
	}
	if len(runes) > 0 {
		lines = append(lines, string(runes))
	}
	return lines
}
