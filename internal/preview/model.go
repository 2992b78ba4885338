// Package preview is a terminal player for a local media file. It runs the
// same session flow as the web UI, with a simulated clock standing in for
// the browser's media element.
package preview

import (
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/idozri/vidto-listen/internal/playback"
	"github.com/idozri/vidto-listen/internal/session"
	"github.com/idozri/vidto-listen/internal/timeline"
	"github.com/idozri/vidto-listen/internal/track"
	"github.com/idozri/vidto-listen/internal/upload"
)

const (
	tickInterval = 100 * time.Millisecond
	skipStep     = 5.0
	volumeStep   = 0.1
	minBarWidth  = 10
	maxBarWidth  = 60
)

type tickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(tickInterval, func(t time.Time) tea.Msg { return tickMsg(t) })
}

// Model is the bubbletea model of the preview screen.
type Model struct {
	sess    *session.Session
	clock   *playback.Clock
	spinner spinner.Model
	bar     progress.Model
	help    help.Model
	snap    session.Snapshot
	status  string
	err     string
}

// NewModel builds the screen for a session whose player is driven by clock.
// width is the terminal width, or 0 when unknown.
func NewModel(sess *session.Session, clock *playback.Clock, width int) Model {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = spinnerStyle

	m := Model{
		sess:    sess,
		clock:   clock,
		spinner: s,
		bar:     progress.New(progress.WithDefaultGradient(), progress.WithoutPercentage()),
		help:    help.New(),
		snap:    sess.Snapshot(),
	}
	m.resize(width)
	return m
}

func (m *Model) resize(width int) {
	m.help.Width = width
	w := width - 30
	if w < minBarWidth {
		w = minBarWidth
	}
	if w > maxBarWidth {
		w = maxBarWidth
	}
	m.bar.Width = w
}

func (m Model) Init() tea.Cmd {
	return tea.Batch(m.spinner.Tick, tick())
}

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.resize(msg.Width)
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, keys.Quit):
			return m, tea.Quit
		case key.Matches(msg, keys.Help):
			m.help.ShowAll = !m.help.ShowAll
		case key.Matches(msg, keys.TrackToggle):
			m.toggleTrack(int(msg.String()[0] - '1'))
		case key.Matches(msg, keys.Export):
			m.export()
		default:
			m.control(msg)
		}
		m.snap = m.sess.Snapshot()
		return m, nil

	case tickMsg:
		m.clock.Advance(tickInterval.Seconds())
		m.snap = m.sess.Snapshot()
		return m, tick()

	case spinner.TickMsg:
		if m.snap.State != session.StateProcessing {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}
	return m, nil
}

// control applies a player key. Keys are ignored until media is loaded.
func (m *Model) control(msg tea.KeyMsg) {
	p := m.sess.Player()
	if p == nil {
		return
	}
	var err error
	switch {
	case key.Matches(msg, keys.Toggle):
		err = p.TogglePlay()
	case key.Matches(msg, keys.Back):
		err = p.Skip(-skipStep)
	case key.Matches(msg, keys.Forward):
		err = p.Skip(skipStep)
	case key.Matches(msg, keys.VolumeUp):
		err = p.SetVolume(p.State().Volume + volumeStep)
	case key.Matches(msg, keys.VolumeDown):
		err = p.SetVolume(p.State().Volume - volumeStep)
	default:
		return
	}
	m.setErr(err)
}

func (m *Model) toggleTrack(i int) {
	if i < 0 || i >= len(m.snap.Tracks) {
		return
	}
	t := m.snap.Tracks[i]
	m.setErr(m.sess.SetTrackEnabled(t.Code, !t.Enabled))
}

func (m *Model) export() {
	ack, err := m.sess.Export()
	if err != nil {
		m.setErr(err)
		return
	}
	m.status = ack.Message
}

func (m *Model) setErr(err error) {
	m.err = ""
	if err != nil {
		m.err = err.Error()
	}
}

func (m Model) View() string {
	var b strings.Builder

	b.WriteString(bulletStyle.Render("┌") + titleStyle.Render("vidto-listen") + "\n")
	if f := m.snap.File; f != nil {
		b.WriteString(m.fileLine(f))
	}
	b.WriteString(bulletStyle.Render("│") + "\n")

	switch m.snap.State {
	case session.StateIdle:
		b.WriteString(bulletStyle.Render("├") + dimStyle.Render("No file selected") + "\n")
	case session.StateProcessing:
		b.WriteString(bulletStyle.Render("├") + m.spinner.View() + textStyle.Render("Extracting subtitles...") + "\n")
		if m.snap.LastError != "" {
			b.WriteString(bulletStyle.Render("├") + errorStyle.Render("Processing failed: "+m.snap.LastError) + "\n")
		}
	case session.StateReady:
		if p := m.snap.Playback; p != nil {
			b.WriteString(m.playerLine(*p))
		}
		boxes := make([]string, 0, len(m.snap.Tracks))
		for i, v := range m.snap.Tracks {
			boxes = append(boxes, renderTrack(i+1, v))
		}
		b.WriteString(lipgloss.JoinVertical(lipgloss.Left, boxes...) + "\n")
	}

	if m.status != "" {
		b.WriteString(bulletStyle.Render("├") + textStyle.Render(m.status) + "\n")
	}
	if m.err != "" {
		b.WriteString(bulletStyle.Render("├") + errorStyle.Render(m.err) + "\n")
	}
	b.WriteString(bulletStyle.Render("└") + m.help.View(keys) + "\n")
	return b.String()
}

func (m Model) fileLine(f *upload.File) string {
	line := bulletStyle.Render("├") + textStyle.Render(f.Name) +
		dimStyle.Render(fmt.Sprintf("  %s  %s", f.SizeLabel, f.Kind))
	if f.Mismatch {
		line += "\n" + bulletStyle.Render("├") +
			warnStyle.Render("This does not look like a video or audio file. Processing anyway.")
	}
	return line + "\n"
}

func (m Model) playerLine(st playback.State) string {
	icon := "▶"
	if st.Playing {
		icon = "⏸"
	}
	pct := 0.0
	if st.Duration > 0 {
		pct = st.CurrentTime / st.Duration
	}
	return fmt.Sprintf("%s%s %s %s / %s  vol %d%%\n",
		bulletStyle.Render("├"),
		activeStyle.Render(icon),
		m.bar.ViewAs(pct),
		timeline.FormatClock(st.CurrentTime),
		timeline.FormatClock(st.Duration),
		int(st.Volume*100+0.5),
	)
}

func renderTrack(n int, v track.View) string {
	var b strings.Builder
	header := fmt.Sprintf("[%d] %s %s", n, v.Flag, v.Name)
	if !v.Enabled {
		b.WriteString(dimStyle.Render(header + "  (hidden)"))
		return trackStyle.Render(b.String())
	}
	b.WriteString(titleStyle.Render(header) + dimStyle.Render("  "+v.Clock) + "\n")

	if v.Matched {
		b.WriteString(activeStyle.Render(v.Current))
	} else {
		b.WriteString(dimStyle.Render(v.Current))
	}

	for _, e := range v.Entries {
		row := fmt.Sprintf("%s  %s", e.Range, e.Text)
		switch e.Status {
		case track.StatusActive:
			row = activeStyle.Render("› " + row)
		case track.StatusPast:
			row = dimStyle.Render("  " + row)
		default:
			row = textStyle.Render("  " + row)
		}
		b.WriteString("\n" + row)
	}
	if more := v.Total - len(v.Entries); more > 0 {
		b.WriteString("\n" + dimStyle.Render(fmt.Sprintf("  +%d more", more)))
	}
	return trackStyle.Render(b.String())
}
