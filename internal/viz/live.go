package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/guptarohit/asciigraph"
	"github.com/san-kum/tanksim/internal/sim"
)

const (
	width  = 40
	height = 16

	frameRate = time.Second / 30
	maxSpeed  = 64
)

type TickMsg time.Time

// Playback replays a recorded run: the two tanks on a braille canvas and a
// stats panel with gauges and the height history so far.
type Playback struct {
	resp      *sim.Response
	maxHeight float64
	canvas    *Canvas
	theme     Theme
	playHead  int
	speed     int
	running   bool
	showHelp  bool
}

// NewPlayback replays resp; maxHeight scales the tanks and gauges.
func NewPlayback(resp *sim.Response, maxHeight float64) Playback {
	return Playback{
		resp:      resp,
		maxHeight: maxHeight,
		canvas:    NewCanvas(width, height),
		theme:     ThemeOcean,
		speed:     1,
		running:   true,
	}
}

func (m Playback) Init() tea.Cmd {
	return tick()
}

func tick() tea.Cmd {
	return tea.Tick(frameRate, func(t time.Time) tea.Msg { return TickMsg(t) })
}

func (m Playback) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			return m, tea.Quit
		case " ":
			m.running = !m.running
		case "r":
			m.playHead = 0
			m.running = true
		case "[":
			m.scrub(-m.speed)
		case "]":
			m.scrub(m.speed)
		case "+", "=":
			m.speed = min(m.speed*2, maxSpeed)
		case "-", "_":
			m.speed = max(m.speed/2, 1)
		case "t":
			m.theme = m.theme.next()
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if m.running {
			m.scrub(m.speed)
			if m.playHead == m.resp.Len()-1 {
				m.running = false
			}
		}
		return m, tick()
	}
	return m, nil
}

func (m *Playback) scrub(n int) {
	m.playHead = max(0, min(m.playHead+n, m.resp.Len()-1))
}

func (m Playback) heights() (float64, float64) {
	x := m.resp.States[m.playHead]
	return x[0], x[1]
}

// draw puts tank 1 upper left and tank 2 lower right, joined by the outlet
// pipe, each filled in proportion to height/maxHeight.
func (m Playback) draw() {
	m.canvas.Clear()
	cw, ch := width*2, height*4

	h1, h2 := m.heights()
	t1 := [4]int{4, 2, cw/2 - 6, ch/2 + 4}
	t2 := [4]int{cw/2 + 4, ch/2 - 4, cw - 6, ch - 2}

	for _, tank := range []struct {
		box [4]int
		h   float64
	}{{t1, h1}, {t2, h2}} {
		x0, y0, x1, y1 := tank.box[0], tank.box[1], tank.box[2], tank.box[3]
		m.canvas.DrawVessel(x0, y0, x1, y1)

		level := math.Max(0, math.Min(tank.h/m.maxHeight, 1))
		top := y1 - int(level*float64(y1-y0-1))
		if top < y1 {
			m.canvas.Fill(x0+1, top, x1-1, y1-1)
		}
	}

	// outlet pipe from the bottom of tank 1 into the top of tank 2
	m.canvas.DrawLine(t1[2], t1[3]-1, t2[0]+4, t1[3]-1)
	m.canvas.DrawLine(t2[0]+4, t1[3]-1, t2[0]+4, t2[1]+2)
}

func (m Playback) View() string {
	m.draw()
	canvasView := canvasStyle.Render(
		lipgloss.NewStyle().Foreground(m.theme.Water).Render(m.canvas.String()))

	status := "PLAYING"
	switch {
	case m.playHead == m.resp.Len()-1 && !m.running:
		status = "FINISHED"
	case !m.running:
		status = "PAUSED"
	}

	h1, h2 := m.heights()
	t := m.resp.Times[m.playHead]

	var s strings.Builder
	s.WriteString(headerStyle.Render(strings.ToUpper(m.resp.System)) + "\n")
	s.WriteString(fmt.Sprintf("%s  x%d\n\n", status, m.speed))

	s.WriteString(labelStyle.Render("Time") + valueStyle.Render(fmt.Sprintf("%.2fs / %.2fs", t, m.resp.Times[m.resp.Len()-1])) + "\n")
	s.WriteString(labelStyle.Render("h1") + valueStyle.Render(fmt.Sprintf("%.4f", h1)) + "\n")
	s.WriteString(labelStyle.Render("") + Gauge(h1, m.maxHeight, 24, m.theme) + "\n")
	s.WriteString(labelStyle.Render("h2") + valueStyle.Render(fmt.Sprintf("%.4f", h2)) + "\n")
	s.WriteString(labelStyle.Render("") + Gauge(h2, m.maxHeight, 24, m.theme) + "\n")
	s.WriteString(labelStyle.Render("pump") + valueStyle.Render(fmt.Sprintf("%.3f ", m.resp.Inputs[m.playHead])) +
		Sparkline(m.resp.Inputs[:m.playHead+1], 20) + "\n")

	if m.playHead > 0 {
		series := make([][]float64, 0, len(m.resp.Outputs))
		for _, out := range m.resp.Outputs {
			series = append(series, out[:m.playHead+1])
		}
		chart := asciigraph.PlotMany(series,
			asciigraph.Height(6), asciigraph.Width(36),
			asciigraph.Caption(strings.Join(m.resp.Names, " / ")),
			asciigraph.SeriesColors(asciigraph.Blue, asciigraph.Green))
		s.WriteString("\n" + chart + "\n")
	}

	s.WriteString(helpStyle.Render("SP:Pause R:Restart Q:Quit\n[ ]:Scrub +/-:Speed T:Theme ?:Help"))
	mainView := lipgloss.JoinHorizontal(lipgloss.Top, canvasView, statsStyle.Render(s.String()))

	if m.showHelp {
		help := lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(m.theme.Wall).Padding(0, 2).Render(
			"Space  pause/resume\nR      restart\n[ ]    step back/forward\n+ -    playback speed\nT      cycle theme\nQ      quit")
		return help + "\n\n" + mainView
	}
	return mainView
}

// Play runs the playback full screen until the user quits.
func Play(resp *sim.Response, maxHeight float64, theme string) error {
	if resp.Len() == 0 {
		return fmt.Errorf("nothing to play: run has no samples")
	}
	m := NewPlayback(resp, maxHeight)
	m.theme = GetTheme(theme)
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}
