package viz

import (
	"fmt"
	"math"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/harmonica"
	"github.com/charmbracelet/lipgloss"

	"github.com/san-kum/vibropile/internal/dynamo"
)

const (
	fps = 30

	// samples per tick at 1x are len/playbackTicks
	playbackTicks = 3500

	minMultiplier = 1.0 / 16
	maxMultiplier = 64.0

	canvasWidth  = 20
	canvasHeight = 16
	chartWidth   = 48
	chartHeight  = 5
	barWidth     = 30
)

type TickMsg time.Time

func tick() tea.Cmd {
	return tea.Tick(time.Second/fps, func(t time.Time) tea.Msg { return TickMsg(t) })
}

// DefaultChunk is the number of samples revealed per tick at 1x.
func DefaultChunk(n int) int {
	return max(1, n/playbackTicks)
}

type PlaybackOptions struct {
	Label      string
	PileLength float64 // m; 0 uses the deepest sample
	Multiplier float64 // 0 means 1x
	Chunk      int     // 0 means DefaultChunk
	Theme      string
}

// Playback replays a finished trace in the terminal.
type Playback struct {
	trace      *dynamo.Trace
	label      string
	pileLength float64
	peak       float64

	chunk      int
	multiplier float64
	cursor     int // samples revealed
	paused     bool
	showHelp   bool

	spring      harmonica.Spring
	progress    float64
	progressVel float64

	theme  Theme
	styles styles
	canvas *Canvas
}

func NewPlayback(tr *dynamo.Trace, opts PlaybackOptions) Playback {
	m := Playback{
		trace:      tr,
		label:      opts.Label,
		pileLength: opts.PileLength,
		chunk:      opts.Chunk,
		multiplier: opts.Multiplier,
		spring:     harmonica.NewSpring(harmonica.FPS(fps), 6.0, 1.0),
		theme:      GetTheme(opts.Theme),
		canvas:     NewCanvas(canvasWidth, canvasHeight),
	}
	m.styles = newStyles(m.theme)
	if m.chunk <= 0 {
		m.chunk = DefaultChunk(tr.Len())
	}
	if m.multiplier <= 0 {
		m.multiplier = 1
	}
	for i := range tr.Len() {
		m.peak = math.Max(m.peak, math.Abs(tr.Impulse[i]))
		m.pileLength = math.Max(m.pileLength, tr.Depth[i])
	}
	if m.pileLength <= 0 {
		m.pileLength = 1
	}
	m.cursor = min(2, tr.Len())
	return m
}

// Play runs the playback program until the user quits.
func Play(tr *dynamo.Trace, opts PlaybackOptions) error {
	_, err := tea.NewProgram(NewPlayback(tr, opts), tea.WithAltScreen()).Run()
	return err
}

func (m Playback) Init() tea.Cmd { return tick() }

func (m Playback) Done() bool { return m.cursor >= m.trace.Len() }

func (m Playback) Cursor() int { return m.cursor }

func (m Playback) Multiplier() float64 { return m.multiplier }

func (m Playback) Paused() bool { return m.paused }

// step is the number of samples revealed on the next tick.
func (m Playback) step() int {
	return max(1, int(math.Round(float64(m.chunk)*m.multiplier)))
}

func (m Playback) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		case " ":
			m.paused = !m.paused
		case "r":
			m.restart()
		case "+", "=", "right", "l":
			m.multiplier = math.Min(m.multiplier*2, maxMultiplier)
		case "-", "_", "left", "h":
			m.multiplier = math.Max(m.multiplier/2, minMultiplier)
		case "e", "end":
			m.cursor = m.trace.Len()
		case "t":
			m.theme = m.theme.next()
			m.styles = newStyles(m.theme)
		case "?":
			m.showHelp = !m.showHelp
		}
	case TickMsg:
		if !m.paused && !m.Done() {
			m.cursor = min(m.cursor+m.step(), m.trace.Len())
		}
		m.progress, m.progressVel = m.spring.Update(m.progress, m.progressVel, m.fraction())
		return m, tick()
	}
	return m, nil
}

func (m *Playback) restart() {
	m.cursor = min(2, m.trace.Len())
	m.progress, m.progressVel = 0, 0
	m.paused = false
}

func (m Playback) fraction() float64 {
	if m.trace.Len() == 0 {
		return 0
	}
	return float64(m.cursor) / float64(m.trace.Len())
}

func (m Playback) current() dynamo.Sample {
	if m.cursor == 0 {
		return dynamo.Sample{}
	}
	return m.trace.At(m.cursor - 1)
}

// drawPile sketches the pile at depth s.Depth with the hammer on top,
// shaken up or down by the sign of the impulse.
func (m Playback) drawPile(s dynamo.Sample) {
	c := m.canvas
	c.Clear()
	w, h := c.Pixels()

	pileLen := h / 2
	groundY := h - pileLen - 1
	cx := w / 2

	for x := 0; x < w; x += 2 {
		c.Set(x, groundY)
		if x%6 == 0 {
			c.Set(x+1, groundY+3)
		}
	}

	sink := int(math.Round(s.Depth / m.pileLength * float64(pileLen)))
	top := groundY - pileLen + sink
	c.Rect(cx-2, top, cx+2, top+pileLen)

	shake := 0
	if m.peak > 0 && math.Abs(s.Impulse) > 0.5*m.peak {
		shake = int(math.Copysign(1, s.Impulse))
	}
	c.Fill(cx-6, top-6+shake, cx+6, top-1+shake)
}

func (m Playback) status() string {
	switch {
	case m.Done():
		if m.trace.State == dynamo.RunFullDepth {
			return m.styles.done.Render("FINISHED")
		}
		return m.styles.failed.Render("FINISHED")
	case m.paused:
		return m.styles.paused.Render("PAUSED")
	default:
		return m.styles.running.Render("PLAYING")
	}
}

func (m Playback) View() string {
	s := m.current()
	m.drawPile(s)
	st := m.styles

	title := "PILE DRIVING"
	if m.label != "" {
		title += " / " + strings.ToUpper(m.label)
	}

	var b strings.Builder
	b.WriteString(st.header.Render(title) + "\n")
	b.WriteString(fmt.Sprintf("%s  x%g\n\n", m.status(), m.multiplier))

	row := func(label, value string) {
		b.WriteString(st.label.Render(label) + st.value.Render(value) + "\n")
	}
	row("Time", fmt.Sprintf("%.3f s", s.Time))
	row("Depth", fmt.Sprintf("%.4f m", s.Depth))
	row("Speed", fmt.Sprintf("%.2f rev/s", s.Speed))
	row("Impulse", fmt.Sprintf("%.1f N", s.Impulse))
	if m.trace.HasNoisy() {
		row("Noisy", fmt.Sprintf("%.1f N", s.ImpulseNoisy))
	}
	row("Samples", fmt.Sprintf("%d / %d", m.cursor, m.trace.Len()))
	b.WriteString("\n" + st.progressBar(m.progress, barWidth) + "\n")

	lo := max(0, m.cursor-chartWidth*4)
	b.WriteString(st.graph.Render(sparkline(m.trace.Impulse[lo:m.cursor], chartWidth)) + "\n\n")

	if m.Done() {
		verdict := Verdict(m.trace)
		if m.trace.State == dynamo.RunFullDepth {
			b.WriteString(st.done.Render(verdict) + "\n")
		} else {
			b.WriteString(st.failed.Render(verdict) + "\n")
		}
	}
	b.WriteString(st.help.Render("SP:Pause R:Restart +/-:Speed E:End T:Theme ?:Help Q:Quit"))

	side := st.panel.Render(b.String())
	pile := st.pile.Render(m.canvas.String())
	top := lipgloss.JoinHorizontal(lipgloss.Top, pile, side)

	view := top + "\n\n" + st.graph.Render(charts(m.trace, m.cursor, chartWidth, chartHeight))
	if m.showHelp {
		return st.helpText.Render(helpText) + "\n\n" + view
	}
	return view
}

const helpText = `
  Space    pause / resume
  R        restart from the first sample
  + / -    double / halve playback speed
  E        jump to the end of the run
  T        cycle color themes
  ?        toggle this help
  Q        quit`
