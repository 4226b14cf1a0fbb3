package viz

import (
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/san-kum/vibropile/internal/dynamo"
)

func rampTrace(n int, state dynamo.RunState) *dynamo.Trace {
	tr := dynamo.NewTrace(n, dynamo.TracksClean)
	for i := 0; i < n; i++ {
		tr.Append(dynamo.Sample{
			Time:    float64(i) * 0.001,
			Depth:   float64(i) / float64(n) * 1.15,
			Speed:   float64(i / 1000),
			Impulse: float64(i%20) - 10,
		})
	}
	tr.State = state
	return tr
}

func key(s string) tea.KeyMsg {
	switch s {
	case " ":
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	default:
		return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
	}
}

func send(m Playback, msgs ...tea.Msg) Playback {
	for _, msg := range msgs {
		next, _ := m.Update(msg)
		m = next.(Playback)
	}
	return m
}

func TestDefaultChunk(t *testing.T) {
	tests := []struct {
		n, want int
	}{
		{0, 1},
		{3499, 1},
		{7000, 2},
		{350000, 100},
	}
	for _, tt := range tests {
		if got := DefaultChunk(tt.n); got != tt.want {
			t.Errorf("DefaultChunk(%d) = %d, want %d", tt.n, got, tt.want)
		}
	}
}

func TestPlaybackAdvancesByChunk(t *testing.T) {
	m := NewPlayback(rampTrace(35000, dynamo.RunFullDepth), PlaybackOptions{})
	if m.Cursor() != 2 {
		t.Fatalf("expected playback to start after the seed samples, got %d", m.Cursor())
	}

	m = send(m, TickMsg(time.Now()))
	if m.Cursor() != 12 {
		t.Errorf("expected cursor 12 after one tick at 1x, got %d", m.Cursor())
	}

	m = send(m, key("+"), key("+"), TickMsg(time.Now()))
	if m.Multiplier() != 4 {
		t.Errorf("expected multiplier 4, got %g", m.Multiplier())
	}
	if m.Cursor() != 52 {
		t.Errorf("expected cursor 52 after a 4x tick, got %d", m.Cursor())
	}
}

func TestPlaybackMultiplierBounds(t *testing.T) {
	m := NewPlayback(rampTrace(100, dynamo.RunFullDepth), PlaybackOptions{})
	for range 20 {
		m = send(m, key("-"))
	}
	if m.Multiplier() != minMultiplier {
		t.Errorf("expected multiplier clamped to %g, got %g", minMultiplier, m.Multiplier())
	}
	before := m.Cursor()
	m = send(m, TickMsg(time.Now()))
	if m.Cursor() != before+1 {
		t.Errorf("expected at least one sample per tick, moved %d", m.Cursor()-before)
	}

	for range 20 {
		m = send(m, key("+"))
	}
	if m.Multiplier() != maxMultiplier {
		t.Errorf("expected multiplier clamped to %g, got %g", maxMultiplier, m.Multiplier())
	}
}

func TestPlaybackPauseAndRestart(t *testing.T) {
	m := NewPlayback(rampTrace(1000, dynamo.RunFullDepth), PlaybackOptions{Chunk: 50})

	m = send(m, key(" "), TickMsg(time.Now()))
	if !m.Paused() || m.Cursor() != 2 {
		t.Errorf("expected paused playback to hold at 2, got paused=%v cursor=%d", m.Paused(), m.Cursor())
	}

	m = send(m, key(" "), TickMsg(time.Now()), TickMsg(time.Now()))
	if m.Cursor() != 102 {
		t.Errorf("expected cursor 102, got %d", m.Cursor())
	}

	m = send(m, key("r"))
	if m.Cursor() != 2 || m.Paused() {
		t.Errorf("expected restart at 2, got cursor=%d paused=%v", m.Cursor(), m.Paused())
	}
}

func TestPlaybackFinishes(t *testing.T) {
	m := NewPlayback(rampTrace(500, dynamo.RunMaxSpeed), PlaybackOptions{Chunk: 200, Label: "bench"})
	for range 5 {
		m = send(m, TickMsg(time.Now()))
	}
	if !m.Done() || m.Cursor() != 500 {
		t.Fatalf("expected playback to stop at the last sample, got cursor=%d", m.Cursor())
	}

	view := m.View()
	if !strings.Contains(view, "pile not fully driven") {
		t.Error("expected the view to report that the pile was not fully driven")
	}
	if !strings.Contains(view, "BENCH") {
		t.Error("expected the label in the header")
	}
}

func TestPlaybackQuit(t *testing.T) {
	m := NewPlayback(rampTrace(10, dynamo.RunFullDepth), PlaybackOptions{})
	_, cmd := m.Update(key("q"))
	if cmd == nil {
		t.Fatal("expected a quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
}

func TestPlaybackJumpToEnd(t *testing.T) {
	m := send(NewPlayback(rampTrace(800, dynamo.RunFullDepth), PlaybackOptions{}), key("e"))
	if !m.Done() {
		t.Error("expected E to reveal the whole trace")
	}
	if !strings.Contains(m.View(), "pile driven to") {
		t.Error("expected the full-depth verdict")
	}
}

func TestVerdict(t *testing.T) {
	tests := []struct {
		state dynamo.RunState
		want  string
	}{
		{dynamo.RunFullDepth, "pile driven to"},
		{dynamo.RunMaxSpeed, "critical speed"},
		{dynamo.RunTableExhausted, "schedule exhausted"},
		{dynamo.RunCanceled, "partial trace"},
	}
	for _, tt := range tests {
		t.Run(tt.state.String(), func(t *testing.T) {
			got := Verdict(rampTrace(10, tt.state))
			if !strings.Contains(got, tt.want) {
				t.Errorf("Verdict = %q, want it to contain %q", got, tt.want)
			}
		})
	}
}

func TestCharts(t *testing.T) {
	out := Charts(rampTrace(5000, dynamo.RunFullDepth), 40, 4)
	for _, caption := range []string{"depth (m)", "speed (rev/s)", "impulse (N)"} {
		if !strings.Contains(out, caption) {
			t.Errorf("expected caption %q", caption)
		}
	}
	if Charts(rampTrace(1, dynamo.RunFullDepth), 40, 4) != "" {
		t.Error("expected no chart for a single sample")
	}
}

func TestCanvas(t *testing.T) {
	c := NewCanvas(2, 1)
	c.Set(0, 0)
	c.Set(3, 3)
	c.Set(-1, 0)
	c.Set(4, 0)

	if got := c.String(); got != "⠁⢀" {
		t.Errorf("unexpected canvas %q", got)
	}

	c.Clear()
	c.Rect(0, 0, 3, 3)
	if got := c.String(); got != "⣏⣹" {
		t.Errorf("unexpected rectangle %q", got)
	}
}

func TestThemes(t *testing.T) {
	if GetTheme("nope").Name != Themes[0].Name {
		t.Error("expected fallback to the first theme")
	}
	if ThemeMinimal.next().Name != Themes[0].Name {
		t.Error("expected theme cycling to wrap")
	}
	if len(ThemeNames()) != len(Themes) {
		t.Error("theme names out of sync")
	}
}
