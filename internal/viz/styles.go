package viz

import (
	"strings"

	"github.com/charmbracelet/lipgloss"
)

type styles struct {
	panel    lipgloss.Style
	header   lipgloss.Style
	label    lipgloss.Style
	value    lipgloss.Style
	pile     lipgloss.Style
	graph    lipgloss.Style
	help     lipgloss.Style
	running  lipgloss.Style
	paused   lipgloss.Style
	done     lipgloss.Style
	failed   lipgloss.Style
	barHigh  lipgloss.Style
	barMid   lipgloss.Style
	barLow   lipgloss.Style
	helpText lipgloss.Style
}

func newStyles(t Theme) styles {
	return styles{
		panel: lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(t.Muted).
			Padding(0, 2),
		header:   lipgloss.NewStyle().Bold(true).Foreground(t.Primary).MarginBottom(1),
		label:    lipgloss.NewStyle().Foreground(t.Muted).Width(12),
		value:    lipgloss.NewStyle().Foreground(t.Text),
		pile:     lipgloss.NewStyle().Foreground(t.Primary),
		graph:    lipgloss.NewStyle().Foreground(t.Accent),
		help:     lipgloss.NewStyle().Foreground(t.Muted).MarginTop(1),
		running:  lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		paused:   lipgloss.NewStyle().Bold(true).Foreground(t.Warning),
		done:     lipgloss.NewStyle().Bold(true).Foreground(t.Success),
		failed:   lipgloss.NewStyle().Bold(true).Foreground(t.Error),
		barHigh:  lipgloss.NewStyle().Foreground(t.Success),
		barMid:   lipgloss.NewStyle().Foreground(t.Warning),
		barLow:   lipgloss.NewStyle().Foreground(t.Error),
		helpText: lipgloss.NewStyle().Foreground(t.Text),
	}
}

// progressBar renders a bar of the given width filled to fraction p.
func (s styles) progressBar(p float64, width int) string {
	filled := int(p * float64(width))
	filled = min(max(filled, 0), width)

	bar := strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
	switch {
	case p > 0.8:
		return s.barHigh.Render(bar)
	case p > 0.4:
		return s.barMid.Render(bar)
	default:
		return s.barLow.Render(bar)
	}
}

// sparkline renders values scaled into width block characters.
func sparkline(values []float64, width int) string {
	if len(values) == 0 || width <= 0 {
		return strings.Repeat("─", max(width, 0))
	}

	chars := []rune{'▁', '▂', '▃', '▄', '▅', '▆', '▇', '█'}

	lo, hi := values[0], values[0]
	for _, v := range values {
		lo = min(lo, v)
		hi = max(hi, v)
	}
	rng := hi - lo
	if rng == 0 {
		rng = 1
	}

	step := max(len(values)/width, 1)
	var b strings.Builder
	for i := 0; i < width && i*step < len(values); i++ {
		idx := int((values[i*step] - lo) / rng * float64(len(chars)-1))
		b.WriteRune(chars[min(max(idx, 0), len(chars)-1)])
	}
	return b.String()
}
