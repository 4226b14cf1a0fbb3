package viz

import (
	"fmt"
	"strings"

	"github.com/guptarohit/asciigraph"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// Charts renders depth, speed and impulse of tr as stacked ASCII plots.
func Charts(tr *dynamo.Trace, width, height int) string {
	return charts(tr, tr.Len(), width, height)
}

// charts plots the first n samples of tr.
func charts(tr *dynamo.Trace, n, width, height int) string {
	if n < 2 {
		return ""
	}
	stride := max((n+width*2-1)/(width*2), 1)
	series := func(s []float64) []float64 { return dynamo.Decimate(s[:n], stride) }
	opts := func(caption string) []asciigraph.Option {
		return []asciigraph.Option{asciigraph.Height(height), asciigraph.Width(width), asciigraph.Caption(caption)}
	}

	var b strings.Builder
	b.WriteString(asciigraph.Plot(series(tr.Depth), opts("depth (m)")...))
	b.WriteString("\n\n")
	b.WriteString(asciigraph.Plot(series(tr.Speed), opts("speed (rev/s)")...))
	b.WriteString("\n\n")
	if tr.HasNoisy() {
		o := append(opts("impulse (N): clean, noisy"), asciigraph.SeriesColors(asciigraph.Default, asciigraph.Red))
		b.WriteString(asciigraph.PlotMany([][]float64{series(tr.Impulse), series(tr.ImpulseNoisy)}, o...))
	} else {
		b.WriteString(asciigraph.Plot(series(tr.Impulse), opts("impulse (N)")...))
	}
	return b.String()
}

// Verdict is a one-line account of how a run ended.
func Verdict(tr *dynamo.Trace) string {
	last := tr.Last()
	switch tr.State {
	case dynamo.RunFullDepth:
		return fmt.Sprintf("pile driven to %.3f m in %.2f s", last.Depth, last.Time)
	case dynamo.RunMaxSpeed:
		return fmt.Sprintf("pile not fully driven: critical speed reached at %.3f m after %.2f s", last.Depth, last.Time)
	case dynamo.RunTableExhausted:
		return fmt.Sprintf("pile not fully driven: speed schedule exhausted at %.3f m after %.2f s", last.Depth, last.Time)
	case dynamo.RunCanceled:
		return fmt.Sprintf("run canceled at %.2f s (partial trace, %.3f m)", last.Time, last.Depth)
	default:
		return fmt.Sprintf("run %v at %.2f s", tr.State, last.Time)
	}
}
