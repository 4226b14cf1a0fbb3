package export

import (
	"fmt"
	"image/color"
	"io"
	"math"

	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"
	"gonum.org/v1/plot/vg/vgimg"

	"github.com/san-kum/vibropile/internal/dynamo"
)

const (
	pngWidthIn  = 8.0
	pngHeightIn = 9.0
	pngDPI      = 150
)

var (
	depthColor = color.RGBA{R: 0x1b, G: 0x9e, B: 0x77, A: 0xff}
	speedColor = color.RGBA{R: 0x1f, G: 0x78, B: 0xb4, A: 0xff}
	cleanColor = color.RGBA{R: 0xd9, G: 0x5f, B: 0x02, A: 0xff}
	noisyColor = color.RGBA{R: 0x75, G: 0x70, B: 0xb3, A: 0xc0}
)

func limitedTicker(maxLabels int, labelFmt string) plot.Ticker {
	if maxLabels < 2 {
		maxLabels = 2
	}
	return plot.TickerFunc(func(min, max float64) []plot.Tick {
		if math.IsNaN(min) || math.IsNaN(max) || math.IsInf(min, 0) || math.IsInf(max, 0) {
			return nil
		}
		if min == max {
			return []plot.Tick{{Value: min, Label: fmt.Sprintf(labelFmt, min)}}
		}
		step := (max - min) / float64(maxLabels-1)
		ticks := make([]plot.Tick, 0, maxLabels)
		for i := 0; i < maxLabels; i++ {
			v := min + float64(i)*step
			ticks = append(ticks, plot.Tick{Value: v, Label: fmt.Sprintf(labelFmt, v)})
		}
		return ticks
	})
}

func stylePlot(p *plot.Plot, yFmt string) {
	p.Title.TextStyle.Font.Size = vg.Points(13)
	p.X.Label.TextStyle.Font.Size = vg.Points(11)
	p.Y.Label.TextStyle.Font.Size = vg.Points(11)
	p.X.Tick.Label.Font.Size = vg.Points(9)
	p.Y.Tick.Label.Font.Size = vg.Points(9)
	p.X.Tick.Marker = limitedTicker(8, "%.0f")
	p.Y.Tick.Marker = limitedTicker(6, yFmt)
	p.Add(plotter.NewGrid())
}

func xys(xs, ys []float64) plotter.XYs {
	pts := make(plotter.XYs, len(xs))
	for i := range xs {
		pts[i].X = xs[i]
		pts[i].Y = ys[i]
	}
	return pts
}

func addLine(p *plot.Plot, xs, ys []float64, c color.Color, legend string) error {
	line, err := plotter.NewLine(xys(xs, ys))
	if err != nil {
		return err
	}
	line.LineStyle.Width = vg.Points(1.2)
	line.LineStyle.Color = c
	p.Add(line)
	if legend != "" {
		p.Legend.Add(legend, line)
	}
	return nil
}

// tracePlots builds the depth, speed and impulse charts of tr.
func tracePlots(tr *dynamo.Trace, opts Options) ([]*plot.Plot, error) {
	stride := tr.Stride(opts.maxPoints())
	xs := dynamo.Decimate(tr.Time, stride)

	depth := plot.New()
	depth.Title.Text = fmt.Sprintf("Penetration depth (%s)", tr.State)
	if opts.Label != "" {
		depth.Title.Text = opts.Label + ": " + depth.Title.Text
	}
	depth.Y.Label.Text = "depth (m)"
	stylePlot(depth, "%.2f")
	if err := addLine(depth, xs, dynamo.Decimate(tr.Depth, stride), depthColor, ""); err != nil {
		return nil, err
	}

	speed := plot.New()
	speed.Title.Text = "Rotational speed"
	speed.Y.Label.Text = "speed (rev/s)"
	stylePlot(speed, "%.1f")
	if err := addLine(speed, xs, dynamo.Decimate(tr.Speed, stride), speedColor, ""); err != nil {
		return nil, err
	}

	impulse := plot.New()
	impulse.Title.Text = "Driving impulse"
	impulse.X.Label.Text = "time (s)"
	impulse.Y.Label.Text = "force (N)"
	stylePlot(impulse, "%.0f")
	cleanLegend := ""
	if tr.HasNoisy() {
		cleanLegend = "clean"
		if err := addLine(impulse, xs, dynamo.Decimate(tr.ImpulseNoisy, stride), noisyColor, "noisy"); err != nil {
			return nil, err
		}
	}
	if err := addLine(impulse, xs, dynamo.Decimate(tr.Impulse, stride), cleanColor, cleanLegend); err != nil {
		return nil, err
	}

	return []*plot.Plot{depth, speed, impulse}, nil
}

// WritePNG renders the three charts stacked in one image.
func WritePNG(w io.Writer, tr *dynamo.Trace, opts Options) error {
	plots, err := tracePlots(tr, opts)
	if err != nil {
		return err
	}

	c := vgimg.NewWith(
		vgimg.UseWH(vg.Length(pngWidthIn)*vg.Inch, vg.Length(pngHeightIn)*vg.Inch),
		vgimg.UseDPI(pngDPI),
	)
	dc := draw.New(c)

	grid := make([][]*plot.Plot, len(plots))
	for i, p := range plots {
		grid[i] = []*plot.Plot{p}
	}
	tiles := draw.Tiles{
		Rows:      len(plots),
		Cols:      1,
		PadX:      vg.Millimeter,
		PadY:      vg.Millimeter * 3,
		PadTop:    vg.Millimeter * 2,
		PadBottom: vg.Millimeter * 2,
		PadLeft:   vg.Millimeter * 2,
		PadRight:  vg.Millimeter * 2,
	}
	canvases := plot.Align(grid, tiles, dc)
	for i := range grid {
		grid[i][0].Draw(canvases[i][0])
	}

	pngc := vgimg.PngCanvas{Canvas: c}
	if _, err := pngc.WriteTo(w); err != nil {
		return fmt.Errorf("cannot write png: %w", err)
	}
	return nil
}
