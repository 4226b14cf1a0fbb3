package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/san-kum/vibropile/internal/dynamo"
)

const (
	svgWidth       = 900
	svgPanelHeight = 220
	svgLabelHeight = 24
)

type panel struct {
	title  string
	stroke string
	ys     []float64
}

// WriteSVG draws depth, speed and impulse against time as three stacked panels.
func WriteSVG(w io.Writer, tr *dynamo.Trace, opts Options) error {
	stride := tr.Stride(opts.maxPoints())
	xs := dynamo.Decimate(tr.Time, stride)

	panels := []panel{
		{title: "depth (m)", stroke: "#00ff00", ys: dynamo.Decimate(tr.Depth, stride)},
		{title: "speed (rev/s)", stroke: "#00bfff", ys: dynamo.Decimate(tr.Speed, stride)},
		{title: "impulse (N)", stroke: "#ffa500", ys: dynamo.Decimate(tr.Impulse, stride)},
	}

	rowHeight := svgPanelHeight + svgLabelHeight
	height := rowHeight * len(panels)

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="#0a0a0a"/>
`, svgWidth, height, svgWidth, height))

	if opts.Label != "" {
		sb.WriteString(fmt.Sprintf(`<title>%s</title>
`, escapeXML(opts.Label)))
	}

	for i, p := range panels {
		top := i * rowHeight
		sb.WriteString(fmt.Sprintf(`<text x="8" y="%d" fill="#cccccc" font-family="monospace" font-size="14">%s</text>
`, top+17, p.title))
		sb.WriteString(fmt.Sprintf(`<g transform="translate(0,%d)">
`, top+svgLabelHeight))
		sb.WriteString(linePath(xs, p.ys, svgWidth, svgPanelHeight, p.stroke))
		sb.WriteString("</g>\n")
	}

	sb.WriteString("</svg>\n")
	_, err := io.WriteString(w, sb.String())
	return err
}

// linePath maps (xs, ys) onto a width x height box with 10% padding on each axis.
func linePath(xs, ys []float64, width, height int, stroke string) string {
	if len(xs) < 2 || len(xs) != len(ys) {
		return ""
	}

	minX, maxX := xs[0], xs[0]
	minY, maxY := ys[0], ys[0]
	for i := range xs {
		minX = min(minX, xs[i])
		maxX = max(maxX, xs[i])
		minY = min(minY, ys[i])
		maxY = max(maxY, ys[i])
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf(`<path fill="none" stroke="%s" stroke-width="1.5" d="M`, stroke))
	for i := range xs {
		x := (xs[i] - minX) / rangeX * float64(width)
		y := float64(height) - (ys[i]-minY)/rangeY*float64(height)
		if i == 0 {
			sb.WriteString(fmt.Sprintf("%.1f,%.1f", x, y))
		} else {
			sb.WriteString(fmt.Sprintf(" L%.1f,%.1f", x, y))
		}
	}
	sb.WriteString(`"/>
`)
	return sb.String()
}

var xmlEscaper = strings.NewReplacer("&", "&amp;", "<", "&lt;", ">", "&gt;", `"`, "&quot;")

func escapeXML(s string) string { return xmlEscaper.Replace(s) }
