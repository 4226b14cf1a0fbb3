// Package export writes driving traces to files: CSV and JSON for data
// exchange, XLSX for spreadsheets, SVG and PNG for charts.
//
// Tabular formats keep every sample. Charts are decimated to
// [Options.MaxPoints] points per series.
package export

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/san-kum/vibropile/internal/dynamo"
)

type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
	FormatXLSX Format = "xlsx"
	FormatSVG  Format = "svg"
	FormatPNG  Format = "png"
)

// DefaultMaxPoints is the chart decimation limit when Options leaves it unset.
const DefaultMaxPoints = 2000

var ErrUnknownFormat = errors.New("export: unknown format")

// Options carries presentation details that are not part of a trace.
type Options struct {
	Label     string // preset or config name shown in titles and metadata
	MaxPoints int
}

func (o Options) maxPoints() int {
	if o.MaxPoints > 0 {
		return o.MaxPoints
	}
	return DefaultMaxPoints
}

func Formats() []Format {
	return []Format{FormatCSV, FormatJSON, FormatXLSX, FormatSVG, FormatPNG}
}

func ParseFormat(s string) (Format, error) {
	f := Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
	for _, known := range Formats() {
		if f == known {
			return f, nil
		}
	}
	return "", fmt.Errorf("%w %q (available: %v)", ErrUnknownFormat, s, Formats())
}

// FormatOf derives the format from the file extension of path.
func FormatOf(path string) (Format, error) {
	return ParseFormat(filepath.Ext(path))
}

// Write renders tr to w in format f.
func Write(w io.Writer, f Format, tr *dynamo.Trace, opts Options) error {
	if tr == nil || tr.Len() == 0 {
		return errors.New("export: empty trace")
	}
	switch f {
	case FormatCSV:
		return WriteCSV(w, tr)
	case FormatJSON:
		return WriteJSON(w, tr, opts)
	case FormatXLSX:
		return WriteXLSX(w, tr, opts)
	case FormatSVG:
		return WriteSVG(w, tr, opts)
	case FormatPNG:
		return WritePNG(w, tr, opts)
	default:
		return fmt.Errorf("%w %q", ErrUnknownFormat, f)
	}
}

// WriteFile writes tr to path in the format named by its extension,
// creating parent directories as needed.
func WriteFile(path string, tr *dynamo.Trace, opts Options) error {
	f, err := FormatOf(path)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("cannot create directory: %w", err)
	}

	file, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := Write(file, f, tr, opts); err != nil {
		file.Close()
		return fmt.Errorf("export %s: %w", path, err)
	}
	return file.Close()
}

// timeStep recovers dt from the first two samples.
func timeStep(tr *dynamo.Trace) float64 {
	if tr.Len() < 2 {
		return 0
	}
	return tr.Time[1] - tr.Time[0]
}
