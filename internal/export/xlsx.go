package export

import (
	"io"
	"sort"

	"github.com/xuri/excelize/v2"

	"github.com/san-kum/vibropile/internal/dynamo"
)

const (
	traceSheet = "Trace"
	runSheet   = "Run"

	// one header row plus the last sample kept by decimation
	maxSheetRows = excelize.TotalRows - 2
)

// WriteXLSX writes the series to a "Trace" sheet and the run metadata and
// metrics to a "Run" sheet. Traces longer than a worksheet are decimated.
func WriteXLSX(w io.Writer, tr *dynamo.Trace, opts Options) error {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", traceSheet); err != nil {
		return err
	}
	if err := writeTraceSheet(f, tr); err != nil {
		return err
	}
	if err := writeRunSheet(f, tr, opts); err != nil {
		return err
	}
	return f.Write(w)
}

func writeTraceSheet(f *excelize.File, tr *dynamo.Trace) error {
	sw, err := f.NewStreamWriter(traceSheet)
	if err != nil {
		return err
	}

	header := []interface{}{"step", "time (s)", "depth (m)", "speed (rev/s)", "impulse (N)"}
	if tr.HasNoisy() {
		header = append(header, "impulse noisy (N)")
	}
	if err := sw.SetRow("A1", header); err != nil {
		return err
	}

	stride := tr.Stride(maxSheetRows)
	row := 2
	emit := func(i int) error {
		cell, err := excelize.CoordinatesToCellName(1, row)
		if err != nil {
			return err
		}
		values := []interface{}{i, tr.Time[i], tr.Depth[i], tr.Speed[i], tr.Impulse[i]}
		if tr.HasNoisy() {
			values = append(values, tr.ImpulseNoisy[i])
		}
		row++
		return sw.SetRow(cell, values)
	}

	last := tr.Len() - 1
	for i := 0; i <= last; i += stride {
		if err := emit(i); err != nil {
			return err
		}
	}
	if last%stride != 0 {
		if err := emit(last); err != nil {
			return err
		}
	}
	return sw.Flush()
}

func writeRunSheet(f *excelize.File, tr *dynamo.Trace, opts Options) error {
	if _, err := f.NewSheet(runSheet); err != nil {
		return err
	}
	doc := NewDocument(tr, opts)

	rows := [][]interface{}{
		{"id", doc.ID},
		{"label", doc.Label},
		{"state", doc.State.String()},
		{"partial", doc.Partial},
		{"tracks", doc.Tracks.String()},
		{"drive", doc.Drive.String()},
		{"seed", doc.Seed},
		{"draws", doc.Draws},
		{"dt", doc.Dt},
		{"steps", doc.Steps},
	}

	names := make([]string, 0, len(tr.Metrics))
	for name := range tr.Metrics {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		rows = append(rows, []interface{}{name, tr.Metrics[name]})
	}

	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(runSheet, cell, &r); err != nil {
			return err
		}
	}
	return nil
}
