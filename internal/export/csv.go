package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/san-kum/vibropile/internal/dynamo"
)

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}

// WriteCSV writes one row per sample: step, time, depth, speed, impulse and,
// for dual-track traces, impulse_noisy.
func WriteCSV(w io.Writer, tr *dynamo.Trace) error {
	cw := csv.NewWriter(w)

	header := []string{"step", "time", "depth", "speed", "impulse"}
	if tr.HasNoisy() {
		header = append(header, "impulse_noisy")
	}
	if err := cw.Write(header); err != nil {
		return err
	}

	row := make([]string, len(header))
	for i := 0; i < tr.Len(); i++ {
		row[0] = strconv.Itoa(i)
		row[1] = formatFloat(tr.Time[i])
		row[2] = formatFloat(tr.Depth[i])
		row[3] = formatFloat(tr.Speed[i])
		row[4] = formatFloat(tr.Impulse[i])
		if tr.HasNoisy() {
			row[5] = formatFloat(tr.ImpulseNoisy[i])
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}

	cw.Flush()
	return cw.Error()
}

// ReadMeasured reads a field record of (time, depth) pairs. A header row is
// skipped when its first field is not a number; columns beyond the second
// are ignored.
func ReadMeasured(r io.Reader) (times, depths []float64, err error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.Comment = '#'
	cr.TrimLeadingSpace = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, nil, err
	}

	for i, rec := range records {
		if len(rec) < 2 {
			return nil, nil, fmt.Errorf("%w: line %d: want time,depth", dynamo.ErrConfig, i+1)
		}
		t, terr := strconv.ParseFloat(strings.TrimSpace(rec[0]), 64)
		if terr != nil && i == 0 {
			continue
		}
		if terr != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", dynamo.ErrConfig, i+1, terr)
		}
		d, derr := strconv.ParseFloat(strings.TrimSpace(rec[1]), 64)
		if derr != nil {
			return nil, nil, fmt.Errorf("%w: line %d: %v", dynamo.ErrConfig, i+1, derr)
		}
		times = append(times, t)
		depths = append(depths, d)
	}
	return times, depths, nil
}
