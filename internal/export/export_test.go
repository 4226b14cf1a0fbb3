package export

import (
	"bytes"
	"encoding/csv"
	"image/png"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/san-kum/vibropile/internal/dynamo"
)

func testTrace(n int, tracks dynamo.TrackMode) *dynamo.Trace {
	tr := dynamo.NewTrace(n, tracks)
	for i := 0; i < n; i++ {
		tr.Append(dynamo.Sample{
			Step:         i,
			Time:         float64(i) * 0.001,
			Depth:        float64(i) * 1e-4,
			Speed:        float64(i / 10),
			Impulse:      float64(i%7) - 3,
			ImpulseNoisy: float64(i%5) - 2,
		})
	}
	tr.ID = "run-1"
	tr.State = dynamo.RunFullDepth
	tr.Seed = 7
	tr.Metrics["time_to_depth"] = 0.042
	tr.Metrics["speed_changes"] = 3
	return tr
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"csv", FormatCSV},
		{".JSON", FormatJSON},
		{" xlsx ", FormatXLSX},
		{"svg", FormatSVG},
		{"png", FormatPNG},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseFormat(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	_, err := ParseFormat("parquet")
	assert.ErrorIs(t, err, ErrUnknownFormat)

	f, err := FormatOf("out/run.csv")
	require.NoError(t, err)
	assert.Equal(t, FormatCSV, f)
}

func TestWriteCSV(t *testing.T) {
	tr := testTrace(25, dynamo.TracksClean)
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, tr))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 26)
	assert.Equal(t, []string{"step", "time", "depth", "speed", "impulse"}, records[0])
	last := records[25]
	assert.Equal(t, "24", last[0])
	depth, err := strconv.ParseFloat(last[2], 64)
	require.NoError(t, err)
	assert.Equal(t, tr.Depth[24], depth, "values are written at full precision")
	assert.Equal(t, []string{"2", "0"}, last[3:])
}

func TestWriteCSVDual(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, testTrace(3, dynamo.TracksDual)))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, "impulse_noisy", records[0][5])
	assert.Equal(t, "0", records[3][5])
}

func TestReadMeasured(t *testing.T) {
	in := "time,depth\n# bench log\n0, 0\n6,0.01\n12,0.05,extra\n"
	times, depths, err := ReadMeasured(strings.NewReader(in))
	require.NoError(t, err)
	assert.Equal(t, []float64{0, 6, 12}, times)
	assert.Equal(t, []float64{0, 0.01, 0.05}, depths)

	_, _, err = ReadMeasured(strings.NewReader("0,0\n1,x\n"))
	assert.ErrorIs(t, err, dynamo.ErrConfig)

	_, _, err = ReadMeasured(strings.NewReader("0\n"))
	assert.ErrorIs(t, err, dynamo.ErrConfig)
}

func TestJSONRoundTrip(t *testing.T) {
	tr := testTrace(40, dynamo.TracksDual)
	tr.Drive = dynamo.TrackNoisy

	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, tr, Options{Label: "bench-noisy"}))

	got, doc, err := ReadJSON(&buf)
	require.NoError(t, err)
	assert.Equal(t, "run-1", doc.ID)
	assert.Equal(t, "bench-noisy", doc.Label)
	assert.Equal(t, 40, doc.Steps)
	assert.InDelta(t, 0.001, doc.Dt, 1e-15)

	assert.Equal(t, tr.Time, got.Time)
	assert.Equal(t, tr.Depth, got.Depth)
	assert.Equal(t, tr.Impulse, got.Impulse)
	assert.Equal(t, tr.ImpulseNoisy, got.ImpulseNoisy)
	assert.Equal(t, dynamo.RunFullDepth, got.State)
	assert.Equal(t, dynamo.TracksDual, got.Tracks)
	assert.Equal(t, dynamo.TrackNoisy, got.Drive)
	assert.Equal(t, tr.Metrics, got.Metrics)
}

func TestJSONAssignsID(t *testing.T) {
	tr := testTrace(3, dynamo.TracksClean)
	tr.ID = ""
	doc := NewDocument(tr, Options{})
	assert.Len(t, doc.ID, 36)
}

func TestReadJSONRejectsRaggedSeries(t *testing.T) {
	in := `{"id":"x","state":"COMPLETED_FULL_DEPTH","tracks":"clean","drive":"clean",
		"series":{"time":[0,1],"depth":[0],"speed":[0,0],"impulse":[0,0]}}`
	_, _, err := ReadJSON(strings.NewReader(in))
	assert.ErrorIs(t, err, dynamo.ErrConfig)
}

func TestWriteXLSX(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.xlsx")
	require.NoError(t, WriteFile(path, testTrace(30, dynamo.TracksDual), Options{Label: "single-pair"}))

	f, err := excelize.OpenFile(path)
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows(traceSheet)
	require.NoError(t, err)
	require.Len(t, rows, 31)
	assert.Equal(t, "impulse noisy (N)", rows[0][5])
	assert.Equal(t, "29", rows[30][0])

	label, err := f.GetCellValue(runSheet, "B2")
	require.NoError(t, err)
	assert.Equal(t, "single-pair", label)

	state, err := f.GetCellValue(runSheet, "B3")
	require.NoError(t, err)
	assert.Equal(t, "COMPLETED_FULL_DEPTH", state)
}

func TestWriteSVG(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteSVG(&buf, testTrace(5000, dynamo.TracksClean), Options{MaxPoints: 100, Label: "a<b"}))

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<?xml"))
	assert.Equal(t, 3, strings.Count(out, "<path"))
	assert.Contains(t, out, "<title>a&lt;b</title>")

	firstPath := out[strings.Index(out, "<path"):]
	firstPath = firstPath[:strings.Index(firstPath, "/>")]
	assert.LessOrEqual(t, strings.Count(firstPath, " L"), 101)
}

func TestWritePNG(t *testing.T) {
	path := filepath.Join(t.TempDir(), "charts", "run.png")
	require.NoError(t, WriteFile(path, testTrace(500, dynamo.TracksDual), Options{}))

	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()

	img, err := png.Decode(f)
	require.NoError(t, err)
	assert.Equal(t, int(pngWidthIn*pngDPI), img.Bounds().Dx())
}

func TestWriteRejectsEmptyTrace(t *testing.T) {
	var buf bytes.Buffer
	assert.Error(t, Write(&buf, FormatCSV, dynamo.NewTrace(0, dynamo.TracksClean), Options{}))
	assert.ErrorIs(t, WriteFile(filepath.Join(t.TempDir(), "x.parquet"), testTrace(3, dynamo.TracksClean), Options{}), ErrUnknownFormat)
}
