package dynamo

import "strings"

// RunState is the lifecycle state of a run.
type RunState int

const (
	RunInit RunState = iota
	RunRunning
	// RunFullDepth: the pile reached its target length.
	RunFullDepth
	// RunMaxSpeed: the critical speed was reached before full penetration.
	RunMaxSpeed
	// RunTableExhausted: the speed schedule ran out (table mode only).
	RunTableExhausted
	RunFailed
	// RunCanceled marks a partial trace returned after interruption.
	RunCanceled
)

var runStateNames = map[RunState]string{
	RunInit:           "INIT",
	RunRunning:        "RUNNING",
	RunFullDepth:      "COMPLETED_FULL_DEPTH",
	RunMaxSpeed:       "COMPLETED_MAX_SPEED",
	RunTableExhausted: "COMPLETED_TABLE_EXHAUSTED",
	RunFailed:         "FAILED",
	RunCanceled:       "CANCELED",
}

func (s RunState) String() string { return enumString(runStateNames, s) }

func (s RunState) MarshalText() ([]byte, error) { return []byte(s.String()), nil }

func (s *RunState) UnmarshalText(b []byte) error {
	name := strings.TrimSpace(string(b))
	for v, n := range runStateNames {
		if strings.EqualFold(n, name) {
			*s = v
			return nil
		}
	}
	return configErrorf("unknown run state %q", name)
}

// Completed reports whether s is one of the three successful terminal states.
func (s RunState) Completed() bool {
	return s == RunFullDepth || s == RunMaxSpeed || s == RunTableExhausted
}

// Sample is one entry of a trace.
type Sample struct {
	Step         int
	Time         float64
	Depth        float64
	Speed        float64
	Impulse      float64
	ImpulseNoisy float64 // zero unless the run records both tracks
	Driving      float64 // the impulse that moved the pile
}

// Trace is the output of a run: parallel series of equal length ordered by
// iteration. It must not be modified after the run returns it.
type Trace struct {
	Time         []float64
	Depth        []float64
	Speed        []float64
	Impulse      []float64
	ImpulseNoisy []float64 // nil unless Tracks == TracksDual

	ID      string
	State   RunState
	Partial bool
	Tracks  TrackMode
	Drive   Track
	Seed    int64
	Draws   uint64
	Metrics map[string]float64
}

// NewTrace allocates an empty trace with room for capacity samples.
func NewTrace(capacity int, tracks TrackMode) *Trace {
	t := &Trace{
		Time:    make([]float64, 0, capacity),
		Depth:   make([]float64, 0, capacity),
		Speed:   make([]float64, 0, capacity),
		Impulse: make([]float64, 0, capacity),
		State:   RunInit,
		Tracks:  tracks,
		Metrics: make(map[string]float64),
	}
	if tracks == TracksDual {
		t.ImpulseNoisy = make([]float64, 0, capacity)
	}
	return t
}

// Append adds one sample to every series.
func (t *Trace) Append(s Sample) {
	t.Time = append(t.Time, s.Time)
	t.Depth = append(t.Depth, s.Depth)
	t.Speed = append(t.Speed, s.Speed)
	t.Impulse = append(t.Impulse, s.Impulse)
	if t.ImpulseNoisy != nil {
		t.ImpulseNoisy = append(t.ImpulseNoisy, s.ImpulseNoisy)
	}
}

func (t *Trace) Len() int { return len(t.Time) }

// HasNoisy reports whether the trace carries a second, noisy impulse series.
func (t *Trace) HasNoisy() bool { return t.ImpulseNoisy != nil }

// At returns sample i.
func (t *Trace) At(i int) Sample {
	s := Sample{
		Step:    i,
		Time:    t.Time[i],
		Depth:   t.Depth[i],
		Speed:   t.Speed[i],
		Impulse: t.Impulse[i],
	}
	s.Driving = s.Impulse
	if t.ImpulseNoisy != nil {
		s.ImpulseNoisy = t.ImpulseNoisy[i]
		if t.Drive == TrackNoisy {
			s.Driving = s.ImpulseNoisy
		}
	}
	return s
}

// Last returns the final sample, or a zero Sample for an empty trace.
func (t *Trace) Last() Sample {
	if t.Len() == 0 {
		return Sample{}
	}
	return t.At(t.Len() - 1)
}

// Stride returns the sampling step that keeps at most maxPoints points.
func (t *Trace) Stride(maxPoints int) int {
	if maxPoints <= 0 || t.Len() <= maxPoints {
		return 1
	}
	return (t.Len() + maxPoints - 1) / maxPoints
}

// Decimate returns every stride-th value of series, always keeping the last one.
func Decimate(series []float64, stride int) []float64 {
	if stride <= 1 || len(series) == 0 {
		return series
	}
	out := make([]float64, 0, len(series)/stride+2)
	for i := 0; i < len(series); i += stride {
		out = append(out, series[i])
	}
	if (len(series)-1)%stride != 0 {
		out = append(out, series[len(series)-1])
	}
	return out
}
