package control

import (
	"fmt"
	"math"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// Observation is what a controller sees at a tick.
type Observation struct {
	Step   int
	Time   float64
	Depth  float64 // depth at Step
	Lagged float64 // depth one period earlier
}

// Controller decides the speed for the next sample. done reports that the
// controller has nothing left to apply and the run should stop.
type Controller interface {
	Update(obs Observation, speed float64) (next float64, done bool)
	Reset()
}

// New builds the controller selected by c.Mode.
func New(c dynamo.RpmControl) (Controller, error) {
	switch c.Mode {
	case dynamo.RpmAdaptive:
		return NewStall(c.Step, c.StallThreshold), nil
	case dynamo.RpmTable:
		return NewSchedule(c.Times, c.Speeds), nil
	default:
		return nil, fmt.Errorf("%w: unknown rpm mode %v", dynamo.ErrConfig, c.Mode)
	}
}

// Stall steps the speed up by Step when the pile is stuck.
type Stall struct {
	Step      float64
	Threshold float64
	raises    int
}

func NewStall(step, threshold float64) *Stall {
	return &Stall{Step: step, Threshold: threshold}
}

func (s *Stall) Update(obs Observation, speed float64) (float64, bool) {
	if math.Abs(obs.Depth-obs.Lagged) <= s.Threshold {
		s.raises++
		return speed + s.Step, false
	}
	return speed, false
}

func (s *Stall) Reset() { s.raises = 0 }

// Raises counts the stalls seen since the last Reset.
func (s *Stall) Raises() int { return s.raises }

// Schedule applies a speed table. An entry becomes active at the first tick
// strictly after its time; at most one entry is applied per tick.
type Schedule struct {
	times  []float64
	speeds []float64
	cursor int
}

func NewSchedule(times, speeds []float64) *Schedule {
	return &Schedule{
		times:  append([]float64(nil), times...),
		speeds: append([]float64(nil), speeds...),
	}
}

func (s *Schedule) Update(obs Observation, speed float64) (float64, bool) {
	if s.cursor >= len(s.times) {
		return speed, true
	}
	if obs.Time > s.times[s.cursor] {
		speed = s.speeds[s.cursor]
		s.cursor++
	}
	return speed, false
}

func (s *Schedule) Reset() { s.cursor = 0 }

// Cursor is the index of the next entry to apply.
func (s *Schedule) Cursor() int { return s.cursor }

// Remaining is the number of entries not yet applied.
func (s *Schedule) Remaining() int { return len(s.times) - s.cursor }
