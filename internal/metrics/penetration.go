package metrics

import (
	"math"

	"github.com/san-kum/vibropile/internal/dynamo"
	"github.com/san-kum/vibropile/internal/sim"
)

// PenetrationRate is the mean driving speed over the run (m/s).
type PenetrationRate struct {
	name  string
	depth float64
	time  float64
}

func NewPenetrationRate() *PenetrationRate {
	return &PenetrationRate{name: "mean_penetration_rate"}
}

func (p *PenetrationRate) Name() string { return p.name }

func (p *PenetrationRate) Observe(s dynamo.Sample) {
	p.depth, p.time = s.Depth, s.Time
}

func (p *PenetrationRate) Value() float64 {
	if p.time <= 0 {
		return 0
	}
	return p.depth / p.time
}

func (p *PenetrationRate) Reset() {
	p.depth, p.time = 0, 0
}

// TimeToDepth records the first time (s) the pile reached target. It reports
// -1 while the target has not been reached.
type TimeToDepth struct {
	name    string
	target  float64
	reached float64
}

func NewTimeToDepth(target float64) *TimeToDepth {
	return &TimeToDepth{name: "time_to_depth", target: target, reached: -1}
}

func (t *TimeToDepth) Name() string { return t.name }

func (t *TimeToDepth) Observe(s dynamo.Sample) {
	if t.reached < 0 && s.Depth >= t.target {
		t.reached = s.Time
	}
}

func (t *TimeToDepth) Value() float64 { return t.reached }

func (t *TimeToDepth) Reset() { t.reached = -1 }

// PeakImpulse is the largest driving force magnitude seen (N).
type PeakImpulse struct {
	name string
	peak float64
}

func NewPeakImpulse() *PeakImpulse {
	return &PeakImpulse{name: "peak_impulse"}
}

func (p *PeakImpulse) Name() string { return p.name }

func (p *PeakImpulse) Observe(s dynamo.Sample) {
	p.peak = math.Max(p.peak, math.Abs(s.Driving))
}

func (p *PeakImpulse) Value() float64 { return p.peak }

func (p *PeakImpulse) Reset() { p.peak = 0 }

// Defaults returns a fresh instance of every driving metric.
func Defaults(pileLength float64) []sim.Metric {
	return []sim.Metric{
		NewPenetrationRate(),
		NewTimeToDepth(pileLength),
		NewPeakImpulse(),
		NewSpeedChanges(),
		NewMeanSpeed(),
		NewMaxRetraction(),
		NewDrivingWork(),
	}
}
