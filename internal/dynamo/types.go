package dynamo

import (
	"fmt"
	"math"
)

const (
	// CriticalSpeed is the rotational speed (rev/s) at which a run stops regardless of depth.
	CriticalSpeed = 50.0

	// DefaultGravity is the standard gravitational acceleration (m/s^2).
	DefaultGravity = 9.81

	// DefaultStallThreshold is the per-second advance (m) at or below which the pile counts as stalled.
	DefaultStallThreshold = 0.01

	maxPrealloc = 1 << 21
)

// EccentricPair is one counter-rotating mass/radius pair. Its harmonic index
// is its position k in ParameterSet.Pairs; it rotates at (k+1) times the base speed.
type EccentricPair struct {
	Mass   float64 // kg
	Radius float64 // m
}

// PairsFromLists zips parallel mass and radius lists into pairs.
func PairsFromLists(masses, radii []float64) ([]EccentricPair, error) {
	if len(masses) == 0 || len(radii) == 0 {
		return nil, configErrorf("empty eccentric pair list (masses=%d, radii=%d)", len(masses), len(radii))
	}
	if len(masses) != len(radii) {
		return nil, configErrorf("mismatched pair lists: %d masses, %d radii", len(masses), len(radii))
	}
	pairs := make([]EccentricPair, len(masses))
	for k := range masses {
		pairs[k] = EccentricPair{Mass: masses[k], Radius: radii[k]}
	}
	return pairs, nil
}

// Noise configures the multiplicative Normal(1, scale) perturbations and
// which impulse tracks a run computes.
type Noise struct {
	RPM    float64
	Mass   float64
	Radius float64
	// PerStep redraws mass and radius factors every iteration instead of once per run.
	PerStep bool
	Tracks  TrackMode
	// Drive selects the track that moves the pile when Tracks is TracksDual.
	Drive Track
}

// RpmControl selects and configures the rotational-speed controller.
type RpmControl struct {
	Mode           RpmMode
	Step           float64 // dw, adaptive mode
	StallThreshold float64 // adaptive mode
	Times          []float64
	Speeds         []float64
}

// AdaptiveControl returns an adaptive-stall configuration with the default threshold.
func AdaptiveControl(dw float64) RpmControl {
	return RpmControl{Mode: RpmAdaptive, Step: dw, StallThreshold: DefaultStallThreshold}
}

// TableControl returns a table-driven configuration.
func TableControl(times, speeds []float64) RpmControl {
	return RpmControl{Mode: RpmTable, Times: times, Speeds: speeds}
}

// ParameterSet describes one run. It is treated as immutable once a run starts.
type ParameterSet struct {
	Gravity    float64 // m/s^2
	Dt         float64 // s
	PileLength float64 // m, target depth
	Perimeter  float64 // m
	Area       float64 // m^2, pile cross-section
	Mass       float64 // kg, hammer + pile
	GammaCR    float64 // soil working coefficient under the pile tip
	GammaCF    float64 // soil working coefficient along the shaft
	Fi         float64 // lateral resistance coefficient
	Pairs      []EccentricPair
	Noise      Noise
	Control    RpmControl
	Resistance ResistanceKind
	// Liftoff lets a retraction pull the pile above the ground surface.
	Liftoff bool
	Seed    int64
}

// Validate reports the first problem with p as an error matching ErrConfig.
func (p ParameterSet) Validate() error {
	positive := []struct {
		name string
		v    float64
	}{
		{"dt", p.Dt},
		{"mass", p.Mass},
		{"pile length", p.PileLength},
	}
	for _, f := range positive {
		if !(f.v > 0) || math.IsInf(f.v, 0) {
			return configErrorf("%s must be positive and finite, got %g", f.name, f.v)
		}
	}

	nonNegative := []struct {
		name string
		v    float64
	}{
		{"gravity", p.Gravity},
		{"perimeter", p.Perimeter},
		{"area", p.Area},
		{"gamma_cr", p.GammaCR},
		{"gamma_cf", p.GammaCF},
		{"fi", p.Fi},
		{"rpm noise", p.Noise.RPM},
		{"mass noise", p.Noise.Mass},
		{"radius noise", p.Noise.Radius},
	}
	for _, f := range nonNegative {
		if !(f.v >= 0) || math.IsInf(f.v, 0) {
			return configErrorf("%s must be non-negative and finite, got %g", f.name, f.v)
		}
	}

	if p.Period() < 1 {
		return configErrorf("dt %g too large for a once-per-second controller period", p.Dt)
	}

	if len(p.Pairs) == 0 {
		return configErrorf("empty eccentric pair list")
	}
	for k, pair := range p.Pairs {
		if !(pair.Mass >= 0) || !(pair.Radius >= 0) || math.IsInf(pair.Mass, 0) || math.IsInf(pair.Radius, 0) {
			return configErrorf("pair %d: mass and radius must be non-negative, got m=%g R=%g", k, pair.Mass, pair.Radius)
		}
	}

	if !p.Resistance.valid() {
		return configErrorf("resistance model must be selected explicitly, got %v", p.Resistance)
	}
	if !p.Noise.Tracks.valid() {
		return configErrorf("unknown track mode %v", p.Noise.Tracks)
	}
	if !p.Noise.Drive.valid() {
		return configErrorf("unknown driving track %v", p.Noise.Drive)
	}

	return p.Control.validate()
}

func (c RpmControl) validate() error {
	switch c.Mode {
	case RpmAdaptive:
		if !(c.Step > 0) || math.IsInf(c.Step, 0) {
			return configErrorf("adaptive control needs a positive speed step, got %g", c.Step)
		}
		if !(c.StallThreshold >= 0) {
			return configErrorf("stall threshold must be non-negative, got %g", c.StallThreshold)
		}
	case RpmTable:
		if len(c.Times) == 0 {
			return configErrorf("table control needs at least one (time, speed) entry")
		}
		if len(c.Times) != len(c.Speeds) {
			return configErrorf("table length mismatch: %d times, %d speeds", len(c.Times), len(c.Speeds))
		}
		for i := range c.Times {
			if math.IsNaN(c.Times[i]) || math.IsInf(c.Times[i], 0) {
				return configErrorf("table time %d is not finite: %g", i, c.Times[i])
			}
			if math.IsNaN(c.Speeds[i]) || math.IsInf(c.Speeds[i], 0) {
				return configErrorf("table speed %d is not finite: %g", i, c.Speeds[i])
			}
			if c.Speeds[i] < 0 {
				return configErrorf("table speed %d is negative: %g", i, c.Speeds[i])
			}
			if i == 0 {
				continue
			}
			if !(c.Times[i] > c.Times[i-1]) {
				return configErrorf("table times must be strictly ascending at %d: %g after %g", i, c.Times[i], c.Times[i-1])
			}
			if c.Speeds[i] < c.Speeds[i-1] {
				return configErrorf("table speeds must be non-decreasing at %d: %g after %g", i, c.Speeds[i], c.Speeds[i-1])
			}
		}
	default:
		return configErrorf("rpm control mode must be selected explicitly, got %v", c.Mode)
	}
	return nil
}

// Period is the number of iterations in one simulated second.
func (p ParameterSet) Period() int {
	return int(math.Round(1 / p.Dt))
}

// DrivingTrack reports which impulse track moves the pile.
func (p ParameterSet) DrivingTrack() Track {
	switch p.Noise.Tracks {
	case TracksNoisy:
		return TrackNoisy
	case TracksDual:
		return p.Noise.Drive
	default:
		return TrackClean
	}
}

// CapacityHint estimates the trace length so buffers can be sized up front.
// Every simulated second either advances the pile by more than the stall
// threshold or raises the speed by dw, which bounds the adaptive run.
func (p ParameterSet) CapacityHint() int {
	period := float64(p.Period())
	var seconds float64
	switch p.Control.Mode {
	case RpmAdaptive:
		threshold := math.Max(p.Control.StallThreshold, DefaultStallThreshold)
		seconds = p.PileLength/threshold + CriticalSpeed/p.Control.Step
	case RpmTable:
		if n := len(p.Control.Times); n > 0 {
			seconds = p.Control.Times[n-1] + 2
		}
	}
	n := seconds*period + 2
	if n > maxPrealloc || math.IsNaN(n) {
		return maxPrealloc
	}
	return int(n)
}

func (p ParameterSet) String() string {
	return fmt.Sprintf("dt=%g l=%g P=%g S=%g M=%g gamma_cr=%g fi=%g pairs=%d resistance=%v control=%v tracks=%v",
		p.Dt, p.PileLength, p.Perimeter, p.Area, p.Mass, p.GammaCR, p.Fi, len(p.Pairs), p.Resistance, p.Control.Mode, p.Noise.Tracks)
}
