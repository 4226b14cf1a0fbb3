package integrators

import (
	"fmt"
	"math"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// Outcome classifies the branch a Ratchet step took.
type Outcome int

const (
	Advance Outcome = iota
	Retract
	Failure
)

func (o Outcome) String() string {
	switch o {
	case Advance:
		return "advance"
	case Retract:
		return "retract"
	case Failure:
		return "failure"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

// Ratchet is the explicit second-order depth update with one-way clipping.
// On the driving stroke the pile advances by whatever the net force leaves
// after tip resistance and then skin friction, never going negative. On the
// return stroke it may retract by a clipped amount, unless the restoring
// force is larger than the pile can carry, which is a structural failure.
//
// A retraction stops at the ground surface (depth 0) unless Liftoff is set,
// in which case the pile may be pulled out above it.
type Ratchet struct {
	Liftoff bool

	dt      float64
	gravity float64
	dtm     float64 // dt^2 / M
	weight  float64 // M * g
}

func NewRatchet(dt, mass, gravity float64) *Ratchet {
	return &Ratchet{
		dt:      dt,
		gravity: gravity,
		dtm:     dt * dt / mass,
		weight:  mass * gravity,
	}
}

// Seed returns the second history sample: one free-fall step under gravity,
// less the tip resistance at the surface.
func (r *Ratchet) Seed(front float64) float64 {
	return math.Max(r.gravity*r.dt*r.dt-front*r.dtm, 0)
}

// Step returns depth[i] from depth[i-1] (prev) and depth[i-2] (prevPrev).
// front and lateral are the resistances at prev.
func (r *Ratchet) Step(prev, prevPrev, impulse, front, lateral float64) (float64, error) {
	next, outcome := r.Classify(prev, prevPrev, impulse, front, lateral)
	if outcome == Failure {
		return prev, fmt.Errorf("%w: restoring force exceeds load capacity (impulse=%.4g N, lateral=%.4g N)",
			dynamo.ErrStructuralFailure, impulse, lateral)
	}
	return next, nil
}

// Classify performs one update and reports which branch it took. On Failure
// the returned depth is prev.
func (r *Ratchet) Classify(prev, prevPrev, impulse, front, lateral float64) (float64, Outcome) {
	f := prev - prevPrev + r.weight*r.dtm + impulse*r.dtm
	skin := lateral * r.dtm

	if f > 0 {
		return prev + math.Max(math.Max(f-front*r.dtm, 0)-skin, 0), Advance
	}
	if f+r.weight+skin < 0 {
		return prev, Failure
	}
	next := prev + math.Min(f+skin, 0)
	if !r.Liftoff {
		next = math.Max(next, math.Min(prev, 0))
	}
	return next, Retract
}
