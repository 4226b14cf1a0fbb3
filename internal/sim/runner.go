package sim

import (
	"context"

	"go.uber.org/zap"

	"github.com/san-kum/vibropile/internal/control"
	"github.com/san-kum/vibropile/internal/dynamo"
	"github.com/san-kum/vibropile/internal/integrators"
	"github.com/san-kum/vibropile/internal/physics"
)

// runner holds the mutable state of a single run.
type runner struct {
	p       dynamo.ParameterSet
	src     dynamo.Source
	log     *zap.Logger
	ratchet *integrators.Ratchet
	front   physics.FrontResistance
	lateral physics.Lateral
	ctl     control.Controller

	clean *physics.Forcing // nil when only the noisy track runs
	noisy *physics.Forcing // nil when no noise is drawn
	drive dynamo.Track

	// noise factor buffers, one entry per pair
	rpm, mass, radius []float64

	period int
	// history is a ring of the last len(history) depths, indexed by step.
	history []float64
}

func newRunner(p dynamo.ParameterSet, src dynamo.Source, log *zap.Logger) (*runner, error) {
	front, err := physics.NewFront(p.Resistance, p.GammaCR, p.Area)
	if err != nil {
		return nil, err
	}
	ctl, err := control.New(p.Control)
	if err != nil {
		return nil, err
	}

	r := &runner{
		p:       p,
		src:     src,
		log:     log,
		ratchet: integrators.NewRatchet(p.Dt, p.Mass, p.Gravity),
		front:   front,
		lateral: physics.Lateral{Perimeter: p.Perimeter, Fi: p.Fi},
		ctl:     ctl,
		drive:   p.DrivingTrack(),
		period:  p.Period(),
	}
	r.ratchet.Liftoff = p.Liftoff
	r.history = make([]float64, max(r.period+1, 3))

	n := len(p.Pairs)
	switch p.Noise.Tracks {
	case dynamo.TracksClean:
		r.clean = physics.NewForcing(p.Pairs)
	case dynamo.TracksNoisy:
		r.noisy = physics.NewForcing(p.Pairs)
	case dynamo.TracksDual:
		r.clean = physics.NewForcing(p.Pairs)
		r.noisy = physics.NewForcing(p.Pairs)
	}
	if r.noisy != nil {
		r.rpm = make([]float64, n)
		r.mass = make([]float64, n)
		r.radius = make([]float64, n)
	}
	return r, nil
}

// drawRunFactors draws the start-of-run rpm, mass and radius factors, in that order.
func (r *runner) drawRunFactors() {
	dynamo.FillNormal(r.src, r.rpm, 1, r.p.Noise.RPM)
	dynamo.FillNormal(r.src, r.mass, 1, r.p.Noise.Mass)
	dynamo.FillNormal(r.src, r.radius, 1, r.p.Noise.Radius)
	r.noisy.Perturb(r.mass, r.radius)
}

func (r *runner) drawStepFactors() {
	dynamo.FillNormal(r.src, r.rpm, 1, r.p.Noise.RPM)
	if r.p.Noise.PerStep {
		dynamo.FillNormal(r.src, r.mass, 1, r.p.Noise.Mass)
		dynamo.FillNormal(r.src, r.radius, 1, r.p.Noise.Radius)
		r.noisy.Perturb(r.mass, r.radius)
	}
}

func (r *runner) advance(speed float64) {
	if r.clean != nil {
		r.clean.Advance(speed, r.p.Dt, nil)
	}
	if r.noisy != nil {
		r.noisy.Advance(speed, r.p.Dt, r.rpm)
	}
}

// impulses returns the clean and noisy forces; an absent track yields 0.
func (r *runner) impulses(speed float64) (clean, noisy float64) {
	if r.clean != nil {
		clean = r.clean.Impulse(speed)
	}
	if r.noisy != nil {
		noisy = r.noisy.Impulse(speed)
	}
	return clean, noisy
}

func (r *runner) driving(clean, noisy float64) float64 {
	if r.drive == dynamo.TrackNoisy {
		return noisy
	}
	return clean
}

func (r *runner) sample(step int, t, depth, speed, clean, noisy float64) dynamo.Sample {
	s := dynamo.Sample{Step: step, Time: t, Depth: depth, Speed: speed, Driving: r.driving(clean, noisy)}
	switch r.p.Noise.Tracks {
	case dynamo.TracksNoisy:
		s.Impulse = noisy
	case dynamo.TracksDual:
		s.Impulse, s.ImpulseNoisy = clean, noisy
	default:
		s.Impulse = clean
	}
	return s
}

func (r *runner) record(step int, depth float64) { r.history[step%len(r.history)] = depth }
func (r *runner) depthAt(step int) float64       { return r.history[step%len(r.history)] }

func (r *runner) fail(step int, depth float64, err error) error {
	return &dynamo.SimulationError{
		Step:    step,
		Time:    float64(step) * r.p.Dt,
		Depth:   depth,
		Wrapped: err,
	}
}

func (r *runner) loop(ctx context.Context, emit func(dynamo.Sample) bool) (result, error) {
	p := r.p
	res := result{state: dynamo.RunRunning}

	if r.noisy != nil {
		r.drawRunFactors()
	}

	fls, err := r.front.Front(0)
	if err != nil {
		return res, r.fail(1, 0, err)
	}
	x1 := r.ratchet.Seed(fls)
	speed := 0.0

	c0, n0 := r.impulses(speed)
	r.advance(speed)
	c1, n1 := r.impulses(speed)

	seeds := [2]dynamo.Sample{
		r.sample(0, 0, 0, speed, c0, n0),
		r.sample(1, p.Dt, x1, speed, c1, n1),
	}
	for _, s := range seeds {
		r.record(s.Step, s.Depth)
		res.steps, res.last = s.Step+1, s
		if !emit(s) {
			return res, canceled(s.Step, s.Time, s.Depth, errStopped)
		}
	}

	prev, prevPrev := x1, 0.0
	for i := 2; speed < dynamo.CriticalSpeed && prev < p.PileLength; i++ {
		select {
		case <-ctx.Done():
			return res, canceled(i, float64(i)*p.Dt, prev, ctx.Err())
		default:
		}

		if r.noisy != nil {
			r.drawStepFactors()
		}
		r.advance(speed)
		clean, noisy := r.impulses(speed)

		fls, err := r.front.Front(prev)
		if err != nil {
			return res, r.fail(i, prev, err)
		}
		next, err := r.ratchet.Step(prev, prevPrev, r.driving(clean, noisy), fls, r.lateral.At(prev))
		if err != nil {
			return res, r.fail(i, prev, err)
		}

		t := float64(i) * p.Dt
		exhausted := false
		if i%r.period == 0 {
			obs := control.Observation{Step: i, Time: t, Depth: next, Lagged: r.depthAt(i - r.period)}
			updated, done := r.ctl.Update(obs, speed)
			switch {
			case done:
				exhausted = true
			case updated != speed:
				r.log.Debug("speed changed",
					zap.Int("step", i),
					zap.Float64("time", t),
					zap.Float64("depth", next),
					zap.Float64("from", speed),
					zap.Float64("to", updated))
				speed = updated
			}
		}

		s := r.sample(i, t, next, speed, clean, noisy)
		r.record(i, next)
		res.steps, res.last = i+1, s
		if !emit(s) {
			return res, canceled(i, t, next, errStopped)
		}
		if exhausted {
			res.state = dynamo.RunTableExhausted
			return res, nil
		}
		prevPrev, prev = prev, next
	}

	if prev >= p.PileLength {
		res.state = dynamo.RunFullDepth
	} else {
		res.state = dynamo.RunMaxSpeed
	}
	return res, nil
}
