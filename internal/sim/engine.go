package sim

import (
	"context"
	"errors"
	"fmt"
	"iter"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// Engine runs pile-driving simulations. Runs are single-threaded and share
// nothing with each other except the registered metrics and observers, so
// one Engine must not run concurrently; use one Engine per goroutine.
type Engine struct {
	log       *zap.Logger
	newSource SourceFactory
	metrics   []Metric
	observers []Observer
}

func New(opts ...Option) *Engine {
	e := &Engine{
		log:       zap.NewNop(),
		newSource: dynamo.NewSource,
		metrics:   make([]Metric, 0),
		observers: make([]Observer, 0),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *Engine) AddMetric(m Metric)     { e.metrics = append(e.metrics, m) }
func (e *Engine) AddObserver(o Observer) { e.observers = append(e.observers, o) }

var errStopped = errors.New("stopped by consumer")

type result struct {
	state dynamo.RunState
	steps int
	last  dynamo.Sample
	draws uint64
}

// Run executes p to completion and returns the full trace.
//
// Configuration, numeric-domain and structural-failure errors return a nil
// trace and an error; the latter two are *dynamo.SimulationError values
// carrying the failing step. When ctx is canceled the samples produced so far
// are returned as a trace marked Partial together with an error matching
// both dynamo.ErrCanceled and ctx.Err().
func (e *Engine) Run(ctx context.Context, p dynamo.ParameterSet) (*dynamo.Trace, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	trace := dynamo.NewTrace(p.CapacityHint(), p.Noise.Tracks)
	trace.ID = uuid.NewString()
	trace.Drive = p.DrivingTrack()
	trace.Seed = p.Seed
	trace.State = dynamo.RunRunning

	res, err := e.execute(ctx, p, trace.ID, func(s dynamo.Sample) bool {
		trace.Append(s)
		return true
	})
	trace.Draws = res.draws

	if err != nil {
		if !errors.Is(err, dynamo.ErrCanceled) {
			return nil, err
		}
		trace.State = dynamo.RunCanceled
		trace.Partial = true
		e.collect(trace)
		return trace, err
	}

	trace.State = res.state
	e.collect(trace)
	return trace, nil
}

func (e *Engine) collect(trace *dynamo.Trace) {
	for _, m := range e.metrics {
		trace.Metrics[m.Name()] = m.Value()
	}
}

// RunWithCallback executes p and hands every sample to callback in order
// instead of building a trace. Returning false from callback stops the run,
// which then reports RunCanceled.
func (e *Engine) RunWithCallback(ctx context.Context, p dynamo.ParameterSet, callback func(dynamo.Sample) bool) (dynamo.RunState, error) {
	if err := p.Validate(); err != nil {
		return dynamo.RunFailed, err
	}
	res, err := e.execute(ctx, p, uuid.NewString(), callback)
	if err != nil {
		if errors.Is(err, dynamo.ErrCanceled) {
			return dynamo.RunCanceled, err
		}
		return dynamo.RunFailed, err
	}
	return res.state, nil
}

// Samples returns a lazy, restartable sequence over the samples of p. Each
// range over it starts a fresh run from the same seed. A run error is
// yielded once as the final element; breaking out of the range is not an error.
func (e *Engine) Samples(ctx context.Context, p dynamo.ParameterSet) iter.Seq2[dynamo.Sample, error] {
	return func(yield func(dynamo.Sample, error) bool) {
		if err := p.Validate(); err != nil {
			yield(dynamo.Sample{}, err)
			return
		}
		stopped := false
		_, err := e.execute(ctx, p, uuid.NewString(), func(s dynamo.Sample) bool {
			if !yield(s, nil) {
				stopped = true
				return false
			}
			return true
		})
		if err != nil && !stopped {
			yield(dynamo.Sample{}, err)
		}
	}
}

// execute runs a validated parameter set, passing each sample to emit.
func (e *Engine) execute(ctx context.Context, p dynamo.ParameterSet, id string, emit func(dynamo.Sample) bool) (result, error) {
	log := e.log.With(zap.String("run", id), zap.Int64("seed", p.Seed))
	src := e.newSource(p.Seed)

	r, err := newRunner(p, src, log)
	if err != nil {
		return result{state: dynamo.RunFailed}, err
	}

	for _, m := range e.metrics {
		m.Reset()
	}

	log.Info("run started", zap.Stringer("params", p), zap.Int("period", r.period))

	res, err := r.loop(ctx, func(s dynamo.Sample) bool {
		for _, m := range e.metrics {
			m.Observe(s)
		}
		for _, o := range e.observers {
			o.OnStep(s)
		}
		return emit(s)
	})
	res.draws = src.Draws()

	var simErr *dynamo.SimulationError
	switch {
	case err == nil:
		log.Info("run finished",
			zap.Stringer("state", res.state),
			zap.Int("steps", res.steps),
			zap.Float64("time", res.last.Time),
			zap.Float64("depth", res.last.Depth),
			zap.Float64("speed", res.last.Speed))
	case errors.Is(err, dynamo.ErrCanceled):
		log.Warn("run canceled", zap.Int("steps", res.steps), zap.Error(err))
	case errors.As(err, &simErr):
		log.Warn("run failed", zap.Int("step", simErr.Step), zap.Float64("time", simErr.Time), zap.Error(err))
	default:
		log.Error("run aborted", zap.Error(err))
	}
	return res, err
}

func canceled(step int, t, depth float64, cause error) error {
	return &dynamo.SimulationError{
		Step:    step,
		Time:    t,
		Depth:   depth,
		Wrapped: fmt.Errorf("%w: %w", dynamo.ErrCanceled, cause),
	}
}
