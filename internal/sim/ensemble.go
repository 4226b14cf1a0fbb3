package sim

import (
	"context"
	"errors"
	"runtime"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// Ensemble runs one parameter set under consecutive seeds.
type Ensemble struct {
	newEngine func() *Engine
	numRuns   int
	seedStart int64
	workers   int
}

// NewEnsemble builds an ensemble. newEngine is called once per run so that
// metrics are never shared between goroutines.
func NewEnsemble(newEngine func() *Engine, numRuns int, seedStart int64) *Ensemble {
	return &Ensemble{
		newEngine: newEngine,
		numRuns:   numRuns,
		seedStart: seedStart,
		workers:   runtime.GOMAXPROCS(0),
	}
}

// SetWorkers bounds the number of concurrent runs; n < 1 means unbounded.
func (e *Ensemble) SetWorkers(n int) { e.workers = n }

// Member is the outcome of one seed. A failed run has a nil Trace and Err set.
type Member struct {
	Seed  int64
	Trace *dynamo.Trace
	Err   error
}

// Run executes every member. Structural failures and domain errors are
// recorded per member; an invalid parameter set or a canceled ctx aborts
// the ensemble.
func (e *Ensemble) Run(ctx context.Context, p dynamo.ParameterSet) ([]Member, error) {
	if err := p.Validate(); err != nil {
		return nil, err
	}

	members := make([]Member, e.numRuns)
	g, gctx := errgroup.WithContext(ctx)
	if e.workers > 0 {
		g.SetLimit(e.workers)
	}

	for i := 0; i < e.numRuns; i++ {
		g.Go(func() error {
			pp := p
			pp.Seed = e.seedStart + int64(i)

			trace, err := e.newEngine().Run(gctx, pp)
			members[i] = Member{Seed: pp.Seed, Trace: trace, Err: err}
			if errors.Is(err, dynamo.ErrCanceled) {
				return err
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return members, err
	}
	return members, nil
}

// Summary aggregates an ensemble.
type Summary struct {
	Runs      int
	States    map[dynamo.RunState]int
	Failures  int
	MeanTime  float64
	StdTime   float64
	MeanDepth float64
	StdDepth  float64
}

// Summarize tallies terminal states and the spread of final time and depth
// over completed runs.
func Summarize(members []Member) Summary {
	s := Summary{Runs: len(members), States: make(map[dynamo.RunState]int)}
	times := make([]float64, 0, len(members))
	depths := make([]float64, 0, len(members))

	for _, m := range members {
		if errors.Is(m.Err, dynamo.ErrCanceled) {
			s.States[dynamo.RunCanceled]++
			continue
		}
		if m.Err != nil || m.Trace == nil {
			s.Failures++
			s.States[dynamo.RunFailed]++
			continue
		}
		s.States[m.Trace.State]++
		last := m.Trace.Last()
		times = append(times, last.Time)
		depths = append(depths, last.Depth)
	}

	switch len(times) {
	case 0:
	case 1:
		s.MeanTime, s.MeanDepth = times[0], depths[0]
	default:
		s.MeanTime, s.StdTime = stat.MeanStdDev(times, nil)
		s.MeanDepth, s.StdDepth = stat.MeanStdDev(depths, nil)
	}
	return s
}
