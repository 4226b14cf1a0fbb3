package optim

import (
	"context"
	"errors"
	"fmt"
	"math"
	"runtime"
	"sort"

	"golang.org/x/sync/errgroup"

	"github.com/san-kum/vibropile/internal/config"
	"github.com/san-kum/vibropile/internal/dynamo"
	"github.com/san-kum/vibropile/internal/sim"
)

var ErrNoFeasible = errors.New("optim: no grid point produced a usable metric")

// EngineFactory builds the engine for one grid point. It is called once per
// run so metrics are never shared between goroutines.
type EngineFactory func(p dynamo.ParameterSet) *sim.Engine

// Point is the outcome of one grid point. Value is NaN when the run failed
// or the metric was negative (not reached).
type Point struct {
	Params map[string]float64
	State  dynamo.RunState
	Value  float64
	Err    error
}

func (p Point) Feasible() bool { return p.Err == nil && !math.IsNaN(p.Value) }

type Result struct {
	Best   map[string]float64
	Value  float64
	Points []Point
}

type GridSearch struct {
	paramNames []string
	ranges     [][]float64
	workers    int
}

func NewGridSearch(params []string, ranges [][]float64) *GridSearch {
	return &GridSearch{paramNames: params, ranges: ranges, workers: runtime.GOMAXPROCS(0)}
}

// SetWorkers bounds the number of concurrent runs; n < 1 means unbounded.
func (g *GridSearch) SetWorkers(n int) { g.workers = n }

// Size is the number of grid points.
func (g *GridSearch) Size() int {
	if len(g.ranges) == 0 {
		return 0
	}
	n := 1
	for _, r := range g.ranges {
		n *= len(r)
	}
	return n
}

// Search runs base with every combination of parameter values and returns the
// combination minimising metricName. Negative metric values mean "not
// reached" and are never selected.
func (g *GridSearch) Search(ctx context.Context, base *config.Config, newEngine EngineFactory, metricName string) (*Result, error) {
	if len(g.paramNames) != len(g.ranges) {
		return nil, fmt.Errorf("%w: %d parameter names, %d ranges", dynamo.ErrConfig, len(g.paramNames), len(g.ranges))
	}
	for _, name := range g.paramNames {
		if err := base.Clone().Set(name, 0); err != nil {
			return nil, err
		}
	}

	combos := make([]map[string]float64, 0, g.Size())
	g.enumerate(0, make(map[string]float64), &combos)

	points := make([]Point, len(combos))
	eg, ctx := errgroup.WithContext(ctx)
	if g.workers > 0 {
		eg.SetLimit(g.workers)
	}
	for i, combo := range combos {
		eg.Go(func() error {
			points[i] = evaluate(ctx, base, combo, newEngine, metricName)
			if errors.Is(points[i].Err, dynamo.ErrCanceled) {
				return points[i].Err
			}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return &Result{Points: points, Value: math.NaN()}, err
	}

	res := &Result{Points: points, Value: math.Inf(1)}
	for _, p := range points {
		if p.Feasible() && p.Value < res.Value {
			res.Value = p.Value
			res.Best = p.Params
		}
	}
	if res.Best == nil {
		res.Value = math.NaN()
		return res, ErrNoFeasible
	}
	return res, nil
}

func evaluate(ctx context.Context, base *config.Config, combo map[string]float64, newEngine EngineFactory, metricName string) Point {
	pt := Point{Params: combo, State: dynamo.RunFailed, Value: math.NaN()}

	cfg := base.Clone()
	if err := cfg.Apply(combo); err != nil {
		pt.Err = err
		return pt
	}
	p, err := cfg.Params()
	if err != nil {
		pt.Err = err
		return pt
	}

	tr, err := newEngine(p).Run(ctx, p)
	if err != nil {
		pt.Err = err
		return pt
	}
	pt.State = tr.State
	if v, ok := tr.Metrics[metricName]; ok && v >= 0 {
		pt.Value = v
	}
	return pt
}

func (g *GridSearch) enumerate(depth int, current map[string]float64, out *[]map[string]float64) {
	if depth == len(g.paramNames) {
		*out = append(*out, current)
		return
	}

	paramName := g.paramNames[depth]
	for _, val := range g.ranges[depth] {
		next := make(map[string]float64, len(current)+1)
		for k, v := range current {
			next[k] = v
		}
		next[paramName] = val
		g.enumerate(depth+1, next, out)
	}
}

// Linspace returns n evenly spaced values from lo to hi inclusive.
func Linspace(lo, hi float64, n int) []float64 {
	switch {
	case n <= 0:
		return nil
	case n == 1:
		return []float64{lo}
	}
	out := make([]float64, n)
	step := (hi - lo) / float64(n-1)
	for i := range out {
		out[i] = lo + float64(i)*step
	}
	out[n-1] = hi
	return out
}

// Ranked returns the feasible points ordered by ascending value.
func (r *Result) Ranked() []Point {
	out := make([]Point, 0, len(r.Points))
	for _, p := range r.Points {
		if p.Feasible() {
			out = append(out, p)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Value < out[j].Value })
	return out
}
