package sim_test

import (
	"context"
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/vibropile/internal/dynamo"
	"github.com/san-kum/vibropile/internal/integrators"
	"github.com/san-kum/vibropile/internal/metrics"
	"github.com/san-kum/vibropile/internal/physics"
	"github.com/san-kum/vibropile/internal/sim"
)

// fastParams drives a light single-pair pile to full depth in about a
// hundred simulated seconds at a coarse step.
func fastParams() dynamo.ParameterSet {
	return dynamo.ParameterSet{
		Gravity:    dynamo.DefaultGravity,
		Dt:         0.01,
		PileLength: 1.15,
		Perimeter:  0.08,
		Area:       7.6e-5,
		Mass:       40,
		GammaCR:    1.1,
		GammaCF:    1.0,
		Fi:         17000,
		Pairs:      []dynamo.EccentricPair{{Mass: 2.75758, Radius: 0.020070}},
		Noise:      dynamo.Noise{Tracks: dynamo.TracksClean},
		Control:    dynamo.AdaptiveControl(1),
		Resistance: dynamo.ResistanceConstant,
		Seed:       1,
	}
}

// fieldParams is the single-pair example at the standard 1 ms step.
func fieldParams() dynamo.ParameterSet {
	p := fastParams()
	p.Dt = 0.001
	p.Perimeter = 0.16
	p.Area = 4e-4
	p.Control = dynamo.AdaptiveControl(0.25)
	return p
}

func noisy(p dynamo.ParameterSet, seed int64) dynamo.ParameterSet {
	p.Seed = seed
	p.Noise = dynamo.Noise{RPM: 1e-3, Mass: 1e-1, Radius: 1e-1, Tracks: dynamo.TracksDual, Drive: dynamo.TrackNoisy}
	return p
}

func run(p dynamo.ParameterSet) *dynamo.Trace {
	tr, err := sim.New().Run(context.Background(), p)
	Expect(err).NotTo(HaveOccurred())
	return tr
}

type cancelAt struct {
	step   int
	cancel context.CancelFunc
}

func (c cancelAt) OnStep(s dynamo.Sample) {
	if s.Step == c.step {
		c.cancel()
	}
}

type counter struct{ n int }

func (c *counter) OnStep(dynamo.Sample) { c.n++ }

var _ = Describe("Engine", func() {
	Describe("trace shape", func() {
		var tr *dynamo.Trace

		BeforeEach(func() {
			tr = run(fastParams())
		})

		It("keeps every series the same length", func() {
			Expect(tr.Len()).To(BeNumerically(">", 2))
			Expect(tr.Depth).To(HaveLen(tr.Len()))
			Expect(tr.Speed).To(HaveLen(tr.Len()))
			Expect(tr.Impulse).To(HaveLen(tr.Len()))
			Expect(tr.HasNoisy()).To(BeFalse())
		})

		It("samples time on a uniform grid", func() {
			for i, t := range tr.Time {
				Expect(t).To(BeNumerically("~", float64(i)*0.01, 1e-9))
			}
		})

		It("seeds two samples at rest", func() {
			Expect(tr.Depth[0]).To(Equal(0.0))
			Expect(tr.Speed[0]).To(Equal(0.0))
			Expect(tr.Speed[1]).To(Equal(0.0))
			Expect(tr.Depth[1]).To(BeNumerically(">=", 0))
		})

		It("never lowers the speed", func() {
			for i := 1; i < tr.Len(); i++ {
				Expect(tr.Speed[i]).To(BeNumerically(">=", tr.Speed[i-1]), "sample %d", i)
			}
		})

		It("reaches full depth", func() {
			Expect(tr.State).To(Equal(dynamo.RunFullDepth))
			Expect(tr.Partial).To(BeFalse())
			Expect(tr.Last().Depth).To(BeNumerically(">=", 1.15))
			Expect(tr.Last().Speed).To(BeNumerically("<", dynamo.CriticalSpeed))
			Expect(tr.ID).NotTo(BeEmpty())
			Expect(tr.Draws).To(BeZero())
		})
	})

	It("terminates the field example without a structural failure", func() {
		p := fieldParams()
		tr := run(p)

		Expect(tr.State).To(BeElementOf(dynamo.RunFullDepth, dynamo.RunMaxSpeed))
		Expect(tr.Len()).To(BeNumerically("<", 10_000_000))
		if tr.State == dynamo.RunFullDepth {
			Expect(tr.Last().Depth).To(BeNumerically(">=", p.PileLength))
		} else {
			Expect(tr.Last().Speed).To(BeNumerically(">=", dynamo.CriticalSpeed))
		}
		for i := 1; i < tr.Len(); i++ {
			Expect(tr.Depth[i]).To(BeNumerically(">=", 0), "sample %d", i)
		}
	})

	It("lets the pile leave the ground only when lift-off is enabled", func() {
		p := fieldParams()
		p.Liftoff = true

		_, err := sim.New().Run(context.Background(), p)
		Expect(err).To(MatchError(dynamo.ErrStructuralFailure))
	})

	Describe("determinism", func() {
		It("repeats a clean run exactly", func() {
			a, b := run(fastParams()), run(fastParams())
			Expect(b.Depth).To(Equal(a.Depth))
			Expect(b.Speed).To(Equal(a.Speed))
			Expect(b.Impulse).To(Equal(a.Impulse))
		})

		It("repeats a noisy run with the same seed", func() {
			a, b := run(noisy(fastParams(), 7)), run(noisy(fastParams(), 7))
			Expect(b.Depth).To(Equal(a.Depth))
			Expect(b.ImpulseNoisy).To(Equal(a.ImpulseNoisy))
			Expect(b.Draws).To(Equal(a.Draws))
		})

		It("varies noisy runs by seed but not their outcome", func() {
			a, b := run(noisy(fastParams(), 1)), run(noisy(fastParams(), 2))
			Expect(b.ImpulseNoisy).NotTo(Equal(a.ImpulseNoisy))
			Expect(b.State).To(Equal(a.State))
			Expect(a.State).To(Equal(dynamo.RunFullDepth))
		})
	})

	Describe("dual tracks", func() {
		It("records both impulses and counts every draw", func() {
			tr := run(noisy(fastParams(), 3))

			Expect(tr.HasNoisy()).To(BeTrue())
			Expect(tr.ImpulseNoisy).To(HaveLen(tr.Len()))
			Expect(tr.Drive).To(Equal(dynamo.TrackNoisy))
			Expect(tr.Seed).To(Equal(int64(3)))
			// three start-of-run factors, then one rpm factor per iteration
			Expect(tr.Draws).To(Equal(uint64(tr.Len() + 1)))
		})

		It("keeps the clean track free of noise", func() {
			clean := run(fastParams())
			p := noisy(fastParams(), 3)
			p.Noise.Drive = dynamo.TrackClean
			dual := run(p)

			Expect(dual.Depth).To(Equal(clean.Depth))
			Expect(dual.Impulse).To(Equal(clean.Impulse))
			Expect(dual.ImpulseNoisy).NotTo(Equal(dual.Impulse))
		})
	})

	Describe("table control", func() {
		var p dynamo.ParameterSet

		BeforeEach(func() {
			p = fastParams()
			p.Control = dynamo.TableControl([]float64{0, 2, 4}, []float64{5, 10, 20})
		})

		It("stops when the schedule runs out", func() {
			tr := run(p)

			Expect(tr.State).To(Equal(dynamo.RunTableExhausted))
			Expect(tr.Last().Speed).To(Equal(20.0))
			Expect(tr.Last().Time).To(BeNumerically("~", 6, 1e-9))
			Expect(tr.Last().Depth).To(BeNumerically("<", p.PileLength))
		})

		It("applies each entry at the first tick after its time", func() {
			tr := run(p)

			at := func(t float64) float64 { return tr.Speed[int(math.Round(t/p.Dt))] }
			Expect(at(0.99)).To(Equal(0.0))
			Expect(at(1)).To(Equal(5.0))
			Expect(at(2)).To(Equal(5.0))
			Expect(at(3)).To(Equal(10.0))
			Expect(at(5)).To(Equal(20.0))
			for i := 1; i < tr.Len(); i++ {
				Expect(tr.Speed[i]).To(BeNumerically(">=", tr.Speed[i-1]))
			}
		})
	})

	Describe("structural failure", func() {
		var p dynamo.ParameterSet

		BeforeEach(func() {
			p = fieldParams()
			p.Mass = 1e-6
			p.Pairs = []dynamo.EccentricPair{{Mass: 1e-3, Radius: 0.02}}
			p.GammaCR = 1e3
			p.Fi = 1e9
		})

		It("fails with the step and time of the breaking iteration", func() {
			tr, err := sim.New().Run(context.Background(), p)
			Expect(tr).To(BeNil())
			Expect(err).To(MatchError(dynamo.ErrStructuralFailure))

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(simErr.Step).To(BeNumerically(">=", 2))
			Expect(simErr.Time).To(BeNumerically("~", float64(simErr.Step)*p.Dt, 1e-9))
		})

		It("breaks at the earliest iteration that meets the failure condition", func() {
			var samples []dynamo.Sample
			state, err := sim.New().RunWithCallback(context.Background(), p, func(s dynamo.Sample) bool {
				samples = append(samples, s)
				return true
			})
			Expect(state).To(Equal(dynamo.RunFailed))
			Expect(state.Completed()).To(BeFalse())

			var simErr *dynamo.SimulationError
			Expect(errors.As(err, &simErr)).To(BeTrue())
			Expect(samples).To(HaveLen(simErr.Step))

			ratchet := integrators.NewRatchet(p.Dt, p.Mass, p.Gravity)
			front := physics.Constant{GammaCR: p.GammaCR, Area: p.Area}
			lateral := physics.Lateral{Perimeter: p.Perimeter, Fi: p.Fi}
			for i := 2; i < len(samples); i++ {
				prev, prevPrev := samples[i-1].Depth, samples[i-2].Depth
				fls, _ := front.Front(prev)
				_, outcome := ratchet.Classify(prev, prevPrev, samples[i].Impulse, fls, lateral.At(prev))
				Expect(outcome).NotTo(Equal(integrators.Failure), "step %d", i)
			}
		})
	})

	It("reports the banded model leaving its domain", func() {
		p := fastParams()
		p.Resistance = dynamo.ResistanceBanded
		p.PileLength = 20
		p.GammaCR = 0
		p.Fi = 0

		_, err := sim.New().Run(context.Background(), p)
		Expect(err).To(MatchError(dynamo.ErrNumericDomain))

		var simErr *dynamo.SimulationError
		Expect(errors.As(err, &simErr)).To(BeTrue())
		Expect(simErr.Depth).To(BeNumerically(">", physics.MaxBandedDepth))
	})

	It("rejects an invalid parameter set before running", func() {
		p := fastParams()
		p.Pairs = nil

		tr, err := sim.New().Run(context.Background(), p)
		Expect(tr).To(BeNil())
		Expect(err).To(MatchError(dynamo.ErrConfig))
	})

	Describe("cancellation", func() {
		It("returns a partial trace", func() {
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()

			e := sim.New()
			e.AddObserver(cancelAt{step: 500, cancel: cancel})
			tr, err := e.Run(ctx, fastParams())

			Expect(err).To(MatchError(dynamo.ErrCanceled))
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(tr).NotTo(BeNil())
			Expect(tr.Partial).To(BeTrue())
			Expect(tr.State).To(Equal(dynamo.RunCanceled))
			Expect(tr.Len()).To(Equal(501))
		})

		It("stops when the callback declines a sample", func() {
			seen := 0
			state, err := sim.New().RunWithCallback(context.Background(), fastParams(), func(dynamo.Sample) bool {
				seen++
				return seen < 10
			})
			Expect(state).To(Equal(dynamo.RunCanceled))
			Expect(err).To(MatchError(dynamo.ErrCanceled))
			Expect(seen).To(Equal(10))
		})
	})

	Describe("Samples", func() {
		It("restarts from the seed on every range", func() {
			e := sim.New()
			seq := e.Samples(context.Background(), noisy(fastParams(), 5))

			take := func() []dynamo.Sample {
				var out []dynamo.Sample
				for s, err := range seq {
					Expect(err).NotTo(HaveOccurred())
					out = append(out, s)
					if len(out) == 300 {
						break
					}
				}
				return out
			}
			first, second := take(), take()
			Expect(first).To(HaveLen(300))
			Expect(second).To(Equal(first))
			for i, s := range first {
				Expect(s.Step).To(Equal(i))
			}
		})

		It("matches the materialized trace", func() {
			tr := run(fastParams())
			n := 0
			for s, err := range sim.New().Samples(context.Background(), fastParams()) {
				Expect(err).NotTo(HaveOccurred())
				Expect(s).To(Equal(tr.At(n)))
				n++
			}
			Expect(n).To(Equal(tr.Len()))
		})

		It("yields the run error last", func() {
			p := fastParams()
			p.Resistance = dynamo.ResistanceBanded
			p.PileLength, p.GammaCR, p.Fi = 20, 0, 0

			var last error
			for _, err := range sim.New().Samples(context.Background(), p) {
				last = err
			}
			Expect(last).To(MatchError(dynamo.ErrNumericDomain))
		})
	})

	Describe("metrics and observers", func() {
		It("stores metric values on the trace", func() {
			obs := &counter{}
			e := sim.New(sim.WithMetrics(metrics.Defaults(1.15)...))
			e.AddObserver(obs)
			tr, err := e.Run(context.Background(), fastParams())
			Expect(err).NotTo(HaveOccurred())

			Expect(obs.n).To(Equal(tr.Len()))
			Expect(tr.Metrics).To(HaveKey("time_to_depth"))
			Expect(tr.Metrics["time_to_depth"]).To(BeNumerically("~", tr.Last().Time, 1e-9))
			Expect(tr.Metrics["peak_impulse"]).To(BeNumerically(">", 0))
			Expect(tr.Metrics["speed_changes"]).To(BeNumerically(">", 0))
		})

		It("measures the track that drives the pile", func() {
			e := sim.New(sim.WithMetrics(metrics.Defaults(1.15)...))
			tr, err := e.Run(context.Background(), noisy(fastParams(), 3))
			Expect(err).NotTo(HaveOccurred())
			Expect(tr.HasNoisy()).To(BeTrue())

			work, peak := 0.0, 0.0
			for i := 0; i < tr.Len(); i++ {
				Expect(tr.At(i).Driving).To(Equal(tr.ImpulseNoisy[i]))
				peak = math.Max(peak, math.Abs(tr.ImpulseNoisy[i]))
				if i > 0 {
					if advance := tr.Depth[i] - tr.Depth[i-1]; advance > 0 {
						work += tr.ImpulseNoisy[i] * advance
					}
				}
			}
			Expect(tr.Metrics["driving_work"]).To(BeNumerically("~", work, 1e-9*math.Abs(work)))
			Expect(tr.Metrics["peak_impulse"]).To(Equal(peak))
		})

		It("resets metrics between runs", func() {
			e := sim.New(sim.WithMetrics(metrics.Defaults(1.15)...))
			a, err := e.Run(context.Background(), fastParams())
			Expect(err).NotTo(HaveOccurred())
			b, err := e.Run(context.Background(), fastParams())
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Metrics).To(Equal(a.Metrics))
		})
	})
})

var _ = Describe("Ensemble", func() {
	It("runs consecutive seeds and summarizes them", func() {
		ens := sim.NewEnsemble(func() *sim.Engine { return sim.New() }, 4, 10)
		ens.SetWorkers(2)

		members, err := ens.Run(context.Background(), noisy(fastParams(), 0))
		Expect(err).NotTo(HaveOccurred())
		Expect(members).To(HaveLen(4))
		for i, m := range members {
			Expect(m.Err).NotTo(HaveOccurred())
			Expect(m.Seed).To(Equal(int64(10 + i)))
			Expect(m.Trace.Seed).To(Equal(m.Seed))
		}

		s := sim.Summarize(members)
		Expect(s.Runs).To(Equal(4))
		Expect(s.Failures).To(BeZero())
		Expect(s.States[dynamo.RunFullDepth]).To(Equal(4))
		Expect(s.MeanDepth).To(BeNumerically(">=", 1.15))
		Expect(s.MeanTime).To(BeNumerically(">", 0))
	})

	It("records structural failures per member", func() {
		p := fieldParams()
		p.Mass = 1e-6
		p.Pairs = []dynamo.EccentricPair{{Mass: 1e-3, Radius: 0.02}}
		p.GammaCR, p.Fi = 1e3, 1e9

		members, err := sim.NewEnsemble(func() *sim.Engine { return sim.New() }, 2, 1).Run(context.Background(), p)
		Expect(err).NotTo(HaveOccurred())

		s := sim.Summarize(members)
		Expect(s.Failures).To(Equal(2))
		Expect(s.States[dynamo.RunFailed]).To(Equal(2))
		Expect(s.MeanTime).To(BeZero())
	})

	It("counts canceled members apart from failures", func() {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()

		members, err := sim.NewEnsemble(func() *sim.Engine { return sim.New() }, 3, 1).Run(ctx, fastParams())
		Expect(err).To(MatchError(dynamo.ErrCanceled))

		s := sim.Summarize(members)
		Expect(s.Failures).To(BeZero())
		Expect(s.States[dynamo.RunCanceled]).To(Equal(3))
		Expect(s.States).NotTo(HaveKey(dynamo.RunFailed))
	})

	It("rejects an invalid parameter set", func() {
		p := fastParams()
		p.Dt = 0
		_, err := sim.NewEnsemble(func() *sim.Engine { return sim.New() }, 2, 1).Run(context.Background(), p)
		Expect(err).To(MatchError(dynamo.ErrConfig))
	})
})
