// Package dynamo provides the core primitives of a vibratory pile-driving run.
//
// The package defines the value types shared by every other package:
//
//   - [ParameterSet]: immutable description of one run (geometry, soil, hammer, control, noise)
//   - [EccentricPair]: one counter-rotating mass/radius pair of the hammer
//   - [Trace]: the read-only time series produced by a run
//   - [Sample]: one entry of a trace
//   - [RunState]: lifecycle and terminal state of a run
//   - [Source]: seedable, position-inspectable random stream
//
// # Example
//
//	p := dynamo.ParameterSet{ /* ... */ }
//	if err := p.Validate(); err != nil {
//	    // errors.Is(err, dynamo.ErrConfig)
//	}
//	trace, err := sim.New().Run(ctx, p)
//
// # Thread Safety
//
// A ParameterSet is a value and may be shared freely. Everything derived from
// it during a run (phases, controller cursor, random stream) is owned by that
// run alone.
package dynamo
