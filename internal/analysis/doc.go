// Package analysis provides post-run analysis of driving traces.
//
//   - [Spectrum]: one-sided magnitude spectrum of a uniformly sampled signal
//   - [ImpulseSpectrum]: spectrum of the driving impulse over the final
//     constant-speed window of a trace
//   - [CompareMeasured]: deviation of a simulated depth curve from a field record
//
// # Driving Frequencies
//
// At base speed w (rev/s) pair k contributes a harmonic at w*(k+1) Hz, so the
// dominant line of a steady window sits at one of those frequencies:
//
//	s, err := analysis.ImpulseSpectrum(trace)
//	if err == nil {
//	    fmt.Printf("%.2f Hz at %.2f rev/s\n", s.Dominant(), s.Speed)
//	}
package analysis
