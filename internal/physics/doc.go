// Package physics provides the force models of a vibratory pile driver.
//
//   - [Forcing]: multi-harmonic impulse of the hammer's eccentric pairs, with
//     phase bookkeeping and optional multiplicative perturbation
//   - [Constant], [Banded]: front (tip) resistance as a function of depth
//   - [Lateral]: skin friction along the embedded shaft
//   - [Section]: hollow rectangular pile geometry
//
// Forces are in newtons, lengths in meters, speeds in revolutions per second.
//
// # Forcing
//
// Pair k rotates at (k+1) times the base speed w, so its contribution is
//
//	m_k * R_k * (2*pi*w*(k+1))^2 * cos(theta_k)
//
// Phases accumulate without wrapping; only their cosine is observed.
package physics
