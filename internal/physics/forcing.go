package physics

import (
	"math"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// Impulse returns the summed harmonic force of pairs at base speed (rev/s)
// for the given phases. len(phases) must be at least len(pairs).
func Impulse(speed float64, phases []float64, pairs []dynamo.EccentricPair) float64 {
	sum := 0.0
	for k, p := range pairs {
		omega := speed * float64(k+1) * 2 * math.Pi
		sum += p.Mass * p.Radius * omega * omega * math.Cos(phases[k])
	}
	return sum
}

// Forcing owns the phase vector and effective pair values of one impulse track.
type Forcing struct {
	nominal   []dynamo.EccentricPair
	effective []dynamo.EccentricPair
	theta     []float64
}

func NewForcing(pairs []dynamo.EccentricPair) *Forcing {
	f := &Forcing{
		nominal:   append([]dynamo.EccentricPair(nil), pairs...),
		effective: make([]dynamo.EccentricPair, len(pairs)),
		theta:     make([]float64, len(pairs)),
	}
	copy(f.effective, pairs)
	return f
}

func (f *Forcing) N() int { return len(f.nominal) }

// Reset zeroes the phases and drops any perturbation.
func (f *Forcing) Reset() {
	copy(f.effective, f.nominal)
	for k := range f.theta {
		f.theta[k] = 0
	}
}

// Perturb scales each pair's mass and radius by the given factors. A nil
// slice leaves that quantity at its nominal value.
func (f *Forcing) Perturb(massFactors, radiusFactors []float64) {
	for k, p := range f.nominal {
		m, r := p.Mass, p.Radius
		if massFactors != nil {
			m *= massFactors[k]
		}
		if radiusFactors != nil {
			r *= radiusFactors[k]
		}
		f.effective[k] = dynamo.EccentricPair{Mass: m, Radius: r}
	}
}

// Advance moves every phase forward by one step of length dt at base speed.
// factors perturbs each pair's rotation rate; nil means exactly 1.
func (f *Forcing) Advance(speed, dt float64, factors []float64) {
	for k := range f.theta {
		factor := 1.0
		if factors != nil {
			factor = factors[k]
		}
		f.theta[k] += speed * float64(k+1) * factor * dt * 2 * math.Pi
	}
}

// Impulse is the current force at base speed.
func (f *Forcing) Impulse(speed float64) float64 {
	return Impulse(speed, f.theta, f.effective)
}

// Phases returns a copy of the phase vector.
func (f *Forcing) Phases() []float64 {
	return append([]float64(nil), f.theta...)
}

// Amplitude is the peak force at base speed, reached when every phase is a multiple of 2*pi.
func (f *Forcing) Amplitude(speed float64) float64 {
	sum := 0.0
	for k, p := range f.effective {
		omega := speed * float64(k+1) * 2 * math.Pi
		sum += p.Mass * p.Radius * omega * omega
	}
	return sum
}
