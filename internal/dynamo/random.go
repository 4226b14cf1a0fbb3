package dynamo

import "math/rand"

// Source is the single sequential random stream of a run. Draws reports how
// many numbers have been consumed, so tests can check stream position.
type Source interface {
	NormFloat64() float64
	Draws() uint64
	Seed() int64
}

type seededSource struct {
	rng   *rand.Rand
	seed  int64
	draws uint64
}

// NewSource returns a reproducible stream for seed.
func NewSource(seed int64) Source {
	return &seededSource{rng: rand.New(rand.NewSource(seed)), seed: seed}
}

func (s *seededSource) NormFloat64() float64 {
	s.draws++
	return s.rng.NormFloat64()
}

func (s *seededSource) Draws() uint64 { return s.draws }
func (s *seededSource) Seed() int64   { return s.seed }

// Normal draws one sample of Normal(mean, stddev) from src.
func Normal(src Source, mean, stddev float64) float64 {
	return mean + stddev*src.NormFloat64()
}

// FillNormal overwrites dst with Normal(mean, stddev) samples, in index order.
func FillNormal(src Source, dst []float64, mean, stddev float64) {
	for i := range dst {
		dst[i] = Normal(src, mean, stddev)
	}
}
