package metrics

import (
	"github.com/san-kum/vibropile/internal/dynamo"
)

// MaxRetraction is the largest single-step upward movement of the pile (m).
// A well-behaved ratchet keeps it near zero.
type MaxRetraction struct {
	name     string
	prev     float64
	max      float64
	retracts int
	samples  int
}

func NewMaxRetraction() *MaxRetraction {
	return &MaxRetraction{
		name: "max_retraction",
	}
}

func (r *MaxRetraction) Name() string {
	return r.name
}

func (r *MaxRetraction) Observe(s dynamo.Sample) {
	if r.samples > 0 {
		if back := r.prev - s.Depth; back > 0 {
			r.retracts++
			if back > r.max {
				r.max = back
			}
		}
	}
	r.prev = s.Depth
	r.samples++
}

func (r *MaxRetraction) Value() float64 {
	return r.max
}

// Retractions counts the steps on which the pile moved up.
func (r *MaxRetraction) Retractions() int {
	return r.retracts
}

func (r *MaxRetraction) Reset() {
	r.prev = 0
	r.max = 0
	r.retracts = 0
	r.samples = 0
}
