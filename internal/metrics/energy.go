package metrics

import (
	"github.com/san-kum/vibropile/internal/dynamo"
)

// DrivingWork integrates the work (J) done by the driving impulse on the
// pile: the force at each sample times the advance it produced.
type DrivingWork struct {
	name    string
	work    float64
	prev    float64
	samples int
}

func NewDrivingWork() *DrivingWork {
	return &DrivingWork{
		name: "driving_work",
	}
}

func (d *DrivingWork) Name() string { return d.name }

func (d *DrivingWork) Observe(s dynamo.Sample) {
	if d.samples > 0 {
		if advance := s.Depth - d.prev; advance > 0 {
			d.work += s.Driving * advance
		}
	}
	d.prev = s.Depth
	d.samples++
}

func (d *DrivingWork) Value() float64 {
	return d.work
}

func (d *DrivingWork) Reset() {
	d.work = 0
	d.prev = 0
	d.samples = 0
}
