package metrics

import (
	"github.com/san-kum/vibropile/internal/dynamo"
)

// SpeedChanges counts how often the controller raised the rotational speed.
type SpeedChanges struct {
	name    string
	last    float64
	changes int
	samples int
}

func NewSpeedChanges() *SpeedChanges {
	return &SpeedChanges{
		name: "speed_changes",
	}
}

func (c *SpeedChanges) Name() string {
	return c.name
}

func (c *SpeedChanges) Observe(s dynamo.Sample) {
	if c.samples > 0 && s.Speed != c.last {
		c.changes++
	}
	c.last = s.Speed
	c.samples++
}

func (c *SpeedChanges) Value() float64 {
	return float64(c.changes)
}

func (c *SpeedChanges) Reset() {
	c.last = 0
	c.changes = 0
	c.samples = 0
}

// MeanSpeed is the time-averaged rotational speed (rev/s).
type MeanSpeed struct {
	name    string
	sum     float64
	samples int
}

func NewMeanSpeed() *MeanSpeed {
	return &MeanSpeed{name: "mean_speed"}
}

func (m *MeanSpeed) Name() string { return m.name }

func (m *MeanSpeed) Observe(s dynamo.Sample) {
	m.sum += s.Speed
	m.samples++
}

func (m *MeanSpeed) Value() float64 {
	if m.samples == 0 {
		return 0
	}
	return m.sum / float64(m.samples)
}

func (m *MeanSpeed) Reset() {
	m.sum = 0
	m.samples = 0
}
