package analysis

import (
	"fmt"
	"math"
	"sort"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// Residuals compares a simulated depth curve with field measurements.
type Residuals struct {
	Times     []float64
	Measured  []float64
	Simulated []float64
	RMS       float64
	MaxAbs    float64
	// Beyond counts measurements taken after the simulated run ended; they
	// are compared against the final depth.
	Beyond int
}

// CompareMeasured samples tr at every measured time by linear interpolation.
func CompareMeasured(tr *dynamo.Trace, times, depths []float64) (Residuals, error) {
	if len(times) != len(depths) {
		return Residuals{}, fmt.Errorf("%w: %d measured times, %d depths", dynamo.ErrConfig, len(times), len(depths))
	}
	if tr.Len() == 0 || len(times) == 0 {
		return Residuals{}, fmt.Errorf("%w: nothing to compare", dynamo.ErrConfig)
	}

	r := Residuals{
		Times:     append([]float64(nil), times...),
		Measured:  append([]float64(nil), depths...),
		Simulated: make([]float64, len(times)),
	}
	sum := 0.0
	for i, t := range times {
		d, beyond := DepthAt(tr, t)
		if beyond {
			r.Beyond++
		}
		r.Simulated[i] = d
		diff := d - depths[i]
		sum += diff * diff
		r.MaxAbs = math.Max(r.MaxAbs, math.Abs(diff))
	}
	r.RMS = math.Sqrt(sum / float64(len(times)))
	return r, nil
}

// DepthAt interpolates the trace depth at time t. beyond reports that t is
// past the end of the trace, in which case the final depth is returned.
func DepthAt(tr *dynamo.Trace, t float64) (depth float64, beyond bool) {
	n := tr.Len()
	if t <= tr.Time[0] {
		return tr.Depth[0], false
	}
	if t >= tr.Time[n-1] {
		return tr.Depth[n-1], t > tr.Time[n-1]
	}
	j := sort.SearchFloat64s(tr.Time, t)
	t0, t1 := tr.Time[j-1], tr.Time[j]
	d0, d1 := tr.Depth[j-1], tr.Depth[j]
	return d0 + (d1-d0)*(t-t0)/(t1-t0), false
}
