package physics

import (
	"fmt"
	"math"

	"github.com/san-kum/vibropile/internal/dynamo"
)

const (
	constantCoefficient = 6.9e6
	bandWidth           = 1.0
)

// bandCoefficients holds the tip coefficient for depth bands (0,1], (1,2], ... (9,10].
var bandCoefficients = [...]float64{2.9e6, 3.0e6, 3.1e6, 3.2e6, 3.4e6, 3.6e6, 3.7e6, 3.8e6, 3.9e6, 4.0e6}

// MaxBandedDepth is the deepest point the banded model covers.
var MaxBandedDepth = float64(len(bandCoefficients)) * bandWidth

// FrontResistance gives the tip resistance (N) at a depth (m).
type FrontResistance interface {
	Front(depth float64) (float64, error)
}

// Constant is the depth-independent tip model.
type Constant struct {
	GammaCR float64
	Area    float64
}

func (c Constant) Front(depth float64) (float64, error) {
	return constantCoefficient * c.GammaCR * c.Area, nil
}

// Banded steps the tip coefficient every meter. Depths at or above the
// surface use the first band; depths below MaxBandedDepth are out of domain.
type Banded struct {
	GammaCR float64
	Area    float64
}

func (b Banded) Front(depth float64) (float64, error) {
	if math.IsNaN(depth) || depth > MaxBandedDepth {
		return 0, fmt.Errorf("%w: banded resistance undefined at depth %g m (max %g m)", dynamo.ErrNumericDomain, depth, MaxBandedDepth)
	}
	band := 0
	if depth > bandWidth {
		band = int(math.Ceil(depth/bandWidth)) - 1
	}
	return bandCoefficients[band] * b.GammaCR * b.Area, nil
}

// NewFront builds the tip model selected by kind.
func NewFront(kind dynamo.ResistanceKind, gammaCR, area float64) (FrontResistance, error) {
	switch kind {
	case dynamo.ResistanceConstant:
		return Constant{GammaCR: gammaCR, Area: area}, nil
	case dynamo.ResistanceBanded:
		return Banded{GammaCR: gammaCR, Area: area}, nil
	default:
		return nil, fmt.Errorf("%w: unknown resistance model %v", dynamo.ErrConfig, kind)
	}
}

// Lateral is skin friction proportional to embedded length.
type Lateral struct {
	Perimeter float64
	Fi        float64
}

func (l Lateral) At(depth float64) float64 {
	return l.Perimeter * l.Fi * depth
}
