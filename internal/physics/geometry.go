package physics

// Section is a hollow rectangular pile section.
type Section struct {
	Width          float64 // m
	Depth          float64 // m
	Wall           float64 // m
	WeightPerMeter float64 // kg/m of one wall
}

func (s Section) Perimeter() float64 {
	return s.Width*2 + s.Depth*2
}

func (s Section) Area() float64 {
	return s.Width*s.Depth - (s.Width-s.Wall)*(s.Depth-s.Wall)
}

// PileWeight is the mass (kg) of a pile of the given length; the section has four walls.
func (s Section) PileWeight(length float64) float64 {
	return length * s.WeightPerMeter * 4
}
