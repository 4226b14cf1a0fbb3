package config

import (
	"sort"

	"github.com/san-kum/vibropile/internal/dynamo"
)

// Bench rig: six eccentric pairs of the laboratory hammer.
var (
	benchMasses = []float64{
		2.75758026171761,
		0.969494952543874,
		0.486348994233291,
		0.273755006621712,
		0.155229853500278,
		0.076567059516108,
	}
	benchRadii = []float64{
		0.020070401444444,
		0.011900487555556,
		0.008428804666667,
		0.006323725555556,
		0.004761892666667,
		0.003344359555556,
	}

	benchTimes = []float64{0.0, 6.0, 12.0, 18.0, 23.0, 27.0, 34.0, 40.0, 44.0, 55.0, 61.0, 64.0, 72.0, 77.0, 82.0, 86.0, 90.0, 99.0,
		105.0, 113.0, 120.0, 125.0, 135.0, 150.0, 158.0, 185.0, 203.0, 230.0, 263.0, 276.0, 285.0, 291.0, 310.0, 320.0}
	benchSpeeds = []float64{0.0, 5.0, 5.16, 5.33, 5.5, 5.6, 5.8, 6.0, 6.16, 6.33, 6.5, 6.66, 6.83, 7.0, 7.16, 7.33, 7.5, 9.0,
		9.16, 9.83, 10.5, 11.16, 11.83, 13.83, 14.0, 14.4, 14.9, 15.4, 16.7, 17.5, 18.0, 18.5, 19.0, 19.0}
	benchDepths = []float64{0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.0, 0.03, 0.03, 0.03, 0.03, 0.04,
		0.04, 0.04, 0.045, 0.05, 0.08, 0.2, 0.3, 0.55, 0.6, 0.67, 0.8, 0.9, 0.95, 1.05, 1.15, 1.15}
)

func benchRig() *Config {
	cfg := DefaultConfig()
	cfg.Pile = PileConfig{
		Length:  1.15,
		Section: &SectionConfig{Width: 0.02, Depth: 0.02, Wall: 0.002, WeightPerMeter: 0.3},
	}
	cfg.Hammer = HammerConfig{
		PlungerMass: 37,
		Masses:      append([]float64(nil), benchMasses...),
		Radii:       append([]float64(nil), benchRadii...),
	}
	return cfg
}

func benchTable() *Config {
	cfg := benchRig()
	cfg.Control = ControlConfig{
		Mode:   dynamo.RpmTable,
		Times:  append([]float64(nil), benchTimes...),
		Speeds: append([]float64(nil), benchSpeeds...),
	}
	cfg.Measured = &MeasuredConfig{
		Times:  append([]float64(nil), benchTimes...),
		Depths: append([]float64(nil), benchDepths...),
	}
	return cfg
}

var Presets = map[string]func() *Config{
	"single-pair": DefaultConfig,
	"bench-table": benchTable,
	"bench-noisy": func() *Config {
		cfg := benchTable()
		cfg.Seed = 1
		cfg.Noise = NoiseConfig{
			RPM:    1e-3,
			Mass:   1e-1,
			Radius: 1e-1,
			Tracks: dynamo.TracksDual,
			Drive:  dynamo.TrackNoisy,
		}
		return cfg
	},
	"six-pair-adaptive": func() *Config {
		cfg := benchRig()
		cfg.Control = ControlConfig{Mode: dynamo.RpmAdaptive, Dw: 0.01, StallThreshold: dynamo.DefaultStallThreshold}
		return cfg
	},
	"banded-soil": func() *Config {
		cfg := DefaultConfig()
		cfg.Pile.Length = 3
		cfg.Hammer.Mass = 120
		cfg.Soil.Resistance = dynamo.ResistanceBanded
		return cfg
	},
}

// GetPreset returns a fresh copy of the named preset, or nil.
func GetPreset(name string) *Config {
	build, ok := Presets[name]
	if !ok {
		return nil
	}
	return build()
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
