package config

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"

	"github.com/san-kum/vibropile/internal/dynamo"
	"github.com/san-kum/vibropile/internal/physics"
)

const (
	DefaultDt         = 0.001
	DefaultPileLength = 1.15
	DefaultPerimeter  = 0.16
	DefaultArea       = 4e-4
	DefaultMass       = 40.0
	DefaultGammaCR    = 1.1
	DefaultGammaCF    = 1.0
	DefaultFi         = 17000.0
	DefaultDw         = 0.25
)

type Config struct {
	Gravity  float64         `yaml:"gravity"`
	Dt       float64         `yaml:"dt"`
	Seed     int64           `yaml:"seed"`
	Pile     PileConfig      `yaml:"pile"`
	Hammer   HammerConfig    `yaml:"hammer"`
	Soil     SoilConfig      `yaml:"soil"`
	Control  ControlConfig   `yaml:"control"`
	Noise    NoiseConfig     `yaml:"noise"`
	Measured *MeasuredConfig `yaml:"measured,omitempty"`
}

// PileConfig describes the pile. Perimeter and Area win over values derived
// from Section.
type PileConfig struct {
	Length    float64        `yaml:"length"`
	Perimeter float64        `yaml:"perimeter"`
	Area      float64        `yaml:"area"`
	Section   *SectionConfig `yaml:"section,omitempty"`
}

type SectionConfig struct {
	Width          float64 `yaml:"width"`
	Depth          float64 `yaml:"depth"`
	Wall           float64 `yaml:"wall"`
	WeightPerMeter float64 `yaml:"weight_per_meter"`
}

// HammerConfig describes the vibratory hammer. Mass is the combined mass of
// hammer and pile; when it is zero it is derived from PlungerMass and the
// pile section.
type HammerConfig struct {
	Mass        float64   `yaml:"mass"`
	PlungerMass float64   `yaml:"plunger_mass"`
	Masses      []float64 `yaml:"masses"`
	Radii       []float64 `yaml:"radii"`
}

type SoilConfig struct {
	GammaCR    float64               `yaml:"gamma_cr"`
	GammaCF    float64               `yaml:"gamma_cf"`
	Fi         float64               `yaml:"fi"`
	Resistance dynamo.ResistanceKind `yaml:"resistance"`
	Liftoff    bool                  `yaml:"liftoff,omitempty"`
}

type ControlConfig struct {
	Mode           dynamo.RpmMode `yaml:"mode"`
	Dw             float64        `yaml:"dw"`
	StallThreshold float64        `yaml:"stall_threshold"`
	Times          []float64      `yaml:"times,omitempty"`
	Speeds         []float64      `yaml:"speeds,omitempty"`
}

type NoiseConfig struct {
	RPM     float64          `yaml:"rpm"`
	Mass    float64          `yaml:"mass"`
	Radius  float64          `yaml:"radius"`
	PerStep bool             `yaml:"per_step"`
	Tracks  dynamo.TrackMode `yaml:"tracks"`
	Drive   dynamo.Track     `yaml:"drive"`
}

// MeasuredConfig is a field record of depth against time, used to judge a run.
type MeasuredConfig struct {
	Times  []float64 `yaml:"times"`
	Depths []float64 `yaml:"depths"`
}

func DefaultConfig() *Config {
	return &Config{
		Gravity: dynamo.DefaultGravity,
		Dt:      DefaultDt,
		Pile: PileConfig{
			Length:    DefaultPileLength,
			Perimeter: DefaultPerimeter,
			Area:      DefaultArea,
		},
		Hammer: HammerConfig{
			Mass:   DefaultMass,
			Masses: []float64{2.75758},
			Radii:  []float64{0.020070},
		},
		Soil: SoilConfig{
			GammaCR:    DefaultGammaCR,
			GammaCF:    DefaultGammaCF,
			Fi:         DefaultFi,
			Resistance: dynamo.ResistanceConstant,
		},
		Control: ControlConfig{
			Mode:           dynamo.RpmAdaptive,
			Dw:             DefaultDw,
			StallThreshold: dynamo.DefaultStallThreshold,
		},
		Noise: NoiseConfig{
			Tracks: dynamo.TracksClean,
			Drive:  dynamo.TrackClean,
		},
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return cfg, nil
}

func Save(path string, cfg *Config) error {
	data, err := yaml.Marshal(cfg)
	if err != nil {
		return err
	}
	return os.WriteFile(path, data, 0644)
}

// Clone returns a deep copy of c.
func (c *Config) Clone() *Config {
	out := *c
	if c.Pile.Section != nil {
		s := *c.Pile.Section
		out.Pile.Section = &s
	}
	out.Hammer.Masses = append([]float64(nil), c.Hammer.Masses...)
	out.Hammer.Radii = append([]float64(nil), c.Hammer.Radii...)
	out.Control.Times = append([]float64(nil), c.Control.Times...)
	out.Control.Speeds = append([]float64(nil), c.Control.Speeds...)
	if c.Measured != nil {
		out.Measured = &MeasuredConfig{
			Times:  append([]float64(nil), c.Measured.Times...),
			Depths: append([]float64(nil), c.Measured.Depths...),
		}
	}
	return &out
}

// Geometry is the pile geometry after derivation.
type Geometry struct {
	Perimeter  float64
	Area       float64
	PileWeight float64 // kg, zero without a section
	Mass       float64 // kg, hammer + pile
}

// Geometry resolves perimeter, area and driven mass.
func (c *Config) Geometry() Geometry {
	g := Geometry{
		Perimeter: c.Pile.Perimeter,
		Area:      c.Pile.Area,
		Mass:      c.Hammer.Mass,
	}
	if s := c.Pile.Section; s != nil {
		sec := physics.Section{Width: s.Width, Depth: s.Depth, Wall: s.Wall, WeightPerMeter: s.WeightPerMeter}
		if g.Perimeter == 0 {
			g.Perimeter = sec.Perimeter()
		}
		if g.Area == 0 {
			g.Area = sec.Area()
		}
		g.PileWeight = sec.PileWeight(c.Pile.Length)
	}
	if g.Mass == 0 && c.Hammer.PlungerMass > 0 {
		g.Mass = c.Hammer.PlungerMass + g.PileWeight
	}
	return g
}

// Params converts c into a validated parameter set.
func (c *Config) Params() (dynamo.ParameterSet, error) {
	pairs, err := dynamo.PairsFromLists(c.Hammer.Masses, c.Hammer.Radii)
	if err != nil {
		return dynamo.ParameterSet{}, err
	}
	geo := c.Geometry()

	p := dynamo.ParameterSet{
		Gravity:    c.Gravity,
		Dt:         c.Dt,
		PileLength: c.Pile.Length,
		Perimeter:  geo.Perimeter,
		Area:       geo.Area,
		Mass:       geo.Mass,
		GammaCR:    c.Soil.GammaCR,
		GammaCF:    c.Soil.GammaCF,
		Fi:         c.Soil.Fi,
		Pairs:      pairs,
		Resistance: c.Soil.Resistance,
		Liftoff:    c.Soil.Liftoff,
		Seed:       c.Seed,
		Noise: dynamo.Noise{
			RPM:     c.Noise.RPM,
			Mass:    c.Noise.Mass,
			Radius:  c.Noise.Radius,
			PerStep: c.Noise.PerStep,
			Tracks:  c.Noise.Tracks,
			Drive:   c.Noise.Drive,
		},
	}

	switch c.Control.Mode {
	case dynamo.RpmAdaptive:
		p.Control = dynamo.AdaptiveControl(c.Control.Dw)
		if c.Control.StallThreshold > 0 {
			p.Control.StallThreshold = c.Control.StallThreshold
		}
	case dynamo.RpmTable:
		p.Control = dynamo.TableControl(
			append([]float64(nil), c.Control.Times...),
			append([]float64(nil), c.Control.Speeds...))
	default:
		p.Control = dynamo.RpmControl{Mode: c.Control.Mode}
	}

	if err := p.Validate(); err != nil {
		return dynamo.ParameterSet{}, err
	}
	return p, nil
}

var setters = map[string]func(c *Config, v float64){
	"gravity":         func(c *Config, v float64) { c.Gravity = v },
	"dt":              func(c *Config, v float64) { c.Dt = v },
	"seed":            func(c *Config, v float64) { c.Seed = int64(v) },
	"length":          func(c *Config, v float64) { c.Pile.Length = v },
	"perimeter":       func(c *Config, v float64) { c.Pile.Perimeter = v },
	"area":            func(c *Config, v float64) { c.Pile.Area = v },
	"mass":            func(c *Config, v float64) { c.Hammer.Mass = v },
	"plunger_mass":    func(c *Config, v float64) { c.Hammer.PlungerMass = v },
	"gamma_cr":        func(c *Config, v float64) { c.Soil.GammaCR = v },
	"gamma_cf":        func(c *Config, v float64) { c.Soil.GammaCF = v },
	"fi":              func(c *Config, v float64) { c.Soil.Fi = v },
	"dw":              func(c *Config, v float64) { c.Control.Dw = v },
	"stall_threshold": func(c *Config, v float64) { c.Control.StallThreshold = v },
	"noise.rpm":       func(c *Config, v float64) { c.Noise.RPM = v },
	"noise.mass":      func(c *Config, v float64) { c.Noise.Mass = v },
	"noise.radius":    func(c *Config, v float64) { c.Noise.Radius = v },
}

// Set overrides one scalar parameter by name.
func (c *Config) Set(name string, value float64) error {
	set, ok := setters[name]
	if !ok {
		return fmt.Errorf("%w: unknown parameter %q (available: %v)", dynamo.ErrConfig, name, ParamNames())
	}
	set(c, value)
	return nil
}

// Apply sets every override, in name order.
func (c *Config) Apply(overrides map[string]float64) error {
	names := make([]string, 0, len(overrides))
	for name := range overrides {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		if err := c.Set(name, overrides[name]); err != nil {
			return err
		}
	}
	return nil
}

// ParamNames lists the parameters accepted by Set.
func ParamNames() []string {
	names := make([]string, 0, len(setters))
	for name := range setters {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
