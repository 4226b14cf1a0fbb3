package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/san-kum/vibropile/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	p, err := cfg.Params()
	require.NoError(t, err)

	assert.Equal(t, 0.001, p.Dt)
	assert.Equal(t, 1.15, p.PileLength)
	assert.Equal(t, 40.0, p.Mass)
	assert.Len(t, p.Pairs, 1)
	assert.Equal(t, dynamo.RpmAdaptive, p.Control.Mode)
	assert.Equal(t, 0.25, p.Control.Step)
	assert.Equal(t, dynamo.ResistanceConstant, p.Resistance)
	assert.Equal(t, dynamo.TracksClean, p.Noise.Tracks)
	assert.False(t, p.Liftoff)
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.yaml")
	src := `
dt: 0.0005
seed: 9
pile:
  length: 2.5
hammer:
  mass: 80
  masses: [1, 2]
  radii: [0.01, 0.02]
soil:
  fi: 12000
  resistance: banded
  liftoff: true
control:
  mode: table
  times: [0, 5]
  speeds: [3, 6]
noise:
  rpm: 0.001
  tracks: dual
  drive: noisy
`
	require.NoError(t, os.WriteFile(path, []byte(src), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, 0.0005, cfg.Dt)
	assert.Equal(t, int64(9), cfg.Seed)
	assert.Equal(t, DefaultGammaCR, cfg.Soil.GammaCR, "unset fields keep their defaults")
	assert.Equal(t, DefaultPerimeter, cfg.Pile.Perimeter)

	p, err := cfg.Params()
	require.NoError(t, err)
	assert.Equal(t, dynamo.ResistanceBanded, p.Resistance)
	assert.True(t, p.Liftoff)
	assert.Equal(t, dynamo.RpmTable, p.Control.Mode)
	assert.Equal(t, []float64{3, 6}, p.Control.Speeds)
	assert.Equal(t, dynamo.TrackNoisy, p.DrivingTrack())
	assert.Equal(t, []dynamo.EccentricPair{{Mass: 1, Radius: 0.01}, {Mass: 2, Radius: 0.02}}, p.Pairs)
}

func TestLoadErrors(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(path, []byte("control:\n  mode: sometimes\n"), 0644))
	_, err = Load(path)
	assert.Error(t, err)
}

func TestSaveLoadRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bench.yaml")
	cfg := GetPreset("bench-noisy")
	require.NoError(t, Save(path, cfg))

	loaded, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestParamsMismatchedPairs(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Hammer.Radii = []float64{0.02, 0.01}

	_, err := cfg.Params()
	assert.ErrorIs(t, err, dynamo.ErrConfig)

	cfg.Hammer.Masses, cfg.Hammer.Radii = nil, nil
	_, err = cfg.Params()
	assert.ErrorIs(t, err, dynamo.ErrConfig)
}

func TestParamsInvalid(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
	}{
		{"zero dt", func(c *Config) { c.Dt = 0 }},
		{"negative length", func(c *Config) { c.Pile.Length = -1 }},
		{"no mass", func(c *Config) { c.Hammer.Mass = 0 }},
		{"zero dw", func(c *Config) { c.Control.Dw = 0 }},
		{"unset mode", func(c *Config) { c.Control.Mode = dynamo.RpmUnset }},
		{"table mismatch", func(c *Config) {
			c.Control = ControlConfig{Mode: dynamo.RpmTable, Times: []float64{0, 1}, Speeds: []float64{1}}
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(cfg)
			_, err := cfg.Params()
			assert.ErrorIs(t, err, dynamo.ErrConfig)
		})
	}
}

func TestGeometryDerivation(t *testing.T) {
	cfg := GetPreset("bench-table")
	geo := cfg.Geometry()

	assert.InDelta(t, 0.08, geo.Perimeter, 1e-12)
	assert.InDelta(t, 0.02*0.02-0.018*0.018, geo.Area, 1e-12)
	assert.InDelta(t, 1.15*1.2, geo.PileWeight, 1e-12)
	assert.InDelta(t, 37+1.15*1.2, geo.Mass, 1e-12)

	cfg.Pile.Perimeter = 0.5
	cfg.Hammer.Mass = 100
	geo = cfg.Geometry()
	assert.Equal(t, 0.5, geo.Perimeter, "explicit perimeter wins")
	assert.Equal(t, 100.0, geo.Mass, "explicit mass wins")
}

func TestSetAndApply(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Apply(map[string]float64{"dw": 0.5, "fi": 1000, "noise.rpm": 0.01, "seed": 3}))

	assert.Equal(t, 0.5, cfg.Control.Dw)
	assert.Equal(t, 1000.0, cfg.Soil.Fi)
	assert.Equal(t, 0.01, cfg.Noise.RPM)
	assert.Equal(t, int64(3), cfg.Seed)

	err := cfg.Set("warp", 1)
	assert.ErrorIs(t, err, dynamo.ErrConfig)
	assert.Contains(t, ParamNames(), "gamma_cr")
}

func TestCloneIsDeep(t *testing.T) {
	cfg := GetPreset("bench-table")
	clone := cfg.Clone()

	clone.Hammer.Masses[0] = 99
	clone.Control.Speeds[1] = 99
	clone.Pile.Section.Wall = 1
	clone.Measured.Depths[0] = 99

	assert.NotEqual(t, 99.0, cfg.Hammer.Masses[0])
	assert.NotEqual(t, 99.0, cfg.Control.Speeds[1])
	assert.NotEqual(t, 1.0, cfg.Pile.Section.Wall)
	assert.NotEqual(t, 99.0, cfg.Measured.Depths[0])
}

func TestGetPreset(t *testing.T) {
	cfg := GetPreset("bench-table")
	require.NotNil(t, cfg)
	assert.Len(t, cfg.Hammer.Masses, 6)

	cfg.Hammer.Masses[0] = 0
	again := GetPreset("bench-table")
	assert.NotZero(t, again.Hammer.Masses[0], "presets must not share state")
}

func TestGetPreset_NotFound(t *testing.T) {
	assert.Nil(t, GetPreset("nonexistent"))
}

func TestListPresetsAreValid(t *testing.T) {
	names := ListPresets()
	assert.Equal(t, []string{"banded-soil", "bench-noisy", "bench-table", "single-pair", "six-pair-adaptive"}, names)

	for _, name := range names {
		t.Run(name, func(t *testing.T) {
			_, err := GetPreset(name).Params()
			assert.NoError(t, err)
		})
	}
}
