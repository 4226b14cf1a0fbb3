package automation

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"github.com/san-kum/vibropile/internal/config"
	"github.com/san-kum/vibropile/internal/dynamo"
	"github.com/san-kum/vibropile/internal/export"
	"github.com/san-kum/vibropile/internal/metrics"
	"github.com/san-kum/vibropile/internal/sim"
)

// Scenario defines a scripted sequence of driving runs
type Scenario struct {
	Name            string         `yaml:"name"`
	Description     string         `yaml:"description"`
	ContinueOnError bool           `yaml:"continue_on_error"`
	Steps           []ScenarioStep `yaml:"steps"`

	// baseDir resolves relative config and export paths
	baseDir string
}

// ScenarioStep is a single run. Exactly one of Preset and Config names the
// starting configuration; Params are applied on top of it.
type ScenarioStep struct {
	Name    string             `yaml:"name"`
	Preset  string             `yaml:"preset"`
	Config  string             `yaml:"config"`
	Seed    *int64             `yaml:"seed"`
	Params  map[string]float64 `yaml:"params"`
	Exports []string           `yaml:"exports"`
}

// StepResult is the outcome of one step. Trace is nil when the run failed
// before producing one.
type StepResult struct {
	Name    string
	Trace   *dynamo.Trace
	Exports []string
	Err     error
}

// LoadScenario loads a scenario from a YAML file
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var scenario Scenario
	if err := yaml.Unmarshal(data, &scenario); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	scenario.baseDir = filepath.Dir(path)

	return &scenario, scenario.Validate()
}

func (s *Scenario) Validate() error {
	if len(s.Steps) == 0 {
		return fmt.Errorf("%w: scenario %q has no steps", dynamo.ErrConfig, s.Name)
	}
	for i, step := range s.Steps {
		if (step.Preset == "") == (step.Config == "") {
			return fmt.Errorf("%w: step %d: set exactly one of preset and config", dynamo.ErrConfig, i+1)
		}
		for _, out := range step.Exports {
			if _, err := export.FormatOf(out); err != nil {
				return fmt.Errorf("step %d: %w", i+1, err)
			}
		}
	}
	return nil
}

func (s *Scenario) resolve(path string) string {
	if filepath.IsAbs(path) || s.baseDir == "" {
		return path
	}
	return filepath.Join(s.baseDir, path)
}

func (s *Scenario) stepConfig(step ScenarioStep) (*config.Config, error) {
	var cfg *config.Config
	if step.Preset != "" {
		cfg = config.GetPreset(step.Preset)
		if cfg == nil {
			return nil, fmt.Errorf("%w: unknown preset %q (available: %v)", dynamo.ErrConfig, step.Preset, config.ListPresets())
		}
	} else {
		var err error
		if cfg, err = config.Load(s.resolve(step.Config)); err != nil {
			return nil, err
		}
	}
	if step.Seed != nil {
		cfg.Seed = *step.Seed
	}
	if err := cfg.Apply(step.Params); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (step ScenarioStep) label(i int) string {
	switch {
	case step.Name != "":
		return step.Name
	case step.Preset != "":
		return step.Preset
	default:
		return fmt.Sprintf("step-%d", i+1)
	}
}

// RunScenario executes all steps in order. Unless the scenario continues on
// error, the first failing step stops the sequence. Cancellation always stops it.
func RunScenario(ctx context.Context, scenario *Scenario, log *zap.Logger) ([]StepResult, error) {
	if log == nil {
		log = zap.NewNop()
	}
	results := make([]StepResult, 0, len(scenario.Steps))

	for i, step := range scenario.Steps {
		res := scenario.runStep(ctx, i, step, log)
		results = append(results, res)
		if res.Err == nil {
			continue
		}
		if errors.Is(res.Err, dynamo.ErrCanceled) || !scenario.ContinueOnError {
			return results, fmt.Errorf("step %d (%s): %w", i+1, res.Name, res.Err)
		}
		log.Warn("step failed, continuing", zap.Int("step", i+1), zap.String("name", res.Name), zap.Error(res.Err))
	}

	return results, nil
}

func (s *Scenario) runStep(ctx context.Context, i int, step ScenarioStep, log *zap.Logger) StepResult {
	res := StepResult{Name: step.label(i)}
	log = log.With(zap.String("scenario", s.Name), zap.String("step", res.Name))
	log.Info("running step", zap.Int("index", i+1), zap.Int("of", len(s.Steps)))

	cfg, err := s.stepConfig(step)
	if err != nil {
		res.Err = err
		return res
	}
	p, err := cfg.Params()
	if err != nil {
		res.Err = err
		return res
	}

	engine := sim.New(sim.WithLogger(log), sim.WithMetrics(metrics.Defaults(p.PileLength)...))
	tr, err := engine.Run(ctx, p)
	res.Trace = tr
	if err != nil {
		res.Err = err
		return res
	}

	for _, out := range step.Exports {
		path := s.resolve(out)
		if err := export.WriteFile(path, tr, export.Options{Label: res.Name}); err != nil {
			res.Err = err
			return res
		}
		res.Exports = append(res.Exports, path)
		log.Debug("exported", zap.String("path", path))
	}
	return res
}
