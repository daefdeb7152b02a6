package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/san-kum/tanksim/internal/signal"
	"github.com/san-kum/tanksim/internal/tanks"
	"gopkg.in/yaml.v3"
)

const (
	DefaultDuration = 30.0
	DefaultSamples  = 1000
	DefaultMaxStep  = 0.01
)

type Config struct {
	Model      string          `yaml:"model"`
	Integrator string          `yaml:"integrator"`
	Duration   float64         `yaml:"duration"`
	Samples    int             `yaml:"samples"`
	MaxStep    float64         `yaml:"max_step"`
	Adaptive   bool            `yaml:"adaptive"`
	Tolerance  float64         `yaml:"tolerance"`
	Hold       string          `yaml:"hold"`
	Policy     string          `yaml:"policy"`
	InitState  InitStateConfig `yaml:"init_state"`
	Input      InputConfig     `yaml:"input"`
	Params     ParamsConfig    `yaml:"params"`
}

type InitStateConfig struct {
	H1 float64 `yaml:"h1"`
	H2 float64 `yaml:"h2"`
}

// InputConfig describes the pump command. Kind is one of constant, step,
// ramp, pulse or csv; csv reads time,u rows from File and replaces the grid.
type InputConfig struct {
	Kind      string  `yaml:"kind"`
	Amplitude float64 `yaml:"amplitude"`
	Onset     float64 `yaml:"onset"`
	Slope     float64 `yaml:"slope"`
	Width     float64 `yaml:"width"`
	File      string  `yaml:"file,omitempty"`
}

type ParamsConfig struct {
	Kp     float64 `yaml:"kp"`
	Vp     float64 `yaml:"vp"`
	G      float64 `yaml:"g"`
	Dout1  float64 `yaml:"dout1"`
	Dout2  float64 `yaml:"dout2"`
	Dtank1 float64 `yaml:"dtank1"`
	Dtank2 float64 `yaml:"dtank2"`
	Hmax   float64 `yaml:"hmax"`
}

// DefaultConfig is the reference rig filling from empty under full pump.
func DefaultConfig() *Config {
	return &Config{
		Model:      "cascade",
		Integrator: "rk4",
		Duration:   DefaultDuration,
		Samples:    DefaultSamples,
		MaxStep:    DefaultMaxStep,
		Tolerance:  1e-6,
		Hold:       signal.ZeroOrderHold.String(),
		Policy:     tanks.ClampToZero.String(),
		Input:      InputConfig{Kind: "step", Amplitude: 1},
		Params:     ReferenceParams(),
	}
}

func ReferenceParams() ParamsConfig {
	return ParamsConfig{
		Kp:     tanks.ReferencePumpGain,
		Vp:     tanks.ReferencePumpVoltage,
		G:      tanks.ReferenceGravity,
		Dout1:  tanks.ReferenceOutletDiameter,
		Dout2:  tanks.ReferenceOutletDiameter,
		Dtank1: tanks.ReferenceTankDiameter,
		Dtank2: tanks.ReferenceTankDiameter,
		Hmax:   tanks.ReferenceMaxHeight,
	}
}

func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	cfg := DefaultConfig()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, err
	}
	if cfg.Input.File != "" && !filepath.IsAbs(cfg.Input.File) {
		cfg.Input.File = filepath.Join(filepath.Dir(path), cfg.Input.File)
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

func (c *Config) GetInitState() []float64 {
	return []float64{c.InitState.H1, c.InitState.H2}
}

// Parameters builds validated physical parameters from the params section.
func (c *Config) Parameters() (tanks.Parameters, error) {
	return tanks.NewParameters(
		tanks.WithPumpGain(c.Params.Kp),
		tanks.WithPumpVoltage(c.Params.Vp),
		tanks.WithGravity(c.Params.G),
		tanks.WithOutletDiameter(tanks.Tank1, c.Params.Dout1),
		tanks.WithOutletDiameter(tanks.Tank2, c.Params.Dout2),
		tanks.WithTankDiameter(tanks.Tank1, c.Params.Dtank1),
		tanks.WithTankDiameter(tanks.Tank2, c.Params.Dtank2),
		tanks.WithMaxHeight(c.Params.Hmax),
	)
}

// Signal builds the time grid and the pump command sampled on it.
func (c *Config) Signal() (signal.Grid, signal.Input, error) {
	if c.Input.Kind == "csv" {
		f, err := os.Open(c.Input.File)
		if err != nil {
			return nil, nil, fmt.Errorf("open input: %w", err)
		}
		defer f.Close()
		return signal.ReadCSV(f)
	}

	grid, err := signal.Linspace(0, c.Duration, c.Samples)
	if err != nil {
		return nil, nil, err
	}

	in := c.Input
	switch in.Kind {
	case "", "step":
		return grid, signal.Step(grid, in.Amplitude, in.Onset), nil
	case "constant":
		return grid, signal.Constant(grid, in.Amplitude), nil
	case "ramp":
		return grid, signal.Ramp(grid, in.Slope, in.Onset, in.Amplitude), nil
	case "pulse":
		return grid, signal.Pulse(grid, in.Amplitude, in.Onset, in.Width), nil
	default:
		return nil, nil, fmt.Errorf("unknown input kind: %s", in.Kind)
	}
}
