package config

import "sort"

// Presets are complete scenarios; every field not set here takes its
// DefaultConfig value through GetPreset.
var Presets = map[string]*Config{
	// the rig script: fill from empty under full pump for 30 s
	"reference": {},
	"reference-decoupled": {
		Model: "reference-tank1",
	},
	"drain": {
		Duration:  60,
		InitState: InitStateConfig{H1: 20, H2: 10},
		Input:     InputConfig{Kind: "constant", Amplitude: 0},
	},
	"half-pump": {
		Input: InputConfig{Kind: "step", Amplitude: 0.5},
	},
	"delayed-step": {
		Duration: 40,
		Input:    InputConfig{Kind: "step", Amplitude: 1, Onset: 10},
	},
	"ramp": {
		Duration: 60,
		Input:    InputConfig{Kind: "ramp", Amplitude: 2, Slope: 0.05},
	},
	"pulse": {
		Duration: 40,
		Input:    InputConfig{Kind: "pulse", Amplitude: 2, Onset: 2, Width: 5},
	},
	"overflow": {
		Duration: 120,
		Samples:  2000,
		Input:    InputConfig{Kind: "step", Amplitude: 5},
	},
	"adaptive": {
		Integrator: "rk45",
		Adaptive:   true,
		MaxStep:    0.5,
		Tolerance:  1e-8,
	},
}

// GetPreset returns a fresh copy of the named preset merged over the
// defaults, or nil.
func GetPreset(name string) *Config {
	p, ok := Presets[name]
	if !ok {
		return nil
	}

	cfg := DefaultConfig()
	if p.Model != "" {
		cfg.Model = p.Model
	}
	if p.Integrator != "" {
		cfg.Integrator = p.Integrator
	}
	if p.Duration > 0 {
		cfg.Duration = p.Duration
	}
	if p.Samples > 0 {
		cfg.Samples = p.Samples
	}
	if p.MaxStep > 0 {
		cfg.MaxStep = p.MaxStep
	}
	if p.Tolerance > 0 {
		cfg.Tolerance = p.Tolerance
	}
	cfg.Adaptive = p.Adaptive
	cfg.InitState = p.InitState
	if p.Input.Kind != "" {
		cfg.Input = p.Input
	}
	return cfg
}

func ListPresets() []string {
	names := make([]string, 0, len(Presets))
	for name := range Presets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
