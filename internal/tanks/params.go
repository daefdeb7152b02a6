package tanks

import (
	"fmt"
	"math"
)

// Tank identifies one of the two tanks.
type Tank int

const (
	Tank1 Tank = 1
	Tank2 Tank = 2
)

func (t Tank) index() int { return int(t) - 1 }

func (t Tank) valid() bool { return t == Tank1 || t == Tank2 }

// Reference rig constants (cm, s, V).
const (
	ReferencePumpGain       = 3.3
	ReferencePumpVoltage    = 2.7
	ReferenceGravity        = 981.0
	ReferenceOutletDiameter = 0.47625
	ReferenceTankDiameter   = 4.445
	ReferenceMaxHeight      = 30.0
)

// ConfigurationError reports a physical parameter outside its valid range.
type ConfigurationError struct {
	Param string
	Value float64
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("tanks: parameter %s must be positive, got %g", e.Param, e.Value)
}

// Parameters are the physical constants of the rig. Build them with
// NewParameters; the value is copied into every Model that uses it.
type Parameters struct {
	PumpGain       float64
	PumpVoltage    float64
	Gravity        float64
	OutletDiameter [2]float64
	TankDiameter   [2]float64
	// MaxHeight bounds the height fed to the discharge law.
	MaxHeight float64
}

type Option func(*Parameters) error

// Reference returns the constants of the reference rig.
func Reference() Parameters {
	return Parameters{
		PumpGain:       ReferencePumpGain,
		PumpVoltage:    ReferencePumpVoltage,
		Gravity:        ReferenceGravity,
		OutletDiameter: [2]float64{ReferenceOutletDiameter, ReferenceOutletDiameter},
		TankDiameter:   [2]float64{ReferenceTankDiameter, ReferenceTankDiameter},
		MaxHeight:      ReferenceMaxHeight,
	}
}

// NewParameters applies opts on top of Reference and validates the result.
func NewParameters(opts ...Option) (Parameters, error) {
	p := Reference()
	for _, opt := range opts {
		if err := opt(&p); err != nil {
			return Parameters{}, err
		}
	}
	if err := p.Validate(); err != nil {
		return Parameters{}, err
	}
	return p, nil
}

func WithPumpGain(kp float64) Option {
	return func(p *Parameters) error { p.PumpGain = kp; return nil }
}

func WithPumpVoltage(vp float64) Option {
	return func(p *Parameters) error { p.PumpVoltage = vp; return nil }
}

func WithGravity(g float64) Option {
	return func(p *Parameters) error { p.Gravity = g; return nil }
}

func WithMaxHeight(h float64) Option {
	return func(p *Parameters) error { p.MaxHeight = h; return nil }
}

func WithOutletDiameter(tank Tank, d float64) Option {
	return func(p *Parameters) error {
		if !tank.valid() {
			return fmt.Errorf("tanks: unknown tank %d", tank)
		}
		p.OutletDiameter[tank.index()] = d
		return nil
	}
}

func WithTankDiameter(tank Tank, d float64) Option {
	return func(p *Parameters) error {
		if !tank.valid() {
			return fmt.Errorf("tanks: unknown tank %d", tank)
		}
		p.TankDiameter[tank.index()] = d
		return nil
	}
}

// Validate returns a *ConfigurationError for the first parameter out of range.
// Pump gain and voltage may be zero (no inflow); everything else must be positive.
func (p Parameters) Validate() error {
	checks := []struct {
		name     string
		value    float64
		zeroOkay bool
	}{
		{"kp", p.PumpGain, true},
		{"vp", p.PumpVoltage, true},
		{"g", p.Gravity, false},
		{"dout1", p.OutletDiameter[0], false},
		{"dout2", p.OutletDiameter[1], false},
		{"dtank1", p.TankDiameter[0], false},
		{"dtank2", p.TankDiameter[1], false},
		{"hmax", p.MaxHeight, false},
	}
	for _, c := range checks {
		if math.IsNaN(c.value) || math.IsInf(c.value, 0) || c.value < 0 || (c.value == 0 && !c.zeroOkay) {
			return &ConfigurationError{Param: c.name, Value: c.value}
		}
	}
	return nil
}

// OutletArea is π·D²/4 of the tank's outlet.
func (p Parameters) OutletArea(tank Tank) float64 {
	d := p.OutletDiameter[tank.index()]
	return math.Pi * d * d / 4
}

// TankArea is π·(D/2)²/4, the cross-section formula of the reference rig sheet.
func (p Parameters) TankArea(tank Tank) float64 {
	r := p.TankDiameter[tank.index()] / 2
	return math.Pi * r * r / 4
}

// Inflow is the pump flow Kp·Vp·u for a pump command u.
func (p Parameters) Inflow(u float64) float64 {
	return p.PumpGain * p.PumpVoltage * u
}

// Params lists the parameters under the names used by config overrides.
func (p Parameters) Params() map[string]float64 {
	return map[string]float64{
		"kp":     p.PumpGain,
		"vp":     p.PumpVoltage,
		"g":      p.Gravity,
		"dout1":  p.OutletDiameter[0],
		"dout2":  p.OutletDiameter[1],
		"dtank1": p.TankDiameter[0],
		"dtank2": p.TankDiameter[1],
		"hmax":   p.MaxHeight,
	}
}
