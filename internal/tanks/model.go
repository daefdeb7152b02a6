package tanks

import (
	"fmt"
	"math"
	"strings"
)

// RadicandPolicy decides what happens when 2·g·h would be negative.
type RadicandPolicy int

const (
	// ClampToZero treats a negative radicand as zero: an empty tank has no
	// outflow and nothing flows back through the outlet.
	ClampToZero RadicandPolicy = iota
	// Strict fails with a *DomainError.
	Strict
)

func (p RadicandPolicy) String() string {
	switch p {
	case ClampToZero:
		return "clamp"
	case Strict:
		return "strict"
	default:
		return fmt.Sprintf("policy(%d)", int(p))
	}
}

func ParsePolicy(s string) (RadicandPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "clamp", "clamp-to-zero":
		return ClampToZero, nil
	case "strict":
		return Strict, nil
	default:
		return 0, fmt.Errorf("unknown radicand policy: %s", s)
	}
}

// DomainError reports a negative square-root argument under the Strict policy.
type DomainError struct {
	Tank Tank
	// Height is the height handed to the model, before clamping. For the
	// aliased tank 2 inflow of ReferenceRates it is tank 1's rate.
	Height float64
	Time   float64
}

func (e *DomainError) Error() string {
	return fmt.Sprintf("tanks: negative radicand in tank %d discharge (height %g at t=%g)", e.Tank, e.Height, e.Time)
}

// Model evaluates the cascade rates for one set of parameters.
type Model struct {
	params Parameters
	policy RadicandPolicy

	inflowGain float64
	aout       [2]float64
	at         [2]float64
	bound      float64
}

func NewModel(p Parameters, policy RadicandPolicy) *Model {
	return &Model{
		params:     p,
		policy:     policy,
		inflowGain: p.PumpGain * p.PumpVoltage,
		aout:       [2]float64{p.OutletArea(Tank1), p.OutletArea(Tank2)},
		at:         [2]float64{p.TankArea(Tank1), p.TankArea(Tank2)},
		bound:      math.Sqrt(2 * p.MaxHeight * p.Gravity),
	}
}

func (m *Model) Params() Parameters     { return m.params }
func (m *Model) Policy() RadicandPolicy { return m.policy }

// HeightBound is sqrt(2·Hmax·g), the magnitude heights are clamped to.
func (m *Model) HeightBound() float64 { return m.bound }

func (m *Model) TankArea(tank Tank) float64   { return m.at[tank.index()] }
func (m *Model) OutletArea(tank Tank) float64 { return m.aout[tank.index()] }

// ClampHeight limits h to [-bound, bound].
func ClampHeight(h, bound float64) float64 {
	return math.Max(-bound, math.Min(bound, h))
}

// Outflow is the discharge A_out·sqrt(2·g·h) of a tank at height h.
func (m *Model) Outflow(tank Tank, h, t float64) (float64, error) {
	clampedHeight := ClampHeight(h, m.bound)
	root, err := m.root(tank, clampedHeight, h, t)
	if err != nil {
		return 0, err
	}
	return m.aout[tank.index()] * root, nil
}

// root is sqrt(2·g·v) under the model's radicand policy; raw is the
// unclamped value reported on failure.
func (m *Model) root(tank Tank, v, raw, t float64) (float64, error) {
	radicand := 2 * m.params.Gravity * v
	if radicand < 0 {
		if m.policy == Strict {
			return 0, &DomainError{Tank: tank, Height: raw, Time: t}
		}
		return 0, nil
	}
	return math.Sqrt(radicand), nil
}

// Rates returns (dh1/dt, dh2/dt) at heights h1, h2 under pump command u.
// Heights are clamped before they reach the discharge law; the rates
// themselves are never clamped.
func (m *Model) Rates(h1, h2, u, t float64) (float64, float64, error) {
	q1, err := m.Outflow(Tank1, h1, t)
	if err != nil {
		return 0, 0, err
	}
	q2, err := m.Outflow(Tank2, h2, t)
	if err != nil {
		return 0, 0, err
	}

	dh1 := (m.inflowGain*u - q1) / m.at[0]
	dh2 := (q1 - q2) / m.at[1]
	return dh1, dh2, nil
}

// ReferenceRates reproduces the rig script bit for bit: the pump runs at
// Kp·Vp whatever the command, and tank 2's inflow is computed from
// sqrt(2·g·dh1/dt) (tank 1's rate, not its height).
func (m *Model) ReferenceRates(h1, h2, t float64) (float64, float64, error) {
	q1, err := m.Outflow(Tank1, h1, t)
	if err != nil {
		return 0, 0, err
	}
	dh1 := (m.inflowGain - q1) / m.at[0]

	aliased, err := m.root(Tank1, dh1, dh1, t)
	if err != nil {
		return 0, 0, err
	}
	q2, err := m.Outflow(Tank2, h2, t)
	if err != nil {
		return 0, 0, err
	}
	dh2 := (m.aout[0]*aliased - q2) / m.at[1]
	return dh1, dh2, nil
}

// Volume is the liquid stored in both tanks.
func (m *Model) Volume(h1, h2 float64) float64 {
	return m.at[0]*h1 + m.at[1]*h2
}
