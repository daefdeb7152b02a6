package analysis

import (
	"fmt"
	"math"

	"github.com/san-kum/tanksim/internal/tanks"
	"gonum.org/v1/gonum/floats"
)

// Sweep returns the operating points for steps commands evenly spaced on
// [uMin, uMax]. Points whose heights exceed MaxHeight are flagged.
func Sweep(p tanks.Parameters, uMin, uMax float64, steps int) ([]SweepPoint, error) {
	if steps < 2 {
		return nil, fmt.Errorf("sweep needs at least 2 steps, got %d", steps)
	}
	if uMin < 0 || uMax <= uMin {
		return nil, fmt.Errorf("invalid command range [%g, %g]", uMin, uMax)
	}

	commands := floats.Span(make([]float64, steps), uMin, uMax)
	points := make([]SweepPoint, 0, steps)
	for _, u := range commands {
		op, err := SteadyState(p, u)
		if err != nil {
			return nil, err
		}
		points = append(points, SweepPoint{
			OperatingPoint: op,
			Overflow:       op.H1 > p.MaxHeight || op.H2 > p.MaxHeight,
		})
	}
	return points, nil
}

type SweepPoint struct {
	OperatingPoint
	Overflow bool
}

// MaxCommand is the largest command whose equilibrium keeps both tanks at
// or below MaxHeight and within the clamp height.
func MaxCommand(p tanks.Parameters) float64 {
	bound := tanks.NewModel(p, tanks.ClampToZero).HeightBound()
	return commandFor(p, math.Min(p.MaxHeight, bound))
}

// SaturationCommand is the command above which the clamped model has no
// equilibrium: one tank's steady height would pass sqrt(2·Hmax·g).
func SaturationCommand(p tanks.Parameters) float64 {
	return commandFor(p, tanks.NewModel(p, tanks.ClampToZero).HeightBound())
}

// commandFor is the command whose equilibrium puts the higher tank at limit.
func commandFor(p tanks.Parameters, limit float64) float64 {
	if p.PumpGain == 0 || p.PumpVoltage == 0 {
		return 0
	}
	a1 := p.OutletArea(tanks.Tank1)
	a2 := p.OutletArea(tanks.Tank2)

	// h1 ∝ u², so the binding tank fixes u directly
	h1Limit := limit
	if r := (a1 / a2) * (a1 / a2); r > 1 {
		h1Limit = limit / r
	}
	return a1 * math.Sqrt(2*p.Gravity*h1Limit) / (p.PumpGain * p.PumpVoltage)
}
