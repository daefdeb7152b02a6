package analysis

import (
	"fmt"

	"github.com/san-kum/tanksim/internal/tanks"
)

// OperatingPoint is the equilibrium of the cascade under a constant command.
type OperatingPoint struct {
	Command float64
	H1, H2  float64
	// Flow is the throughput Kp·Vp·u at equilibrium.
	Flow float64
	// Saturated marks a point above the clamp height sqrt(2·Hmax·g). The
	// clamped model's discharge stops growing there, so it never settles
	// and H1, H2 are only the unclamped formula's values.
	Saturated bool
}

// SteadyState returns the equilibrium heights for a constant pump command
// u >= 0. Heights beyond MaxHeight are reported as computed; callers decide
// whether that is an overflow.
func SteadyState(p tanks.Parameters, u float64) (OperatingPoint, error) {
	if err := p.Validate(); err != nil {
		return OperatingPoint{}, err
	}
	if u < 0 {
		return OperatingPoint{}, fmt.Errorf("steady state needs a non-negative command, got %g", u)
	}

	q := p.Inflow(u)
	a1 := p.OutletArea(tanks.Tank1)
	a2 := p.OutletArea(tanks.Tank2)

	h1 := (q / a1) * (q / a1) / (2 * p.Gravity)
	h2 := (a1 / a2) * (a1 / a2) * h1
	bound := tanks.NewModel(p, tanks.ClampToZero).HeightBound()
	return OperatingPoint{
		Command:   u,
		H1:        h1,
		H2:        h2,
		Flow:      q,
		Saturated: h1 > bound || h2 > bound,
	}, nil
}
