// Package signal builds the time grids and sampled input signals a
// simulation is driven with, and reapplies a sampled input in continuous time.
package signal

import (
	"math"
	"sort"

	"github.com/san-kum/tanksim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Grid is a strictly increasing sequence of sample times.
type Grid []float64

// Linspace returns n evenly spaced samples over [start, stop], both ends included.
func Linspace(start, stop float64, n int) (Grid, error) {
	switch {
	case n < 1:
		return nil, dynamo.Invalidf("grid needs at least one point, got %d", n)
	case n == 1:
		return Grid{start}, nil
	case !(stop > start):
		return nil, dynamo.Invalidf("grid end %g must be after start %g", stop, start)
	}
	g := Grid(floats.Span(make([]float64, n), start, stop))
	g[n-1] = stop
	return g, nil
}

// Validate reports a grid that is empty, non-finite or not strictly increasing.
func (g Grid) Validate() error {
	if len(g) == 0 {
		return dynamo.Invalidf("empty time grid")
	}
	for i, t := range g {
		if math.IsNaN(t) || math.IsInf(t, 0) {
			return dynamo.Invalidf("time grid sample %d is not finite", i)
		}
		if i > 0 && t <= g[i-1] {
			return dynamo.Invalidf("time grid not strictly increasing at index %d (%g after %g)", i, t, g[i-1])
		}
	}
	return nil
}

func (g Grid) Start() float64 { return g[0] }
func (g Grid) End() float64   { return g[len(g)-1] }

// Duration is End - Start.
func (g Grid) Duration() float64 {
	if len(g) == 0 {
		return 0
	}
	return g.End() - g.Start()
}

// Index returns the interval i with g[i] <= t < g[i+1], clamped to the grid.
func (g Grid) Index(t float64) int {
	i := sort.SearchFloat64s(g, t)
	if i < len(g) && g[i] == t {
		return i
	}
	if i == 0 {
		return 0
	}
	return i - 1
}

// Input is a pump command sampled on a Grid, one value per grid point.
type Input []float64

// CheckAligned returns an *dynamo.InvalidInputError unless u has one sample per grid point.
func CheckAligned(g Grid, u Input) error {
	if len(g) != len(u) {
		return dynamo.Invalidf("time grid has %d points but input signal has %d", len(g), len(u))
	}
	return nil
}

// Constant holds v over the whole grid.
func Constant(g Grid, v float64) Input {
	u := make(Input, len(g))
	for i := range u {
		u[i] = v
	}
	return u
}

// Step is 0 before onset and amplitude from onset on.
func Step(g Grid, amplitude, onset float64) Input {
	u := make(Input, len(g))
	for i, t := range g {
		if t >= onset {
			u[i] = amplitude
		}
	}
	return u
}

// Ramp rises with slope from start and saturates at limit.
func Ramp(g Grid, slope, start, limit float64) Input {
	u := make(Input, len(g))
	for i, t := range g {
		if t > start {
			u[i] = math.Min(slope*(t-start), limit)
		}
	}
	return u
}

// Pulse is amplitude on [start, start+width) and 0 elsewhere.
func Pulse(g Grid, amplitude, start, width float64) Input {
	u := make(Input, len(g))
	for i, t := range g {
		if t >= start && t < start+width {
			u[i] = amplitude
		}
	}
	return u
}
