package signal

import (
	"fmt"
	"strings"
)

// Hold selects how a sampled input is extended between grid points.
type Hold int

const (
	// ZeroOrderHold keeps u[i] constant on [t_i, t_{i+1}).
	ZeroOrderHold Hold = iota
	// Linear interpolates between u[i] and u[i+1].
	Linear
)

func (h Hold) String() string {
	switch h {
	case ZeroOrderHold:
		return "zoh"
	case Linear:
		return "linear"
	default:
		return fmt.Sprintf("hold(%d)", int(h))
	}
}

// ParseHold accepts "zoh" (or "zero-order") and "linear" (or "foh").
func ParseHold(s string) (Hold, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "zoh", "zero-order":
		return ZeroOrderHold, nil
	case "linear", "foh":
		return Linear, nil
	default:
		return 0, fmt.Errorf("unknown input hold: %s", s)
	}
}

// Within evaluates u at time t inside interval i, [g[i], g[i+1]].
// Callers integrating interval i use it so that stage evaluations at the
// right edge still see the interval's own hold.
func (h Hold) Within(g Grid, u Input, i int, t float64) float64 {
	if h == ZeroOrderHold || i+1 >= len(g) {
		return u[i]
	}
	frac := (t - g[i]) / (g[i+1] - g[i])
	return u[i] + frac*(u[i+1]-u[i])
}

// At evaluates u at an arbitrary time, clamping outside the grid.
func (h Hold) At(g Grid, u Input, t float64) float64 {
	if t <= g[0] {
		return u[0]
	}
	if t >= g.End() {
		return u[len(u)-1]
	}
	return h.Within(g, u, g.Index(t), t)
}
