package sim

import (
	"fmt"

	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/signal"
)

type Config struct {
	// MaxStep is the longest fixed substep inside one grid interval.
	// Zero takes a single step per interval.
	MaxStep float64
	// Adaptive steps with local error control inside each interval.
	Adaptive  bool
	Tolerance float64
	MinDt     float64
	// ValidateState fails the run on NaN/Inf states.
	ValidateState bool
	Hold          signal.Hold
}

func DefaultConfig() Config {
	return Config{
		MaxStep:       0.01,
		Tolerance:     1e-6,
		MinDt:         1e-9,
		ValidateState: true,
		Hold:          signal.ZeroOrderHold,
	}
}

func (c Config) validate() error {
	if c.MaxStep < 0 {
		return fmt.Errorf("max step must be non-negative, got %f", c.MaxStep)
	}
	if c.Adaptive && c.Tolerance <= 0 {
		return fmt.Errorf("tolerance must be positive for adaptive stepping")
	}
	if c.Adaptive && c.MinDt <= 0 {
		return fmt.Errorf("min dt must be positive for adaptive stepping")
	}
	return nil
}

// Stats counts solver work over a run.
type Stats struct {
	Steps       int `json:"steps"`
	Rejected    int `json:"rejected"`
	Evaluations int `json:"evaluations"`
}

// Sample is the system at one grid point.
type Sample struct {
	Index  int
	Time   float64
	State  dynamo.State
	Input  float64
	Output []float64
}

// Response is the result of one run: the grid and, per named output, the
// value at every grid point.
type Response struct {
	System  string
	Names   []string
	Times   []float64
	Outputs [][]float64
	States  []dynamo.State
	Inputs  []float64
	Metrics map[string]float64
	Stats   Stats
}

func newResponse(sys dynamo.IOSystem, n int) *Response {
	names := sys.Outputs()
	r := &Response{
		System:  sys.Name(),
		Names:   names,
		Times:   make([]float64, 0, n),
		Outputs: make([][]float64, len(names)),
		States:  make([]dynamo.State, 0, n),
		Inputs:  make([]float64, 0, n),
		Metrics: make(map[string]float64),
	}
	for k := range r.Outputs {
		r.Outputs[k] = make([]float64, 0, n)
	}
	return r
}

func (r *Response) append(s Sample) {
	r.Times = append(r.Times, s.Time)
	r.States = append(r.States, s.State)
	r.Inputs = append(r.Inputs, s.Input)
	for k, y := range s.Output {
		r.Outputs[k] = append(r.Outputs[k], y)
	}
}

// Output returns the series of the named output.
func (r *Response) Output(name string) ([]float64, bool) {
	for k, n := range r.Names {
		if n == name {
			return r.Outputs[k], true
		}
	}
	return nil, false
}

func (r *Response) Len() int { return len(r.Times) }

// Final is the last recorded state.
func (r *Response) Final() dynamo.State {
	if len(r.States) == 0 {
		return nil
	}
	return r.States[len(r.States)-1]
}
