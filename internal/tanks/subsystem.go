package tanks

import (
	"fmt"

	"github.com/san-kum/tanksim/internal/dynamo"
	"gonum.org/v1/gonum/mat"
)

const (
	OutputH1 = "h1"
	OutputH2 = "h2"
)

type rateFunc func(h1, h2, u, t float64) (float64, float64, error)

// Subsystem is the state-space form of the cascade: state [h1, h2], one
// input (the pump command) and outputs y = C·x.
type Subsystem struct {
	name    string
	model   *Model
	rates   rateFunc
	outputs []string
	c       *mat.Dense
}

var _ dynamo.IOSystem = (*Subsystem)(nil)

// NewCascade integrates both heights together and observes both.
func NewCascade(m *Model) *Subsystem {
	return &Subsystem{
		name:    "cascade",
		model:   m,
		rates:   m.Rates,
		outputs: []string{OutputH1, OutputH2},
		c:       mat.NewDense(2, 2, []float64{1, 0, 0, 1}),
	}
}

// NewTank1 evolves h1 only; h2 keeps its initial value and only feeds the
// coupling term.
func NewTank1(m *Model) *Subsystem {
	return decoupled("tank1", m, Tank1, m.Rates)
}

// NewTank2 evolves h2 only; h1 keeps its initial value, so tank 2 sees a
// constant inflow.
func NewTank2(m *Model) *Subsystem {
	return decoupled("tank2", m, Tank2, m.Rates)
}

// NewReference is the decoupled run of the rig script, using ReferenceRates.
func NewReference(m *Model, tank Tank) *Subsystem {
	rates := func(h1, h2, _, t float64) (float64, float64, error) {
		return m.ReferenceRates(h1, h2, t)
	}
	return decoupled(fmt.Sprintf("reference-tank%d", tank), m, tank, rates)
}

func decoupled(name string, m *Model, tank Tank, rates rateFunc) *Subsystem {
	row := []float64{1, 0}
	output := OutputH1
	if tank == Tank2 {
		row = []float64{0, 1}
		output = OutputH2
	}

	keep := tank
	frozen := func(h1, h2, u, t float64) (float64, float64, error) {
		dh1, dh2, err := rates(h1, h2, u, t)
		if err != nil {
			return 0, 0, err
		}
		if keep == Tank1 {
			return dh1, 0, nil
		}
		return 0, dh2, nil
	}

	return &Subsystem{
		name:    name,
		model:   m,
		rates:   frozen,
		outputs: []string{output},
		c:       mat.NewDense(1, 2, row),
	}
}

func (s *Subsystem) Name() string      { return s.name }
func (s *Subsystem) Model() *Model     { return s.model }
func (s *Subsystem) StateDim() int     { return 2 }
func (s *Subsystem) ControlDim() int   { return 1 }
func (s *Subsystem) Outputs() []string { return s.outputs }

func (s *Subsystem) Derive(x dynamo.State, u dynamo.Control, t float64) (dynamo.State, error) {
	if len(x) != 2 {
		return nil, dynamo.ErrDimensionMismatch
	}
	dh1, dh2, err := s.rates(x[0], x[1], u.At(0), t)
	if err != nil {
		return nil, err
	}
	return dynamo.State{dh1, dh2}, nil
}

// Output returns C·x.
func (s *Subsystem) Output(x dynamo.State) []float64 {
	rows, _ := s.c.Dims()
	y := mat.NewVecDense(rows, nil)
	y.MulVec(s.c, mat.NewVecDense(2, []float64{x[0], x[1]}))
	return y.RawVector().Data
}
