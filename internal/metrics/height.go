package metrics

import (
	"fmt"
	"math"

	"github.com/san-kum/tanksim/internal/dynamo"
	"gonum.org/v1/gonum/floats"
)

// Final is the last observed value of one state component.
type Final struct {
	name  string
	index int
	value float64
}

func NewFinal(label string, index int) *Final {
	return &Final{name: "final_" + label, index: index}
}

func (f *Final) Name() string { return f.name }

func (f *Final) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if f.index < len(x) {
		f.value = x[f.index]
	}
}

func (f *Final) Value() float64 { return f.value }
func (f *Final) Reset()         { f.value = 0 }

// Peak is the largest observed value of one state component.
type Peak struct {
	name  string
	index int
	peak  float64
	seen  bool
}

func NewPeak(label string, index int) *Peak {
	return &Peak{name: "peak_" + label, index: index}
}

func (p *Peak) Name() string { return p.name }

func (p *Peak) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if p.index >= len(x) {
		return
	}
	if !p.seen || x[p.index] > p.peak {
		p.peak = x[p.index]
		p.seen = true
	}
}

func (p *Peak) Value() float64 { return p.peak }

func (p *Peak) Reset() {
	p.peak = 0
	p.seen = false
}

// Settling is the first time after which one state component stays within
// a relative band around its final value. It is the first sample time when
// the component never leaves the band and NaN when nothing was observed.
type Settling struct {
	name   string
	index  int
	band   float64
	times  []float64
	values []float64
}

// NewSettling tracks component index; band is relative, 0.02 for a 2% band.
func NewSettling(label string, index int, band float64) *Settling {
	return &Settling{
		name:  fmt.Sprintf("settling_%s", label),
		index: index,
		band:  band,
	}
}

func (s *Settling) Name() string { return s.name }

func (s *Settling) Observe(x dynamo.State, u dynamo.Control, t float64) {
	if s.index >= len(x) {
		return
	}
	s.times = append(s.times, t)
	s.values = append(s.values, x[s.index])
}

func (s *Settling) Value() float64 {
	n := len(s.values)
	if n == 0 {
		return math.NaN()
	}

	final := s.values[n-1]
	tol := s.band * math.Abs(final)
	if tol == 0 {
		// a zero final value gets an absolute band scaled to the excursion
		tol = s.band * math.Max(floats.Max(s.values), -floats.Min(s.values))
	}

	for i := n - 1; i >= 0; i-- {
		if math.Abs(s.values[i]-final) > tol {
			return s.times[i+1]
		}
	}
	return s.times[0]
}

func (s *Settling) Reset() {
	s.times = s.times[:0]
	s.values = s.values[:0]
}
