package metrics

import (
	"math"
	"testing"

	"github.com/san-kum/tanksim/internal/dynamo"
)

func TestPumpEffort(t *testing.T) {
	m := NewPumpEffort()
	m.Observe(dynamo.State{0, 0}, dynamo.Control{1}, 0)
	m.Observe(dynamo.State{0, 0}, dynamo.Control{-0.5}, 1)
	m.Observe(dynamo.State{0, 0}, nil, 2)

	if got := m.Value(); math.Abs(got-0.5) > 1e-12 {
		t.Errorf("expected effort 0.5, got %f", got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero effort after reset")
	}
}

func TestPumpedVolume(t *testing.T) {
	m := NewPumpedVolume(8.91)
	m.Observe(dynamo.State{0, 0}, dynamo.Control{0}, 0)
	m.Observe(dynamo.State{0, 0}, dynamo.Control{1}, 1)
	m.Observe(dynamo.State{0, 0}, dynamo.Control{1}, 3)

	// 0.5 s-equivalent on the ramp, then 2 s at full command
	if got := m.Value(); math.Abs(got-8.91*2.5) > 1e-12 {
		t.Errorf("expected %f, got %f", 8.91*2.5, got)
	}

	m.Reset()
	if m.Value() != 0 {
		t.Error("expected zero volume after reset")
	}
	m.Observe(dynamo.State{0, 0}, dynamo.Control{1}, 5)
	if m.Value() != 0 {
		t.Error("first sample after reset should not integrate")
	}
}

func TestOverflow(t *testing.T) {
	m := NewOverflow(30)

	if m.Value() != 0 {
		t.Error("expected zero overflow before any sample")
	}

	m.Observe(dynamo.State{10, 10}, nil, 0)
	m.Observe(dynamo.State{31, 10}, nil, 1)
	m.Observe(dynamo.State{29, 35}, nil, 2)
	m.Observe(dynamo.State{30, 30}, nil, 3)

	if got := m.Value(); got != 0.5 {
		t.Errorf("expected overflow 0.5, got %f", got)
	}
}

func TestFinalAndPeak(t *testing.T) {
	final := NewFinal("h1", 0)
	peak := NewPeak("h2", 1)

	for i, x := range []dynamo.State{{1, -3}, {2, -1}, {1.5, -2}} {
		final.Observe(x, nil, float64(i))
		peak.Observe(x, nil, float64(i))
	}

	if final.Name() != "final_h1" || final.Value() != 1.5 {
		t.Errorf("%s = %f, want final_h1 = 1.5", final.Name(), final.Value())
	}
	// all-negative series still reports its largest value
	if peak.Name() != "peak_h2" || peak.Value() != -1 {
		t.Errorf("%s = %f, want peak_h2 = -1", peak.Name(), peak.Value())
	}

	peak.Reset()
	if peak.Value() != 0 {
		t.Error("expected zero peak after reset")
	}
}

func TestSettling(t *testing.T) {
	tests := []struct {
		name     string
		values   []float64
		expected float64
	}{
		{"first order rise", []float64{0, 0.6, 0.9, 0.99, 1.0, 1.0}, 3},
		{"already settled", []float64{1, 1.01, 0.99, 1}, 0},
		{"settles on the last sample", []float64{0, 0.5, 1}, 2},
		{"decays to zero", []float64{1, 0.5, 0.01, 0}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := NewSettling("h1", 0, 0.02)
			for i, v := range tt.values {
				m.Observe(dynamo.State{v}, nil, float64(i))
			}
			if got := m.Value(); got != tt.expected {
				t.Errorf("expected settling time %f, got %f", tt.expected, got)
			}
		})
	}
}

func TestSettlingEmpty(t *testing.T) {
	m := NewSettling("h2", 1, 0.02)
	if !math.IsNaN(m.Value()) {
		t.Errorf("expected NaN with no samples, got %f", m.Value())
	}
}
