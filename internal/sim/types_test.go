package sim

import (
	"testing"

	"github.com/san-kum/tanksim/internal/dynamo"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	if cfg.MaxStep <= 0 {
		t.Error("DefaultConfig has invalid MaxStep")
	}
	if cfg.Tolerance <= 0 {
		t.Error("DefaultConfig has invalid Tolerance")
	}
	if err := cfg.validate(); err != nil {
		t.Errorf("DefaultConfig does not validate: %v", err)
	}
}

func TestResponse_Output(t *testing.T) {
	r := newResponse(&decaySystem{}, 2)
	r.append(Sample{Time: 0, State: dynamo.State{1}, Output: []float64{1}})
	r.append(Sample{Time: 1, State: dynamo.State{0.5}, Output: []float64{0.5}})

	if r.Len() != 2 {
		t.Fatalf("Len() = %d, want 2", r.Len())
	}
	x, ok := r.Output("x")
	if !ok || len(x) != 2 || x[1] != 0.5 {
		t.Errorf("Output(x) = %v, %v", x, ok)
	}
	if _, ok := r.Output("h3"); ok {
		t.Error("Output found an unknown name")
	}
	if r.Final()[0] != 0.5 {
		t.Errorf("Final() = %v, want [0.5]", r.Final())
	}
}

func TestResponse_FinalEmpty(t *testing.T) {
	r := newResponse(&decaySystem{}, 0)
	if r.Final() != nil {
		t.Errorf("Final() on empty response = %v, want nil", r.Final())
	}
}
