package analysis

import (
	"math"
	"strings"
	"testing"

	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/sim"
	"github.com/san-kum/tanksim/internal/tanks"
)

func TestSteadyState(t *testing.T) {
	op, err := SteadyState(tanks.Reference(), 1)
	if err != nil {
		t.Fatal(err)
	}

	if math.Abs(op.H1-1.2750778) > 1e-6 {
		t.Errorf("expected h1 ~1.2750778, got %f", op.H1)
	}
	// equal outlets give equal levels
	if math.Abs(op.H2-op.H1) > 1e-12 {
		t.Errorf("expected h2 == h1, got %f and %f", op.H2, op.H1)
	}
	if math.Abs(op.Flow-3.3*2.7) > 1e-12 {
		t.Errorf("expected flow 8.91, got %f", op.Flow)
	}
}

func TestSteadyStateIsEquilibrium(t *testing.T) {
	p, err := tanks.NewParameters(tanks.WithOutletDiameter(tanks.Tank2, 0.4))
	if err != nil {
		t.Fatal(err)
	}
	op, err := SteadyState(p, 0.8)
	if err != nil {
		t.Fatal(err)
	}

	model := tanks.NewModel(p, tanks.ClampToZero)
	dh1, dh2, err := model.Rates(op.H1, op.H2, 0.8, 0)
	if err != nil {
		t.Fatal(err)
	}
	if math.Abs(dh1) > 1e-9 || math.Abs(dh2) > 1e-9 {
		t.Errorf("rates at equilibrium = (%g, %g), want 0", dh1, dh2)
	}
}

func TestSteadyStateInvalid(t *testing.T) {
	if _, err := SteadyState(tanks.Reference(), -1); err == nil {
		t.Error("expected error for negative command")
	}

	p := tanks.Reference()
	p.Gravity = 0
	if _, err := SteadyState(p, 1); err == nil {
		t.Error("expected error for zero gravity")
	}
}

func TestLinearizeCascade(t *testing.T) {
	p := tanks.Reference()
	op, _ := SteadyState(p, 1)
	sys := tanks.NewCascade(tanks.NewModel(p, tanks.ClampToZero))

	jac, err := Linearize(sys, dynamo.State{op.H1, op.H2}, dynamo.Control{1}, 0, 1e-6)
	if err != nil {
		t.Fatal(err)
	}

	const a = -0.9006117
	expected := [2][2]float64{{a, 0}, {-a, a}}
	for i := 0; i < 2; i++ {
		for j := 0; j < 2; j++ {
			if got := jac.At(i, j); math.Abs(got-expected[i][j]) > 1e-5 {
				t.Errorf("J[%d][%d] = %f, want %f", i, j, got, expected[i][j])
			}
		}
	}

	modes, err := Modes(jac)
	if err != nil {
		t.Fatal(err)
	}
	if len(modes) != 2 {
		t.Fatalf("expected 2 modes, got %d", len(modes))
	}
	for _, m := range modes {
		if !m.Stable() {
			t.Errorf("mode %v should be stable", m.Eigenvalue)
		}
		if math.Abs(m.TimeConstant-1.1103564) > 1e-4 {
			t.Errorf("expected time constant ~1.11 s, got %f", m.TimeConstant)
		}
	}
}

func TestLinearizeDimensionMismatch(t *testing.T) {
	sys := tanks.NewCascade(tanks.NewModel(tanks.Reference(), tanks.ClampToZero))
	if _, err := Linearize(sys, dynamo.State{1}, dynamo.Control{1}, 0, 0); err == nil {
		t.Error("expected dimension error")
	}
}

func TestSweep(t *testing.T) {
	p := tanks.Reference()
	points, err := Sweep(p, 0, 6, 7)
	if err != nil {
		t.Fatal(err)
	}
	if len(points) != 7 {
		t.Fatalf("expected 7 points, got %d", len(points))
	}
	if points[0].H1 != 0 || points[0].Overflow {
		t.Errorf("zero command should give empty, non-overflowing tanks: %+v", points[0])
	}
	for i := 1; i < len(points); i++ {
		if points[i].H1 <= points[i-1].H1 {
			t.Errorf("h1 should grow with the command at point %d", i)
		}
	}

	limit := MaxCommand(p)
	if math.Abs(limit-4.8505645) > 1e-6 {
		t.Errorf("expected max command ~4.85, got %f", limit)
	}
	for _, pt := range points {
		if pt.Overflow != (pt.Command > limit) {
			t.Errorf("command %f: overflow %v disagrees with limit %f", pt.Command, pt.Overflow, limit)
		}
	}
}

func TestSteadyStateSaturation(t *testing.T) {
	p := tanks.Reference()
	limit := SaturationCommand(p)
	// h1 = 1.2750778·u² reaches sqrt(2·30·981) near u = 13.79
	if math.Abs(limit-13.79) > 0.01 {
		t.Errorf("expected saturation near u = 13.79, got %f", limit)
	}

	below, err := SteadyState(p, 10)
	if err != nil {
		t.Fatal(err)
	}
	if below.Saturated {
		t.Errorf("u = 10 should have an equilibrium: %+v", below)
	}

	above, err := SteadyState(p, 20)
	if err != nil {
		t.Fatal(err)
	}
	if !above.Saturated {
		t.Errorf("u = 20 should saturate: %+v", above)
	}

	// the clamped rate of tank 1 stays positive at the reported height
	m := tanks.NewModel(p, tanks.ClampToZero)
	dh1, _, err := m.Rates(above.H1, above.H2, 20, 0)
	if err != nil {
		t.Fatal(err)
	}
	if dh1 <= 0 {
		t.Errorf("expected tank 1 still filling, got dh1 = %g", dh1)
	}

	if MaxCommand(p) >= limit {
		t.Errorf("max command %f should sit below saturation %f", MaxCommand(p), limit)
	}
}

func TestSweepInvalid(t *testing.T) {
	if _, err := Sweep(tanks.Reference(), 0, 1, 1); err == nil {
		t.Error("expected error for a single step")
	}
	if _, err := Sweep(tanks.Reference(), 1, 1, 5); err == nil {
		t.Error("expected error for an empty range")
	}
}

func TestPhase(t *testing.T) {
	resp := &sim.Response{States: []dynamo.State{{0, 0}, {1, 0.5}, {2, 1.5}}}
	p := Phase(resp)
	if len(p.H1) != 3 || p.H2[2] != 1.5 {
		t.Fatalf("unexpected portrait %+v", p)
	}

	out := p.ASCII(20, 5)
	lines := strings.Split(strings.TrimRight(out, "\n"), "\n")
	if len(lines) != 5 {
		t.Errorf("expected 5 rows, got %d", len(lines))
	}
	if !strings.Contains(out, "◆") {
		t.Error("end point not marked")
	}
	if (&PhasePortrait{}).ASCII(20, 5) != "" {
		t.Error("empty portrait should render nothing")
	}
}
