package sim

import (
	"context"
	"errors"
	"fmt"
	"iter"
	"math"

	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/signal"
)

// Simulator integrates an IOSystem over a time grid under a sampled input.
// It holds integrator scratch space and metric state, so use one Simulator
// per goroutine (see RunAll).
type Simulator struct {
	integrator dynamo.Integrator
	cfg        Config
	metrics    []dynamo.Metric
	observers  []dynamo.Observer
}

func New(integrator dynamo.Integrator, cfg Config) *Simulator {
	return &Simulator{
		integrator: integrator,
		cfg:        cfg,
		metrics:    make([]dynamo.Metric, 0),
		observers:  make([]dynamo.Observer, 0),
	}
}

func (s *Simulator) AddMetric(m dynamo.Metric)     { s.metrics = append(s.metrics, m) }
func (s *Simulator) AddObserver(o dynamo.Observer) { s.observers = append(s.observers, o) }

func (s *Simulator) Config() Config { return s.cfg }

// Run simulates sys from x0 at grid[0] and samples its outputs at every
// grid point. input must hold one value per grid point.
func (s *Simulator) Run(ctx context.Context, sys dynamo.IOSystem, grid signal.Grid, input signal.Input, x0 dynamo.State) (*Response, error) {
	result := newResponse(sys, len(grid))

	stats, err := s.walk(ctx, sys, grid, input, x0, func(smp Sample) bool {
		result.append(smp)
		return true
	})
	if err != nil {
		return nil, err
	}

	result.Stats = stats
	for _, m := range s.metrics {
		result.Metrics[m.Name()] = m.Value()
	}
	return result, nil
}

// Steps is Run as a lazy sequence. Every range over it restarts from x0;
// a failure is yielded once as the final element.
func (s *Simulator) Steps(ctx context.Context, sys dynamo.IOSystem, grid signal.Grid, input signal.Input, x0 dynamo.State) iter.Seq2[Sample, error] {
	return func(yield func(Sample, error) bool) {
		_, err := s.walk(ctx, sys, grid, input, x0, func(smp Sample) bool {
			return yield(smp, nil)
		})
		if err != nil {
			yield(Sample{}, err)
		}
	}
}

func (s *Simulator) validate(sys dynamo.IOSystem, grid signal.Grid, input signal.Input, x0 dynamo.State) error {
	if err := s.cfg.validate(); err != nil {
		return err
	}
	if err := grid.Validate(); err != nil {
		return err
	}
	if err := signal.CheckAligned(grid, input); err != nil {
		return err
	}
	if len(x0) != sys.StateDim() {
		return dynamo.Invalidf("initial state has %d components, system %s has %d", len(x0), sys.Name(), sys.StateDim())
	}
	if !x0.IsValid() {
		return dynamo.Invalidf("initial state %v is not finite", x0)
	}
	return nil
}

// walk drives the integration and hands every grid sample to visit. It
// stops early without error when visit returns false.
func (s *Simulator) walk(ctx context.Context, sys dynamo.IOSystem, grid signal.Grid, input signal.Input, x0 dynamo.State, visit func(Sample) bool) (Stats, error) {
	var stats Stats
	if err := s.validate(sys, grid, input, x0); err != nil {
		return stats, err
	}

	for _, m := range s.metrics {
		m.Reset()
	}

	forced := &forcedSystem{sys: sys, hold: s.cfg.Hold, grid: grid, input: input}
	x := x0.Clone()
	dt := s.initialDt(grid)

	if !s.emit(sys, 0, grid[0], x, input[0], visit) {
		return stats, nil
	}

	for i := 0; i < len(grid)-1; i++ {
		select {
		case <-ctx.Done():
			return stats, fmt.Errorf("%w: %w", dynamo.ErrContextCanceled, ctx.Err())
		default:
		}

		forced.interval = i
		newX, nextDt, err := s.advance(forced, x, grid[i], grid[i+1], dt, &stats)
		if err != nil {
			stats.Evaluations = forced.evaluations
			return stats, &dynamo.SimulationError{Step: i, Time: grid[i], State: x.Clone(), Wrapped: err}
		}
		if s.cfg.ValidateState && !newX.IsValid() {
			return stats, &dynamo.SimulationError{Step: i, Time: grid[i+1], State: newX, Wrapped: dynamo.ErrInvalidState}
		}

		x, dt = newX, nextDt
		if !s.emit(sys, i+1, grid[i+1], x, input[i+1], visit) {
			break
		}
	}

	stats.Evaluations = forced.evaluations
	return stats, nil
}

func (s *Simulator) emit(sys dynamo.IOSystem, i int, t float64, x dynamo.State, u float64, visit func(Sample) bool) bool {
	ctrl := dynamo.Control{u}
	for _, m := range s.metrics {
		m.Observe(x, ctrl, t)
	}
	for _, obs := range s.observers {
		obs.OnStep(x, ctrl, t)
	}
	return visit(Sample{Index: i, Time: t, State: x.Clone(), Input: u, Output: sys.Output(x)})
}

func (s *Simulator) initialDt(grid signal.Grid) float64 {
	if len(grid) < 2 {
		return s.cfg.MaxStep
	}
	dt := grid[1] - grid[0]
	if s.cfg.MaxStep > 0 {
		dt = math.Min(dt, s.cfg.MaxStep)
	}
	return dt
}

// advance integrates over [t0, t1] and returns the state at t1 and the step
// size to try first on the next interval.
func (s *Simulator) advance(dyn dynamo.System, x dynamo.State, t0, t1, dt float64, stats *Stats) (dynamo.State, float64, error) {
	if s.cfg.Adaptive {
		return s.advanceAdaptive(dyn, x, t0, t1, dt, stats)
	}

	n := 1
	if s.cfg.MaxStep > 0 {
		n = int(math.Ceil((t1-t0)/s.cfg.MaxStep - 1e-9))
		n = max(n, 1)
	}
	h := (t1 - t0) / float64(n)
	for k := 0; k < n; k++ {
		var err error
		x, err = s.integrator.Step(dyn, x, nil, t0+float64(k)*h, h)
		if err != nil {
			return nil, dt, err
		}
		stats.Steps++
	}
	return x, dt, nil
}

func (s *Simulator) advanceAdaptive(dyn dynamo.System, x dynamo.State, t0, t1, dt float64, stats *Stats) (dynamo.State, float64, error) {
	eps := 1e-12 * math.Max(1, math.Abs(t1))
	t := t0
	for t1-t > eps {
		h := math.Min(dt, t1-t)

		newX, dtNew, err := s.adaptiveStep(dyn, x, t, h)
		if errors.Is(err, dynamo.ErrStepRejected) {
			stats.Rejected++
			if h <= s.cfg.MinDt {
				return nil, dt, dynamo.ErrStepTooSmall
			}
			dt = math.Max(dtNew, s.cfg.MinDt)
			continue
		}
		if err != nil {
			return nil, dt, err
		}

		x = newX
		t += h
		stats.Steps++
		dt = dtNew
		if s.cfg.MaxStep > 0 {
			dt = math.Min(dt, s.cfg.MaxStep)
		}
	}
	return x, dt, nil
}

// adaptiveStep uses the integrator's own error estimate when it has one,
// and step doubling otherwise.
func (s *Simulator) adaptiveStep(dyn dynamo.System, x dynamo.State, t, dt float64) (dynamo.State, float64, error) {
	if adaptive, ok := s.integrator.(dynamo.AdaptiveIntegrator); ok {
		return adaptive.StepAdaptive(dyn, x, nil, t, dt, s.cfg.Tolerance)
	}

	x1, err := s.integrator.Step(dyn, x, nil, t, dt)
	if err != nil {
		return nil, dt, err
	}
	xHalf, err := s.integrator.Step(dyn, x, nil, t, dt/2)
	if err != nil {
		return nil, dt, err
	}
	x2, err := s.integrator.Step(dyn, xHalf, nil, t+dt/2, dt/2)
	if err != nil {
		return nil, dt, err
	}

	errNorm := x1.Sub(x2).Norm()
	if errNorm > s.cfg.Tolerance {
		return x, dt / 2, dynamo.ErrStepRejected
	}
	if errNorm < s.cfg.Tolerance/10 {
		dt *= 2
	}
	return x2, dt, nil
}

// forcedSystem feeds the held input of the current grid interval to sys,
// ignoring the control the integrator passes in.
type forcedSystem struct {
	sys         dynamo.System
	hold        signal.Hold
	grid        signal.Grid
	input       signal.Input
	interval    int
	evaluations int
}

func (f *forcedSystem) Derive(x dynamo.State, _ dynamo.Control, t float64) (dynamo.State, error) {
	f.evaluations++
	u := f.hold.Within(f.grid, f.input, f.interval, t)
	return f.sys.Derive(x, dynamo.Control{u}, t)
}

func (f *forcedSystem) StateDim() int   { return f.sys.StateDim() }
func (f *forcedSystem) ControlDim() int { return f.sys.ControlDim() }
