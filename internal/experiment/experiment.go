package experiment

import (
	"context"
	"fmt"
	"time"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/tanksim/internal/config"
	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/signal"
	"github.com/san-kum/tanksim/internal/sim"
	"github.com/san-kum/tanksim/internal/tanks"
)

type Config struct {
	Model      string
	Integrator string
	Policy     tanks.RadicandPolicy
	Params     tanks.Parameters
	Grid       signal.Grid
	Input      signal.Input
	InitState  []float64
	Sim        sim.Config
}

// FromConfig resolves a file/preset configuration into a runnable one.
func FromConfig(c *config.Config) (Config, error) {
	params, err := c.Parameters()
	if err != nil {
		return Config{}, err
	}
	policy, err := tanks.ParsePolicy(c.Policy)
	if err != nil {
		return Config{}, err
	}
	hold, err := signal.ParseHold(c.Hold)
	if err != nil {
		return Config{}, err
	}
	grid, input, err := c.Signal()
	if err != nil {
		return Config{}, err
	}

	simCfg := sim.DefaultConfig()
	simCfg.MaxStep = c.MaxStep
	simCfg.Adaptive = c.Adaptive
	if c.Tolerance > 0 {
		simCfg.Tolerance = c.Tolerance
	}
	simCfg.Hold = hold

	return Config{
		Model:      c.Model,
		Integrator: c.Integrator,
		Policy:     policy,
		Params:     params,
		Grid:       grid,
		Input:      input,
		InitState:  c.GetInitState(),
		Sim:        simCfg,
	}, nil
}

type Experiment struct {
	cfg       Config
	logger    log.Logger
	model     *tanks.Model
	system    *tanks.Subsystem
	simulator *sim.Simulator
}

func New(cfg Config, logger log.Logger) *Experiment {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	return &Experiment{
		cfg:    cfg,
		logger: log.With(logger, "model", cfg.Model, "integrator", cfg.Integrator),
	}
}

// Setup resolves the model and integrator by name and attaches metrics.
func (e *Experiment) Setup(r *Registry, metrics []dynamo.Metric) error {
	e.model = tanks.NewModel(e.cfg.Params, e.cfg.Policy)

	system, err := r.GetModel(e.cfg.Model, e.model)
	if err != nil {
		return err
	}
	integ, err := r.GetIntegrator(e.cfg.Integrator)
	if err != nil {
		return err
	}

	e.system = system
	e.simulator = sim.New(integ, e.cfg.Sim)
	for _, m := range metrics {
		e.simulator.AddMetric(m)
	}
	return nil
}

func (e *Experiment) Run(ctx context.Context) (*sim.Response, error) {
	if e.simulator == nil {
		return nil, fmt.Errorf("experiment not setup")
	}
	if err := e.cfg.Grid.Validate(); err != nil {
		e.logger.Log("level", "error", "status", "invalid", "err", err)
		return nil, err
	}

	e.logger.Log("level", "info", "status", "start", "samples", len(e.cfg.Grid), "t_end", e.cfg.Grid.End(), "policy", e.cfg.Policy)
	start := time.Now()

	resp, err := e.simulator.Run(ctx, e.system, e.cfg.Grid, e.cfg.Input, dynamo.State(e.cfg.InitState))
	if err != nil {
		e.logger.Log("level", "error", "status", "failed", "err", err)
		return nil, err
	}

	e.logger.Log("level", "info", "status", "finished", "elapsed", time.Since(start),
		"steps", resp.Stats.Steps, "rejected", resp.Stats.Rejected, "evals", resp.Stats.Evaluations)
	if resp.Metrics["overflow"] > 0 {
		e.logger.Log("level", "warning", "status", "overflow", "fraction", resp.Metrics["overflow"], "hmax", e.cfg.Params.MaxHeight)
	}
	return resp, nil
}

// GetSimulator returns the underlying simulator for adding observers.
func (e *Experiment) GetSimulator() *sim.Simulator {
	return e.simulator
}

func (e *Experiment) Model() *tanks.Model { return e.model }

func (e *Experiment) Config() Config { return e.cfg }
