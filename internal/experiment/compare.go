package experiment

import (
	"context"
	"fmt"
	"math"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/sim"
	"github.com/san-kum/tanksim/internal/tanks"
)

// Comparison is one integrator's run of a shared scenario.
type Comparison struct {
	Integrator string
	Response   *sim.Response
	// MaxDeviation is the largest absolute output difference from the
	// first integrator's run over all grid points.
	MaxDeviation float64
}

// Compare runs the scenario once per integrator, concurrently.
func Compare(ctx context.Context, cfg Config, r *Registry, names []string, logger log.Logger) ([]Comparison, error) {
	if len(names) == 0 {
		return nil, fmt.Errorf("no integrators to compare")
	}
	if logger == nil {
		logger = log.NewNopLogger()
	}

	model := tanks.NewModel(cfg.Params, cfg.Policy)
	jobs := make([]sim.Job, 0, len(names))
	for _, name := range names {
		integ, err := r.GetIntegrator(name)
		if err != nil {
			return nil, err
		}
		system, err := r.GetModel(cfg.Model, model)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, sim.Job{
			Sim:    sim.New(integ, cfg.Sim),
			System: system,
			Grid:   cfg.Grid,
			Input:  cfg.Input,
			X0:     dynamo.State(cfg.InitState),
		})
	}

	logger.Log("level", "info", "status", "compare", "model", cfg.Model, "integrators", len(names))
	results, err := sim.RunAll(ctx, jobs...)
	if err != nil {
		return nil, err
	}

	out := make([]Comparison, len(results))
	for i, resp := range results {
		out[i] = Comparison{
			Integrator:   names[i],
			Response:     resp,
			MaxDeviation: maxDeviation(results[0], resp),
		}
	}
	return out, nil
}

func maxDeviation(a, b *sim.Response) float64 {
	dev := 0.0
	for k := range a.Outputs {
		for i := range a.Outputs[k] {
			dev = math.Max(dev, math.Abs(a.Outputs[k][i]-b.Outputs[k][i]))
		}
	}
	return dev
}
