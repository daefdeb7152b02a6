package experiment

import (
	"context"

	"github.com/go-kit/kit/log"
	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/sim"
	"github.com/san-kum/tanksim/internal/tanks"
)

// ReferencePair runs the rig script's two decoupled tanks, reference-tank1
// then reference-tank2, over the same grid and input. cfg.Model is ignored.
func ReferencePair(ctx context.Context, cfg Config, r *Registry, logger log.Logger) ([]*sim.Response, error) {
	if logger == nil {
		logger = log.NewNopLogger()
	}
	if err := cfg.Grid.Validate(); err != nil {
		return nil, err
	}

	model := tanks.NewModel(cfg.Params, cfg.Policy)
	names := []string{"reference-tank1", "reference-tank2"}
	jobs := make([]sim.Job, 0, len(names))
	for _, name := range names {
		integ, err := r.GetIntegrator(cfg.Integrator)
		if err != nil {
			return nil, err
		}
		system, err := r.GetModel(name, model)
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

	logger.Log("level", "info", "status", "reference pair", "integrator", cfg.Integrator, "samples", len(cfg.Grid))
	results, err := sim.RunAll(ctx, jobs...)
	if err != nil {
		logger.Log("level", "error", "status", "failed", "err", err)
		return nil, err
	}
	return results, nil
}
