package sim

import (
	"context"
	"fmt"

	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/signal"
	"golang.org/x/sync/errgroup"
)

// Job is one independent run. Sim must not be shared with another job.
type Job struct {
	Sim    *Simulator
	System dynamo.IOSystem
	Grid   signal.Grid
	Input  signal.Input
	X0     dynamo.State
}

// RunAll runs jobs concurrently and returns the responses in job order.
// The first failure cancels the others.
func RunAll(ctx context.Context, jobs ...Job) ([]*Response, error) {
	results := make([]*Response, len(jobs))

	g, ctx := errgroup.WithContext(ctx)
	for i, job := range jobs {
		g.Go(func() error {
			resp, err := job.Sim.Run(ctx, job.System, job.Grid, job.Input, job.X0)
			if err != nil {
				return fmt.Errorf("%s: %w", job.System.Name(), err)
			}
			results[i] = resp
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
