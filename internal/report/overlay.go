package report

import (
	"fmt"
	"strings"

	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/sim"
)

// Overlay joins the outputs of runs over the same grid into one Response,
// so that separately simulated tanks chart together. The state of each
// sample is the joined output vector; inputs come from the first run.
func Overlay(runs ...*sim.Response) (*sim.Response, error) {
	if len(runs) == 0 {
		return nil, fmt.Errorf("nothing to overlay")
	}

	base := runs[0]
	out := &sim.Response{
		Times:   base.Times,
		Inputs:  base.Inputs,
		Metrics: make(map[string]float64),
	}

	systems := make([]string, 0, len(runs))
	seen := make(map[string]bool)
	for _, r := range runs {
		if r.Len() != base.Len() {
			return nil, fmt.Errorf("cannot overlay %s (%d samples) on %s (%d samples)", r.System, r.Len(), base.System, base.Len())
		}
		for i, t := range r.Times {
			if t != base.Times[i] {
				return nil, fmt.Errorf("cannot overlay %s: grids differ at sample %d", r.System, i)
			}
		}
		for k, name := range r.Names {
			if seen[name] {
				return nil, fmt.Errorf("output %s appears in more than one run", name)
			}
			seen[name] = true
			out.Names = append(out.Names, name)
			out.Outputs = append(out.Outputs, r.Outputs[k])
		}
		for name, v := range r.Metrics {
			out.Metrics[r.System+"."+name] = v
		}
		out.Stats.Steps += r.Stats.Steps
		out.Stats.Rejected += r.Stats.Rejected
		out.Stats.Evaluations += r.Stats.Evaluations
		systems = append(systems, r.System)
	}
	out.System = strings.Join(systems, "+")

	out.States = make([]dynamo.State, base.Len())
	for i := range out.States {
		x := make(dynamo.State, len(out.Outputs))
		for k := range out.Outputs {
			x[k] = out.Outputs[k][i]
		}
		out.States[i] = x
	}
	return out, nil
}
