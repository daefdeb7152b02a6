package experiment

import (
	"fmt"
	"sort"

	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/integrators"
	"github.com/san-kum/tanksim/internal/metrics"
	"github.com/san-kum/tanksim/internal/tanks"
)

type Registry struct {
	models      map[string]func(*tanks.Model) *tanks.Subsystem
	integrators map[string]func() dynamo.Integrator
}

func NewRegistry() *Registry {
	r := &Registry{
		models:      make(map[string]func(*tanks.Model) *tanks.Subsystem),
		integrators: make(map[string]func() dynamo.Integrator),
	}

	r.models["cascade"] = tanks.NewCascade
	r.models["tank1"] = tanks.NewTank1
	r.models["tank2"] = tanks.NewTank2
	r.models["reference-tank1"] = func(m *tanks.Model) *tanks.Subsystem { return tanks.NewReference(m, tanks.Tank1) }
	r.models["reference-tank2"] = func(m *tanks.Model) *tanks.Subsystem { return tanks.NewReference(m, tanks.Tank2) }

	r.integrators["euler"] = func() dynamo.Integrator { return integrators.NewEuler() }
	r.integrators["rk4"] = func() dynamo.Integrator { return integrators.NewRK4() }
	r.integrators["rk45"] = func() dynamo.Integrator { return integrators.NewRK45() }

	return r
}

func (r *Registry) GetModel(name string, m *tanks.Model) (*tanks.Subsystem, error) {
	fn, ok := r.models[name]
	if !ok {
		return nil, fmt.Errorf("unknown model: %s", name)
	}
	return fn(m), nil
}

// GetIntegrator returns a new instance; integrators keep scratch buffers and
// must not be shared between concurrent runs.
func (r *Registry) GetIntegrator(name string) (dynamo.Integrator, error) {
	fn, ok := r.integrators[name]
	if !ok {
		return nil, fmt.Errorf("unknown integrator: %s", name)
	}
	return fn(), nil
}

func (r *Registry) ListModels() []string {
	return sortedKeys(r.models)
}

func (r *Registry) ListIntegrators() []string {
	return sortedKeys(r.integrators)
}

func sortedKeys[V any](m map[string]V) []string {
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// DefaultMetrics observes both heights whatever the model outputs, since
// every subsystem carries the full [h1, h2] state.
func (r *Registry) DefaultMetrics(p tanks.Parameters) []dynamo.Metric {
	return []dynamo.Metric{
		metrics.NewFinal(tanks.OutputH1, 0),
		metrics.NewFinal(tanks.OutputH2, 1),
		metrics.NewPeak(tanks.OutputH1, 0),
		metrics.NewPeak(tanks.OutputH2, 1),
		metrics.NewSettling(tanks.OutputH1, 0, 0.02),
		metrics.NewSettling(tanks.OutputH2, 1, 0.02),
		metrics.NewOverflow(p.MaxHeight),
		metrics.NewPumpEffort(),
		metrics.NewPumpedVolume(p.Inflow(1)),
	}
}
