// Package dynamo provides core simulation primitives for dynamical systems.
//
// The package defines the contracts shared by models, solvers and the
// simulation driver:
//
//   - [State]: vector representing system state
//   - [System]: interface for ODE systems (dX/dt = f(X, u, t))
//   - [IOSystem]: a [System] with named output projections (y = C X)
//   - [Integrator]: numerical integrator interface
//   - [Metric] and [Observer]: per-step hooks used by the simulator
//
// # Example
//
//	model := tanks.NewModel(params, tanks.ClampToZero)
//	sys := tanks.NewCascade(model)
//	s := sim.New(integrators.NewRK4(), sim.DefaultConfig())
//	resp, err := s.Run(ctx, sys, grid, input, dynamo.State{0, 0})
//
// # Errors
//
// A [System] reports failures from Derive; integrators pass them through
// unchanged and the simulator wraps them in [SimulationError].
package dynamo
