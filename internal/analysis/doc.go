// Package analysis characterizes the cascade around its operating points.
//
//   - [SteadyState]: closed-form equilibrium heights for a constant command
//   - [Linearize]: Jacobian of any system by central differences
//   - [Modes]: eigenvalues and time constants of a Jacobian
//   - [Sweep]: equilibrium heights over a range of pump commands
//   - [Phase]: the (h1, h2) trajectory of a recorded run
//
// # Operating Points
//
// At equilibrium each tank's outflow equals its inflow, so
//
//	h1 = (Kp·Vp·u / Aout1)² / 2g
//	h2 = (Aout1 / Aout2)² · h1
//
// and the linearized cascade is lower triangular with one real mode per tank.
package analysis
