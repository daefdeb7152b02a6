// Package tanks models a two-tank cascade: a pump fills tank 1, tank 1
// drains into tank 2 through an orifice, and tank 2 drains to atmosphere.
//
// Outflow follows the square-root discharge law q = A_out·sqrt(2·g·h):
//
//	dh1/dt = (Kp·Vp·u − q1) / At1
//	dh2/dt = (q1 − q2) / At2
//
// [Parameters] holds the physical constants, [Model] evaluates the rates
// and [Subsystem] exposes the model as a [dynamo.IOSystem]. The coupled
// [NewCascade] is the system to simulate; [NewTank1], [NewTank2] and
// [NewReference] reproduce the decoupled single-tank runs of the lab
// rig script, where each run freezes the other tank's height.
package tanks
