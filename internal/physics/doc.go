// Package physics provides the particle motion models.
//
// Each model implements [dynamo.Stepper]:
//
//   - [Helix]: particles ride a rising helix as a closed-form function of
//     elapsed time, then force fields displace them. Stateless.
//   - [Flocking]: velocity is steered by separation, alignment and cohesion,
//     biased upward and perturbed by force fields, then clamped and
//     integrated. Stateful.
//
// # Ordering
//
// Flocking reads a snapshot of the previous frame for every neighbor scan and
// commits all particles together, so the outcome is independent of the order
// particles are visited and the scan can run in parallel:
//
//	fl := physics.NewFlocking(dynamo.DefaultParams(), dynamo.DefaultFields())
//	fl.Step(particles, elapsed)
package physics
