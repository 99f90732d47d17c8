// Package dynamo provides the core primitives shared by the particle models.
//
// The package defines the types every other package speaks:
//
//   - [Vec3]: a gonum r3 vector with guarded [Normalize] and [ClampLength]
//   - [Particle], [ParticleSet]: the fixed-size population
//   - [ForceField]: point sources that perturb nearby particles
//   - [Stepper]: a motion model advancing a set by one frame
//   - [Metric], [Observer]: per-frame hooks fed by the runner
//
// # Example
//
//	st, _ := sim.Initialize(200, dynamo.DefaultFields(), dynamo.ModeFlocking, dynamo.DefaultParams(), 1)
//	st.Step(elapsed)
//	for _, p := range st.Positions() {
//	    draw(p)
//	}
//
// # Thread Safety
//
// A particle set is owned by one caller. Steppers may fan work out across
// goroutines inside a single Step, but they join before returning.
package dynamo
