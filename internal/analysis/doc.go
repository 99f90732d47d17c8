// Package analysis characterizes particle sets and runs.
//
//   - [Summarize]: centroid, spread, polarization and speed quantiles
//   - [Sweep]: flocking parameter sweep with a summary per value
//   - [Divergence]: sensitivity of a run to a small perturbation
//   - [PowerSpectrum] and [DominantFrequency]: periodicity of a series
//   - [ProjectionToASCII]: 2D projection of positions
//
// # Detecting flock order
//
// Polarization near 1 means the particles share a heading:
//
//	s := analysis.Summarize(st.Positions(), st.Velocities())
//	if s.Polarization > 0.9 {
//	    // aligned flock
//	}
package analysis
