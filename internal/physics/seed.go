package physics

import (
	"math/rand/v2"

	"github.com/san-kum/helixflock/internal/dynamo"
)

const helixPhaseStep = 0.2

// SeedHelix creates n particles spaced 0.2 rad apart along the helix with a
// random height offset in [0,2) and radius scale in [0.5,1).
func SeedHelix(n int, rng *rand.Rand) dynamo.ParticleSet {
	ps := make(dynamo.ParticleSet, n)
	for i := range ps {
		ps[i].Helix = dynamo.HelixPhase{
			Phase:       float64(i) * helixPhaseStep,
			YOffset:     rng.Float64() * 2,
			RadiusScale: 0.5 + rng.Float64()*0.5,
		}
	}
	return ps
}

// SeedFlock scatters n particles over a 20x10x20 box with a gentle upward
// drift.
func SeedFlock(n int, rng *rand.Rand) dynamo.ParticleSet {
	ps := make(dynamo.ParticleSet, n)
	for i := range ps {
		ps[i].Position = dynamo.Vec3{
			X: (rng.Float64() - 0.5) * 20,
			Y: rng.Float64() * 10,
			Z: (rng.Float64() - 0.5) * 20,
		}
		ps[i].Velocity = dynamo.Vec3{
			X: (rng.Float64() - 0.5) * 0.1,
			Y: 0.02 + rng.Float64()*0.05,
			Z: (rng.Float64() - 0.5) * 0.1,
		}
	}
	return ps
}

// NewRand returns the deterministic generator used for seeding.
func NewRand(seed int64) *rand.Rand {
	return rand.New(rand.NewPCG(uint64(seed), uint64(seed)^0x9e3779b97f4a7c15))
}
