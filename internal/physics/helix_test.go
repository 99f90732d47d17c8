package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/field"
	"github.com/san-kum/helixflock/internal/physics"
	"gonum.org/v1/gonum/spatial/r3"
)

const tol = 1e-12

func expectClose(got, want dynamo.Vec3) {
	ExpectWithOffset(1, dynamo.Distance(got, want)).To(BeNumerically("<", tol),
		"got %v, want %v", got, want)
}

func inertFields() []dynamo.ForceField {
	fields := dynamo.DefaultFields()
	for i := range fields {
		fields[i].Strength = 0
	}
	return fields
}

var _ = Describe("Helix", func() {
	var params dynamo.Params

	BeforeEach(func() {
		params = dynamo.DefaultParams()
	})

	It("matches the closed-form helix when every field is inert", func() {
		h := physics.NewHelix(params, inertFields())
		ps := physics.SeedHelix(50, physics.NewRand(3))
		elapsed := 7.25

		h.Step(ps, elapsed)

		for i, p := range ps {
			ph := p.Helix
			t := ph.Phase + elapsed
			r := params.BaseRadius * ph.RadiusScale
			want := dynamo.Vec3{
				X: r * math.Cos(t),
				Y: t*params.VerticalSpeed + ph.YOffset,
				Z: r * math.Sin(t),
			}
			Expect(dynamo.Distance(p.Position, want)).To(BeNumerically("<", tol), "particle %d", i)
		}
	})

	It("depends only on elapsed time, not on earlier frames", func() {
		h := physics.NewHelix(params, dynamo.DefaultFields())
		direct := physics.SeedHelix(80, physics.NewRand(9))
		replay := append(dynamo.ParticleSet(nil), direct...)

		h.Step(direct, 4.5)
		for _, e := range []float64{0.1, 12, 3.3, 4.5} {
			h.Step(replay, e)
		}

		for i := range direct {
			Expect(replay[i].Position).To(Equal(direct[i].Position))
		}
	})

	It("matches a run with no fields when every field is inert", func() {
		inert := physics.NewHelix(params, inertFields())
		bare := physics.NewHelix(params, nil)
		a := physics.SeedHelix(60, physics.NewRand(1))
		b := append(dynamo.ParticleSet(nil), a...)

		for frame := 1; frame <= 30; frame++ {
			e := float64(frame) / 60
			inert.Step(a, e)
			bare.Step(b, e)
		}
		for i := range a {
			Expect(a[i].Position).To(Equal(b[i].Position))
		}
	})

	It("evaluates every field at the base position and sums them", func() {
		ph := dynamo.HelixPhase{Phase: 0, YOffset: 0, RadiusScale: 1}
		h := physics.NewHelix(params, nil)
		base := h.Base(ph, 0)
		Expect(base.X).To(BeNumerically("~", 6, tol))

		fields := []dynamo.ForceField{
			{Position: dynamo.Vec3{X: 5}, Strength: 1, Range: 3},
			{Position: dynamo.Vec3{X: 6, Y: 1}, Strength: 2, Range: 3},
		}
		h.Fields = fields

		want := r3.Add(base, r3.Add(
			field.Evaluate(base, 0, fields[0], field.HelixCoefficients),
			field.Evaluate(base, 0, fields[1], field.HelixCoefficients),
		))
		expectClose(h.Position(ph, 0), want)
		Expect(h.Position(ph, 0)).NotTo(Equal(base))
	})

	It("never mutates the phase parameters", func() {
		h := physics.NewHelix(params, dynamo.DefaultFields())
		ps := physics.SeedHelix(20, physics.NewRand(5))
		before := make([]dynamo.HelixPhase, len(ps))
		for i := range ps {
			before[i] = ps[i].Helix
		}
		for frame := 0; frame < 10; frame++ {
			h.Step(ps, float64(frame))
		}
		for i := range ps {
			Expect(ps[i].Helix).To(Equal(before[i]))
		}
	})

	It("seeds phases 0.2 rad apart within the documented ranges", func() {
		ps := physics.SeedHelix(200, physics.NewRand(42))
		Expect(ps).To(HaveLen(200))
		for i, p := range ps {
			Expect(p.Helix.Phase).To(BeNumerically("~", float64(i)*0.2, tol))
			Expect(p.Helix.YOffset).To(And(BeNumerically(">=", 0), BeNumerically("<", 2)))
			Expect(p.Helix.RadiusScale).To(And(BeNumerically(">=", 0.5), BeNumerically("<", 1)))
		}
	})
})
