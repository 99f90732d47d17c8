package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/helixflock/internal/dynamo"
	"github.com/san-kum/helixflock/internal/physics"
)

var _ = Describe("Flocking", func() {
	var params dynamo.Params

	BeforeEach(func() {
		params = dynamo.DefaultParams()
	})

	Context("clamps", func() {
		It("keeps every speed at or below MaxSpeed after every step", func() {
			fl := physics.NewFlocking(params, dynamo.DefaultFields())
			ps := physics.SeedFlock(200, physics.NewRand(17))

			for frame := 1; frame <= 120; frame++ {
				fl.Step(ps, float64(frame)/60)
				for i := range ps {
					Expect(dynamo.Length(ps[i].Velocity)).To(
						BeNumerically("<=", params.MaxSpeed+1e-12), "frame %d particle %d", frame, i)
				}
			}
		})

		It("keeps alignment and cohesion within MaxForce", func() {
			fl := physics.NewFlocking(params, nil)
			ps := physics.SeedFlock(150, physics.NewRand(23))
			pos := ps.Positions(nil)
			vel := ps.Velocities(nil)

			steered := 0
			for i := range ps {
				s := fl.Steer(i, pos, vel)
				Expect(dynamo.Length(s.Alignment)).To(BeNumerically("<=", params.MaxForce+1e-12))
				Expect(dynamo.Length(s.Cohesion)).To(BeNumerically("<=", params.MaxForce+1e-12))
				if s.CountCohesion > 0 {
					steered++
				}
			}
			Expect(steered).To(BeNumerically(">", 0))
		})
	})

	Context("neighbor scan", func() {
		It("finds symmetric separation neighbors", func() {
			ps := physics.SeedFlock(120, physics.NewRand(31))
			pos := ps.Positions(nil)

			for i := range pos {
				for _, j := range physics.Neighbors(pos, i, params.SeparationDistance) {
					Expect(physics.Neighbors(pos, j, params.SeparationDistance)).To(ContainElement(i))
				}
			}
		})

		It("agrees with the pair list", func() {
			ps := physics.SeedFlock(80, physics.NewRand(2))
			pos := ps.Positions(nil)
			total := 0
			for i := range pos {
				total += len(physics.Neighbors(pos, i, params.CohesionDistance))
			}
			Expect(total).To(Equal(2 * len(physics.Pairs(pos, params.CohesionDistance))))
		})

		It("weights closer neighbors more heavily in separation", func() {
			fl := physics.NewFlocking(params, nil)
			pos := []dynamo.Vec3{{}, {X: 0.5}}
			vel := make([]dynamo.Vec3, 2)
			near := fl.Steer(0, pos, vel).Separation

			pos[1] = dynamo.Vec3{X: 1}
			far := fl.Steer(0, pos, vel).Separation

			Expect(near.X).To(BeNumerically("~", -2, tol))
			Expect(far.X).To(BeNumerically("~", -1, tol))
		})
	})

	Context("degenerate input", func() {
		It("stays finite when two particles start at the same point", func() {
			fl := physics.NewFlocking(params, dynamo.DefaultFields())
			ps := dynamo.ParticleSet{
				{Position: dynamo.Vec3{X: 1, Y: 2, Z: 3}},
				{Position: dynamo.Vec3{X: 1, Y: 2, Z: 3}},
			}

			s := fl.Steer(0, ps.Positions(nil), ps.Velocities(nil))
			Expect(s.CountSeparation).To(Equal(0))
			Expect(s.CountCohesion).To(Equal(1))

			for frame := 1; frame <= 2000; frame++ {
				fl.Step(ps, float64(frame)/60)
				Expect(ps.IsValid()).To(BeTrue(), "frame %d", frame)
			}
		})

		It("handles an empty set", func() {
			fl := physics.NewFlocking(params, dynamo.DefaultFields())
			Expect(func() { fl.Step(dynamo.ParticleSet{}, 1) }).NotTo(Panic())
		})
	})

	Context("integration", func() {
		It("applies bias, clamps and moves a lone particle by one frame", func() {
			fl := physics.NewFlocking(params, nil)
			ps := dynamo.ParticleSet{{Velocity: dynamo.Vec3{X: 0.01}}}

			fl.Step(ps, 0)

			want := dynamo.Vec3{X: 0.01, Y: 0.005}
			expectClose(ps[0].Velocity, want)
			expectClose(ps[0].Position, want)

			fl.Step(ps, 1)
			expectClose(ps[0].Velocity, dynamo.Vec3{X: 0.01, Y: 0.01})
			expectClose(ps[0].Position, dynamo.Vec3{X: 0.02, Y: 0.015})
		})

		It("matches a run with no fields when every field is inert", func() {
			inert := physics.NewFlocking(params, inertFields())
			bare := physics.NewFlocking(params, nil)
			a := physics.SeedFlock(100, physics.NewRand(8))
			b := append(dynamo.ParticleSet(nil), a...)

			for frame := 1; frame <= 60; frame++ {
				e := float64(frame) / 60
				inert.Step(a, e)
				bare.Step(b, e)
			}
			for i := range a {
				Expect(a[i].Position).To(Equal(b[i].Position))
				Expect(a[i].Velocity).To(Equal(b[i].Velocity))
			}
		})

		It("does not depend on the order particles are stored in", func() {
			fwd := physics.NewFlocking(params, dynamo.DefaultFields())
			rev := physics.NewFlocking(params, dynamo.DefaultFields())
			a := physics.SeedFlock(90, physics.NewRand(13))
			b := make(dynamo.ParticleSet, len(a))
			for i := range a {
				b[len(a)-1-i] = a[i]
			}

			for frame := 1; frame <= 5; frame++ {
				e := float64(frame) / 60
				fwd.Step(a, e)
				rev.Step(b, e)
			}
			for i := range a {
				expectClose(a[i].Position, b[len(a)-1-i].Position)
			}
		})

		It("scales velocity and position by the real frame interval when asked", func() {
			params.FrameRateIndependent = true
			params.UpwardBias = dynamo.Vec3{}
			fl := physics.NewFlocking(params, nil)
			ps := dynamo.ParticleSet{{Velocity: dynamo.Vec3{X: 0.04}}}

			fl.Step(ps, 1.0/60)
			Expect(ps[0].Position.X).To(BeNumerically("~", 0.04, tol))

			// half a reference frame later
			fl.Step(ps, 1.0/60+1.0/120)
			Expect(ps[0].Position.X).To(BeNumerically("~", 0.06, tol))

			// a long stall is capped
			fl.Step(ps, 10)
			Expect(ps[0].Position.X).To(BeNumerically("~", 0.06+0.04*params.MaxFrameScale, tol))
		})

		It("covers the same ground at 60 and 120 frames per second", func() {
			params.FrameRateIndependent = true
			run := func(fps int) dynamo.Vec3 {
				fl := physics.NewFlocking(params, nil)
				ps := dynamo.ParticleSet{{}}
				for frame := 1; frame <= fps/10; frame++ {
					fl.Step(ps, float64(frame)/float64(fps))
				}
				return ps[0].Position
			}

			slow, fast := run(60), run(120)
			// six reference frames of bias: y = 0.005 * (1+...+6)
			Expect(slow.Y).To(BeNumerically("~", 0.105, tol))
			// halving the step moves toward the continuous limit 0.005*36/2
			Expect(fast.Y).To(BeNumerically("~", 0.0975, tol))
			Expect(math.Abs(fast.Y-slow.Y) / slow.Y).To(BeNumerically("<", 0.1))
		})

		It("keeps the unit step when frame-rate independence is off", func() {
			fl := physics.NewFlocking(params, nil)
			ps := dynamo.ParticleSet{{}}
			for frame := 1; frame <= 12; frame++ {
				fl.Step(ps, float64(frame)/120)
			}
			// 0.005 * (1+...+12)
			Expect(ps[0].Position.Y).To(BeNumerically("~", 0.39, tol))
		})
	})

	It("seeds positions and velocities inside the documented box", func() {
		ps := physics.SeedFlock(200, physics.NewRand(99))
		for _, p := range ps {
			Expect(p.Position.X).To(And(BeNumerically(">=", -10), BeNumerically("<", 10)))
			Expect(p.Position.Y).To(And(BeNumerically(">=", 0), BeNumerically("<", 10)))
			Expect(p.Velocity.Y).To(And(BeNumerically(">=", 0.02), BeNumerically("<", 0.07)))
		}
	})
})
