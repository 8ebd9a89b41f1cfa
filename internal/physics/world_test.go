package physics_test

import (
	"errors"
	"image/color"
	"math"
	"math/rand"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
)

const dt60 = 1.0 / 60

func frameMomentum(bodies []dynamo.BodyState) dynamo.Vec2 {
	return dynamo.Frame{Bodies: bodies}.Momentum()
}

func frameKinetic(bodies []dynamo.BodyState) float64 {
	return dynamo.Frame{Bodies: bodies}.KineticEnergy()
}

func expectSeparated(bodies []dynamo.BodyState, eps float64) {
	for i := 0; i < len(bodies); i++ {
		for j := i + 1; j < len(bodies); j++ {
			d := bodies[i].Pos.Dist(bodies[j].Pos)
			ExpectWithOffset(1, d).To(BeNumerically(">=", bodies[i].Radius+bodies[j].Radius-eps),
				"bodies %d and %d overlap", i, j)
		}
	}
}

func expectContained(bodies []dynamo.BodyState, arena physics.ArenaSpec) {
	for _, b := range bodies {
		ExpectWithOffset(1, b.Pos.X).To(BeNumerically(">=", b.Radius), "body %d left", b.ID)
		ExpectWithOffset(1, b.Pos.X).To(BeNumerically("<=", arena.Width-b.Radius), "body %d right", b.ID)
		ExpectWithOffset(1, b.Pos.Y).To(BeNumerically(">=", b.Radius), "body %d bottom", b.ID)
		ExpectWithOffset(1, b.Pos.Y).To(BeNumerically("<=", arena.Height-b.Radius), "body %d top", b.ID)
	}
}

// scatter places n bodies on a grid so none overlap, with random velocities.
func scatter(rng *rand.Rand, n int, arena physics.ArenaSpec) []physics.BodySpec {
	specs := make([]physics.BodySpec, 0, n)
	cols := 4
	cellW := arena.Width / float64(cols)
	cellH := arena.Height / float64((n+cols-1)/cols)
	for i := 0; i < n; i++ {
		r := 0.1 + rng.Float64()*0.1
		specs = append(specs, physics.BodySpec{
			Pos: dynamo.Vec2{
				X: cellW*float64(i%cols) + cellW/2,
				Y: cellH*float64(i/cols) + cellH/2,
			},
			Vel:     dynamo.Vec2{X: rng.Float64()*6 - 3, Y: rng.Float64()*6 - 3},
			Radius:  r,
			Density: 5 + rng.Float64()*20,
		})
	}
	return specs
}

var _ = Describe("World", func() {
	Describe("construction", func() {
		arena := physics.ArenaSpec{Width: 4, Height: 3, Gravity: -9.82}
		ball := physics.BodySpec{Pos: dynamo.Vec2{X: 1, Y: 1}, Radius: 0.2}

		DescribeTable("rejects invalid input",
			func(a physics.ArenaSpec, specs []physics.BodySpec, opts []physics.Option, want error) {
				w, err := physics.New(a, specs, opts...)
				Expect(w).To(BeNil())
				Expect(errors.Is(err, want)).To(BeTrue(), "got %v", err)
			},
			Entry("zero width", physics.ArenaSpec{Width: 0, Height: 3}, nil, nil, dynamo.ErrInvalidArena),
			Entry("negative height", physics.ArenaSpec{Width: 4, Height: -1}, nil, nil, dynamo.ErrInvalidArena),
			Entry("NaN gravity", physics.ArenaSpec{Width: 4, Height: 3, Gravity: math.NaN()}, nil, nil, dynamo.ErrInvalidArena),
			Entry("zero radius", arena, []physics.BodySpec{{Pos: ball.Pos}}, nil, dynamo.ErrInvalidBody),
			Entry("negative radius", arena, []physics.BodySpec{{Pos: ball.Pos, Radius: -0.1}}, nil, dynamo.ErrInvalidBody),
			Entry("negative density", arena, []physics.BodySpec{{Pos: ball.Pos, Radius: 0.2, Density: -1}}, nil, dynamo.ErrInvalidBody),
			Entry("NaN velocity", arena, []physics.BodySpec{{Pos: ball.Pos, Vel: dynamo.Vec2{X: math.NaN()}, Radius: 0.2}}, nil, dynamo.ErrInvalidBody),
			Entry("too large for the arena", arena, []physics.BodySpec{{Pos: ball.Pos, Radius: 1.6}}, nil, dynamo.ErrInvalidBody),
			Entry("single-color palette", arena, []physics.BodySpec{ball},
				[]physics.Option{physics.WithPalette(physics.Palette{{R: 1, A: 255}, {R: 1, A: 255}})}, dynamo.ErrInvalidPalette),
		)

		It("derives mass from density once", func() {
			w, err := physics.New(arena, []physics.BodySpec{ball, {Pos: dynamo.Vec2{X: 3, Y: 2}, Radius: 0.25, Density: 4}})
			Expect(err).NotTo(HaveOccurred())
			Expect(w.Body(0).Density()).To(Equal(physics.DefaultDensity))
			Expect(w.Body(0).Mass()).To(BeNumerically("~", 10*math.Pi*0.04, 1e-12))
			Expect(w.Body(1).Mass()).To(BeNumerically("~", 4*math.Pi*0.0625, 1e-12))

			m0, m1 := w.Body(0).Mass(), w.Body(1).Mass()
			for i := 0; i < 200; i++ {
				Expect(w.Step(dt60)).To(Succeed())
			}
			Expect(w.Body(0).Mass()).To(Equal(m0))
			Expect(w.Body(1).Mass()).To(Equal(m1))
			Expect(w.Body(0).Radius()).To(Equal(0.2))
		})

		It("treats zero density as unset", func() {
			b, err := physics.NewBody(0, physics.BodySpec{Pos: ball.Pos, Radius: 0.2})
			Expect(err).NotTo(HaveOccurred())
			Expect(b.Density()).To(Equal(physics.DefaultDensity))

			_, err = physics.NewBody(0, physics.BodySpec{Pos: ball.Pos, Radius: 0.2, Density: math.Inf(1)})
			Expect(errors.Is(err, dynamo.ErrInvalidBody)).To(BeTrue())
			_, err = physics.NewBody(0, physics.BodySpec{Pos: ball.Pos, Radius: 0.2, Density: math.NaN()})
			Expect(errors.Is(err, dynamo.ErrInvalidBody)).To(BeTrue())
		})

		It("assigns every body a palette color", func() {
			w, err := physics.New(arena, []physics.BodySpec{ball}, physics.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())
			Expect(physics.DefaultPalette).To(ContainElement(w.Bodies()[0].Color))
		})
	})

	Describe("Step", func() {
		It("rejects non-positive dt and keeps state", func() {
			w, err := physics.New(physics.ArenaSpec{Width: 4, Height: 4, Gravity: -9.82},
				[]physics.BodySpec{{Pos: dynamo.Vec2{X: 2, Y: 2}, Vel: dynamo.Vec2{X: 1}, Radius: 0.2}})
			Expect(err).NotTo(HaveOccurred())
			before := w.Bodies()

			for _, dt := range []float64{0, -0.1, math.NaN(), math.Inf(1)} {
				err := w.Step(dt)
				Expect(errors.Is(err, dynamo.ErrInvalidStep)).To(BeTrue(), "dt=%v", dt)
			}
			Expect(w.Bodies()).To(Equal(before))
			Expect(w.Steps()).To(Equal(0))
		})

		It("applies gravity then integrates with forward Euler", func() {
			w, err := physics.New(physics.ArenaSpec{Width: 4, Height: 4, Gravity: -10},
				[]physics.BodySpec{{Pos: dynamo.Vec2{X: 1, Y: 3}, Vel: dynamo.Vec2{X: 0.5, Y: 0}, Radius: 0.1}})
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Step(0.1)).To(Succeed())
			b := w.Bodies()[0]
			Expect(b.Vel.Y).To(BeNumerically("~", -1, 1e-12))
			Expect(b.Pos.Y).To(BeNumerically("~", 2.9, 1e-12))
			Expect(b.Pos.X).To(BeNumerically("~", 1.05, 1e-12))
			Expect(w.Time()).To(BeNumerically("~", 0.1, 1e-12))
		})

		It("clamps a ball at the right wall and reverses it", func() {
			w, err := physics.New(physics.ArenaSpec{Width: 4, Height: 4, Gravity: 0},
				[]physics.BodySpec{{Pos: dynamo.Vec2{X: 3.9, Y: 2}, Vel: dynamo.Vec2{X: 1}, Radius: 0.2}})
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Step(0.2)).To(Succeed())
			b := w.Bodies()[0]
			Expect(b.Pos.X).To(BeNumerically("~", 4-0.2, 1e-12))
			Expect(b.Vel.X).To(Equal(-1.0))

			events := w.Events()
			Expect(events).To(HaveLen(1))
			Expect(events[0].Kind).To(Equal(dynamo.BallWall))
			Expect(events[0].Wall).To(Equal(dynamo.Right))
		})

		It("clamps at the floor under gravity", func() {
			w, err := physics.New(physics.ArenaSpec{Width: 4, Height: 4, Gravity: -9.82},
				[]physics.BodySpec{{Pos: dynamo.Vec2{X: 2, Y: 0.21}, Vel: dynamo.Vec2{Y: -3}, Radius: 0.2}})
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Step(dt60)).To(Succeed())
			b := w.Bodies()[0]
			Expect(b.Pos.Y).To(Equal(0.2))
			Expect(b.Vel.Y).To(BeNumerically(">", 0))
		})

		It("swaps velocities in the equal-mass head-on scenario", func() {
			w, err := physics.New(physics.ArenaSpec{Width: 4, Height: 4, Gravity: 0}, []physics.BodySpec{
				{Pos: dynamo.Vec2{X: 1.5, Y: 2}, Vel: dynamo.Vec2{X: 1}, Radius: 0.2},
				{Pos: dynamo.Vec2{X: 2.5, Y: 2}, Vel: dynamo.Vec2{X: -1}, Radius: 0.2},
			})
			Expect(err).NotTo(HaveOccurred())

			collided := false
			for i := 0; i < 60; i++ {
				Expect(w.Step(dt60)).To(Succeed())
				for _, e := range w.Events() {
					if e.Kind == dynamo.BallBall {
						collided = true
					}
				}
			}
			Expect(collided).To(BeTrue())

			bodies := w.Bodies()
			Expect(bodies[0].Vel.X).To(BeNumerically("~", -1, 1e-12))
			Expect(bodies[1].Vel.X).To(BeNumerically("~", 1, 1e-12))
			Expect(bodies[0].Vel.Y).To(BeNumerically("~", 0, 1e-12))
			Expect(bodies[0].Pos.X).To(BeNumerically("<", bodies[1].Pos.X))
		})

		It("separates bodies placed on the same center", func() {
			w, err := physics.New(physics.ArenaSpec{Width: 4, Height: 4}, []physics.BodySpec{
				{Pos: dynamo.Vec2{X: 2, Y: 2}, Radius: 0.2},
				{Pos: dynamo.Vec2{X: 2, Y: 2}, Radius: 0.3},
			})
			Expect(err).NotTo(HaveOccurred())

			Expect(w.Step(dt60)).To(Succeed())
			bodies := w.Bodies()
			Expect(bodies[0].IsValid()).To(BeTrue())
			Expect(bodies[1].IsValid()).To(BeTrue())
			Expect(bodies[0].Pos.Dist(bodies[1].Pos)).To(BeNumerically("~", 0.5, 1e-12))
		})
	})

	Describe("conservation", func() {
		var (
			arena physics.ArenaSpec
			specs []physics.BodySpec
		)

		BeforeEach(func() {
			specs = []physics.BodySpec{
				{Pos: dynamo.Vec2{X: 1.5, Y: 2.05}, Vel: dynamo.Vec2{X: 1.2, Y: 0.1}, Radius: 0.25, Density: 10},
				{Pos: dynamo.Vec2{X: 2.5, Y: 1.95}, Vel: dynamo.Vec2{X: -0.8, Y: -0.2}, Radius: 0.15, Density: 30},
			}
		})

		It("conserves momentum and kinetic energy with gravity off", func() {
			arena = physics.ArenaSpec{Width: 4, Height: 4, Gravity: 0}
			w, err := physics.New(arena, specs)
			Expect(err).NotTo(HaveOccurred())

			p0, e0 := frameMomentum(w.Bodies()), frameKinetic(w.Bodies())
			hit := false
			for i := 0; i < 40; i++ {
				Expect(w.Step(dt60)).To(Succeed())
				for _, e := range w.Events() {
					Expect(e.Kind).To(Equal(dynamo.BallBall), "no wall contact expected")
					hit = true
				}
				p := frameMomentum(w.Bodies())
				Expect(p.Near(p0, 1e-9)).To(BeTrue(), "step %d: %v vs %v", i, p, p0)
				Expect(frameKinetic(w.Bodies())).To(BeNumerically("~", e0, 1e-9))
			}
			Expect(hit).To(BeTrue())
		})

		It("changes momentum only by the gravity impulse", func() {
			arena = physics.ArenaSpec{Width: 4, Height: 4, Gravity: -9.82}
			w, err := physics.New(arena, specs)
			Expect(err).NotTo(HaveOccurred())

			totalMass := w.Body(0).Mass() + w.Body(1).Mass()
			for i := 0; i < 30; i++ {
				p0 := frameMomentum(w.Bodies())
				Expect(w.Step(dt60)).To(Succeed())
				for _, e := range w.Events() {
					Expect(e.Kind).To(Equal(dynamo.BallBall))
				}
				p1 := frameMomentum(w.Bodies())
				Expect(p1.X).To(BeNumerically("~", p0.X, 1e-9))
				Expect(p1.Y - p0.Y).To(BeNumerically("~", totalMass*arena.Gravity*dt60, 1e-9))
			}
		})
	})

	Describe("invariants over long runs", func() {
		DescribeTable("keeps bodies apart and inside the arena",
			func(gravity float64, n int, seed int64) {
				arena := physics.ArenaSpec{Width: 4, Height: 4, Gravity: gravity}
				rng := rand.New(rand.NewSource(seed))
				w, err := physics.New(arena, scatter(rng, n, arena), physics.WithSeed(seed))
				Expect(err).NotTo(HaveOccurred())

				for i := 0; i < 600; i++ {
					Expect(w.Step(dt60)).To(Succeed())
					bodies := w.Bodies()
					expectContained(bodies, arena)
					expectSeparated(bodies, 1e-6)
				}
			},
			Entry("zero gravity, two bodies", 0.0, 2, int64(1)),
			Entry("zero gravity, five bodies", 0.0, 5, int64(7)),
			Entry("earth gravity, two bodies", -9.82, 2, int64(11)),
			Entry("earth gravity, three bodies", -9.82, 3, int64(5)),
		)

		It("bounds residual overlap in a densely packed arena", func() {
			arena := physics.ArenaSpec{Width: 1.6, Height: 1.2, Gravity: -9.82}
			rng := rand.New(rand.NewSource(3))
			w, err := physics.New(arena, scatter(rng, 12, arena), physics.WithSeed(3))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 2000; i++ {
				Expect(w.Step(dt60)).To(Succeed())
				bodies := w.Bodies()
				expectContained(bodies, arena)
				expectSeparated(bodies, 1e-3)
			}
		})

		It("keeps the classic two-ball scene contained", func() {
			arena := physics.ArenaSpec{Width: 4, Height: 3, Gravity: -9.82}
			w, err := physics.New(arena, []physics.BodySpec{
				{Pos: dynamo.Vec2{X: 3.5, Y: 3 - 0.25}, Vel: dynamo.Vec2{X: 2, Y: -2}, Radius: 0.25},
				{Pos: dynamo.Vec2{X: 1, Y: 2}, Vel: dynamo.Vec2{X: 3, Y: 0.5}, Radius: 0.2},
			})
			Expect(err).NotTo(HaveOccurred())
			for i := 0; i < 1200; i++ {
				Expect(w.Step(dt60)).To(Succeed())
				expectContained(w.Bodies(), arena)
				expectSeparated(w.Bodies(), 1e-6)
			}
		})
	})

	Describe("determinism", func() {
		It("reproduces trajectories and colors bit for bit", func() {
			arena := physics.ArenaSpec{Width: 4, Height: 4, Gravity: -9.82}
			specs := scatter(rand.New(rand.NewSource(99)), 6, arena)

			a, err := physics.New(arena, specs, physics.WithSeed(42))
			Expect(err).NotTo(HaveOccurred())
			b, err := physics.New(arena, specs, physics.WithSeed(42))
			Expect(err).NotTo(HaveOccurred())

			for i := 0; i < 500; i++ {
				Expect(a.Step(dt60)).To(Succeed())
				Expect(b.Step(dt60)).To(Succeed())
				Expect(a.Bodies()).To(Equal(b.Bodies()))
				Expect(a.Events()).To(Equal(b.Events()))
			}
		})
	})

	Describe("color policy", func() {
		It("recolors exactly the bodies that touched something", func() {
			arena := physics.ArenaSpec{Width: 3, Height: 3, Gravity: -9.82}
			specs := scatter(rand.New(rand.NewSource(4)), 5, arena)
			w, err := physics.New(arena, specs, physics.WithSeed(8))
			Expect(err).NotTo(HaveOccurred())

			changes := 0
			for i := 0; i < 600; i++ {
				before := w.Bodies()
				Expect(w.Step(dt60)).To(Succeed())
				after := w.Bodies()

				involved := make(map[int]bool)
				for _, e := range w.Events() {
					involved[e.A] = true
					if e.B >= 0 {
						involved[e.B] = true
					}
				}
				for j := range after {
					if involved[j] {
						Expect(after[j].Color).NotTo(Equal(before[j].Color), "step %d body %d", i, j)
						changes++
					} else {
						Expect(after[j].Color).To(Equal(before[j].Color), "step %d body %d", i, j)
					}
				}
			}
			Expect(changes).To(BeNumerically(">", 0))
		})

		It("works with a two-color palette", func() {
			red := color.RGBA{R: 255, A: 255}
			blue := color.RGBA{B: 255, A: 255}
			w, err := physics.New(physics.ArenaSpec{Width: 1, Height: 1},
				[]physics.BodySpec{{Pos: dynamo.Vec2{X: 0.5, Y: 0.5}, Vel: dynamo.Vec2{X: 5}, Radius: 0.1}},
				physics.WithPalette(physics.Palette{red, blue}), physics.WithSeed(1))
			Expect(err).NotTo(HaveOccurred())

			last := w.Bodies()[0].Color
			for i := 0; i < 300; i++ {
				Expect(w.Step(dt60)).To(Succeed())
				c := w.Bodies()[0].Color
				Expect(c).To(Or(Equal(red), Equal(blue)))
				if len(w.Events()) > 0 {
					Expect(c).NotTo(Equal(last))
				}
				last = c
			}
		})
	})
})

var _ = Describe("ColorPicker", func() {
	It("never returns the previous color", func() {
		p, err := physics.NewColorPicker(physics.DefaultPalette, 5)
		Expect(err).NotTo(HaveOccurred())
		prev := p.Any()
		for i := 0; i < 1000; i++ {
			next := p.Next(prev)
			Expect(next).NotTo(Equal(prev))
			Expect(physics.DefaultPalette).To(ContainElement(next))
			prev = next
		}
	})

	It("is reproducible for a seed", func() {
		a, _ := physics.NewColorPicker(physics.DefaultPalette, 17)
		b, _ := physics.NewColorPicker(physics.DefaultPalette, 17)
		for i := 0; i < 50; i++ {
			Expect(a.Any()).To(Equal(b.Any()))
		}
	})

	It("rejects a nil source", func() {
		_, err := physics.NewColorPickerRand(physics.DefaultPalette, nil)
		Expect(err).To(HaveOccurred())
	})
})
