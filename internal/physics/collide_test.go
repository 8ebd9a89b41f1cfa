package physics_test

import (
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/bounce/internal/dynamo"
	"github.com/san-kum/bounce/internal/physics"
)

func mustBody(id int, spec physics.BodySpec) physics.Body {
	b, err := physics.NewBody(id, spec)
	Expect(err).NotTo(HaveOccurred())
	return b
}

func kinetic(bodies ...physics.Body) float64 {
	ke := 0.0
	for _, b := range bodies {
		ke += 0.5 * b.Mass() * b.Vel.LenSq()
	}
	return ke
}

func momentum(bodies ...physics.Body) dynamo.Vec2 {
	var p dynamo.Vec2
	for _, b := range bodies {
		p = p.Add(b.Vel.Scale(b.Mass()))
	}
	return p
}

var _ = Describe("Collide", func() {
	It("leaves separated bodies alone", func() {
		a := mustBody(0, physics.BodySpec{Pos: dynamo.Vec2{X: 0, Y: 0}, Vel: dynamo.Vec2{X: 1}, Radius: 0.2})
		b := mustBody(1, physics.BodySpec{Pos: dynamo.Vec2{X: 1, Y: 0}, Vel: dynamo.Vec2{X: -1}, Radius: 0.2})

		a2, b2, _, ok := physics.Collide(a, b)
		Expect(ok).To(BeFalse())
		Expect(a2).To(Equal(a))
		Expect(b2).To(Equal(b))
	})

	It("exchanges velocities in an equal-mass head-on hit", func() {
		a := mustBody(0, physics.BodySpec{Pos: dynamo.Vec2{X: 0, Y: 1}, Vel: dynamo.Vec2{X: 1}, Radius: 0.2})
		b := mustBody(1, physics.BodySpec{Pos: dynamo.Vec2{X: 0.3, Y: 1}, Vel: dynamo.Vec2{X: -1}, Radius: 0.2})

		a2, b2, c, ok := physics.Collide(a, b)
		Expect(ok).To(BeTrue())
		Expect(c.Bounced).To(BeTrue())
		Expect(c.Speed).To(BeNumerically("~", 2, 1e-12))
		Expect(a2.Vel.X).To(BeNumerically("~", -1, 1e-12))
		Expect(b2.Vel.X).To(BeNumerically("~", 1, 1e-12))
		Expect(a2.Pos.Dist(b2.Pos)).To(BeNumerically("~", 0.4, 1e-12))
	})

	It("splits the penetration symmetrically along the line of centers", func() {
		a := mustBody(0, physics.BodySpec{Pos: dynamo.Vec2{X: 1, Y: 1}, Radius: 0.3})
		b := mustBody(1, physics.BodySpec{Pos: dynamo.Vec2{X: 1.3, Y: 1.4}, Radius: 0.5})

		a2, b2, c, ok := physics.Collide(a, b)
		Expect(ok).To(BeTrue())
		Expect(c.Overlap).To(BeNumerically("~", (0.8-0.5)/2, 1e-12))
		Expect(c.Normal.X).To(BeNumerically("~", 0.6, 1e-12))
		Expect(c.Normal.Y).To(BeNumerically("~", 0.8, 1e-12))
		Expect(a.Pos.Dist(a2.Pos)).To(BeNumerically("~", c.Overlap, 1e-12))
		Expect(b.Pos.Dist(b2.Pos)).To(BeNumerically("~", c.Overlap, 1e-12))
		Expect(a2.Pos.Dist(b2.Pos)).To(BeNumerically("~", 0.8, 1e-12))
	})

	It("conserves momentum and kinetic energy for unequal masses", func() {
		a := mustBody(0, physics.BodySpec{Pos: dynamo.Vec2{X: 1, Y: 1}, Vel: dynamo.Vec2{X: 2.5, Y: -0.7}, Radius: 0.25, Density: 10})
		b := mustBody(1, physics.BodySpec{Pos: dynamo.Vec2{X: 1.35, Y: 1.2}, Vel: dynamo.Vec2{X: -0.4, Y: 1.1}, Radius: 0.2, Density: 35})

		a2, b2, c, ok := physics.Collide(a, b)
		Expect(ok).To(BeTrue())
		Expect(c.Bounced).To(BeTrue())

		p0, p1 := momentum(a, b), momentum(a2, b2)
		Expect(p1.X).To(BeNumerically("~", p0.X, 1e-9))
		Expect(p1.Y).To(BeNumerically("~", p0.Y, 1e-9))
		Expect(kinetic(a2, b2)).To(BeNumerically("~", kinetic(a, b), 1e-9))
	})

	It("keeps tangential velocity components", func() {
		a := mustBody(0, physics.BodySpec{Pos: dynamo.Vec2{X: 0, Y: 0}, Vel: dynamo.Vec2{X: 1, Y: 3}, Radius: 0.2})
		b := mustBody(1, physics.BodySpec{Pos: dynamo.Vec2{X: 0.3, Y: 0}, Vel: dynamo.Vec2{X: 0, Y: -2}, Radius: 0.2})

		a2, b2, _, ok := physics.Collide(a, b)
		Expect(ok).To(BeTrue())
		Expect(a2.Vel.Y).To(BeNumerically("~", 3, 1e-12))
		Expect(b2.Vel.Y).To(BeNumerically("~", -2, 1e-12))
	})

	It("only corrects position for a pair already moving apart", func() {
		a := mustBody(0, physics.BodySpec{Pos: dynamo.Vec2{X: 0, Y: 0}, Vel: dynamo.Vec2{X: -1}, Radius: 0.2})
		b := mustBody(1, physics.BodySpec{Pos: dynamo.Vec2{X: 0.3, Y: 0}, Vel: dynamo.Vec2{X: 1}, Radius: 0.2})

		a2, b2, c, ok := physics.Collide(a, b)
		Expect(ok).To(BeTrue())
		Expect(c.Bounced).To(BeFalse())
		Expect(a2.Vel).To(Equal(a.Vel))
		Expect(b2.Vel).To(Equal(b.Vel))
		Expect(a2.Pos.Dist(b2.Pos)).To(BeNumerically("~", 0.4, 1e-12))
	})

	It("separates coincident centers without producing NaN", func() {
		a := mustBody(0, physics.BodySpec{Pos: dynamo.Vec2{X: 2, Y: 2}, Vel: dynamo.Vec2{X: 1}, Radius: 0.2})
		b := mustBody(1, physics.BodySpec{Pos: dynamo.Vec2{X: 2, Y: 2}, Vel: dynamo.Vec2{X: -1}, Radius: 0.2})

		a2, b2, c, ok := physics.Collide(a, b)
		Expect(ok).To(BeTrue())
		Expect(c.Normal).To(Equal(dynamo.Vec2{X: 1, Y: 0}))
		Expect(a2.Pos.IsFinite()).To(BeTrue())
		Expect(b2.Pos.IsFinite()).To(BeTrue())
		Expect(a2.Vel.IsFinite()).To(BeTrue())
		Expect(b2.Vel.IsFinite()).To(BeTrue())
		Expect(a2.Pos.Dist(b2.Pos)).To(BeNumerically("~", 0.4, 1e-12))
	})
})

var _ = Describe("ElasticVelocities", func() {
	DescribeTable("conserves momentum and energy",
		func(m1, m2 float64, v1, v2 dynamo.Vec2, angle float64) {
			n := dynamo.Vec2{X: math.Cos(angle), Y: math.Sin(angle)}
			w1, w2 := physics.ElasticVelocities(v1, v2, m1, m2, n)

			p0 := v1.Scale(m1).Add(v2.Scale(m2))
			p1 := w1.Scale(m1).Add(w2.Scale(m2))
			Expect(p1.Near(p0, 1e-9)).To(BeTrue())

			e0 := 0.5*m1*v1.LenSq() + 0.5*m2*v2.LenSq()
			e1 := 0.5*m1*w1.LenSq() + 0.5*m2*w2.LenSq()
			Expect(e1).To(BeNumerically("~", e0, 1e-9))
		},
		Entry("equal masses", 1.0, 1.0, dynamo.Vec2{X: 1}, dynamo.Vec2{X: -1}, 0.0),
		Entry("heavy on light", 50.0, 1.0, dynamo.Vec2{X: 2, Y: 1}, dynamo.Vec2{}, 0.3),
		Entry("light on heavy", 0.1, 9.0, dynamo.Vec2{X: -3, Y: 4}, dynamo.Vec2{X: 0.5, Y: -0.5}, 2.1),
		Entry("oblique", 1.96, 1.26, dynamo.Vec2{X: 2, Y: -2}, dynamo.Vec2{X: 3, Y: 0.5}, -1.2),
	)

	It("leaves a light body at rest after hitting an equal one dead on", func() {
		w1, w2 := physics.ElasticVelocities(dynamo.Vec2{X: 2}, dynamo.Vec2{}, 1, 1, dynamo.Vec2{X: 1})
		Expect(w1.Near(dynamo.Vec2{}, 1e-12)).To(BeTrue())
		Expect(w2.Near(dynamo.Vec2{X: 2}, 1e-12)).To(BeTrue())
	})
})
