package tanks_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tanksim/internal/tanks"
)

var _ = Describe("Model", func() {
	var (
		params tanks.Parameters
		model  *tanks.Model
	)

	BeforeEach(func() {
		params = tanks.Reference()
		model = tanks.NewModel(params, tanks.ClampToZero)
	})

	Context("with empty tanks", func() {
		It("fills tank 1 at Kp·Vp/At1 and leaves tank 2 still", func() {
			dh1, dh2, err := model.Rates(0, 0, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dh1).To(Equal(params.PumpGain * params.PumpVoltage / model.TankArea(tanks.Tank1)))
			Expect(dh1).To(BeNumerically(">", 0))
			Expect(dh2).To(Equal(0.0))
		})

		It("scales the inflow with the pump command", func() {
			full, _, _ := model.Rates(0, 0, 1, 0)
			half, _, _ := model.Rates(0, 0, 0.5, 0)
			Expect(half).To(BeNumerically("~", full/2, 1e-12))
		})
	})

	Context("with the pump stopped", func() {
		var stopped *tanks.Model

		BeforeEach(func() {
			p, err := tanks.NewParameters(tanks.WithPumpVoltage(0))
			Expect(err).NotTo(HaveOccurred())
			stopped = tanks.NewModel(p, tanks.ClampToZero)
		})

		It("stays at rest when both tanks are empty", func() {
			dh1, dh2, err := stopped.Rates(0, 0, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dh1).To(Equal(0.0))
			Expect(dh2).To(Equal(0.0))
		})

		DescribeTable("never gains liquid",
			func(h1, h2 float64) {
				dh1, dh2, err := stopped.Rates(h1, h2, 1, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(dh1).To(BeNumerically("<=", 0))
				Expect(stopped.Volume(dh1, dh2)).To(BeNumerically("<=", 1e-12))
			},
			Entry("tank 1 only", 12.0, 0.0),
			Entry("tank 2 only", 0.0, 12.0),
			Entry("both", 5.0, 20.0),
			Entry("above Hmax", 40.0, 35.0),
		)
	})

	It("balances inflow and outflow at the steady-state height", func() {
		inflow := params.Inflow(1)
		a1 := model.OutletArea(tanks.Tank1)
		h1ss := (inflow / a1) * (inflow / a1) / (2 * params.Gravity)

		dh1, _, err := model.Rates(h1ss, 0, 1, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dh1).To(BeNumerically("~", 0, 1e-9))
	})

	It("conserves volume: storage rate is inflow minus tank 2 discharge", func() {
		h1, h2, u := 7.0, 3.0, 0.8
		dh1, dh2, err := model.Rates(h1, h2, u, 0)
		Expect(err).NotTo(HaveOccurred())
		q2, err := model.Outflow(tanks.Tank2, h2, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(model.Volume(dh1, dh2)).To(BeNumerically("~", params.Inflow(u)-q2, 1e-9))
	})

	Describe("height clamp", func() {
		It("bounds heights at sqrt(2·Hmax·g)", func() {
			Expect(model.HeightBound()).To(Equal(math.Sqrt(2 * 30 * 981)))
		})

		DescribeTable("is idempotent",
			func(scale float64) {
				bound := model.HeightBound()
				h := scale * bound
				once := tanks.ClampHeight(h, bound)
				Expect(tanks.ClampHeight(once, bound)).To(Equal(once))
				Expect(math.Abs(once)).To(BeNumerically("<=", bound))
			},
			Entry("at the bound", 1.0),
			Entry("beyond the bound", 1.5),
			Entry("far below", -3.0),
			Entry("inside", 0.25),
			Entry("zero", 0.0),
		)

		It("treats heights at and beyond the bound identically", func() {
			bound := model.HeightBound()
			at1, at2, err := model.Rates(bound, bound, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			over1, over2, err := model.Rates(2*bound, 10*bound, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(over1).To(Equal(at1))
			Expect(over2).To(Equal(at2))
		})
	})

	Describe("negative radicand", func() {
		It("discharges nothing under ClampToZero", func() {
			dh1, dh2, err := model.Rates(-2, -1, 1, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(dh1).To(Equal(params.Inflow(1) / model.TankArea(tanks.Tank1)))
			Expect(dh2).To(Equal(0.0))
		})

		It("fails with a DomainError under Strict", func() {
			strict := tanks.NewModel(params, tanks.Strict)
			_, _, err := strict.Rates(1, -0.5, 1, 4.2)

			var de *tanks.DomainError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Tank).To(Equal(tanks.Tank2))
			Expect(de.Height).To(Equal(-0.5))
			Expect(de.Time).To(Equal(4.2))
			Expect(err.Error()).To(ContainSubstring("tank 2"))
		})

		It("reports the unclamped height", func() {
			strict := tanks.NewModel(params, tanks.Strict)
			_, _, err := strict.Rates(-500, 0, 1, 1)

			var de *tanks.DomainError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Tank).To(Equal(tanks.Tank1))
			Expect(de.Height).To(Equal(-500.0))
		})
	})

	Describe("ReferenceRates", func() {
		It("feeds tank 1's rate into tank 2's discharge law", func() {
			dh1, dh2, err := model.ReferenceRates(0, 0, 0)
			Expect(err).NotTo(HaveOccurred())

			aliased := model.OutletArea(tanks.Tank1) * math.Sqrt(2*params.Gravity*dh1) / model.TankArea(tanks.Tank2)
			Expect(dh2).To(Equal(aliased))
			Expect(dh2).To(BeNumerically(">", 0))
		})

		It("ignores the pump command", func() {
			ref, _, _ := model.ReferenceRates(3, 0, 0)
			full, _, _ := model.Rates(3, 0, 1, 0)
			Expect(ref).To(Equal(full))
		})

		It("trips Strict once tank 1 drains", func() {
			strict := tanks.NewModel(params, tanks.Strict)
			_, _, err := strict.ReferenceRates(100, 0, 1)
			var de *tanks.DomainError
			Expect(errors.As(err, &de)).To(BeTrue())
			Expect(de.Tank).To(Equal(tanks.Tank1))
			Expect(de.Height).To(BeNumerically("<", 0))
		})
	})

	It("parses policies", func() {
		p, err := tanks.ParsePolicy("strict")
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(tanks.Strict))
		Expect(p.String()).To(Equal("strict"))

		_, err = tanks.ParsePolicy("ignore")
		Expect(err).To(HaveOccurred())
	})
})
