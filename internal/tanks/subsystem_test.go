package tanks_test

import (
	"errors"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tanksim/internal/dynamo"
	"github.com/san-kum/tanksim/internal/tanks"
)

var _ = Describe("Subsystem", func() {
	var model *tanks.Model

	BeforeEach(func() {
		model = tanks.NewModel(tanks.Reference(), tanks.ClampToZero)
	})

	It("integrates both heights in the cascade", func() {
		sys := tanks.NewCascade(model)
		Expect(sys.Name()).To(Equal("cascade"))
		Expect(sys.StateDim()).To(Equal(2))
		Expect(sys.ControlDim()).To(Equal(1))
		Expect(sys.Outputs()).To(Equal([]string{tanks.OutputH1, tanks.OutputH2}))

		dx, err := sys.Derive(dynamo.State{10, 2}, dynamo.Control{1}, 0)
		Expect(err).NotTo(HaveOccurred())
		dh1, dh2, _ := model.Rates(10, 2, 1, 0)
		Expect(dx).To(Equal(dynamo.State{dh1, dh2}))

		Expect(sys.Output(dynamo.State{10, 2})).To(Equal([]float64{10, 2}))
	})

	It("freezes tank 2 in the tank1 subsystem", func() {
		sys := tanks.NewTank1(model)
		dx, err := sys.Derive(dynamo.State{10, 2}, dynamo.Control{1}, 0)
		Expect(err).NotTo(HaveOccurred())
		dh1, _, _ := model.Rates(10, 2, 1, 0)
		Expect(dx).To(Equal(dynamo.State{dh1, 0}))
		Expect(sys.Outputs()).To(Equal([]string{tanks.OutputH1}))
		Expect(sys.Output(dynamo.State{10, 2})).To(Equal([]float64{10}))
	})

	It("freezes tank 1 in the tank2 subsystem", func() {
		sys := tanks.NewTank2(model)
		dx, err := sys.Derive(dynamo.State{10, 2}, dynamo.Control{1}, 0)
		Expect(err).NotTo(HaveOccurred())
		_, dh2, _ := model.Rates(10, 2, 1, 0)
		Expect(dx).To(Equal(dynamo.State{0, dh2}))
		Expect(dh2).To(BeNumerically(">", 0))
		Expect(sys.Output(dynamo.State{10, 2})).To(Equal([]float64{2}))
	})

	It("uses the aliased rates in the reference variant", func() {
		sys := tanks.NewReference(model, tanks.Tank2)
		Expect(sys.Name()).To(Equal("reference-tank2"))
		dx, err := sys.Derive(dynamo.State{0, 0}, dynamo.Control{0}, 0)
		Expect(err).NotTo(HaveOccurred())
		Expect(dx[0]).To(Equal(0.0))
		Expect(dx[1]).To(BeNumerically(">", 0))
	})

	It("rejects a state of the wrong size", func() {
		_, err := tanks.NewCascade(model).Derive(dynamo.State{1}, dynamo.Control{1}, 0)
		Expect(errors.Is(err, dynamo.ErrDimensionMismatch)).To(BeTrue())
	})

	It("passes model failures through", func() {
		strict := tanks.NewModel(tanks.Reference(), tanks.Strict)
		_, err := tanks.NewTank1(strict).Derive(dynamo.State{-1, 0}, dynamo.Control{1}, 0)
		var de *tanks.DomainError
		Expect(errors.As(err, &de)).To(BeTrue())
	})
})
