package tanks_test

import (
	"errors"
	"math"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/tanksim/internal/tanks"
)

var _ = Describe("Parameters", func() {
	It("defaults to the reference rig", func() {
		p, err := tanks.NewParameters()
		Expect(err).NotTo(HaveOccurred())
		Expect(p).To(Equal(tanks.Reference()))
		Expect(p.PumpGain).To(Equal(3.3))
		Expect(p.PumpVoltage).To(Equal(2.7))
		Expect(p.Gravity).To(Equal(981.0))
		Expect(p.MaxHeight).To(Equal(30.0))
	})

	It("derives areas from diameters", func() {
		p := tanks.Reference()
		Expect(p.OutletArea(tanks.Tank1)).To(BeNumerically("~", math.Pi*0.47625*0.47625/4, 1e-15))
		Expect(p.TankArea(tanks.Tank2)).To(BeNumerically("~", math.Pi*(4.445/2)*(4.445/2)/4, 1e-15))
	})

	It("overrides each parameter independently", func() {
		p, err := tanks.NewParameters(
			tanks.WithPumpGain(2),
			tanks.WithPumpVoltage(5),
			tanks.WithGravity(9.81),
			tanks.WithOutletDiameter(tanks.Tank2, 0.3),
			tanks.WithTankDiameter(tanks.Tank1, 6),
			tanks.WithMaxHeight(25),
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(p.Inflow(1)).To(Equal(10.0))
		Expect(p.Gravity).To(Equal(9.81))
		Expect(p.OutletDiameter).To(Equal([2]float64{tanks.ReferenceOutletDiameter, 0.3}))
		Expect(p.TankDiameter).To(Equal([2]float64{6, tanks.ReferenceTankDiameter}))
		Expect(p.MaxHeight).To(Equal(25.0))
	})

	It("allows a stopped pump", func() {
		_, err := tanks.NewParameters(tanks.WithPumpVoltage(0))
		Expect(err).NotTo(HaveOccurred())
	})

	DescribeTable("rejects out-of-range values with a ConfigurationError",
		func(opt tanks.Option, param string) {
			_, err := tanks.NewParameters(opt)
			var ce *tanks.ConfigurationError
			Expect(errors.As(err, &ce)).To(BeTrue())
			Expect(ce.Param).To(Equal(param))
		},
		Entry("zero gravity", tanks.WithGravity(0), "g"),
		Entry("negative outlet 1", tanks.WithOutletDiameter(tanks.Tank1, -0.1), "dout1"),
		Entry("zero tank 2", tanks.WithTankDiameter(tanks.Tank2, 0), "dtank2"),
		Entry("negative pump gain", tanks.WithPumpGain(-1), "kp"),
		Entry("zero max height", tanks.WithMaxHeight(0), "hmax"),
		Entry("NaN voltage", tanks.WithPumpVoltage(math.NaN()), "vp"),
	)

	It("rejects an unknown tank", func() {
		_, err := tanks.NewParameters(tanks.WithTankDiameter(tanks.Tank(3), 1))
		Expect(err).To(MatchError(ContainSubstring("unknown tank")))
	})

	It("lists parameters by override name", func() {
		params := tanks.Reference().Params()
		Expect(params).To(HaveLen(8))
		Expect(params).To(HaveKeyWithValue("dout2", tanks.ReferenceOutletDiameter))
	})
})
