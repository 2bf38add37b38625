package sim_test

import (
	"context"
	"errors"
	"math"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/san-kum/dedx/internal/curve"
	"github.com/san-kum/dedx/internal/integrators"
	"github.com/san-kum/dedx/internal/metrics"
	"github.com/san-kum/dedx/internal/sim"
)

func mustTable(pts ...curve.Point) *curve.Table {
	tbl, err := curve.NewTable(pts)
	Expect(err).NotTo(HaveOccurred())
	return tbl
}

// 0.002 MeV/um everywhere, i.e. 1 MeV per 500 um step and 2 MeV/mm
func flatCurve() *curve.Table {
	return mustTable(curve.Point{Energy: 0, StoppingPower: 0.002}, curve.Point{Energy: 1000, StoppingPower: 0.002})
}

func expectBraggOrdering(res *sim.Result) {
	Expect(res.Samples).NotTo(BeEmpty())
	Expect(res.Samples[0].Range).To(BeZero())
	for i := 1; i < len(res.Samples); i++ {
		Expect(res.Samples[i].Range).To(BeNumerically(">", res.Samples[i-1].Range))
	}
	last := res.Samples[len(res.Samples)-1]
	Expect(last.Range).To(Equal(res.StoppingRange))
	Expect(last.StoppingPower).To(BeZero())
}

var _ = Describe("Simulator", func() {
	var ctx context.Context

	BeforeEach(func() {
		ctx = context.Background()
	})

	Describe("Run", func() {
		Context("with a flat stopping-power curve", func() {
			var res *sim.Result

			BeforeEach(func() {
				var err error
				res, err = sim.New(flatCurve()).Run(ctx, sim.Config{TargetRange: 5, DeltaX: 500})
				Expect(err).NotTo(HaveOccurred())
			})

			It("finds the initial energy exactly", func() {
				Expect(res.InitialEnergy).To(Equal(10.0))
				Expect(res.ReverseSteps).To(Equal(10))
			})

			It("stops exactly at the target range", func() {
				Expect(res.StoppingRange).To(Equal(5.0))
				Expect(res.ForwardSteps).To(Equal(10))
			})

			It("records one sample per step plus the entrance", func() {
				Expect(res.Samples).To(HaveLen(11))
				Expect(res.Samples[0]).To(Equal(sim.Sample{Range: 0, StoppingPower: 2}))
				Expect(res.Samples[9]).To(Equal(sim.Sample{Range: 4.5, StoppingPower: 2}))
				expectBraggOrdering(res)
			})
		})

		Context("with a tabulated water-like curve", func() {
			var (
				s   *sim.Simulator
				tbl *curve.Table
			)

			BeforeEach(func() {
				var err error
				tbl, err = curve.Load(filepath.Join("..", "curve", "testdata", "water.txt"), curve.DefaultParseOptions())
				Expect(err).NotTo(HaveOccurred())

				s = sim.New(tbl)
				for _, m := range metrics.Default() {
					s.AddMetric(m)
				}
			})

			It("produces an ordered Bragg curve peaking near the end of range", func() {
				res, err := s.Run(ctx, sim.Config{TargetRange: 20, DeltaX: 5})
				Expect(err).NotTo(HaveOccurred())

				expectBraggOrdering(res)
				Expect(res.StoppingRange).To(BeNumerically("~", 20, 0.2))
				Expect(res.Metrics["peak_depth_mm"]).To(BeNumerically(">", 0.9*res.StoppingRange))
				Expect(res.Metrics["peak_to_entrance"]).To(BeNumerically(">", 5))
				Expect(res.Metrics["deposited_mev"]).To(BeNumerically("~", res.InitialEnergy, 0.05*res.InitialEnergy))
				Expect(res.Metrics["distal_falloff_mm"]).To(BeNumerically(">", 0))
			})

			It("has a non-increasing energy along the forward pass", func() {
				energy, err := s.EnergyForRange(ctx, sim.Config{TargetRange: 10, DeltaX: 10})
				Expect(err).NotTo(HaveOccurred())

				fwd, err := integrators.NewForward(tbl, 10, 0)
				Expect(err).NotTo(HaveOccurred())
				Expect(fwd.Initialize(energy)).To(Succeed())

				prev := fwd.EnergyPerNucleon()
				for !fwd.Stopped() {
					Expect(fwd.Step()).To(Succeed())
					Expect(fwd.EnergyPerNucleon()).To(BeNumerically("<=", prev))
					prev = fwd.EnergyPerNucleon()
				}
				Expect(fwd.EnergyPerNucleon()).To(BeZero())
			})

			It("reports the same energy as a full run", func() {
				cfg := sim.Config{TargetRange: 15, DeltaX: 10}
				energy, err := s.EnergyForRange(ctx, cfg)
				Expect(err).NotTo(HaveOccurred())

				res, err := s.Run(ctx, cfg)
				Expect(err).NotTo(HaveOccurred())
				Expect(res.InitialEnergy).To(Equal(energy))
			})

			It("gives longer ranges to faster particles", func() {
				cfg := sim.Config{DeltaX: 10}
				r50, err := s.RangeForEnergy(ctx, 50, cfg)
				Expect(err).NotTo(HaveOccurred())
				r100, err := s.RangeForEnergy(ctx, 100, cfg)
				Expect(err).NotTo(HaveOccurred())

				Expect(r50).To(BeNumerically(">", 0))
				Expect(r100).To(BeNumerically(">", r50))
			})
		})

		It("returns a single resting sample for a zero target range", func() {
			res, err := sim.New(flatCurve()).Run(ctx, sim.Config{TargetRange: 0, DeltaX: 1})
			Expect(err).NotTo(HaveOccurred())
			Expect(res.InitialEnergy).To(BeZero())
			Expect(res.Samples).To(Equal([]sim.Sample{{Range: 0, StoppingPower: 0}}))
		})

		DescribeTable("rejects invalid configurations",
			func(cfg sim.Config) {
				_, err := sim.New(flatCurve()).Run(ctx, cfg)
				Expect(err).To(MatchError(sim.ErrParameterBounds))
			},
			Entry("negative range", sim.Config{TargetRange: -1, DeltaX: 1}),
			Entry("NaN range", sim.Config{TargetRange: math.NaN(), DeltaX: 1}),
			Entry("zero step", sim.Config{TargetRange: 1, DeltaX: 0}),
			Entry("negative step", sim.Config{TargetRange: 1, DeltaX: -2}),
			Entry("infinite step", sim.Config{TargetRange: 1, DeltaX: math.Inf(1)}),
			Entry("negative max steps", sim.Config{TargetRange: 1, DeltaX: 1, MaxSteps: -1}),
		)

		It("fails instead of hanging when no energy can be gained", func() {
			throughOrigin := mustTable(curve.Point{Energy: 0, StoppingPower: 0}, curve.Point{Energy: 10, StoppingPower: 1})
			_, err := sim.New(throughOrigin).Run(ctx, sim.Config{TargetRange: 1, DeltaX: 1})
			Expect(errors.Is(err, integrators.ErrNonConvergent)).To(BeTrue())
		})

		It("fails when the step budget is exhausted", func() {
			_, err := sim.New(flatCurve()).Run(ctx, sim.Config{TargetRange: 5, DeltaX: 500, MaxSteps: 3})
			Expect(errors.Is(err, integrators.ErrNonConvergent)).To(BeTrue())

			var se *integrators.StepError
			Expect(errors.As(err, &se)).To(BeTrue())
			Expect(se.Step).To(Equal(3))
		})

		It("stops on a canceled context", func() {
			canceled, cancel := context.WithCancel(ctx)
			cancel()
			_, err := sim.New(flatCurve()).Run(canceled, sim.Config{TargetRange: 5, DeltaX: 500})
			Expect(err).To(MatchError(context.Canceled))
		})
	})

	Describe("RangeForEnergy", func() {
		It("integrates the forward pass only", func() {
			rng, err := sim.New(flatCurve()).RangeForEnergy(ctx, 10, sim.Config{DeltaX: 500})
			Expect(err).NotTo(HaveOccurred())
			Expect(rng).To(Equal(5.0))
		})

		It("rejects a negative energy", func() {
			_, err := sim.New(flatCurve()).RangeForEnergy(ctx, -1, sim.Config{DeltaX: 1})
			Expect(err).To(MatchError(sim.ErrParameterBounds))
		})
	})

	Describe("forward and reverse passes", func() {
		It("recover the starting energy from the forward range", func() {
			unit := mustTable(curve.Point{Energy: 0, StoppingPower: 1}, curve.Point{Energy: 10, StoppingPower: 1})

			fwd, err := integrators.NewForward(unit, 0.125, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(fwd.Initialize(1.0)).To(Succeed())
			rng, err := fwd.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(rng).To(BeNumerically(">", 0))
			Expect(fwd.EnergyPerNucleon()).To(BeZero())

			rev, err := integrators.NewReverse(unit, 0.125, 0)
			Expect(err).NotTo(HaveOccurred())
			Expect(rev.Initialize(rng)).To(Succeed())
			energy, err := rev.Run()
			Expect(err).NotTo(HaveOccurred())
			Expect(energy).To(BeNumerically("~", 1.0, 1e-6))
		})

		DescribeTable("stop within one step of the target range",
			func(target float64) {
				// dE/dx = 0.001 * (1 + E/100) MeV/um
				mild := mustTable(curve.Point{Energy: 0, StoppingPower: 0.001}, curve.Point{Energy: 100, StoppingPower: 0.002})
				const dx = 10.0

				res, err := sim.New(mild).Run(ctx, sim.Config{TargetRange: target, DeltaX: dx})
				Expect(err).NotTo(HaveOccurred())
				Expect(math.Abs(res.StoppingRange - target)).To(BeNumerically("<=", dx/1000+1e-9))
			},
			Entry("1 mm", 1.0),
			Entry("2.5 mm", 2.5),
			Entry("7.77 mm", 7.77),
			Entry("30 mm", 30.0),
		)
	})
})

var _ = Describe("Ensemble", func() {
	It("returns results in input order", func() {
		ranges := []float64{3, 1, 2}
		ens := sim.NewEnsemble(flatCurve(), 2, metrics.Default)

		results, err := ens.Run(context.Background(), ranges, sim.Config{DeltaX: 500})
		Expect(err).NotTo(HaveOccurred())
		Expect(results).To(HaveLen(3))

		for i, res := range results {
			Expect(res.TargetRange).To(Equal(ranges[i]))
			Expect(res.StoppingRange).To(Equal(ranges[i]))
			Expect(res.Metrics).To(HaveKey("peak_dedx"))
		}
	})

	It("fails when any run fails", func() {
		ens := sim.NewEnsemble(flatCurve(), 0, nil)
		_, err := ens.Run(context.Background(), []float64{1, -1, 2}, sim.Config{DeltaX: 500})
		Expect(err).To(MatchError(sim.ErrParameterBounds))
		Expect(err.Error()).To(ContainSubstring("range -1 mm"))
	})
})
