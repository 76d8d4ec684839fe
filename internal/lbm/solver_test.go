package lbm

import (
	"context"
	"errors"
	"math"
	"testing"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustNew(nx, nt int, omega float64, opts ...Option) *Solver {
	s, err := New(nx, nt, omega, opts...)
	Expect(err).NotTo(HaveOccurred())
	return s
}

var _ = Describe("Solver", func() {
	Describe("construction", func() {
		It("initializes the documented defaults", func() {
			s := mustNew(6, 10, 1.0)
			Expect(s.NX()).To(Equal(6))
			Expect(s.NT()).To(Equal(10))
			Expect(s.Omega()).To(Equal(1.0))
			Expect(s.Dx()).To(Equal(1.0))
			Expect(s.Dt()).To(Equal(1.0))
			Expect(s.Steps()).To(BeZero())
			Expect(s.Density()).To(HaveEach(1.0))
			Expect(s.Velocity()).To(HaveEach(0.0))
			Expect(s.BindingEnergies()).To(HaveEach(0.0))
			for d := Rest; d <= Left; d++ {
				Expect(s.Distribution(d)).To(HaveEach(0.0))
			}
		})

		It("stores spacing and timestep without using them", func() {
			a := mustNew(5, 3, 1.0, WithSpacing(0.25), WithTimestep(0.1))
			b := mustNew(5, 3, 1.0)
			Expect(a.Dx()).To(Equal(0.25))
			Expect(a.Dt()).To(Equal(0.1))

			Expect(a.Evolve()).To(Succeed())
			Expect(b.Evolve()).To(Succeed())
			Expect(a.Density()).To(Equal(b.Density()))
		})

		DescribeTable("rejects invalid sizes",
			func(nx, nt int, want error) {
				s, err := New(nx, nt, 1.0)
				Expect(s).To(BeNil())
				Expect(err).To(MatchError(want))
			},
			Entry("zero sites", 0, 1, ErrInvalidLattice),
			Entry("negative sites", -3, 1, ErrInvalidLattice),
			Entry("negative steps", 4, -1, ErrInvalidSteps),
		)

		It("does not validate omega", func() {
			_, err := New(4, 1, 3.5)
			Expect(err).NotTo(HaveOccurred())
		})
	})

	Describe("binding energy", func() {
		var s *Solver

		BeforeEach(func() {
			s = mustNew(5, 2, 1.0)
		})

		It("overwrites a single site", func() {
			Expect(s.SetBindingEnergy(2, 1.5)).To(Succeed())
			Expect(s.SetBindingEnergy(2, 0.5)).To(Succeed())
			Expect(s.BindingEnergies()).To(Equal([]float64{0, 0, 0.5, 0, 0}))
		})

		DescribeTable("rejects out of range sites and leaves state untouched",
			func(site int) {
				Expect(s.Step()).To(Succeed())
				rho, u, eps := s.Density(), s.Velocity(), s.BindingEnergies()
				right := s.Distribution(Right)

				err := s.SetBindingEnergy(site, 9)
				Expect(errors.Is(err, ErrSiteOutOfRange)).To(BeTrue())
				var siteErr *SiteError
				Expect(errors.As(err, &siteErr)).To(BeTrue())
				Expect(siteErr.Site).To(Equal(site))

				Expect(s.Density()).To(Equal(rho))
				Expect(s.Velocity()).To(Equal(u))
				Expect(s.BindingEnergies()).To(Equal(eps))
				Expect(s.Distribution(Right)).To(Equal(right))
			},
			Entry("negative", -1),
			Entry("equal to nx", 5),
			Entry("far past the end", 100),
		)

		It("replaces the whole field", func() {
			Expect(s.SetBindingEnergies([]float64{1, 2, 3, 4, 5})).To(Succeed())
			e, err := s.BindingEnergy(3)
			Expect(err).NotTo(HaveOccurred())
			Expect(e).To(Equal(4.0))
		})

		It("rejects a profile of the wrong length", func() {
			Expect(s.SetBindingEnergies([]float64{1, 2})).To(MatchError(ErrDimensionMismatch))
			Expect(s.BindingEnergies()).To(HaveEach(0.0))
		})
	})

	Describe("equilibrium", func() {
		It("matches the closed form for a uniform resting state", func() {
			s := mustNew(3, 1, 1.0)
			feq := s.Equilibrium()
			Expect(feq[Rest]).To(HaveEach(BeNumerically("~", 1.0/3.0, 1e-15)))
			Expect(feq[Right]).To(HaveEach(BeNumerically("~", 8.5/6.0, 1e-15)))
			Expect(feq[Left]).To(HaveEach(BeNumerically("~", 2.5/6.0, 1e-15)))
		})

		It("scales by exp(epsilon/2)", func() {
			s := mustNew(3, 1, 1.0)
			Expect(s.SetBindingEnergy(1, 2.0)).To(Succeed())
			feq := s.Equilibrium()
			for d := Rest; d <= Left; d++ {
				Expect(feq[d][1] / feq[d][0]).To(BeNumerically("~", math.E, 1e-12))
			}
		})

		It("does not mutate the solver", func() {
			s := mustNew(4, 1, 1.0)
			_ = s.Equilibrium()
			Expect(s.Distribution(Rest)).To(HaveEach(0.0))
			Expect(s.Density()).To(HaveEach(1.0))
		})
	})

	Describe("collision", func() {
		It("is a no-op when omega is zero", func() {
			s := mustNew(4, 1, 0)
			s.f[Rest] = []float64{0.1, 0.2, 0.3, 0.4}
			s.f[Right] = []float64{1, 2, 3, 4}
			s.f[Left] = []float64{4, 3, 2, 1}
			s.Collide()
			Expect(s.f[Rest]).To(Equal([]float64{0.1, 0.2, 0.3, 0.4}))
			Expect(s.f[Right]).To(Equal([]float64{1, 2, 3, 4}))
			Expect(s.f[Left]).To(Equal([]float64{4, 3, 2, 1}))
		})

		It("replaces f with the fresh equilibrium when omega is one", func() {
			s := mustNew(4, 1, 1.0)
			s.f[Right] = []float64{1, 2, 3, 4}
			s.rho = []float64{1, 2, 3, 4}
			s.u = []float64{0.1, -0.1, 0.2, 0}
			s.epsilon = []float64{0, 1, 0, -1}
			feq := s.Equilibrium()
			s.Collide()
			for d := Rest; d <= Left; d++ {
				Expect(s.f[d]).To(Equal(feq[d]))
			}
		})

		It("blends with weight omega", func() {
			s := mustNew(2, 1, 0.5)
			s.f[Rest] = []float64{1, 1}
			feq := s.Equilibrium()
			s.Collide()
			Expect(s.f[Rest][0]).To(BeNumerically("~", 0.5+0.5*feq[Rest][0], 1e-15))
		})
	})

	Describe("streaming", func() {
		It("sweeps right movers upward in place so the left edge fills the lattice", func() {
			s := mustNew(5, 1, 1.0)
			s.f[Right] = []float64{1, 0, 0, 0, 0}
			s.Stream()
			Expect(s.f[Right]).To(Equal([]float64{1, 1, 1, 1, 1}))
			Expect(s.f[Left]).To(HaveEach(0.0))
		})

		It("sweeps left movers downward in place so the right edge fills the lattice", func() {
			s := mustNew(5, 1, 1.0)
			s.f[Left] = []float64{0, 0, 0, 0, 1}
			s.Stream()
			Expect(s.f[Left]).To(Equal([]float64{1, 1, 1, 1, 1}))
			Expect(s.f[Right]).To(HaveEach(0.0))
		})

		It("propagates the edge values and leaves rest populations alone", func() {
			s := mustNew(5, 1, 1.0)
			s.f[Right] = []float64{1, 2, 3, 4, 5}
			s.f[Left] = []float64{1, 2, 3, 4, 5}
			s.f[Rest] = []float64{7, 7, 7, 7, 7}
			s.Stream()
			Expect(s.f[Right]).To(HaveEach(1.0))
			Expect(s.f[Left]).To(HaveEach(5.0))
			Expect(s.f[Rest]).To(HaveEach(7.0))
		})

		It("never changes the upstream edge", func() {
			s := mustNew(4, 1, 1.0)
			s.f[Right] = []float64{0, 9, 9, 9}
			s.f[Left] = []float64{9, 9, 9, 0}
			s.Stream()
			Expect(s.f[Right]).To(HaveEach(0.0))
			Expect(s.f[Left]).To(HaveEach(0.0))
		})

		It("leaves a single site untouched", func() {
			s := mustNew(1, 1, 1.0)
			s.f[Right][0], s.f[Left][0] = 2, 3
			s.Stream()
			Expect(s.f[Right]).To(Equal([]float64{2}))
			Expect(s.f[Left]).To(Equal([]float64{3}))
		})
	})

	Describe("macroscopic update", func() {
		It("recomputes rho and u from f", func() {
			s := mustNew(2, 1, 1.0)
			s.f[Rest] = []float64{1, 2}
			s.f[Right] = []float64{3, 1}
			s.f[Left] = []float64{1, 1}
			Expect(s.UpdateMacroscopic()).To(Succeed())
			Expect(s.Density()).To(Equal([]float64{5, 4}))
			Expect(s.Velocity()).To(Equal([]float64{0.4, 0}))
		})

		It("reports zero density without committing anything", func() {
			s := mustNew(3, 1, 1.0)
			s.f[Rest] = []float64{1, 0, 1}
			err := s.UpdateMacroscopic()
			Expect(err).To(MatchError(ErrZeroDensity))
			var siteErr *SiteError
			Expect(errors.As(err, &siteErr)).To(BeTrue())
			Expect(siteErr.Site).To(Equal(1))
			Expect(s.Density()).To(HaveEach(1.0))
			Expect(s.Velocity()).To(HaveEach(0.0))
		})
	})

	Describe("evolution", func() {
		It("runs exactly nt steps per call", func() {
			s := mustNew(4, 3, 1.0)
			Expect(s.Evolve()).To(Succeed())
			Expect(s.Steps()).To(Equal(3))
			Expect(s.Evolve()).To(Succeed())
			Expect(s.Steps()).To(Equal(6))
		})

		It("leaves the initial state alone when nt is zero", func() {
			s := mustNew(4, 0, 1.0)
			Expect(s.Evolve()).To(Succeed())
			Expect(s.Density()).To(HaveEach(1.0))
		})

		It("surfaces a zero density step", func() {
			s := mustNew(4, 3, 0)
			err := s.Evolve()
			Expect(err).To(MatchError(ErrZeroDensity))
			var stepErr *StepError
			Expect(errors.As(err, &stepErr)).To(BeTrue())
			Expect(stepErr.Step).To(Equal(0))
			Expect(s.Steps()).To(BeZero())
		})

		It("stops between steps when the context is canceled", func() {
			s := mustNew(4, 50, 1.0)
			ctx, cancel := context.WithCancel(context.Background())
			cancel()
			err := s.EvolveContext(ctx)
			Expect(errors.Is(err, context.Canceled)).To(BeTrue())
			Expect(s.Steps()).To(BeZero())
		})
	})

	Describe("occupations", func() {
		DescribeTable("stay uniform without binding energy",
			func(nx, nt int, omega float64) {
				s := mustNew(nx, nt, omega)
				Expect(s.Evolve()).To(Succeed())
				occ, err := s.Occupations()
				Expect(err).NotTo(HaveOccurred())
				Expect(occ).To(HaveLen(nx))
				Expect(occ).To(HaveEach(BeNumerically("~", 1.0/float64(nx), 1e-12)))
			},
			Entry("one step", 8, 1, 1.0),
			Entry("several steps", 8, 5, 1.0),
			Entry("under-relaxed", 10, 10, 0.5),
		)

		DescribeTable("make a site with positive binding energy the strict maximum",
			func(nx, trap, nt int, omega, energy float64) {
				s := mustNew(nx, nt, omega)
				Expect(s.SetBindingEnergy(trap, energy)).To(Succeed())
				Expect(s.Evolve()).To(Succeed())
				Expect(s.IsFinite()).To(BeTrue())
				occ, err := s.Occupations()
				Expect(err).NotTo(HaveOccurred())
				for site, o := range occ {
					if site != trap {
						Expect(occ[trap]).To(BeNumerically(">", o), "site %d", site)
					}
				}
			},
			Entry("one step", 11, 5, 1, 1.0, 1.0),
			Entry("two steps", 11, 5, 2, 1.0, 1.0),
			Entry("short lattice", 7, 3, 2, 1.0, 1.0),
			Entry("ten steps, weak trap", 11, 5, 10, 1.0, 0.5),
			Entry("ten steps, under-relaxed", 11, 5, 10, 0.5, 1.0),
			Entry("ten steps, over-relaxed", 7, 3, 10, 1.5, 3.0),
			Entry("hundred steps", 11, 5, 100, 1.0, 1.0),
			Entry("hundred steps, under-relaxed deep trap", 7, 3, 100, 0.5, 3.0),
			Entry("wide lattice", 64, 32, 100, 1.5, 0.5),
		)

		It("raise the trapped occupation with the binding energy", func() {
			prev := 0.0
			for _, energy := range []float64{0, 0.5, 1, 2} {
				s := mustNew(11, 10, 1.0)
				Expect(s.SetBindingEnergy(5, energy)).To(Succeed())
				Expect(s.Evolve()).To(Succeed())
				occ, err := s.Occupations()
				Expect(err).NotTo(HaveOccurred())
				Expect(occ[5]).To(BeNumerically(">", prev))
				prev = occ[5]
			}
		})

		It("sum to one", func() {
			s := mustNew(9, 4, 0.8)
			Expect(s.SetBindingEnergy(2, 0.7)).To(Succeed())
			Expect(s.Evolve()).To(Succeed())
			occ, err := s.Occupations()
			Expect(err).NotTo(HaveOccurred())
			total := 0.0
			for _, o := range occ {
				total += o
			}
			Expect(total).To(BeNumerically("~", 1.0, 1e-12))
		})

		It("is idempotent", func() {
			s := mustNew(6, 3, 1.0)
			Expect(s.SetBindingEnergy(3, 0.4)).To(Succeed())
			Expect(s.Evolve()).To(Succeed())
			a, err := s.Occupations()
			Expect(err).NotTo(HaveOccurred())
			b, err := s.Occupations()
			Expect(err).NotTo(HaveOccurred())
			Expect(b).To(Equal(a))
		})

		It("fails on zero total density", func() {
			s := mustNew(3, 1, 1.0)
			s.rho = []float64{0, 0, 0}
			_, err := s.Occupations()
			Expect(err).To(MatchError(ErrZeroDensity))
		})
	})

	Describe("directions", func() {
		DescribeTable("carry the D1Q3 velocity and weight",
			func(d Direction, velocity, weight float64, name string) {
				Expect(d.Velocity()).To(Equal(velocity))
				Expect(d.Weight()).To(BeNumerically("~", weight, 1e-15))
				Expect(d.String()).To(Equal(name))
			},
			Entry("rest", Rest, 0.0, 1.0/3.0, "rest"),
			Entry("right", Right, 1.0, 1.0/6.0, "right"),
			Entry("left", Left, -1.0, 1.0/6.0, "left"),
		)

		It("weights sum to one", func() {
			total := 0.0
			for d := Rest; d < NumDirections; d++ {
				total += d.Weight()
			}
			Expect(total).To(BeNumerically("~", 1.0, 1e-15))
		})

		It("names an out-of-set direction", func() {
			Expect(Direction(7).String()).To(Equal("unknown"))
		})
	})

	Describe("collision scratch", func() {
		It("reuses its equilibrium buffer across steps", func() {
			s := mustNew(32, 1, 1.0)
			Expect(s.SetBindingEnergy(4, 0.5)).To(Succeed())
			Expect(testing.AllocsPerRun(20, s.Collide)).To(BeZero())
		})

		It("is not shared with Equilibrium results", func() {
			s := mustNew(4, 1, 1.0)
			feq := s.Equilibrium()
			before := append([]float64(nil), feq[Right]...)
			s.rho[0] = 5
			s.Collide()
			Expect(feq[Right]).To(Equal(before))
		})
	})

	Describe("finiteness diagnostic", func() {
		It("flags non-finite values without clamping them", func() {
			s := mustNew(3, 1, 1.0)
			Expect(s.IsFinite()).To(BeTrue())
			s.rho[1] = math.Inf(1)
			Expect(s.IsFinite()).To(BeFalse())
			Expect(math.IsInf(s.Density()[1], 1)).To(BeTrue())
		})
	})
})
