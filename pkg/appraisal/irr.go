package appraisal

import (
	"math"

	"github.com/iwvelando/capital-budget/pkg/constants"
	"github.com/iwvelando/capital-budget/pkg/mathutil"
)

// IRRSolver finds the rate at which a series' NPV is zero with Newton-Raphson
// iteration.
//
// Series with several sign changes can have several real roots or none; the
// iteration may then oscillate or run away, which is reported as
// ErrNotConverged rather than as a rate.
type IRRSolver struct {
	Guess         float64
	Tolerance     float64 // absolute tolerance between successive rates
	MaxIterations int
}

// Solution is a converged IRR search.
type Solution struct {
	Rate       float64
	Iterations int
}

// DefaultIRRSolver starts at 10% and stops once successive rates differ by
// less than 0.0001, giving up after 1000 iterations.
func DefaultIRRSolver() IRRSolver {
	return IRRSolver{
		Guess:         constants.IRRInitialGuess,
		Tolerance:     constants.IRRTolerance,
		MaxIterations: constants.IRRMaxIterations,
	}
}

// Solve runs the search. The returned Solution carries the iteration count
// even on failure; its Rate is only meaningful when err is nil.
func (s IRRSolver) Solve(cashFlows []float64) (Solution, error) {
	s = s.normalize()

	guess := s.Guess
	for iteration := 1; iteration <= s.MaxIterations; iteration++ {
		npv, derivative := npvWithDerivative(cashFlows, guess)
		if derivative == 0 {
			return Solution{Iterations: iteration}, ErrZeroDerivative
		}

		next := guess - npv/derivative
		if !mathutil.IsFinite(next) {
			return Solution{Iterations: iteration}, ErrNotConverged
		}
		if math.Abs(next-guess) < s.Tolerance {
			return Solution{Rate: next, Iterations: iteration}, nil
		}
		guess = next
	}

	return Solution{Iterations: s.MaxIterations}, ErrNotConverged
}

func (s IRRSolver) normalize() IRRSolver {
	defaults := DefaultIRRSolver()
	if !mathutil.IsFinite(s.Guess) {
		s.Guess = defaults.Guess
	}
	if !(s.Tolerance > 0) {
		s.Tolerance = defaults.Tolerance
	}
	if s.MaxIterations <= 0 {
		s.MaxIterations = defaults.MaxIterations
	}
	return s
}

// npvWithDerivative evaluates NPV(rate) and dNPV/drate in one pass.
func npvWithDerivative(cashFlows []float64, rate float64) (float64, float64) {
	npv := 0.0
	derivative := 0.0
	for t, cashFlow := range cashFlows {
		npv += cashFlow / mathutil.DiscountFactor(rate, t)
		derivative += -float64(t) * cashFlow / mathutil.DiscountFactor(rate, t+1)
	}
	return npv, derivative
}
