// Package appraisal implements the capital-budgeting metrics computed for a
// project's yearly cash flows: payback period, ROI, NPV and IRR, plus the rule
// that picks the project with the highest ROI.
//
// Every function is pure. Metric failures are reported through the sentinel
// errors in this package rather than NaN or infinite values.
package appraisal

import (
	"math"

	"github.com/iwvelando/capital-budget/pkg/mathutil"
)

// CalculatePayback returns the first year index at which the cumulative cash
// flow is non-negative.
func CalculatePayback(cashFlows []float64) (int, error) {
	cumulative := 0.0
	for i, cashFlow := range cashFlows {
		cumulative += cashFlow
		if cumulative >= 0 {
			return i, nil
		}
	}
	return 0, ErrPaybackNotAchieved
}

// CalculateROI returns the return on investment in percent.
//
// The net profit (sum of every entry, initial investment included) is divided
// by the total expenses (sum of the magnitudes of negative entries) and then
// normalized by the number of non-zero years:
//
//	roi = (netProfit / totalExpenses) * 100 / nonZeroYears
func CalculateROI(cashFlows []float64) (float64, error) {
	netProfit := 0.0
	totalExpenses := 0.0
	nonZeroYears := 0
	for _, cashFlow := range cashFlows {
		netProfit += cashFlow
		if cashFlow < 0 {
			totalExpenses += math.Abs(cashFlow)
		}
		if cashFlow != 0 {
			nonZeroYears++
		}
	}

	if nonZeroYears == 0 {
		return 0, ErrNoCashFlows
	}
	if totalExpenses == 0 {
		return 0, ErrNoExpenses
	}

	roi := mathutil.CalculatePercentage(netProfit, totalExpenses) / float64(nonZeroYears)
	if !mathutil.IsFinite(roi) {
		return 0, ErrNonFiniteResult
	}
	return roi, nil
}

// CalculateNPV discounts each cash flow by (1+discountRate)^t and sums them.
func CalculateNPV(cashFlows []float64, discountRate float64) (float64, error) {
	if !mathutil.IsFinite(discountRate) || discountRate <= -1 {
		return 0, ErrInvalidDiscountRate
	}

	npv := 0.0
	for t, cashFlow := range cashFlows {
		npv += cashFlow / mathutil.DiscountFactor(discountRate, t)
	}
	if !mathutil.IsFinite(npv) {
		return 0, ErrNonFiniteResult
	}
	return npv, nil
}

// CalculateIRR returns the internal rate of return as a fraction (0.1 is 10%)
// using the default Newton-Raphson settings.
func CalculateIRR(cashFlows []float64) (float64, error) {
	solution, err := DefaultIRRSolver().Solve(cashFlows)
	if err != nil {
		return 0, err
	}
	return solution.Rate, nil
}
