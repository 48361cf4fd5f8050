package appraisal

import (
	"github.com/iwvelando/capital-budget/pkg/mathutil"
)

// Input is one computation pass: a discount rate and the cash flows of each
// project in display order.
type Input struct {
	DiscountRate float64
	Projects     [][]float64
}

// Report is the complete result of one computation pass.
type Report struct {
	DiscountRate float64
	Results      []ProjectResult
	Best         int
	HasBest      bool
}

// EvaluateAll evaluates every project in order and selects the best one.
func EvaluateAll(input Input) Report {
	report := Report{
		DiscountRate: input.DiscountRate,
		Results:      make([]ProjectResult, 0, len(input.Projects)),
	}
	for _, cashFlows := range input.Projects {
		report.Results = append(report.Results, Evaluate(cashFlows, input.DiscountRate))
	}
	report.Best, report.HasBest = SelectBestProject(report.Results)
	return report
}

// SelectBestProject returns the index of the project with the highest ROI.
//
// ROIs are compared at display precision (two decimals) in a left-to-right
// fold with a strict greater-than, so ties keep the earlier project. Projects
// whose ROI could not be computed are skipped. ok is false when no project has
// an ROI.
func SelectBestProject(results []ProjectResult) (best int, ok bool) {
	bestROI := 0.0
	for i, result := range results {
		if !result.ROI.OK() {
			continue
		}
		roi := mathutil.Round(result.ROI.Value)
		if !ok || roi > bestROI {
			best, bestROI, ok = i, roi, true
		}
	}
	return best, ok
}
