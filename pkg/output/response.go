package output

import (
	"encoding/json"
	"io"
	"os"

	"github.com/iwvelando/capital-budget/internal/evaluate"
	"github.com/iwvelando/capital-budget/pkg/appraisal"
)

// Response is the JSON representation of an evaluation.
type Response struct {
	DiscountRate float64           `json:"discountRate"`
	Projects     []ProjectResponse `json:"projects"`
	Best         *BestProject      `json:"best,omitempty"`
	Warnings     []string          `json:"warnings,omitempty"`
	Duration     string            `json:"duration,omitempty"`
}

// ProjectResponse carries the displayed metrics of one project together with
// the raw values and machine-readable failure codes.
type ProjectResponse struct {
	Name      string            `json:"name"`
	CashFlows []float64         `json:"cashFlows"`
	Results   appraisal.Display `json:"results"`
	Values    MetricValues      `json:"values"`
	Failures  map[string]string `json:"failures,omitempty"`
}

// MetricValues holds the unformatted metrics; a nil field failed.
type MetricValues struct {
	PaybackYears  *int     `json:"paybackYears,omitempty"`
	ROIPercent    *float64 `json:"roiPercent,omitempty"`
	NPV           *float64 `json:"npv,omitempty"`
	IRR           *float64 `json:"irr,omitempty"`
	IRRIterations int      `json:"irrIterations"`
}

// BestProject identifies the project with the highest ROI. Number is 1-based.
type BestProject struct {
	Index  int    `json:"index"`
	Number int    `json:"number"`
	Name   string `json:"name"`
}

// BuildResponse converts an evaluation into its JSON representation.
func BuildResponse(evaluation evaluate.Evaluation) Response {
	response := Response{
		DiscountRate: evaluation.Report.DiscountRate,
		Projects:     make([]ProjectResponse, 0, len(evaluation.Report.Results)),
		Warnings:     evaluation.Warnings,
	}

	for i, result := range evaluation.Report.Results {
		project := ProjectResponse{
			Name:    evaluation.Names[i],
			Results: result.Display(),
			Values:  MetricValues{IRRIterations: result.IRRIterations},
		}
		if i < len(evaluation.CashFlows) {
			project.CashFlows = evaluation.CashFlows[i]
		}

		failures := make(map[string]string)
		if result.Payback.OK() {
			period := result.Payback.Period
			project.Values.PaybackYears = &period
		} else {
			failures["payback"] = appraisal.FailureReason(result.Payback.Err)
		}
		project.Values.ROIPercent = outcomeValue(result.ROI, "roi", failures)
		project.Values.NPV = outcomeValue(result.NPV, "npv", failures)
		project.Values.IRR = outcomeValue(result.IRR, "irr", failures)
		if len(failures) > 0 {
			project.Failures = failures
		}

		response.Projects = append(response.Projects, project)
	}

	if name, ok := evaluation.BestName(); ok {
		response.Best = &BestProject{
			Index:  evaluation.Report.Best,
			Number: evaluation.Report.Best + 1,
			Name:   name,
		}
	}

	return response
}

func outcomeValue(outcome appraisal.Outcome, metric string, failures map[string]string) *float64 {
	if !outcome.OK() {
		failures[metric] = appraisal.FailureReason(outcome.Err)
		return nil
	}
	value := outcome.Value
	return &value
}

// JSONFormat outputs the evaluation as indented JSON.
func JSONFormat(evaluation evaluate.Evaluation) error {
	return WriteJSON(os.Stdout, evaluation)
}

// WriteJSON writes the evaluation to w as indented JSON.
func WriteJSON(w io.Writer, evaluation evaluate.Evaluation) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(BuildResponse(evaluation))
}
