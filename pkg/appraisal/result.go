package appraisal

import (
	"errors"
	"strconv"

	"github.com/iwvelando/capital-budget/pkg/format"
)

// notAchieved is how a payback that never happens is shown.
const notAchieved = "Not achieved"

// Outcome is a metric value or the failure that replaced it.
type Outcome struct {
	Value float64
	Err   error
}

// OK reports whether the outcome holds a value.
func (o Outcome) OK() bool {
	return o.Err == nil
}

// PaybackOutcome is a payback period in years or ErrPaybackNotAchieved.
type PaybackOutcome struct {
	Period int
	Err    error
}

// OK reports whether payback was achieved.
func (p PaybackOutcome) OK() bool {
	return p.Err == nil
}

// ProjectResult holds the four metrics for one project. ROI is in percent, IRR
// is a fraction.
type ProjectResult struct {
	Payback       PaybackOutcome
	ROI           Outcome
	NPV           Outcome
	IRR           Outcome
	IRRIterations int
}

// Display is a ProjectResult rendered for presentation.
type Display struct {
	Payback string `json:"payback"`
	ROI     string `json:"roi"`
	NPV     string `json:"npv"`
	IRR     string `json:"irr"`
}

// Display renders every metric, substituting the failure message for any
// metric that could not be computed.
func (r ProjectResult) Display() Display {
	d := Display{
		Payback: notAchieved,
		ROI:     failureText(r.ROI.Err),
		NPV:     failureText(r.NPV.Err),
		IRR:     failureText(r.IRR.Err),
	}
	if r.Payback.OK() {
		d.Payback = strconv.Itoa(r.Payback.Period)
	} else if !errors.Is(r.Payback.Err, ErrPaybackNotAchieved) {
		d.Payback = failureText(r.Payback.Err)
	}
	if r.ROI.OK() {
		d.ROI = format.Percent(r.ROI.Value)
	}
	if r.NPV.OK() {
		d.NPV = format.Fixed(r.NPV.Value)
	}
	if r.IRR.OK() {
		d.IRR = format.Rate(r.IRR.Value)
	}
	return d
}

func failureText(err error) string {
	if err == nil {
		return ""
	}
	return format.Sentence(err.Error())
}

// Evaluate computes all four metrics for one series. A failure in one metric
// never affects the others.
func Evaluate(cashFlows []float64, discountRate float64) ProjectResult {
	var result ProjectResult

	result.Payback.Period, result.Payback.Err = CalculatePayback(cashFlows)
	result.ROI.Value, result.ROI.Err = CalculateROI(cashFlows)
	result.NPV.Value, result.NPV.Err = CalculateNPV(cashFlows, discountRate)

	solution, err := DefaultIRRSolver().Solve(cashFlows)
	result.IRR = Outcome{Value: solution.Rate, Err: err}
	result.IRRIterations = solution.Iterations

	return result
}
