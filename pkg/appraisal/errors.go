package appraisal

import "errors"

// Failure variants reported in place of a metric value. Compare with errors.Is.
var (
	// ErrPaybackNotAchieved marks a series whose cumulative cash flow never
	// becomes non-negative.
	ErrPaybackNotAchieved = errors.New("not achieved")

	// ErrNoCashFlows marks an ROI request over a series with no non-zero year.
	ErrNoCashFlows = errors.New("cannot calculate ROI with less than 1 year of cash flows")

	// ErrNoExpenses marks an ROI request over a series without negative entries.
	ErrNoExpenses = errors.New("ROI undefined: no expenses recorded")

	// ErrInvalidDiscountRate marks a discount rate that is not finite or is at or below -100%.
	ErrInvalidDiscountRate = errors.New("discount rate must be a finite value greater than -100%")

	// ErrNonFiniteResult marks a metric whose arithmetic overflowed.
	ErrNonFiniteResult = errors.New("result is not a finite number")

	// ErrNotConverged marks an IRR search that exhausted its iteration budget
	// or left the domain of finite rates.
	ErrNotConverged = errors.New("IRR did not converge")

	// ErrZeroDerivative marks an IRR search that reached a flat point of the
	// NPV curve, where the Newton-Raphson update is undefined.
	ErrZeroDerivative = errors.New("IRR undefined: NPV derivative is zero")
)

var failureReasons = []struct {
	err    error
	reason string
}{
	{ErrPaybackNotAchieved, "not_achieved"},
	{ErrNoCashFlows, "no_cash_flows"},
	{ErrNoExpenses, "no_expenses"},
	{ErrInvalidDiscountRate, "invalid_discount_rate"},
	{ErrNonFiniteResult, "non_finite"},
	{ErrNotConverged, "not_converged"},
	{ErrZeroDerivative, "zero_derivative"},
}

// FailureReason returns a stable machine-readable code for a metric failure,
// "" for a nil error and "unknown" for errors outside this package.
func FailureReason(err error) string {
	if err == nil {
		return ""
	}
	for _, fr := range failureReasons {
		if errors.Is(err, fr.err) {
			return fr.reason
		}
	}
	return "unknown"
}
