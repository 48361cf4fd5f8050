package validation

import (
	"fmt"

	"github.com/iwvelando/capital-budget/pkg/constants"
	"github.com/iwvelando/capital-budget/pkg/mathutil"
)

// ValidateDiscountRate checks that rate is a finite fraction above -1 (-100%).
func ValidateDiscountRate(rate float64) error {
	if !mathutil.IsFinite(rate) {
		return fmt.Errorf("discount rate must be a finite number, got %v", rate)
	}
	if rate <= -1 {
		return fmt.Errorf("discount rate must be greater than -1 (-100%%), got %v", rate)
	}
	return nil
}

// ValidateDimensions checks the project and year counts of a worksheet.
func ValidateDimensions(projects, years int) error {
	if projects < 1 || projects > constants.MaxProjects {
		return fmt.Errorf("number of projects must be between 1 and %d, got %d", constants.MaxProjects, projects)
	}
	if years < 1 || years > constants.MaxYears {
		return fmt.Errorf("number of years must be between 1 and %d, got %d", constants.MaxYears, years)
	}
	return nil
}

// DiscountRateWarning returns a warning for rates that are valid but look like
// they were entered in percent rather than as a fraction.
func DiscountRateWarning(rate float64) string {
	if rate > 1 {
		return fmt.Sprintf("discount rate %v is above 100%%; rates are fractions (0.10 is 10%%)", rate)
	}
	return ""
}
