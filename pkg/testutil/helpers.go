// Package testutil provides common utility functions for testing.
package testutil

import (
	"github.com/iwvelando/capital-budget/pkg/appraisal"
)

// FindProject finds a project's result by name, names being in report order.
// Returns a pointer to the result if found, nil otherwise.
func FindProject(names []string, report appraisal.Report, name string) *appraisal.ProjectResult {
	for i := range names {
		if names[i] == name && i < len(report.Results) {
			return &report.Results[i]
		}
	}
	return nil
}
