// Package worksheet holds the editable project × year grid behind the
// calculator and turns it into appraisal reports.
package worksheet

import (
	"fmt"

	"github.com/iwvelando/capital-budget/pkg/appraisal"
	"github.com/iwvelando/capital-budget/pkg/cashflow"
	"github.com/iwvelando/capital-budget/pkg/constants"
	"github.com/iwvelando/capital-budget/pkg/validation"
)

// Worksheet is the mutable input state of the calculator. Cells hold the raw
// text the user typed. A Worksheet is not safe for concurrent use.
type Worksheet struct {
	names  []string
	cells  [][]string
	years  int
	latest *appraisal.Report
}

// New returns an empty worksheet with the given dimensions.
func New(projects, years int) (*Worksheet, error) {
	if err := validation.ValidateDimensions(projects, years); err != nil {
		return nil, err
	}
	w := &Worksheet{years: years}
	w.resizeProjects(projects)
	return w, nil
}

// Default returns an empty worksheet with one project and four years.
func Default() *Worksheet {
	w, _ := New(constants.DefaultProjectCount, constants.DefaultYearCount)
	return w
}

// Projects returns the number of projects.
func (w *Worksheet) Projects() int {
	return len(w.cells)
}

// Years returns the number of years per project.
func (w *Worksheet) Years() int {
	return w.years
}

// SetProjectCount grows or shrinks the project list. Cells of projects that
// remain keep their values; added projects start empty.
func (w *Worksheet) SetProjectCount(projects int) error {
	if err := validation.ValidateDimensions(projects, w.years); err != nil {
		return err
	}
	w.resizeProjects(projects)
	return nil
}

// SetYearCount grows or shrinks every project's row. Cells for years that
// remain keep their values; added years start empty.
func (w *Worksheet) SetYearCount(years int) error {
	if err := validation.ValidateDimensions(len(w.cells), years); err != nil {
		return err
	}
	for p := range w.cells {
		w.cells[p] = resizeRow(w.cells[p], years)
	}
	w.years = years
	return nil
}

// SetCell stores the raw entry for one project and year.
func (w *Worksheet) SetCell(project, year int, raw string) error {
	if err := w.checkCell(project, year); err != nil {
		return err
	}
	w.cells[project][year] = raw
	return nil
}

// Cell returns the raw entry for one project and year.
func (w *Worksheet) Cell(project, year int) (string, error) {
	if err := w.checkCell(project, year); err != nil {
		return "", err
	}
	return w.cells[project][year], nil
}

// SetRow replaces a project's entries. Extra entries are dropped and missing
// ones are left empty.
func (w *Worksheet) SetRow(project int, raw []string) error {
	if err := w.checkCell(project, 0); err != nil {
		return err
	}
	row := make([]string, w.years)
	copy(row, raw)
	w.cells[project] = row
	return nil
}

// SetName labels a project. An empty name falls back to "Project N".
func (w *Worksheet) SetName(project int, name string) error {
	if err := w.checkCell(project, 0); err != nil {
		return err
	}
	w.names[project] = name
	return nil
}

// Name returns the label of a project, 1-based "Project N" when unnamed.
func (w *Worksheet) Name(project int) string {
	if project >= 0 && project < len(w.names) && w.names[project] != "" {
		return w.names[project]
	}
	return fmt.Sprintf("Project %d", project+1)
}

// Names returns the labels of every project.
func (w *Worksheet) Names() []string {
	names := make([]string, len(w.cells))
	for p := range w.cells {
		names[p] = w.Name(p)
	}
	return names
}

// Values converts every row to numbers. Entries that are not numbers become
// zero and are reported as warnings.
func (w *Worksheet) Values() ([][]float64, []string) {
	values := make([][]float64, len(w.cells))
	var warnings []string
	for p, row := range w.cells {
		series, rowWarnings := cashflow.ParseSeries(row)
		for _, warning := range rowWarnings {
			warnings = append(warnings, fmt.Sprintf("%s %s", w.Name(p), warning))
		}
		values[p] = series.Float64s()
	}
	return values, warnings
}

// Calculate evaluates every project at discountRate. The report replaces the
// one returned by Latest.
func (w *Worksheet) Calculate(discountRate float64) (appraisal.Report, []string) {
	values, warnings := w.Values()
	report := appraisal.EvaluateAll(appraisal.Input{
		DiscountRate: discountRate,
		Projects:     values,
	})
	stored := cloneReport(report)
	w.latest = &stored
	return report, warnings
}

// Latest returns a copy of the most recent report, if any.
func (w *Worksheet) Latest() (appraisal.Report, bool) {
	if w.latest == nil {
		return appraisal.Report{}, false
	}
	return cloneReport(*w.latest), true
}

func cloneReport(report appraisal.Report) appraisal.Report {
	report.Results = append([]appraisal.ProjectResult(nil), report.Results...)
	return report
}

func (w *Worksheet) checkCell(project, year int) error {
	if project < 0 || project >= len(w.cells) {
		return fmt.Errorf("project index %d out of range [0, %d)", project, len(w.cells))
	}
	if year < 0 || year >= w.years {
		return fmt.Errorf("year index %d out of range [0, %d)", year, w.years)
	}
	return nil
}

func (w *Worksheet) resizeProjects(projects int) {
	cells := make([][]string, projects)
	names := make([]string, projects)
	copy(names, w.names)
	for p := range cells {
		if p < len(w.cells) {
			cells[p] = w.cells[p]
		} else {
			cells[p] = make([]string, w.years)
		}
	}
	w.cells = cells
	w.names = names
}

func resizeRow(row []string, years int) []string {
	resized := make([]string, years)
	copy(resized, row)
	return resized
}
