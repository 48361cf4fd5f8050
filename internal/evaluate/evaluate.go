// Package evaluate runs the appraisal of every project in a configuration.
package evaluate

import (
	"fmt"

	"github.com/iwvelando/capital-budget/internal/config"
	"github.com/iwvelando/capital-budget/internal/worksheet"
	"github.com/iwvelando/capital-budget/pkg/appraisal"
	"go.uber.org/zap"
)

// Evaluation holds the result of appraising every configured project.
type Evaluation struct {
	Names     []string
	CashFlows [][]float64
	Report    appraisal.Report
	Warnings  []string
}

// BestName returns the name of the project with the highest ROI.
func (e Evaluation) BestName() (string, bool) {
	if !e.Report.HasBest || e.Report.Best >= len(e.Names) {
		return "", false
	}
	return e.Names[e.Report.Best], true
}

// GetEvaluation appraises every project in conf. Rows shorter than the longest
// one are padded with zero years.
func GetEvaluation(logger *zap.Logger, conf config.Configuration) (Evaluation, error) {
	if logger == nil {
		logger = zap.NewNop()
	}

	if err := conf.Validate(); err != nil {
		return Evaluation{}, fmt.Errorf("invalid configuration: %w", err)
	}

	ws, err := FromConfiguration(conf)
	if err != nil {
		return Evaluation{}, err
	}

	return Run(logger, ws, conf.DiscountRate, conf.ValidateConfiguration()), nil
}

// FromConfiguration loads the configured projects into a worksheet.
func FromConfiguration(conf config.Configuration) (*worksheet.Worksheet, error) {
	ws, err := worksheet.New(len(conf.Projects), conf.YearCount())
	if err != nil {
		return nil, err
	}
	for i, project := range conf.Projects {
		if err := ws.SetRow(i, project.CashFlows); err != nil {
			return nil, err
		}
		if err := ws.SetName(i, project.Label(i)); err != nil {
			return nil, err
		}
	}
	return ws, nil
}

// Run calculates ws at discountRate and logs the outcome. warnings are
// prepended to the ones raised while reading the worksheet.
func Run(logger *zap.Logger, ws *worksheet.Worksheet, discountRate float64, warnings []string) Evaluation {
	if logger == nil {
		logger = zap.NewNop()
	}

	cashFlows, _ := ws.Values()
	report, cellWarnings := ws.Calculate(discountRate)

	evaluation := Evaluation{
		Names:     ws.Names(),
		CashFlows: cashFlows,
		Report:    report,
		Warnings:  append(append([]string(nil), warnings...), cellWarnings...),
	}

	for i, result := range report.Results {
		display := result.Display()
		logger.Debug(fmt.Sprintf("evaluated project %s", evaluation.Names[i]),
			zap.String("op", "evaluate.Run"),
			zap.Int("project", i+1),
			zap.String("payback", display.Payback),
			zap.String("roi", display.ROI),
			zap.String("npv", display.NPV),
			zap.String("irr", display.IRR),
			zap.Int("irrIterations", result.IRRIterations),
		)
	}

	fields := []zap.Field{
		zap.String("op", "evaluate.Run"),
		zap.Int("projects", len(report.Results)),
		zap.Float64("discountRate", discountRate),
		zap.Int("warnings", len(evaluation.Warnings)),
	}
	if name, ok := evaluation.BestName(); ok {
		fields = append(fields, zap.String("best", name))
	}
	logger.Info("evaluation computed", fields...)

	return evaluation
}
