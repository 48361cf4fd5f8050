// Package output provides utilities for formatting and displaying evaluation results.
package output

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/iwvelando/capital-budget/internal/evaluate"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// PrettyFormat outputs a human-readable rather than machine-readable report.
func PrettyFormat(evaluation evaluate.Evaluation) {
	WritePretty(os.Stdout, evaluation)
}

// WritePretty writes the human-readable report to w.
func WritePretty(w io.Writer, evaluation evaluate.Evaluation) {
	p := message.NewPrinter(language.English)
	for i, result := range evaluation.Report.Results {
		display := result.Display()
		_, _ = fmt.Fprintf(w, "--- Results for project %d: %s ---\n", i+1, evaluation.Names[i])
		_, _ = fmt.Fprintf(w, "Year | Cash Flow\n")
		_, _ = fmt.Fprintf(w, "____ | _________\n")
		if i < len(evaluation.CashFlows) {
			for year, cashFlow := range evaluation.CashFlows[i] {
				_, _ = p.Fprintf(w, "%d    | %.2f\n", year, cashFlow)
			}
		}
		_, _ = fmt.Fprintf(w, "Payback Period: %s\n", display.Payback)
		_, _ = fmt.Fprintf(w, "ROI: %s\n", display.ROI)
		_, _ = fmt.Fprintf(w, "NPV: %s\n", display.NPV)
		_, _ = fmt.Fprintf(w, "IRR: %s\n", display.IRR)
		_, _ = fmt.Fprintf(w, "\n")
	}

	if name, ok := evaluation.BestName(); ok {
		_, _ = fmt.Fprintf(w, "--- Best Project ---\n")
		_, _ = fmt.Fprintf(w, "Project %d (%s) has the highest ROI, therefore, it is the best.\n",
			evaluation.Report.Best+1, name)
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(evaluation evaluate.Evaluation) error {
	return WriteCSV(os.Stdout, evaluation)
}

// CsvString returns the CSV output as a string.
func CsvString(evaluation evaluate.Evaluation) string {
	var buf bytes.Buffer
	if err := WriteCSV(&buf, evaluation); err != nil {
		return ""
	}
	return buf.String()
}

// WriteCSV writes one row per project with its displayed metrics.
func WriteCSV(w io.Writer, evaluation evaluate.Evaluation) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"project", "payback", "roi", "npv", "irr", "best"}); err != nil {
		return err
	}
	for i, result := range evaluation.Report.Results {
		display := result.Display()
		best := evaluation.Report.HasBest && evaluation.Report.Best == i
		record := []string{evaluation.Names[i], display.Payback, display.ROI, display.NPV, display.IRR, strconv.FormatBool(best)}
		if err := writer.Write(record); err != nil {
			return err
		}
	}
	writer.Flush()
	return writer.Error()
}
