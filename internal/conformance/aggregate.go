package conformance

import (
	"veritab/internal/contract"
	"veritab/internal/tabular"
)

// Evaluate runs the full conformance pass over a dataset and schema
// and returns a fresh report. The two degenerate inputs short-circuit,
// empty dataset first: no data is a warning, no schema an error.
// Otherwise the checker and the coverage analyzer both run over the
// same inputs, errors from the one and warnings plus coverage from the
// other, and the verdict is derived from the merged result.
func Evaluate(ds *tabular.Dataset, schema *contract.Schema) *ValidationReport {
	report := NewReport()

	if ds == nil || ds.Empty() {
		report.Warnings = append(report.Warnings, CoverageWarning{
			Message: "No data provided for validation.",
		})
		report.derive()
		report.finalize()
		return report
	}

	if schema.Empty() {
		report.Errors = append(report.Errors, ValidationError{
			Message: "No schema provided for validation.",
		})
		report.derive()
		report.finalize()
		return report
	}

	report.Errors = append(report.Errors, CheckRecords(ds, schema)...)
	AnalyzeCoverage(ds, schema, report)
	report.derive()
	report.finalize()
	return report
}
