package conformance

import (
	"fmt"
	"math"
	"strings"

	"veritab/internal/contract"
	"veritab/internal/tabular"
)

// AnalyzeCoverage measures how thoroughly the dataset exercises the
// schema's constraints and writes the results into the report's
// warnings and coverage summary. Coverage gaps are advisory only:
// this pass never produces errors.
func AnalyzeCoverage(ds *tabular.Dataset, schema *contract.Schema, report *ValidationReport) {
	analyzeRequired(ds, schema, report)
	analyzeEnums(ds, schema, report)
	analyzeBounds(ds, schema, report)
}

// analyzeRequired checks that every required field carries at least
// one non-null value somewhere in the dataset. Gaps are consolidated
// into a single warning.
func analyzeRequired(ds *tabular.Dataset, schema *contract.Schema, report *ValidationReport) {
	rc := RequiredFieldsCoverage{Total: len(schema.Required), Missing: []string{}}
	for _, name := range schema.Required {
		if columnHasValue(ds, name) {
			rc.Covered++
		} else {
			rc.Missing = append(rc.Missing, name)
		}
	}
	report.Coverage.RequiredFields = rc
	if len(rc.Missing) > 0 {
		report.Warnings = append(report.Warnings, CoverageWarning{
			Field:   "N/A",
			Message: fmt.Sprintf("Missing or entirely null required fields: %s.", strings.Join(rc.Missing, ", ")),
		})
	}
}

// analyzeEnums records, for every enum-constrained field, which of the
// declared values the dataset actually contains. Matching is by
// canonical key, so an integer 5 in the data covers a declared 5.0.
func analyzeEnums(ds *tabular.Dataset, schema *contract.Schema, report *ValidationReport) {
	for _, name := range schema.FieldNames {
		pc, _ := schema.Field(name)
		if len(pc.Enum) == 0 {
			continue
		}
		observed := map[string]bool{}
		for _, rec := range ds.Records {
			if v, ok := rec.Get(name); ok && !tabular.IsNull(v) {
				observed[tabular.Key(v)] = true
			}
		}
		ec := EnumCoverage{Total: len(pc.Enum), Missing: []tabular.Value{}}
		for _, ev := range pc.Enum {
			if observed[tabular.Key(ev)] {
				ec.Covered++
			} else {
				ec.Missing = append(ec.Missing, ev)
			}
		}
		report.Coverage.Enums[name] = ec
		if len(ec.Missing) > 0 {
			report.Warnings = append(report.Warnings, CoverageWarning{
				Field:   name,
				Message: fmt.Sprintf("Enum values in schema not present in data for '%s': %s.", name, tabular.DisplayList(ec.Missing)),
			})
		}
	}
}

// analyzeBounds checks whether the data actually probes each declared
// minimum/maximum. A bound counts as tested when the observed extreme
// falls within a tolerance band around it: 1% of the declared range
// when both bounds exist, otherwise an absolute 0.01.
func analyzeBounds(ds *tabular.Dataset, schema *contract.Schema, report *ValidationReport) {
	for _, name := range schema.FieldNames {
		pc, _ := schema.Field(name)
		if !pc.HasBounds() {
			continue
		}

		var lo, hi float64
		count := 0
		for _, rec := range ds.Records {
			v, ok := rec.Get(name)
			if !ok {
				continue
			}
			n, isNum := tabular.AsNumber(v)
			if !isNum {
				continue
			}
			if count == 0 || n < lo {
				lo = n
			}
			if count == 0 || n > hi {
				hi = n
			}
			count++
		}

		if count == 0 {
			report.Warnings = append(report.Warnings, CoverageWarning{
				Field:   name,
				Message: fmt.Sprintf("Min/Max constraints for '%s' defined in schema but no numeric data found to test them.", name),
			})
			continue
		}

		tol := 0.01
		if pc.Minimum != nil && pc.Maximum != nil {
			tol = (*pc.Maximum - *pc.Minimum) * 0.01
		}

		bc := BoundaryCoverage{
			MinConstraint:     boundValue(pc.Minimum),
			MaxConstraint:     boundValue(pc.Maximum),
			MinDataValue:      tabular.Float(lo),
			MaxDataValue:      tabular.Float(hi),
			MinBoundaryTested: pc.Minimum == nil || math.Abs(lo-*pc.Minimum) <= tol,
			MaxBoundaryTested: pc.Maximum == nil || math.Abs(hi-*pc.Maximum) <= tol,
		}
		report.Coverage.Bounds[name] = bc

		if pc.Minimum != nil && !bc.MinBoundaryTested {
			report.Warnings = append(report.Warnings, CoverageWarning{
				Field: name,
				Message: fmt.Sprintf("Data for '%s' does not sufficiently test the minimum boundary (%s). Smallest value found: %.2f.",
					name, tabular.Display(tabular.Float(*pc.Minimum)), lo),
			})
		}
		if pc.Maximum != nil && !bc.MaxBoundaryTested {
			report.Warnings = append(report.Warnings, CoverageWarning{
				Field: name,
				Message: fmt.Sprintf("Data for '%s' does not sufficiently test the maximum boundary (%s). Largest value found: %.2f.",
					name, tabular.Display(tabular.Float(*pc.Maximum)), hi),
			})
		}
	}
}

// columnHasValue reports whether any record carries a non-null value
// for the field. An absent field and an explicit null count the same.
func columnHasValue(ds *tabular.Dataset, name string) bool {
	for _, rec := range ds.Records {
		if v, ok := rec.Get(name); ok && !tabular.IsNull(v) {
			return true
		}
	}
	return false
}

func boundValue(b *float64) tabular.Value {
	if b == nil {
		return tabular.Null{}
	}
	return tabular.Float(*b)
}
