package ui

import (
	"fmt"
	"sort"
	"strings"

	"veritab/internal/conformance"
	"veritab/internal/tabular"
)

// RenderReport renders a validation report for the terminal: the status
// badge, the error and warning tables and the coverage summary.
func RenderReport(styles Styles, rep *conformance.ValidationReport) string {
	if rep == nil {
		return styles.Muted.Render("no report") + "\n"
	}

	var sb strings.Builder

	sb.WriteString(styles.Bold.Render("Overall Status: "))
	sb.WriteString(styles.StatusBadge(rep.OverallStatus))
	sb.WriteString("\n\n")

	if len(rep.Errors) > 0 {
		tbl := NewTable(fmt.Sprintf("Errors (%d)", len(rep.Errors)), "Row", "Path", "Validator", "Message")
		for _, e := range rep.Errors {
			tbl.AddRow(rowLabel(e.RowIndex), orNA(e.Path), orNA(e.ValidatorKind), e.Message)
		}
		sb.WriteString(tbl.View(styles))
	} else {
		sb.WriteString(styles.Success.Render("No validation errors detected."))
		sb.WriteString("\n\n")
	}

	if len(rep.Warnings) > 0 {
		tbl := NewTable(fmt.Sprintf("Coverage Warnings (%d)", len(rep.Warnings)), "Field", "Message")
		for _, w := range rep.Warnings {
			tbl.AddRow(orNA(w.Field), w.Message)
		}
		sb.WriteString(tbl.View(styles))
	}

	sb.WriteString(renderCoverage(styles, rep.Coverage))

	return sb.String()
}

// renderCoverage renders the required/enum/boundary coverage summary.
func renderCoverage(styles Styles, cov conformance.CoverageSummary) string {
	var sb strings.Builder

	sb.WriteString(styles.Title.Render("Coverage"))
	sb.WriteString("\n")

	req := cov.RequiredFields
	sb.WriteString(fmt.Sprintf("Required fields covered: %s\n",
		styles.Bold.Render(fmt.Sprintf("%d/%d", req.Covered, req.Total))))
	if len(req.Missing) > 0 {
		sb.WriteString(styles.Warning.Render(
			fmt.Sprintf("Missing or entirely null: %s", strings.Join(req.Missing, ", "))))
		sb.WriteString("\n")
	}
	sb.WriteString("\n")

	if len(cov.Enums) > 0 {
		tbl := NewTable("Enum Coverage", "Field", "Covered", "Missing Values")
		for _, field := range sortedFields(cov.Enums) {
			ec := cov.Enums[field]
			missing := ""
			if len(ec.Missing) > 0 {
				missing = tabular.DisplayList(ec.Missing)
			}
			tbl.AddRow(field, fmt.Sprintf("%d/%d", ec.Covered, ec.Total), missing)
		}
		sb.WriteString(tbl.View(styles))
	}

	if len(cov.Bounds) > 0 {
		tbl := NewTable("Boundary Coverage", "Field", "Schema Range", "Data Range", "Min Tested", "Max Tested")
		for _, field := range sortedFields(cov.Bounds) {
			bc := cov.Bounds[field]
			tbl.AddRow(field,
				fmt.Sprintf("[%s, %s]", tabular.Display(bc.MinConstraint), tabular.Display(bc.MaxConstraint)),
				fmt.Sprintf("[%s, %s]", tabular.Display(bc.MinDataValue), tabular.Display(bc.MaxDataValue)),
				coveredMark(styles, bc.MinBoundaryTested),
				coveredMark(styles, bc.MaxBoundaryTested))
		}
		sb.WriteString(tbl.View(styles))
	}

	return sb.String()
}

func rowLabel(idx *int) string {
	if idx == nil {
		return "N/A"
	}
	return fmt.Sprintf("%d", *idx)
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func coveredMark(styles Styles, tested bool) string {
	if tested {
		return styles.Success.Render("yes")
	}
	return styles.Error.Render("no")
}

func sortedFields[V any](m map[string]V) []string {
	fields := make([]string, 0, len(m))
	for f := range m {
		fields = append(fields, f)
	}
	sort.Strings(fields)
	return fields
}
