// Package export renders validation results for humans and files: the
// Markdown report document, the failed-rows CSV, and the
// generated-cases CSV. Rendering is deterministic: map-backed sections
// sort their keys and the report timestamp comes from an injectable
// clock.
package export

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"veritab/internal/conformance"
	"veritab/internal/contract"
	"veritab/internal/suggest"
	"veritab/internal/tabular"
)

// defaultSampleRows is how many records the report's data sample shows.
const defaultSampleRows = 3

// Input collects everything the Markdown report can render. Schema and
// Report drive the main sections; the rest are optional.
type Input struct {
	Schema            *contract.Schema
	Dataset           *tabular.Dataset
	Report            *conformance.ValidationReport
	CaseSuggestions   []suggest.CaseSuggestion
	SchemaSuggestions []suggest.SchemaSuggestion
	PatchedSchema     map[string]any
	// GenerationPrompt is the user's prompt when the dataset was
	// AI-generated; empty omits the section.
	GenerationPrompt string
	// SampleRows caps the sample block; <= 0 uses the default.
	SampleRows int
	// Now supplies the report timestamp; nil uses time.Now.
	Now func() time.Time
}

// MarkdownReport renders the full validation report document.
func MarkdownReport(in Input) string {
	now := in.Now
	if now == nil {
		now = time.Now
	}
	sampleRows := in.SampleRows
	if sampleRows <= 0 {
		sampleRows = defaultSampleRows
	}
	report := in.Report
	if report == nil {
		report = conformance.NewReport()
		report.OverallStatus = "UNKNOWN"
	}
	profile := tabular.Profile(in.Dataset, sampleRows)

	var b strings.Builder
	b.WriteString("# Synthetic Data Contract Validation Report\n\n")
	fmt.Fprintf(&b, "**Generated On:** %s\n", now().Format("2006-01-02 15:04:05"))
	fmt.Fprintf(&b, "**Overall Validation Status:** **%s**\n\n", report.OverallStatus)

	writeInputSection(&b, in.Schema, profile, in.GenerationPrompt)
	writeResultsSection(&b, report)
	writeCoverageSection(&b, report.Coverage)
	writeSuggestionsSection(&b, in.CaseSuggestions, in.SchemaSuggestions, in.PatchedSchema)

	return b.String()
}

func writeInputSection(b *strings.Builder, schema *contract.Schema, profile tabular.DatasetProfile, prompt string) {
	b.WriteString("## 1. Input Data & Schema\n\n")
	b.WriteString("### Contract Schema (YAML/JSON)\n")
	fmt.Fprintf(b, "```json\n%s\n```\n\n", schema.JSON())

	b.WriteString("### Synthetic Data Info\n")
	fmt.Fprintf(b, "- **Columns:** %d\n", len(profile.Columns))
	fmt.Fprintf(b, "- **Sample Data (first %d rows):**\n", len(profile.SampleData))
	fmt.Fprintf(b, "```json\n%s\n```\n\n", marshalIndent(profile.SampleData))

	if prompt != "" {
		b.WriteString("### AI-Generated Test Data Prompt\n")
		fmt.Fprintf(b, "```\n%s\n```\n\n", prompt)
	}
}

func writeResultsSection(b *strings.Builder, report *conformance.ValidationReport) {
	b.WriteString("## 2. Validation Results\n\n")
	fmt.Fprintf(b, "### Overall Status: **%s**\n\n", report.OverallStatus)

	if len(report.Errors) > 0 {
		b.WriteString("### 🛑 Errors\n")
		for i, e := range report.Errors {
			fmt.Fprintf(b, "**%d. Error in Row %s (Path: `%s`):**\n", i+1, rowLabel(e.RowIndex), orNA(e.Path))
			fmt.Fprintf(b, "- Message: %s\n", orNA(e.Message))
			fmt.Fprintf(b, "- Validator: `%s` (Value: `%s`)\n", orNA(e.ValidatorKind), tabular.Display(e.ValidatorValue))
			fmt.Fprintf(b, "- Instance: `%s`\n\n", marshalCompact(e.OffendingInstance))
		}
	} else {
		b.WriteString("### ✅ No Errors Detected\n\n")
	}

	if len(report.Warnings) > 0 {
		b.WriteString("### ⚠️ Warnings\n")
		for i, w := range report.Warnings {
			fmt.Fprintf(b, "**%d. Warning for Field `%s`:**\n", i+1, orNA(w.Field))
			fmt.Fprintf(b, "- Message: %s\n\n", orNA(w.Message))
		}
	} else {
		b.WriteString("### No Warnings\n\n")
	}
}

func writeCoverageSection(b *strings.Builder, cov conformance.CoverageSummary) {
	b.WriteString("## 3. Coverage Analysis\n\n")

	b.WriteString("### Required Fields Coverage\n")
	fmt.Fprintf(b, "- Total Required: **%d**\n", cov.RequiredFields.Total)
	fmt.Fprintf(b, "- Covered: **%d**\n", cov.RequiredFields.Covered)
	if len(cov.RequiredFields.Missing) > 0 {
		fmt.Fprintf(b, "- Missing/Null in Data: `%s`\n", strings.Join(cov.RequiredFields.Missing, ", "))
	}
	b.WriteString("\n")

	if len(cov.Enums) > 0 {
		b.WriteString("### Enum Value Coverage\n")
		for _, field := range sortedKeys(cov.Enums) {
			ec := cov.Enums[field]
			fmt.Fprintf(b, "- **Field `%s`:** Total: %d, Covered: %d\n", field, ec.Total, ec.Covered)
			if len(ec.Missing) > 0 {
				fmt.Fprintf(b, "  - Missing Enum Values: `%s`\n", tabular.DisplayList(ec.Missing))
			}
		}
		b.WriteString("\n")
	} else {
		b.WriteString("### No Enum Fields or Enum Coverage Data\n\n")
	}

	if len(cov.Bounds) > 0 {
		b.WriteString("### Min/Max Boundary Coverage (Numeric Fields)\n")
		for _, field := range sortedKeys(cov.Bounds) {
			bc := cov.Bounds[field]
			fmt.Fprintf(b, "- **Field `%s`:**\n", field)
			fmt.Fprintf(b, "  - Schema Min/Max: [%s, %s]\n", tabular.Display(bc.MinConstraint), tabular.Display(bc.MaxConstraint))
			fmt.Fprintf(b, "  - Data Min/Max: [%s, %s]\n", tabular.Display(bc.MinDataValue), tabular.Display(bc.MaxDataValue))
			fmt.Fprintf(b, "  - Min Boundary Tested: %s\n", testedMark(bc.MinBoundaryTested))
			fmt.Fprintf(b, "  - Max Boundary Tested: %s\n", testedMark(bc.MaxBoundaryTested))
		}
		b.WriteString("\n")
	} else {
		b.WriteString("### No Numeric Fields with Min/Max Constraints or Coverage Data\n\n")
	}
}

func writeSuggestionsSection(b *strings.Builder, cases []suggest.CaseSuggestion, schemas []suggest.SchemaSuggestion, patched map[string]any) {
	b.WriteString("## 4. AI Suggestions\n\n")

	if len(cases) > 0 {
		b.WriteString("### AI-Suggested Test Case Improvements\n")
		for i, s := range cases {
			fmt.Fprintf(b, "**%d. Field `%s` (%s):**\n", i+1, orNA(s.Field), orNA(s.IssueType))
			fmt.Fprintf(b, "- Recommended Value: `%s`\n", marshalCompact(s.RecommendedValue))
			fmt.Fprintf(b, "- Explanation: %s\n\n", orNA(s.Explanation))
		}
	} else {
		b.WriteString("### No AI Suggestions for Test Cases\n\n")
	}

	if len(schemas) > 0 {
		b.WriteString("### AI-Suggested Schema Improvements\n")
		for i, s := range schemas {
			fmt.Fprintf(b, "**%d. Path `%s` (%s):**\n", i+1, orNA(s.SchemaPath), orNA(s.ImprovementType))
			fmt.Fprintf(b, "- Suggested Snippet:\n```json\n%s\n```\n", string(s.SuggestedSnippet))
			fmt.Fprintf(b, "- Explanation: %s\n\n", orNA(s.Explanation))
		}
	} else {
		b.WriteString("### No AI Suggestions for Schema\n\n")
	}

	if len(patched) > 0 {
		b.WriteString("### AI-Patched Schema Suggestion\n")
		fmt.Fprintf(b, "```json\n%s\n```\n\n", marshalIndent(patched))
	} else {
		b.WriteString("### No AI-Patched Schema Suggestion\n\n")
	}
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

func testedMark(tested bool) string {
	if tested {
		return "✅"
	}
	return "❌"
}

func marshalCompact(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func marshalIndent(v any) string {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}

func sortedKeys[V any](m map[string]V) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
