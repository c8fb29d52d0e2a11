package suggest

import (
	"encoding/json"
	"fmt"
	"strings"

	"veritab/internal/conformance"
	"veritab/internal/tabular"
)

const (
	defaultSuggestions = 3
	defaultCases       = 5
	defaultSampleLimit = 100

	// maxPromptIssues caps how many errors, warnings, or focus lines a
	// prompt embeds so a large report cannot blow up the request.
	maxPromptIssues = 5
)

// reportSummary is the condensed validation report embedded in prompts:
// at most five errors and five warnings, plus the full coverage block.
type reportSummary struct {
	OverallStatus conformance.Status            `json:"overall_status"`
	Errors        []conformance.ValidationError `json:"errors"`
	Warnings      []conformance.CoverageWarning `json:"warnings"`
	Coverage      conformance.CoverageSummary   `json:"coverage"`
}

func summarizeReport(r *conformance.ValidationReport) string {
	s := reportSummary{
		OverallStatus: r.OverallStatus,
		Errors:        r.Errors,
		Warnings:      r.Warnings,
		Coverage:      r.Coverage,
	}
	if len(s.Errors) > maxPromptIssues {
		s.Errors = s.Errors[:maxPromptIssues]
	}
	if len(s.Warnings) > maxPromptIssues {
		s.Warnings = s.Warnings[:maxPromptIssues]
	}
	b, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return "{}"
	}
	return string(b)
}

const caseImprovementTemplate = `You are an AI assistant specialized in data quality and test case design.
Given a JSON schema contract and a validation report for synthetic data against this schema,
suggest specific improvements for the synthetic data test cases. Focus on addressing
validation errors and improving constraint coverage.

JSON Schema Contract:
` + "```json" + `
%s
` + "```" + `

Validation Report Summary:
` + "```json" + `
%s
` + "```" + `

Based on the above, provide %d distinct suggestions for new or modified synthetic data points.
For each suggestion, clearly state:
1.  The specific field(s) involved.
2.  The type of issue it addresses (e.g., "missing required field", "enum boundary", "min/max edge case", "invalid format").
3.  The exact value(s) or data structure change you recommend.
4.  A brief explanation of why this test case is important.

Return the suggestions as a JSON array of objects, where each object has keys:
"field": (string)
"issue_type": (string)
"recommended_value": (any valid JSON type - string, number, boolean, object, array, null)
"explanation": (string)
`

func caseImprovementPrompt(schemaJSON, reportJSON string, n int) string {
	return fmt.Sprintf(caseImprovementTemplate, schemaJSON, reportJSON, n)
}

const schemaImprovementTemplate = `You are an AI assistant specialized in JSON Schema design and data contract best practices.
Given a JSON schema contract and a validation report for synthetic data against this schema,
suggest specific improvements or fixes to the JSON schema itself. Focus on:
- Adding stricter types (e.g., 'string' with 'format' like 'email', 'uuid', 'date-time').
- Suggesting logical constraints (e.g., 'minimum', 'maximum', 'minLength', 'maxLength', 'pattern').
- Identifying potentially missing 'required' fields.
- Improving descriptions.
- Adding 'enum' for fields with limited discrete values.
- Suggesting 'if-then-else', 'anyOf', 'oneOf' for complex conditional logic.

JSON Schema Contract:
` + "```json" + `
%s
` + "```" + `

Validation Report Summary:
` + "```json" + `
%s
` + "```" + `

Based on the above, provide %d distinct suggestions for improving the JSON schema.
For each suggestion, clearly state:
1.  The specific path in the schema (e.g., "properties.field_name").
2.  The type of improvement (e.g., "add format", "add minLength", "add enum", "add required").
3.  The suggested JSON Schema snippet to add or modify.
4.  A brief explanation of why this improvement is beneficial.

Return the suggestions as a JSON array of objects, where each object has keys:
"schema_path": (string)
"improvement_type": (string)
"suggested_snippet": (string - a valid JSON string representing the snippet)
"explanation": (string)
`

func schemaImprovementPrompt(schemaJSON, reportJSON string, n int) string {
	return fmt.Sprintf(schemaImprovementTemplate, schemaJSON, reportJSON, n)
}

const generateCasesTemplate = `You are an AI assistant specialized in generating synthetic test data for data validation.
Given the following JSON schema contract, generate %[1]d synthetic data records.
Each record should adhere to the schema.

%[2]s
%[3]s

Ensure the generated data includes a variety of valid values, including:
- Typical values.
- Boundary values (e.g., min/max for numbers, minLength/maxLength for strings).
- All possible enum values (if applicable and reasonable for %[1]d cases).
- Null values where the schema allows (e.g., "nullable": true or not "required").
- Values that test different formats (e.g., "date-time", "email", "uuid").

Return the generated data as a JSON array of objects, where each object represents one record.
Do NOT include any additional text or markdown outside the JSON array.

JSON Schema Contract:
` + "```json" + `
%[4]s
` + "```" + `
`

func generateCasesPrompt(schemaJSON string, n int, focus []FocusIssue, instructions string) string {
	var issueContext string
	if len(focus) > 0 {
		var b strings.Builder
		b.WriteString("\nFocus on these specific issues from a validation report:\n")
		for _, issue := range focus[:min(len(focus), maxPromptIssues)] {
			fmt.Fprintf(&b, "- Field: %s, Message: %s, Path: %s\n",
				orNA(issue.Field), orNA(issue.Message), orNA(issue.Path))
		}
		b.WriteString("\nGenerate data that specifically tests these problematic areas, including edge cases.")
		issueContext = b.String()
	}

	var instructionsContext string
	if instructions != "" {
		instructionsContext = fmt.Sprintf("\nAdditional instructions: %s\n", instructions)
	}

	return fmt.Sprintf(generateCasesTemplate, n, issueContext, instructionsContext, schemaJSON)
}

const inferSchemaTemplate = `You are an AI assistant specialized in inferring JSON Schemas from sample data.
Given the following sample data, generate a comprehensive JSON Schema (Draft 7 compatible)
that accurately describes the structure, data types, and potential constraints
(e.g., required fields, formats, enums, min/max for numbers, minLength/maxLength for strings).

Consider the following when generating the schema:
- Infer appropriate JSON Schema types (string, number, integer, boolean, array, object, null).
- Identify 'required' fields based on their consistent presence.
- Infer 'format' for strings (e.g., "date-time", "email", "uuid") if patterns are evident.
- Infer 'enum' for fields with a limited set of discrete values.
- Infer 'minimum' and 'maximum' for numeric fields based on observed ranges.
- Infer 'minLength' and 'maxLength' for string fields.
- Use 'description' to briefly explain each field.
- If a field can be null, include ` + "`\"type\": [\"string\", \"null\"]`" + ` or similar.

Sample Data:
` + "```json" + `
%s
` + "```" + `

Return the generated JSON Schema as a JSON object. Do NOT include any additional text or markdown outside the JSON object.
`

func inferSchemaPrompt(sample []tabular.Record) (string, error) {
	b, err := json.MarshalIndent(sample, "", "  ")
	if err != nil {
		return "", fmt.Errorf("marshal sample data: %w", err)
	}
	return fmt.Sprintf(inferSchemaTemplate, string(b)), nil
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}
