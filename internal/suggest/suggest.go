package suggest

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"veritab/internal/conformance"
	"veritab/internal/contract"
	"veritab/internal/tabular"
)

// CaseSuggestion is one proposed synthetic data point addressing a
// validation error or coverage gap.
type CaseSuggestion struct {
	Field            string `json:"field"`
	IssueType        string `json:"issue_type"`
	RecommendedValue any    `json:"recommended_value"`
	Explanation      string `json:"explanation"`
}

// SchemaSuggestion is one proposed change to the contract itself.
type SchemaSuggestion struct {
	SchemaPath       string  `json:"schema_path"`
	ImprovementType  string  `json:"improvement_type"`
	SuggestedSnippet Snippet `json:"suggested_snippet"`
	Explanation      string  `json:"explanation"`
}

// Snippet is a JSON Schema fragment. Models are asked for a string but
// occasionally return the fragment as a bare JSON value; both decode.
type Snippet string

func (s *Snippet) UnmarshalJSON(data []byte) error {
	var str string
	if err := json.Unmarshal(data, &str); err == nil {
		*s = Snippet(str)
		return nil
	}
	*s = Snippet(data)
	return nil
}

// FocusIssue names one validation finding for the generation prompt to
// target.
type FocusIssue struct {
	Field   string
	Message string
	Path    string
}

// FocusFromReport collects a report's errors and warnings as focus
// issues, errors first.
func FocusFromReport(r *conformance.ValidationReport) []FocusIssue {
	if r == nil {
		return nil
	}
	issues := make([]FocusIssue, 0, len(r.Errors)+len(r.Warnings))
	for _, e := range r.Errors {
		issues = append(issues, FocusIssue{Message: e.Message, Path: e.Path})
	}
	for _, w := range r.Warnings {
		issues = append(issues, FocusIssue{Field: w.Field, Message: w.Message})
	}
	return issues
}

// SuggestCaseImprovements asks the model for n new or modified data
// points that close the report's validation and coverage gaps. n <= 0
// defaults to 3.
func SuggestCaseImprovements(ctx context.Context, c Client, schema *contract.Schema, report *conformance.ValidationReport, n int) ([]CaseSuggestion, error) {
	if schema.Empty() {
		return nil, fmt.Errorf("schema is required for suggestions")
	}
	if report == nil {
		return nil, fmt.Errorf("validation report is required for suggestions")
	}
	if n <= 0 {
		n = defaultSuggestions
	}

	raw, err := c.Complete(ctx, caseImprovementPrompt(schema.JSON(), summarizeReport(report), n))
	if err != nil {
		return nil, err
	}

	var suggestions []CaseSuggestion
	if err := decodeList(raw, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// SuggestSchemaImprovements asks the model for n improvements to the
// contract itself. n <= 0 defaults to 3.
func SuggestSchemaImprovements(ctx context.Context, c Client, schema *contract.Schema, report *conformance.ValidationReport, n int) ([]SchemaSuggestion, error) {
	if schema.Empty() {
		return nil, fmt.Errorf("schema is required for suggestions")
	}
	if report == nil {
		return nil, fmt.Errorf("validation report is required for suggestions")
	}
	if n <= 0 {
		n = defaultSuggestions
	}

	raw, err := c.Complete(ctx, schemaImprovementPrompt(schema.JSON(), summarizeReport(report), n))
	if err != nil {
		return nil, err
	}

	var suggestions []SchemaSuggestion
	if err := decodeList(raw, &suggestions); err != nil {
		return nil, err
	}
	return suggestions, nil
}

// GenerateCases asks the model for n synthetic records conforming to
// the schema, optionally steered toward known issues and extra
// instructions. n <= 0 defaults to 5. The response parses through the
// tabular loader, so column order follows first appearance across the
// generated records.
func GenerateCases(ctx context.Context, c Client, schema *contract.Schema, n int, focus []FocusIssue, instructions string) (*tabular.Dataset, error) {
	if schema.Empty() {
		return nil, fmt.Errorf("schema is required for test case generation")
	}
	if n <= 0 {
		n = defaultCases
	}

	raw, err := c.Complete(ctx, generateCasesPrompt(schema.JSON(), n, focus, instructions))
	if err != nil {
		return nil, err
	}

	cleaned := stripFences(raw)
	if !strings.HasPrefix(cleaned, "[") {
		return nil, fmt.Errorf("unexpected response structure from AI: expected a JSON array of records")
	}
	ds, err := tabular.ParseJSON([]byte(cleaned))
	if err != nil {
		return nil, fmt.Errorf("failed to parse generated records: %w", err)
	}
	return ds, nil
}

// InferSchema reverse-engineers a schema contract from up to
// sampleLimit records of the dataset. sampleLimit <= 0 defaults to 100.
func InferSchema(ctx context.Context, c Client, ds *tabular.Dataset, sampleLimit int) (map[string]any, error) {
	if ds.Empty() {
		return nil, fmt.Errorf("no sample data provided for schema inference")
	}
	if sampleLimit <= 0 {
		sampleLimit = defaultSampleLimit
	}

	prompt, err := inferSchemaPrompt(ds.Head(sampleLimit))
	if err != nil {
		return nil, err
	}
	raw, err := c.Complete(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var schema map[string]any
	if err := json.Unmarshal([]byte(stripFences(raw)), &schema); err != nil {
		return nil, fmt.Errorf("failed to parse inferred schema: %w", err)
	}
	return schema, nil
}
