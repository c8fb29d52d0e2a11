package main

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"veritab/cmd/veritab/ui"
	"veritab/internal/conformance"
	"veritab/internal/suggest"
)

var (
	suggestSchemaPath  string
	suggestCases       bool
	suggestSchemaFixes bool
	suggestCount       int
)

// suggestCmd asks Gemini for improvement suggestions
var suggestCmd = &cobra.Command{
	Use:   "suggest [data-file]",
	Short: "Ask Gemini how to improve the test data or the schema",
	Long: `Validates the dataset, then asks Gemini for improvement suggestions
based on the validation report: new or modified data points that close
coverage gaps (--cases) and changes to the schema contract itself
(--schema-fixes). Without either flag both kinds are requested.`,
	Args: cobra.ExactArgs(1),
	RunE: runSuggest,
}

func init() {
	suggestCmd.Flags().StringVarP(&suggestSchemaPath, "schema", "s", "", "Schema contract file (YAML or JSON)")
	_ = suggestCmd.MarkFlagRequired("schema")
	suggestCmd.Flags().BoolVar(&suggestCases, "cases", false, "Suggest test-case improvements")
	suggestCmd.Flags().BoolVar(&suggestSchemaFixes, "schema-fixes", false, "Suggest schema contract improvements")
	suggestCmd.Flags().IntVarP(&suggestCount, "count", "n", 3, "Number of suggestions per kind")
}

func runSuggest(cmd *cobra.Command, args []string) error {
	wantCases, wantSchema := suggestCases, suggestSchemaFixes
	if !wantCases && !wantSchema {
		wantCases, wantSchema = true, true
	}

	ds, schema, err := loadInputs(cmd.Context(), args[0], suggestSchemaPath)
	if err != nil {
		return err
	}
	if err := schema.CheckStructure(); err != nil {
		return err
	}

	report := conformance.Evaluate(ds, schema)
	styles := ui.NewStyles(ui.ThemeFromName(cfg.Theme))
	fmt.Printf("%s %s  %s\n\n",
		styles.Bold.Render("Validation:"),
		styles.StatusBadge(report.OverallStatus),
		styles.Muted.Render(fmt.Sprintf("%d error(s), %d warning(s)", len(report.Errors), len(report.Warnings))))

	client, err := newAIClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cfg.GetAITimeout())
	defer cancel()

	if wantCases {
		logger.Debug("requesting case suggestions", zap.Int("count", suggestCount))
		cases, err := suggest.SuggestCaseImprovements(ctx, client, schema, report, suggestCount)
		if err != nil {
			return fmt.Errorf("case suggestions: %w", err)
		}
		printCaseSuggestions(styles, cases)
	}

	if wantSchema {
		logger.Debug("requesting schema suggestions", zap.Int("count", suggestCount))
		fixes, err := suggest.SuggestSchemaImprovements(ctx, client, schema, report, suggestCount)
		if err != nil {
			return fmt.Errorf("schema suggestions: %w", err)
		}
		printSchemaSuggestions(styles, fixes)
	}

	return nil
}

func printCaseSuggestions(styles ui.Styles, suggestions []suggest.CaseSuggestion) {
	fmt.Println(styles.Title.Render("Test Case Suggestions"))
	if len(suggestions) == 0 {
		fmt.Println(styles.Muted.Render("No suggestions returned."))
		fmt.Println()
		return
	}
	for i, s := range suggestions {
		field := s.Field
		if field == "" {
			field = "N/A"
		}
		fmt.Printf("%s %s\n",
			styles.Bold.Render(fmt.Sprintf("%d. %s", i+1, field)),
			styles.Muted.Render("("+s.IssueType+")"))
		fmt.Printf("   Recommended: %s\n", styles.InlineCode.Render(compactJSON(s.RecommendedValue)))
		fmt.Printf("   %s\n\n", s.Explanation)
	}
}

func printSchemaSuggestions(styles ui.Styles, suggestions []suggest.SchemaSuggestion) {
	fmt.Println(styles.Title.Render("Schema Suggestions"))
	if len(suggestions) == 0 {
		fmt.Println(styles.Muted.Render("No suggestions returned."))
		fmt.Println()
		return
	}
	for i, s := range suggestions {
		path := s.SchemaPath
		if path == "" {
			path = "N/A"
		}
		fmt.Printf("%s %s\n",
			styles.Bold.Render(fmt.Sprintf("%d. %s", i+1, path)),
			styles.Muted.Render("("+s.ImprovementType+")"))
		if s.SuggestedSnippet != "" {
			fmt.Printf("   Snippet: %s\n", styles.InlineCode.Render(string(s.SuggestedSnippet)))
		}
		fmt.Printf("   %s\n\n", s.Explanation)
	}
}

// compactJSON renders a decoded JSON value on one line.
func compactJSON(v any) string {
	b, err := json.Marshal(v)
	if err != nil {
		return fmt.Sprintf("%v", v)
	}
	return string(b)
}
