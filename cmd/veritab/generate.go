package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"veritab/cmd/veritab/ui"
	"veritab/internal/conformance"
	"veritab/internal/contract"
	"veritab/internal/export"
	"veritab/internal/suggest"
	"veritab/internal/tabular"
)

var (
	generateSchemaPath   string
	generateCount        int
	generateFromReport   string
	generateInstructions string
	generateOut          string
)

// generateCmd generates synthetic test records for a contract
var generateCmd = &cobra.Command{
	Use:   "generate",
	Short: "Generate synthetic test records for a schema contract",
	Long: `Asks Gemini for synthetic records conforming to the schema contract.
With --from-report the generation is steered toward the errors and
coverage gaps of a previous validation run; --instructions adds
free-form guidance (e.g. "edge cases for numeric fields").

Records print as JSON, or write to --out (.csv or .json).`,
	RunE: runGenerate,
}

func init() {
	generateCmd.Flags().StringVarP(&generateSchemaPath, "schema", "s", "", "Schema contract file (YAML or JSON)")
	_ = generateCmd.MarkFlagRequired("schema")
	generateCmd.Flags().IntVarP(&generateCount, "count", "n", 5, "Number of records to generate")
	generateCmd.Flags().StringVar(&generateFromReport, "from-report", "", "Report JSON whose findings the records should target")
	generateCmd.Flags().StringVar(&generateInstructions, "instructions", "", "Extra guidance for the generator")
	generateCmd.Flags().StringVarP(&generateOut, "out", "o", "", "Output path (.csv or .json; default prints JSON)")
}

func runGenerate(cmd *cobra.Command, args []string) error {
	schema, err := contract.Load(generateSchemaPath)
	if err != nil {
		return err
	}
	if err := schema.CheckStructure(); err != nil {
		return err
	}

	var focus []suggest.FocusIssue
	if generateFromReport != "" {
		report, err := loadReportFile(generateFromReport)
		if err != nil {
			return err
		}
		focus = suggest.FocusFromReport(report)
		logger.Debug("loaded focus issues", zap.Int("count", len(focus)))
	}

	client, err := newAIClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cfg.GetAITimeout())
	defer cancel()

	cases, err := suggest.GenerateCases(ctx, client, schema, generateCount, focus, generateInstructions)
	if err != nil {
		return err
	}

	styles := ui.NewStyles(ui.ThemeFromName(cfg.Theme))
	if generateOut == "" {
		out, err := json.MarshalIndent(cases.Records, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal generated records: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	data, err := encodeCases(cases, generateOut)
	if err != nil {
		return err
	}
	if err := os.WriteFile(generateOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write generated records: %w", err)
	}
	fmt.Println(styles.Info.Render(fmt.Sprintf("%d records written to %s", cases.Len(), generateOut)))
	return nil
}

// encodeCases serializes generated records per the output extension.
func encodeCases(cases *tabular.Dataset, path string) ([]byte, error) {
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".csv":
		return export.CasesCSV(cases)
	case ".json":
		return json.MarshalIndent(cases.Records, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported output type %q: use .csv or .json", ext)
	}
}

// loadReportFile reads a validation report stored as JSON.
func loadReportFile(path string) (*conformance.ValidationReport, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read report file: %w", err)
	}
	var report conformance.ValidationReport
	if err := json.Unmarshal(data, &report); err != nil {
		return nil, fmt.Errorf("parse report file: %w", err)
	}
	return &report, nil
}
