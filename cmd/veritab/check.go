package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"veritab/cmd/veritab/ui"
	"veritab/internal/conformance"
	"veritab/internal/export"
	"veritab/internal/store"
)

var (
	checkSchemaPath string
	checkReportPath string
	checkFailedCSV  string
	checkJSON       bool
	checkSave       bool
	checkRender     bool
)

// checkCmd validates a dataset against a schema contract
var checkCmd = &cobra.Command{
	Use:   "check [data-file]",
	Short: "Validate a dataset against a schema contract",
	Long: `Validates every record of a CSV or JSON dataset against a schema
contract and analyzes how well the data covers the contract's
constraints (required fields, enum values, numeric boundaries).

The process exits non-zero when validation errors are found, so check
can gate a CI pipeline.

Example:
  veritab check users.csv --schema users.schema.yaml --report report.md`,
	Args: cobra.ExactArgs(1),
	RunE: runCheck,
}

func init() {
	checkCmd.Flags().StringVarP(&checkSchemaPath, "schema", "s", "", "Schema contract file (YAML or JSON)")
	_ = checkCmd.MarkFlagRequired("schema")
	checkCmd.Flags().StringVar(&checkReportPath, "report", "", "Write a Markdown validation report to this path")
	checkCmd.Flags().StringVar(&checkFailedCSV, "failed-csv", "", "Write the rows that failed validation to this CSV path")
	checkCmd.Flags().BoolVar(&checkJSON, "json", false, "Print the report as JSON instead of tables")
	checkCmd.Flags().BoolVar(&checkSave, "save", false, "Record the run in the validation history")
	checkCmd.Flags().BoolVar(&checkRender, "render", false, "Render the Markdown report in the terminal")
}

func runCheck(cmd *cobra.Command, args []string) error {
	dataPath := args[0]

	ds, schema, err := loadInputs(cmd.Context(), dataPath, checkSchemaPath)
	if err != nil {
		return err
	}
	if err := schema.CheckStructure(); err != nil {
		return err
	}
	logger.Debug("inputs loaded",
		zap.String("data", dataPath),
		zap.String("schema", checkSchemaPath),
		zap.Int("records", ds.Len()),
		zap.Int("fields", len(schema.FieldNames)))

	report := conformance.Evaluate(ds, schema)

	styles := ui.NewStyles(ui.ThemeFromName(cfg.Theme))
	if checkJSON {
		out, err := json.MarshalIndent(report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(out))
	} else {
		fmt.Print(ui.RenderReport(styles, report))
	}

	if checkReportPath != "" || checkRender {
		md := export.MarkdownReport(export.Input{
			Schema:  schema,
			Dataset: ds,
			Report:  report,
		})
		if checkReportPath != "" {
			if err := os.WriteFile(checkReportPath, []byte(md), 0644); err != nil {
				return fmt.Errorf("failed to write report: %w", err)
			}
			fmt.Println(styles.Info.Render("Report written to " + checkReportPath))
		}
		if checkRender {
			rendered, err := renderMarkdown(md, styles.Theme.IsDark, 0)
			if err != nil {
				return err
			}
			fmt.Println(rendered)
		}
	}

	if checkFailedCSV != "" {
		csv, err := export.FailedRowsCSV(ds, report.Errors)
		if err != nil {
			return fmt.Errorf("failed to build failed-rows CSV: %w", err)
		}
		if csv == nil {
			fmt.Println(styles.Muted.Render("No failed rows to export."))
		} else {
			if err := os.WriteFile(checkFailedCSV, csv, 0644); err != nil {
				return fmt.Errorf("failed to write failed-rows CSV: %w", err)
			}
			fmt.Println(styles.Info.Render("Failed rows written to " + checkFailedCSV))
		}
	}

	if checkSave {
		run := &store.Run{
			DataPath:   dataPath,
			SchemaPath: checkSchemaPath,
			Report:     report,
		}
		if err := saveRun(run); err != nil {
			return err
		}
		fmt.Println(styles.Muted.Render("Run saved as " + run.ID))
	}

	if report.OverallStatus == conformance.StatusFail {
		return fmt.Errorf("validation failed: %d error(s)", len(report.Errors))
	}
	return nil
}

// saveRun records a run in the history store and prunes old entries.
func saveRun(run *store.Run) error {
	st, err := store.Open(cfg.History.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	if err := st.SaveRun(run); err != nil {
		return err
	}
	if cfg.History.KeepRuns > 0 {
		if _, err := st.PruneRuns(cfg.History.KeepRuns); err != nil {
			return err
		}
	}
	return nil
}
