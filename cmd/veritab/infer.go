package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"

	"veritab/cmd/veritab/ui"
	"veritab/internal/contract"
	"veritab/internal/suggest"
	"veritab/internal/tabular"
)

var (
	inferOut    string
	inferSample int
)

// inferCmd reverse-engineers a schema contract from data
var inferCmd = &cobra.Command{
	Use:   "infer [data-file]",
	Short: "Reverse-engineer a schema contract from sample data",
	Long: `Asks Gemini to infer a schema contract from the dataset: field types,
enums for low-cardinality strings, plausible numeric bounds, and a
required list.

The schema prints as YAML, or writes to --out (.yaml, .yml or .json).
Review the result before using it as a contract; it is a starting
point, not ground truth.`,
	Args: cobra.ExactArgs(1),
	RunE: runInfer,
}

func init() {
	inferCmd.Flags().StringVarP(&inferOut, "out", "o", "", "Output path (.yaml, .yml or .json; default prints YAML)")
	inferCmd.Flags().IntVar(&inferSample, "sample", 100, "Maximum records to send as the sample")
}

func runInfer(cmd *cobra.Command, args []string) error {
	ds, err := tabular.LoadFile(args[0])
	if err != nil {
		return err
	}
	logger.Debug("data loaded", zap.Int("records", ds.Len()), zap.Int("columns", len(ds.Columns)))

	client, err := newAIClient()
	if err != nil {
		return err
	}
	ctx, cancel := commandContext(cfg.GetAITimeout())
	defer cancel()

	inferred, err := suggest.InferSchema(ctx, client, ds, inferSample)
	if err != nil {
		return err
	}

	styles := ui.NewStyles(ui.ThemeFromName(cfg.Theme))
	if warn := checkInferred(inferred); warn != nil {
		fmt.Println(styles.Warning.Render("Inferred schema failed the structural check: " + warn.Error()))
	}

	data, err := encodeSchema(inferred, inferOut)
	if err != nil {
		return err
	}
	if inferOut == "" {
		fmt.Print(string(data))
		return nil
	}
	if err := os.WriteFile(inferOut, data, 0644); err != nil {
		return fmt.Errorf("failed to write schema: %w", err)
	}
	fmt.Println(styles.Info.Render("Schema written to " + inferOut))
	return nil
}

// checkInferred runs the structural gate over the inferred document.
func checkInferred(inferred map[string]any) error {
	data, err := json.Marshal(inferred)
	if err != nil {
		return err
	}
	schema, err := contract.Parse(data)
	if err != nil {
		return err
	}
	return schema.CheckStructure()
}

// encodeSchema serializes a schema document per the output extension;
// an empty path means YAML for stdout.
func encodeSchema(schema map[string]any, path string) ([]byte, error) {
	if path == "" {
		return yaml.Marshal(schema)
	}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".yaml", ".yml":
		return yaml.Marshal(schema)
	case ".json":
		return json.MarshalIndent(schema, "", "  ")
	default:
		return nil, fmt.Errorf("unsupported output type %q: use .yaml, .yml or .json", ext)
	}
}
