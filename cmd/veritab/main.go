package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"veritab/internal/config"
	"veritab/internal/contract"
	"veritab/internal/logging"
	"veritab/internal/suggest"
	"veritab/internal/tabular"
)

var (
	// Global flags
	verbose    bool
	configPath string
	apiKey     string

	// Shared state, built in PersistentPreRunE
	cfg    *config.Config
	logger *zap.Logger
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "veritab",
	Short: "veritab - schema conformance and coverage analysis for tabular data",
	Long: `veritab validates CSV/JSON datasets against a JSON Schema style
contract and measures how thoroughly the data exercises the contract's
constraints: required fields, enum values, and numeric boundaries.

Beyond pass/fail checking it can ask Gemini for test-case and schema
improvement suggestions, generate synthetic records for a contract,
reverse-engineer a contract from sample data, and keep a local history
of validation runs.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		logger, err = logging.New(verbose)
		if err != nil {
			return fmt.Errorf("failed to initialize logger: %w", err)
		}

		path := configPath
		if path == "" {
			path = config.File()
		}
		cfg, err = config.Load(path)
		if err != nil {
			return err
		}
		if apiKey != "" {
			cfg.AI.APIKey = apiKey
		}
		return cfg.Validate()
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logger != nil {
			_ = logger.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ~/.veritab/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&apiKey, "api-key", "", "Gemini API key (or set GEMINI_API_KEY env)")

	rootCmd.AddCommand(checkCmd)
	rootCmd.AddCommand(suggestCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(inferCmd)
	rootCmd.AddCommand(historyCmd)
	rootCmd.AddCommand(watchCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// loadInputs reads the dataset and the schema contract concurrently.
func loadInputs(ctx context.Context, dataPath, schemaPath string) (*tabular.Dataset, *contract.Schema, error) {
	var (
		ds     *tabular.Dataset
		schema *contract.Schema
	)
	g, _ := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		ds, err = tabular.LoadFile(dataPath)
		return err
	})
	g.Go(func() error {
		var err error
		schema, err = contract.Load(schemaPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return ds, schema, nil
}

// newAIClient builds the Gemini client from the loaded config.
func newAIClient() (suggest.Client, error) {
	if cfg.AI.APIKey == "" {
		return nil, fmt.Errorf("gemini API key is required: pass --api-key, set GEMINI_API_KEY, or add ai.api_key to the config")
	}
	return suggest.NewGeminiClientWithConfig(suggest.GeminiConfig{
		APIKey:     cfg.AI.APIKey,
		Model:      cfg.AI.Model,
		MaxRetries: cfg.AI.MaxRetries,
		Logger:     logger,
	})
}

// commandContext returns a context bounded by timeout and canceled on
// SIGINT/SIGTERM.
func commandContext(timeout time.Duration) (context.Context, context.CancelFunc) {
	ctx, cancel := context.WithTimeout(context.Background(), timeout)

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		select {
		case <-sigCh:
			logger.Info("Received shutdown signal")
			cancel()
		case <-ctx.Done():
		}
		signal.Stop(sigCh)
	}()

	return ctx, cancel
}

// renderMarkdown renders a Markdown document for the terminal through
// glamour, matching the active theme.
func renderMarkdown(md string, dark bool, width int) (string, error) {
	if width <= 0 {
		width = 100
	}
	var (
		r   *glamour.TermRenderer
		err error
	)
	if dark {
		r, err = glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(width),
		)
	} else {
		r, err = glamour.NewTermRenderer(
			glamour.WithStylePath("light"),
			glamour.WithWordWrap(width),
		)
	}
	if err != nil {
		return "", fmt.Errorf("failed to create markdown renderer: %w", err)
	}
	return r.Render(md)
}
