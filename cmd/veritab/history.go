package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"veritab/cmd/veritab/ui"
	"veritab/internal/export"
	"veritab/internal/store"
)

var (
	historyLimit      int
	historyShowJSON   bool
	historyShowRender bool
)

// historyCmd lists recent validation runs
var historyCmd = &cobra.Command{
	Use:   "history",
	Short: "List recent validation runs",
	Long: `Lists validation runs recorded with "check --save", newest first.
Use "history show <run-id>" to re-render a stored report; a unique id
prefix is enough.`,
	RunE: runHistory,
}

var historyShowCmd = &cobra.Command{
	Use:   "show [run-id]",
	Short: "Show a stored validation run",
	Args:  cobra.ExactArgs(1),
	RunE:  runHistoryShow,
}

func init() {
	historyCmd.Flags().IntVar(&historyLimit, "limit", 20, "Maximum runs to list (0 for all)")
	historyShowCmd.Flags().BoolVar(&historyShowJSON, "json", false, "Print the stored report as JSON")
	historyShowCmd.Flags().BoolVar(&historyShowRender, "render", false, "Render the stored report as Markdown in the terminal")
	historyCmd.AddCommand(historyShowCmd)
}

func runHistory(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.History.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(historyLimit)
	if err != nil {
		return err
	}

	styles := ui.NewStyles(ui.ThemeFromName(cfg.Theme))
	if len(runs) == 0 {
		fmt.Println(styles.Muted.Render("No validation runs recorded yet. Run \"veritab check --save\" to record one."))
		return nil
	}

	tbl := ui.NewTable("Validation Runs", "ID", "When", "Status", "Errors", "Warnings", "Data", "Schema")
	for _, r := range runs {
		tbl.AddRow(
			shortID(r.ID),
			r.CreatedAt.Local().Format("2006-01-02 15:04:05"),
			styles.StatusBadge(r.Status),
			strconv.Itoa(r.ErrorCount),
			strconv.Itoa(r.WarningCount),
			r.DataPath,
			r.SchemaPath,
		)
	}
	fmt.Print(tbl.View(styles))
	return nil
}

func runHistoryShow(cmd *cobra.Command, args []string) error {
	st, err := store.Open(cfg.History.DatabasePath, logger)
	if err != nil {
		return err
	}
	defer st.Close()

	run, err := findRun(st, args[0])
	if err != nil {
		return err
	}

	styles := ui.NewStyles(ui.ThemeFromName(cfg.Theme))

	if historyShowJSON {
		out, err := json.MarshalIndent(run.Report, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal report: %w", err)
		}
		fmt.Println(string(out))
		return nil
	}

	fmt.Printf("%s %s\n", styles.Bold.Render("Run:"), run.ID)
	fmt.Printf("%s %s\n", styles.Bold.Render("When:"), run.CreatedAt.Local().Format("2006-01-02 15:04:05"))
	fmt.Printf("%s %s\n", styles.Bold.Render("Data:"), run.DataPath)
	fmt.Printf("%s %s\n\n", styles.Bold.Render("Schema:"), run.SchemaPath)

	if run.Report == nil {
		fmt.Println(styles.Muted.Render("No report stored for this run."))
		return nil
	}

	if historyShowRender {
		md := export.MarkdownReport(export.Input{Report: run.Report})
		rendered, err := renderMarkdown(md, styles.Theme.IsDark, 0)
		if err != nil {
			return err
		}
		fmt.Println(rendered)
		return nil
	}

	fmt.Print(ui.RenderReport(styles, run.Report))
	return nil
}

// findRun resolves an exact run id or a unique id prefix.
func findRun(st *store.Store, id string) (*store.Run, error) {
	run, err := st.GetRun(id)
	if err == nil {
		return run, nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return nil, err
	}

	runs, err := st.ListRuns(0)
	if err != nil {
		return nil, err
	}
	var match *store.Run
	for _, r := range runs {
		if strings.HasPrefix(r.ID, id) {
			if match != nil {
				return nil, fmt.Errorf("run id %q is ambiguous", id)
			}
			match = r
		}
	}
	if match == nil {
		return nil, fmt.Errorf("run %q: %w", id, store.ErrNotFound)
	}
	return st.GetRun(match.ID)
}

// shortID abbreviates a uuid for table display.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
