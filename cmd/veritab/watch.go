package main

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"veritab/cmd/veritab/ui"
	"veritab/internal/conformance"
	"veritab/internal/export"
	"veritab/internal/watch"
)

var watchSchemaPath string

// watchCmd re-validates whenever the data or schema file changes
var watchCmd = &cobra.Command{
	Use:   "watch [data-file]",
	Short: "Re-validate on every change to the data or schema file",
	Long: `Watches the data and schema files and re-runs validation whenever
either settles after a change. The report is rendered in a scrollable
terminal view.

Keys: up/down scroll, q quits.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().StringVarP(&watchSchemaPath, "schema", "s", "", "Schema contract file (YAML or JSON)")
	_ = watchCmd.MarkFlagRequired("schema")
}

func runWatch(cmd *cobra.Command, args []string) error {
	dataPath := args[0]

	changes := make(chan string, 8)
	w, err := watch.New(watch.Config{
		Paths:    []string{dataPath, watchSchemaPath},
		Debounce: cfg.GetDebounce(),
		OnChange: func(ctx context.Context, path string) {
			select {
			case changes <- path:
			default:
			}
		},
		Logger: logger,
	})
	if err != nil {
		return err
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if err := w.Start(ctx); err != nil {
		return err
	}
	defer w.Stop()

	styles := ui.NewStyles(ui.ThemeFromName(cfg.Theme))
	p := tea.NewProgram(
		newWatchModel(dataPath, watchSchemaPath, changes, styles),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
	)
	_, err = p.Run()
	return err
}

// Messages for tea updates
type (
	validatedMsg struct {
		report   *conformance.ValidationReport
		markdown string
		ranAt    time.Time
	}
	validateFailedMsg error
	fileChangedMsg    string
)

// watchModel is the model for the watch-mode terminal interface.
type watchModel struct {
	spinner  spinner.Model
	viewport viewport.Model
	styles   ui.Styles

	dataPath   string
	schemaPath string
	changes    <-chan string

	report     *conformance.ValidationReport
	markdown   string
	lastRun    time.Time
	validating bool
	err        error

	width  int
	height int
	ready  bool
}

func newWatchModel(dataPath, schemaPath string, changes <-chan string, styles ui.Styles) watchModel {
	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.Spinner

	vp := viewport.New(80, 20)
	vp.SetContent("")

	return watchModel{
		spinner:    sp,
		viewport:   vp,
		styles:     styles,
		dataPath:   dataPath,
		schemaPath: schemaPath,
		changes:    changes,
		validating: true,
	}
}

func (m watchModel) Init() tea.Cmd {
	return tea.Batch(
		m.spinner.Tick,
		m.validate(),
		m.waitForChange(),
	)
}

// validate runs one full validation pass off the UI loop.
func (m watchModel) validate() tea.Cmd {
	dataPath, schemaPath := m.dataPath, m.schemaPath
	return func() tea.Msg {
		ds, schema, err := loadInputs(context.Background(), dataPath, schemaPath)
		if err != nil {
			return validateFailedMsg(err)
		}
		report := conformance.Evaluate(ds, schema)
		md := export.MarkdownReport(export.Input{
			Schema:  schema,
			Dataset: ds,
			Report:  report,
		})
		return validatedMsg{report: report, markdown: md, ranAt: time.Now()}
	}
}

// waitForChange blocks until the watcher reports a settled file change.
func (m watchModel) waitForChange() tea.Cmd {
	changes := m.changes
	return func() tea.Msg {
		path, ok := <-changes
		if !ok {
			return nil
		}
		return fileChangedMsg(path)
	}
}

func (m watchModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c", "esc":
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height

		headerHeight := 3
		footerHeight := 2
		if !m.ready {
			m.viewport = viewport.New(msg.Width-2, msg.Height-headerHeight-footerHeight)
			m.ready = true
		} else {
			m.viewport.Width = msg.Width - 2
			m.viewport.Height = msg.Height - headerHeight - footerHeight
		}
		m.renderContent()

	case spinner.TickMsg:
		if m.validating {
			var cmd tea.Cmd
			m.spinner, cmd = m.spinner.Update(msg)
			return m, cmd
		}

	case fileChangedMsg:
		m.validating = true
		m.err = nil
		return m, tea.Batch(m.spinner.Tick, m.validate(), m.waitForChange())

	case validatedMsg:
		m.validating = false
		m.report = msg.report
		m.markdown = msg.markdown
		m.lastRun = msg.ranAt
		m.renderContent()
		m.viewport.GotoTop()

	case validateFailedMsg:
		m.validating = false
		m.err = msg
	}

	var cmd tea.Cmd
	m.viewport, cmd = m.viewport.Update(msg)
	return m, cmd
}

// renderContent re-renders the cached Markdown at the current width.
func (m *watchModel) renderContent() {
	if m.markdown == "" {
		return
	}
	rendered, err := renderMarkdown(m.markdown, m.styles.Theme.IsDark, m.viewport.Width-2)
	if err != nil {
		m.err = err
		return
	}
	m.viewport.SetContent(rendered)
}

func (m watchModel) View() string {
	if !m.ready {
		return "Initializing..."
	}

	return lipgloss.JoinVertical(
		lipgloss.Left,
		m.renderHeader(),
		m.viewport.View(),
		m.renderFooter(),
	)
}

func (m watchModel) renderHeader() string {
	title := m.styles.Title.Render(" veritab watch ")

	var status string
	switch {
	case m.validating:
		status = m.styles.Spinner.Render(m.spinner.View()) + m.styles.Warning.Render(" Validating")
	case m.err != nil:
		status = m.styles.Error.Render("● Error")
	case m.report != nil:
		status = m.styles.StatusBadge(m.report.OverallStatus)
	default:
		status = m.styles.Muted.Render("● Waiting")
	}

	headerLine := lipgloss.JoinHorizontal(lipgloss.Center, title, "  ", status)
	files := m.styles.Muted.Render(fmt.Sprintf(" data: %s  schema: %s", m.dataPath, m.schemaPath))

	return lipgloss.JoinVertical(
		lipgloss.Left,
		headerLine,
		files,
		m.styles.RenderDivider(m.width),
	)
}

func (m watchModel) renderFooter() string {
	help := "↑/↓: scroll • q: quit"
	if !m.lastRun.IsZero() {
		help = fmt.Sprintf("last run %s • %s", m.lastRun.Format("15:04:05"), help)
	}
	if m.err != nil {
		help = m.styles.Error.Render("Error: "+m.err.Error()) + "\n" + m.styles.Muted.Render(help)
		return lipgloss.NewStyle().MarginTop(1).Render(help)
	}
	return lipgloss.NewStyle().MarginTop(1).Render(m.styles.Muted.Render(help))
}
