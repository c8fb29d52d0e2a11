// Package ui provides terminal styling and small render helpers for the
// veritab CLI.
package ui

import (
	"os"
	"strconv"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"veritab/internal/conformance"
)

// Color palette.
var (
	// Light theme colors
	LightBackground = lipgloss.Color("#f4f5f6") // hsl(210, 7%, 96%)
	LightForeground = lipgloss.Color("#101F38") // hsl(218, 56%, 14%)
	LightPrimary    = lipgloss.Color("#101F38")
	LightAccent     = lipgloss.Color("#8BC34A") // hsl(88, 50%, 53%)
	LightMuted      = lipgloss.Color("#6b7280")
	LightBorder     = lipgloss.Color("#d1d5db")

	// Dark theme colors
	DarkBackground = lipgloss.Color("#101F38")
	DarkForeground = lipgloss.Color("#f4f5f6")
	DarkPrimary    = lipgloss.Color("#e2e8f0")
	DarkAccent     = lipgloss.Color("#8BC34A")
	DarkMuted      = lipgloss.Color("#9ca3af")
	DarkBorder     = lipgloss.Color("#374151")

	// Semantic colors (shared between themes)
	ColorSuccess = lipgloss.Color("#8BC34A")
	ColorError   = lipgloss.Color("#e53935")
	ColorWarning = lipgloss.Color("#FFC107")
	ColorInfo    = lipgloss.Color("#2196F3")
)

// Theme holds the semantic colors used to build Styles.
type Theme struct {
	Background lipgloss.Color
	Foreground lipgloss.Color
	Primary    lipgloss.Color
	Accent     lipgloss.Color
	Muted      lipgloss.Color
	Border     lipgloss.Color
	IsDark     bool
}

// LightTheme returns the light color theme.
func LightTheme() Theme {
	return Theme{
		Background: LightBackground,
		Foreground: LightForeground,
		Primary:    LightPrimary,
		Accent:     LightAccent,
		Muted:      LightMuted,
		Border:     LightBorder,
		IsDark:     false,
	}
}

// DarkTheme returns the dark color theme.
func DarkTheme() Theme {
	return Theme{
		Background: DarkBackground,
		Foreground: DarkForeground,
		Primary:    DarkPrimary,
		Accent:     DarkAccent,
		Muted:      DarkMuted,
		Border:     DarkBorder,
		IsDark:     true,
	}
}

// ThemeFromName resolves a configured theme name ("light", "dark" or
// "auto") to a Theme. Unknown names fall back to auto-detection.
func ThemeFromName(name string) Theme {
	switch strings.ToLower(name) {
	case "light":
		return LightTheme()
	case "dark":
		return DarkTheme()
	default:
		return DetectTheme()
	}
}

// DetectTheme guesses the terminal theme from the environment.
//
// COLORFGBG is set by several terminal emulators as "fg;bg" where bg is
// an ANSI color index. Low indexes mean a dark background.
func DetectTheme() Theme {
	if v := os.Getenv("VERITAB_DARK_MODE"); v != "" {
		if dark, err := strconv.ParseBool(v); err == nil && dark {
			return DarkTheme()
		}
		return LightTheme()
	}

	if fgbg := os.Getenv("COLORFGBG"); fgbg != "" {
		parts := strings.Split(fgbg, ";")
		if len(parts) >= 2 {
			bg, err := strconv.Atoi(parts[len(parts)-1])
			if err == nil && (bg <= 6 || bg == 8) {
				return DarkTheme()
			}
			if err == nil {
				return LightTheme()
			}
		}
	}

	return LightTheme()
}

// Styles holds the lipgloss styles used across the CLI.
type Styles struct {
	// Text
	Title    lipgloss.Style
	Subtitle lipgloss.Style
	Body     lipgloss.Style
	Muted    lipgloss.Style
	Bold     lipgloss.Style

	// Status
	Success lipgloss.Style
	Error   lipgloss.Style
	Warning lipgloss.Style
	Info    lipgloss.Style

	// Status badges (inverse text on a colored block)
	BadgePass lipgloss.Style
	BadgeWarn lipgloss.Style
	BadgeFail lipgloss.Style
	BadgeNone lipgloss.Style

	// Code
	CodeBlock  lipgloss.Style
	InlineCode lipgloss.Style

	// Components
	Spinner lipgloss.Style
	Divider lipgloss.Style

	Theme Theme
}

// NewStyles creates the CLI styles for a theme.
func NewStyles(theme Theme) Styles {
	badge := lipgloss.NewStyle().
		Foreground(theme.Background).
		Padding(0, 1).
		Bold(true)

	return Styles{
		Title: lipgloss.NewStyle().
			Foreground(theme.Primary).
			Bold(true),

		Subtitle: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Body: lipgloss.NewStyle().
			Foreground(theme.Foreground),

		Muted: lipgloss.NewStyle().
			Foreground(theme.Muted),

		Bold: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Bold(true),

		Success: lipgloss.NewStyle().
			Foreground(ColorSuccess),

		Error: lipgloss.NewStyle().
			Foreground(ColorError).
			Bold(true),

		Warning: lipgloss.NewStyle().
			Foreground(ColorWarning),

		Info: lipgloss.NewStyle().
			Foreground(ColorInfo),

		BadgePass: badge.Background(ColorSuccess),
		BadgeWarn: badge.Background(ColorWarning),
		BadgeFail: badge.Background(ColorError),
		BadgeNone: badge.Background(theme.Muted),

		CodeBlock: lipgloss.NewStyle().
			Foreground(theme.Foreground).
			Background(theme.Background).
			Padding(0, 1).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border),

		InlineCode: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Spinner: lipgloss.NewStyle().
			Foreground(theme.Accent),

		Divider: lipgloss.NewStyle().
			Foreground(theme.Border),

		Theme: theme,
	}
}

// DefaultStyles returns styles using the auto-detected theme.
func DefaultStyles() Styles {
	return NewStyles(DetectTheme())
}

// StatusBadge renders a validation status as a colored badge.
func (s Styles) StatusBadge(status conformance.Status) string {
	switch status {
	case conformance.StatusPass:
		return s.BadgePass.Render(string(status))
	case conformance.StatusWarnings:
		return s.BadgeWarn.Render(string(status))
	case conformance.StatusFail:
		return s.BadgeFail.Render(string(status))
	default:
		return s.BadgeNone.Render(string(status))
	}
}

// RenderDivider renders a horizontal divider of the given width.
func (s Styles) RenderDivider(width int) string {
	if width <= 0 {
		width = 40
	}
	return s.Divider.Render(strings.Repeat("─", width))
}
