package tui

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/Convl/tomorrows-news/internal/status"
)

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorBorder    = lipgloss.AdaptiveColor{Light: "#DBDBDB", Dark: "#383838"}
	colorActiveBdr = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorYellow    = lipgloss.AdaptiveColor{Light: "#C98A00", Dark: "#E5C07B"}
	colorRed       = lipgloss.AdaptiveColor{Light: "#D33A3A", Dark: "#E06C75"}

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary).
			PaddingLeft(1)

	paneStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder)

	paneActiveStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorActiveBdr)

	paneTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	itemSelectedStyle = lipgloss.NewStyle().
				Foreground(colorPrimary).
				Bold(true)

	itemDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	eventTitleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorSecondary)

	citationStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	dialogStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorActiveBdr).
			Padding(1, 2)

	dialogErrStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	footerStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	severityStyles = map[status.Severity]lipgloss.Style{
		status.SeverityNeutral: lipgloss.NewStyle().Foreground(colorDim),
		status.SeveritySuccess: lipgloss.NewStyle().Foreground(colorGreen),
		status.SeverityWarning: lipgloss.NewStyle().Foreground(colorYellow),
		status.SeverityError:   lipgloss.NewStyle().Foreground(colorRed),
	}
)

// severityDot renders the colored indicator preceding a source line.
func severityDot(sev status.Severity) string {
	style, ok := severityStyles[sev]
	if !ok {
		style = severityStyles[status.SeverityNeutral]
	}
	return style.Render("●")
}
