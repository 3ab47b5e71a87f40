package tui

import "github.com/charmbracelet/lipgloss"

var (
	// Adaptive colors for dark/light terminals
	colorPrimary   = lipgloss.AdaptiveColor{Light: "#5A56E0", Dark: "#7571F9"}
	colorSecondary = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}
	colorDim       = lipgloss.AdaptiveColor{Light: "#9B9B9B", Dark: "#626262"}
	colorAccent    = lipgloss.AdaptiveColor{Light: "#F25D94", Dark: "#F25D94"}
	colorGreen     = lipgloss.AdaptiveColor{Light: "#04B575", Dark: "#25D366"}
	colorRed       = lipgloss.AdaptiveColor{Light: "#D63031", Dark: "#FF6B6B"}
	colorLink      = lipgloss.AdaptiveColor{Light: "#0A66C2", Dark: "#6CA6EA"}
	colorStatusBg  = lipgloss.AdaptiveColor{Light: "#E8E8E8", Dark: "#16213E"}
	colorStatusFg  = lipgloss.AdaptiveColor{Light: "#3D3D3D", Dark: "#ABABAB"}

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorPrimary)

	clockStyle = lipgloss.NewStyle().
			Foreground(colorPrimary)

	sectionStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorAccent)

	bodyStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	metaStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	linkStyle = lipgloss.NewStyle().
			Foreground(colorLink)

	errorStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	staleStyle = lipgloss.NewStyle().
			Foreground(colorDim).
			Italic(true)

	upStyle = lipgloss.NewStyle().
			Foreground(colorGreen)

	downStyle = lipgloss.NewStyle().
			Foreground(colorRed)

	statusBarStyle = lipgloss.NewStyle().
			Background(colorStatusBg).
			Foreground(colorStatusFg).
			PaddingLeft(1).
			PaddingRight(1)

	spinnerStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	formLabelStyle = lipgloss.NewStyle().
			Foreground(colorSecondary)

	formSelectedStyle = lipgloss.NewStyle().
				Foreground(colorAccent).
				Bold(true)

	formHintStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpDimStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	helpCardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorPrimary).
			Padding(1, 3)
)
