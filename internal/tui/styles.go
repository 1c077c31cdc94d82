package tui

import "github.com/charmbracelet/lipgloss"

var (
	colorBorder = lipgloss.ANSIColor(8)
	colorTitle  = lipgloss.ANSIColor(14)
	colorText   = lipgloss.ANSIColor(7)
	colorDim    = lipgloss.ANSIColor(8)
	colorAccent = lipgloss.ANSIColor(11)
	colorTrace  = lipgloss.ANSIColor(10)

	spectrumLow  = lipgloss.ANSIColor(10)
	spectrumMid  = lipgloss.ANSIColor(11)
	spectrumHigh = lipgloss.ANSIColor(9)
)

var (
	frameStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Foreground(colorTitle).
			Bold(true)

	labelStyle = lipgloss.NewStyle().
			Foreground(colorText).
			Bold(true)

	traceStyle = lipgloss.NewStyle().
			Foreground(colorTrace)

	statusStyle = lipgloss.NewStyle().
			Foreground(colorAccent)

	helpStyle = lipgloss.NewStyle().
			Foreground(colorDim)

	specLowStyle  = lipgloss.NewStyle().Foreground(spectrumLow)
	specMidStyle  = lipgloss.NewStyle().Foreground(spectrumMid)
	specHighStyle = lipgloss.NewStyle().Foreground(spectrumHigh)
)
