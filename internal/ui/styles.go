package ui

import (
	"github.com/charmbracelet/lipgloss"
)

var (
	ColorAccent  = lipgloss.Color("#0EA5E9")
	ColorHeading = lipgloss.Color("#14B8A6")
	ColorSuccess = lipgloss.Color("#22C55E")
	ColorWarning = lipgloss.Color("#EAB308")
	ColorError   = lipgloss.Color("#F43F5E")
	ColorMuted   = lipgloss.Color("#71717A")
	ColorText    = lipgloss.Color("#FAFAFA")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorHeading)
	AccentStyle  = lipgloss.NewStyle().Foreground(ColorAccent)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorSuccess)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorWarning)
	ErrorStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorError)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorMuted)
	BoldStyle    = lipgloss.NewStyle().Bold(true)

	CodeStyle = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Background(lipgloss.Color("#27272A")).
			Padding(0, 1)

	BoxStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorHeading).
			Padding(0, 1)

	DeviceIDStyle   = lipgloss.NewStyle().Foreground(ColorAccent).Bold(true)
	DeviceNameStyle = lipgloss.NewStyle().Foreground(ColorText)
)

func Title(text string) string {
	return TitleStyle.Render(text)
}

func Success(text string) string {
	return SuccessStyle.Render("✓ " + text)
}

func Warning(text string) string {
	return WarningStyle.Render("⚠ " + text)
}

func Error(text string) string {
	return ErrorStyle.Render("✗ " + text)
}

func Muted(text string) string {
	return MutedStyle.Render(text)
}

func Code(text string) string {
	return CodeStyle.Render(text)
}

func Bold(text string) string {
	return BoldStyle.Render(text)
}
