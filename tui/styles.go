package tui

import (
	"github.com/charmbracelet/lipgloss"
)

// Palette tuned for dark terminals.
var (
	ColorPrimary   = lipgloss.Color("255")
	ColorSecondary = lipgloss.Color("240")
	ColorAccent    = lipgloss.Color("39")
	ColorSuccess   = lipgloss.Color("42")
	ColorError     = lipgloss.Color("196")
	ColorWarning   = lipgloss.Color("214")
	ColorDim       = lipgloss.Color("240")
	ColorSQL       = lipgloss.Color("178")
)

var (
	StyleNormal = lipgloss.NewStyle().Foreground(ColorPrimary)
	StyleDimmed = lipgloss.NewStyle().Foreground(ColorDim)
	StyleBold   = lipgloss.NewStyle().Bold(true).Foreground(ColorPrimary)

	StyleSuccess = lipgloss.NewStyle().Foreground(ColorSuccess)
	StyleError   = lipgloss.NewStyle().Foreground(ColorError).Bold(true)
	StyleWarning = lipgloss.NewStyle().Foreground(ColorWarning)

	StyleBorder = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(ColorSecondary)

	StyleTitle  = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	StylePrompt = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)

	// Conversation turns
	StyleUser      = lipgloss.NewStyle().Bold(true).Foreground(ColorAccent)
	StyleAssistant = lipgloss.NewStyle().Bold(true).Foreground(ColorSuccess)
	StyleSQL       = lipgloss.NewStyle().Foreground(ColorSQL)

	StyleSidebar = lipgloss.NewStyle().
			Border(lipgloss.NormalBorder(), false, false, false, true).
			BorderForeground(ColorSecondary).
			PaddingLeft(1)

	StyleStatusBar = lipgloss.NewStyle().
			Foreground(ColorSecondary)

	StyleHelpKey = lipgloss.NewStyle().
			Foreground(ColorAccent).
			Bold(true)

	StyleHelpDesc = lipgloss.NewStyle().
			Foreground(ColorDim)
)
