package tui

import tea "github.com/charmbracelet/bubbletea"

// View is a panel of the main frame. Each view is a self-contained
// Bubble Tea sub-model.
type View interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (View, tea.Cmd)

	// View renders the content without the surrounding chrome.
	View() string

	Name() string
	ShortHelp() []KeyBinding
	SetSize(width, height int)

	// WantsTextInput reports whether printable keys belong to the view.
	WantsTextInput() bool
}

// KeyBinding describes a keyboard shortcut for the help bar.
type KeyBinding struct {
	Key  string
	Desc string
}
