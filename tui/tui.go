package tui

import (
	tea "github.com/charmbracelet/bubbletea"

	"github.com/deras16/ChatDb-vertexai/applog"
	"github.com/deras16/ChatDb-vertexai/chat"
)

// Run launches the chat UI over session and blocks until it exits.
func Run(session *chat.Session, opts Options) error {
	p := tea.NewProgram(NewApp(session, opts), tea.WithAltScreen())
	_, err := p.Run()
	applog.Info("tui closed: session %s, %d turns", session.ID, session.History.Len())
	return err
}
