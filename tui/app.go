// app.go is the top-level Bubble Tea model.
//
// Layout: a header with the warehouse and dataset, the active view
// (chat, schema or the last query's result; Tab cycles) framed next to a sidebar of example
// prompts, and a status bar with key hints or the last round's outcome.
package tui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deras16/ChatDb-vertexai/chat"
)

const (
	TabChat = iota
	TabSchema
	TabResult
)

// sidebarWidth applies when the terminal is at least minSidebarTerm wide.
const (
	sidebarWidth   = 38
	minSidebarTerm = 100
)

// Options configures the UI chrome.
type Options struct {
	Version  string
	Driver   string
	Provider string
	Examples []string
	ShowSQL  bool
}

// App is the root Bubble Tea model.
type App struct {
	session *chat.Session
	opts    Options

	chat      *ChatView
	schema    *SchemaView
	result    *ResultView
	views     []View
	activeTab int
	example   int // next example for Ctrl+N, -1 before the first

	width     int
	height    int
	showHelp  bool
	statusMsg string
}

func NewApp(session *chat.Session, opts Options) *App {
	cv := NewChatView(session, opts.ShowSQL)
	sv := NewSchemaView(session)
	rv := NewResultView()
	return &App{
		session: session,
		opts:    opts,
		chat:    cv,
		schema:  sv,
		result:  rv,
		views:   []View{cv, sv, rv},
		example: -1,
	}
}

func (a *App) Init() tea.Cmd {
	return a.chat.Init()
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		w, h := a.contentSize()
		for _, v := range a.views {
			v.SetSize(w, h)
		}
		return a, nil

	case tea.KeyMsg:
		return a.handleKey(msg)

	case SQLMsg, ResultMsg, ChunkMsg, DoneMsg:
		a.statusMsg = ""
		if _, ok := msg.(ChunkMsg); !ok {
			a.result.Update(msg)
		}
		updated, cmd := a.chat.Update(msg)
		a.chat = updated.(*ChatView)
		return a, cmd

	case SchemaMsg:
		updated, cmd := a.schema.Update(msg)
		a.schema = updated.(*SchemaView)
		return a, cmd

	case StatusMsg:
		a.statusMsg = string(msg)
		return a, nil
	}
	return a, nil
}

func (a *App) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		if a.chat.cancel != nil {
			a.chat.cancel()
		}
		return a, tea.Quit
	case "tab":
		return a.switchTab((a.activeTab + 1) % len(a.views))
	case "f1":
		a.showHelp = !a.showHelp
		return a, nil
	}

	if a.showHelp {
		if msg.String() == "esc" || msg.String() == "q" {
			a.showHelp = false
		}
		return a, nil
	}

	if a.activeTab == TabChat {
		switch msg.String() {
		case "ctrl+n":
			a.cycleExample(1)
			return a, nil
		case "ctrl+p":
			a.cycleExample(-1)
			return a, nil
		}
	} else if msg.String() == "q" || msg.String() == "esc" {
		return a.switchTab(TabChat)
	}

	updated, cmd := a.views[a.activeTab].Update(msg)
	a.views[a.activeTab] = updated
	return a, cmd
}

func (a *App) switchTab(idx int) (tea.Model, tea.Cmd) {
	a.activeTab = idx
	a.statusMsg = ""
	return a, a.views[idx].Init()
}

func (a *App) cycleExample(step int) {
	n := len(a.opts.Examples)
	if n == 0 {
		a.statusMsg = "no example prompts configured"
		return
	}
	if a.example < 0 && step < 0 {
		a.example = 0
	}
	a.example = ((a.example+step)%n + n) % n
	a.chat.SetInput(a.opts.Examples[a.example])
}

func (a *App) showSidebar() bool {
	return a.width >= minSidebarTerm && len(a.opts.Examples) > 0
}

// contentSize is the area inside the frame available to a view.
func (a *App) contentSize() (int, int) {
	w := a.width - 2 // border
	if a.showSidebar() {
		w -= sidebarWidth
	}
	h := a.height - 4 // header, status bar, border
	return max(w, 10), max(h, 3)
}

func (a *App) View() string {
	if a.width == 0 {
		return "loading..."
	}

	w, h := a.contentSize()
	var body string
	if a.showHelp {
		body = a.renderHelp()
	} else {
		body = a.views[a.activeTab].View()
	}
	body = lipgloss.NewStyle().Width(w).Height(h).MaxHeight(h).Render(body)
	if a.showSidebar() {
		body = lipgloss.JoinHorizontal(lipgloss.Top, body, a.renderSidebar(h))
	}

	frame := StyleBorder.Width(a.width - 2).Render(body)
	return a.renderHeader() + "\n" + frame + "\n" + a.renderStatusBar()
}

func (a *App) renderHeader() string {
	left := StyleBold.Render("chatdb") + StyleDimmed.Render(" "+a.opts.Version)
	info := fmt.Sprintf("  %s · %s", a.opts.Driver, a.session.Dataset)
	if a.opts.Provider != "" {
		info += " · " + a.opts.Provider
	}
	content := left + StyleSuccess.Render(info)

	right := StyleDimmed.Render("[" + a.views[a.activeTab].Name() + "] " + a.session.ID)
	gap := a.width - lipgloss.Width(content) - lipgloss.Width(right)
	if gap < 1 {
		gap = 1
	}
	return lipgloss.NewStyle().Width(a.width).Render(content + strings.Repeat(" ", gap) + right)
}

func (a *App) renderSidebar(height int) string {
	inner := sidebarWidth - 2
	lines := []string{StyleTitle.Render("Try asking"), ""}
	for i, ex := range a.opts.Examples {
		marker := StyleDimmed.Render(fmt.Sprintf("%d.", i+1))
		if i == a.example {
			marker = StylePrompt.Render(fmt.Sprintf("%d.", i+1))
		}
		wrapped := lipgloss.NewStyle().Width(inner - 3).Render(ex)
		for j, l := range strings.Split(wrapped, "\n") {
			if j == 0 {
				lines = append(lines, marker+" "+l)
			} else {
				lines = append(lines, "   "+l)
			}
		}
		lines = append(lines, "")
	}
	lines = append(lines, StyleDimmed.Render("Ctrl+N / Ctrl+P to use one"))
	return StyleSidebar.Width(inner).Height(height).MaxHeight(height).Render(strings.Join(lines, "\n"))
}

func (a *App) renderStatusBar() string {
	content := a.statusMsg
	if content == "" && !a.chat.Busy() {
		content = a.chat.Status()
	}
	if content == "" {
		items := append(a.views[a.activeTab].ShortHelp(),
			KeyBinding{Key: "Tab", Desc: "next view"},
			KeyBinding{Key: "F1", Desc: "help"},
			KeyBinding{Key: "Ctrl+C", Desc: "quit"},
		)
		var parts []string
		for _, k := range items {
			parts = append(parts, StyleHelpKey.Render(k.Key)+" "+StyleHelpDesc.Render(k.Desc))
		}
		content = strings.Join(parts, "  │  ")
	}
	return StyleStatusBar.Width(a.width).Render(content)
}

func (a *App) renderHelp() string {
	row := func(key, desc string) string {
		return StyleHelpKey.Render(fmt.Sprintf("%-12s", key)) + " " + desc
	}
	return strings.Join([]string{
		StyleTitle.Render("Keyboard shortcuts"),
		"",
		row("Enter", "Send the question"),
		row("Esc", "Cancel the answer being streamed"),
		row("Ctrl+N/P", "Fill the input with the next/previous example"),
		row("F2", "Show or hide the generated SQL"),
		row("Tab", "Cycle chat, schema and query result"),
		row("PgUp/PgDn", "Scroll"),
		row("F1", "Toggle this help"),
		row("Ctrl+C", "Quit"),
		"",
		StyleDimmed.Render("Answers are generated from " + a.session.Dataset + " and are not official figures."),
	}, "\n")
}
