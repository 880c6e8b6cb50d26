// view_chat.go is the conversation view.
//
// A question runs on its own goroutine; pipeline progress (SQL, result,
// answer chunks) comes back as messages over a channel that the view
// drains one message per command, so the UI stays responsive while the
// answer streams in. Esc cancels the running round.
package tui

import (
	"context"
	"errors"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/deras16/ChatDb-vertexai/applog"
	"github.com/deras16/ChatDb-vertexai/chat"
	"github.com/deras16/ChatDb-vertexai/db"
)

// round is the question currently being answered.
type round struct {
	question string
	sql      string
	result   *chat.Result
	answer   strings.Builder
}

type ChatView struct {
	session  *chat.Session
	showSQL  bool
	viewport *Viewport

	input   []rune
	events  chan tea.Msg
	cancel  context.CancelFunc
	pending *round

	lastSQL string
	lastErr error
	status  string

	width  int
	height int
}

func NewChatView(session *chat.Session, showSQL bool) *ChatView {
	return &ChatView{
		session:  session,
		showSQL:  showSQL,
		viewport: NewViewport(80, 20),
	}
}

func (v *ChatView) Name() string { return "Chat" }

func (v *ChatView) WantsTextInput() bool { return true }

// Busy reports whether a round is running.
func (v *ChatView) Busy() bool { return v.pending != nil }

// Status is the latest round outcome for the status bar.
func (v *ChatView) Status() string { return v.status }

func (v *ChatView) SetSize(width, height int) {
	v.width = width
	v.height = height
	// prompt line + blank line
	v.viewport.SetSize(width, height-3)
	v.refresh()
}

// SetInput replaces the input line, e.g. with an example prompt.
func (v *ChatView) SetInput(text string) {
	v.input = []rune(text)
}

func (v *ChatView) ShortHelp() []KeyBinding {
	if v.pending != nil {
		return []KeyBinding{
			{Key: "Esc", Desc: "cancel"},
			{Key: "PgUp/PgDn", Desc: "scroll"},
		}
	}
	return []KeyBinding{
		{Key: "Enter", Desc: "send"},
		{Key: "Ctrl+N/P", Desc: "example"},
		{Key: "F2", Desc: "toggle SQL"},
		{Key: "PgUp/PgDn", Desc: "scroll"},
	}
}

func (v *ChatView) Init() tea.Cmd {
	v.refresh()
	return nil
}

func (v *ChatView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKey(msg)

	case SQLMsg:
		if v.pending != nil {
			v.pending.sql = msg.SQL
		}
		v.refresh()
		return v, waitForEvent(v.events)

	case ResultMsg:
		if v.pending != nil {
			res := msg.Result
			v.pending.result = &res
		}
		v.refresh()
		return v, waitForEvent(v.events)

	case ChunkMsg:
		if v.pending != nil {
			v.pending.answer.WriteString(msg.Chunk)
		}
		v.refresh()
		return v, waitForEvent(v.events)

	case DoneMsg:
		v.finish(msg)
		v.refresh()
		return v, nil
	}
	return v, nil
}

func (v *ChatView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "enter":
		return v, v.send()
	case "esc":
		if v.cancel != nil {
			v.cancel()
			v.status = "cancelling..."
		}
	case "f2":
		v.showSQL = !v.showSQL
		v.refresh()
	case "up":
		v.viewport.ScrollUp(1)
	case "down":
		v.viewport.ScrollDown(1)
	case "pgup":
		v.viewport.PageUp()
	case "pgdown":
		v.viewport.PageDown()
	case "end":
		v.viewport.End()
	case "ctrl+u":
		v.input = nil
	case "backspace":
		if len(v.input) > 0 {
			v.input = v.input[:len(v.input)-1]
		}
	default:
		switch msg.Type {
		case tea.KeyRunes:
			v.input = append(v.input, msg.Runes...)
		case tea.KeySpace:
			v.input = append(v.input, ' ')
		}
	}
	return v, nil
}

func (v *ChatView) send() tea.Cmd {
	question := strings.TrimSpace(string(v.input))
	if question == "" {
		return nil
	}
	if v.pending != nil {
		v.status = "still answering the previous question"
		return nil
	}

	ctx, cancel := context.WithCancel(context.Background())
	events := make(chan tea.Msg, 64)
	v.input = nil
	v.cancel = cancel
	v.events = events
	v.pending = &round{question: question}
	v.lastErr = nil
	v.status = ""
	v.viewport.End()
	v.refresh()

	session := v.session
	go func() {
		defer close(events)
		reply, err := session.Ask(ctx, question, chat.Callbacks{
			OnSQL:    func(sql string) { events <- SQLMsg{SQL: sql} },
			OnResult: func(res chat.Result) { events <- ResultMsg{Result: res} },
			OnChunk:  func(chunk string) { events <- ChunkMsg{Chunk: chunk} },
		})
		events <- DoneMsg{Reply: reply, Err: err}
	}()
	return waitForEvent(events)
}

// waitForEvent delivers the next pipeline message of a round.
func waitForEvent(events <-chan tea.Msg) tea.Cmd {
	if events == nil {
		return nil
	}
	return func() tea.Msg {
		msg, ok := <-events
		if !ok {
			return nil
		}
		return msg
	}
}

func (v *ChatView) finish(msg DoneMsg) {
	if v.cancel != nil {
		v.cancel()
	}
	v.cancel = nil
	v.events = nil

	switch {
	case msg.Err == nil:
		v.lastSQL = msg.Reply.SQL
		switch {
		case db.IsTimeout(msg.Reply.Result.Err):
			v.status = "query timed out, answered from the error"
		case msg.Reply.Result.Failed():
			v.status = "query failed, answered from the error"
		default:
			v.status = "answered (" + msg.Reply.Result.Table.Status + ")"
		}
	case errors.Is(msg.Err, context.Canceled):
		v.status = "cancelled"
	default:
		v.lastErr = msg.Err
		v.status = "error: " + applog.Mask(msg.Err.Error())
	}
	v.pending = nil
}

func (v *ChatView) refresh() {
	v.viewport.SetContentLines(v.renderChat())
}

func (v *ChatView) renderChat() []string {
	var lines []string
	turns := v.session.History.Turns()
	lastUser := -1
	for i, t := range turns {
		if t.Role == chat.RoleUser {
			lastUser = i
		}
	}

	for i, t := range turns {
		lines = append(lines, renderTurn(t.Role, t.Content)...)
		if i == lastUser && v.showSQL && v.lastSQL != "" {
			lines = append(lines, renderSQL(v.lastSQL)...)
		}
		lines = append(lines, "")
	}

	if p := v.pending; p != nil {
		lines = append(lines, renderTurn(chat.RoleUser, p.question)...)
		if v.showSQL && p.sql != "" {
			lines = append(lines, renderSQL(p.sql)...)
		}
		if p.result != nil && p.result.Failed() {
			lines = append(lines, "  "+StyleWarning.Render(applog.Mask(p.result.String())))
		}
		lines = append(lines, "")
		if p.answer.Len() == 0 {
			lines = append(lines, StyleAssistant.Render("AI:"), StyleDimmed.Render("  thinking..."))
		} else {
			lines = append(lines, renderTurn(chat.RoleAssistant, p.answer.String()+"▌")...)
		}
	}

	if v.lastErr != nil {
		lines = append(lines, StyleError.Render("Error: ")+applog.Mask(v.lastErr.Error()))
	}
	return lines
}

func renderTurn(role chat.Role, content string) []string {
	label := StyleAssistant.Render("AI:")
	if role == chat.RoleUser {
		label = StyleUser.Render("You:")
	}
	lines := []string{label}
	for _, l := range strings.Split(content, "\n") {
		lines = append(lines, "  "+l)
	}
	return lines
}

func renderSQL(sql string) []string {
	var lines []string
	for _, l := range strings.Split(sql, "\n") {
		lines = append(lines, "  "+StyleSQL.Render(l))
	}
	return lines
}

func (v *ChatView) View() string {
	prompt := StylePrompt.Render("Ask> ") + string(v.input) + "█"
	if v.pending != nil {
		prompt = StylePrompt.Render("Ask> ") + StyleDimmed.Render("answering... (Esc to cancel)")
	}
	return lipgloss.JoinVertical(lipgloss.Left, v.viewport.Render(), "", prompt)
}
