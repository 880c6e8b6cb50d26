// view_result.go shows the statement generated for the latest question
// and the full result it produced, which the chat only summarizes.
package tui

import (
	"fmt"
	"strings"
	"unicode/utf8"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/deras16/ChatDb-vertexai/applog"
	"github.com/deras16/ChatDb-vertexai/chat"
	"github.com/deras16/ChatDb-vertexai/db"
)

// maxCellWidth caps a column's rendered width.
const maxCellWidth = 50

type ResultView struct {
	viewport *Viewport
	sql      string
	result   *chat.Result
	running  bool
}

func NewResultView() *ResultView {
	vp := NewViewport(80, 20)
	vp.SetWrap(false)
	v := &ResultView{viewport: vp}
	v.refresh()
	return v
}

func (v *ResultView) Name() string { return "Query" }

func (v *ResultView) WantsTextInput() bool { return false }

func (v *ResultView) SetSize(width, height int) {
	v.viewport.SetSize(width, height-1)
}

func (v *ResultView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "↑/↓", Desc: "scroll"},
		{Key: "←/→", Desc: "pan"},
		{Key: "w", Desc: "wrap"},
	}
}

func (v *ResultView) Init() tea.Cmd {
	v.refresh()
	return nil
}

func (v *ResultView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case SQLMsg:
		v.sql = msg.SQL
		v.result = nil
		v.running = true
		v.refresh()
	case ResultMsg:
		res := msg.Result
		v.result = &res
		if res.SQL != "" {
			v.sql = res.SQL
		}
		v.running = false
		v.viewport.Home()
		v.refresh()
	case DoneMsg:
		v.running = false
		v.refresh()
	case tea.KeyMsg:
		switch msg.String() {
		case "up", "k":
			v.viewport.ScrollUp(1)
		case "down", "j":
			v.viewport.ScrollDown(1)
		case "left", "h":
			v.viewport.ScrollLeft(4)
		case "right", "l":
			v.viewport.ScrollRight(4)
		case "pgup":
			v.viewport.PageUp()
		case "pgdown":
			v.viewport.PageDown()
		case "w":
			v.viewport.ToggleWrap()
		}
	}
	return v, nil
}

func (v *ResultView) refresh() {
	v.viewport.SetContentLines(v.render())
}

func (v *ResultView) render() []string {
	if v.sql == "" {
		return []string{"No question asked yet."}
	}
	lines := []string{"SQL"}
	lines = append(lines, strings.Split(v.sql, "\n")...)
	lines = append(lines, "")

	switch {
	case v.running:
		lines = append(lines, "running...")
	case v.result == nil:
		lines = append(lines, "not executed")
	case v.result.Failed():
		lines = append(lines, applog.Mask(v.result.String()))
	default:
		lines = append(lines, formatResult(v.result.Table)...)
	}
	return lines
}

// formatResult lays a result out as a plain-text grid.
func formatResult(r *db.QueryResult) []string {
	if len(r.Columns) == 0 {
		return []string{r.Status}
	}

	widths := make([]int, len(r.Columns))
	for i, col := range r.Columns {
		widths[i] = utf8.RuneCountInString(col)
	}
	for _, row := range r.Rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], utf8.RuneCountInString(cell))
			}
		}
	}
	for i := range widths {
		widths[i] = min(widths[i], maxCellWidth)
	}

	var header, separator strings.Builder
	for i, col := range r.Columns {
		fmt.Fprintf(&header, " %-*s │", widths[i], col)
		separator.WriteString(strings.Repeat("─", widths[i]+2) + "┼")
	}
	lines := []string{
		strings.TrimRight(header.String(), "│"),
		strings.TrimRight(separator.String(), "┼"),
	}

	for _, row := range r.Rows {
		var line strings.Builder
		for i, cell := range row {
			if i >= len(widths) {
				break
			}
			if c := []rune(cell); len(c) > widths[i] {
				cell = string(c[:widths[i]-1]) + "…"
			}
			fmt.Fprintf(&line, " %-*s │", widths[i], cell)
		}
		lines = append(lines, strings.TrimRight(line.String(), "│"))
	}

	return append(lines, "", r.Status)
}

func (v *ResultView) View() string {
	return v.viewport.Render()
}
