// view_schema.go lists the dataset's tables and columns, read from the
// same catalog the SQL prompt is built from.
package tui

import (
	"context"
	"fmt"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/deras16/ChatDb-vertexai/applog"
	"github.com/deras16/ChatDb-vertexai/chat"
	"github.com/deras16/ChatDb-vertexai/db"
)

const schemaTimeout = 30 * time.Second

type SchemaView struct {
	session  *chat.Session
	viewport *Viewport
	schema   db.SchemaDescriptor
	err      error
	loading  bool
}

func NewSchemaView(session *chat.Session) *SchemaView {
	return &SchemaView{session: session, viewport: NewViewport(80, 20)}
}

func (v *SchemaView) Name() string { return "Schema" }

func (v *SchemaView) WantsTextInput() bool { return false }

func (v *SchemaView) SetSize(width, height int) {
	v.viewport.SetSize(width, height-1)
}

func (v *SchemaView) ShortHelp() []KeyBinding {
	return []KeyBinding{
		{Key: "r", Desc: "reload"},
		{Key: "↑/↓", Desc: "scroll"},
	}
}

// Init loads the schema the first time the view is shown.
func (v *SchemaView) Init() tea.Cmd {
	if v.schema != nil || v.loading {
		return nil
	}
	return v.load()
}

func (v *SchemaView) load() tea.Cmd {
	v.loading = true
	v.err = nil
	v.refresh()
	session := v.session
	return func() tea.Msg {
		ctx, cancel := context.WithTimeout(context.Background(), schemaTimeout)
		defer cancel()
		schema, err := session.Schema.Schema(ctx, session.Dataset)
		return SchemaMsg{Schema: schema, Err: err}
	}
}

func (v *SchemaView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case SchemaMsg:
		v.loading = false
		v.schema, v.err = msg.Schema, msg.Err
		v.viewport.Home()
		v.refresh()
	case tea.KeyMsg:
		switch msg.String() {
		case "r":
			return v, v.load()
		case "up", "k":
			v.viewport.ScrollUp(1)
		case "down", "j":
			v.viewport.ScrollDown(1)
		case "pgup":
			v.viewport.PageUp()
		case "pgdown":
			v.viewport.PageDown()
		}
	}
	return v, nil
}

func (v *SchemaView) refresh() {
	v.viewport.SetContentLines(v.render())
}

func (v *SchemaView) render() []string {
	lines := []string{StyleTitle.Render("Dataset " + v.session.Dataset), ""}
	switch {
	case v.loading:
		return append(lines, StyleDimmed.Render("loading schema..."))
	case v.err != nil:
		return append(lines, StyleError.Render("Error: ")+applog.Mask(v.err.Error()))
	}

	for _, table := range v.schema.Tables() {
		cols := v.schema.Table(table)
		width := 0
		for _, c := range cols {
			width = max(width, len(c.Column))
		}
		lines = append(lines, StyleBold.Render(table)+StyleDimmed.Render(fmt.Sprintf("  (%d columns)", len(cols))))
		for _, c := range cols {
			lines = append(lines, fmt.Sprintf("  %-*s  %s", width, c.Column, StyleDimmed.Render(c.DataType)))
		}
		lines = append(lines, "")
	}
	return lines
}

func (v *SchemaView) View() string {
	return v.viewport.Render()
}
