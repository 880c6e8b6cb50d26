package tui

import (
	"context"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deras16/ChatDb-vertexai/ai"
	"github.com/deras16/ChatDb-vertexai/chat"
	"github.com/deras16/ChatDb-vertexai/config"
	"github.com/deras16/ChatDb-vertexai/db"
)

type memWarehouse struct{}

func (memWarehouse) Columns(context.Context, string) ([]db.ColumnInfo, error) {
	return []db.ColumnInfo{
		{Table: "granosbasicos", Column: "GRANO", DataType: "VARCHAR"},
		{Table: "granosbasicos", Column: "PRODUCCION", DataType: "DOUBLE"},
	}, nil
}

func (memWarehouse) ListTables(context.Context, string) ([]db.TableInfo, error) { return nil, nil }

func (memWarehouse) Execute(context.Context, string, int) (*db.QueryResult, error) {
	return &db.QueryResult{Columns: []string{"placeholder"}, Rows: [][]string{{"1"}}, RowCount: 1, Status: "(1 row)"}, nil
}

func (memWarehouse) Dialect() string { return "DuckDB" }
func (memWarehouse) Close() error    { return nil }

func newTestApp(t *testing.T) *App {
	t.Helper()
	cfg := config.DefaultChatConfig()
	sess, err := chat.NewSession(memWarehouse{}, &ai.Placeholder{}, "main", cfg, nil)
	require.NoError(t, err)

	app := NewApp(sess, Options{Version: "test", Driver: "duckdb", Provider: "placeholder", Examples: cfg.Examples, ShowSQL: true})
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

// pump runs commands until the round is finished.
func pump(t *testing.T, app *App, cmd tea.Cmd) {
	t.Helper()
	for i := 0; cmd != nil && i < 1000; i++ {
		msg := cmd()
		if msg == nil {
			return
		}
		_, cmd = app.Update(msg)
		if _, done := msg.(DoneMsg); done {
			return
		}
	}
}

func typeText(app *App, s string) {
	app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)})
}

func TestChatRoundStreamsIntoHistory(t *testing.T) {
	app := newTestApp(t)

	typeText(app, "What was the corn production in 2022?")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	assert.True(t, app.chat.Busy())

	pump(t, app, cmd)

	assert.False(t, app.chat.Busy())
	turns := app.session.History.Turns()
	require.Len(t, turns, 3)
	assert.Equal(t, "What was the corn production in 2022?", turns[1].Content)
	assert.Contains(t, turns[2].Content, "[placeholder]")
	assert.Equal(t, "answered ((1 row))", app.chat.Status())

	view := app.View()
	assert.Contains(t, view, "SELECT 1 AS placeholder")
	assert.Contains(t, view, "main")
}

func TestChatIgnoresBlankInput(t *testing.T) {
	app := newTestApp(t)
	typeText(app, "   ")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	assert.Nil(t, cmd)
	assert.Equal(t, 1, app.session.History.Len())
}

func TestChunkMessagesRenderPartialAnswer(t *testing.T) {
	app := newTestApp(t)
	app.chat.pending = &round{question: "q"}

	app.Update(SQLMsg{SQL: "SELECT 42"})
	app.Update(ChunkMsg{Chunk: "Forty"})
	app.Update(ChunkMsg{Chunk: "-two"})

	lines := strings.Join(app.chat.renderChat(), "\n")
	assert.Contains(t, lines, "SELECT 42")
	assert.Contains(t, lines, "Forty-two")
}

func TestCancelledRoundStatus(t *testing.T) {
	app := newTestApp(t)
	app.chat.pending = &round{question: "q"}
	app.Update(DoneMsg{Err: context.Canceled})

	assert.False(t, app.chat.Busy())
	assert.Equal(t, "cancelled", app.chat.Status())
	assert.Equal(t, 1, app.session.History.Len())
}

func TestExampleCycling(t *testing.T) {
	app := newTestApp(t)
	examples := app.opts.Examples

	app.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, examples[0], string(app.chat.input))
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlN})
	assert.Equal(t, examples[1], string(app.chat.input))
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, examples[0], string(app.chat.input))
	app.Update(tea.KeyMsg{Type: tea.KeyCtrlP})
	assert.Equal(t, examples[len(examples)-1], string(app.chat.input))
}

func TestSchemaTab(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.NotNil(t, cmd)
	assert.Equal(t, TabSchema, app.activeTab)

	app.Update(cmd())
	view := app.schema.View()
	assert.Contains(t, view, "granosbasicos")
	assert.Contains(t, view, "PRODUCCION")

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabResult, app.activeTab)
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	assert.Equal(t, TabChat, app.activeTab)
}

func TestResultTabShowsLastQuery(t *testing.T) {
	app := newTestApp(t)
	assert.Contains(t, app.result.View(), "No question asked yet.")

	typeText(app, "How much corn?")
	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	pump(t, app, cmd)

	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	app.Update(tea.KeyMsg{Type: tea.KeyTab})
	require.Equal(t, TabResult, app.activeTab)

	view := app.result.View()
	assert.Contains(t, view, "SELECT 1 AS placeholder")
	assert.Contains(t, view, " placeholder ")
	assert.Contains(t, view, "(1 row)")

	app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	assert.Equal(t, TabChat, app.activeTab)
}

func TestResultViewMasksFailures(t *testing.T) {
	rv := NewResultView()
	rv.Update(SQLMsg{SQL: "SELECT * FROM missing"})
	assert.Contains(t, rv.View(), "running...")

	rv.Update(ResultMsg{Result: chat.Result{SQL: "SELECT * FROM missing", Err: assert.AnError}})
	view := rv.View()
	assert.Contains(t, view, "SELECT * FROM missing")
	assert.Contains(t, view, chat.ErrorPrefix)
}

func TestFormatResult(t *testing.T) {
	long := strings.Repeat("x", maxCellWidth+10)
	lines := formatResult(&db.QueryResult{
		Columns: []string{"GRANO", "PRODUCTION"},
		Rows:    [][]string{{"MAIZ", "1200.5"}, {long, "1"}},
		Status:  "(2 rows)",
	})

	require.Len(t, lines, 6)
	assert.Equal(t, " GRANO"+strings.Repeat(" ", maxCellWidth-4)+"│ PRODUCTION ", lines[0])
	assert.True(t, strings.HasPrefix(lines[1], strings.Repeat("─", maxCellWidth+2)+"┼"))
	assert.Contains(t, lines[3], strings.Repeat("x", maxCellWidth-1)+"…")
	assert.Equal(t, "(2 rows)", lines[5])

	assert.Equal(t, []string{"INSERT 0 1"}, formatResult(&db.QueryResult{Status: "INSERT 0 1"}))
}

func TestViewportPansWithoutWrap(t *testing.T) {
	vp := NewViewport(4, 1)
	vp.SetWrap(false)
	vp.SetContentLines([]string{"abcdefgh"})
	assert.Equal(t, "abcd", vp.Render())

	vp.ScrollRight(2)
	assert.Equal(t, "cdef", vp.Render())
	vp.ScrollLeft(5)
	assert.Equal(t, "abcd", vp.Render())

	vp.ToggleWrap()
	vp.ScrollRight(2)
	assert.Equal(t, 0, vp.scrollX)
}

func TestViewportFollowsAndWraps(t *testing.T) {
	vp := NewViewport(10, 2)
	vp.SetContentLines([]string{"one", "two", "three"})
	assert.Equal(t, "two\nthree\n"+vp.scrollIndicator(), vp.Render())

	vp.ScrollUp(1)
	vp.SetContentLines([]string{"one", "two", "three", "four"})
	assert.True(t, strings.HasPrefix(vp.Render(), "one\ntwo"))

	vp.End()
	vp.SetContentLines([]string{"a very long line indeed"})
	assert.Greater(t, len(vp.lines), 1)
}

func TestTimedOutQueryStatus(t *testing.T) {
	app := newTestApp(t)
	app.chat.pending = &round{question: "q"}
	app.Update(DoneMsg{Reply: &chat.Reply{
		SQL:    "SELECT 1",
		Result: chat.Result{SQL: "SELECT 1", Err: db.New(db.KindTimeout, "query timed out")},
	}})
	assert.Equal(t, "query timed out, answered from the error", app.chat.Status())
}
