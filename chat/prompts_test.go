package chat

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSchema = "Table: granosbasicos, Column: GRANO, Type: STRING\n" +
	"Table: granosbasicos, Column: PRODUCCION, Type: FLOAT64"

func TestRenderSQLQualifiesTables(t *testing.T) {
	p := DefaultPrompts()

	out, err := p.RenderSQL(SQLRequest{
		Schema:   testSchema,
		Dataset:  "oiad-dev.agro",
		Dialect:  "BigQuery GoogleSQL",
		Question: "What was the corn production in 2022?",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "oiad-dev.agro")
	assert.Contains(t, out, "`oiad-dev.agro.granosbasicos`")
	assert.Contains(t, out, "Table: granosbasicos, Column: GRANO, Type: STRING")
	assert.Contains(t, out, "BigQuery GoogleSQL database")
	assert.Contains(t, out, "Question: What was the corn production in 2022?")
	assert.Contains(t, out, "(none)")
}

func TestRenderSQLWithoutBackticksForOtherDialects(t *testing.T) {
	out, err := DefaultPrompts().RenderSQL(SQLRequest{Dataset: "main", Dialect: "DuckDB"})
	require.NoError(t, err)
	assert.Contains(t, out, "main.granosbasicos")
	assert.NotContains(t, out, "`main.granosbasicos`")
}

func TestRenderAnswerIncludesTranscript(t *testing.T) {
	out, err := DefaultPrompts().RenderAnswer(AnswerRequest{
		Schema:  testSchema,
		Dataset: "agro",
		History: []Turn{
			{Role: RoleAssistant, Content: "Hello"},
			{Role: RoleUser, Content: "How much corn?"},
			{Role: RoleAssistant, Content: "300 quintals."},
		},
		Question: "And beans?",
		SQL:      "SELECT 1",
		Result:   "Error executing SQL: boom",
	})
	require.NoError(t, err)

	assert.Contains(t, out, "AI: Hello\nHuman: How much corn?\nAI: 300 quintals.")
	assert.Contains(t, out, "<SQL>SELECT 1</SQL>")
	assert.Contains(t, out, "Error executing SQL: boom")
	assert.Contains(t, out, "User question: And beans?")
}

func TestLoadPromptsOverride(t *testing.T) {
	path := filepath.Join(t.TempDir(), "sql.tmpl")
	require.NoError(t, os.WriteFile(path, []byte("Q={{.Question}} D={{.Dataset}}"), 0600))

	p, err := LoadPrompts(path, "")
	require.NoError(t, err)
	out, err := p.RenderSQL(SQLRequest{Question: "q", Dataset: "d"})
	require.NoError(t, err)
	assert.Equal(t, "Q=q D=d", out)
}

func TestLoadPromptsErrors(t *testing.T) {
	_, err := LoadPrompts(filepath.Join(t.TempDir(), "missing.tmpl"), "")
	assert.ErrorContains(t, err, "read sql prompt")

	bad := filepath.Join(t.TempDir(), "bad.tmpl")
	require.NoError(t, os.WriteFile(bad, []byte("{{.Question"), 0600))
	_, err = LoadPrompts("", bad)
	assert.ErrorContains(t, err, "parse answer prompt")
}
