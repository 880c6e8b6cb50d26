package applog

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetupWritesJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Level: "info", Format: "json", Output: &buf}))
	t.Cleanup(Close)

	Event("startup", "dataset %s", "agro")
	l := For("pipeline")
	l.Debug().Msg("hidden at info")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var entry map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &entry))
	assert.Equal(t, "info", entry["level"])
	assert.Equal(t, "startup", entry["category"])
	assert.Equal(t, "dataset agro", entry["message"])
}

func TestForTagsComponent(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Level: "debug", Output: &buf}))
	t.Cleanup(Close)

	l := For("ai")
	l.Debug().Str("op", "sql").Msg("request")

	assert.Contains(t, buf.String(), `"component":"ai"`)
	assert.Contains(t, buf.String(), `"op":"sql"`)
}

func TestSetupCreatesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "app.log")
	require.NoError(t, Setup(Options{Path: path, Format: "console"}))
	Error("boom %d", 1)
	Close()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "boom 1")
}

func TestNothingLoggedBeforeSetup(t *testing.T) {
	Close()
	Info("goes nowhere")
	l := Logger()
	assert.Equal(t, "disabled", l.GetLevel().String())
}

func TestMask(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"dial postgres://admin:s3cret@db:5432/oiad failed", "dial postgres://*:*@db:5432/oiad failed"},
		{"password=hunter2 host=x", "password=*** host=x"},
		{"Authorization: Bearer abc.def", "Authorization: Bearer ***"},
		{"invalid key sk-proj-ABCDEFGH1234", "invalid key sk-***"},
		{"GET /models?key=AIzaSyXYZ&alt=sse", "GET /models?key=***&alt=sse"},
		{"nothing to hide", "nothing to hide"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Mask(tt.in))
	}
}

func TestInfoAndError(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Setup(Options{Level: "info", Output: &buf}))
	t.Cleanup(Close)

	Info("tui closed: session %s", "abc")
	Error("schema: %v", "boom")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], `"level":"info"`)
	assert.Contains(t, lines[0], "tui closed: session abc")
	assert.Contains(t, lines[1], `"level":"error"`)
}
