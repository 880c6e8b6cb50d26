package transcript

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deras16/ChatDb-vertexai/chat"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "nested", "transcripts.db"))
	require.NoError(t, err)
	return s
}

func turns(qa ...string) []chat.Turn {
	out := []chat.Turn{{Role: chat.RoleAssistant, Content: "Hello"}}
	for i := 0; i+1 < len(qa); i += 2 {
		out = append(out,
			chat.Turn{Role: chat.RoleUser, Content: qa[i]},
			chat.Turn{Role: chat.RoleAssistant, Content: qa[i+1]},
		)
	}
	return out
}

func TestRecordAndLoad(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	created := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return created }
	require.NoError(t, s.Record(ctx, "a", turns("q1", "a1")))

	updated := created.Add(time.Minute)
	s.now = func() time.Time { return updated }
	require.NoError(t, s.Record(ctx, "a", turns("q1", "a1", "q2", "a2")))

	conv, err := s.Load("a")
	require.NoError(t, err)
	assert.Equal(t, "a", conv.ID)
	assert.True(t, created.Equal(conv.Created))
	assert.True(t, updated.Equal(conv.Updated))
	require.Len(t, conv.Turns, 5)
	assert.Equal(t, "a2", conv.Turns[4].Content)
}

func TestLoadUnknown(t *testing.T) {
	s := openTestStore(t)
	_, err := s.Load("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestListNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 10, 19, 9, 0, 0, 0, time.UTC)

	s.now = func() time.Time { return base }
	require.NoError(t, s.Record(ctx, "old", turns("corn?", "300")))
	s.now = func() time.Time { return base.Add(time.Hour) }
	require.NoError(t, s.Record(ctx, "new", turns("beans?", "10", "sorghum?", "20")))

	list, err := s.List()
	require.NoError(t, err)
	require.Len(t, list, 2)
	assert.Equal(t, "new", list[0].ID)
	assert.Equal(t, 2, list[0].Questions)
	assert.Equal(t, "beans?", list[0].Title)
	assert.Equal(t, "old", list[1].ID)
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	require.NoError(t, s.Record(context.Background(), "a", turns()))
	require.NoError(t, s.Delete("a"))
	require.NoError(t, s.Delete("a"))

	_, err := s.Load("a")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestRecordValidation(t *testing.T) {
	s := openTestStore(t)
	assert.Error(t, s.Record(context.Background(), "", nil))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, s.Record(ctx, "a", nil), context.Canceled)
}

func TestSessionRecordsIntoStore(t *testing.T) {
	s := openTestStore(t)
	h := chat.NewHistory("Hello", 0)
	h.Append("q", "a")
	require.NoError(t, s.Record(context.Background(), "sess", h.Turns()))

	conv, err := s.Load("sess")
	require.NoError(t, err)
	restored := chat.RestoreHistory(conv.Turns, 0)
	assert.Equal(t, h.Turns(), restored.Turns())
}

func TestStoresShareOneFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "transcripts.db")
	first, err := Open(path)
	require.NoError(t, err)
	second, err := Open(path)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, first.Record(ctx, "tui", turns("corn?", "300")))
	require.NoError(t, second.Record(ctx, "ask", turns("beans?", "10")))

	list, err := first.List()
	require.NoError(t, err)
	assert.Len(t, list, 2)

	conv, err := second.Load("tui")
	require.NoError(t, err)
	assert.Equal(t, "corn?", conv.Turns[1].Content)
}
