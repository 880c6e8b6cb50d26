package chat

import (
	"context"
	"io"
	"sync"

	"github.com/deras16/ChatDb-vertexai/ai"
	"github.com/deras16/ChatDb-vertexai/db"
)

// fakeWarehouse records executed statements.
type fakeWarehouse struct {
	mu       sync.Mutex
	columns  []db.ColumnInfo
	result   *db.QueryResult
	execErr  error
	executed []string
}

func (f *fakeWarehouse) Columns(context.Context, string) ([]db.ColumnInfo, error) {
	return f.columns, nil
}

func (f *fakeWarehouse) ListTables(context.Context, string) ([]db.TableInfo, error) {
	return nil, nil
}

func (f *fakeWarehouse) Execute(_ context.Context, sql string, _ int) (*db.QueryResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.executed = append(f.executed, sql)
	if f.execErr != nil {
		return nil, f.execErr
	}
	return f.result, nil
}

func (f *fakeWarehouse) Dialect() string { return "DuckDB" }
func (f *fakeWarehouse) Close() error    { return nil }

// fakeProvider replies to Chat from a queue and streams fixed chunks.
type fakeProvider struct {
	mu        sync.Mutex
	replies   []string
	chunks    []string
	chatCalls [][]ai.Message
	streamMsg []ai.Message
	chatErr   error
}

func (f *fakeProvider) Name() string { return "fake" }

func (f *fakeProvider) Chat(_ context.Context, messages []ai.Message) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.chatCalls = append(f.chatCalls, append([]ai.Message(nil), messages...))
	if f.chatErr != nil {
		return "", f.chatErr
	}
	if len(f.replies) == 0 {
		return "SELECT 1", nil
	}
	r := f.replies[0]
	if len(f.replies) > 1 {
		f.replies = f.replies[1:]
	}
	return r, nil
}

func (f *fakeProvider) ChatStream(_ context.Context, messages []ai.Message) (ai.Stream, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.streamMsg = messages
	return &sliceStream{chunks: append([]string(nil), f.chunks...)}, nil
}

type sliceStream struct {
	chunks []string
	err    error // returned after the chunks instead of io.EOF
	closed bool
}

func (s *sliceStream) Recv() (string, error) {
	if len(s.chunks) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", io.EOF
	}
	c := s.chunks[0]
	s.chunks = s.chunks[1:]
	return c, nil
}

func (s *sliceStream) Close() error {
	s.closed = true
	return nil
}
