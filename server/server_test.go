package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/deras16/ChatDb-vertexai/ai"
	"github.com/deras16/ChatDb-vertexai/chat"
	"github.com/deras16/ChatDb-vertexai/db"
)

type stubSchema struct{ err error }

func (s stubSchema) Schema(context.Context, string) (db.SchemaDescriptor, error) {
	if s.err != nil {
		return nil, s.err
	}
	return db.SchemaDescriptor{
		{Table: "granosbasicos", Column: "GRANO", DataType: "STRING"},
		{Table: "hortalizas", Column: "ANIO", DataType: "INT64"},
	}, nil
}

type stubSQL struct {
	sql  string
	wait chan struct{} // blocks SynthesizeSQL until closed when set
	in   chan struct{}
}

func (s *stubSQL) SynthesizeSQL(context.Context, chat.SQLRequest) (string, error) {
	if s.wait != nil {
		close(s.in)
		<-s.wait
	}
	return s.sql, nil
}

type stubExec struct{ err error }

func (s stubExec) Execute(_ context.Context, sql string) chat.Result {
	if s.err != nil {
		return chat.Result{SQL: sql, Err: s.err}
	}
	return chat.Result{SQL: sql, Table: &db.QueryResult{
		Columns: []string{"total"}, Rows: [][]string{{"300"}}, RowCount: 1, Status: "(1 row)",
	}}
}

type stubAnswer struct{ chunks []string }

func (s stubAnswer) SynthesizeAnswer(context.Context, chat.AnswerRequest) (ai.Stream, error) {
	return &chunkStream{chunks: append([]string(nil), s.chunks...)}, nil
}

type chunkStream struct{ chunks []string }

func (c *chunkStream) Recv() (string, error) {
	if len(c.chunks) == 0 {
		return "", io.EOF
	}
	out := c.chunks[0]
	c.chunks = c.chunks[1:]
	return out, nil
}

func (c *chunkStream) Close() error { return nil }

func newTestSession() (*chat.Session, *stubSQL) {
	sql := &stubSQL{sql: "SELECT SUM(PRODUCCION)\nFROM agro.granosbasicos"}
	return &chat.Session{
		ID:       "test-session",
		Dataset:  "agro",
		Dialect:  "DuckDB",
		Schema:   stubSchema{},
		SQL:      sql,
		Executor: stubExec{},
		Answer:   stubAnswer{chunks: []string{"Corn ", "reached ", "300 quintals."}},
		History:  chat.NewHistory("Hello", 0),
	}, sql
}

func do(t *testing.T, h http.Handler, method, path, contentType, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	rr := httptest.NewRecorder()
	h.ServeHTTP(rr, req)
	return rr
}

func TestHealthz(t *testing.T) {
	sess, _ := newTestSession()
	rr := do(t, New(sess).Handler(), http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rr.Body.String())
}

func TestAskStreamsAnswer(t *testing.T) {
	sess, _ := newTestSession()
	h := New(sess).Handler()

	rr := do(t, h, http.MethodPost, "/v1/ask", "application/json", `{"question":"What was the corn production in 2022?"}`)
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, "Corn reached 300 quintals.", rr.Body.String())
	assert.True(t, rr.Flushed)
	assert.Equal(t, "text/plain; charset=utf-8", rr.Header().Get("Content-Type"))
	assert.Equal(t, "SELECT SUM(PRODUCCION) FROM agro.granosbasicos", rr.Header().Get(HeaderSQL))
	assert.Equal(t, "1", rr.Header().Get(HeaderRowCount))
	assert.Equal(t, "test-session", rr.Header().Get(HeaderSessionID))

	hist := do(t, h, http.MethodGet, "/v1/history", "", "")
	require.Equal(t, http.StatusOK, hist.Code)
	var body historyResponse
	require.NoError(t, json.Unmarshal(hist.Body.Bytes(), &body))
	require.Len(t, body.Turns, 3)
	assert.Equal(t, "What was the corn production in 2022?", body.Turns[1].Content)
	assert.Equal(t, "Corn reached 300 quintals.", body.Turns[2].Content)
}

func TestAskPlainTextBody(t *testing.T) {
	sess, _ := newTestSession()
	rr := do(t, New(sess).Handler(), http.MethodPost, "/v1/ask", "text/plain", "How much corn?")
	require.Equal(t, http.StatusOK, rr.Code)
	assert.Equal(t, 3, sess.History.Len())
}

func TestAskReportsExecutionFailureInHeader(t *testing.T) {
	sess, _ := newTestSession()
	sess.Executor = stubExec{err: errors.New("dial postgres://app:hunter2@db:5432 refused")}

	rr := do(t, New(sess).Handler(), http.MethodPost, "/v1/ask", "text/plain", "q")
	require.Equal(t, http.StatusOK, rr.Code)
	got := rr.Header().Get(HeaderSQLError)
	assert.True(t, strings.HasPrefix(got, chat.ErrorPrefix), got)
	assert.NotContains(t, got, "hunter2")
}

func TestAskBadRequests(t *testing.T) {
	sess, _ := newTestSession()
	h := New(sess).Handler()

	rr := do(t, h, http.MethodPost, "/v1/ask", "application/json", `{"question":`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)

	rr = do(t, h, http.MethodPost, "/v1/ask", "application/json", `{"question":"   "}`)
	assert.Equal(t, http.StatusBadRequest, rr.Code)
	assert.Contains(t, rr.Body.String(), chat.ErrEmptyQuestion.Error())
}

func TestAskSchemaFailureIsBadGateway(t *testing.T) {
	sess, _ := newTestSession()
	sess.Schema = stubSchema{err: errors.New("connect postgres://app:hunter2@db/oiad: timeout")}

	rr := do(t, New(sess).Handler(), http.MethodPost, "/v1/ask", "text/plain", "q")
	assert.Equal(t, http.StatusBadGateway, rr.Code)
	assert.Contains(t, rr.Body.String(), "fetch schema")
	assert.NotContains(t, rr.Body.String(), "hunter2")
	assert.Equal(t, 1, sess.History.Len())
}

func TestAskConcurrentIsConflict(t *testing.T) {
	sess, sql := newTestSession()
	sql.wait = make(chan struct{})
	sql.in = make(chan struct{})
	h := New(sess).Handler()

	first := make(chan *httptest.ResponseRecorder, 1)
	go func() {
		first <- do(t, h, http.MethodPost, "/v1/ask", "text/plain", "slow")
	}()
	<-sql.in

	rr := do(t, h, http.MethodPost, "/v1/ask", "text/plain", "fast")
	assert.Equal(t, http.StatusConflict, rr.Code)

	close(sql.wait)
	assert.Equal(t, http.StatusOK, (<-first).Code)
}

func TestSchemaEndpoint(t *testing.T) {
	sess, _ := newTestSession()
	rr := do(t, New(sess).Handler(), http.MethodGet, "/v1/schema", "", "")
	require.Equal(t, http.StatusOK, rr.Code)

	var body schemaResponse
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &body))
	assert.Equal(t, "agro", body.Dataset)
	assert.Equal(t, []string{"granosbasicos", "hortalizas"}, body.Tables)
	assert.Len(t, body.Columns, 2)
	assert.Contains(t, body.Text, "Table: hortalizas, Column: ANIO, Type: INT64")
}

func TestMetricsEndpoint(t *testing.T) {
	sess, _ := newTestSession()
	rr := do(t, New(sess).Handler(), http.MethodGet, "/metrics", "", "")
	assert.Equal(t, http.StatusOK, rr.Code)
	assert.Contains(t, rr.Body.String(), "go_goroutines")
}
