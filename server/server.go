// Package server exposes a session over HTTP: a streamed ask endpoint,
// the schema descriptor, the conversation history and health/metrics.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/deras16/ChatDb-vertexai/applog"
	"github.com/deras16/ChatDb-vertexai/chat"
	"github.com/deras16/ChatDb-vertexai/metrics"
)

// Response headers set by POST /v1/ask before the first answer chunk.
const (
	HeaderSQL       = "X-Chatdb-Sql"
	HeaderSQLError  = "X-Chatdb-Sql-Error"
	HeaderRowCount  = "X-Chatdb-Rows"
	HeaderSessionID = "X-Chatdb-Session"
)

// maxQuestionBytes bounds the ask request body.
const maxQuestionBytes = 64 << 10

type askRequest struct {
	Question string `json:"question"`
}

type schemaResponse struct {
	Dataset string   `json:"dataset"`
	Dialect string   `json:"dialect"`
	Tables  []string `json:"tables"`
	Columns []column `json:"columns"`
	Text    string   `json:"text"`
}

type column struct {
	Table    string `json:"table"`
	Column   string `json:"column"`
	DataType string `json:"type"`
}

type historyResponse struct {
	Session string      `json:"session"`
	Turns   []chat.Turn `json:"turns"`
}

// Server serves one conversation session.
type Server struct {
	session *chat.Session
	log     zerolog.Logger
}

// New returns a server for session.
func New(session *chat.Session) *Server {
	return &Server{session: session, log: applog.For("server")}
}

// Handler returns the chi router.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(s.requestLogger)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	})
	r.Method(http.MethodGet, "/metrics", metrics.Handler())

	r.Route("/v1", func(r chi.Router) {
		r.Post("/ask", s.handleAsk)
		r.Get("/schema", s.handleSchema)
		r.Get("/history", s.handleHistory)
	})
	return r
}

// Run serves on addr until ctx is cancelled.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{Addr: addr, Handler: s.Handler(), ReadHeaderTimeout: 5 * time.Second}

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Shutdown(shutdownCtx)
	}()

	s.log.Info().Str("addr", addr).Str("session", s.session.ID).Msg("listening")
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) handleAsk(w http.ResponseWriter, r *http.Request) {
	question, err := readQuestion(r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	flusher, _ := w.(http.Flusher)
	h := w.Header()
	h.Set(HeaderSessionID, s.session.ID)

	started := false
	start := func() {
		if started {
			return
		}
		started = true
		h.Set("Content-Type", "text/plain; charset=utf-8")
		h.Set("Cache-Control", "no-cache")
		h.Set("X-Content-Type-Options", "nosniff")
		w.WriteHeader(http.StatusOK)
	}

	_, err = s.session.Ask(r.Context(), question, chat.Callbacks{
		OnSQL: func(sql string) {
			h.Set(HeaderSQL, headerValue(sql))
		},
		OnResult: func(res chat.Result) {
			if res.Failed() {
				h.Set(HeaderSQLError, headerValue(applog.Mask(res.String())))
				return
			}
			h.Set(HeaderRowCount, strconv.Itoa(res.Table.RowCount))
		},
		OnChunk: func(chunk string) {
			start()
			_, _ = w.Write([]byte(chunk))
			if flusher != nil {
				flusher.Flush()
			}
		},
	})

	switch {
	case err == nil:
		start()
	case started:
		// Status is already on the wire; the truncated body is all we can do.
		s.log.Warn().Err(err).Msg("answer stream interrupted")
	case errors.Is(err, chat.ErrBusy):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, chat.ErrEmptyQuestion):
		writeError(w, http.StatusBadRequest, err.Error())
	case r.Context().Err() != nil:
		// Client went away.
	default:
		writeError(w, http.StatusBadGateway, applog.Mask(err.Error()))
	}
}

func (s *Server) handleSchema(w http.ResponseWriter, r *http.Request) {
	schema, err := s.session.Schema.Schema(r.Context(), s.session.Dataset)
	if err != nil {
		writeError(w, http.StatusBadGateway, applog.Mask(err.Error()))
		return
	}
	resp := schemaResponse{
		Dataset: s.session.Dataset,
		Dialect: s.session.Dialect,
		Tables:  schema.Tables(),
		Columns: make([]column, 0, len(schema)),
		Text:    schema.String(),
	}
	for _, c := range schema {
		resp.Columns = append(resp.Columns, column{Table: c.Table, Column: c.Column, DataType: c.DataType})
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleHistory(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, historyResponse{
		Session: s.session.ID,
		Turns:   s.session.History.Turns(),
	})
}

// readQuestion accepts {"question": "..."} or a plain-text body.
func readQuestion(r *http.Request) (string, error) {
	body := http.MaxBytesReader(nil, r.Body, maxQuestionBytes)
	defer body.Close()

	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		var req askRequest
		if err := json.NewDecoder(body).Decode(&req); err != nil {
			return "", errors.New("invalid JSON body")
		}
		return req.Question, nil
	}
	data, err := io.ReadAll(body)
	if err != nil {
		var maxErr *http.MaxBytesError
		if errors.As(err, &maxErr) {
			return "", errors.New("question is too long")
		}
		return "", err
	}
	return string(data), nil
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)
		s.log.Info().
			Str("request_id", middleware.GetReqID(r.Context())).
			Str("method", r.Method).
			Str("path", r.URL.Path).
			Int("status", ww.Status()).
			Int("bytes", ww.BytesWritten()).
			Dur("elapsed", time.Since(start)).
			Msg("http request")
	})
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// headerValue folds a multi-line statement onto one header line.
func headerValue(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
