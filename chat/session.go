package chat

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/deras16/ChatDb-vertexai/ai"
	"github.com/deras16/ChatDb-vertexai/applog"
	"github.com/deras16/ChatDb-vertexai/metrics"
)

var (
	// ErrBusy is returned when a question arrives while another one is
	// still being answered on the same session.
	ErrBusy = errors.New("another question is still being answered")

	// ErrEmptyQuestion is returned for blank input.
	ErrEmptyQuestion = errors.New("question is empty")
)

// Recorder persists the conversation after each completed round.
type Recorder interface {
	Record(ctx context.Context, sessionID string, turns []Turn) error
}

// Callbacks observe a round as it progresses. Any may be nil.
type Callbacks struct {
	OnSQL    func(sql string)
	OnResult func(res Result)
	OnChunk  func(chunk string)
}

// Reply is the outcome of a completed round.
type Reply struct {
	Question string
	SQL      string
	Result   Result
	Answer   string
}

// Session owns everything a conversation needs. The single Dataset field
// feeds schema lookup and both prompts, and the statement it produces
// runs against the same warehouse.
type Session struct {
	ID      string
	Dataset string
	Dialect string

	Schema   SchemaProvider
	SQL      SQLSynthesizer
	Executor QueryExecutor
	Answer   AnswerSynthesizer
	History  *History

	// HistoryWindow limits the turns rendered into prompts; 0 means all.
	HistoryWindow int

	// Recorder is optional.
	Recorder Recorder

	mu sync.Mutex
}

// Ask runs one round: schema, SQL, execution and the streamed answer, in
// that order. Chunks reach cb.OnChunk as they arrive. The question and the
// full answer are appended to the history only after the stream drains; a
// failed or cancelled round leaves the history unchanged.
func (s *Session) Ask(ctx context.Context, question string, cb Callbacks) (*Reply, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, ErrEmptyQuestion
	}
	if !s.mu.TryLock() {
		return nil, ErrBusy
	}
	defer s.mu.Unlock()

	log := applog.For("pipeline").With().Str("session", s.ID).Logger()
	log.Info().Str("question", question).Msg("question received")

	reply, err := s.run(ctx, question, cb, log)
	switch {
	case err == nil:
		metrics.ObserveQuestion(metrics.OutcomeAnswered)
	case ctx.Err() != nil || errors.Is(err, context.Canceled):
		metrics.ObserveQuestion(metrics.OutcomeCancelled)
		log.Info().Err(err).Msg("question cancelled")
	default:
		metrics.ObserveQuestion(metrics.OutcomeFailed)
		log.Error().Err(err).Msg("question failed")
	}
	return reply, err
}

func (s *Session) run(ctx context.Context, question string, cb Callbacks, log zerolog.Logger) (*Reply, error) {
	history := s.History.Window(s.HistoryWindow)

	start := time.Now()
	schema, err := s.Schema.Schema(ctx, s.Dataset)
	metrics.ObserveStage(metrics.StageSchema, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("fetch schema: %w", err)
	}
	schemaText := schema.String()
	log.Debug().Int("columns", len(schema)).Dur("elapsed", time.Since(start)).Msg("schema fetched")

	start = time.Now()
	sql, err := s.SQL.SynthesizeSQL(ctx, SQLRequest{
		Schema:   schemaText,
		Dataset:  s.Dataset,
		Dialect:  s.Dialect,
		History:  history,
		Question: question,
	})
	metrics.ObserveStage(metrics.StageSQL, time.Since(start))
	if err != nil {
		return nil, fmt.Errorf("generate sql: %w", err)
	}
	log.Info().Str("sql", sql).Dur("elapsed", time.Since(start)).Msg("sql generated")
	if cb.OnSQL != nil {
		cb.OnSQL(sql)
	}

	start = time.Now()
	res := s.Executor.Execute(ctx, sql)
	metrics.ObserveStage(metrics.StageExec, time.Since(start))
	if res.Failed() {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		metrics.IncrementSQLFailure()
		log.Warn().Err(res.Err).Str("sql", res.SQL).Msg("sql failed")
	} else {
		log.Info().Int("rows", res.Table.RowCount).Dur("elapsed", time.Since(start)).Msg("sql executed")
	}
	if cb.OnResult != nil {
		cb.OnResult(res)
	}
	submitted := res.SQL
	if submitted == "" {
		submitted = sql
	}

	start = time.Now()
	stream, err := s.Answer.SynthesizeAnswer(ctx, AnswerRequest{
		Schema:   schemaText,
		Dataset:  s.Dataset,
		Dialect:  s.Dialect,
		History:  history,
		Question: question,
		SQL:      submitted,
		Result:   res.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("generate answer: %w", err)
	}
	answer, chunks, err := drain(ctx, stream, cb.OnChunk)
	metrics.ObserveStage(metrics.StageAnswer, time.Since(start))
	metrics.AddAnswerChunks(chunks)
	if err != nil {
		return nil, fmt.Errorf("stream answer: %w", err)
	}
	log.Info().Int("chunks", chunks).Int("chars", len(answer)).Dur("elapsed", time.Since(start)).Msg("answer streamed")

	s.History.Append(question, answer)
	if s.Recorder != nil {
		if err := s.Recorder.Record(ctx, s.ID, s.History.Turns()); err != nil {
			log.Error().Err(err).Msg("record transcript")
		}
	}

	return &Reply{Question: question, SQL: submitted, Result: res, Answer: answer}, nil
}

// drain reads the stream to the end, forwarding each chunk in order.
func drain(ctx context.Context, stream ai.Stream, onChunk func(string)) (string, int, error) {
	defer stream.Close()

	var (
		sb     strings.Builder
		chunks int
	)
	for {
		if err := ctx.Err(); err != nil {
			return "", chunks, err
		}
		chunk, err := stream.Recv()
		if errors.Is(err, io.EOF) {
			return sb.String(), chunks, nil
		}
		if err != nil {
			return "", chunks, err
		}
		sb.WriteString(chunk)
		chunks++
		if onChunk != nil {
			onChunk(chunk)
		}
	}
}
