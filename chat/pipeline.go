// Package chat implements the question pipeline: schema introspection,
// SQL synthesis, execution and a streamed natural-language answer,
// recorded into the session's conversation history.
package chat

import (
	"context"
	"fmt"

	"github.com/deras16/ChatDb-vertexai/ai"
	"github.com/deras16/ChatDb-vertexai/db"
	"github.com/deras16/ChatDb-vertexai/metrics"
)

// SchemaProvider returns the catalog of a dataset.
type SchemaProvider interface {
	Schema(ctx context.Context, dataset string) (db.SchemaDescriptor, error)
}

// SQLSynthesizer turns a question into one SQL statement.
type SQLSynthesizer interface {
	SynthesizeSQL(ctx context.Context, req SQLRequest) (string, error)
}

// QueryExecutor runs a statement. Failures are reported in the Result.
type QueryExecutor interface {
	Execute(ctx context.Context, sql string) Result
}

// AnswerSynthesizer streams the natural-language answer.
type AnswerSynthesizer interface {
	SynthesizeAnswer(ctx context.Context, req AnswerRequest) (ai.Stream, error)
}

// WarehouseSchema reads the schema from the warehouse catalog on every call.
type WarehouseSchema struct {
	Warehouse db.Warehouse
}

func (w WarehouseSchema) Schema(ctx context.Context, dataset string) (db.SchemaDescriptor, error) {
	return db.FetchSchema(ctx, w.Warehouse, dataset)
}

// LLMSQL asks the provider for a statement. When the reply is not a bare
// statement it re-prompts with a correction, up to Attempts calls in total.
// After the last attempt the sanitized reply is returned as is and the
// executor reports the rejection.
type LLMSQL struct {
	Provider ai.Provider
	Prompts  *Prompts
	Attempts int
}

var _ SQLSynthesizer = (*LLMSQL)(nil)

func (s *LLMSQL) SynthesizeSQL(ctx context.Context, req SQLRequest) (string, error) {
	instruction, err := s.Prompts.RenderSQL(req)
	if err != nil {
		return "", err
	}
	messages := []ai.Message{
		{Role: ai.RoleSystem, Content: instruction},
		{Role: ai.RoleUser, Content: req.Question},
	}

	attempts := s.Attempts
	if attempts < 1 {
		attempts = 1
	}
	for attempt := 1; ; attempt++ {
		reply, err := s.Provider.Chat(ctx, messages)
		if err != nil {
			return "", err
		}
		stmt, verr := PrepareSQL(reply)
		if verr == nil || attempt >= attempts {
			return stmt, nil
		}
		metrics.IncrementReprompt()
		messages = append(messages,
			ai.Message{Role: ai.RoleAssistant, Content: reply},
			ai.Message{Role: ai.RoleUser, Content: correction(verr)},
		)
	}
}

func correction(err error) string {
	return fmt.Sprintf("That reply was rejected (%v). Reply again with only the SQL query: "+
		"it must start with SELECT or WITH, with no explanation, no code fences and no language tag.", err)
}

// LLMAnswer streams the answer from the provider.
type LLMAnswer struct {
	Provider ai.Provider
	Prompts  *Prompts
}

var _ AnswerSynthesizer = (*LLMAnswer)(nil)

func (a *LLMAnswer) SynthesizeAnswer(ctx context.Context, req AnswerRequest) (ai.Stream, error) {
	instruction, err := a.Prompts.RenderAnswer(req)
	if err != nil {
		return nil, err
	}
	return a.Provider.ChatStream(ctx, []ai.Message{
		{Role: ai.RoleSystem, Content: instruction},
		{Role: ai.RoleUser, Content: req.Question},
	})
}
