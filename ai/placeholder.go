package ai

import (
	"context"
	"fmt"
	"io"
	"strings"
	"time"
)

// PlaceholderSQL is the statement the placeholder returns from Chat. It
// runs on every supported warehouse.
const PlaceholderSQL = "SELECT 1 AS placeholder"

// Placeholder is a mock AI provider for development. Chat returns
// PlaceholderSQL; ChatStream returns a canned explanation word by word.
type Placeholder struct {
	// Delay simulates network latency before each reply.
	Delay time.Duration
}

var _ Provider = (*Placeholder)(nil)

func NewPlaceholder() *Placeholder {
	return &Placeholder{Delay: 300 * time.Millisecond}
}

func (p *Placeholder) Name() string {
	return "placeholder"
}

func (p *Placeholder) wait(ctx context.Context) error {
	if p.Delay <= 0 {
		return ctx.Err()
	}
	select {
	case <-time.After(p.Delay):
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (p *Placeholder) Chat(ctx context.Context, messages []Message) (string, error) {
	LogAIRequest("chat", p.Name(), messages)
	if err := p.wait(ctx); err != nil {
		return "", err
	}
	LogAIResponse("chat", p.Name(), PlaceholderSQL, nil, p.Delay)
	return PlaceholderSQL, nil
}

func (p *Placeholder) ChatStream(ctx context.Context, messages []Message) (Stream, error) {
	LogAIRequest("stream", p.Name(), messages)
	if err := p.wait(ctx); err != nil {
		return nil, err
	}

	question := "(nothing)"
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == RoleUser {
			question = messages[i].Content
			break
		}
	}
	text := fmt.Sprintf("[placeholder] You asked: %q. This is a canned answer; "+
		"configure a real AI provider (openai, anthropic, gemini, vertex, ollama) "+
		"to get answers from your data.", truncate(question, 120))
	return &wordStream{ctx: ctx, words: strings.SplitAfter(text, " ")}, nil
}

// wordStream replays a fixed text one word at a time.
type wordStream struct {
	ctx   context.Context
	words []string
	i     int
}

func (w *wordStream) Recv() (string, error) {
	if err := w.ctx.Err(); err != nil {
		return "", err
	}
	if w.i >= len(w.words) {
		return "", io.EOF
	}
	chunk := w.words[w.i]
	w.i++
	return chunk, nil
}

func (w *wordStream) Close() error {
	w.i = len(w.words)
	return nil
}

// truncate shortens s to maxLen runes.
func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	return string(r[:maxLen-3]) + "..."
}
