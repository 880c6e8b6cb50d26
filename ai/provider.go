// Package ai defines the interface for language-model providers
// and a placeholder implementation.
//
// Design decisions:
//   - Provider is an interface so we can swap backends (OpenAI, Anthropic,
//     Gemini, Vertex AI, Ollama) without changing the chat pipeline.
//   - All methods accept context for cancellation.
//   - ChatStream returns an explicit iterator; cancelling the context
//     aborts the underlying HTTP body and ends the stream with an error.
//   - The placeholder provider returns canned responses for development.
package ai

import (
	"context"
)

// Message roles.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message represents a chat message.
type Message struct {
	Role    string // "user", "assistant", "system"
	Content string
}

// Provider is the interface all AI backends must implement.
type Provider interface {
	// Chat sends a conversation and returns the complete reply.
	Chat(ctx context.Context, messages []Message) (string, error)

	// ChatStream sends a conversation and returns the reply as a stream
	// of text chunks in arrival order.
	ChatStream(ctx context.Context, messages []Message) (Stream, error)

	// Name returns the provider name for display.
	Name() string
}

// Stream yields reply chunks. Recv returns io.EOF once the reply is
// complete. Close releases the connection and may be called at any time.
type Stream interface {
	Recv() (string, error)
	Close() error
}
