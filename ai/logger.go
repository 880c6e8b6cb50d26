// logger.go records every model interaction through the application log.
//
// Requests are logged with their full prompt at debug level and a size
// summary at info level; responses carry the reply, error and latency.
package ai

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/deras16/ChatDb-vertexai/applog"
)

// LogAIRequest logs an outgoing request for the given operation.
func LogAIRequest(operation string, provider string, messages []Message) {
	l := applog.For("ai")
	chars := 0
	for _, m := range messages {
		chars += len(m.Content)
	}
	l.Info().
		Str("op", operation).
		Str("provider", provider).
		Int("messages", len(messages)).
		Int("prompt_chars", chars).
		Msg("request")

	if l.GetLevel() <= zerolog.DebugLevel {
		for i, m := range messages {
			l.Debug().
				Str("op", operation).
				Int("index", i).
				Str("role", m.Role).
				Str("content", m.Content).
				Msg("request message")
		}
	}
}

// LogAIResponse logs the outcome of a request. For streams it runs once
// the stream ends, with the concatenated reply.
func LogAIResponse(operation string, provider string, response string, err error, elapsed time.Duration) {
	l := applog.For("ai")
	if err != nil {
		l.Error().
			Err(err).
			Str("op", operation).
			Str("provider", provider).
			Dur("elapsed", elapsed).
			Int("reply_chars", len(response)).
			Msg("response failed")
		return
	}
	l.Info().
		Str("op", operation).
		Str("provider", provider).
		Dur("elapsed", elapsed).
		Int("reply_chars", len(response)).
		Msg("response")
	l.Debug().Str("op", operation).Str("content", response).Msg("response body")
}
