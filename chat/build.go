package chat

import (
	"crypto/rand"
	"encoding/hex"
	"time"

	"github.com/deras16/ChatDb-vertexai/ai"
	"github.com/deras16/ChatDb-vertexai/config"
	"github.com/deras16/ChatDb-vertexai/db"
)

// NewSession wires a session over a warehouse and a provider using the
// chat settings. history may be nil, in which case a fresh one is seeded
// with the configured greeting.
func NewSession(w db.Warehouse, p ai.Provider, dataset string, cfg config.ChatConfig, history *History) (*Session, error) {
	prompts, err := LoadPrompts(cfg.SQLTemplate, cfg.AnswerTemplate)
	if err != nil {
		return nil, err
	}
	if history == nil {
		history = NewHistory(cfg.Greeting, cfg.MaxHistory)
	}
	return &Session{
		ID:       NewSessionID(),
		Dataset:  dataset,
		Dialect:  w.Dialect(),
		Schema:   WarehouseSchema{Warehouse: w},
		SQL:      &LLMSQL{Provider: p, Prompts: prompts, Attempts: cfg.SQLAttempts},
		Executor: &Executor{Warehouse: w, MaxRows: cfg.MaxRows},
		Answer:   &LLMAnswer{Provider: p, Prompts: prompts},
		History:  history,

		HistoryWindow: cfg.HistoryWindow,
	}, nil
}

// NewSessionID returns a sortable id such as "20261019-153000-a1b2c3".
func NewSessionID() string {
	b := make([]byte, 3)
	_, _ = rand.Read(b)
	return time.Now().UTC().Format("20060102-150405") + "-" + hex.EncodeToString(b)
}
