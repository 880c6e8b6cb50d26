package chat

import (
	"sync"
)

// Role tags a conversation turn.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Label is the speaker name used when a turn is rendered into a prompt.
func (r Role) Label() string {
	if r == RoleUser {
		return "Human"
	}
	return "AI"
}

// Turn is one entry of the conversation.
type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// History is the append-only conversation of a session, seeded with a
// greeting. Callers only ever see copies, so a snapshot handed to a
// pipeline run never changes underneath it.
type History struct {
	mu     sync.RWMutex
	turns  []Turn
	max    int
	seeded bool
}

// NewHistory seeds a history with the assistant greeting. max caps the
// stored turns (0 keeps everything); the greeting is never dropped.
func NewHistory(greeting string, max int) *History {
	h := &History{max: max}
	if greeting != "" {
		h.turns = []Turn{{Role: RoleAssistant, Content: greeting}}
		h.seeded = true
	}
	return h
}

// RestoreHistory rebuilds a history from saved turns. A leading
// assistant turn is treated as the greeting.
func RestoreHistory(turns []Turn, max int) *History {
	h := &History{max: max}
	h.turns = append([]Turn(nil), turns...)
	h.seeded = len(turns) > 0 && turns[0].Role == RoleAssistant
	h.trim()
	return h
}

// Append records one completed round: the question then the answer.
func (h *History) Append(question, answer string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.turns = append(h.turns,
		Turn{Role: RoleUser, Content: question},
		Turn{Role: RoleAssistant, Content: answer},
	)
	h.trim()
}

// trim drops the oldest non-greeting rounds until the cap holds.
func (h *History) trim() {
	start := 0
	if h.seeded {
		start = 1
	}
	for h.max > 0 && len(h.turns) > h.max && len(h.turns)-start >= 2 {
		kept := make([]Turn, 0, len(h.turns)-2)
		kept = append(kept, h.turns[:start]...)
		h.turns = append(kept, h.turns[start+2:]...)
	}
}

// Turns returns a copy of every stored turn.
func (h *History) Turns() []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return append([]Turn(nil), h.turns...)
}

// Window returns a copy of the last n turns; n <= 0 means all.
func (h *History) Window(n int) []Turn {
	h.mu.RLock()
	defer h.mu.RUnlock()
	from := 0
	if n > 0 && len(h.turns) > n {
		from = len(h.turns) - n
	}
	return append([]Turn(nil), h.turns[from:]...)
}

// Len returns the number of stored turns.
func (h *History) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.turns)
}
