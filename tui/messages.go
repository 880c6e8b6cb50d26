// messages.go defines the Bubble Tea messages that carry pipeline
// progress from the Ask goroutine back to the UI loop.
package tui

import (
	"github.com/deras16/ChatDb-vertexai/chat"
	"github.com/deras16/ChatDb-vertexai/db"
)

// SQLMsg carries the generated statement of the running round.
type SQLMsg struct {
	SQL string
}

// ResultMsg carries the execution outcome of the running round.
type ResultMsg struct {
	Result chat.Result
}

// ChunkMsg carries one streamed answer fragment.
type ChunkMsg struct {
	Chunk string
}

// DoneMsg ends a round. Err is nil when the answer completed.
type DoneMsg struct {
	Reply *chat.Reply
	Err   error
}

// SchemaMsg is sent when a schema fetch completes.
type SchemaMsg struct {
	Schema db.SchemaDescriptor
	Err    error
}

// StatusMsg is a transient status message for the status bar.
type StatusMsg string
