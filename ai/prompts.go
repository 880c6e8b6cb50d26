package ai

// systemPromptDefault is prepended when a conversation carries no system
// message of its own. The chat pipeline always supplies one.
const systemPromptDefault = `You are a data assistant that answers questions about an agricultural
statistics warehouse (basic grains and vegetables).

Guidelines:
- Be concise; answers are read in a terminal
- When asked for SQL, reply with a single SQL statement and nothing else
- If you don't know something, say so rather than guessing`

// withSystem returns messages with the default system prompt prepended
// when none is present.
func withSystem(messages []Message) []Message {
	for _, m := range messages {
		if m.Role == RoleSystem {
			return messages
		}
	}
	out := make([]Message, 0, len(messages)+1)
	out = append(out, Message{Role: RoleSystem, Content: systemPromptDefault})
	return append(out, messages...)
}

// splitSystem separates the system prompt from the conversation for APIs
// that take it as a top-level field. The last system message wins.
func splitSystem(messages []Message) (string, []Message) {
	system := systemPromptDefault
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			system = m.Content
			continue
		}
		rest = append(rest, m)
	}
	return system, rest
}
