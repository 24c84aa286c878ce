package chat

const (
	ChatRoleUser   = "user"      // Player
	ChatRoleAgent  = "assistant" // NPC
	ChatRoleSystem = "system"    // Instructions
)

// ChatMessage is a single entry of an NPC conversation. The same shape is
// stored in player variables and sent to the dialogue webhooks.
type ChatMessage struct {
	ID      string `json:"id,omitempty"`
	Role    string `json:"role"` // "user", "assistant", "system"
	Content string `json:"content"`
}

// User builds a player message.
func User(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleUser, Content: content}
}

// Agent builds an NPC message.
func Agent(content string) ChatMessage {
	return ChatMessage{Role: ChatRoleAgent, Content: content}
}

// Last returns the trailing n messages of history. The returned slice never
// aliases the input.
func Last(history []ChatMessage, n int) []ChatMessage {
	if n <= 0 {
		return nil
	}
	start := max(len(history)-n, 0)
	out := make([]ChatMessage, len(history)-start)
	copy(out, history[start:])
	return out
}

// LastAgentMessage returns the content of the most recent NPC message.
func LastAgentMessage(history []ChatMessage) (string, bool) {
	for i := len(history) - 1; i >= 0; i-- {
		if history[i].Role == ChatRoleAgent {
			return history[i].Content, true
		}
	}
	return "", false
}
