package domain

import "time"

// Chat message roles.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// ChatMessage is one turn of a research conversation.
type ChatMessage struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"`
}

// ChatContext is the research material a conversation is grounded in:
// the papers under discussion and, when available, their analysis.
type ChatContext struct {
	Papers   []Paper   `json:"papers"`
	Analysis *Analysis `json:"analysis,omitempty"`
}
