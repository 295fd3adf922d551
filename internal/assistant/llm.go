// Package assistant provides LLM-backed paper analysis and research chat.
package assistant

import (
	"context"
	"time"
)

// LLMClient abstracts the model client so it can be replaced or mocked.
type LLMClient interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// LLMSettings is the base configuration for concrete implementations.
type LLMSettings struct {
	Provider string
	Model    string
	APIKey   string
	BaseURL  string
	// Timeout bounds each model call; zero leaves only the caller's
	// context deadline in effect.
	Timeout time.Duration
}

// Prompt is the message set sent to the LLM.
type Prompt struct {
	System  string
	User    string
	History []Message
}

// Message carries a small amount of prior conversation.
type Message struct {
	Role    string
	Content string
}
