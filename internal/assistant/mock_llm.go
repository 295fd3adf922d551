package assistant

import (
	"context"
	"strings"
)

// MockLLM is a placeholder client for local runs and tests; it never calls
// an external model.
type MockLLM struct {
	// Response, when set, is returned verbatim.
	Response string
	// Err, when set, is returned instead.
	Err error
}

// Complete implements LLMClient.
func (m MockLLM) Complete(_ context.Context, prompt Prompt) (string, error) {
	if m.Err != nil {
		return "", m.Err
	}
	if m.Response != "" {
		return m.Response, nil
	}

	var sb strings.Builder
	sb.WriteString("This is a mock response.\n\n")
	sb.WriteString("Prompt received:\n\n```\n")
	sb.WriteString(prompt.User)
	sb.WriteString("\n```\n")
	return sb.String(), nil
}
