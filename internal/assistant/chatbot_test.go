package assistant

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/internal/domain"
)

func paperContext() domain.ChatContext {
	return domain.ChatContext{
		Papers: []domain.Paper{samplePaper()},
		Analysis: &domain.Analysis{
			Summary: "The paper introduces the Transformer.",
			KeyFindings: []domain.Finding{
				{Title: "Attention suffices", Description: "Recurrence is unnecessary."},
			},
			Methodology: domain.Methodology{
				Description: "Architecture design plus benchmarks.",
				Steps: []domain.MethodologyStep{
					{Title: "Design", Description: "Define the architecture."},
				},
			},
			Implications: domain.Implications{
				Description:      "Reshapes sequence modeling.",
				ResearchGaps:     []string{"Long-context behavior"},
				FutureDirections: []string{"Other modalities"},
			},
		},
	}
}

func TestChatBotRespond(t *testing.T) {
	bot := NewChatBot(nil, testLogger())
	ctx := context.Background()

	t.Run("summary from analysis", func(t *testing.T) {
		reply, err := bot.Respond(ctx, "Can you summarize this paper?", paperContext(), nil)
		require.NoError(t, err)
		assert.Contains(t, reply, "Attention Is All You Need")
		assert.Contains(t, reply, "The paper introduces the Transformer.")
	})

	t.Run("summary without context", func(t *testing.T) {
		reply, err := bot.Respond(ctx, "summarize it", domain.ChatContext{}, nil)
		require.NoError(t, err)
		assert.Contains(t, reply, "don't currently have a specific paper in context")
	})

	t.Run("findings from analysis", func(t *testing.T) {
		reply, err := bot.Respond(ctx, "What are the key findings?", paperContext(), nil)
		require.NoError(t, err)
		assert.Contains(t, reply, "**Attention suffices**")
	})

	t.Run("methodology from analysis", func(t *testing.T) {
		reply, err := bot.Respond(ctx, "Explain the methodology", paperContext(), nil)
		require.NoError(t, err)
		assert.Contains(t, reply, "Architecture design plus benchmarks.")
		assert.Contains(t, reply, "**Design**")
	})

	t.Run("implications from analysis", func(t *testing.T) {
		reply, err := bot.Respond(ctx, "What is the impact of this work?", paperContext(), nil)
		require.NoError(t, err)
		assert.Contains(t, reply, "Research Gaps")
		assert.Contains(t, reply, "Long-context behavior")
	})

	t.Run("compare with one paper in context", func(t *testing.T) {
		reply, err := bot.Respond(ctx, "compare this to BERT", paperContext(), nil)
		require.NoError(t, err)
		assert.Contains(t, reply, "at least two papers")
	})

	t.Run("general without llm or context", func(t *testing.T) {
		reply, err := bot.Respond(ctx, "what is quantum computing", domain.ChatContext{}, nil)
		require.NoError(t, err)
		assert.Contains(t, reply, "quantum computing")
	})

	t.Run("empty query rejected", func(t *testing.T) {
		_, err := bot.Respond(ctx, "  ", domain.ChatContext{}, nil)
		assert.Error(t, err)
	})
}

func TestChatBotUsesLLMForGeneralQueries(t *testing.T) {
	bot := NewChatBot(MockLLM{Response: "Quantum computing uses qubits."}, testLogger())

	reply, err := bot.Respond(context.Background(), "what is quantum computing", domain.ChatContext{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "Quantum computing uses qubits.", reply)
}

func TestBuildChatPromptBoundsHistory(t *testing.T) {
	history := make([]domain.ChatMessage, 25)
	for i := range history {
		history[i] = domain.ChatMessage{Role: domain.RoleUser, Content: "turn"}
	}

	prompt := BuildChatPrompt("question", domain.ChatContext{}, history)
	assert.Len(t, prompt.History, maxHistoryTurns)
}

func TestBuildChatPromptIncludesContext(t *testing.T) {
	prompt := BuildChatPrompt("question", paperContext(), nil)
	assert.Contains(t, prompt.System, "Attention Is All You Need")
	assert.Contains(t, prompt.System, "The paper introduces the Transformer.")
}
