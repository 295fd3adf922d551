package assistant

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"research-assistant/internal/domain"
)

// ChatBot answers research questions. Questions about the paper in context
// are answered from its stored analysis when one exists; everything else
// goes to the model, with canned guidance when no model is configured.
type ChatBot struct {
	llm    LLMClient // nil disables the model
	logger *logrus.Logger
}

// NewChatBot builds a chat bot. llm may be nil.
func NewChatBot(llm LLMClient, logger *logrus.Logger) *ChatBot {
	if logger == nil {
		logger = logrus.New()
	}
	return &ChatBot{llm: llm, logger: logger}
}

// Respond generates a Markdown reply to the user's query.
func (c *ChatBot) Respond(ctx context.Context, query string, chatCtx domain.ChatContext, history []domain.ChatMessage) (string, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return "", fmt.Errorf("query is required")
	}

	q := strings.ToLower(query)
	hasContext := len(chatCtx.Papers) > 0
	analysis := chatCtx.Analysis

	switch {
	case containsAny(q, "summary", "summarize"):
		if hasContext {
			return c.summaryReply(ctx, query, chatCtx, history)
		}
		return "I don't currently have a specific paper in context to summarize. " +
			"Please search for and select a paper first, or ask a more general research question.", nil

	case containsAny(q, "findings", "results", "discover"):
		if !hasContext {
			return "I don't have a specific paper in context to discuss findings. " +
				"Please select a paper first, or ask a more general research question.", nil
		}
		if analysis != nil && len(analysis.KeyFindings) > 0 {
			return findingsReply(chatCtx.Papers[0], analysis), nil
		}
		return fmt.Sprintf("The paper %q presents several important findings, "+
			"including methodological innovations, empirical results supporting their hypotheses, "+
			"and theoretical contributions to the field.", chatCtx.Papers[0].Title), nil

	case containsAny(q, "method", "approach", "how did they"):
		if !hasContext {
			return "I don't have a specific paper in context to discuss methodology. " +
				"If you're asking about research methods in general, please specify which area or approach you're interested in.", nil
		}
		if analysis != nil && analysis.Methodology.Description != "" {
			return methodologyReply(chatCtx.Papers[0], analysis), nil
		}
		return "The researchers employed a multi-faceted methodology combining quantitative analysis " +
			"with qualitative assessments. Their approach involved data collection from multiple sources, " +
			"rigorous preprocessing, model development, and comprehensive evaluation against established benchmarks.", nil

	case containsAny(q, "implications", "impact", "future", "next steps"):
		if !hasContext {
			return "To discuss research implications, it would be helpful to have a specific paper in context. " +
				"Please select a paper first, or specify which research area you're interested in.", nil
		}
		if analysis != nil && analysis.Implications.Description != "" {
			return implicationsReply(chatCtx.Papers[0], analysis), nil
		}
		return fmt.Sprintf("The research has several important implications for both theory and practice. "+
			"It extends our understanding of %s and provides practical approaches that can be applied in "+
			"real-world scenarios.", strings.ToLower(chatCtx.Papers[0].Title)), nil

	case containsAny(q, "compare", "difference", "similar") && len(chatCtx.Papers) < 2:
		return "To compare multiple papers, please select at least two papers from your search results. " +
			"Currently, detailed analysis covers one paper at a time.", nil

	default:
		return c.generalReply(ctx, query, chatCtx, history)
	}
}

func (c *ChatBot) summaryReply(ctx context.Context, query string, chatCtx domain.ChatContext, history []domain.ChatMessage) (string, error) {
	paper := chatCtx.Papers[0]

	if chatCtx.Analysis != nil && chatCtx.Analysis.Summary != "" {
		return fmt.Sprintf("Here's a summary of the paper %q:\n\n%s", paper.Title, chatCtx.Analysis.Summary), nil
	}
	if c.llm != nil {
		return c.complete(ctx, query, chatCtx, history)
	}

	byline := strings.Join(paper.Authors, ", ")
	if byline == "" {
		byline = "the authors"
	}
	return fmt.Sprintf("Here's a summary of the paper %q:\n\n"+
		"This research by %s investigates %s.\n\n"+
		"The paper makes several key contributions:\n"+
		"1. Development of novel methodologies for addressing challenges in this domain\n"+
		"2. Empirical evidence supporting the effectiveness of the proposed approach\n"+
		"3. Theoretical foundations that advance our understanding of the underlying principles",
		paper.Title, byline, strings.ToLower(paper.Title)), nil
}

func (c *ChatBot) generalReply(ctx context.Context, query string, chatCtx domain.ChatContext, history []domain.ChatMessage) (string, error) {
	if c.llm != nil {
		return c.complete(ctx, query, chatCtx, history)
	}

	if len(chatCtx.Papers) > 0 {
		paper := chatCtx.Papers[0]
		return fmt.Sprintf("Regarding your question about %s, in the context of %q:\n\n"+
			"The paper addresses aspects related to your question through its approach to %s. "+
			"For more specific information, ask about the paper's methodology, key findings, or broader implications.",
			query, paper.Title, strings.ToLower(paper.Title)), nil
	}
	return fmt.Sprintf("To provide a more informed response about %s, it would be helpful to have a specific "+
		"research paper in context. You can search for relevant papers first, or rephrase the question "+
		"to a general overview of the field.", query), nil
}

func (c *ChatBot) complete(ctx context.Context, query string, chatCtx domain.ChatContext, history []domain.ChatMessage) (string, error) {
	reply, err := c.llm.Complete(ctx, BuildChatPrompt(query, chatCtx, history))
	if err != nil {
		c.logger.WithError(err).Error("llm chat completion failed")
		return "", fmt.Errorf("generate response: %w", err)
	}
	return strings.TrimSpace(reply), nil
}

func findingsReply(paper domain.Paper, analysis *domain.Analysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The key findings of %q include:\n\n", paper.Title)
	for i, f := range analysis.KeyFindings {
		fmt.Fprintf(&sb, "%d. **%s**: %s\n\n", i+1, f.Title, f.Description)
	}
	return strings.TrimRight(sb.String(), "\n")
}

func methodologyReply(paper domain.Paper, analysis *domain.Analysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "The methodology in %q is as follows:\n\n%s\n\n", paper.Title, analysis.Methodology.Description)
	if len(analysis.Methodology.Steps) > 0 {
		sb.WriteString("The research process involved these key steps:\n\n")
		for i, step := range analysis.Methodology.Steps {
			fmt.Fprintf(&sb, "%d. **%s**: %s\n\n", i+1, step.Title, step.Description)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func implicationsReply(paper domain.Paper, analysis *domain.Analysis) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "**Implications of %q:**\n\n%s\n\n", paper.Title, analysis.Implications.Description)
	if len(analysis.Implications.ResearchGaps) > 0 {
		sb.WriteString("**Research Gaps Identified:**\n")
		for _, gap := range analysis.Implications.ResearchGaps {
			fmt.Fprintf(&sb, "- %s\n", gap)
		}
		sb.WriteString("\n")
	}
	if len(analysis.Implications.FutureDirections) > 0 {
		sb.WriteString("**Future Research Directions:**\n")
		for _, dir := range analysis.Implications.FutureDirections {
			fmt.Fprintf(&sb, "- %s\n", dir)
		}
	}
	return strings.TrimRight(sb.String(), "\n")
}

func containsAny(s string, substrs ...string) bool {
	for _, sub := range substrs {
		if strings.Contains(s, sub) {
			return true
		}
	}
	return false
}
