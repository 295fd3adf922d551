package assistant

import (
	"fmt"
	"strings"

	"research-assistant/internal/domain"
)

// maxHistoryTurns bounds the conversation history forwarded to the model.
const maxHistoryTurns = 10

// BuildAnalysisPrompt asks the model for a strict-JSON analysis of a paper.
func BuildAnalysisPrompt(paper domain.Paper) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a research analyst. Analyze the paper described by the user and respond with a single JSON object, no prose before or after.\n")
	sb.WriteString("The JSON object must have exactly these fields:\n")
	sb.WriteString(`- "summary": string, 3-5 sentences` + "\n")
	sb.WriteString(`- "key_findings": array of {"title": string, "description": string}, 2-4 entries` + "\n")
	sb.WriteString(`- "methodology": {"description": string, "steps": array of {"title": string, "description": string}}` + "\n")
	sb.WriteString(`- "implications": {"description": string, "research_gaps": array of string, "future_directions": array of string}` + "\n")
	sb.WriteString("Base the analysis only on the given metadata and abstract. Do not invent citations.\n")

	var user strings.Builder
	fmt.Fprintf(&user, "Title: %s\n", paper.Title)
	if len(paper.Authors) > 0 {
		fmt.Fprintf(&user, "Authors: %s\n", strings.Join(paper.Authors, ", "))
	}
	if paper.Year > 0 {
		fmt.Fprintf(&user, "Year: %d\n", paper.Year)
	}
	if paper.Abstract != "" {
		fmt.Fprintf(&user, "Abstract: %s\n", paper.Abstract)
	}
	user.WriteString("\nAnalyze this paper and output the JSON object.")

	return Prompt{
		System: sb.String(),
		User:   user.String(),
	}
}

// BuildChatPrompt asks the model a research question, grounded in the
// current paper context and recent history.
func BuildChatPrompt(query string, chatCtx domain.ChatContext, history []domain.ChatMessage) Prompt {
	var sb strings.Builder
	sb.WriteString("You are a research assistant. Answer questions about academic research accurately and concisely, in Markdown.\n")
	sb.WriteString("When a paper is in context, ground your answer in its metadata and abstract; say so when the material does not cover the question.\n")

	if len(chatCtx.Papers) > 0 {
		sb.WriteString("\nPapers currently in context:\n")
		for _, p := range chatCtx.Papers {
			fmt.Fprintf(&sb, "- %q (%s, %d) by %s\n", p.Title, p.Source, p.Year, strings.Join(p.Authors, ", "))
			if p.Abstract != "" {
				fmt.Fprintf(&sb, "  Abstract: %s\n", p.Abstract)
			}
		}
	}
	if chatCtx.Analysis != nil && chatCtx.Analysis.Summary != "" {
		fmt.Fprintf(&sb, "\nStored analysis summary: %s\n", chatCtx.Analysis.Summary)
	}

	if len(history) > maxHistoryTurns {
		history = history[len(history)-maxHistoryTurns:]
	}
	msgs := make([]Message, 0, len(history))
	for _, h := range history {
		msgs = append(msgs, Message{Role: h.Role, Content: h.Content})
	}

	return Prompt{
		System:  sb.String(),
		User:    query,
		History: msgs,
	}
}
