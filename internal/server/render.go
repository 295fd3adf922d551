package server

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/yuin/goldmark"

	"research-assistant/internal/domain"
)

// mdToHTML renders Markdown to an HTML fragment.
func mdToHTML(md string) (string, error) {
	var buf bytes.Buffer
	if err := goldmark.Convert([]byte(md), &buf); err != nil {
		return "", fmt.Errorf("render markdown: %w", err)
	}
	return buf.String(), nil
}

// analysisMarkdown lays a stored analysis out as a Markdown document.
func analysisMarkdown(paper *domain.Paper, a *domain.Analysis) string {
	var sb strings.Builder

	if paper != nil {
		sb.WriteString("# " + paper.Title + "\n\n")
		if len(paper.Authors) > 0 {
			sb.WriteString("*" + strings.Join(paper.Authors, ", ") + "*\n\n")
		}
	}

	sb.WriteString("## Summary\n\n")
	sb.WriteString(a.Summary + "\n\n")

	if len(a.KeyFindings) > 0 {
		sb.WriteString("## Key Findings\n\n")
		for i, f := range a.KeyFindings {
			fmt.Fprintf(&sb, "%d. **%s**: %s\n", i+1, f.Title, f.Description)
		}
		sb.WriteString("\n")
	}

	sb.WriteString("## Methodology\n\n")
	sb.WriteString(a.Methodology.Description + "\n\n")
	for i, step := range a.Methodology.Steps {
		fmt.Fprintf(&sb, "%d. **%s**: %s\n", i+1, step.Title, step.Description)
	}
	sb.WriteString("\n")

	sb.WriteString("## Implications\n\n")
	sb.WriteString(a.Implications.Description + "\n\n")
	if len(a.Implications.ResearchGaps) > 0 {
		sb.WriteString("### Research Gaps\n\n")
		for _, gap := range a.Implications.ResearchGaps {
			sb.WriteString("- " + gap + "\n")
		}
		sb.WriteString("\n")
	}
	if len(a.Implications.FutureDirections) > 0 {
		sb.WriteString("### Future Directions\n\n")
		for _, dir := range a.Implications.FutureDirections {
			sb.WriteString("- " + dir + "\n")
		}
	}

	return sb.String()
}
