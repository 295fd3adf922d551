package domain

import "time"

// Paper is a research paper as returned by one of the academic sources.
// ID is the source-native identifier (Semantic Scholar paperId, arXiv id,
// PubMed id); the store assigns its own row id on persistence.
type Paper struct {
	ID            string   `json:"id"`
	Title         string   `json:"title"`
	Authors       []string `json:"authors"`
	Year          int      `json:"year"`
	Abstract      string   `json:"abstract,omitempty"`
	CitationCount int      `json:"citation_count"`
	Source        string   `json:"source"`
	URL           string   `json:"url,omitempty"`
}

// SavedPaper is a paper in a user's collection.
type SavedPaper struct {
	Paper
	DateSaved time.Time `json:"date_saved"`
	Notes     string    `json:"notes,omitempty"`
}

// Finding is a single key finding inside an analysis.
type Finding struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// MethodologyStep is one step of a paper's research process.
type MethodologyStep struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Methodology describes how the research was conducted.
type Methodology struct {
	Description string            `json:"description"`
	Steps       []MethodologyStep `json:"steps"`
}

// Implications collects the downstream consequences of a paper.
type Implications struct {
	Description      string   `json:"description"`
	ResearchGaps     []string `json:"research_gaps"`
	FutureDirections []string `json:"future_directions"`
}

// Analysis is the structured breakdown of a paper.
type Analysis struct {
	Summary      string       `json:"summary"`
	KeyFindings  []Finding    `json:"key_findings"`
	Methodology  Methodology  `json:"methodology"`
	Implications Implications `json:"implications"`
}
