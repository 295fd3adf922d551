package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"research-assistant/internal/domain"
)

const defaultSemanticScholarURL = "https://api.semanticscholar.org/graph/v1"

// SemanticScholar queries the Semantic Scholar Graph API. An API key is
// optional and only raises rate limits.
type SemanticScholar struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewSemanticScholar builds the client. baseURL may be empty for the public
// endpoint; client may be nil for a default with a 30s timeout.
func NewSemanticScholar(client *http.Client, baseURL, apiKey string) *SemanticScholar {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultSemanticScholarURL
	}
	return &SemanticScholar{client: client, baseURL: baseURL, apiKey: apiKey}
}

// Name implements Source.
func (s *SemanticScholar) Name() string { return "Semantic Scholar" }

type semanticScholarAuthor struct {
	Name string `json:"name"`
}

type semanticScholarPaper struct {
	PaperID       string                  `json:"paperId"`
	Title         string                  `json:"title"`
	Abstract      string                  `json:"abstract"`
	Year          int                     `json:"year"`
	CitationCount int                     `json:"citationCount"`
	URL           string                  `json:"url"`
	Authors       []semanticScholarAuthor `json:"authors"`
}

type semanticScholarSearchResp struct {
	Total int                    `json:"total"`
	Data  []semanticScholarPaper `json:"data"`
}

// Search implements Source.
func (s *SemanticScholar) Search(ctx context.Context, q Query) ([]domain.Paper, error) {
	params := url.Values{}
	params.Set("query", q.Text)
	params.Set("fields", "title,abstract,authors,year,citationCount,url")
	params.Set("limit", strconv.Itoa(q.MaxResults))
	if q.YearFrom > 0 || q.YearTo > 0 {
		params.Set("year", fmt.Sprintf("%d-%d", q.YearFrom, q.YearTo))
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.baseURL+"/paper/search?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar: build request: %w", err)
	}
	if s.apiKey != "" {
		req.Header.Set("x-api-key", s.apiKey)
	}

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("semantic scholar: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("semantic scholar: unexpected status %d", resp.StatusCode)
	}

	var body semanticScholarSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("semantic scholar: decode response: %w", err)
	}

	papers := make([]domain.Paper, 0, len(body.Data))
	for _, p := range body.Data {
		authors := make([]string, 0, len(p.Authors))
		for _, a := range p.Authors {
			authors = append(authors, a.Name)
		}
		papers = append(papers, domain.Paper{
			ID:            p.PaperID,
			Title:         p.Title,
			Authors:       authors,
			Year:          p.Year,
			Abstract:      p.Abstract,
			CitationCount: p.CitationCount,
			Source:        s.Name(),
			URL:           p.URL,
		})
	}
	return papers, nil
}
