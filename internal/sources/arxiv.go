package sources

import (
	"context"
	"encoding/xml"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"golang.org/x/net/html"

	"research-assistant/internal/domain"
)

const defaultArxivURL = "http://export.arxiv.org/api/query"

// Arxiv queries the arXiv Atom API. No API key is needed.
type Arxiv struct {
	client  *http.Client
	baseURL string
}

// NewArxiv builds the client. baseURL may be empty for the public endpoint.
func NewArxiv(client *http.Client, baseURL string) *Arxiv {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultArxivURL
	}
	return &Arxiv{client: client, baseURL: baseURL}
}

// Name implements Source.
func (a *Arxiv) Name() string { return "arXiv" }

type arxivAuthor struct {
	Name string `xml:"name"`
}

type arxivEntry struct {
	ID        string        `xml:"id"`
	Title     string        `xml:"title"`
	Summary   string        `xml:"summary"`
	Published string        `xml:"published"`
	Authors   []arxivAuthor `xml:"author"`
}

type arxivFeed struct {
	Entries []arxivEntry `xml:"entry"`
}

// Search implements Source. arXiv cannot filter by year server side, so the
// aggregator's year filter applies after parsing.
func (a *Arxiv) Search(ctx context.Context, q Query) ([]domain.Paper, error) {
	sortBy := "relevance"
	if q.SortBy == SortDate {
		sortBy = "submittedDate"
	}

	params := url.Values{}
	params.Set("search_query", "all:"+q.Text)
	params.Set("start", "0")
	params.Set("max_results", strconv.Itoa(q.MaxResults))
	params.Set("sortBy", sortBy)
	params.Set("sortOrder", "descending")

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("arxiv: build request: %w", err)
	}

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("arxiv: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("arxiv: unexpected status %d", resp.StatusCode)
	}

	var feed arxivFeed
	if err := xml.NewDecoder(resp.Body).Decode(&feed); err != nil {
		return nil, fmt.Errorf("arxiv: decode feed: %w", err)
	}

	papers := make([]domain.Paper, 0, len(feed.Entries))
	for _, e := range feed.Entries {
		authors := make([]string, 0, len(e.Authors))
		for _, au := range e.Authors {
			authors = append(authors, strings.TrimSpace(au.Name))
		}

		year := 0
		if t, err := time.Parse(time.RFC3339, e.Published); err == nil {
			year = t.Year()
		}

		papers = append(papers, domain.Paper{
			ID:       arxivID(e.ID),
			Title:    collapseWhitespace(e.Title),
			Authors:  authors,
			Year:     year,
			Abstract: stripHTML(collapseWhitespace(e.Summary)),
			Source:   a.Name(),
			URL:      e.ID,
		})
	}
	return papers, nil
}

// arxivID extracts the bare identifier from an abs URL like
// http://arxiv.org/abs/1706.03762v5.
func arxivID(absURL string) string {
	if i := strings.LastIndex(absURL, "/abs/"); i >= 0 {
		return absURL[i+len("/abs/"):]
	}
	return absURL
}

// collapseWhitespace joins the hard-wrapped lines arXiv returns into a
// single-space string.
func collapseWhitespace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// stripHTML removes markup that occasionally appears in arXiv summaries,
// keeping only text content.
func stripHTML(s string) string {
	if !strings.ContainsAny(s, "<>") {
		return s
	}

	var sb strings.Builder
	tokenizer := html.NewTokenizer(strings.NewReader(s))
	for {
		tt := tokenizer.Next()
		if tt == html.ErrorToken {
			break
		}
		if tt == html.TextToken {
			sb.Write(tokenizer.Text())
		}
	}
	return strings.TrimSpace(sb.String())
}
