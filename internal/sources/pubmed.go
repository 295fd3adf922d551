package sources

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"research-assistant/internal/domain"
)

const defaultPubMedURL = "https://eutils.ncbi.nlm.nih.gov/entrez/eutils"

// PubMed queries the NCBI E-utilities: esearch for matching ids, esummary
// for metadata. An API key is optional.
type PubMed struct {
	client  *http.Client
	baseURL string
	apiKey  string
}

// NewPubMed builds the client. baseURL may be empty for the public endpoint.
func NewPubMed(client *http.Client, baseURL, apiKey string) *PubMed {
	if client == nil {
		client = &http.Client{Timeout: 30 * time.Second}
	}
	if baseURL == "" {
		baseURL = defaultPubMedURL
	}
	return &PubMed{client: client, baseURL: baseURL, apiKey: apiKey}
}

// Name implements Source.
func (p *PubMed) Name() string { return "PubMed" }

type pubmedSearchResp struct {
	ESearchResult struct {
		IDList []string `json:"idlist"`
	} `json:"esearchresult"`
}

type pubmedSummary struct {
	UID     string `json:"uid"`
	Title   string `json:"title"`
	PubDate string `json:"pubdate"`
	Authors []struct {
		Name string `json:"name"`
	} `json:"authors"`
	ELocationID string `json:"elocationid"`
}

// Search implements Source.
func (p *PubMed) Search(ctx context.Context, q Query) ([]domain.Paper, error) {
	ids, err := p.searchIDs(ctx, q)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []domain.Paper{}, nil
	}
	return p.summaries(ctx, ids)
}

func (p *PubMed) searchIDs(ctx context.Context, q Query) ([]string, error) {
	term := q.Text
	if q.YearFrom > 0 || q.YearTo > 0 {
		term = fmt.Sprintf("%s AND (%d[PDAT]:%d[PDAT])", q.Text, q.YearFrom, q.YearTo)
	}

	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("term", term)
	params.Set("retmax", strconv.Itoa(q.MaxResults))
	params.Set("retmode", "json")
	if p.apiKey != "" {
		params.Set("api_key", p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/esearch.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pubmed: build esearch request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pubmed: esearch: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed: esearch: unexpected status %d", resp.StatusCode)
	}

	var body pubmedSearchResp
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("pubmed: decode esearch response: %w", err)
	}
	return body.ESearchResult.IDList, nil
}

func (p *PubMed) summaries(ctx context.Context, ids []string) ([]domain.Paper, error) {
	params := url.Values{}
	params.Set("db", "pubmed")
	params.Set("id", strings.Join(ids, ","))
	params.Set("retmode", "json")
	if p.apiKey != "" {
		params.Set("api_key", p.apiKey)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.baseURL+"/esummary.fcgi?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("pubmed: build esummary request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pubmed: esummary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("pubmed: esummary: unexpected status %d", resp.StatusCode)
	}

	// The result object maps each uid to its summary, next to a "uids"
	// index entry; decode the entries individually.
	var body struct {
		Result map[string]json.RawMessage `json:"result"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("pubmed: decode esummary response: %w", err)
	}

	papers := make([]domain.Paper, 0, len(ids))
	for _, id := range ids {
		raw, ok := body.Result[id]
		if !ok {
			continue
		}
		var sum pubmedSummary
		if err := json.Unmarshal(raw, &sum); err != nil {
			continue
		}

		authors := make([]string, 0, len(sum.Authors))
		for _, a := range sum.Authors {
			authors = append(authors, a.Name)
		}

		papers = append(papers, domain.Paper{
			ID:      sum.UID,
			Title:   strings.TrimSuffix(sum.Title, "."),
			Authors: authors,
			Year:    pubdateYear(sum.PubDate),
			Source:  p.Name(),
			URL:     "https://pubmed.ncbi.nlm.nih.gov/" + sum.UID + "/",
		})
	}
	return papers, nil
}

// pubdateYear parses the year out of E-utilities pubdate strings like
// "2022 Mar 4" or "2021 Nov-Dec".
func pubdateYear(pubdate string) int {
	fields := strings.Fields(pubdate)
	if len(fields) == 0 {
		return 0
	}
	year, err := strconv.Atoi(fields[0])
	if err != nil {
		return 0
	}
	return year
}
