// Package sources retrieves research papers from academic APIs and merges
// the results.
package sources

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"research-assistant/internal/domain"
)

// Sort orders accepted by Query.SortBy.
const (
	SortRelevance = "relevance"
	SortDate      = "date"
	SortCitations = "citation_count"
)

// Query describes one paper search.
type Query struct {
	Text       string
	Source     string // empty for all enabled sources
	YearFrom   int
	YearTo     int
	SortBy     string
	MaxResults int
}

// Key is the cache key for this query.
func (q Query) Key() string {
	source := q.Source
	if source == "" {
		source = "all"
	}
	source = strings.ReplaceAll(strings.ToLower(source), " ", "_")
	return fmt.Sprintf("%s_%s_%d_%d_%s", q.Text, source, q.YearFrom, q.YearTo, q.SortBy)
}

// Source is a single academic paper backend.
type Source interface {
	Name() string
	Search(ctx context.Context, q Query) ([]domain.Paper, error)
}

// Aggregator fans a query out to all enabled sources, merges the results,
// and caches them. A failing source is logged and skipped; the remaining
// sources still answer.
type Aggregator struct {
	sources []Source
	cache   *Cache
	logger  *logrus.Logger
}

// NewAggregator builds an aggregator over the given sources. cache may be
// nil to disable caching.
func NewAggregator(sources []Source, cache *Cache, logger *logrus.Logger) *Aggregator {
	if logger == nil {
		logger = logrus.New()
	}
	return &Aggregator{sources: sources, cache: cache, logger: logger}
}

// Search runs the query against the matching sources.
func (a *Aggregator) Search(ctx context.Context, q Query) ([]domain.Paper, error) {
	if strings.TrimSpace(q.Text) == "" {
		return nil, fmt.Errorf("search query is required")
	}
	if q.MaxResults <= 0 {
		q.MaxResults = 50
	}
	if q.SortBy == "" {
		q.SortBy = SortRelevance
	}

	if a.cache != nil {
		if papers, ok := a.cache.Get(q.Key()); ok {
			return papers, nil
		}
	}

	targets := a.matchSources(q.Source)
	if len(targets) == 0 {
		// "Google Scholar" lands here: the original accepted it as an
		// option but had no API to call.
		return []domain.Paper{}, nil
	}

	var mu sync.Mutex
	merged := make([]domain.Paper, 0, q.MaxResults)

	g, gctx := errgroup.WithContext(ctx)
	for _, src := range targets {
		src := src
		g.Go(func() error {
			papers, err := src.Search(gctx, q)
			if err != nil {
				a.logger.WithError(err).WithField("source", src.Name()).Warn("source search failed")
				return nil
			}
			mu.Lock()
			merged = append(merged, papers...)
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	merged = filterByYear(merged, q.YearFrom, q.YearTo)
	sortPapers(merged, q.SortBy)
	if len(merged) > q.MaxResults {
		merged = merged[:q.MaxResults]
	}

	if a.cache != nil {
		a.cache.Set(q.Key(), merged)
	}
	return merged, nil
}

func (a *Aggregator) matchSources(name string) []Source {
	if name == "" || strings.EqualFold(name, "all sources") {
		return a.sources
	}
	want := strings.ReplaceAll(strings.ToLower(name), " ", "_")
	for _, src := range a.sources {
		if strings.ReplaceAll(strings.ToLower(src.Name()), " ", "_") == want {
			return []Source{src}
		}
	}
	return nil
}

func filterByYear(papers []domain.Paper, from, to int) []domain.Paper {
	if from == 0 && to == 0 {
		return papers
	}
	out := papers[:0]
	for _, p := range papers {
		if p.Year == 0 {
			out = append(out, p)
			continue
		}
		if from > 0 && p.Year < from {
			continue
		}
		if to > 0 && p.Year > to {
			continue
		}
		out = append(out, p)
	}
	return out
}

// sortPapers orders the merged result set. Relevance keeps the order the
// sources returned, as the original did.
func sortPapers(papers []domain.Paper, sortBy string) {
	switch sortBy {
	case SortDate:
		sort.SliceStable(papers, func(i, j int) bool { return papers[i].Year > papers[j].Year })
	case SortCitations:
		sort.SliceStable(papers, func(i, j int) bool { return papers[i].CitationCount > papers[j].CitationCount })
	}
}
