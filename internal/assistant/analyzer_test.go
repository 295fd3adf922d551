package assistant

import (
	"context"
	"errors"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"research-assistant/internal/domain"
	"research-assistant/internal/store"
)

type memStore struct {
	papers   map[string]int64
	analyses map[int64]domain.Analysis
	saves    int
}

func newMemStore() *memStore {
	return &memStore{
		papers:   make(map[string]int64),
		analyses: make(map[int64]domain.Analysis),
	}
}

func (m *memStore) AddPaper(p domain.Paper) (int64, error) {
	if id, ok := m.papers[p.ID]; ok {
		return id, nil
	}
	id := int64(len(m.papers) + 1)
	m.papers[p.ID] = id
	return id, nil
}

func (m *memStore) AnalysisByPaper(paperRowID int64) (*domain.Analysis, error) {
	a, ok := m.analyses[paperRowID]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (m *memStore) SaveAnalysis(paperRowID int64, a domain.Analysis) error {
	m.analyses[paperRowID] = a
	m.saves++
	return nil
}

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(logrus.PanicLevel)
	return logger
}

func samplePaper() domain.Paper {
	return domain.Paper{
		ID:       "sem1",
		Title:    "Attention Is All You Need",
		Authors:  []string{"Ashish Vaswani", "Noam Shazeer", "Niki Parmar", "Jakob Uszkoreit"},
		Year:     2017,
		Abstract: "We propose the Transformer.",
		Source:   "Semantic Scholar",
	}
}

const validAnalysisJSON = `{
	"summary": "The paper introduces the Transformer architecture.",
	"key_findings": [{"title": "Attention suffices", "description": "Recurrence is unnecessary."}],
	"methodology": {"description": "Architecture design and benchmark evaluation.", "steps": []},
	"implications": {"description": "Reshapes sequence modeling.", "research_gaps": [], "future_directions": ["Apply to other modalities"]}
}`

func TestAnalyzer(t *testing.T) {
	t.Run("uses llm output when parseable", func(t *testing.T) {
		st := newMemStore()
		a, err := NewAnalyzer(MockLLM{Response: validAnalysisJSON}, st, testLogger())
		require.NoError(t, err)

		analysis, err := a.Analyze(context.Background(), samplePaper())
		require.NoError(t, err)
		assert.Equal(t, "The paper introduces the Transformer architecture.", analysis.Summary)
		assert.Equal(t, 1, st.saves)
	})

	t.Run("second analyze returns stored result", func(t *testing.T) {
		st := newMemStore()
		a, err := NewAnalyzer(MockLLM{Response: validAnalysisJSON}, st, testLogger())
		require.NoError(t, err)

		_, err = a.Analyze(context.Background(), samplePaper())
		require.NoError(t, err)
		_, err = a.Analyze(context.Background(), samplePaper())
		require.NoError(t, err)

		assert.Equal(t, 1, st.saves, "analysis must be computed once")
	})

	t.Run("falls back to template on llm error", func(t *testing.T) {
		st := newMemStore()
		a, err := NewAnalyzer(MockLLM{Err: errors.New("rate limited")}, st, testLogger())
		require.NoError(t, err)

		analysis, err := a.Analyze(context.Background(), samplePaper())
		require.NoError(t, err)
		assert.Contains(t, analysis.Summary, "Ashish Vaswani")
		assert.Len(t, analysis.KeyFindings, 3)
	})

	t.Run("falls back to template on garbage output", func(t *testing.T) {
		st := newMemStore()
		a, err := NewAnalyzer(MockLLM{Response: "I cannot do that."}, st, testLogger())
		require.NoError(t, err)

		analysis, err := a.Analyze(context.Background(), samplePaper())
		require.NoError(t, err)
		assert.NotEmpty(t, analysis.Summary)
		assert.Len(t, analysis.Methodology.Steps, 3)
	})

	t.Run("nil llm uses template", func(t *testing.T) {
		a, err := NewAnalyzer(nil, newMemStore(), testLogger())
		require.NoError(t, err)

		analysis, err := a.Analyze(context.Background(), samplePaper())
		require.NoError(t, err)
		assert.Contains(t, analysis.Summary, "attention is all you need")
	})

	t.Run("title required", func(t *testing.T) {
		a, err := NewAnalyzer(nil, newMemStore(), testLogger())
		require.NoError(t, err)

		_, err = a.Analyze(context.Background(), domain.Paper{ID: "x"})
		assert.Error(t, err)
	})

	t.Run("nil store rejected", func(t *testing.T) {
		_, err := NewAnalyzer(nil, nil, testLogger())
		assert.Error(t, err)
	})
}

func TestParseAnalysis(t *testing.T) {
	t.Run("plain json", func(t *testing.T) {
		a, err := parseAnalysis(validAnalysisJSON)
		require.NoError(t, err)
		assert.Len(t, a.KeyFindings, 1)
	})

	t.Run("fenced json with prose", func(t *testing.T) {
		raw := "Here is the analysis:\n```json\n" + validAnalysisJSON + "\n```\nHope this helps!"
		a, err := parseAnalysis(raw)
		require.NoError(t, err)
		assert.Equal(t, "The paper introduces the Transformer architecture.", a.Summary)
	})

	t.Run("empty output", func(t *testing.T) {
		_, err := parseAnalysis("   ")
		assert.Error(t, err)
	})

	t.Run("missing summary", func(t *testing.T) {
		_, err := parseAnalysis(`{"key_findings": []}`)
		assert.Error(t, err)
	})
}

func TestFallbackAnalysisTruncatesByline(t *testing.T) {
	analysis := fallbackAnalysis(samplePaper())
	assert.Contains(t, analysis.Summary, "Niki Parmar")
	assert.NotContains(t, analysis.Summary, "Jakob Uszkoreit")
}
