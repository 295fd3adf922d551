package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"research-assistant/internal/domain"
)

// SaveAnalysis stores the analysis for a paper row, replacing any earlier
// analysis of the same paper.
func (s *Store) SaveAnalysis(paperRowID int64, a domain.Analysis) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	findings, err := json.Marshal(a.KeyFindings)
	if err != nil {
		return fmt.Errorf("encode key findings: %w", err)
	}
	methodology, err := json.Marshal(a.Methodology)
	if err != nil {
		return fmt.Errorf("encode methodology: %w", err)
	}
	implications, err := json.Marshal(a.Implications)
	if err != nil {
		return fmt.Errorf("encode implications: %w", err)
	}

	_, err = s.db.Exec(
		`INSERT INTO paper_analysis (paper_id, summary, key_findings, methodology, implications, date_analyzed)
		 VALUES (?, ?, ?, ?, ?, ?)
		 ON CONFLICT(paper_id) DO UPDATE SET
		   summary = excluded.summary,
		   key_findings = excluded.key_findings,
		   methodology = excluded.methodology,
		   implications = excluded.implications,
		   date_analyzed = excluded.date_analyzed`,
		paperRowID, a.Summary, string(findings), string(methodology), string(implications), time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("save analysis: %w", err)
	}
	return nil
}

// AnalysisByPaper returns the stored analysis for a paper row, or
// ErrNotFound when the paper has not been analyzed.
func (s *Store) AnalysisByPaper(paperRowID int64) (*domain.Analysis, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		"SELECT summary, key_findings, methodology, implications FROM paper_analysis WHERE paper_id = ?",
		paperRowID,
	)

	var a domain.Analysis
	var findings, methodology, implications string
	err := row.Scan(&a.Summary, &findings, &methodology, &implications)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan analysis: %w", err)
	}

	if err := json.Unmarshal([]byte(findings), &a.KeyFindings); err != nil {
		return nil, fmt.Errorf("decode key findings: %w", err)
	}
	if err := json.Unmarshal([]byte(methodology), &a.Methodology); err != nil {
		return nil, fmt.Errorf("decode methodology: %w", err)
	}
	if err := json.Unmarshal([]byte(implications), &a.Implications); err != nil {
		return nil, fmt.Errorf("decode implications: %w", err)
	}
	return &a, nil
}
