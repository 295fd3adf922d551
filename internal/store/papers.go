package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"research-assistant/internal/domain"
)

// AddPaper inserts a paper and returns its row id. Papers are deduplicated
// by their source-native id: inserting an already-known paper returns the
// existing row id.
func (s *Store) AddPaper(p domain.Paper) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addPaperLocked(p)
}

func (s *Store) addPaperLocked(p domain.Paper) (int64, error) {
	paperID := p.ID
	if paperID == "" {
		// Match the original fallback key: source plus truncated title.
		title := p.Title
		if len(title) > 50 {
			title = title[:50]
		}
		paperID = p.Source + "_" + title
	}

	authors, err := json.Marshal(p.Authors)
	if err != nil {
		return 0, fmt.Errorf("encode authors: %w", err)
	}

	res, err := s.db.Exec(
		`INSERT INTO papers (paper_id, title, authors, year, source, abstract, citation_count, url, date_added)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		paperID, p.Title, string(authors), p.Year, p.Source, p.Abstract, p.CitationCount, p.URL, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			var id int64
			if err := s.db.QueryRow("SELECT id FROM papers WHERE paper_id = ?", paperID).Scan(&id); err != nil {
				return 0, fmt.Errorf("lookup existing paper: %w", err)
			}
			return id, nil
		}
		return 0, fmt.Errorf("add paper: %w", err)
	}
	return res.LastInsertId()
}

// PaperByRowID returns a paper by its database row id.
func (s *Store) PaperByRowID(id int64) (*domain.Paper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		"SELECT paper_id, title, authors, year, source, abstract, citation_count, url FROM papers WHERE id = ?",
		id,
	)

	var p domain.Paper
	var authors string
	err := row.Scan(&p.ID, &p.Title, &authors, &p.Year, &p.Source, &p.Abstract, &p.CitationCount, &p.URL)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan paper: %w", err)
	}
	if err := json.Unmarshal([]byte(authors), &p.Authors); err != nil {
		return nil, fmt.Errorf("decode authors: %w", err)
	}
	return &p, nil
}

// SavePaperForUser adds a paper to the user's collection. Saving the same
// paper twice is not an error.
func (s *Store) SavePaperForUser(userID int64, p domain.Paper) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	paperRowID, err := s.addPaperLocked(p)
	if err != nil {
		return err
	}

	_, err = s.db.Exec(
		"INSERT INTO user_papers (user_id, paper_id, date_saved) VALUES (?, ?, ?)",
		userID, paperRowID, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil
		}
		return fmt.Errorf("save paper for user: %w", err)
	}
	return nil
}

// SavedPapers returns the user's collection, most recently saved first.
func (s *Store) SavedPapers(userID int64) ([]domain.SavedPaper, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		`SELECT p.paper_id, p.title, p.authors, p.year, p.source, p.abstract, p.citation_count, p.url,
		        up.date_saved, COALESCE(up.notes, '')
		 FROM papers p
		 JOIN user_papers up ON p.id = up.paper_id
		 WHERE up.user_id = ?
		 ORDER BY up.date_saved DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("query saved papers: %w", err)
	}
	defer rows.Close()

	var papers []domain.SavedPaper
	for rows.Next() {
		var sp domain.SavedPaper
		var authors string
		if err := rows.Scan(
			&sp.ID, &sp.Title, &authors, &sp.Year, &sp.Source, &sp.Abstract,
			&sp.CitationCount, &sp.URL, &sp.DateSaved, &sp.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan saved paper: %w", err)
		}
		if err := json.Unmarshal([]byte(authors), &sp.Authors); err != nil {
			return nil, fmt.Errorf("decode authors: %w", err)
		}
		papers = append(papers, sp)
	}
	return papers, rows.Err()
}

// RemoveSavedPaper deletes a paper from the user's collection by its
// source-native id.
func (s *Store) RemoveSavedPaper(userID int64, paperID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(
		`DELETE FROM user_papers
		 WHERE user_id = ? AND paper_id = (SELECT id FROM papers WHERE paper_id = ?)`,
		userID, paperID,
	)
	if err != nil {
		return fmt.Errorf("remove saved paper: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}
