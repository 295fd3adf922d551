package store

import (
	"fmt"
	"time"

	"research-assistant/internal/domain"
)

// AddActivity appends an item to the user's research history.
func (s *Store) AddActivity(userID int64, activityType, title, description string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO research_history (user_id, activity_type, title, description, date) VALUES (?, ?, ?, ?, ?)",
		userID, activityType, title, description, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("add activity: %w", err)
	}
	return nil
}

// History returns the user's most recent activities, newest first.
func (s *Store) History(userID int64, limit int) ([]domain.Activity, error) {
	if limit <= 0 {
		limit = 50
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(
		"SELECT activity_type, title, COALESCE(description, ''), date FROM research_history WHERE user_id = ? ORDER BY date DESC, id DESC LIMIT ?",
		userID, limit,
	)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	var items []domain.Activity
	for rows.Next() {
		var a domain.Activity
		if err := rows.Scan(&a.Type, &a.Title, &a.Description, &a.Date); err != nil {
			return nil, fmt.Errorf("scan activity: %w", err)
		}
		items = append(items, a)
	}
	return items, rows.Err()
}
