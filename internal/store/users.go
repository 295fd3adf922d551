package store

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"research-assistant/internal/domain"
)

var (
	// ErrUserExists is returned when a username or email is already taken.
	ErrUserExists = errors.New("username or email already exists")
	// ErrNotFound is returned when a row does not exist.
	ErrNotFound = errors.New("not found")
)

// UserRecord is a user row including the password hash. It stays inside the
// store/profile boundary; handlers see domain.User.
type UserRecord struct {
	domain.User
	PasswordHash string
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// CreateUser inserts a new user and returns the stored record.
func (s *Store) CreateUser(username, email, passwordHash string) (*UserRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec(
		"INSERT INTO users (username, email, password_hash, join_date) VALUES (?, ?, ?, ?)",
		username, email, passwordHash, time.Now().UTC(),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return s.userByUsernameLocked(username)
}

// UserByUsername returns the user with the given username.
func (s *Store) UserByUsername(username string) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userByUsernameLocked(username)
}

func (s *Store) userByUsernameLocked(username string) (*UserRecord, error) {
	row := s.db.QueryRow(
		"SELECT id, username, email, password_hash, join_date, last_login FROM users WHERE username = ?",
		username,
	)
	return scanUser(row)
}

// UserByID returns the user with the given row id.
func (s *Store) UserByID(id int64) (*UserRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	row := s.db.QueryRow(
		"SELECT id, username, email, password_hash, join_date, last_login FROM users WHERE id = ?",
		id,
	)
	return scanUser(row)
}

func scanUser(row *sql.Row) (*UserRecord, error) {
	var u UserRecord
	var lastLogin sql.NullTime
	err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.JoinDate, &lastLogin)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("scan user: %w", err)
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		u.LastLogin = &t
	}
	return &u, nil
}

// UpdateUser applies the given column updates. Only email, password_hash,
// and preferences are updatable.
func (s *Store) UpdateUser(id int64, updates map[string]string) error {
	if len(updates) == 0 {
		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var setClauses []string
	var args []any
	for _, col := range []string{"email", "password_hash", "preferences"} {
		if v, ok := updates[col]; ok {
			setClauses = append(setClauses, col+" = ?")
			args = append(args, v)
		}
	}
	if len(setClauses) == 0 {
		return nil
	}
	args = append(args, id)

	res, err := s.db.Exec(
		"UPDATE users SET "+strings.Join(setClauses, ", ")+" WHERE id = ?",
		args...,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUserExists
		}
		return fmt.Errorf("update user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

// TouchLastLogin records a successful login.
func (s *Store) TouchLastLogin(id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	_, err := s.db.Exec("UPDATE users SET last_login = ? WHERE id = ?", time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("touch last login: %w", err)
	}
	return nil
}
