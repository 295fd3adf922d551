// Package store persists users, papers, collections, analyses, and research
// history in SQLite.
package store

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"
)

// Store wraps the SQLite database. All methods are safe for concurrent use.
type Store struct {
	db     *sql.DB
	mu     sync.RWMutex
	logger *logrus.Logger
}

// Open initializes the database at path, creating the file and schema when
// absent.
func Open(path string, logger *logrus.Logger) (*Store, error) {
	if logger == nil {
		logger = logrus.New()
	}

	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	for _, pragma := range []string{
		"PRAGMA busy_timeout = 5000",
		"PRAGMA journal_mode = WAL",
		"PRAGMA foreign_keys = ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			logger.WithError(err).WithField("pragma", pragma).Warn("sqlite pragma failed")
		}
	}

	s := &Store{db: db, logger: logger}
	if err := s.createTables(); err != nil {
		db.Close()
		return nil, err
	}

	logger.WithField("path", path).Info("store opened")
	return s, nil
}

func (s *Store) createTables() error {
	schema := []string{
		`CREATE TABLE IF NOT EXISTS users (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			username      TEXT UNIQUE NOT NULL,
			email         TEXT UNIQUE NOT NULL,
			password_hash TEXT NOT NULL,
			join_date     TIMESTAMP NOT NULL,
			last_login    TIMESTAMP,
			preferences   TEXT
		)`,
		`CREATE TABLE IF NOT EXISTS papers (
			id             INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id       TEXT UNIQUE NOT NULL,
			title          TEXT NOT NULL,
			authors        TEXT NOT NULL,
			year           INTEGER,
			source         TEXT,
			abstract       TEXT,
			citation_count INTEGER DEFAULT 0,
			url            TEXT,
			date_added     TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_papers (
			id         INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id    INTEGER NOT NULL,
			paper_id   INTEGER NOT NULL,
			date_saved TIMESTAMP NOT NULL,
			notes      TEXT,
			FOREIGN KEY (user_id)  REFERENCES users (id)  ON DELETE CASCADE,
			FOREIGN KEY (paper_id) REFERENCES papers (id) ON DELETE CASCADE,
			UNIQUE(user_id, paper_id)
		)`,
		`CREATE TABLE IF NOT EXISTS research_history (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			user_id       INTEGER NOT NULL,
			activity_type TEXT NOT NULL,
			title         TEXT NOT NULL,
			description   TEXT,
			date          TIMESTAMP NOT NULL,
			FOREIGN KEY (user_id) REFERENCES users (id) ON DELETE CASCADE
		)`,
		`CREATE TABLE IF NOT EXISTS paper_analysis (
			id            INTEGER PRIMARY KEY AUTOINCREMENT,
			paper_id      INTEGER UNIQUE NOT NULL,
			summary       TEXT,
			key_findings  TEXT,
			methodology   TEXT,
			implications  TEXT,
			date_analyzed TIMESTAMP NOT NULL,
			FOREIGN KEY (paper_id) REFERENCES papers (id) ON DELETE CASCADE
		)`,
	}

	for _, stmt := range schema {
		if _, err := s.db.Exec(stmt); err != nil {
			return fmt.Errorf("create tables: %w", err)
		}
	}
	return nil
}

// Close releases the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}
