// Package profile manages user accounts, saved-paper collections, and
// research history on top of the store.
package profile

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"research-assistant/internal/domain"
	"research-assistant/internal/store"
)

var (
	// ErrInvalidCredentials is returned for a bad username or password.
	ErrInvalidCredentials = errors.New("invalid username or password")
	// ErrUserExists is returned when a username or email is taken.
	ErrUserExists = store.ErrUserExists
)

// Demo account seeded at startup so the service is usable out of the box.
const (
	demoUsername = "demo_user"
	demoEmail    = "demo@example.com"
	demoPassword = "password123"
)

// Manager handles account operations.
type Manager struct {
	store  *store.Store
	logger *logrus.Logger
}

// NewManager builds a manager and ensures the demo user exists.
func NewManager(st *store.Store, logger *logrus.Logger) (*Manager, error) {
	if st == nil {
		return nil, errors.New("store is required")
	}
	if logger == nil {
		logger = logrus.New()
	}

	m := &Manager{store: st, logger: logger}
	if err := m.ensureDemoUser(); err != nil {
		return nil, err
	}
	return m, nil
}

func (m *Manager) ensureDemoUser() error {
	_, err := m.store.UserByUsername(demoUsername)
	if err == nil {
		return nil
	}
	if !errors.Is(err, store.ErrNotFound) {
		return err
	}
	if _, err := m.store.CreateUser(demoUsername, demoEmail, hashPassword(demoPassword)); err != nil {
		return fmt.Errorf("seed demo user: %w", err)
	}
	m.logger.WithField("username", demoUsername).Info("seeded demo user")
	return nil
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Register creates a new account and returns its profile.
func (m *Manager) Register(username, email, password string) (*domain.User, error) {
	username = strings.TrimSpace(username)
	email = strings.TrimSpace(email)
	if username == "" || email == "" || password == "" {
		return nil, errors.New("username, email, and password are required")
	}

	rec, err := m.store.CreateUser(username, email, hashPassword(password))
	if err != nil {
		return nil, err
	}
	m.logger.WithField("username", username).Info("user registered")

	user := rec.User
	return &user, nil
}

// Authenticate checks the credentials and records the login.
func (m *Manager) Authenticate(username, password string) (*domain.User, error) {
	rec, err := m.store.UserByUsername(username)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if rec.PasswordHash != hashPassword(password) {
		return nil, ErrInvalidCredentials
	}

	if err := m.store.TouchLastLogin(rec.ID); err != nil {
		m.logger.WithError(err).WithField("username", username).Warn("failed to record login time")
	}

	user := rec.User
	return &user, nil
}

// ProfileUpdates are the fields a user may change.
type ProfileUpdates struct {
	Email    string
	Password string
}

// UpdateProfile applies the given updates.
func (m *Manager) UpdateProfile(userID int64, updates ProfileUpdates) error {
	cols := make(map[string]string)
	if updates.Email != "" {
		cols["email"] = strings.TrimSpace(updates.Email)
	}
	if updates.Password != "" {
		cols["password_hash"] = hashPassword(updates.Password)
	}
	if len(cols) == 0 {
		return nil
	}
	return m.store.UpdateUser(userID, cols)
}

// Profile returns the user's profile.
func (m *Manager) Profile(userID int64) (*domain.User, error) {
	rec, err := m.store.UserByID(userID)
	if err != nil {
		return nil, err
	}
	user := rec.User
	return &user, nil
}

// SavePaper adds a paper to the user's collection.
func (m *Manager) SavePaper(userID int64, paper domain.Paper) error {
	return m.store.SavePaperForUser(userID, paper)
}

// SavedPapers lists the user's collection, newest first.
func (m *Manager) SavedPapers(userID int64) ([]domain.SavedPaper, error) {
	return m.store.SavedPapers(userID)
}

// RemovePaper drops a paper from the user's collection.
func (m *Manager) RemovePaper(userID int64, paperID string) error {
	return m.store.RemoveSavedPaper(userID, paperID)
}

// RecordActivity appends a research-history entry.
func (m *Manager) RecordActivity(userID int64, activityType, title, description string) {
	if err := m.store.AddActivity(userID, activityType, title, description); err != nil {
		m.logger.WithError(err).WithFields(logrus.Fields{
			"user_id": userID,
			"type":    activityType,
		}).Warn("failed to record activity")
	}
}

// History returns the user's recent activity, newest first.
func (m *Manager) History(userID int64, limit int) ([]domain.Activity, error) {
	return m.store.History(userID, limit)
}
