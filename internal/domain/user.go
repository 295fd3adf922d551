package domain

import "time"

// User is an account profile. Password hashes stay inside the store layer
// and never appear on this type.
type User struct {
	ID        int64      `json:"id"`
	Username  string     `json:"username"`
	Email     string     `json:"email"`
	JoinDate  time.Time  `json:"join_date"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// Activity types recorded in a user's research history.
const (
	ActivitySearch   = "search"
	ActivityAnalysis = "analysis"
	ActivityChat     = "chat"
)

// Activity is one entry in a user's research history.
type Activity struct {
	Type        string    `json:"type"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	Date        time.Time `json:"date"`
}
