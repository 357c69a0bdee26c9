package sessions

import (
	"crypto/rand"
	"encoding/base64"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// Session represents a logged-in operator. Sessions are stored in the
// database and referenced by their ID.
type Session struct {
	ID            string    `json:"id" db:"id"`
	Username      string    `json:"username" db:"username"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	LastRefreshed time.Time `json:"last_refreshed" db:"last_refreshed"` // Timestamp of the last refresh token issuance
	RefreshToken  string    `json:"refresh_token" db:"refresh_token"`
}

// NewSession creates a new session instance with a unique ID.
func NewSession(username string, now time.Time) (*Session, error) {
	refreshToken, err := generateRandomID(32)
	if err != nil {
		return nil, err
	}

	now = now.UTC()
	return &Session{
		ID:            uuid.New().String(),
		Username:      username,
		CreatedAt:     now,
		LastRefreshed: now,
		RefreshToken:  refreshToken,
	}, nil
}

// generateRandomID generates a cryptographically secure random string encoded in base64.
func generateRandomID(length int) (string, error) {
	if length <= 0 {
		length = 16
	}
	b := make([]byte, length)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return base64.RawURLEncoding.EncodeToString(b), nil
}

// --- Database Methods ---

func DBInit(db *sqlx.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		refresh_token TEXT NOT NULL UNIQUE,
		created_at TIMESTAMP NOT NULL,
		last_refreshed TIMESTAMP NOT NULL
	)
	`)
	return err
}

func DBGetSessionByID(db *sqlx.DB, id string) (*Session, error) {
	var s Session
	err := db.Get(&s, "SELECT id, username, refresh_token, created_at, last_refreshed FROM sessions WHERE id = $1", id)
	return &s, err
}

func DBGetSessionByRefreshToken(db *sqlx.DB, refreshToken string) (*Session, error) {
	var s Session
	err := db.Get(&s, "SELECT id, username, refresh_token, created_at, last_refreshed FROM sessions WHERE refresh_token = $1", refreshToken)
	return &s, err
}

func (s *Session) DBCreate(db *sqlx.DB) error {
	_, err := db.Exec("INSERT INTO sessions (id, username, refresh_token, created_at, last_refreshed) VALUES ($1, $2, $3, $4, $5)",
		s.ID, s.Username, s.RefreshToken, s.CreatedAt, s.LastRefreshed)
	return err
}

// DBUpdateRefreshToken rotates the refresh token and returns the new one.
func (s *Session) DBUpdateRefreshToken(db *sqlx.DB, now time.Time) (string, error) {
	refreshToken, err := generateRandomID(32)
	if err != nil {
		return "", err
	}
	s.RefreshToken = refreshToken
	s.LastRefreshed = now.UTC()
	_, err = db.Exec("UPDATE sessions SET refresh_token = $1, last_refreshed = $2 WHERE id = $3", s.RefreshToken, s.LastRefreshed, s.ID)
	return refreshToken, err
}

func (s *Session) DBDelete(db *sqlx.DB) error {
	_, err := db.Exec("DELETE FROM sessions WHERE id = $1", s.ID)
	return err
}

// DBDeleteExpiredSessions removes sessions not refreshed within expiry and
// returns how many were removed.
func DBDeleteExpiredSessions(db *sqlx.DB, sessionExpiry time.Duration, now time.Time) (int64, error) {
	result, err := db.Exec("DELETE FROM sessions WHERE last_refreshed < $1", now.UTC().Add(-sessionExpiry))
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
