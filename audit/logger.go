// Package audit records who logged in, who recorded attendance and who
// exported the log, in a table stored next to the attendance records.
package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// EventType represents the type of audit event
type EventType string

const (
	EventLogin              EventType = "login"
	EventLoginFailed        EventType = "login_failed"
	EventLogout             EventType = "logout"
	EventAttendanceRecorded EventType = "attendance_recorded"
	EventExport             EventType = "export"
)

// AuditEvent represents an audit log entry in the database
type AuditEvent struct {
	ID                      string `db:"id" json:"id"`
	EventType               string `db:"event_type" json:"event_type"`
	Timestamp               int64  `db:"timestamp" json:"timestamp"`
	Username                string `db:"username" json:"username"`
	Detail                  string `db:"detail" json:"detail,omitempty"`
	RefreshTokenFingerprint string `db:"refresh_token_fingerprint" json:"-"`
}

// Logger handles audit logging for operator actions
type Logger struct {
	db  *sqlx.DB
	now func() time.Time
}

// NewLogger creates a new audit logger instance
func NewLogger(db *sqlx.DB) (*Logger, error) {
	if err := DBInit(db); err != nil {
		return nil, err
	}
	return &Logger{
		db:  db,
		now: time.Now,
	}, nil
}

// DBInit initializes the audit events database table
func DBInit(db *sqlx.DB) error {
	_, err := db.Exec(`
	CREATE TABLE IF NOT EXISTS audit_events (
		id TEXT PRIMARY KEY,
		event_type TEXT NOT NULL,
		timestamp INTEGER NOT NULL,
		username TEXT NOT NULL DEFAULT '',
		detail TEXT NOT NULL DEFAULT '',
		refresh_token_fingerprint TEXT NOT NULL DEFAULT ''
	)
	`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_events_timestamp ON audit_events(timestamp)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_events_username ON audit_events(username)`)
	if err != nil {
		return err
	}

	_, err = db.Exec(`CREATE INDEX IF NOT EXISTS idx_audit_events_event_type ON audit_events(event_type)`)
	return err
}

// tokenFingerprint creates a SHA-256 hash of a token so sessions can be
// correlated without storing the token itself.
func tokenFingerprint(token string) string {
	if token == "" {
		return ""
	}
	hash := sha256.Sum256([]byte(token))
	return hex.EncodeToString(hash[:])
}

func (l *Logger) insertEvent(eventType EventType, username, detail, refreshToken string) error {
	event := &AuditEvent{
		ID:                      uuid.New().String(),
		EventType:               string(eventType),
		Timestamp:               l.now().UTC().Unix(),
		Username:                username,
		Detail:                  detail,
		RefreshTokenFingerprint: tokenFingerprint(refreshToken),
	}
	_, err := l.db.Exec(`
		INSERT INTO audit_events (
			id, event_type, timestamp, username, detail, refresh_token_fingerprint
		) VALUES ($1, $2, $3, $4, $5, $6)`,
		event.ID,
		event.EventType,
		event.Timestamp,
		event.Username,
		event.Detail,
		event.RefreshTokenFingerprint,
	)
	return err
}

func (l *Logger) LogLogin(username, refreshToken string) error {
	return l.insertEvent(EventLogin, username, "", refreshToken)
}

// LogLoginFailed records a rejected login attempt for username.
func (l *Logger) LogLoginFailed(username string) error {
	return l.insertEvent(EventLoginFailed, username, "", "")
}

func (l *Logger) LogLogout(username, refreshToken string) error {
	return l.insertEvent(EventLogout, username, "", refreshToken)
}

// LogAttendanceRecorded records who appended which attendance record.
func (l *Logger) LogAttendanceRecorded(username string, recordID int, slot, date string) error {
	return l.insertEvent(EventAttendanceRecorded, username, fmt.Sprintf("id=%d slot=%s date=%s", recordID, slot, date), "")
}

// LogExport records a CSV export and how many rows it contained.
func (l *Logger) LogExport(username string, rows int) error {
	return l.insertEvent(EventExport, username, fmt.Sprintf("rows=%d", rows), "")
}

// GetEventsByUsername retrieves audit events for a specific operator
func (l *Logger) GetEventsByUsername(username string, limit int) ([]AuditEvent, error) {
	events := []AuditEvent{}
	err := l.db.Select(&events,
		"SELECT id, event_type, timestamp, username, detail, refresh_token_fingerprint FROM audit_events WHERE username = $1 ORDER BY timestamp DESC, rowid DESC LIMIT $2",
		username, limit)
	return events, err
}

// GetEventsByType retrieves audit events of a specific type, newest first
func (l *Logger) GetEventsByType(eventType EventType, limit int) ([]AuditEvent, error) {
	events := []AuditEvent{}
	err := l.db.Select(&events,
		"SELECT id, event_type, timestamp, username, detail, refresh_token_fingerprint FROM audit_events WHERE event_type = $1 ORDER BY timestamp DESC, rowid DESC LIMIT $2",
		string(eventType), limit)
	return events, err
}

// GetRecentEvents retrieves the most recent audit events, newest first
func (l *Logger) GetRecentEvents(limit int) ([]AuditEvent, error) {
	events := []AuditEvent{}
	err := l.db.Select(&events,
		"SELECT id, event_type, timestamp, username, detail, refresh_token_fingerprint FROM audit_events ORDER BY timestamp DESC, rowid DESC LIMIT $1",
		limit)
	return events, err
}

// DeleteOldEvents deletes audit events older than the specified duration
func (l *Logger) DeleteOldEvents(olderThan time.Duration) (int64, error) {
	threshold := l.now().UTC().Add(-olderThan).Unix()
	result, err := l.db.Exec("DELETE FROM audit_events WHERE timestamp < $1", threshold)
	if err != nil {
		return 0, err
	}
	return result.RowsAffected()
}
