package audit

import (
	"crypto/sha256"
	"encoding/hex"
	"path"
	"testing"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"
)

// setupTestDB creates a temporary test database
func setupTestDB(t *testing.T) *sqlx.DB {
	dbPath := path.Join(t.TempDir(), "test_audit.db")
	db := sqlx.MustConnect("sqlite3", dbPath)
	t.Cleanup(func() {
		db.Close()
	})
	return db
}

func setupTestLogger(t *testing.T) (*Logger, *time.Time) {
	db := setupTestDB(t)
	logger, err := NewLogger(db)
	if err != nil {
		t.Fatalf("Failed to create logger: %v", err)
	}
	now := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	logger.now = func() time.Time { return now }
	return logger, &now
}

func TestDBInit(t *testing.T) {
	db := setupTestDB(t)
	if err := DBInit(db); err != nil {
		t.Fatalf("DBInit returned error: %v", err)
	}
	// Idempotent
	if err := DBInit(db); err != nil {
		t.Fatalf("second DBInit returned error: %v", err)
	}

	var tableName string
	err := db.Get(&tableName, "SELECT name FROM sqlite_master WHERE type='table' AND name='audit_events'")
	if err != nil {
		t.Fatalf("Table 'audit_events' does not exist: %v", err)
	}

	var count int
	err = db.Get(&count, "SELECT COUNT(*) FROM sqlite_master WHERE type='index' AND tbl_name='audit_events' AND name LIKE 'idx_%'")
	if err != nil {
		t.Fatalf("Failed to query indexes: %v", err)
	}
	if count != 3 {
		t.Errorf("Expected 3 indexes, got %d", count)
	}
}

func TestTokenFingerprint(t *testing.T) {
	testToken := "test-token-123"
	expected := sha256.Sum256([]byte(testToken))

	if got := tokenFingerprint(testToken); got != hex.EncodeToString(expected[:]) {
		t.Errorf("Expected fingerprint %x, got %s", expected, got)
	}
	if tokenFingerprint(testToken) == tokenFingerprint("different-token") {
		t.Error("Different tokens should produce different fingerprints")
	}
	if got := tokenFingerprint(""); got != "" {
		t.Errorf("Empty token should produce empty fingerprint, got %s", got)
	}
}

func TestLogLoginAndLogout(t *testing.T) {
	logger, _ := setupTestLogger(t)

	if err := logger.LogLogin("admin", "refresh-token-xyz"); err != nil {
		t.Fatalf("LogLogin failed: %v", err)
	}
	if err := logger.LogLogout("admin", "refresh-token-xyz"); err != nil {
		t.Fatalf("LogLogout failed: %v", err)
	}

	events, err := logger.GetEventsByUsername("admin", 10)
	if err != nil {
		t.Fatalf("GetEventsByUsername failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].EventType != string(EventLogout) || events[1].EventType != string(EventLogin) {
		t.Errorf("Expected logout then login, got %s then %s", events[0].EventType, events[1].EventType)
	}
	for _, event := range events {
		if event.RefreshTokenFingerprint != tokenFingerprint("refresh-token-xyz") {
			t.Errorf("Unexpected fingerprint %q", event.RefreshTokenFingerprint)
		}
		if event.Timestamp != time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC).Unix() {
			t.Errorf("Unexpected timestamp %d", event.Timestamp)
		}
	}
}

func TestLogDetails(t *testing.T) {
	logger, _ := setupTestLogger(t)

	if err := logger.LogLoginFailed("intrus"); err != nil {
		t.Fatalf("LogLoginFailed failed: %v", err)
	}
	if err := logger.LogAttendanceRecorded("admin", 42, "09:00", "2026-10-17"); err != nil {
		t.Fatalf("LogAttendanceRecorded failed: %v", err)
	}
	if err := logger.LogExport("admin", 7); err != nil {
		t.Fatalf("LogExport failed: %v", err)
	}

	tests := []struct {
		eventType EventType
		username  string
		detail    string
	}{
		{EventLoginFailed, "intrus", ""},
		{EventAttendanceRecorded, "admin", "id=42 slot=09:00 date=2026-10-17"},
		{EventExport, "admin", "rows=7"},
	}
	for _, tt := range tests {
		events, err := logger.GetEventsByType(tt.eventType, 10)
		if err != nil {
			t.Fatalf("GetEventsByType(%s) failed: %v", tt.eventType, err)
		}
		if len(events) != 1 {
			t.Fatalf("Expected 1 %s event, got %d", tt.eventType, len(events))
		}
		if events[0].Username != tt.username || events[0].Detail != tt.detail {
			t.Errorf("%s: got username %q detail %q", tt.eventType, events[0].Username, events[0].Detail)
		}
	}
}

func TestGetRecentEvents(t *testing.T) {
	logger, now := setupTestLogger(t)

	logger.LogLogin("a", "token1")
	*now = now.Add(time.Minute)
	logger.LogLogout("b", "token2")
	*now = now.Add(time.Minute)
	logger.LogLogin("c", "token3")

	events, err := logger.GetRecentEvents(2)
	if err != nil {
		t.Fatalf("GetRecentEvents failed: %v", err)
	}
	if len(events) != 2 {
		t.Fatalf("Expected 2 events, got %d", len(events))
	}
	if events[0].Username != "c" || events[1].Username != "b" {
		t.Errorf("Expected most recent first, got %s, %s", events[0].Username, events[1].Username)
	}

	fresh, _ := setupTestLogger(t)
	empty, err := fresh.GetRecentEvents(5)
	if err != nil {
		t.Fatalf("GetRecentEvents on empty table failed: %v", err)
	}
	if empty == nil || len(empty) != 0 {
		t.Errorf("Expected empty non-nil slice, got %v", empty)
	}
}

func TestDeleteOldEvents(t *testing.T) {
	logger, now := setupTestLogger(t)

	logger.LogLogin("ancien", "token1")
	logger.LogLogout("ancien", "token1")
	*now = now.Add(3 * time.Hour)
	logger.LogLogin("recent", "token2")

	deleted, err := logger.DeleteOldEvents(time.Hour)
	if err != nil {
		t.Fatalf("DeleteOldEvents failed: %v", err)
	}
	if deleted != 2 {
		t.Errorf("Expected 2 deleted events, got %d", deleted)
	}

	events, err := logger.GetRecentEvents(10)
	if err != nil {
		t.Fatalf("GetRecentEvents failed: %v", err)
	}
	if len(events) != 1 || events[0].Username != "recent" {
		t.Errorf("Expected only the recent event to remain, got %v", events)
	}
}
