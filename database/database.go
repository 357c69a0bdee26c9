package database

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3"

	"github.com/ilylbgg/cdi-logger/attendance"
)

const attendanceSchema = `
CREATE TABLE IF NOT EXISTS attendance (
	id INTEGER PRIMARY KEY AUTOINCREMENT NOT NULL,
	slot TEXT NOT NULL,
	grade6 INTEGER NOT NULL CHECK (grade6 >= 0),
	grade5 INTEGER NOT NULL CHECK (grade5 >= 0),
	grade4 INTEGER NOT NULL CHECK (grade4 >= 0),
	grade3 INTEGER NOT NULL CHECK (grade3 >= 0),
	total INTEGER NOT NULL CHECK (total >= 0),
	date TEXT NOT NULL
);
`

const attendanceDateIndex = `
CREATE INDEX IF NOT EXISTS idx_attendance_date ON attendance(date);
`

// Options configure a Store. Now defaults to time.Now and Logger to
// slog.Default().
type Options struct {
	Dir    string
	Base   string
	Slots  attendance.SlotSet
	Now    func() time.Time
	Logger *slog.Logger
}

// Store is the append-only attendance log.
type Store struct {
	db       *sqlx.DB
	path     string
	slots    attendance.SlotSet
	validate *validator.Validate
	logger   *slog.Logger
}

// Open resolves the database file from the options, creating the directory
// and an empty file when needed, and connects to it. Call Initialize before
// use.
func Open(opts Options) (*Store, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	slots := opts.Slots
	if slots.Len() == 0 {
		slots = attendance.DefaultSlotSet()
	}

	path, err := ResolvePath(opts.Dir, opts.Base, now())
	if err != nil {
		return nil, err
	}
	if err := ensureFile(path); err != nil {
		return nil, err
	}

	db, err := sqlx.Connect("sqlite3", path+"?_busy_timeout=5000")
	if err != nil {
		return nil, &StorageError{Op: "open", Path: path, Err: err}
	}
	logger.Info("opened attendance database", "path", path)

	return &Store{
		db:       db,
		path:     path,
		slots:    slots,
		validate: attendance.NewValidator(),
		logger:   logger,
	}, nil
}

// Initialize creates the attendance table if it does not exist. It is safe
// to call on every start and never touches existing rows.
func (s *Store) Initialize() error {
	tx, err := s.db.Beginx()
	if err != nil {
		return &StorageError{Op: "initialize", Path: s.path, Err: err}
	}
	defer tx.Rollback()

	for _, stmt := range []string{attendanceSchema, attendanceDateIndex} {
		if _, err := tx.Exec(stmt); err != nil {
			return &StorageError{Op: "initialize", Path: s.path, Err: err}
		}
	}

	if err := tx.Commit(); err != nil {
		return &StorageError{Op: "initialize", Path: s.path, Err: fmt.Errorf("commit: %w", err)}
	}
	return nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Path is the resolved database file.
func (s *Store) Path() string {
	return s.path
}

func (s *Store) Slots() attendance.SlotSet {
	return s.slots
}

func (s *Store) GetDB() *sqlx.DB {
	return s.db
}
