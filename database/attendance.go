package database

import (
	"github.com/ilylbgg/cdi-logger/attendance"
)

const insertAttendanceSql = `
INSERT INTO attendance (slot, grade6, grade5, grade4, grade3, total, date)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id;
`

const selectAttendanceSql = `
SELECT id, slot, grade6, grade5, grade4, grade3, total, date
FROM attendance
ORDER BY id;
`

const getLatestAttendanceIdSql = `
SELECT COALESCE(MAX(id), 0) FROM attendance;
`

// Append validates the entry, derives its total and stores it as a new row.
// It returns the id assigned by the store. Invalid entries fail with
// attendance.ErrInvalidRecord and are not written.
func (s *Store) Append(entry attendance.Entry) (int, error) {
	rec, err := attendance.NewRecord(s.validate, entry, s.slots)
	if err != nil {
		return 0, err
	}

	var id int
	err = s.db.QueryRowx(insertAttendanceSql,
		rec.Slot, rec.Grade6, rec.Grade5, rec.Grade4, rec.Grade3, rec.Total, rec.Date,
	).Scan(&id)
	if err != nil {
		return 0, &StorageError{Op: "append", Path: s.path, Err: err}
	}

	s.logger.Info("recorded attendance",
		"id", id,
		"date", rec.Date,
		"slot", rec.Slot,
		"grade6", rec.Grade6,
		"grade5", rec.Grade5,
		"grade4", rec.Grade4,
		"grade3", rec.Grade3,
		"total", rec.Total,
	)
	return id, nil
}

// ReadAll returns every stored record in insertion order.
func (s *Store) ReadAll() ([]attendance.Record, error) {
	records := []attendance.Record{}
	if err := s.db.Select(&records, selectAttendanceSql); err != nil {
		return nil, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	return records, nil
}

// LatestID is the highest id assigned so far, or 0 for an empty log.
func (s *Store) LatestID() (int, error) {
	var id int
	if err := s.db.Get(&id, getLatestAttendanceIdSql); err != nil {
		return 0, &StorageError{Op: "read", Path: s.path, Err: err}
	}
	return id, nil
}
