// Package database owns the single-file SQLite store holding the attendance
// log. The log is append-only: rows are inserted once, assigned an id from
// SQLite's AUTOINCREMENT sequence, and never updated or deleted. Reads always
// return the complete set; aggregation happens elsewhere.
package database
