// Package attendance defines the attendance observations logged at the CDI:
// one record per (date, slot) observation with a visitor count for each of
// the four grade levels.
package attendance

import (
	"errors"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
)

// DateLayout is the ISO 8601 calendar date format used for Record.Date.
// Lexicographic order on strings in this layout is chronological order.
const DateLayout = "2006-01-02"

var ErrInvalidRecord = errors.New("invalid attendance record")

// ValidationError describes why an Entry was rejected.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid attendance record: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidRecord
}

// Record is a stored, immutable attendance observation.
type Record struct {
	ID     int    `db:"id" json:"id"`
	Slot   string `db:"slot" json:"slot"`
	Grade6 int    `db:"grade6" json:"grade6"`
	Grade5 int    `db:"grade5" json:"grade5"`
	Grade4 int    `db:"grade4" json:"grade4"`
	Grade3 int    `db:"grade3" json:"grade3"`
	Total  int    `db:"total" json:"total"`
	Date   string `db:"date" json:"date"`
}

// Entry is what the operator logs: everything but the id and the total,
// which are owned by the store and derived from the counts respectively.
type Entry struct {
	Slot   string `json:"slot" validate:"required"`
	Date   string `json:"date" validate:"required,datetime=2006-01-02"`
	Grade6 int    `json:"grade6" validate:"gte=0"`
	Grade5 int    `json:"grade5" validate:"gte=0"`
	Grade4 int    `json:"grade4" validate:"gte=0"`
	Grade3 int    `json:"grade3" validate:"gte=0"`
}

// Count returns the number of visitors of the given grade.
func (r Record) Count(g Grade) int {
	switch g {
	case Grade6:
		return r.Grade6
	case Grade5:
		return r.Grade5
	case Grade4:
		return r.Grade4
	case Grade3:
		return r.Grade3
	}
	return 0
}

// Day parses the record date.
func (r Record) Day() (time.Time, error) {
	return time.Parse(DateLayout, r.Date)
}

// Malformed reports why a stored row cannot take part in aggregation, or ""
// when it is usable. Rows written through NewRecord are never malformed; the
// check exists for rows inserted by older versions or by hand.
func (r Record) Malformed() string {
	if r.Slot == "" {
		return "empty slot"
	}
	if _, err := r.Day(); err != nil {
		return fmt.Sprintf("unparseable date %q", r.Date)
	}
	for _, g := range Grades {
		if r.Count(g) < 0 {
			return fmt.Sprintf("negative count for grade %s", g)
		}
	}
	if r.Total < 0 {
		return "negative total"
	}
	return ""
}

// NewRecord validates an entry against the canonical slots and derives the
// record to be stored. The total is always computed here; callers cannot
// supply one.
func NewRecord(v *validator.Validate, entry Entry, slots SlotSet) (Record, error) {
	if err := v.Struct(entry); err != nil {
		var verrs validator.ValidationErrors
		if errors.As(err, &verrs) && len(verrs) > 0 {
			return Record{}, &ValidationError{
				Field:  verrs[0].Field(),
				Reason: "failed " + verrs[0].Tag(),
			}
		}
		return Record{}, fmt.Errorf("%w: %v", ErrInvalidRecord, err)
	}
	if !slots.Contains(entry.Slot) {
		return Record{}, &ValidationError{
			Field:  "Slot",
			Reason: fmt.Sprintf("%q is not one of %v", entry.Slot, slots.Labels()),
		}
	}
	return Record{
		Slot:   entry.Slot,
		Grade6: entry.Grade6,
		Grade5: entry.Grade5,
		Grade4: entry.Grade4,
		Grade3: entry.Grade3,
		Total:  entry.Grade6 + entry.Grade5 + entry.Grade4 + entry.Grade3,
		Date:   entry.Date,
	}, nil
}

// NewValidator returns the validator used for entries and request bodies.
func NewValidator() *validator.Validate {
	return validator.New(validator.WithRequiredStructEnabled())
}
