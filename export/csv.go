// Package export writes the attendance log in formats meant for a
// spreadsheet.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"

	"github.com/ilylbgg/cdi-logger/attendance"
)

// Header is the first row written by WriteCSV.
var Header = []string{"id", "slot", "grade6", "grade5", "grade4", "grade3", "total", "date"}

// WriteCSV writes a header row followed by one row per record, in the order
// given.
func WriteCSV(w io.Writer, records []attendance.Record) error {
	writer := csv.NewWriter(w)
	if err := writer.Write(Header); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}

	for _, rec := range records {
		row := []string{
			strconv.Itoa(rec.ID),
			rec.Slot,
			strconv.Itoa(rec.Grade6),
			strconv.Itoa(rec.Grade5),
			strconv.Itoa(rec.Grade4),
			strconv.Itoa(rec.Grade3),
			strconv.Itoa(rec.Total),
			rec.Date,
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("failed to write record %d: %w", rec.ID, err)
		}
	}

	writer.Flush()
	return writer.Error()
}
