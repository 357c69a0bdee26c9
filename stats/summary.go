package stats

import (
	"time"

	"github.com/ilylbgg/cdi-logger/attendance"
)

// Summary gathers everything the statistics screen shows for one window.
// Averages follow the window kind: the week view reports every canonical
// slot, day and month views only the slots that have data. Peak slots and the
// grade distribution are computed over the whole log.
type Summary struct {
	Window         WindowKind               `json:"window"`
	Reference      string                   `json:"reference"`
	Range          Range                    `json:"range"`
	Records        int                      `json:"records"`
	Total          int                      `json:"total"`
	AveragePerSlot map[string]float64       `json:"average_per_slot"`
	PeakSlots      []string                 `json:"peak_slots"`
	Distribution   map[attendance.Grade]int `json:"distribution"`
}

func (e *Engine) Summarize(records []attendance.Record, ref time.Time, kind WindowKind) Summary {
	window := WindowFor(ref, kind)

	inWindow := 0
	for _, rec := range records {
		if rec.Malformed() == "" && window.Contains(rec.Date) {
			inWindow++
		}
	}

	var averages map[string]float64
	if kind == Week {
		averages = e.AveragePerSlotWeek(records, ref)
	} else {
		averages = e.AveragePerSlot(records, InWindow(window))
	}

	return Summary{
		Window:         kind,
		Reference:      ref.Format(attendance.DateLayout),
		Range:          window,
		Records:        inWindow,
		Total:          e.TotalForWindow(records, ref, kind),
		AveragePerSlot: averages,
		PeakSlots:      e.PeakSlots(records),
		Distribution:   e.DistributionByGrade(records),
	}
}
