// Package stats reduces the attendance log to the figures shown on the
// statistics screen. Every call works on the full snapshot passed in; nothing
// is cached between calls.
package stats

import (
	"log/slog"
	"maps"
	"slices"
	"time"

	"github.com/ilylbgg/cdi-logger/attendance"
)

// Predicate selects the records an average is computed over.
type Predicate func(attendance.Record) bool

// All selects every record.
func All(attendance.Record) bool {
	return true
}

// InWindow selects the records dated within r.
func InWindow(r Range) Predicate {
	return func(rec attendance.Record) bool {
		return r.Contains(rec.Date)
	}
}

// Engine holds the configuration the reductions need: the canonical slots
// for the week chart axis and a logger for rows that have to be skipped.
type Engine struct {
	slots  attendance.SlotSet
	logger *slog.Logger
}

func NewEngine(slots attendance.SlotSet, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	return &Engine{slots: slots, logger: logger}
}

// usable drops rows that cannot be aggregated, logging each one. Totals are
// trusted as stored.
func (e *Engine) usable(records []attendance.Record) []attendance.Record {
	out := make([]attendance.Record, 0, len(records))
	for _, rec := range records {
		if reason := rec.Malformed(); reason != "" {
			e.logger.Warn("skipping malformed attendance row", "id", rec.ID, "reason", reason)
			continue
		}
		out = append(out, rec)
	}
	return out
}

// TotalForWindow sums the totals of the records inside the window of the
// given kind around ref.
func (e *Engine) TotalForWindow(records []attendance.Record, ref time.Time, kind WindowKind) int {
	window := WindowFor(ref, kind)
	total := 0
	for _, rec := range e.usable(records) {
		if window.Contains(rec.Date) {
			total += rec.Total
		}
	}
	return total
}

// AveragePerSlot is the mean total per slot over the selected records. Slots
// without any selected record are left out.
func (e *Engine) AveragePerSlot(records []attendance.Record, pred Predicate) map[string]float64 {
	sums := make(map[string]int)
	counts := make(map[string]int)
	for _, rec := range e.usable(records) {
		if !pred(rec) {
			continue
		}
		sums[rec.Slot] += rec.Total
		counts[rec.Slot]++
	}

	averages := make(map[string]float64, len(sums))
	for slot, sum := range sums {
		averages[slot] = float64(sum) / float64(counts[slot])
	}
	return averages
}

// AveragePerSlotWeek is the week-scoped average: exactly one entry per
// canonical slot, zero where the week has no record for it.
func (e *Engine) AveragePerSlotWeek(records []attendance.Record, ref time.Time) map[string]float64 {
	observed := e.AveragePerSlot(records, InWindow(WindowFor(ref, Week)))

	averages := make(map[string]float64, e.slots.Len())
	for _, slot := range e.slots.Labels() {
		averages[slot] = observed[slot]
	}
	return averages
}

// PeakSlots returns every slot whose all-time summed total is the maximum,
// in slot order. It is empty when there are no records.
func (e *Engine) PeakSlots(records []attendance.Record) []string {
	sums := make(map[string]int)
	for _, rec := range e.usable(records) {
		sums[rec.Slot] += rec.Total
	}
	if len(sums) == 0 {
		return []string{}
	}

	best := slices.Max(slices.Collect(maps.Values(sums)))
	peaks := []string{}
	for slot, sum := range sums {
		if sum == best {
			peaks = append(peaks, slot)
		}
	}
	slices.Sort(peaks)
	return peaks
}

// DistributionByGrade sums each grade's count over all records.
func (e *Engine) DistributionByGrade(records []attendance.Record) map[attendance.Grade]int {
	dist := make(map[attendance.Grade]int, len(attendance.Grades))
	for _, g := range attendance.Grades {
		dist[g] = 0
	}
	for _, rec := range e.usable(records) {
		for _, g := range attendance.Grades {
			dist[g] += rec.Count(g)
		}
	}
	return dist
}
