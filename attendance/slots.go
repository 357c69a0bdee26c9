package attendance

import (
	"fmt"
	"slices"
	"time"
)

// Default opening hours: one slot per hour from 08:00 to 17:00, minus the
// lunch break and the closing hour.
const (
	DefaultFirstHour = 8
	DefaultLastHour  = 17
)

var DefaultBreaks = []int{12, 17}

// SlotSet is the ordered canonical set of slot labels.
type SlotSet struct {
	labels []string
}

// NewSlotSet builds the labels "HH:00" for every hour in [first, last] that
// is not a break.
func NewSlotSet(first, last int, breaks []int) (SlotSet, error) {
	if first < 0 || last > 23 || first > last {
		return SlotSet{}, fmt.Errorf("invalid slot hours %d..%d", first, last)
	}
	var labels []string
	for h := first; h <= last; h++ {
		if slices.Contains(breaks, h) {
			continue
		}
		labels = append(labels, SlotLabel(h))
	}
	if len(labels) == 0 {
		return SlotSet{}, fmt.Errorf("no slots left between %d and %d", first, last)
	}
	return SlotSet{labels: labels}, nil
}

// DefaultSlotSet is 08:00..16:00 without 12:00.
func DefaultSlotSet() SlotSet {
	s, _ := NewSlotSet(DefaultFirstHour, DefaultLastHour, DefaultBreaks)
	return s
}

func (s SlotSet) Labels() []string {
	return slices.Clone(s.labels)
}

func (s SlotSet) Len() int {
	return len(s.labels)
}

func (s SlotSet) Contains(label string) bool {
	return slices.Contains(s.labels, label)
}

// SlotLabel formats an hour as a slot label.
func SlotLabel(hour int) string {
	return fmt.Sprintf("%02d:00", hour)
}

// RoundToSlot floors a timestamp to the label of the hour it falls in.
func RoundToSlot(t time.Time) string {
	return SlotLabel(t.Hour())
}
