package events

import (
	"encoding/json"
	"time"

	"github.com/ilylbgg/cdi-logger/attendance"
)

type Event interface {
	GetId() int
	GetType() string
	SetId(id int)
}

type GenericEvent struct {
	// The id assigned by the store once the event has been applied
	Id int `json:"id"`
	// The event type
	Type string `json:"type"`
	// When the front-end emitted the event
	Timestamp time.Time `json:"timestamp"`
}

func (e GenericEvent) GetId() int {
	return e.Id
}

func (e *GenericEvent) SetId(id int) {
	e.Id = id
}

func (e *GenericEvent) GetType() string {
	return e.Type
}

func (e *GenericEvent) GetTimestamp() time.Time {
	return e.Timestamp
}

const AttendanceRecordedEventType = "attendance:RECORD"

// AttendanceRecordedEvent logs one slot observation.
type AttendanceRecordedEvent struct {
	GenericEvent
	attendance.Entry
}

// A function which takes a JSON message and returns a type-specific Event
// instance, or an error for types it does not know.
type MapEventType func(message *json.RawMessage, generic *GenericEvent) (Event, error)
