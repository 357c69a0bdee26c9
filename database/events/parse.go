package events

import (
	"encoding/json"
	"errors"
	"fmt"
)

var ErrUnknownEventType = errors.New("unknown event type")

func ParseEvent(body []byte, mapper MapEventType) (Event, error) {
	var event json.RawMessage
	err := json.Unmarshal(body, &event)
	if err != nil {
		return nil, err
	}

	var generic GenericEvent
	err = json.Unmarshal(event, &generic)
	if err != nil {
		return nil, err
	}

	return mapper(&event, &generic)
}

// MapAttendanceEventType maps incoming JSON to attendance event types.
func MapAttendanceEventType(rawMessage *json.RawMessage, generic *GenericEvent) (Event, error) {
	switch generic.GetType() {
	case AttendanceRecordedEventType:
		var specificEvent AttendanceRecordedEvent
		if err := json.Unmarshal(*rawMessage, &specificEvent); err != nil {
			return nil, fmt.Errorf("failed to unmarshal AttendanceRecordedEvent: %w", err)
		}
		specificEvent.GenericEvent = *generic
		return &specificEvent, nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEventType, generic.GetType())
	}
}
