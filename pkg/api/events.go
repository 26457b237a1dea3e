package api

import "github.com/google/uuid"

// Event is a unit of input delivered to a machine instance. Events are
// immutable once created; identity is the ID.
//
// Payload values cross the persistence boundary, so custom payload types
// must be registered with encoding/gob when a durable adapter is in use.
type Event struct {
	ID      string
	Type    string
	Payload any
}

// NewEvent returns an Event of the given type with a fresh unique ID.
func NewEvent(eventType string, payload any) Event {
	return Event{
		ID:      uuid.NewString(),
		Type:    eventType,
		Payload: payload,
	}
}
