// Package events defines all event types used in glance.
package events

import (
	"encoding/json"
	"time"
)

// EventType represents the type of event.
type EventType string

const (
	// Registry events
	EventTypeSessionsChanged   EventType = "sessions_changed"
	EventTypeSessionRemoved    EventType = "session_removed"
	EventTypeDescriptorSkipped EventType = "descriptor_skipped"

	// System events
	EventTypeSystemWake EventType = "system_wake"
	EventTypeError      EventType = "error"
)

// Event is the base interface for all events.
type Event interface {
	// Type returns the event type.
	Type() EventType

	// Timestamp returns when the event occurred.
	Timestamp() time.Time

	// ToJSON serializes the event to JSON.
	ToJSON() ([]byte, error)

	// GetSessionID returns the session ID (may be empty).
	GetSessionID() string
}

// BaseEvent contains common fields for all events.
type BaseEvent struct {
	EventType EventType   `json:"event"`
	EventTime time.Time   `json:"timestamp"`
	SessionID string      `json:"session_id,omitempty"`
	Payload   interface{} `json:"payload"`
}

// GetSessionID returns the session ID.
func (e *BaseEvent) GetSessionID() string {
	return e.SessionID
}

// Type returns the event type.
func (e *BaseEvent) Type() EventType {
	return e.EventType
}

// Timestamp returns when the event occurred.
func (e *BaseEvent) Timestamp() time.Time {
	return e.EventTime
}

// ToJSON serializes the event to JSON.
func (e *BaseEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// NewEvent creates a new base event with the given type and payload.
func NewEvent(eventType EventType, payload interface{}) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		Payload:   payload,
	}
}

// NewEventWithSession creates a new event scoped to one session.
func NewEventWithSession(eventType EventType, payload interface{}, sessionID string) *BaseEvent {
	return &BaseEvent{
		EventType: eventType,
		EventTime: time.Now().UTC(),
		SessionID: sessionID,
		Payload:   payload,
	}
}

// --- System Event Payloads ---

// SystemWakePayload is the payload for system_wake events.
type SystemWakePayload struct {
	Source string `json:"source"` // login1, clock_jump, signal
}

// NewSystemWakeEvent creates a new system_wake event.
func NewSystemWakeEvent(source string) *BaseEvent {
	return NewEvent(EventTypeSystemWake, SystemWakePayload{Source: source})
}

// ErrorPayload is the payload for error events.
type ErrorPayload struct {
	Code    string                 `json:"code"`
	Message string                 `json:"message"`
	Details map[string]interface{} `json:"details,omitempty"`
}

// NewErrorEvent creates a new error event.
func NewErrorEvent(code, message string, details map[string]interface{}) *BaseEvent {
	return NewEvent(EventTypeError, ErrorPayload{
		Code:    code,
		Message: message,
		Details: details,
	})
}
