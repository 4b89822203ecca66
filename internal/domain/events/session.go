package events

import "github.com/brianly1003/glance/internal/session"

// Reasons attached to registry events.
const (
	ReasonStartup = "startup"
	ReasonReload  = "reload"
	ReasonWake    = "wake"
	ReasonExpired = "expired"
	ReasonDead    = "dead"
	ReasonExit    = "exit"
	ReasonSweep   = "sweep"
	ReasonVanish  = "vanished"
)

// SessionsChangedPayload is the payload for sessions_changed events.
// Sessions is a copy of the live set in display order.
type SessionsChangedPayload struct {
	Reason   string                `json:"reason"`
	Sessions []session.Record      `json:"sessions"`
	Counts   []session.StatusCount `json:"counts"`
	Headline session.Status        `json:"headline"`
}

// SessionRemovedPayload is the payload for session_removed events.
type SessionRemovedPayload struct {
	SessionID   string `json:"session_id"`
	DisplayName string `json:"display_name,omitempty"`
	PID         int    `json:"pid,omitempty"`
	Reason      string `json:"reason"`
}

// DescriptorSkippedPayload is the payload for descriptor_skipped events.
type DescriptorSkippedPayload struct {
	SessionID string `json:"session_id"`
	Kind      string `json:"kind"`
	Field     string `json:"field,omitempty"`
	Message   string `json:"message"`
}

// NewSessionsChangedEvent creates a new sessions_changed event.
func NewSessionsChangedEvent(reason string, sessions []session.Record, counts []session.StatusCount) *BaseEvent {
	return NewEvent(EventTypeSessionsChanged, SessionsChangedPayload{
		Reason:   reason,
		Sessions: sessions,
		Counts:   counts,
		Headline: session.Headline(counts),
	})
}

// NewSessionRemovedEvent creates a new session_removed event.
func NewSessionRemovedEvent(rec session.Record, reason string) *BaseEvent {
	return NewEventWithSession(EventTypeSessionRemoved, SessionRemovedPayload{
		SessionID:   rec.ID,
		DisplayName: rec.DisplayName(),
		PID:         rec.PID,
		Reason:      reason,
	}, rec.ID)
}

// NewDescriptorSkippedEvent creates a new descriptor_skipped event.
func NewDescriptorSkippedEvent(sessionID, kind, field, message string) *BaseEvent {
	return NewEventWithSession(EventTypeDescriptorSkipped, DescriptorSkippedPayload{
		SessionID: sessionID,
		Kind:      kind,
		Field:     field,
		Message:   message,
	}, sessionID)
}
