package service

import (
	"context"
)

// ActivityEvent represents a content change published for async processing
// by background workers.
type ActivityEvent struct {
	RequestID  string `json:"request_id,omitempty"` // For distributed tracing
	Type       string `json:"type"`                 // e.g. "memory.created", "note.appended"
	PatientUID string `json:"patient_uid"`
	DocumentID string `json:"document_id"`
	ActorUID   string `json:"actor_uid,omitempty"`
	OccurredAt int64  `json:"occurred_at"` // unix milliseconds
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishActivityEvent publishes an activity event for async processing
	PublishActivityEvent(ctx context.Context, event *ActivityEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
