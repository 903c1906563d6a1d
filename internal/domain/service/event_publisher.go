package service

import (
	"context"
)

// EmailEventType identifies the kind of outbound email requested.
type EmailEventType string

// EmailEventVerification asks the mail worker to send an address verification link.
const EmailEventVerification EmailEventType = "email.verification"

// EmailEvent is an outbound email request consumed by the mail worker.
type EmailEvent struct {
	RequestID string         `json:"request_id,omitempty"` // For distributed tracing
	EventID   string         `json:"event_id"`
	Type      EmailEventType `json:"type"`
	UserID    string         `json:"user_id"`
	From      string         `json:"from,omitempty"`
	To        string         `json:"to"`
	Subject   string         `json:"subject"`
	HTMLBody  string         `json:"html_body"`
	Link      string         `json:"link,omitempty"`
}

// EventPublisher defines the interface for publishing events to a message queue
type EventPublisher interface {
	// PublishEmailEvent publishes an email request for async delivery
	PublishEmailEvent(ctx context.Context, event *EmailEvent) error

	// Close releases any resources held by the publisher
	Close() error
}
