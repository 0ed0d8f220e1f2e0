// Package events publishes domain events for downstream consumers.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Routing keys for published events
const (
	LeadConverted  = "lead.converted"
	AccountCreated = "account.created"
)

// Event is the envelope written to the broker
type Event struct {
	ID         uuid.UUID   `json:"id"`
	Type       string      `json:"type"`
	OccurredAt time.Time   `json:"occurredAt"`
	Actor      string      `json:"actor,omitempty"`
	Payload    interface{} `json:"payload"`
}

// NewEvent builds an event envelope with a fresh ID
func NewEvent(eventType, actor string, payload interface{}) Event {
	return Event{
		ID:         uuid.New(),
		Type:       eventType,
		OccurredAt: time.Now().UTC(),
		Actor:      actor,
		Payload:    payload,
	}
}

// LeadConvertedPayload describes a completed lead conversion
type LeadConvertedPayload struct {
	LeadID             uuid.UUID  `json:"leadId"`
	AccountID          uuid.UUID  `json:"accountId"`
	ContactID          uuid.UUID  `json:"contactId"`
	OpportunityID      *uuid.UUID `json:"opportunityId,omitempty"`
	AccountCreated     bool       `json:"accountCreated"`
	ContactCreated     bool       `json:"contactCreated"`
	OpportunityCreated bool       `json:"opportunityCreated"`
	ConvertedStatus    string     `json:"convertedStatus"`
}

// AccountCreatedPayload describes a newly created account
type AccountCreatedPayload struct {
	AccountID uuid.UUID `json:"accountId"`
	Name      string    `json:"name"`
	Owner     string    `json:"owner"`
	// Reconciled is true when the account was created by name reconciliation
	Reconciled bool `json:"reconciled"`
}

// Publisher sends events to a broker
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// NoopPublisher discards every event
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }

func (NoopPublisher) Close() error { return nil }
