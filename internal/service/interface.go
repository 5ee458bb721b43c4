package service

import (
	"context"
	"encoding/json"

	"github.com/eshen7/frc-marketplace/internal/domain"
)

// ChatSubmission is one inbound chat message submission. ID is the
// client's idempotency key.
type ChatSubmission struct {
	ID           string
	SenderTeam   int
	ReceiverTeam int
	Body         string
}

// DomainEventSubmission is a marketplace state change (new part request,
// fulfillment, return, event update) to broadcast. The record itself is
// persisted by the CRUD side; ID is that record's own identifier, reused so
// sessions subscribed by more than one path dedup to a single delivery.
type DomainEventSubmission struct {
	Kind          string
	ID            string
	SubmitterTeam int
	// BroadcastKey, when set, additionally routes the event to the
	// competition's broadcast room.
	BroadcastKey string
	// Envelope is the original submitted frame, passed through unmodified
	// to personal-group subscribers.
	Envelope json.RawMessage
}

// DeliveryService implements the write-then-broadcast protocol: a
// submission is durably recorded before any client sees it, then fanned
// out best-effort. Broadcast failures never fail a completed write.
type DeliveryService interface {
	// SubmitChat validates, persists and fans out one chat message.
	// Returns the persisted record and whether this call created it; a
	// resubmission under an existing ID returns the prior record with
	// created=false and performs no write, publish or notification.
	SubmitChat(ctx context.Context, sub ChatSubmission) (*domain.Message, bool, error)

	// BroadcastDomainEvent publishes a domain event to the submitter's
	// personal group and, if a broadcast key is present, to the room group.
	BroadcastDomainEvent(ctx context.Context, sub DomainEventSubmission) error
}
