package notify

import (
	"context"
	"encoding/json"
)

// Notification kinds.
const (
	KindChatEmail = "chat_email"
)

// Job is one queued notification. Payload is opaque to the queue; the
// downstream consumer interprets it per kind.
type Job struct {
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// ChatEmailPayload carries what the offline-notification consumer needs to
// compose the email.
type ChatEmailPayload struct {
	ToEmail      string `json:"to_email"`
	SenderTeam   int    `json:"sender_team"`
	ReceiverTeam int    `json:"receiver_team"`
	MessageID    string `json:"message_id"`
	Body         string `json:"body"`
}

// Dispatcher accepts fire-and-forget notification jobs. Enqueue never
// blocks and never surfaces an error to the caller: a full queue drops the
// job with a log entry, nothing more.
type Dispatcher interface {
	Enqueue(kind string, payload interface{})
	Close() error
}

// Sender delivers one job to the external side channel. Implementations
// are retried by the queue workers.
type Sender interface {
	Send(ctx context.Context, job *Job) error
	Close() error
}
