package domain

import (
	"encoding/json"
	"fmt"
)

// Event kinds carried over the broker. The set is closed; sessions ignore
// inbound frames with types outside it to tolerate protocol evolution.
const (
	KindChatMessage      = "chat_message"
	KindNewRequest       = "new_request"
	KindEventUpdate      = "event_update"
	KindRequestFulfilled = "request_fulfilled"
	KindRequestReturned  = "request_returned"
	KindPing             = "ping"
	KindPong             = "pong"
	KindError            = "error"
)

// Event is the transient envelope published to broker groups. Payload is
// the exact frame forwarded to clients; it is constructed once and consumed
// by every subscribed session.
type Event struct {
	ID      string          `json:"id"`
	Kind    string          `json:"kind"`
	Payload json.RawMessage `json:"payload"`
}

// NewEvent marshals v into an event payload.
func NewEvent(id, kind string, v interface{}) (*Event, error) {
	payload, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal event payload: %w", err)
	}
	return &Event{ID: id, Kind: kind, Payload: payload}, nil
}

// UserGroup returns the personal group name for a team, e.g. "user_100".
func UserGroup(teamNumber int) string {
	return fmt.Sprintf("user_%d", teamNumber)
}

// EventGroup returns the broadcast room group name for a competition key,
// e.g. "event_2025flor".
func EventGroup(eventKey string) string {
	return fmt.Sprintf("event_%s", eventKey)
}
