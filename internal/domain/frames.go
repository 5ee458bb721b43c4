package domain

import (
	"encoding/json"
	"time"
)

// BaseFrame is the base structure for all WebSocket frames; Type is the
// dispatch discriminator.
type BaseFrame struct {
	Type string `json:"type"`
}

// ChatFrame is the chat submission frame. Outbound delivery echoes the
// inbound frame with Timestamp filled in at persistence time.
type ChatFrame struct {
	Type      string `json:"type"`
	ID        string `json:"id"`
	Sender    int    `json:"sender"`
	Receiver  int    `json:"receiver"`
	Message   string `json:"message"`
	Timestamp string `json:"timestamp,omitempty"`
}

// NewChatFrame builds the outbound chat frame for a persisted message.
func NewChatFrame(msg *Message) *ChatFrame {
	return &ChatFrame{
		Type:      KindChatMessage,
		ID:        msg.ID,
		Sender:    msg.SenderTeam,
		Receiver:  msg.ReceiverTeam,
		Message:   msg.Body,
		Timestamp: msg.Timestamp.UTC().Format(time.RFC3339),
	}
}

// RequestFrame wraps an opaque domain payload under the new_request kind so
// receiving sessions can tell a wrapped request notice from a plain update.
type RequestFrame struct {
	Type    string          `json:"type"`
	Request json.RawMessage `json:"request"`
}

// ErrorFrame reports a synchronous submission failure back to the client.
type ErrorFrame struct {
	Type    string `json:"type"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest    = "BAD_REQUEST"
	ErrCodeNotFound      = "NOT_FOUND"
	ErrCodeInternalError = "INTERNAL_ERROR"
)

func NewErrorFrame(code, message string) *ErrorFrame {
	return &ErrorFrame{
		Type:    KindError,
		Code:    code,
		Message: message,
	}
}
