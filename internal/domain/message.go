package domain

import (
	"time"
)

// Message is a persisted chat message between two teams. The ID is the
// caller-supplied idempotency key, never server-generated, so retried
// submissions collapse onto one row.
type Message struct {
	ID           string
	SenderTeam   int
	ReceiverTeam int
	Body         string
	Timestamp    time.Time
	IsRead       bool
}

// MessageModel is the GORM model for the messages table.
type MessageModel struct {
	ID           string    `gorm:"type:varchar(64);primaryKey"`
	SenderTeam   int       `gorm:"index;not null"`
	ReceiverTeam int       `gorm:"index;not null"`
	Body         string    `gorm:"type:text;not null"`
	Timestamp    time.Time `gorm:"autoCreateTime"`
	IsRead       bool      `gorm:"default:false"`
}

// TableName specifies the table name for MessageModel.
func (MessageModel) TableName() string {
	return "messages"
}

// ToDomain converts MessageModel to domain Message.
func (m *MessageModel) ToDomain() *Message {
	return &Message{
		ID:           m.ID,
		SenderTeam:   m.SenderTeam,
		ReceiverTeam: m.ReceiverTeam,
		Body:         m.Body,
		Timestamp:    m.Timestamp,
		IsRead:       m.IsRead,
	}
}

// MessageToModel converts domain Message to MessageModel.
func MessageToModel(msg *Message) *MessageModel {
	return &MessageModel{
		ID:           msg.ID,
		SenderTeam:   msg.SenderTeam,
		ReceiverTeam: msg.ReceiverTeam,
		Body:         msg.Body,
		Timestamp:    msg.Timestamp,
		IsRead:       msg.IsRead,
	}
}
