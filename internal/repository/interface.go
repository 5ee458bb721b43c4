package repository

import (
	"context"
	"errors"

	"github.com/eshen7/frc-marketplace/internal/domain"
)

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrUserNotFound    = errors.New("user not found")
)

// MessageRepository is the durable store for chat messages. CreateIfAbsent
// is the one transactional boundary delivery relies on for idempotence.
type MessageRepository interface {
	// CreateIfAbsent persists msg under its caller-supplied ID. If a row
	// with that ID already exists (including one created by a concurrent
	// submission), the existing row is returned with created=false and no
	// second row is written.
	CreateIfAbsent(ctx context.Context, msg *domain.Message) (*domain.Message, bool, error)

	// GetByID returns the message with the given ID or ErrMessageNotFound.
	GetByID(ctx context.Context, id string) (*domain.Message, error)

	// MarkRead flips the read flag. The only mutation messages ever see.
	MarkRead(ctx context.Context, id string) error
}

// UserRepository resolves team references to concrete marketplace users.
type UserRepository interface {
	GetByTeamNumber(ctx context.Context, teamNumber int) (*domain.User, error)
}
