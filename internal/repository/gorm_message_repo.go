package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/eshen7/frc-marketplace/internal/domain"
)

// GormMessageRepository implements MessageRepository using GORM.
type GormMessageRepository struct {
	db *gorm.DB
}

// NewGormMessageRepository creates a new GORM-based message repository.
func NewGormMessageRepository(db *gorm.DB) *GormMessageRepository {
	return &GormMessageRepository{db: db}
}

// CreateIfAbsent inserts the message with ON CONFLICT DO NOTHING so a
// duplicate or racing submission never errors and never writes a second
// row. The row read back afterwards is the authoritative record either way.
func (r *GormMessageRepository) CreateIfAbsent(ctx context.Context, msg *domain.Message) (*domain.Message, bool, error) {
	model := domain.MessageToModel(msg)

	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(model)
	if result.Error != nil {
		return nil, false, result.Error
	}

	created := result.RowsAffected > 0
	if created {
		return model.ToDomain(), true, nil
	}

	existing, err := r.GetByID(ctx, msg.ID)
	if err != nil {
		return nil, false, err
	}
	return existing, false, nil
}

// GetByID retrieves a message by its idempotency key.
func (r *GormMessageRepository) GetByID(ctx context.Context, id string) (*domain.Message, error) {
	var model domain.MessageModel
	result := r.db.WithContext(ctx).First(&model, "id = ?", id)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrMessageNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}

// MarkRead flips the read flag on a message.
func (r *GormMessageRepository) MarkRead(ctx context.Context, id string) error {
	result := r.db.WithContext(ctx).Model(&domain.MessageModel{}).
		Where("id = ?", id).
		Update("is_read", true)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return ErrMessageNotFound
	}
	return nil
}
