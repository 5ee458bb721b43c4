package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/eshen7/frc-marketplace/internal/domain"
)

// GormUserRepository implements UserRepository using GORM. User rows are
// written by the marketplace CRUD side; delivery only reads them.
type GormUserRepository struct {
	db *gorm.DB
}

// NewGormUserRepository creates a new GORM-based user repository.
func NewGormUserRepository(db *gorm.DB) *GormUserRepository {
	return &GormUserRepository{db: db}
}

// GetByTeamNumber resolves a team number to its user record.
func (r *GormUserRepository) GetByTeamNumber(ctx context.Context, teamNumber int) (*domain.User, error) {
	var model domain.UserModel
	result := r.db.WithContext(ctx).First(&model, "team_number = ?", teamNumber)
	if result.Error != nil {
		if errors.Is(result.Error, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, result.Error
	}
	return model.ToDomain(), nil
}
