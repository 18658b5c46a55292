package business

import (
	"context"

	"github.com/rohanmehta-dev/vaanijya-backend/pkg/db/models"
	"gorm.io/gorm"
)

// Repository is the persistence surface for business profiles.
type Repository interface {
	GetByUserID(ctx context.Context, userID string) (*models.BusinessProfile, error)
	Create(ctx context.Context, profile *models.BusinessProfile) error
	UpdateFields(ctx context.Context, profileID string, fields map[string]any) error

	WithTx(tx *gorm.DB) Repository
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds the GORM-backed repository.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	return &repository{db: tx}
}

func (r *repository) GetByUserID(ctx context.Context, userID string) (*models.BusinessProfile, error) {
	var profile models.BusinessProfile
	if err := r.db.WithContext(ctx).First(&profile, "user_id = ?", userID).Error; err != nil {
		return nil, err
	}
	return &profile, nil
}

func (r *repository) Create(ctx context.Context, profile *models.BusinessProfile) error {
	return r.db.WithContext(ctx).Create(profile).Error
}

func (r *repository) UpdateFields(ctx context.Context, profileID string, fields map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.BusinessProfile{}).
		Where("id = ?", profileID).
		Updates(fields).Error
}
