package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"gorm.io/gorm"
)

// ActivityRepository handles database operations for activities.
// Reads are served by the (target_type, target_id) index.
type ActivityRepository struct {
	db *gorm.DB
}

func NewActivityRepository(db *gorm.DB) *ActivityRepository {
	return &ActivityRepository{db: db}
}

func (r *ActivityRepository) Create(ctx context.Context, activity *domain.Activity) error {
	return r.db.WithContext(ctx).Create(activity).Error
}

// List returns activities newest first, optionally narrowed to one target
func (r *ActivityRepository) List(ctx context.Context, targetType *domain.ActivityTargetType, targetID *uuid.UUID, limit int) ([]domain.Activity, error) {
	var activities []domain.Activity

	query := r.db.WithContext(ctx).Model(&domain.Activity{})
	if targetType != nil {
		query = query.Where("target_type = ?", *targetType)
	}
	if targetID != nil {
		query = query.Where("target_id = ?", *targetID)
	}
	if limit > 0 {
		query = query.Limit(limit)
	}

	err := query.Order("occurred_at DESC").Find(&activities).Error
	return activities, err
}
