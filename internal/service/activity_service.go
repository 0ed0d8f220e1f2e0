package service

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
)

const maxActivityListSize = 200

// ActivityService keeps the per-record history of what happened
type ActivityService struct {
	activityRepo *repository.ActivityRepository
	logger       *zap.Logger
}

// NewActivityService creates a new ActivityService instance
func NewActivityService(activityRepo *repository.ActivityRepository, logger *zap.Logger) *ActivityService {
	return &ActivityService{
		activityRepo: activityRepo,
		logger:       logger,
	}
}

// Record appends an activity for the target. Failures are logged, not returned,
// because the change being described has already been committed.
func (s *ActivityService) Record(ctx context.Context, targetType domain.ActivityTargetType, targetID uuid.UUID, title, body string) {
	activity := &domain.Activity{
		TargetType:  targetType,
		TargetID:    targetID,
		Title:       title,
		Body:        body,
		OccurredAt:  time.Now().UTC(),
		CreatorName: callerName(ctx),
	}
	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("Failed to record activity",
			zap.String("target_type", string(targetType)),
			zap.String("target_id", targetID.String()),
			zap.String("title", title),
			zap.Error(err),
		)
	}
}

// List returns the most recent activities, optionally for a single target
func (s *ActivityService) List(ctx context.Context, targetType *domain.ActivityTargetType, targetID *uuid.UUID, limit int) ([]domain.ActivityDTO, error) {
	if targetType != nil && !targetType.IsValid() {
		return nil, NewValidationError("targetType", "must be one of Account, Contact, Opportunity, Lead")
	}
	if limit <= 0 || limit > maxActivityListSize {
		limit = maxActivityListSize
	}

	activities, err := s.activityRepo.List(ctx, targetType, targetID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list activities: %w", err)
	}

	dtos := make([]domain.ActivityDTO, len(activities))
	for i := range activities {
		dtos[i] = mapper.ToActivityDTO(&activities[i])
	}
	return dtos, nil
}
