package repository

import (
	"context"

	"github.com/crmkit/lead-capture/internal/domain"
	"gorm.io/gorm"
)

type ActivityRepository interface {
	Create(ctx context.Context, a *domain.Activity) error
	ListByLeadID(ctx context.Context, leadID string) ([]domain.Activity, error)
}

type GormActivityRepo struct {
	db *gorm.DB
}

func NewGormActivityRepo(db *gorm.DB) *GormActivityRepo {
	return &GormActivityRepo{db: db}
}

func (r *GormActivityRepo) Create(ctx context.Context, a *domain.Activity) error {
	model := activityModelFromDomain(a)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if a != nil {
		*a = *activityModelToDomain(model)
	}
	return nil
}

func (r *GormActivityRepo) ListByLeadID(ctx context.Context, leadID string) ([]domain.Activity, error) {
	var models []ActivityModel
	err := r.db.WithContext(ctx).
		Where("lead_id = ?", leadID).
		Order("created_at DESC").
		Find(&models).Error
	if err != nil {
		return nil, err
	}

	activities := make([]domain.Activity, 0, len(models))
	for i := range models {
		activities = append(activities, *activityModelToDomain(&models[i]))
	}

	return activities, nil
}
