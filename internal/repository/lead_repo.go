package repository

import (
	"context"
	"errors"
	"time"

	"github.com/crmkit/lead-capture/internal/domain"
	"gorm.io/gorm"
)

type ListParams struct {
	Status   *domain.Status
	Source   *string
	From     *time.Time
	To       *time.Time
	Page     int
	PageSize int
}

type LeadRepository interface {
	Create(ctx context.Context, l *domain.Lead) error
	GetByID(ctx context.Context, id string) (*domain.Lead, error)
	List(ctx context.Context, params ListParams) ([]domain.Lead, int64, error)
	CreatedAfter(ctx context.Context, after time.Time, limit int) ([]domain.Lead, error)
	LatestCreatedAt(ctx context.Context) (time.Time, error)
}

type GormLeadRepo struct {
	db *gorm.DB
}

func NewGormLeadRepo(db *gorm.DB) *GormLeadRepo {
	return &GormLeadRepo{db: db}
}

func (r *GormLeadRepo) Create(ctx context.Context, l *domain.Lead) error {
	model := leadModelFromDomain(l)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if l != nil {
		*l = *leadModelToDomain(model)
	}
	return nil
}

func (r *GormLeadRepo) GetByID(ctx context.Context, id string) (*domain.Lead, error) {
	var model LeadModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return leadModelToDomain(&model), nil
}

func (r *GormLeadRepo) List(ctx context.Context, params ListParams) ([]domain.Lead, int64, error) {
	query := r.db.WithContext(ctx).Model(&LeadModel{})

	if params.Status != nil {
		query = query.Where("status = ?", *params.Status)
	}
	if params.Source != nil {
		query = query.Where("source = ?", *params.Source)
	}
	if params.From != nil {
		query = query.Where("created_at >= ?", *params.From)
	}
	if params.To != nil {
		query = query.Where("created_at <= ?", *params.To)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []LeadModel
	err := query.
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	leads := make([]domain.Lead, 0, len(models))
	for i := range models {
		leads = append(leads, *leadModelToDomain(&models[i]))
	}

	return leads, total, nil
}

// CreatedAfter returns leads strictly newer than the given timestamp in
// ascending creation order. The poller depends on the strict inequality
// and the ordering to advance its watermark safely.
func (r *GormLeadRepo) CreatedAfter(ctx context.Context, after time.Time, limit int) ([]domain.Lead, error) {
	query := r.db.WithContext(ctx).
		Where("created_at > ?", after).
		Order("created_at ASC")
	if limit > 0 {
		query = query.Limit(limit)
	}

	var models []LeadModel
	if err := query.Find(&models).Error; err != nil {
		return nil, err
	}

	leads := make([]domain.Lead, 0, len(models))
	for i := range models {
		leads = append(leads, *leadModelToDomain(&models[i]))
	}

	return leads, nil
}

func (r *GormLeadRepo) LatestCreatedAt(ctx context.Context) (time.Time, error) {
	var model LeadModel
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return time.Time{}, domain.ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	return model.CreatedAt, nil
}
