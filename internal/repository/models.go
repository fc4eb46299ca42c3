package repository

import (
	"time"

	"github.com/crmkit/lead-capture/internal/domain"
)

// LeadModel is the persistence model for the leads table.
type LeadModel struct {
	ID         string        `gorm:"type:uuid;primaryKey"`
	FullName   string        `gorm:"type:varchar(255);not null"`
	Email      *string       `gorm:"type:varchar(255)"`
	Phone      *string       `gorm:"type:varchar(50)"`
	Services   *string       `gorm:"type:text"`
	Notes      *string       `gorm:"type:text"`
	Source     string        `gorm:"type:varchar(50);not null"`
	Status     domain.Status `gorm:"type:varchar(20);not null"`
	UserIP     *string       `gorm:"type:varchar(64)"`
	Tag        *string       `gorm:"type:varchar(50)"`
	Score      *int          `gorm:"type:int"`
	AssignedTo *string       `gorm:"type:uuid"`
	CreatedBy  *string       `gorm:"type:uuid"`
	CreatedAt  time.Time
	UpdatedAt  time.Time
}

func (LeadModel) TableName() string {
	return "leads"
}

// ActivityModel is the persistence model for the activities table.
type ActivityModel struct {
	ID        string  `gorm:"type:uuid;primaryKey"`
	LeadID    string  `gorm:"type:uuid;not null"`
	Type      string  `gorm:"type:varchar(50);not null"`
	Notes     string  `gorm:"type:text;not null"`
	CreatedBy *string `gorm:"type:uuid"`
	CreatedAt time.Time
}

func (ActivityModel) TableName() string {
	return "activities"
}

func leadModelFromDomain(l *domain.Lead) *LeadModel {
	if l == nil {
		return nil
	}

	return &LeadModel{
		ID:         l.ID,
		FullName:   l.FullName,
		Email:      l.Email,
		Phone:      l.Phone,
		Services:   l.Services,
		Notes:      l.Notes,
		Source:     l.Source,
		Status:     l.Status,
		UserIP:     l.UserIP,
		Tag:        l.Tag,
		Score:      l.Score,
		AssignedTo: l.AssignedTo,
		CreatedBy:  l.CreatedBy,
		CreatedAt:  l.CreatedAt,
		UpdatedAt:  l.UpdatedAt,
	}
}

func leadModelToDomain(m *LeadModel) *domain.Lead {
	if m == nil {
		return nil
	}

	return &domain.Lead{
		ID:         m.ID,
		FullName:   m.FullName,
		Email:      m.Email,
		Phone:      m.Phone,
		Services:   m.Services,
		Notes:      m.Notes,
		Source:     m.Source,
		Status:     m.Status,
		UserIP:     m.UserIP,
		Tag:        m.Tag,
		Score:      m.Score,
		AssignedTo: m.AssignedTo,
		CreatedBy:  m.CreatedBy,
		CreatedAt:  m.CreatedAt,
		UpdatedAt:  m.UpdatedAt,
	}
}

func activityModelFromDomain(a *domain.Activity) *ActivityModel {
	if a == nil {
		return nil
	}

	return &ActivityModel{
		ID:        a.ID,
		LeadID:    a.LeadID,
		Type:      a.Type,
		Notes:     a.Notes,
		CreatedBy: a.CreatedBy,
		CreatedAt: a.CreatedAt,
	}
}

func activityModelToDomain(m *ActivityModel) *domain.Activity {
	if m == nil {
		return nil
	}

	return &domain.Activity{
		ID:        m.ID,
		LeadID:    m.LeadID,
		Type:      m.Type,
		Notes:     m.Notes,
		CreatedBy: m.CreatedBy,
		CreatedAt: m.CreatedAt,
	}
}
