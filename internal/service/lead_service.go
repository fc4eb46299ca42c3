package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/crmkit/lead-capture/internal/domain"
	"github.com/crmkit/lead-capture/internal/observability"
	"github.com/crmkit/lead-capture/internal/repository"
)

// IngestInput carries the caller-supplied fields of a public lead
// submission. Everything else about the lead is decided server side.
type IngestInput struct {
	FullName     string
	Email        *string
	Phone        *string
	Services     *string
	Notes        *string
	SourceDetail *string
}

// LeadService persists leads and announces new ones on the push channel.
type LeadService struct {
	leadRepo     repository.LeadRepository
	activityRepo repository.ActivityRepository
	publisher    redis.UniversalClient
	pushChannel  string
	logger       *zap.Logger
	metrics      *observability.Metrics
}

func NewLeadService(
	leadRepo repository.LeadRepository,
	activityRepo repository.ActivityRepository,
	publisher redis.UniversalClient,
	pushChannel string,
	logger *zap.Logger,
	metrics *observability.Metrics,
) (*LeadService, error) {
	if leadRepo == nil {
		return nil, fmt.Errorf("lead repository is required")
	}
	if activityRepo == nil {
		return nil, fmt.Errorf("activity repository is required")
	}
	if pushChannel == "" {
		return nil, fmt.Errorf("push channel name is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &LeadService{
		leadRepo:     leadRepo,
		activityRepo: activityRepo,
		publisher:    publisher,
		pushChannel:  pushChannel,
		logger:       logger,
		metrics:      metrics,
	}, nil
}

// Ingest persists a publicly submitted lead, writes its creation
// activity and announces it on the push channel. Only the persistence
// step can fail the call; the activity and the announcement are best
// effort.
func (s *LeadService) Ingest(ctx context.Context, input IngestInput, callerIP string) (*domain.Lead, error) {
	lead := &domain.Lead{
		ID:       uuid.NewString(),
		FullName: strings.TrimSpace(input.FullName),
		Email:    normalizeOptional(input.Email),
		Phone:    normalizeOptional(input.Phone),
		Services: normalizeOptional(input.Services),
		Notes:    normalizeOptional(input.Notes),
		Source:   domain.SourceWebsiteAPI,
		Status:   domain.StatusNewLead,
	}
	if callerIP != "" {
		lead.UserIP = &callerIP
	}

	if err := lead.Validate(); err != nil {
		return nil, err
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.metrics.IncLeadIngested(lead.Source)

	s.recordCreation(ctx, lead, normalizeOptional(input.SourceDetail))
	s.announce(ctx, lead)

	return lead, nil
}

func (s *LeadService) Get(ctx context.Context, id string) (*domain.Lead, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: lead id is required", domain.ErrValidation)
	}
	return s.leadRepo.GetByID(ctx, id)
}

func (s *LeadService) List(ctx context.Context, params repository.ListParams) ([]domain.Lead, int64, error) {
	return s.leadRepo.List(ctx, params)
}

func (s *LeadService) Activities(ctx context.Context, leadID string) ([]domain.Activity, error) {
	if strings.TrimSpace(leadID) == "" {
		return nil, fmt.Errorf("%w: lead id is required", domain.ErrValidation)
	}
	return s.activityRepo.ListByLeadID(ctx, leadID)
}

// recordCreation writes the lead's first activity entry. The lead is
// already durable at this point, so a failure here only loses history
// and must not fail the submission.
func (s *LeadService) recordCreation(ctx context.Context, lead *domain.Lead, sourceDetail *string) {
	notes := "Lead submitted via Website API"
	if sourceDetail != nil {
		notes = fmt.Sprintf("Lead submitted via Website API (%s)", *sourceDetail)
	}

	activity := &domain.Activity{
		ID:     uuid.NewString(),
		LeadID: lead.ID,
		Type:   domain.ActivityTypeCreated,
		Notes:  notes,
	}

	if err := s.activityRepo.Create(ctx, activity); err != nil {
		s.logger.Warn("failed to record lead creation activity",
			zap.Error(err),
			zap.String("leadId", lead.ID),
		)
	}
}

// announce publishes the lead on the push channel. The poll feed covers
// any lead missed here, so a broken publisher is only a latency problem.
func (s *LeadService) announce(ctx context.Context, lead *domain.Lead) {
	if s.publisher == nil {
		return
	}

	payload, err := json.Marshal(lead)
	if err != nil {
		s.logger.Warn("failed to marshal lead for push channel",
			zap.Error(err),
			zap.String("leadId", lead.ID),
		)
		return
	}

	if err := s.publisher.Publish(ctx, s.pushChannel, payload).Err(); err != nil {
		s.logger.Warn("failed to announce lead on push channel",
			zap.Error(err),
			zap.String("leadId", lead.ID),
			zap.String("channel", s.pushChannel),
		)
	}
}

func normalizeOptional(s *string) *string {
	if s == nil {
		return nil
	}
	trimmed := strings.TrimSpace(*s)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}
