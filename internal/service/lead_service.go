package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LeadService manages leads and converts them into accounts, contacts and opportunities
type LeadService struct {
	db              *gorm.DB
	leadRepo        *repository.LeadRepository
	accountRepo     *repository.AccountRepository
	contactRepo     *repository.ContactRepository
	opportunityRepo *repository.OpportunityRepository
	activities      *ActivityService
	publisher       events.Publisher
	defaults        Defaults
	now             func() time.Time
	logger          *zap.Logger
}

func NewLeadService(
	db *gorm.DB,
	leadRepo *repository.LeadRepository,
	accountRepo *repository.AccountRepository,
	contactRepo *repository.ContactRepository,
	opportunityRepo *repository.OpportunityRepository,
	activities *ActivityService,
	publisher events.Publisher,
	defaults Defaults,
	logger *zap.Logger,
) *LeadService {
	return &LeadService{
		db:              db,
		leadRepo:        leadRepo,
		accountRepo:     accountRepo,
		contactRepo:     contactRepo,
		opportunityRepo: opportunityRepo,
		activities:      activities,
		publisher:       publisher,
		defaults:        defaults,
		now:             time.Now,
		logger:          logger,
	}
}

func (s *LeadService) Create(ctx context.Context, req *domain.CreateLeadRequest) (*domain.LeadDTO, error) {
	verr := &ValidationError{}
	lastName := strings.TrimSpace(req.LastName)
	if lastName == "" {
		verr.Add("lastName", "last name is required")
	}

	status := req.Status
	if status == "" {
		status = domain.LeadStatusOpen
	}
	switch {
	case !status.IsValid():
		verr.Add("status", "unknown lead status")
	case status == domain.LeadStatusConverted:
		verr.Add("status", "a lead can only reach this status through conversion")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	lead := &domain.Lead{
		Salutation:  strings.TrimSpace(req.Salutation),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    lastName,
		Company:     strings.TrimSpace(req.Company),
		Title:       req.Title,
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		Status:      status,
		Owner:       firstNonBlank(req.Owner, callerName(ctx), s.defaults.Owner),
		Description: req.Description,
	}

	if err := s.leadRepo.Create(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to create lead: %w", err)
	}

	s.activities.Record(ctx, domain.ActivityTargetLead, lead.ID,
		"Lead created", fmt.Sprintf("Lead '%s' was created", lead.FullName()))

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

func (s *LeadService) GetByID(ctx context.Context, id uuid.UUID) (*domain.LeadDTO, error) {
	lead, err := s.getLead(ctx, s.leadRepo, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

// Update applies a partial update. Converted leads are read-only.
func (s *LeadService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateLeadRequest) (*domain.LeadDTO, error) {
	lead, err := s.getLead(ctx, s.leadRepo, id)
	if err != nil {
		return nil, err
	}
	if lead.IsConverted() {
		return nil, ErrAlreadyConverted
	}

	verr := &ValidationError{}
	if req.LastName != nil {
		if lastName := strings.TrimSpace(*req.LastName); lastName == "" {
			verr.Add("lastName", "last name must not be empty")
		} else {
			lead.LastName = lastName
		}
	}
	if req.Status != nil {
		switch {
		case !req.Status.IsValid():
			verr.Add("status", "unknown lead status")
		case *req.Status == domain.LeadStatusConverted:
			verr.Add("status", "a lead can only reach this status through conversion")
		default:
			lead.Status = *req.Status
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if req.Salutation != nil {
		lead.Salutation = strings.TrimSpace(*req.Salutation)
	}
	if req.FirstName != nil {
		lead.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.Company != nil {
		lead.Company = strings.TrimSpace(*req.Company)
	}
	if req.Title != nil {
		lead.Title = *req.Title
	}
	if req.Email != nil {
		lead.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		lead.Phone = *req.Phone
	}
	if req.Owner != nil {
		lead.Owner = strings.TrimSpace(*req.Owner)
	}
	if req.Description != nil {
		lead.Description = *req.Description
	}

	if err := s.leadRepo.Update(ctx, lead); err != nil {
		return nil, fmt.Errorf("failed to update lead: %w", err)
	}

	s.activities.Record(ctx, domain.ActivityTargetLead, lead.ID,
		"Lead updated", fmt.Sprintf("Lead '%s' was updated", lead.FullName()))

	dto := mapper.ToLeadDTO(lead)
	return &dto, nil
}

// Delete removes the lead. Records created by an earlier conversion are kept.
func (s *LeadService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getLead(ctx, s.leadRepo, id); err != nil {
		return err
	}
	if err := s.leadRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete lead: %w", err)
	}
	return nil
}

func (s *LeadService) List(ctx context.Context, filters repository.LeadFilters, sort repository.SortConfig) ([]domain.LeadDTO, error) {
	if filters.Status != nil && !filters.Status.IsValid() {
		return nil, NewValidationError("status", "unknown lead status")
	}

	leads, err := s.leadRepo.List(ctx, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list leads: %w", err)
	}

	dtos := make([]domain.LeadDTO, len(leads))
	for i := range leads {
		dtos[i] = mapper.ToLeadDTO(&leads[i])
	}
	return dtos, nil
}

func (s *LeadService) getLead(ctx context.Context, repo *repository.LeadRepository, id uuid.UUID) (*domain.Lead, error) {
	lead, err := repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrLeadNotFound
		}
		return nil, fmt.Errorf("failed to get lead: %w", err)
	}
	return lead, nil
}
