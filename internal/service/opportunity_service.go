package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type OpportunityService struct {
	opportunityRepo *repository.OpportunityRepository
	accountRepo     *repository.AccountRepository
	accounts        *AccountService
	activities      *ActivityService
	defaults        Defaults
	logger          *zap.Logger
}

func NewOpportunityService(
	opportunityRepo *repository.OpportunityRepository,
	accountRepo *repository.AccountRepository,
	accounts *AccountService,
	activities *ActivityService,
	defaults Defaults,
	logger *zap.Logger,
) *OpportunityService {
	return &OpportunityService{
		opportunityRepo: opportunityRepo,
		accountRepo:     accountRepo,
		accounts:        accounts,
		activities:      activities,
		defaults:        defaults,
		logger:          logger,
	}
}

// Create adds an opportunity. Name, account, stage and close date are required;
// probability and forecast category default from the stage.
func (s *OpportunityService) Create(ctx context.Context, req *domain.CreateOpportunityRequest) (*domain.OpportunityDTO, error) {
	verr := &ValidationError{}

	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr.Add("name", "name is required")
	}

	accountName := strings.TrimSpace(req.AccountName)
	switch {
	case req.AccountID != nil:
		if err := checkAccountExists(ctx, s.accountRepo, *req.AccountID, "accountId", verr); err != nil {
			return nil, err
		}
	case accountName == "":
		verr.Add("accountId", "an account is required: provide accountId or accountName")
	}

	switch {
	case req.Stage == "":
		verr.Add("stage", "stage is required")
	case !req.Stage.IsValid():
		verr.Add("stage", "unknown stage")
	}

	closeDate, err := mapper.ParseDate(strings.TrimSpace(req.CloseDate))
	if err != nil {
		verr.Add("closeDate", "close date is required in YYYY-MM-DD format")
	}

	if req.Probability != nil && (*req.Probability < 0 || *req.Probability > 100) {
		verr.Add("probability", "probability must be between 0 and 100")
	}
	if req.ForecastCategory != "" && !req.ForecastCategory.IsValid() {
		verr.Add("forecastCategory", "unknown forecast category")
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		verr.Add("amount", "amount must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	owner := firstNonBlank(req.Owner, callerName(ctx), s.defaults.Owner)

	var accountID uuid.UUID
	if req.AccountID != nil {
		accountID = *req.AccountID
	} else {
		id, _, err := s.accounts.ResolveAccount(ctx, accountName, owner)
		if err != nil {
			return nil, err
		}
		accountID = id
	}

	opp := &domain.Opportunity{
		Name:             name,
		AccountID:        accountID,
		Stage:            req.Stage,
		CloseDate:        closeDate,
		Amount:           decimal.Zero,
		Probability:      req.Stage.DefaultProbability(),
		ForecastCategory: req.Stage.DefaultForecastCategory(),
		NextStep:         req.NextStep,
		Description:      req.Description,
		Owner:            owner,
	}
	if req.Amount != nil {
		opp.Amount = req.Amount.Round(2)
	}
	if req.Probability != nil {
		opp.Probability = *req.Probability
	}
	if req.ForecastCategory != "" {
		opp.ForecastCategory = req.ForecastCategory
	}

	if err := s.opportunityRepo.Create(ctx, opp); err != nil {
		return nil, fmt.Errorf("failed to create opportunity: %w", err)
	}

	s.activities.Record(ctx, domain.ActivityTargetOpportunity, opp.ID,
		"Opportunity created", fmt.Sprintf("Opportunity '%s' was created in stage %s", opp.Name, opp.Stage))

	return s.GetByID(ctx, opp.ID)
}

func (s *OpportunityService) GetByID(ctx context.Context, id uuid.UUID) (*domain.OpportunityDTO, error) {
	opp, err := s.getOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToOpportunityDTO(opp)
	return &dto, nil
}

// Update applies a partial update. A stage change resets probability and forecast
// category to the stage defaults unless the request sets them explicitly.
func (s *OpportunityService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateOpportunityRequest) (*domain.OpportunityDTO, error) {
	opp, err := s.getOpportunity(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name == "" {
			verr.Add("name", "name must not be empty")
		} else {
			opp.Name = name
		}
	}
	if req.AccountID != nil {
		if err := checkAccountExists(ctx, s.accountRepo, *req.AccountID, "accountId", verr); err != nil {
			return nil, err
		}
		opp.AccountID = *req.AccountID
		opp.Account = nil
	}

	previousStage := opp.Stage
	if req.Stage != nil {
		if !req.Stage.IsValid() {
			verr.Add("stage", "unknown stage")
		} else {
			opp.Stage = *req.Stage
		}
	}
	if req.CloseDate != nil {
		closeDate, err := mapper.ParseDate(strings.TrimSpace(*req.CloseDate))
		if err != nil {
			verr.Add("closeDate", "close date must be in YYYY-MM-DD format")
		} else {
			opp.CloseDate = closeDate
		}
	}
	if req.Probability != nil && (*req.Probability < 0 || *req.Probability > 100) {
		verr.Add("probability", "probability must be between 0 and 100")
	}
	if req.ForecastCategory != nil && !req.ForecastCategory.IsValid() {
		verr.Add("forecastCategory", "unknown forecast category")
	}
	if req.Amount != nil && req.Amount.IsNegative() {
		verr.Add("amount", "amount must not be negative")
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if opp.Stage != previousStage {
		opp.Probability = opp.Stage.DefaultProbability()
		opp.ForecastCategory = opp.Stage.DefaultForecastCategory()
	}
	if req.Probability != nil {
		opp.Probability = *req.Probability
	}
	if req.ForecastCategory != nil {
		opp.ForecastCategory = *req.ForecastCategory
	}
	if req.Amount != nil {
		opp.Amount = req.Amount.Round(2)
	}
	if req.NextStep != nil {
		opp.NextStep = *req.NextStep
	}
	if req.Description != nil {
		opp.Description = *req.Description
	}
	if req.Owner != nil {
		opp.Owner = strings.TrimSpace(*req.Owner)
	}

	if err := s.opportunityRepo.Update(ctx, opp); err != nil {
		return nil, fmt.Errorf("failed to update opportunity: %w", err)
	}

	if opp.Stage != previousStage {
		s.activities.Record(ctx, domain.ActivityTargetOpportunity, opp.ID,
			"Stage changed", fmt.Sprintf("Opportunity '%s' moved from %s to %s", opp.Name, previousStage, opp.Stage))
	} else {
		s.activities.Record(ctx, domain.ActivityTargetOpportunity, opp.ID,
			"Opportunity updated", fmt.Sprintf("Opportunity '%s' was updated", opp.Name))
	}

	return s.GetByID(ctx, opp.ID)
}

func (s *OpportunityService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getOpportunity(ctx, id); err != nil {
		return err
	}
	if err := s.opportunityRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete opportunity: %w", err)
	}
	return nil
}

func (s *OpportunityService) List(ctx context.Context, filters repository.OpportunityFilters, sort repository.SortConfig) ([]domain.OpportunityDTO, error) {
	if filters.Stage != nil && !filters.Stage.IsValid() {
		return nil, NewValidationError("stage", "unknown stage")
	}

	opportunities, err := s.opportunityRepo.List(ctx, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list opportunities: %w", err)
	}

	dtos := make([]domain.OpportunityDTO, len(opportunities))
	for i := range opportunities {
		dtos[i] = mapper.ToOpportunityDTO(&opportunities[i])
	}
	return dtos, nil
}

func (s *OpportunityService) getOpportunity(ctx context.Context, id uuid.UUID) (*domain.Opportunity, error) {
	opp, err := s.opportunityRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrOpportunityNotFound
		}
		return nil, fmt.Errorf("failed to get opportunity: %w", err)
	}
	return opp, nil
}
