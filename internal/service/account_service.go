package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/lock"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const maxAccountNameLength = 255

type AccountService struct {
	accountRepo *repository.AccountRepository
	activities  *ActivityService
	locker      lock.Locker
	publisher   events.Publisher
	defaults    Defaults
	logger      *zap.Logger
}

func NewAccountService(
	accountRepo *repository.AccountRepository,
	activities *ActivityService,
	locker lock.Locker,
	publisher events.Publisher,
	defaults Defaults,
	logger *zap.Logger,
) *AccountService {
	return &AccountService{
		accountRepo: accountRepo,
		activities:  activities,
		locker:      locker,
		publisher:   publisher,
		defaults:    defaults,
		logger:      logger,
	}
}

// ResolveAccount returns the ID of the account named name, creating it when no
// account matches. Matching is exact but case-insensitive and ignores surrounding
// whitespace; an existing match is returned untouched even if owner differs.
//
// Lookup and create run under a lock keyed by the normalized name, so concurrent
// resolutions of the same new name create a single account. Direct creates through
// Create do not take this lock and may still produce same-named accounts.
func (s *AccountService) ResolveAccount(ctx context.Context, name, owner string) (uuid.UUID, bool, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return uuid.Nil, false, NewValidationError("accountName", "account name must not be empty")
	}
	if utf8.RuneCountInString(name) > maxAccountNameLength {
		return uuid.Nil, false, NewValidationError("accountName", "account name exceeds 255 characters")
	}

	release, err := s.locker.Acquire(ctx, domain.NormalizeAccountName(name))
	if err != nil {
		if errors.Is(err, lock.ErrNotObtained) {
			return uuid.Nil, false, fmt.Errorf("%w: %q", ErrAccountNameBusy, name)
		}
		return uuid.Nil, false, fmt.Errorf("failed to lock account name: %w", err)
	}
	defer release()

	existing, err := s.accountRepo.FindByName(ctx, name)
	if err == nil {
		metrics.RecordAccountResolution(false)
		return existing.ID, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return uuid.Nil, false, fmt.Errorf("failed to look up account by name: %w", err)
	}

	account := &domain.Account{
		Name:  name,
		Owner: firstNonBlank(owner, callerName(ctx), s.defaults.Owner),
	}
	if err := s.accountRepo.Create(ctx, account); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to create account: %w", err)
	}

	metrics.RecordAccountResolution(true)
	s.logger.Info("Account created by name reconciliation",
		zap.String("account_id", account.ID.String()),
		zap.String("name", account.Name),
		zap.String("owner", account.Owner),
	)
	s.afterCreate(ctx, account, true)

	return account.ID, true, nil
}

// Resolve is the request-shaped form of ResolveAccount
func (s *AccountService) Resolve(ctx context.Context, req *domain.ResolveAccountRequest) (*domain.ResolveAccountResponse, error) {
	id, created, err := s.ResolveAccount(ctx, req.Name, req.Owner)
	if err != nil {
		return nil, err
	}
	return &domain.ResolveAccountResponse{AccountID: id, Created: created}, nil
}

func (s *AccountService) Create(ctx context.Context, req *domain.CreateAccountRequest) (*domain.AccountDTO, error) {
	verr := &ValidationError{}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		verr.Add("name", "name is required")
	}
	if req.Type != "" && !req.Type.IsValid() {
		verr.Add("type", "unknown account type")
	}
	if req.ParentAccountID != nil {
		if err := s.checkParent(ctx, uuid.Nil, *req.ParentAccountID, verr); err != nil {
			return nil, err
		}
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	account := &domain.Account{
		Name:            name,
		Owner:           firstNonBlank(req.Owner, callerName(ctx), s.defaults.Owner),
		Type:            req.Type,
		Website:         req.Website,
		Phone:           req.Phone,
		Description:     req.Description,
		ParentAccountID: req.ParentAccountID,
		Billing:         mapper.FromAddressDTO(req.Billing),
		Shipping:        mapper.FromAddressDTO(req.Shipping),
	}

	if err := s.accountRepo.Create(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to create account: %w", err)
	}

	s.afterCreate(ctx, account, false)

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

func (s *AccountService) GetByID(ctx context.Context, id uuid.UUID) (*domain.AccountDTO, error) {
	account, err := s.getAccount(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

func (s *AccountService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateAccountRequest) (*domain.AccountDTO, error) {
	account, err := s.getAccount(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if req.Name != nil {
		if name := strings.TrimSpace(*req.Name); name == "" {
			verr.Add("name", "name must not be empty")
		} else {
			account.Name = name
		}
	}
	if req.Type != nil {
		if *req.Type != "" && !req.Type.IsValid() {
			verr.Add("type", "unknown account type")
		}
		account.Type = *req.Type
	}
	if req.ParentAccountID != nil {
		if err := s.checkParent(ctx, id, *req.ParentAccountID, verr); err != nil {
			return nil, err
		}
		account.ParentAccountID = req.ParentAccountID
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if req.Owner != nil {
		account.Owner = strings.TrimSpace(*req.Owner)
	}
	if req.Website != nil {
		account.Website = *req.Website
	}
	if req.Phone != nil {
		account.Phone = *req.Phone
	}
	if req.Description != nil {
		account.Description = *req.Description
	}
	if req.Billing != nil {
		account.Billing = mapper.FromAddressDTO(req.Billing)
	}
	if req.Shipping != nil {
		account.Shipping = mapper.FromAddressDTO(req.Shipping)
	}

	if err := s.accountRepo.Update(ctx, account); err != nil {
		return nil, fmt.Errorf("failed to update account: %w", err)
	}

	s.activities.Record(ctx, domain.ActivityTargetAccount, account.ID,
		"Account updated", fmt.Sprintf("Account '%s' was updated", account.Name))

	dto := mapper.ToAccountDTO(account)
	return &dto, nil
}

// Delete removes an account that nothing references anymore
func (s *AccountService) Delete(ctx context.Context, id uuid.UUID) error {
	account, err := s.getAccount(ctx, id)
	if err != nil {
		return err
	}

	dependents, err := s.accountRepo.CountDependents(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to count account dependents: %w", err)
	}
	if dependents > 0 {
		return ErrAccountHasDependents
	}

	if err := s.accountRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete account: %w", err)
	}

	s.logger.Info("Account deleted",
		zap.String("account_id", id.String()),
		zap.String("name", account.Name),
	)
	return nil
}

func (s *AccountService) List(ctx context.Context, filters repository.AccountFilters, sort repository.SortConfig) ([]domain.AccountDTO, error) {
	if filters.Type != nil && !filters.Type.IsValid() {
		return nil, NewValidationError("type", "unknown account type")
	}

	accounts, err := s.accountRepo.List(ctx, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list accounts: %w", err)
	}

	dtos := make([]domain.AccountDTO, len(accounts))
	for i := range accounts {
		dtos[i] = mapper.ToAccountDTO(&accounts[i])
	}
	return dtos, nil
}

func (s *AccountService) getAccount(ctx context.Context, id uuid.UUID) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrAccountNotFound
		}
		return nil, fmt.Errorf("failed to get account: %w", err)
	}
	return account, nil
}

// checkParent validates a parent reference; self is uuid.Nil on create
func (s *AccountService) checkParent(ctx context.Context, self, parentID uuid.UUID, verr *ValidationError) error {
	if self != uuid.Nil && parentID == self {
		verr.Add("parentAccountId", "an account cannot be its own parent")
		return nil
	}
	exists, err := s.accountRepo.Exists(ctx, parentID)
	if err != nil {
		return fmt.Errorf("failed to check parent account: %w", err)
	}
	if !exists {
		verr.Add("parentAccountId", "parent account does not exist")
	}
	return nil
}

func (s *AccountService) afterCreate(ctx context.Context, account *domain.Account, reconciled bool) {
	s.activities.Record(ctx, domain.ActivityTargetAccount, account.ID,
		"Account created", fmt.Sprintf("Account '%s' was created", account.Name))

	publishEvent(ctx, s.publisher, s.logger, events.NewEvent(events.AccountCreated, account.Owner, events.AccountCreatedPayload{
		AccountID:  account.ID,
		Name:       account.Name,
		Owner:      account.Owner,
		Reconciled: reconciled,
	}))
}
