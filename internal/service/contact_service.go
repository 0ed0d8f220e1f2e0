package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type ContactService struct {
	contactRepo *repository.ContactRepository
	accountRepo *repository.AccountRepository
	accounts    *AccountService
	activities  *ActivityService
	defaults    Defaults
	logger      *zap.Logger
}

func NewContactService(
	contactRepo *repository.ContactRepository,
	accountRepo *repository.AccountRepository,
	accounts *AccountService,
	activities *ActivityService,
	defaults Defaults,
	logger *zap.Logger,
) *ContactService {
	return &ContactService{
		contactRepo: contactRepo,
		accountRepo: accountRepo,
		accounts:    accounts,
		activities:  activities,
		defaults:    defaults,
		logger:      logger,
	}
}

// Create adds a contact under an account given by ID or by name.
// A name is resolved through account reconciliation, which may create the account.
func (s *ContactService) Create(ctx context.Context, req *domain.CreateContactRequest) (*domain.ContactDTO, error) {
	verr := &ValidationError{}
	lastName := strings.TrimSpace(req.LastName)
	if lastName == "" {
		verr.Add("lastName", "last name is required")
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

	if req.ReportsToID != nil {
		if err := s.checkReportsTo(ctx, uuid.Nil, *req.ReportsToID, verr); err != nil {
			return nil, err
		}
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

	contact := &domain.Contact{
		Salutation:  strings.TrimSpace(req.Salutation),
		FirstName:   strings.TrimSpace(req.FirstName),
		LastName:    lastName,
		AccountID:   accountID,
		Title:       req.Title,
		Email:       strings.TrimSpace(req.Email),
		Phone:       req.Phone,
		Mobile:      req.Mobile,
		ReportsToID: req.ReportsToID,
		Owner:       owner,
		Mailing:     mapper.FromAddressDTO(req.Mailing),
	}

	if err := s.contactRepo.Create(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to create contact: %w", err)
	}

	s.activities.Record(ctx, domain.ActivityTargetContact, contact.ID,
		"Contact created", fmt.Sprintf("Contact '%s' was created", contact.FullName()))

	return s.GetByID(ctx, contact.ID)
}

func (s *ContactService) GetByID(ctx context.Context, id uuid.UUID) (*domain.ContactDTO, error) {
	contact, err := s.getContact(ctx, id)
	if err != nil {
		return nil, err
	}
	dto := mapper.ToContactDTO(contact)
	return &dto, nil
}

func (s *ContactService) Update(ctx context.Context, id uuid.UUID, req *domain.UpdateContactRequest) (*domain.ContactDTO, error) {
	contact, err := s.getContact(ctx, id)
	if err != nil {
		return nil, err
	}

	verr := &ValidationError{}
	if req.LastName != nil {
		if lastName := strings.TrimSpace(*req.LastName); lastName == "" {
			verr.Add("lastName", "last name must not be empty")
		} else {
			contact.LastName = lastName
		}
	}
	if req.AccountID != nil {
		if err := checkAccountExists(ctx, s.accountRepo, *req.AccountID, "accountId", verr); err != nil {
			return nil, err
		}
		contact.AccountID = *req.AccountID
		contact.Account = nil
	}
	if req.ReportsToID != nil {
		if err := s.checkReportsTo(ctx, id, *req.ReportsToID, verr); err != nil {
			return nil, err
		}
		contact.ReportsToID = req.ReportsToID
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}

	if req.Salutation != nil {
		contact.Salutation = strings.TrimSpace(*req.Salutation)
	}
	if req.FirstName != nil {
		contact.FirstName = strings.TrimSpace(*req.FirstName)
	}
	if req.Title != nil {
		contact.Title = *req.Title
	}
	if req.Email != nil {
		contact.Email = strings.TrimSpace(*req.Email)
	}
	if req.Phone != nil {
		contact.Phone = *req.Phone
	}
	if req.Mobile != nil {
		contact.Mobile = *req.Mobile
	}
	if req.Owner != nil {
		contact.Owner = strings.TrimSpace(*req.Owner)
	}
	if req.Mailing != nil {
		contact.Mailing = mapper.FromAddressDTO(req.Mailing)
	}

	if err := s.contactRepo.Update(ctx, contact); err != nil {
		return nil, fmt.Errorf("failed to update contact: %w", err)
	}

	s.activities.Record(ctx, domain.ActivityTargetContact, contact.ID,
		"Contact updated", fmt.Sprintf("Contact '%s' was updated", contact.FullName()))

	return s.GetByID(ctx, contact.ID)
}

// Delete removes the contact; contacts reporting to it keep existing without a manager
func (s *ContactService) Delete(ctx context.Context, id uuid.UUID) error {
	if _, err := s.getContact(ctx, id); err != nil {
		return err
	}
	if err := s.contactRepo.Delete(ctx, id); err != nil {
		return fmt.Errorf("failed to delete contact: %w", err)
	}
	return nil
}

func (s *ContactService) List(ctx context.Context, filters repository.ContactFilters, sort repository.SortConfig) ([]domain.ContactDTO, error) {
	contacts, err := s.contactRepo.List(ctx, filters, sort)
	if err != nil {
		return nil, fmt.Errorf("failed to list contacts: %w", err)
	}

	dtos := make([]domain.ContactDTO, len(contacts))
	for i := range contacts {
		dtos[i] = mapper.ToContactDTO(&contacts[i])
	}
	return dtos, nil
}

func (s *ContactService) getContact(ctx context.Context, id uuid.UUID) (*domain.Contact, error) {
	contact, err := s.contactRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrContactNotFound
		}
		return nil, fmt.Errorf("failed to get contact: %w", err)
	}
	return contact, nil
}

func (s *ContactService) checkReportsTo(ctx context.Context, self, reportsToID uuid.UUID, verr *ValidationError) error {
	if self != uuid.Nil && reportsToID == self {
		verr.Add("reportsToId", "a contact cannot report to itself")
		return nil
	}
	exists, err := s.contactRepo.Exists(ctx, reportsToID)
	if err != nil {
		return fmt.Errorf("failed to check reports-to contact: %w", err)
	}
	if !exists {
		verr.Add("reportsToId", "contact does not exist")
	}
	return nil
}

// checkAccountExists records a field error when the account reference does not resolve
func checkAccountExists(ctx context.Context, repo *repository.AccountRepository, id uuid.UUID, field string, verr *ValidationError) error {
	exists, err := repo.Exists(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to check account: %w", err)
	}
	if !exists {
		verr.Add(field, "account does not exist")
	}
	return nil
}
