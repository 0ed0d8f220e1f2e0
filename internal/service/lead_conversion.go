package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/straye-as/crm-api/internal/metrics"
	"github.com/straye-as/crm-api/internal/repository"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Column widths for the records a conversion writes, in characters
const (
	maxOpportunityNameLength = 120
	maxSalutationLength      = 20
	maxPersonNameLength      = 100
	maxConvertedStatusLength = 50
	maxOwnerLength           = 200
)

// conversionRepos are the repositories bound to the conversion transaction
type conversionRepos struct {
	leads         *repository.LeadRepository
	accounts      *repository.AccountRepository
	contacts      *repository.ContactRepository
	opportunities *repository.OpportunityRepository
}

// conversionPlan is the fully validated set of decisions for one conversion
type conversionPlan struct {
	owner           string
	convertedStatus string

	accountID   *uuid.UUID
	accountName string

	contactID  *uuid.UUID
	salutation string
	firstName  string
	lastName   string

	skipOpportunity bool
	opportunityID   *uuid.UUID
	opportunityName string
}

// ConvertLead turns a lead into an account, a contact and optionally an opportunity,
// then marks the lead converted with links to what was used.
//
// All writes share one transaction: either every record is created and the lead is
// marked converted, or nothing is written. A lead that is already converted fails
// with ErrAlreadyConverted before any write.
func (s *LeadService) ConvertLead(ctx context.Context, leadID uuid.UUID, req *domain.ConvertLeadRequest) (*domain.ConvertLeadResult, error) {
	result, err := s.convertLead(ctx, leadID, req)
	switch {
	case err == nil:
		metrics.RecordLeadConversion(metrics.ConversionSucceeded)
	case errors.Is(err, ErrAlreadyConverted):
		metrics.RecordLeadConversion(metrics.ConversionAlreadyConverted)
	case errors.Is(err, ErrInvalidInput), errors.Is(err, ErrNotFound):
		metrics.RecordLeadConversion(metrics.ConversionRejected)
	default:
		metrics.RecordLeadConversion(metrics.ConversionFailed)
	}
	return result, err
}

func (s *LeadService) convertLead(ctx context.Context, leadID uuid.UUID, req *domain.ConvertLeadRequest) (*domain.ConvertLeadResult, error) {
	result := &domain.ConvertLeadResult{LeadID: leadID}
	var converted *domain.Lead

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repos := conversionRepos{
			leads:         s.leadRepo.WithTx(tx),
			accounts:      s.accountRepo.WithTx(tx),
			contacts:      s.contactRepo.WithTx(tx),
			opportunities: s.opportunityRepo.WithTx(tx),
		}

		lead, err := s.getLead(ctx, repos.leads, leadID)
		if err != nil {
			return err
		}
		if lead.IsConverted() {
			return ErrAlreadyConverted
		}
		if req == nil {
			return NewValidationError("body", "conversion decisions are required")
		}
		if err := validateConversionRequest(req); err != nil {
			return err
		}

		plan, err := s.planConversion(ctx, repos, lead, req)
		if err != nil {
			return err
		}

		accountID, created, err := s.convertAccount(ctx, repos, lead, plan)
		if err != nil {
			return err
		}
		result.AccountID, result.AccountCreated = accountID, created

		contactID, created, err := s.convertContact(ctx, repos, lead, plan, accountID)
		if err != nil {
			return err
		}
		result.ContactID, result.ContactCreated = contactID, created

		if !plan.skipOpportunity {
			oppID, created, err := s.convertOpportunity(ctx, repos, plan, accountID)
			if err != nil {
				return err
			}
			result.OpportunityID, result.OpportunityCreated = &oppID, created
		}

		updated, err := repos.leads.MarkConverted(ctx, lead.ID, repository.LeadConversion{
			ConvertedStatus: plan.convertedStatus,
			AccountID:       result.AccountID,
			ContactID:       result.ContactID,
			OpportunityID:   result.OpportunityID,
			ConvertedAt:     s.now().UTC(),
		})
		if err != nil {
			return fmt.Errorf("failed to mark lead converted: %w", err)
		}
		if !updated {
			// Another conversion committed between our read and this write.
			return ErrAlreadyConverted
		}

		converted, err = s.getLead(ctx, repos.leads, lead.ID)
		return err
	})
	if err != nil {
		return nil, err
	}

	result.Lead = mapper.ToLeadDTO(converted)
	s.afterConversion(ctx, converted, result)

	return result, nil
}

// validateConversionRequest checks the shape of the decisions without touching the store.
// It runs after the lead is loaded so a missing or converted lead is reported first.
func validateConversionRequest(req *domain.ConvertLeadRequest) error {
	verr := &ValidationError{}
	checkLength(verr, "account.name", req.Account.Name, maxAccountNameLength)
	checkLength(verr, "contact.salutation", req.Contact.Salutation, maxSalutationLength)
	checkLength(verr, "contact.firstName", req.Contact.FirstName, maxPersonNameLength)
	checkLength(verr, "contact.lastName", req.Contact.LastName, maxPersonNameLength)
	checkLength(verr, "opportunity.name", req.Opportunity.Name, maxOpportunityNameLength)
	checkLength(verr, "convertedStatus", req.ConvertedStatus, maxConvertedStatusLength)
	checkLength(verr, "recordOwner", req.RecordOwner, maxOwnerLength)

	switch req.Account.Mode {
	case domain.ConversionModeCreate:
	case domain.ConversionModeExisting:
		if req.Account.ID == nil {
			verr.Add("account.id", "required when using an existing account")
		}
	default:
		verr.Add("account.mode", "must be create or existing")
	}

	switch req.Contact.Mode {
	case domain.ConversionModeCreate:
	case domain.ConversionModeExisting:
		if req.Contact.ID == nil {
			verr.Add("contact.id", "required when using an existing contact")
		}
	default:
		verr.Add("contact.mode", "must be create or existing")
	}

	switch req.Opportunity.Mode {
	case domain.ConversionModeCreate, domain.ConversionModeSkip:
	case domain.ConversionModeExisting:
		if req.Opportunity.ID == nil {
			verr.Add("opportunity.id", "required when using an existing opportunity")
		}
	default:
		verr.Add("opportunity.mode", "must be create, existing or skip")
	}

	if strings.TrimSpace(req.ConvertedStatus) == string(domain.LeadStatusConverted) {
		verr.Add("convertedStatus", "must name the qualification status, not the terminal lead status")
	}

	return verr.OrNil()
}

func checkLength(verr *ValidationError, field, value string, limit int) {
	if utf8.RuneCountInString(strings.TrimSpace(value)) > limit {
		verr.Add(field, fmt.Sprintf("must be at most %d characters", limit))
	}
}

// planConversion resolves defaults from the lead and checks every reference
// before the first write so a rejected request leaves nothing behind.
func (s *LeadService) planConversion(ctx context.Context, repos conversionRepos, lead *domain.Lead, req *domain.ConvertLeadRequest) (*conversionPlan, error) {
	plan := &conversionPlan{
		owner:           firstNonBlank(req.RecordOwner, callerName(ctx), lead.Owner, s.defaults.Owner),
		convertedStatus: firstNonBlank(req.ConvertedStatus, s.defaults.ConvertedStatus),
	}
	verr := &ValidationError{}

	if req.Account.Mode == domain.ConversionModeExisting {
		plan.accountID = req.Account.ID
		if err := checkAccountExists(ctx, repos.accounts, *req.Account.ID, "account.id", verr); err != nil {
			return nil, err
		}
	} else {
		plan.accountName = firstNonBlank(req.Account.Name, lead.Company)
		if plan.accountName == "" {
			verr.Add("account.name", "a name is required to create the account")
		}
		checkLength(verr, "account.name", plan.accountName, maxAccountNameLength)
	}

	if req.Contact.Mode == domain.ConversionModeExisting {
		plan.contactID = req.Contact.ID
		exists, err := repos.contacts.Exists(ctx, *req.Contact.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check contact: %w", err)
		}
		if !exists {
			verr.Add("contact.id", "contact does not exist")
		}
	} else {
		plan.salutation = firstNonBlank(req.Contact.Salutation, lead.Salutation)
		plan.firstName = firstNonBlank(req.Contact.FirstName, lead.FirstName)
		plan.lastName = firstNonBlank(req.Contact.LastName, lead.LastName)
		if plan.lastName == "" {
			verr.Add("contact.lastName", "a last name is required to create the contact")
		}
		checkLength(verr, "contact.salutation", plan.salutation, maxSalutationLength)
		checkLength(verr, "contact.firstName", plan.firstName, maxPersonNameLength)
		checkLength(verr, "contact.lastName", plan.lastName, maxPersonNameLength)
	}

	switch req.Opportunity.Mode {
	case domain.ConversionModeSkip:
		plan.skipOpportunity = true
	case domain.ConversionModeExisting:
		plan.opportunityID = req.Opportunity.ID
		exists, err := repos.opportunities.Exists(ctx, *req.Opportunity.ID)
		if err != nil {
			return nil, fmt.Errorf("failed to check opportunity: %w", err)
		}
		if !exists {
			verr.Add("opportunity.id", "opportunity does not exist")
		}
	default:
		plan.opportunityName = firstNonBlank(req.Opportunity.Name, defaultOpportunityName(lead))
		if plan.opportunityName == "" {
			verr.Add("opportunity.name", "a name is required to create the opportunity")
		}
	}

	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *LeadService) convertAccount(ctx context.Context, repos conversionRepos, lead *domain.Lead, plan *conversionPlan) (uuid.UUID, bool, error) {
	if plan.accountID != nil {
		return *plan.accountID, false, nil
	}

	account := &domain.Account{
		Name:  plan.accountName,
		Owner: plan.owner,
		Type:  domain.AccountTypeProspect,
		Phone: lead.Phone,
	}
	if err := repos.accounts.Create(ctx, account); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to create account: %w", err)
	}
	return account.ID, true, nil
}

func (s *LeadService) convertContact(ctx context.Context, repos conversionRepos, lead *domain.Lead, plan *conversionPlan, accountID uuid.UUID) (uuid.UUID, bool, error) {
	if plan.contactID != nil {
		return *plan.contactID, false, nil
	}

	contact := &domain.Contact{
		Salutation: plan.salutation,
		FirstName:  plan.firstName,
		LastName:   plan.lastName,
		AccountID:  accountID,
		Title:      lead.Title,
		Email:      lead.Email,
		Phone:      lead.Phone,
		Owner:      plan.owner,
	}
	if err := repos.contacts.Create(ctx, contact); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to create contact: %w", err)
	}
	return contact.ID, true, nil
}

func (s *LeadService) convertOpportunity(ctx context.Context, repos conversionRepos, plan *conversionPlan, accountID uuid.UUID) (uuid.UUID, bool, error) {
	if plan.opportunityID != nil {
		return *plan.opportunityID, false, nil
	}

	stage := domain.OpportunityStageQualify
	opp := &domain.Opportunity{
		Name:             plan.opportunityName,
		AccountID:        accountID,
		Stage:            stage,
		CloseDate:        endOfQuarter(s.now()),
		Amount:           decimal.Zero,
		Probability:      stage.DefaultProbability(),
		ForecastCategory: stage.DefaultForecastCategory(),
		Owner:            plan.owner,
	}
	if err := repos.opportunities.Create(ctx, opp); err != nil {
		return uuid.Nil, false, fmt.Errorf("failed to create opportunity: %w", err)
	}
	return opp.ID, true, nil
}

func (s *LeadService) afterConversion(ctx context.Context, lead *domain.Lead, result *domain.ConvertLeadResult) {
	s.logger.Info("Lead converted",
		zap.String("lead_id", lead.ID.String()),
		zap.String("account_id", result.AccountID.String()),
		zap.String("contact_id", result.ContactID.String()),
		zap.Bool("account_created", result.AccountCreated),
		zap.Bool("contact_created", result.ContactCreated),
		zap.Bool("opportunity_created", result.OpportunityCreated),
	)

	s.activities.Record(ctx, domain.ActivityTargetLead, lead.ID,
		"Lead converted", fmt.Sprintf("Lead '%s' was converted with status %s", lead.FullName(), lead.ConvertedStatus))
	s.activities.Record(ctx, domain.ActivityTargetAccount, result.AccountID,
		"Lead converted", fmt.Sprintf("Lead '%s' was converted into this account", lead.FullName()))

	publishEvent(ctx, s.publisher, s.logger, events.NewEvent(events.LeadConverted, lead.Owner, events.LeadConvertedPayload{
		LeadID:             lead.ID,
		AccountID:          result.AccountID,
		ContactID:          result.ContactID,
		OpportunityID:      result.OpportunityID,
		AccountCreated:     result.AccountCreated,
		ContactCreated:     result.ContactCreated,
		OpportunityCreated: result.OpportunityCreated,
		ConvertedStatus:    lead.ConvertedStatus,
	}))
}

// defaultOpportunityName derives "<company> - <lead name>", trimmed to the column width
func defaultOpportunityName(lead *domain.Lead) string {
	name := firstNonBlank(lead.Company)
	if full := lead.FullName(); full != "" {
		if name != "" {
			name += " - "
		}
		name += full
	}
	if runes := []rune(name); len(runes) > maxOpportunityNameLength {
		name = strings.TrimSpace(string(runes[:maxOpportunityNameLength]))
	}
	return name
}

// endOfQuarter returns the last day of the calendar quarter containing t, in UTC
func endOfQuarter(t time.Time) time.Time {
	t = t.UTC()
	lastMonth := time.Month((int(t.Month())-1)/3*3 + 3)
	return time.Date(t.Year(), lastMonth+1, 1, 0, 0, 0, 0, time.UTC).AddDate(0, 0, -1)
}
