package domain

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DTOs for API responses

type AddressDTO struct {
	Street     string `json:"street,omitempty" validate:"max=255"`
	City       string `json:"city,omitempty" validate:"max=100"`
	State      string `json:"state,omitempty" validate:"max=100"`
	PostalCode string `json:"postalCode,omitempty" validate:"max=20"`
	Country    string `json:"country,omitempty" validate:"max=100"`
}

type AccountDTO struct {
	ID              uuid.UUID   `json:"id"`
	Name            string      `json:"name"`
	Owner           string      `json:"owner,omitempty"`
	Type            AccountType `json:"type,omitempty"`
	Website         string      `json:"website,omitempty"`
	Phone           string      `json:"phone,omitempty"`
	Description     string      `json:"description,omitempty"`
	ParentAccountID *uuid.UUID  `json:"parentAccountId,omitempty"`
	Billing         AddressDTO  `json:"billingAddress"`
	Shipping        AddressDTO  `json:"shippingAddress"`
	CreatedAt       string      `json:"createdAt"` // ISO 8601
	UpdatedAt       string      `json:"updatedAt"` // ISO 8601
}

type ContactDTO struct {
	ID          uuid.UUID  `json:"id"`
	Salutation  string     `json:"salutation,omitempty"`
	FirstName   string     `json:"firstName,omitempty"`
	LastName    string     `json:"lastName"`
	FullName    string     `json:"fullName"`
	AccountID   uuid.UUID  `json:"accountId"`
	AccountName string     `json:"accountName,omitempty"`
	Title       string     `json:"title,omitempty"`
	Email       string     `json:"email,omitempty"`
	Phone       string     `json:"phone,omitempty"`
	Mobile      string     `json:"mobile,omitempty"`
	ReportsToID *uuid.UUID `json:"reportsToId,omitempty"`
	Owner       string     `json:"owner,omitempty"`
	Mailing     AddressDTO `json:"mailingAddress"`
	CreatedAt   string     `json:"createdAt"` // ISO 8601
	UpdatedAt   string     `json:"updatedAt"` // ISO 8601
}

type OpportunityDTO struct {
	ID               uuid.UUID        `json:"id"`
	Name             string           `json:"name"`
	AccountID        uuid.UUID        `json:"accountId"`
	AccountName      string           `json:"accountName,omitempty"`
	Stage            OpportunityStage `json:"stage"`
	CloseDate        string           `json:"closeDate"` // YYYY-MM-DD
	Amount           decimal.Decimal  `json:"amount"`
	Probability      int              `json:"probability"`
	ForecastCategory ForecastCategory `json:"forecastCategory"`
	NextStep         string           `json:"nextStep,omitempty"`
	Description      string           `json:"description,omitempty"`
	Owner            string           `json:"owner,omitempty"`
	CreatedAt        string           `json:"createdAt"` // ISO 8601
	UpdatedAt        string           `json:"updatedAt"` // ISO 8601
}

type LeadDTO struct {
	ID                     uuid.UUID  `json:"id"`
	Salutation             string     `json:"salutation,omitempty"`
	FirstName              string     `json:"firstName,omitempty"`
	LastName               string     `json:"lastName"`
	FullName               string     `json:"fullName"`
	Company                string     `json:"company,omitempty"`
	Title                  string     `json:"title,omitempty"`
	Email                  string     `json:"email,omitempty"`
	Phone                  string     `json:"phone,omitempty"`
	Status                 LeadStatus `json:"status"`
	Owner                  string     `json:"owner,omitempty"`
	Description            string     `json:"description,omitempty"`
	IsConverted            bool       `json:"isConverted"`
	ConvertedStatus        string     `json:"convertedStatus,omitempty"`
	ConvertedAccountID     *uuid.UUID `json:"convertedAccountId,omitempty"`
	ConvertedContactID     *uuid.UUID `json:"convertedContactId,omitempty"`
	ConvertedOpportunityID *uuid.UUID `json:"convertedOpportunityId,omitempty"`
	ConvertedAt            string     `json:"convertedAt,omitempty"` // ISO 8601
	CreatedAt              string     `json:"createdAt"`             // ISO 8601
	UpdatedAt              string     `json:"updatedAt"`             // ISO 8601
}

type ActivityDTO struct {
	ID          uuid.UUID          `json:"id"`
	TargetType  ActivityTargetType `json:"targetType"`
	TargetID    uuid.UUID          `json:"targetId"`
	Title       string             `json:"title"`
	Body        string             `json:"body,omitempty"`
	OccurredAt  string             `json:"occurredAt"`
	CreatorName string             `json:"creatorName,omitempty"`
	CreatedAt   string             `json:"createdAt"`
}

// Request DTOs

type CreateAccountRequest struct {
	Name            string      `json:"name" validate:"required,max=255"`
	Owner           string      `json:"owner,omitempty" validate:"max=200"`
	Type            AccountType `json:"type,omitempty"`
	Website         string      `json:"website,omitempty" validate:"max=255"`
	Phone           string      `json:"phone,omitempty" validate:"max=50"`
	Description     string      `json:"description,omitempty"`
	ParentAccountID *uuid.UUID  `json:"parentAccountId,omitempty"`
	Billing         *AddressDTO `json:"billingAddress,omitempty"`
	Shipping        *AddressDTO `json:"shippingAddress,omitempty"`
}

// UpdateAccountRequest is a partial update; nil fields are left unchanged
type UpdateAccountRequest struct {
	Name            *string      `json:"name,omitempty" validate:"omitempty,max=255"`
	Owner           *string      `json:"owner,omitempty" validate:"omitempty,max=200"`
	Type            *AccountType `json:"type,omitempty"`
	Website         *string      `json:"website,omitempty" validate:"omitempty,max=255"`
	Phone           *string      `json:"phone,omitempty" validate:"omitempty,max=50"`
	Description     *string      `json:"description,omitempty"`
	ParentAccountID *uuid.UUID   `json:"parentAccountId,omitempty"`
	Billing         *AddressDTO  `json:"billingAddress,omitempty"`
	Shipping        *AddressDTO  `json:"shippingAddress,omitempty"`
}

type ResolveAccountRequest struct {
	Name  string `json:"name" validate:"required,max=255"`
	Owner string `json:"owner,omitempty" validate:"max=200"`
}

type ResolveAccountResponse struct {
	AccountID uuid.UUID `json:"accountId"`
	Created   bool      `json:"created"`
}

// CreateContactRequest needs an account, either by ID or by name.
// A name is reconciled against existing accounts and created when absent.
type CreateContactRequest struct {
	Salutation  string      `json:"salutation,omitempty" validate:"max=20"`
	FirstName   string      `json:"firstName,omitempty" validate:"max=100"`
	LastName    string      `json:"lastName" validate:"required,max=100"`
	AccountID   *uuid.UUID  `json:"accountId,omitempty"`
	AccountName string      `json:"accountName,omitempty" validate:"max=255"`
	Title       string      `json:"title,omitempty" validate:"max=128"`
	Email       string      `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone       string      `json:"phone,omitempty" validate:"max=50"`
	Mobile      string      `json:"mobile,omitempty" validate:"max=50"`
	ReportsToID *uuid.UUID  `json:"reportsToId,omitempty"`
	Owner       string      `json:"owner,omitempty" validate:"max=200"`
	Mailing     *AddressDTO `json:"mailingAddress,omitempty"`
}

type UpdateContactRequest struct {
	Salutation  *string     `json:"salutation,omitempty" validate:"omitempty,max=20"`
	FirstName   *string     `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName    *string     `json:"lastName,omitempty" validate:"omitempty,max=100"`
	AccountID   *uuid.UUID  `json:"accountId,omitempty"`
	Title       *string     `json:"title,omitempty" validate:"omitempty,max=128"`
	Email       *string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone       *string     `json:"phone,omitempty" validate:"omitempty,max=50"`
	Mobile      *string     `json:"mobile,omitempty" validate:"omitempty,max=50"`
	ReportsToID *uuid.UUID  `json:"reportsToId,omitempty"`
	Owner       *string     `json:"owner,omitempty" validate:"omitempty,max=200"`
	Mailing     *AddressDTO `json:"mailingAddress,omitempty"`
}

type CreateOpportunityRequest struct {
	Name             string           `json:"name" validate:"required,max=120"`
	AccountID        *uuid.UUID       `json:"accountId,omitempty"`
	AccountName      string           `json:"accountName,omitempty" validate:"max=255"`
	Stage            OpportunityStage `json:"stage" validate:"required"`
	CloseDate        string           `json:"closeDate" validate:"required,datetime=2006-01-02"`
	Amount           *decimal.Decimal `json:"amount,omitempty"`
	Probability      *int             `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	ForecastCategory ForecastCategory `json:"forecastCategory,omitempty"`
	NextStep         string           `json:"nextStep,omitempty" validate:"max=255"`
	Description      string           `json:"description,omitempty"`
	Owner            string           `json:"owner,omitempty" validate:"max=200"`
}

type UpdateOpportunityRequest struct {
	Name             *string           `json:"name,omitempty" validate:"omitempty,max=120"`
	AccountID        *uuid.UUID        `json:"accountId,omitempty"`
	Stage            *OpportunityStage `json:"stage,omitempty"`
	CloseDate        *string           `json:"closeDate,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Amount           *decimal.Decimal  `json:"amount,omitempty"`
	Probability      *int              `json:"probability,omitempty" validate:"omitempty,gte=0,lte=100"`
	ForecastCategory *ForecastCategory `json:"forecastCategory,omitempty"`
	NextStep         *string           `json:"nextStep,omitempty" validate:"omitempty,max=255"`
	Description      *string           `json:"description,omitempty"`
	Owner            *string           `json:"owner,omitempty" validate:"omitempty,max=200"`
}

type CreateLeadRequest struct {
	Salutation  string     `json:"salutation,omitempty" validate:"max=20"`
	FirstName   string     `json:"firstName,omitempty" validate:"max=100"`
	LastName    string     `json:"lastName" validate:"required,max=100"`
	Company     string     `json:"company,omitempty" validate:"max=255"`
	Title       string     `json:"title,omitempty" validate:"max=128"`
	Email       string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone       string     `json:"phone,omitempty" validate:"max=50"`
	Status      LeadStatus `json:"status,omitempty"`
	Owner       string     `json:"owner,omitempty" validate:"max=200"`
	Description string     `json:"description,omitempty"`
}

type UpdateLeadRequest struct {
	Salutation  *string     `json:"salutation,omitempty" validate:"omitempty,max=20"`
	FirstName   *string     `json:"firstName,omitempty" validate:"omitempty,max=100"`
	LastName    *string     `json:"lastName,omitempty" validate:"omitempty,max=100"`
	Company     *string     `json:"company,omitempty" validate:"omitempty,max=255"`
	Title       *string     `json:"title,omitempty" validate:"omitempty,max=128"`
	Email       *string     `json:"email,omitempty" validate:"omitempty,email,max=255"`
	Phone       *string     `json:"phone,omitempty" validate:"omitempty,max=50"`
	Status      *LeadStatus `json:"status,omitempty"`
	Owner       *string     `json:"owner,omitempty" validate:"omitempty,max=200"`
	Description *string     `json:"description,omitempty"`
}

// ConversionMode selects how each target record of a lead conversion is resolved
type ConversionMode string

const (
	ConversionModeCreate   ConversionMode = "create"
	ConversionModeExisting ConversionMode = "existing"
	ConversionModeSkip     ConversionMode = "skip"
)

// Conversion choices are validated by the service once the lead is loaded.
type AccountConversionChoice struct {
	Mode ConversionMode `json:"mode"`
	ID   *uuid.UUID     `json:"id,omitempty"`
	Name string         `json:"name,omitempty"`
}

type ContactConversionChoice struct {
	Mode       ConversionMode `json:"mode"`
	ID         *uuid.UUID     `json:"id,omitempty"`
	Salutation string         `json:"salutation,omitempty"`
	FirstName  string         `json:"firstName,omitempty"`
	LastName   string         `json:"lastName,omitempty"`
}

type OpportunityConversionChoice struct {
	Mode ConversionMode `json:"mode"`
	ID   *uuid.UUID     `json:"id,omitempty"`
	Name string         `json:"name,omitempty"`
}

type ConvertLeadRequest struct {
	Account         AccountConversionChoice     `json:"account"`
	Contact         ContactConversionChoice     `json:"contact"`
	Opportunity     OpportunityConversionChoice `json:"opportunity"`
	ConvertedStatus string                      `json:"convertedStatus,omitempty"`
	RecordOwner     string                      `json:"recordOwner,omitempty"`
}

type ConvertLeadResult struct {
	LeadID             uuid.UUID  `json:"leadId"`
	AccountID          uuid.UUID  `json:"accountId"`
	ContactID          uuid.UUID  `json:"contactId"`
	OpportunityID      *uuid.UUID `json:"opportunityId,omitempty"`
	AccountCreated     bool       `json:"accountCreated"`
	ContactCreated     bool       `json:"contactCreated"`
	OpportunityCreated bool       `json:"opportunityCreated"`
	Lead               LeadDTO    `json:"lead"`
}
