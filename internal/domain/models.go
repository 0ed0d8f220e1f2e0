package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Base model with common fields
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// BeforeCreate assigns an ID when the caller did not set one.
func (b *BaseModel) BeforeCreate(tx *gorm.DB) error {
	if b.ID == uuid.Nil {
		b.ID = uuid.New()
	}
	return nil
}

// Address is a postal address stored inline on its owning record
type Address struct {
	Street     string `gorm:"type:varchar(255)"`
	City       string `gorm:"type:varchar(100)"`
	State      string `gorm:"type:varchar(100)"`
	PostalCode string `gorm:"type:varchar(20)"`
	Country    string `gorm:"type:varchar(100)"`
}

// AccountType classifies the relationship with an account
type AccountType string

const (
	AccountTypeProspect        AccountType = "Prospect"
	AccountTypeCustomerDirect  AccountType = "Customer - Direct"
	AccountTypeCustomerChannel AccountType = "Customer - Channel"
	AccountTypePartner         AccountType = "Partner"
	AccountTypeOther           AccountType = "Other"
)

// IsValid checks if the AccountType is a valid enum value
func (t AccountType) IsValid() bool {
	switch t {
	case AccountTypeProspect, AccountTypeCustomerDirect, AccountTypeCustomerChannel, AccountTypePartner, AccountTypeOther:
		return true
	}
	return false
}

// Account represents an organization in the CRM.
// Name is the reconciliation key (matched case-insensitively) but is not unique.
// NameKey holds the folded name and is maintained by BeforeSave.
type Account struct {
	BaseModel
	Name            string      `gorm:"type:varchar(255);not null;index"`
	NameKey         string      `gorm:"type:varchar(255);column:name_key;not null;index"`
	Owner           string      `gorm:"type:varchar(200);index"`
	Type            AccountType `gorm:"type:varchar(50);index"`
	Website         string      `gorm:"type:varchar(255)"`
	Phone           string      `gorm:"type:varchar(50)"`
	Description     string      `gorm:"type:text"`
	ParentAccountID *uuid.UUID  `gorm:"type:uuid;column:parent_account_id;index"`
	Billing         Address     `gorm:"embedded;embeddedPrefix:billing_"`
	Shipping        Address     `gorm:"embedded;embeddedPrefix:shipping_"`
}

// BeforeSave keeps NameKey in step with Name. Folding happens here rather than
// in SQL because SQLite's LOWER only folds ASCII.
func (a *Account) BeforeSave(tx *gorm.DB) error {
	a.NameKey = NormalizeAccountName(a.Name)
	return nil
}

// NormalizeAccountName returns the key used to match account names.
func NormalizeAccountName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// Contact represents an individual person working for an account
type Contact struct {
	BaseModel
	Salutation  string     `gorm:"type:varchar(20)"`
	FirstName   string     `gorm:"type:varchar(100);column:first_name"`
	LastName    string     `gorm:"type:varchar(100);not null;column:last_name"`
	AccountID   uuid.UUID  `gorm:"type:uuid;not null;column:account_id;index"`
	Account     *Account   `gorm:"foreignKey:AccountID"`
	Title       string     `gorm:"type:varchar(128)"`
	Email       string     `gorm:"type:varchar(255);index"`
	Phone       string     `gorm:"type:varchar(50)"`
	Mobile      string     `gorm:"type:varchar(50)"`
	ReportsToID *uuid.UUID `gorm:"type:uuid;column:reports_to_id;index"`
	Owner       string     `gorm:"type:varchar(200)"`
	Mailing     Address    `gorm:"embedded;embeddedPrefix:mailing_"`
}

// FullName returns the contact's display name
func (c *Contact) FullName() string {
	return joinName(c.Salutation, c.FirstName, c.LastName)
}

// OpportunityStage represents the sales stage of an opportunity
type OpportunityStage string

const (
	OpportunityStageQualify     OpportunityStage = "Qualify"
	OpportunityStageMeetPresent OpportunityStage = "Meet & Present"
	OpportunityStagePropose     OpportunityStage = "Propose"
	OpportunityStageNegotiate   OpportunityStage = "Negotiate"
	OpportunityStageClosedWon   OpportunityStage = "Closed Won"
	OpportunityStageClosedLost  OpportunityStage = "Closed Lost"
)

// stageProbabilities maps stages to their default win probability
var stageProbabilities = map[OpportunityStage]int{
	OpportunityStageQualify:     10,
	OpportunityStageMeetPresent: 20,
	OpportunityStagePropose:     50,
	OpportunityStageNegotiate:   80,
	OpportunityStageClosedWon:   100,
	OpportunityStageClosedLost:  0,
}

// IsValid checks if the OpportunityStage is a valid enum value
func (s OpportunityStage) IsValid() bool {
	_, ok := stageProbabilities[s]
	return ok
}

// IsClosed reports whether the stage ends the opportunity
func (s OpportunityStage) IsClosed() bool {
	return s == OpportunityStageClosedWon || s == OpportunityStageClosedLost
}

// DefaultProbability returns the win probability implied by the stage
func (s OpportunityStage) DefaultProbability() int {
	return stageProbabilities[s]
}

// DefaultForecastCategory returns the forecast bucket implied by the stage
func (s OpportunityStage) DefaultForecastCategory() ForecastCategory {
	switch s {
	case OpportunityStageClosedWon:
		return ForecastCategoryClosed
	case OpportunityStageClosedLost:
		return ForecastCategoryOmitted
	default:
		return ForecastCategoryPipeline
	}
}

// ForecastCategory buckets an opportunity for forecasting
type ForecastCategory string

const (
	ForecastCategoryOmitted  ForecastCategory = "Omitted"
	ForecastCategoryPipeline ForecastCategory = "Pipeline"
	ForecastCategoryBestCase ForecastCategory = "Best Case"
	ForecastCategoryCommit   ForecastCategory = "Commit"
	ForecastCategoryClosed   ForecastCategory = "Closed"
)

// IsValid checks if the ForecastCategory is a valid enum value
func (f ForecastCategory) IsValid() bool {
	switch f {
	case ForecastCategoryOmitted, ForecastCategoryPipeline, ForecastCategoryBestCase, ForecastCategoryCommit, ForecastCategoryClosed:
		return true
	}
	return false
}

// Opportunity represents a potential sale against an account
type Opportunity struct {
	BaseModel
	Name             string           `gorm:"type:varchar(120);not null;index"`
	AccountID        uuid.UUID        `gorm:"type:uuid;not null;column:account_id;index"`
	Account          *Account         `gorm:"foreignKey:AccountID"`
	Stage            OpportunityStage `gorm:"type:varchar(50);not null;index"`
	CloseDate        time.Time        `gorm:"type:date;not null;column:close_date;index"`
	Amount           decimal.Decimal  `gorm:"type:decimal(15,2);not null;default:0"`
	Probability      int              `gorm:"not null;default:0"`
	ForecastCategory ForecastCategory `gorm:"type:varchar(50);not null;column:forecast_category"`
	NextStep         string           `gorm:"type:varchar(255);column:next_step"`
	Description      string           `gorm:"type:text"`
	Owner            string           `gorm:"type:varchar(200)"`
}

// LeadStatus represents where a lead is in qualification
type LeadStatus string

const (
	LeadStatusOpen         LeadStatus = "Open - Not Contacted"
	LeadStatusWorking      LeadStatus = "Working - Contacted"
	LeadStatusNotConverted LeadStatus = "Closed - Not Converted"
	// LeadStatusConverted is terminal and only reachable through conversion
	LeadStatusConverted LeadStatus = "Closed - Converted"
)

// IsValid checks if the LeadStatus is a valid enum value
func (s LeadStatus) IsValid() bool {
	switch s {
	case LeadStatusOpen, LeadStatusWorking, LeadStatusNotConverted, LeadStatusConverted:
		return true
	}
	return false
}

// Lead represents a prospective customer not yet qualified
type Lead struct {
	BaseModel
	Salutation             string     `gorm:"type:varchar(20)"`
	FirstName              string     `gorm:"type:varchar(100);column:first_name"`
	LastName               string     `gorm:"type:varchar(100);not null;column:last_name"`
	Company                string     `gorm:"type:varchar(255);index"`
	Title                  string     `gorm:"type:varchar(128)"`
	Email                  string     `gorm:"type:varchar(255);index"`
	Phone                  string     `gorm:"type:varchar(50)"`
	Status                 LeadStatus `gorm:"type:varchar(50);not null;index"`
	Owner                  string     `gorm:"type:varchar(200)"`
	Description            string     `gorm:"type:text"`
	ConvertedStatus        string     `gorm:"type:varchar(50);column:converted_status"`
	ConvertedAccountID     *uuid.UUID `gorm:"type:uuid;column:converted_account_id"`
	ConvertedContactID     *uuid.UUID `gorm:"type:uuid;column:converted_contact_id"`
	ConvertedOpportunityID *uuid.UUID `gorm:"type:uuid;column:converted_opportunity_id"`
	ConvertedAt            *time.Time `gorm:"column:converted_at"`
}

// IsConverted reports whether the lead has reached its terminal state
func (l *Lead) IsConverted() bool {
	return l.Status == LeadStatusConverted
}

// FullName returns the lead's display name
func (l *Lead) FullName() string {
	return joinName("", l.FirstName, l.LastName)
}

// ActivityTargetType represents the type of entity an activity is associated with
type ActivityTargetType string

const (
	ActivityTargetAccount     ActivityTargetType = "Account"
	ActivityTargetContact     ActivityTargetType = "Contact"
	ActivityTargetOpportunity ActivityTargetType = "Opportunity"
	ActivityTargetLead        ActivityTargetType = "Lead"
)

// IsValid checks if the ActivityTargetType is a valid enum value
func (t ActivityTargetType) IsValid() bool {
	switch t {
	case ActivityTargetAccount, ActivityTargetContact, ActivityTargetOpportunity, ActivityTargetLead:
		return true
	}
	return false
}

// Activity represents an event log entry for any entity
type Activity struct {
	BaseModel
	TargetType  ActivityTargetType `gorm:"type:varchar(50);not null;index;column:target_type"`
	TargetID    uuid.UUID          `gorm:"type:uuid;not null;index;column:target_id"`
	Title       string             `gorm:"type:varchar(200);not null"`
	Body        string             `gorm:"type:varchar(2000)"`
	OccurredAt  time.Time          `gorm:"not null;index;column:occurred_at"`
	CreatorName string             `gorm:"type:varchar(200);column:creator_name"`
}

func joinName(parts ...string) string {
	nonEmpty := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	return strings.Join(nonEmpty, " ")
}
