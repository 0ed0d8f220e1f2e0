package mapper_test

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/mapper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToContactDTO(t *testing.T) {
	account := &domain.Account{BaseModel: domain.BaseModel{ID: uuid.New()}, Name: "Acme"}
	contact := &domain.Contact{
		BaseModel: domain.BaseModel{
			ID:        uuid.New(),
			CreatedAt: time.Date(2026, 3, 1, 12, 30, 0, 0, time.UTC),
		},
		Salutation: "Ms.",
		FirstName:  "Jane",
		LastName:   "Doe",
		AccountID:  account.ID,
		Account:    account,
		Mailing:    domain.Address{City: "Oslo", Country: "Norway"},
	}

	dto := mapper.ToContactDTO(contact)

	assert.Equal(t, "Ms. Jane Doe", dto.FullName)
	assert.Equal(t, "Acme", dto.AccountName)
	assert.Equal(t, "Oslo", dto.Mailing.City)
	assert.Equal(t, "2026-03-01T12:30:00Z", dto.CreatedAt)
}

func TestToOpportunityDTO(t *testing.T) {
	opp := &domain.Opportunity{
		BaseModel: domain.BaseModel{ID: uuid.New()},
		Name:      "Acme - Jane Doe",
		Stage:     domain.OpportunityStagePropose,
		CloseDate: time.Date(2026, 12, 31, 0, 0, 0, 0, time.UTC),
		Amount:    decimal.RequireFromString("1999.90"),
	}

	dto := mapper.ToOpportunityDTO(opp)

	assert.Equal(t, "2026-12-31", dto.CloseDate)
	assert.True(t, dto.Amount.Equal(decimal.RequireFromString("1999.9")))
	assert.Empty(t, dto.AccountName)
}

func TestToLeadDTO(t *testing.T) {
	convertedAt := time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC)
	accountID := uuid.New()

	open := mapper.ToLeadDTO(&domain.Lead{LastName: "Doe", Status: domain.LeadStatusOpen})
	assert.False(t, open.IsConverted)
	assert.Empty(t, open.ConvertedAt)
	assert.Equal(t, "Doe", open.FullName)

	converted := mapper.ToLeadDTO(&domain.Lead{
		FirstName:          "Jane",
		LastName:           "Doe",
		Status:             domain.LeadStatusConverted,
		ConvertedStatus:    "Qualified",
		ConvertedAccountID: &accountID,
		ConvertedAt:        &convertedAt,
	})
	assert.True(t, converted.IsConverted)
	assert.Equal(t, "2026-05-04T08:00:00Z", converted.ConvertedAt)
	assert.Equal(t, &accountID, converted.ConvertedAccountID)
}

func TestAddressRoundTripFromNil(t *testing.T) {
	assert.Equal(t, domain.Address{}, mapper.FromAddressDTO(nil))
}

func TestParseDate(t *testing.T) {
	d, err := mapper.ParseDate("2026-02-28")
	require.NoError(t, err)
	assert.Equal(t, time.UTC, d.Location())

	_, err = mapper.ParseDate("28.02.2026")
	assert.Error(t, err)
}
