package service_test

import (
	"context"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func createAll() *domain.ConvertLeadRequest {
	return &domain.ConvertLeadRequest{
		Account:     domain.AccountConversionChoice{Mode: domain.ConversionModeCreate},
		Contact:     domain.ContactConversionChoice{Mode: domain.ConversionModeCreate},
		Opportunity: domain.OpportunityConversionChoice{Mode: domain.ConversionModeCreate},
	}
}

func TestLeadService_ConvertLead_CreatesEverything(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", "Acme")

	req := createAll()
	req.ConvertedStatus = "Closed - Won Interest"
	result, err := s.leads.ConvertLead(ctx, lead.ID, req)
	require.NoError(t, err)

	assert.True(t, result.AccountCreated)
	assert.True(t, result.ContactCreated)
	assert.True(t, result.OpportunityCreated)
	require.NotNil(t, result.OpportunityID)

	account, err := s.accounts.GetByID(ctx, result.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "Acme", account.Name)
	assert.Equal(t, domain.AccountTypeProspect, account.Type)
	assert.Equal(t, "Lead Owner", account.Owner, "lead owner is used when nobody else is named")

	contact, err := s.contacts.GetByID(ctx, result.ContactID)
	require.NoError(t, err)
	assert.Equal(t, "Jane", contact.FirstName)
	assert.Equal(t, "Doe", contact.LastName)
	assert.Equal(t, result.AccountID, contact.AccountID)
	assert.Equal(t, "Acme", contact.AccountName)

	opp, err := s.opportunities.GetByID(ctx, *result.OpportunityID)
	require.NoError(t, err)
	assert.Equal(t, "Acme - Jane Doe", opp.Name)
	assert.Equal(t, result.AccountID, opp.AccountID)
	assert.Equal(t, domain.OpportunityStageQualify, opp.Stage)
	assert.NotEmpty(t, opp.CloseDate)

	converted := result.Lead
	assert.True(t, converted.IsConverted)
	assert.Equal(t, domain.LeadStatusConverted, converted.Status)
	assert.Equal(t, "Closed - Won Interest", converted.ConvertedStatus)
	require.NotNil(t, converted.ConvertedAccountID)
	assert.Equal(t, result.AccountID, *converted.ConvertedAccountID)
	require.NotNil(t, converted.ConvertedContactID)
	assert.Equal(t, result.ContactID, *converted.ConvertedContactID)
	require.NotNil(t, converted.ConvertedOpportunityID)
	assert.Equal(t, *result.OpportunityID, *converted.ConvertedOpportunityID)
	assert.NotEmpty(t, converted.ConvertedAt)

	published := s.publisher.ofType(events.LeadConverted)
	require.Len(t, published, 1)
}

func TestLeadService_ConvertLead_SkipOpportunity(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", "Acme")

	req := createAll()
	req.Opportunity.Mode = domain.ConversionModeSkip
	result, err := s.leads.ConvertLead(ctx, lead.ID, req)
	require.NoError(t, err)

	assert.Nil(t, result.OpportunityID)
	assert.False(t, result.OpportunityCreated)
	assert.Nil(t, result.Lead.ConvertedOpportunityID)
	assert.Equal(t, int64(0), testutil.CountRows(t, s.db, &domain.Opportunity{}))
	assert.Equal(t, testDefaults.ConvertedStatus, result.Lead.ConvertedStatus)
}

func TestLeadService_ConvertLead_UsesExistingRecords(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	account := testutil.CreateTestAccount(t, s.db, "Acme")
	contact := testutil.CreateTestContact(t, s.db, account.ID, "Jane", "Doe")
	opp := testutil.CreateTestOpportunity(t, s.db, account.ID, "Acme renewal")
	lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", "Acme")

	result, err := s.leads.ConvertLead(ctx, lead.ID, &domain.ConvertLeadRequest{
		Account:     domain.AccountConversionChoice{Mode: domain.ConversionModeExisting, ID: &account.ID},
		Contact:     domain.ContactConversionChoice{Mode: domain.ConversionModeExisting, ID: &contact.ID},
		Opportunity: domain.OpportunityConversionChoice{Mode: domain.ConversionModeExisting, ID: &opp.ID},
	})
	require.NoError(t, err)

	assert.Equal(t, account.ID, result.AccountID)
	assert.Equal(t, contact.ID, result.ContactID)
	require.NotNil(t, result.OpportunityID)
	assert.Equal(t, opp.ID, *result.OpportunityID)
	assert.False(t, result.AccountCreated)
	assert.False(t, result.ContactCreated)
	assert.False(t, result.OpportunityCreated)

	assert.Equal(t, int64(1), testutil.CountRows(t, s.db, &domain.Account{}))
	assert.Equal(t, int64(1), testutil.CountRows(t, s.db, &domain.Contact{}))
	assert.Equal(t, int64(1), testutil.CountRows(t, s.db, &domain.Opportunity{}))
}

func TestLeadService_ConvertLead_NewContactUnderExistingAccount(t *testing.T) {
	s := setupServices(t)
	ctx := testutil.UserContext("Dana")
	account := testutil.CreateTestAccount(t, s.db, "Acme")
	lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", "Acme")

	req := createAll()
	req.Account = domain.AccountConversionChoice{Mode: domain.ConversionModeExisting, ID: &account.ID}
	req.Contact.LastName = "Doe-Smith"
	req.Opportunity.Name = "Acme pilot"
	result, err := s.leads.ConvertLead(ctx, lead.ID, req)
	require.NoError(t, err)

	contact, err := s.contacts.GetByID(context.Background(), result.ContactID)
	require.NoError(t, err)
	assert.Equal(t, account.ID, contact.AccountID)
	assert.Equal(t, "Doe-Smith", contact.LastName)
	assert.Equal(t, "Dana", contact.Owner, "caller is preferred over the lead owner")

	opp, err := s.opportunities.GetByID(context.Background(), *result.OpportunityID)
	require.NoError(t, err)
	assert.Equal(t, "Acme pilot", opp.Name)
	assert.Equal(t, int64(1), testutil.CountRows(t, s.db, &domain.Account{}))
}

func TestLeadService_ConvertLead_RecordOwnerWins(t *testing.T) {
	s := setupServices(t)
	lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", "Acme")

	req := createAll()
	req.RecordOwner = "Erin"
	result, err := s.leads.ConvertLead(testutil.UserContext("Dana"), lead.ID, req)
	require.NoError(t, err)

	account, err := s.accounts.GetByID(context.Background(), result.AccountID)
	require.NoError(t, err)
	assert.Equal(t, "Erin", account.Owner)
}

func TestLeadService_ConvertLead_AlreadyConverted(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", "Acme")

	_, err := s.leads.ConvertLead(ctx, lead.ID, createAll())
	require.NoError(t, err)

	accounts := testutil.CountRows(t, s.db, &domain.Account{})
	contacts := testutil.CountRows(t, s.db, &domain.Contact{})
	opportunities := testutil.CountRows(t, s.db, &domain.Opportunity{})

	_, err = s.leads.ConvertLead(ctx, lead.ID, createAll())
	assert.ErrorIs(t, err, service.ErrAlreadyConverted)

	assert.Equal(t, accounts, testutil.CountRows(t, s.db, &domain.Account{}))
	assert.Equal(t, contacts, testutil.CountRows(t, s.db, &domain.Contact{}))
	assert.Equal(t, opportunities, testutil.CountRows(t, s.db, &domain.Opportunity{}))

	t.Run("invalid decisions still report the conversion", func(t *testing.T) {
		req := createAll()
		req.Opportunity = domain.OpportunityConversionChoice{Mode: domain.ConversionModeExisting}
		req.Contact.Mode = "bogus"

		_, err := s.leads.ConvertLead(ctx, lead.ID, req)
		assert.ErrorIs(t, err, service.ErrAlreadyConverted)
		assert.NotErrorIs(t, err, service.ErrInvalidInput)

		_, err = s.leads.ConvertLead(ctx, lead.ID, nil)
		assert.ErrorIs(t, err, service.ErrAlreadyConverted)
	})
}

func TestLeadService_ConvertLead_Rejections(t *testing.T) {
	missing := uuid.New()

	tests := []struct {
		name      string
		company   string
		req       func() *domain.ConvertLeadRequest
		wantField string
	}{
		{
			name: "unknown account mode",
			req: func() *domain.ConvertLeadRequest {
				r := createAll()
				r.Account.Mode = domain.ConversionModeSkip
				return r
			},
			wantField: "account.mode",
		},
		{
			name: "existing account without id",
			req: func() *domain.ConvertLeadRequest {
				r := createAll()
				r.Account.Mode = domain.ConversionModeExisting
				return r
			},
			wantField: "account.id",
		},
		{
			name: "existing account that does not exist",
			req: func() *domain.ConvertLeadRequest {
				r := createAll()
				r.Account = domain.AccountConversionChoice{Mode: domain.ConversionModeExisting, ID: &missing}
				return r
			},
			wantField: "account.id",
		},
		{
			name: "existing contact that does not exist",
			req: func() *domain.ConvertLeadRequest {
				r := createAll()
				r.Contact = domain.ContactConversionChoice{Mode: domain.ConversionModeExisting, ID: &missing}
				return r
			},
			wantField: "contact.id",
		},
		{
			name: "existing opportunity that does not exist",
			req: func() *domain.ConvertLeadRequest {
				r := createAll()
				r.Opportunity = domain.OpportunityConversionChoice{Mode: domain.ConversionModeExisting, ID: &missing}
				return r
			},
			wantField: "opportunity.id",
		},
		{
			name:      "new account without a name",
			company:   "-",
			req:       createAll,
			wantField: "account.name",
		},
		{
			name:      "company too long for a new account",
			company:   strings.Repeat("é", 256),
			req:       createAll,
			wantField: "account.name",
		},
		{
			name: "account name too long",
			req: func() *domain.ConvertLeadRequest {
				r := createAll()
				r.Account.Name = strings.Repeat("a", 256)
				return r
			},
			wantField: "account.name",
		},
		{
			name: "contact first name too long",
			req: func() *domain.ConvertLeadRequest {
				r := createAll()
				r.Contact.FirstName = strings.Repeat("ø", 101)
				return r
			},
			wantField: "contact.firstName",
		},
		{
			name: "opportunity name too long",
			req: func() *domain.ConvertLeadRequest {
				r := createAll()
				r.Opportunity.Name = strings.Repeat("o", 121)
				return r
			},
			wantField: "opportunity.name",
		},
		{
			name: "terminal status as converted status",
			req: func() *domain.ConvertLeadRequest {
				r := createAll()
				r.ConvertedStatus = string(domain.LeadStatusConverted)
				return r
			},
			wantField: "convertedStatus",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := setupServices(t)
			company := "Acme"
			switch tt.company {
			case "":
			case "-":
				company = ""
			default:
				company = tt.company
			}
			lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", company)

			_, err := s.leads.ConvertLead(context.Background(), lead.ID, tt.req())
			var verr *service.ValidationError
			require.ErrorAs(t, err, &verr)
			assert.Contains(t, verr.Fields, tt.wantField)

			assert.Equal(t, int64(0), testutil.CountRows(t, s.db, &domain.Account{}))
			assert.Equal(t, int64(0), testutil.CountRows(t, s.db, &domain.Contact{}))
			assert.Equal(t, int64(0), testutil.CountRows(t, s.db, &domain.Opportunity{}))

			reloaded, err := s.leads.GetByID(context.Background(), lead.ID)
			require.NoError(t, err)
			assert.False(t, reloaded.IsConverted)
		})
	}
}

func TestLeadService_ConvertLead_UnknownLead(t *testing.T) {
	s := setupServices(t)

	_, err := s.leads.ConvertLead(context.Background(), uuid.New(), createAll())
	assert.ErrorIs(t, err, service.ErrLeadNotFound)
	assert.Equal(t, int64(0), testutil.CountRows(t, s.db, &domain.Account{}))

	invalid := createAll()
	invalid.Account = domain.AccountConversionChoice{Mode: domain.ConversionModeExisting}
	_, err = s.leads.ConvertLead(context.Background(), uuid.New(), invalid)
	assert.ErrorIs(t, err, service.ErrLeadNotFound)
	assert.NotErrorIs(t, err, service.ErrInvalidInput)
}

func TestLeadService_ConvertLead_RollsBackOnFailure(t *testing.T) {
	s := setupServices(t)
	lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", "Acme")

	// Opportunity creation fails after account and contact were written
	require.NoError(t, s.db.Migrator().DropTable(&domain.Opportunity{}))

	_, err := s.leads.ConvertLead(context.Background(), lead.ID, createAll())
	require.Error(t, err)
	assert.NotErrorIs(t, err, service.ErrInvalidInput)

	assert.Equal(t, int64(0), testutil.CountRows(t, s.db, &domain.Account{}))
	assert.Equal(t, int64(0), testutil.CountRows(t, s.db, &domain.Contact{}))

	reloaded, err := s.leads.GetByID(context.Background(), lead.ID)
	require.NoError(t, err)
	assert.False(t, reloaded.IsConverted)
	assert.Equal(t, domain.LeadStatusOpen, reloaded.Status)
	assert.Empty(t, s.publisher.ofType(events.LeadConverted))
}

func TestLeadService_ConvertLead_LongDefaultOpportunityName(t *testing.T) {
	s := setupServices(t)
	lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", strings.Repeat("Acme ", 40))

	result, err := s.leads.ConvertLead(context.Background(), lead.ID, createAll())
	require.NoError(t, err)

	opp, err := s.opportunities.GetByID(context.Background(), *result.OpportunityID)
	require.NoError(t, err)
	assert.LessOrEqual(t, len(opp.Name), 120)
}

func TestLeadService_ConvertLead_MultibyteDefaultOpportunityName(t *testing.T) {
	s := setupServices(t)
	lead := testutil.CreateTestLead(t, s.db, "Jane", "Doe", "a"+strings.Repeat("é", 130))

	result, err := s.leads.ConvertLead(context.Background(), lead.ID, createAll())
	require.NoError(t, err)

	opp, err := s.opportunities.GetByID(context.Background(), *result.OpportunityID)
	require.NoError(t, err)
	assert.True(t, utf8.ValidString(opp.Name))
	assert.Equal(t, 120, utf8.RuneCountInString(opp.Name))
}
