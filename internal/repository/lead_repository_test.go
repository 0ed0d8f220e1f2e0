package repository_test

import (
	"context"
	"testing"
	"time"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLeadRepository_MarkConverted(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()

	lead := testutil.CreateTestLead(t, db, "Jane", "Doe", "Acme")
	account := testutil.CreateTestAccount(t, db, "Acme")
	contact := testutil.CreateTestContact(t, db, account.ID, "Jane", "Doe")

	conv := repository.LeadConversion{
		ConvertedStatus: "Qualified",
		AccountID:       account.ID,
		ContactID:       contact.ID,
		ConvertedAt:     time.Now().UTC(),
	}

	ok, err := repo.MarkConverted(ctx, lead.ID, conv)
	require.NoError(t, err)
	assert.True(t, ok)

	stored, err := repo.GetByID(ctx, lead.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.LeadStatusConverted, stored.Status)
	assert.Equal(t, "Qualified", stored.ConvertedStatus)
	require.NotNil(t, stored.ConvertedAccountID)
	assert.Equal(t, account.ID, *stored.ConvertedAccountID)
	assert.Nil(t, stored.ConvertedOpportunityID)

	// A second conversion does not touch the row
	ok, err = repo.MarkConverted(ctx, lead.ID, conv)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestLeadRepository_ListConvertedFilter(t *testing.T) {
	db := testutil.SetupTestDB(t)
	repo := repository.NewLeadRepository(db)
	ctx := context.Background()

	open := testutil.CreateTestLead(t, db, "Jane", "Doe", "Acme")
	converted := testutil.CreateTestLead(t, db, "John", "Roe", "Globex")
	account := testutil.CreateTestAccount(t, db, "Globex")
	contact := testutil.CreateTestContact(t, db, account.ID, "John", "Roe")
	_, err := repo.MarkConverted(ctx, converted.ID, repository.LeadConversion{
		ConvertedStatus: "Qualified",
		AccountID:       account.ID,
		ContactID:       contact.ID,
		ConvertedAt:     time.Now().UTC(),
	})
	require.NoError(t, err)

	yes, no := true, false
	leads, err := repo.List(ctx, repository.LeadFilters{Converted: &yes}, repository.DefaultSortConfig())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, converted.ID, leads[0].ID)

	leads, err = repo.List(ctx, repository.LeadFilters{Converted: &no}, repository.DefaultSortConfig())
	require.NoError(t, err)
	require.Len(t, leads, 1)
	assert.Equal(t, open.ID, leads[0].ID)

	leads, err = repo.List(ctx, repository.LeadFilters{Search: "glob"}, repository.DefaultSortConfig())
	require.NoError(t, err)
	assert.Len(t, leads, 1)
}
