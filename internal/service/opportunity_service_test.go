package service_test

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpportunityService_Create(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	account := testutil.CreateTestAccount(t, s.db, "Acme")
	amount := decimal.RequireFromString("12500.456")

	tests := []struct {
		name       string
		req        *domain.CreateOpportunityRequest
		wantFields []string
	}{
		{
			name: "valid",
			req: &domain.CreateOpportunityRequest{
				Name:      "Acme expansion",
				AccountID: &account.ID,
				Stage:     domain.OpportunityStagePropose,
				CloseDate: "2026-12-31",
				Amount:    &amount,
			},
		},
		{
			name:       "missing close date",
			req:        &domain.CreateOpportunityRequest{Name: "X", AccountID: &account.ID, Stage: domain.OpportunityStageQualify},
			wantFields: []string{"closeDate"},
		},
		{
			name:       "malformed close date",
			req:        &domain.CreateOpportunityRequest{Name: "X", AccountID: &account.ID, Stage: domain.OpportunityStageQualify, CloseDate: "31/12/2026"},
			wantFields: []string{"closeDate"},
		},
		{
			name:       "missing account",
			req:        &domain.CreateOpportunityRequest{Name: "X", Stage: domain.OpportunityStageQualify, CloseDate: "2026-12-31"},
			wantFields: []string{"accountId"},
		},
		{
			name:       "missing name and stage",
			req:        &domain.CreateOpportunityRequest{AccountID: &account.ID, CloseDate: "2026-12-31"},
			wantFields: []string{"name", "stage"},
		},
		{
			name:       "unknown stage",
			req:        &domain.CreateOpportunityRequest{Name: "X", AccountID: &account.ID, Stage: "Dreaming", CloseDate: "2026-12-31"},
			wantFields: []string{"stage"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			opp, err := s.opportunities.Create(ctx, tt.req)
			if len(tt.wantFields) > 0 {
				var verr *service.ValidationError
				require.ErrorAs(t, err, &verr)
				for _, f := range tt.wantFields {
					assert.Contains(t, verr.Fields, f)
				}
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "2026-12-31", opp.CloseDate)
			assert.Equal(t, 50, opp.Probability)
			assert.Equal(t, domain.OpportunityStagePropose.DefaultForecastCategory(), opp.ForecastCategory)
			assert.True(t, decimal.RequireFromString("12500.46").Equal(opp.Amount))
			assert.Equal(t, "Acme", opp.AccountName)
		})
	}
}

func TestOpportunityService_Create_ResolvesAccountByName(t *testing.T) {
	s := setupServices(t)
	existing := testutil.CreateTestAccount(t, s.db, "Acme")

	opp, err := s.opportunities.Create(context.Background(), &domain.CreateOpportunityRequest{
		Name:        "Acme pilot",
		AccountName: "acme",
		Stage:       domain.OpportunityStageQualify,
		CloseDate:   "2026-06-30",
	})
	require.NoError(t, err)
	assert.Equal(t, existing.ID, opp.AccountID)
	assert.Equal(t, int64(1), testutil.CountRows(t, s.db, &domain.Account{}))
}

func TestOpportunityService_Update_StageChange(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	account := testutil.CreateTestAccount(t, s.db, "Acme")
	opp := testutil.CreateTestOpportunity(t, s.db, account.ID, "Acme deal")

	stage := domain.OpportunityStageNegotiate
	updated, err := s.opportunities.Update(ctx, opp.ID, &domain.UpdateOpportunityRequest{Stage: &stage})
	require.NoError(t, err)
	assert.Equal(t, stage, updated.Stage)
	assert.Equal(t, 80, updated.Probability)

	won := domain.OpportunityStageClosedWon
	probability := 95
	updated, err = s.opportunities.Update(ctx, opp.ID, &domain.UpdateOpportunityRequest{Stage: &won, Probability: &probability})
	require.NoError(t, err)
	assert.Equal(t, 95, updated.Probability, "explicit probability wins over the stage default")

	activities, err := s.activities.List(ctx, nil, &opp.ID, 10)
	require.NoError(t, err)
	require.NotEmpty(t, activities)
	assert.Equal(t, "Stage changed", activities[0].Title)
}

func TestOpportunityService_DeleteAndList(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	account := testutil.CreateTestAccount(t, s.db, "Acme")
	keep := testutil.CreateTestOpportunity(t, s.db, account.ID, "Keep")
	drop := testutil.CreateTestOpportunity(t, s.db, account.ID, "Drop")

	require.NoError(t, s.opportunities.Delete(ctx, drop.ID))
	assert.ErrorIs(t, s.opportunities.Delete(ctx, drop.ID), service.ErrOpportunityNotFound)

	qualify := domain.OpportunityStageQualify
	list, err := s.opportunities.List(ctx, repository.OpportunityFilters{AccountID: &account.ID, Stage: &qualify}, repository.DefaultSortConfig())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, keep.ID, list[0].ID)
}
