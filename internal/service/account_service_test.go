package service_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountService_ResolveAccount(t *testing.T) {
	t.Run("creates account when no name matches", func(t *testing.T) {
		s := setupServices(t)
		ctx := context.Background()

		id, created, err := s.accounts.ResolveAccount(ctx, "Acme", "Alice")
		require.NoError(t, err)
		assert.True(t, created)
		assert.NotEqual(t, uuid.Nil, id)

		account, err := s.accounts.GetByID(ctx, id)
		require.NoError(t, err)
		assert.Equal(t, "Acme", account.Name)
		assert.Equal(t, "Alice", account.Owner)

		published := s.publisher.ofType(events.AccountCreated)
		require.Len(t, published, 1)
		payload, ok := published[0].Payload.(events.AccountCreatedPayload)
		require.True(t, ok)
		assert.True(t, payload.Reconciled)
	})

	t.Run("returns existing account regardless of case and owner", func(t *testing.T) {
		s := setupServices(t)
		ctx := context.Background()
		existing := testutil.CreateTestAccount(t, s.db, "Acme")

		for _, name := range []string{"Acme", "ACME", "acme", "  aCmE  "} {
			id, created, err := s.accounts.ResolveAccount(ctx, name, "Somebody Else")
			require.NoError(t, err, name)
			assert.False(t, created, name)
			assert.Equal(t, existing.ID, id, name)
		}

		assert.Equal(t, int64(1), testutil.CountRows(t, s.db, &domain.Account{}))

		account, err := s.accounts.GetByID(ctx, existing.ID)
		require.NoError(t, err)
		assert.Equal(t, "Test Owner", account.Owner, "existing owner must not change")
	})

	t.Run("is idempotent", func(t *testing.T) {
		s := setupServices(t)
		ctx := context.Background()

		first, created, err := s.accounts.ResolveAccount(ctx, "Globex", "")
		require.NoError(t, err)
		assert.True(t, created)

		second, created, err := s.accounts.ResolveAccount(ctx, "Globex", "")
		require.NoError(t, err)
		assert.False(t, created)
		assert.Equal(t, first, second)
		assert.Equal(t, int64(1), testutil.CountRows(t, s.db, &domain.Account{}))
	})

	t.Run("falls back to caller then default owner", func(t *testing.T) {
		s := setupServices(t)

		id, _, err := s.accounts.ResolveAccount(testutil.UserContext("Bob"), "Initech", "")
		require.NoError(t, err)
		account, err := s.accounts.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, "Bob", account.Owner)

		id, _, err = s.accounts.ResolveAccount(context.Background(), "Umbrella", "  ")
		require.NoError(t, err)
		account, err = s.accounts.GetByID(context.Background(), id)
		require.NoError(t, err)
		assert.Equal(t, testDefaults.Owner, account.Owner)
	})

	t.Run("rejects blank name", func(t *testing.T) {
		s := setupServices(t)

		_, _, err := s.accounts.ResolveAccount(context.Background(), "   ", "Alice")
		require.Error(t, err)
		assert.True(t, errors.Is(err, service.ErrInvalidInput))

		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "accountName")
		assert.Equal(t, int64(0), testutil.CountRows(t, s.db, &domain.Account{}))
	})

	t.Run("matches non-ASCII names regardless of case", func(t *testing.T) {
		s := setupServices(t)
		ctx := context.Background()

		first, created, err := s.accounts.ResolveAccount(ctx, "École Normale", "Alice")
		require.NoError(t, err)
		require.True(t, created)

		for _, name := range []string{"École Normale", "ÉCOLE NORMALE", "  école normale "} {
			id, created, err := s.accounts.ResolveAccount(ctx, name, "Alice")
			require.NoError(t, err)
			assert.False(t, created, name)
			assert.Equal(t, first, id, name)
		}
		assert.Equal(t, int64(1), testutil.CountRows(t, s.db, &domain.Account{}))
	})

	t.Run("counts name length in characters", func(t *testing.T) {
		s := setupServices(t)
		ctx := context.Background()

		_, created, err := s.accounts.ResolveAccount(ctx, strings.Repeat("é", 200), "")
		require.NoError(t, err)
		assert.True(t, created)

		_, _, err = s.accounts.ResolveAccount(ctx, strings.Repeat("é", 256), "")
		var verr *service.ValidationError
		require.ErrorAs(t, err, &verr)
		assert.Contains(t, verr.Fields, "accountName")
	})

	t.Run("concurrent resolutions create a single account", func(t *testing.T) {
		s := setupServices(t)
		ctx := context.Background()

		const workers = 8
		ids := make([]uuid.UUID, workers)
		createdCount := 0
		var mu sync.Mutex
		var wg sync.WaitGroup
		for i := 0; i < workers; i++ {
			wg.Add(1)
			go func(i int) {
				defer wg.Done()
				id, created, err := s.accounts.ResolveAccount(ctx, "Stark Industries", "")
				assert.NoError(t, err)
				mu.Lock()
				defer mu.Unlock()
				ids[i] = id
				if created {
					createdCount++
				}
			}(i)
		}
		wg.Wait()

		assert.Equal(t, 1, createdCount)
		for _, id := range ids {
			assert.Equal(t, ids[0], id)
		}
		assert.Equal(t, int64(1), testutil.CountRows(t, s.db, &domain.Account{}))
	})
}

func TestAccountService_Create(t *testing.T) {
	s := setupServices(t)
	ctx := testutil.UserContext("Carol")

	tests := []struct {
		name      string
		req       *domain.CreateAccountRequest
		wantField string
	}{
		{
			name: "valid account",
			req: &domain.CreateAccountRequest{
				Name:    "Acme",
				Type:    domain.AccountTypeCustomerDirect,
				Website: "https://acme.example.com",
				Billing: &domain.AddressDTO{City: "Oslo", Country: "Norway"},
			},
		},
		{
			name:      "blank name",
			req:       &domain.CreateAccountRequest{Name: "  "},
			wantField: "name",
		},
		{
			name:      "unknown type",
			req:       &domain.CreateAccountRequest{Name: "Acme", Type: "Galactic"},
			wantField: "type",
		},
		{
			name:      "missing parent",
			req:       &domain.CreateAccountRequest{Name: "Acme", ParentAccountID: ptrUUID(uuid.New())},
			wantField: "parentAccountId",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			account, err := s.accounts.Create(ctx, tt.req)
			if tt.wantField != "" {
				var verr *service.ValidationError
				require.ErrorAs(t, err, &verr)
				assert.Contains(t, verr.Fields, tt.wantField)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "Carol", account.Owner)
			assert.Equal(t, "Oslo", account.Billing.City)
		})
	}
}

func TestAccountService_Update(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	account := testutil.CreateTestAccount(t, s.db, "Acme")

	updated, err := s.accounts.Update(ctx, account.ID, &domain.UpdateAccountRequest{
		Phone: strPtr("555-0199"),
	})
	require.NoError(t, err)
	assert.Equal(t, "Acme", updated.Name, "omitted fields stay unchanged")
	assert.Equal(t, "555-0199", updated.Phone)

	_, err = s.accounts.Update(ctx, account.ID, &domain.UpdateAccountRequest{ParentAccountID: &account.ID})
	var verr *service.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "parentAccountId")

	_, err = s.accounts.Update(ctx, uuid.New(), &domain.UpdateAccountRequest{Name: strPtr("X")})
	assert.ErrorIs(t, err, service.ErrAccountNotFound)
	assert.ErrorIs(t, err, service.ErrNotFound)
}

func TestAccountService_Delete(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()

	t.Run("refuses while contacts reference the account", func(t *testing.T) {
		account := testutil.CreateTestAccount(t, s.db, "Busy Corp")
		testutil.CreateTestContact(t, s.db, account.ID, "Jane", "Doe")

		err := s.accounts.Delete(ctx, account.ID)
		assert.ErrorIs(t, err, service.ErrAccountHasDependents)
		assert.ErrorIs(t, err, service.ErrConflict)
	})

	t.Run("deletes an unreferenced account", func(t *testing.T) {
		account := testutil.CreateTestAccount(t, s.db, "Lonely Corp")

		require.NoError(t, s.accounts.Delete(ctx, account.ID))
		_, err := s.accounts.GetByID(ctx, account.ID)
		assert.ErrorIs(t, err, service.ErrAccountNotFound)
	})

	t.Run("unknown account", func(t *testing.T) {
		assert.ErrorIs(t, s.accounts.Delete(ctx, uuid.New()), service.ErrNotFound)
	})
}

func TestAccountService_List(t *testing.T) {
	s := setupServices(t)
	ctx := context.Background()
	testutil.CreateTestAccount(t, s.db, "Acme")
	testutil.CreateTestAccount(t, s.db, "Globex")
	testutil.CreateTestAccount(t, s.db, "Acme Labs")

	accounts, err := s.accounts.List(ctx, repository.AccountFilters{Search: "acme"}, repository.SortConfig{Field: "name", Order: repository.SortOrderAsc})
	require.NoError(t, err)
	require.Len(t, accounts, 2)
	assert.Equal(t, "Acme", accounts[0].Name)
	assert.Equal(t, "Acme Labs", accounts[1].Name)

	accounts, err = s.accounts.List(ctx, repository.AccountFilters{Name: "GLOBEX"}, repository.DefaultSortConfig())
	require.NoError(t, err)
	require.Len(t, accounts, 1)

	bad := domain.AccountType("Nope")
	_, err = s.accounts.List(ctx, repository.AccountFilters{Type: &bad}, repository.DefaultSortConfig())
	assert.ErrorIs(t, err, service.ErrInvalidInput)
}

func ptrUUID(id uuid.UUID) *uuid.UUID { return &id }
