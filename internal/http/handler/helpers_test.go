package handler_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/http/handler"
	"github.com/straye-as/crm-api/internal/lock"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type testHandlers struct {
	db            *gorm.DB
	accounts      *handler.AccountHandler
	contacts      *handler.ContactHandler
	opportunities *handler.OpportunityHandler
	leads         *handler.LeadHandler
	activities    *handler.ActivityHandler
}

func setupHandlers(t *testing.T) *testHandlers {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()
	defaults := service.Defaults{Owner: "CRM Integration", ConvertedStatus: "Qualified"}

	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	activityService := service.NewActivityService(repository.NewActivityRepository(db), logger)
	accountService := service.NewAccountService(accountRepo, activityService, lock.NewLocalLocker(5*time.Second), events.NoopPublisher{}, defaults, logger)
	contactService := service.NewContactService(contactRepo, accountRepo, accountService, activityService, defaults, logger)
	opportunityService := service.NewOpportunityService(opportunityRepo, accountRepo, accountService, activityService, defaults, logger)
	leadService := service.NewLeadService(db, leadRepo, accountRepo, contactRepo, opportunityRepo, activityService, events.NoopPublisher{}, defaults, logger)

	return &testHandlers{
		db:            db,
		accounts:      handler.NewAccountHandler(accountService, contactService, opportunityService, logger),
		contacts:      handler.NewContactHandler(contactService, logger),
		opportunities: handler.NewOpportunityHandler(opportunityService, logger),
		leads:         handler.NewLeadHandler(leadService, logger),
		activities:    handler.NewActivityHandler(activityService, logger),
	}
}

// newRequest builds a request carrying the {id} route parameter when id is non-empty
func newRequest(t *testing.T, method, target, id string, body interface{}) *http.Request {
	t.Helper()

	var reader *bytes.Reader
	switch b := body.(type) {
	case nil:
		reader = bytes.NewReader(nil)
	case string:
		reader = bytes.NewReader([]byte(b))
	default:
		raw, err := json.Marshal(b)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, target, reader)
	req.Header.Set("Content-Type", "application/json")

	if id != "" {
		rctx := chi.NewRouteContext()
		rctx.URLParams.Add("id", id)
		req = req.WithContext(context.WithValue(req.Context(), chi.RouteCtxKey, rctx))
	}
	return req
}

func serve(h http.HandlerFunc, req *http.Request) *httptest.ResponseRecorder {
	rr := httptest.NewRecorder()
	h(rr, req)
	return rr
}

func decodeAPIError(t *testing.T, rr *httptest.ResponseRecorder) domain.APIError {
	t.Helper()
	var apiErr domain.APIError
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &apiErr))
	return apiErr
}
