package router_test

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/straye-as/crm-api/internal/auth"
	"github.com/straye-as/crm-api/internal/config"
	"github.com/straye-as/crm-api/internal/events"
	"github.com/straye-as/crm-api/internal/http/handler"
	"github.com/straye-as/crm-api/internal/http/middleware"
	"github.com/straye-as/crm-api/internal/http/router"
	"github.com/straye-as/crm-api/internal/lock"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"github.com/straye-as/crm-api/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestRouter(t *testing.T) *router.Router {
	db := testutil.SetupTestDB(t)
	logger := zap.NewNop()

	cfg := &config.Config{
		App:    config.AppConfig{Environment: "development"},
		Server: config.ServerConfig{EnableMetrics: true},
		CRM:    config.CRMConfig{DefaultOwner: "CRM Integration", DefaultConvertedStatus: "Qualified"},
	}
	defaults := service.Defaults{Owner: cfg.CRM.DefaultOwner, ConvertedStatus: cfg.CRM.DefaultConvertedStatus}

	accountRepo := repository.NewAccountRepository(db)
	contactRepo := repository.NewContactRepository(db)
	opportunityRepo := repository.NewOpportunityRepository(db)
	leadRepo := repository.NewLeadRepository(db)

	activityService := service.NewActivityService(repository.NewActivityRepository(db), logger)
	accountService := service.NewAccountService(accountRepo, activityService, lock.NewLocalLocker(time.Second), events.NoopPublisher{}, defaults, logger)
	contactService := service.NewContactService(contactRepo, accountRepo, accountService, activityService, defaults, logger)
	opportunityService := service.NewOpportunityService(opportunityRepo, accountRepo, accountService, activityService, defaults, logger)
	leadService := service.NewLeadService(db, leadRepo, accountRepo, contactRepo, opportunityRepo, activityService, events.NoopPublisher{}, defaults, logger)

	return router.NewRouter(
		cfg,
		logger,
		db,
		auth.NewMiddleware(&cfg.CRM, logger),
		middleware.NewRateLimiter(&cfg.RateLimit, logger),
		handler.NewAccountHandler(accountService, contactService, opportunityService, logger),
		handler.NewContactHandler(contactService, logger),
		handler.NewOpportunityHandler(opportunityService, logger),
		handler.NewLeadHandler(leadService, logger),
		handler.NewActivityHandler(activityService, logger),
	)
}

func do(h http.Handler, method, path, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func TestHealthEndpoints(t *testing.T) {
	rt := newTestRouter(t)
	h := rt.Setup()

	w := do(h, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	w = do(h, http.MethodGet, "/health/db", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodGet, "/metrics", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "crm_http_requests_total")
}

func TestReadinessReportsFailingDependency(t *testing.T) {
	rt := newTestRouter(t)
	rt.AddReadinessCheck("redis", func() error { return errors.New("connection refused") })
	h := rt.Setup()

	w := do(h, http.MethodGet, "/health/ready", "", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var body struct {
		Status string                            `json:"status"`
		Checks map[string]map[string]interface{} `json:"checks"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	assert.Equal(t, "unhealthy", body.Status)
	assert.Equal(t, "healthy", body.Checks["database"]["status"])
	assert.Equal(t, "unhealthy", body.Checks["redis"]["status"])
}

func TestAPIRoutes(t *testing.T) {
	h := newTestRouter(t).Setup()
	caller := map[string]string{"X-User-Name": "Alice"}

	w := do(h, http.MethodPost, "/api/v1/accounts", `{"name":"Acme"}`, caller)
	require.Equal(t, http.StatusCreated, w.Code)
	var account struct {
		ID    string `json:"id"`
		Owner string `json:"owner"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &account))
	assert.Equal(t, "Alice", account.Owner)

	w = do(h, http.MethodPatch, "/api/v1/accounts/"+account.ID, `{"phone":"+47 555 00 000"}`, caller)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodPut, "/api/v1/accounts/"+account.ID, `{"phone":"+47 555 00 000"}`, caller)
	assert.Equal(t, http.StatusMethodNotAllowed, w.Code)

	w = do(h, http.MethodGet, "/api/v1/accounts/"+account.ID+"/contacts", "", caller)
	assert.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodPost, "/api/v1/leads", `{"firstName":"Jane","lastName":"Doe","company":"Acme"}`, caller)
	require.Equal(t, http.StatusCreated, w.Code)
	var lead struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &lead))

	convert := `{"account":{"mode":"existing","id":"` + account.ID + `"},"contact":{"mode":"create"},"opportunity":{"mode":"skip"}}`
	w = do(h, http.MethodPost, "/api/v1/leads/"+lead.ID+"/convert", convert, caller)
	require.Equal(t, http.StatusOK, w.Code)

	w = do(h, http.MethodPost, "/api/v1/leads/"+lead.ID+"/convert", convert, caller)
	assert.Equal(t, http.StatusConflict, w.Code)

	w = do(h, http.MethodDelete, "/api/v1/accounts/"+account.ID, "", caller)
	assert.Equal(t, http.StatusConflict, w.Code, "account now has a contact")

	w = do(h, http.MethodGet, "/api/v1/activities?targetType=Lead&targetId="+lead.ID, "", caller)
	assert.Equal(t, http.StatusOK, w.Code)
}
