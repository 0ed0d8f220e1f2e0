package handler

import (
	"net/http"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type AccountHandler struct {
	accountService     *service.AccountService
	contactService     *service.ContactService
	opportunityService *service.OpportunityService
	logger             *zap.Logger
}

func NewAccountHandler(
	accountService *service.AccountService,
	contactService *service.ContactService,
	opportunityService *service.OpportunityService,
	logger *zap.Logger,
) *AccountHandler {
	return &AccountHandler{
		accountService:     accountService,
		contactService:     contactService,
		opportunityService: opportunityService,
		logger:             logger,
	}
}

// List godoc
// @Summary List accounts
// @Description Get all accounts with optional filters
// @Tags Accounts
// @Produce json
// @Param search query string false "Search by name, website or phone"
// @Param name query string false "Exact name match (case-insensitive)"
// @Param type query string false "Filter by account type"
// @Param owner query string false "Filter by owner"
// @Param sortBy query string false "Sort field" Enums(name, type, owner, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {array} domain.AccountDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /accounts [get]
func (h *AccountHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.AccountFilters{
		Search: q.Get("search"),
		Name:   q.Get("name"),
		Owner:  q.Get("owner"),
	}
	if accountType := q.Get("type"); accountType != "" {
		t := domain.AccountType(accountType)
		filters.Type = &t
	}

	accounts, err := h.accountService.List(r.Context(), filters, parseSort(r))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "list accounts")
		return
	}

	respondJSON(w, http.StatusOK, accounts)
}

// Create godoc
// @Summary Create account
// @Description Create a new account. Names are not reconciled here; use /accounts/resolve for get-or-create.
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body domain.CreateAccountRequest true "Account data"
// @Success 201 {object} domain.AccountDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /accounts [post]
func (h *AccountHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "create account")
		return
	}

	w.Header().Set("Location", "/api/v1/accounts/"+account.ID.String())
	respondJSON(w, http.StatusCreated, account)
}

// Resolve godoc
// @Summary Resolve account by name
// @Description Return the account whose name matches case-insensitively, creating it when none exists
// @Tags Accounts
// @Accept json
// @Produce json
// @Param request body domain.ResolveAccountRequest true "Account name and owner for a new account"
// @Success 200 {object} domain.ResolveAccountResponse "Existing account"
// @Success 201 {object} domain.ResolveAccountResponse "Account created"
// @Failure 400 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Name is being resolved concurrently"
// @Failure 500 {object} domain.APIError
// @Router /accounts/resolve [post]
func (h *AccountHandler) Resolve(w http.ResponseWriter, r *http.Request) {
	var req domain.ResolveAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	result, err := h.accountService.Resolve(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "resolve account")
		return
	}

	status := http.StatusOK
	if result.Created {
		status = http.StatusCreated
		w.Header().Set("Location", "/api/v1/accounts/"+result.AccountID.String())
	}
	respondJSON(w, status, result)
}

// GetByID godoc
// @Summary Get account
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID" format(uuid)
// @Success 200 {object} domain.AccountDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /accounts/{id} [get]
func (h *AccountHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "account")
	if !ok {
		return
	}

	account, err := h.accountService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "get account")
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// Update godoc
// @Summary Update account
// @Description Partially update an account; omitted fields are left unchanged
// @Tags Accounts
// @Accept json
// @Produce json
// @Param id path string true "Account ID" format(uuid)
// @Param request body domain.UpdateAccountRequest true "Fields to change"
// @Success 200 {object} domain.AccountDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /accounts/{id} [patch]
func (h *AccountHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "account")
	if !ok {
		return
	}

	var req domain.UpdateAccountRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	account, err := h.accountService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "update account")
		return
	}

	respondJSON(w, http.StatusOK, account)
}

// Delete godoc
// @Summary Delete account
// @Description Delete an account that has no contacts, opportunities or child accounts
// @Tags Accounts
// @Param id path string true "Account ID" format(uuid)
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Account still has dependents"
// @Failure 500 {object} domain.APIError
// @Router /accounts/{id} [delete]
func (h *AccountHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "account")
	if !ok {
		return
	}

	if err := h.accountService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "delete account")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListContacts godoc
// @Summary List contacts of an account
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID" format(uuid)
// @Success 200 {array} domain.ContactDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /accounts/{id}/contacts [get]
func (h *AccountHandler) ListContacts(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "account")
	if !ok {
		return
	}

	if _, err := h.accountService.GetByID(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "get account")
		return
	}

	contacts, err := h.contactService.List(r.Context(), repository.ContactFilters{AccountID: &id}, parseSort(r))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "list account contacts")
		return
	}

	respondJSON(w, http.StatusOK, contacts)
}

// ListOpportunities godoc
// @Summary List opportunities of an account
// @Tags Accounts
// @Produce json
// @Param id path string true "Account ID" format(uuid)
// @Success 200 {array} domain.OpportunityDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /accounts/{id}/opportunities [get]
func (h *AccountHandler) ListOpportunities(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "account")
	if !ok {
		return
	}

	if _, err := h.accountService.GetByID(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "get account")
		return
	}

	opportunities, err := h.opportunityService.List(r.Context(), repository.OpportunityFilters{AccountID: &id}, parseSort(r))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "list account opportunities")
		return
	}

	respondJSON(w, http.StatusOK, opportunities)
}
