package handler

import (
	"net/http"
	"strconv"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type LeadHandler struct {
	leadService *service.LeadService
	logger      *zap.Logger
}

func NewLeadHandler(leadService *service.LeadService, logger *zap.Logger) *LeadHandler {
	return &LeadHandler{
		leadService: leadService,
		logger:      logger,
	}
}

// List godoc
// @Summary List leads
// @Tags Leads
// @Produce json
// @Param search query string false "Search by name, company or email"
// @Param status query string false "Filter by lead status"
// @Param converted query bool false "Only converted (true) or unconverted (false) leads"
// @Param owner query string false "Filter by owner"
// @Param sortBy query string false "Sort field" Enums(lastName, firstName, company, status, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {array} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /leads [get]
func (h *LeadHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	filters := repository.LeadFilters{
		Search: q.Get("search"),
		Owner:  q.Get("owner"),
	}
	if status := q.Get("status"); status != "" {
		s := domain.LeadStatus(status)
		filters.Status = &s
	}
	if converted := q.Get("converted"); converted != "" {
		c, err := strconv.ParseBool(converted)
		if err != nil {
			respondWithError(w, http.StatusBadRequest, "Invalid converted: must be true or false")
			return
		}
		filters.Converted = &c
	}

	leads, err := h.leadService.List(r.Context(), filters, parseSort(r))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "list leads")
		return
	}

	respondJSON(w, http.StatusOK, leads)
}

// Create godoc
// @Summary Create lead
// @Tags Leads
// @Accept json
// @Produce json
// @Param request body domain.CreateLeadRequest true "Lead data"
// @Success 201 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /leads [post]
func (h *LeadHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lead, err := h.leadService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "create lead")
		return
	}

	w.Header().Set("Location", "/api/v1/leads/"+lead.ID.String())
	respondJSON(w, http.StatusCreated, lead)
}

// GetByID godoc
// @Summary Get lead
// @Tags Leads
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /leads/{id} [get]
func (h *LeadHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "lead")
	if !ok {
		return
	}

	lead, err := h.leadService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "get lead")
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// Update godoc
// @Summary Update lead
// @Description Partially update a lead. Converted leads cannot be edited.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Param request body domain.UpdateLeadRequest true "Fields to change"
// @Success 200 {object} domain.LeadDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Lead already converted"
// @Failure 500 {object} domain.APIError
// @Router /leads/{id} [patch]
func (h *LeadHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "lead")
	if !ok {
		return
	}

	var req domain.UpdateLeadRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	lead, err := h.leadService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "update lead")
		return
	}

	respondJSON(w, http.StatusOK, lead)
}

// Delete godoc
// @Summary Delete lead
// @Tags Leads
// @Param id path string true "Lead ID" format(uuid)
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /leads/{id} [delete]
func (h *LeadHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "lead")
	if !ok {
		return
	}

	if err := h.leadService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "delete lead")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Convert godoc
// @Summary Convert lead
// @Description Convert a lead into an account, a contact and optionally an opportunity in one transaction.
// @Description Each of account, contact and opportunity takes mode create or existing (with id); opportunity also accepts skip.
// @Tags Leads
// @Accept json
// @Produce json
// @Param id path string true "Lead ID" format(uuid)
// @Param request body domain.ConvertLeadRequest true "Conversion decisions"
// @Success 200 {object} domain.ConvertLeadResult
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 409 {object} domain.APIError "Lead already converted"
// @Failure 500 {object} domain.APIError
// @Router /leads/{id}/convert [post]
func (h *LeadHandler) Convert(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "lead")
	if !ok {
		return
	}

	// The service validates decisions only after the lead is found and unconverted.
	var req domain.ConvertLeadRequest
	if !decodeJSONBody(w, r, &req) {
		return
	}

	result, err := h.leadService.ConvertLead(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "convert lead")
		return
	}

	respondJSON(w, http.StatusOK, result)
}
