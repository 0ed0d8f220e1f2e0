package handler

import (
	"net/http"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/repository"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

type OpportunityHandler struct {
	opportunityService *service.OpportunityService
	logger             *zap.Logger
}

func NewOpportunityHandler(opportunityService *service.OpportunityService, logger *zap.Logger) *OpportunityHandler {
	return &OpportunityHandler{
		opportunityService: opportunityService,
		logger:             logger,
	}
}

// List godoc
// @Summary List opportunities
// @Tags Opportunities
// @Produce json
// @Param search query string false "Search by name or next step"
// @Param accountId query string false "Filter by account" format(uuid)
// @Param stage query string false "Filter by stage"
// @Param sortBy query string false "Sort field" Enums(name, stage, closeDate, amount, probability, createdAt, updatedAt)
// @Param sortOrder query string false "Sort order" Enums(asc, desc)
// @Success 200 {array} domain.OpportunityDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /opportunities [get]
func (h *OpportunityHandler) List(w http.ResponseWriter, r *http.Request) {
	accountID, err := parseOptionalUUID(r, "accountId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid accountId: must be a valid UUID")
		return
	}

	filters := repository.OpportunityFilters{
		Search:    r.URL.Query().Get("search"),
		AccountID: accountID,
	}
	if stage := r.URL.Query().Get("stage"); stage != "" {
		s := domain.OpportunityStage(stage)
		filters.Stage = &s
	}

	opportunities, err := h.opportunityService.List(r.Context(), filters, parseSort(r))
	if err != nil {
		respondServiceError(w, r, h.logger, err, "list opportunities")
		return
	}

	respondJSON(w, http.StatusOK, opportunities)
}

// Create godoc
// @Summary Create opportunity
// @Description Create an opportunity. Name, account, stage and closeDate (YYYY-MM-DD) are required.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param request body domain.CreateOpportunityRequest true "Opportunity data"
// @Success 201 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /opportunities [post]
func (h *OpportunityHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateOpportunityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	opportunity, err := h.opportunityService.Create(r.Context(), &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "create opportunity")
		return
	}

	w.Header().Set("Location", "/api/v1/opportunities/"+opportunity.ID.String())
	respondJSON(w, http.StatusCreated, opportunity)
}

// GetByID godoc
// @Summary Get opportunity
// @Tags Opportunities
// @Produce json
// @Param id path string true "Opportunity ID" format(uuid)
// @Success 200 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /opportunities/{id} [get]
func (h *OpportunityHandler) GetByID(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "opportunity")
	if !ok {
		return
	}

	opportunity, err := h.opportunityService.GetByID(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "get opportunity")
		return
	}

	respondJSON(w, http.StatusOK, opportunity)
}

// Update godoc
// @Summary Update opportunity
// @Description Partially update an opportunity. Changing stage resets probability and forecast category unless given.
// @Tags Opportunities
// @Accept json
// @Produce json
// @Param id path string true "Opportunity ID" format(uuid)
// @Param request body domain.UpdateOpportunityRequest true "Fields to change"
// @Success 200 {object} domain.OpportunityDTO
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /opportunities/{id} [patch]
func (h *OpportunityHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "opportunity")
	if !ok {
		return
	}

	var req domain.UpdateOpportunityRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	opportunity, err := h.opportunityService.Update(r.Context(), id, &req)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "update opportunity")
		return
	}

	respondJSON(w, http.StatusOK, opportunity)
}

// Delete godoc
// @Summary Delete opportunity
// @Tags Opportunities
// @Param id path string true "Opportunity ID" format(uuid)
// @Success 204
// @Failure 400 {object} domain.APIError
// @Failure 404 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /opportunities/{id} [delete]
func (h *OpportunityHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r, "opportunity")
	if !ok {
		return
	}

	if err := h.opportunityService.Delete(r.Context(), id); err != nil {
		respondServiceError(w, r, h.logger, err, "delete opportunity")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
