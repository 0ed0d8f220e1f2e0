package handler

import (
	"net/http"
	"strconv"

	"github.com/straye-as/crm-api/internal/domain"
	"github.com/straye-as/crm-api/internal/service"
	"go.uber.org/zap"
)

const (
	defaultActivityLimit = 50
	maxActivityLimit     = 200
)

// ActivityHandler serves the change history recorded against CRM records
type ActivityHandler struct {
	activityService *service.ActivityService
	logger          *zap.Logger
}

func NewActivityHandler(activityService *service.ActivityService, logger *zap.Logger) *ActivityHandler {
	return &ActivityHandler{
		activityService: activityService,
		logger:          logger,
	}
}

// List godoc
// @Summary List activities
// @Description Get the most recent activities, optionally for a single record
// @Tags Activities
// @Produce json
// @Param targetType query string false "Filter by target type" Enums(Account, Contact, Opportunity, Lead)
// @Param targetId query string false "Filter by target record ID" format(uuid)
// @Param limit query int false "Maximum number of activities (max 200)" default(50)
// @Success 200 {array} domain.ActivityDTO
// @Failure 400 {object} domain.APIError
// @Failure 500 {object} domain.APIError
// @Router /activities [get]
func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()

	var targetType *domain.ActivityTargetType
	if raw := q.Get("targetType"); raw != "" {
		t := domain.ActivityTargetType(raw)
		if !t.IsValid() {
			respondWithError(w, http.StatusBadRequest, "Invalid targetType. Valid values: Account, Contact, Opportunity, Lead")
			return
		}
		targetType = &t
	}

	targetID, err := parseOptionalUUID(r, "targetId")
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid targetId: must be a valid UUID")
		return
	}

	limit, _ := strconv.Atoi(q.Get("limit"))
	if limit < 1 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	activities, err := h.activityService.List(r.Context(), targetType, targetID, limit)
	if err != nil {
		respondServiceError(w, r, h.logger, err, "list activities")
		return
	}

	respondJSON(w, http.StatusOK, activities)
}
