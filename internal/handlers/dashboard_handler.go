package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carelog/internal/service"
)

// DashboardHandler serves the caller's overview of today
type DashboardHandler struct {
	overview *service.OverviewService
	logger   *zap.Logger
}

// NewDashboardHandler creates a new dashboard handler
func NewDashboardHandler(overview *service.OverviewService, logger *zap.Logger) *DashboardHandler {
	return &DashboardHandler{overview: overview, logger: logger}
}

// Today returns today's schedules grouped by dependent
func (h *DashboardHandler) Today(w http.ResponseWriter, r *http.Request) {
	userID := GetUserIDFromContext(r.Context())

	groups, err := h.overview.GetTodayOverview(r.Context(), userID, GetTimezone(r.Context()))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, groups)
}
