package handlers

import (
	"context"
	"net/http"
	"time"

	"go.uber.org/zap"

	"carelog/internal/models"
	"carelog/internal/realtime"
	"carelog/internal/service"
)

// notifyTimeout bounds a realtime broadcast after a log mutation
const notifyTimeout = 3 * time.Second

type logRequest struct {
	Status string  `json:"status"`
	Notes  *string `json:"notes"`
}

// LogHandler records and reopens schedule instances
type LogHandler struct {
	logs     *service.LogService
	notifier realtime.Notifier
	logger   *zap.Logger
}

// NewLogHandler creates a new log handler
func NewLogHandler(logs *service.LogService, notifier realtime.Notifier, logger *zap.Logger) *LogHandler {
	return &LogHandler{logs: logs, notifier: notifier, logger: logger}
}

// Upsert handles PUT /schedules/{id}/log
func (h *LogHandler) Upsert(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	var req logRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	log, dependentID, err := h.logs.Upsert(r.Context(), GetUserIDFromContext(r.Context()), scheduleID, req.Status, req.Notes)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	h.notify(r.Context(), dependentID)
	writeJSON(w, http.StatusOK, log)
}

// Remove handles DELETE /schedules/{id}/log
func (h *LogHandler) Remove(w http.ResponseWriter, r *http.Request) {
	scheduleID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	_, dependentID, err := h.logs.Remove(r.Context(), GetUserIDFromContext(r.Context()), scheduleID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	h.notify(r.Context(), dependentID)
	w.WriteHeader(http.StatusNoContent)
}

// ListByRoutine handles GET /routines/{id}/logs
func (h *LogHandler) ListByRoutine(w http.ResponseWriter, r *http.Request) {
	routineID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	entries, err := h.logs.ListByRoutine(r.Context(), GetUserIDFromContext(r.Context()), routineID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if entries == nil {
		entries = []models.RoutineLogEntry{}
	}
	writeJSON(w, http.StatusOK, entries)
}

// notify broadcasts after the mutation has committed. A failed broadcast is
// logged and never changes the response.
func (h *LogHandler) notify(parent context.Context, dependentID int64) {
	if h.notifier == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(parent), notifyTimeout)
	defer cancel()

	if err := h.notifier.ScheduleUpdated(ctx, dependentID); err != nil {
		h.logger.Warn("failed to broadcast schedule update",
			zap.Int64("dependent_id", dependentID),
			zap.String("request_id", GetRequestID(parent)),
			zap.Error(err),
		)
	}
}
