package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"go.uber.org/zap"

	"carelog/internal/apperror"
	"carelog/internal/realtime"
	"carelog/internal/service"
)

// heartbeatInterval keeps idle streams open through proxies
const heartbeatInterval = 25 * time.Second

// EventsHandler streams schedule changes to observers as Server-Sent Events
type EventsHandler struct {
	hub       *realtime.Hub
	access    *service.AccessService
	logger    *zap.Logger
	heartbeat time.Duration
}

// NewEventsHandler creates a new events handler
func NewEventsHandler(hub *realtime.Hub, access *service.AccessService, logger *zap.Logger) *EventsHandler {
	return &EventsHandler{
		hub:       hub,
		access:    access,
		logger:    logger,
		heartbeat: heartbeatInterval,
	}
}

// Stream handles GET /events?dependentId=N. Any link to the dependent may observe.
func (h *EventsHandler) Stream(w http.ResponseWriter, r *http.Request) {
	dependentID, err := strconv.ParseInt(r.URL.Query().Get("dependentId"), 10, 64)
	if err != nil || dependentID <= 0 {
		respondWithError(w, r, h.logger, apperror.Validation("dependentId query parameter is required"))
		return
	}

	userID := GetUserIDFromContext(r.Context())
	if _, err := h.access.RequireLink(r.Context(), dependentID, userID); err != nil {
		respondWithError(w, r, h.logger, apperror.Boundary(err, "failed to open event stream"))
		return
	}

	flusher, ok := w.(http.Flusher)
	if !ok {
		respondWithError(w, r, h.logger, apperror.Internal("streaming unsupported", nil))
		return
	}

	events, unsubscribe := h.hub.Subscribe(realtime.Channel(dependentID))
	defer unsubscribe()

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, ": connected\n\n")
	flusher.Flush()

	ticker := time.NewTicker(h.heartbeat)
	defer ticker.Stop()

	for {
		select {
		case <-r.Context().Done():
			return
		case <-ticker.C:
			if _, err := fmt.Fprint(w, ": ping\n\n"); err != nil {
				return
			}
			flusher.Flush()
		case ev, ok := <-events:
			if !ok {
				return
			}
			data, err := json.Marshal(map[string]int64{"dependentId": ev.DependentID})
			if err != nil {
				h.logger.Error("failed to encode event", zap.Error(err))
				continue
			}
			if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Name, data); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}
