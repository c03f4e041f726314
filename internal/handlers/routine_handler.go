package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carelog/internal/models"
	"carelog/internal/service"
)

// RoutineHandler exposes routine definitions
type RoutineHandler struct {
	routines *service.RoutineService
	logger   *zap.Logger
}

// NewRoutineHandler creates a new routine handler
func NewRoutineHandler(routines *service.RoutineService, logger *zap.Logger) *RoutineHandler {
	return &RoutineHandler{routines: routines, logger: logger}
}

// Create handles POST /dependents/{id}/routines
func (h *RoutineHandler) Create(w http.ResponseWriter, r *http.Request) {
	dependentID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	var in models.RoutineInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	routine, err := h.routines.Create(r.Context(), GetUserIDFromContext(r.Context()), dependentID, in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, routine)
}

// List handles GET /dependents/{id}/routines
func (h *RoutineHandler) List(w http.ResponseWriter, r *http.Request) {
	dependentID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	routines, err := h.routines.List(r.Context(), GetUserIDFromContext(r.Context()), dependentID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if routines == nil {
		routines = []models.Routine{}
	}
	writeJSON(w, http.StatusOK, routines)
}

// Get handles GET /routines/{id}
func (h *RoutineHandler) Get(w http.ResponseWriter, r *http.Request) {
	routineID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	routine, err := h.routines.Get(r.Context(), GetUserIDFromContext(r.Context()), routineID)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

// Update handles PUT /routines/{id}
func (h *RoutineHandler) Update(w http.ResponseWriter, r *http.Request) {
	routineID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	var in models.RoutineInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	routine, err := h.routines.Update(r.Context(), GetUserIDFromContext(r.Context()), routineID, in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, routine)
}

// Delete handles DELETE /routines/{id}
func (h *RoutineHandler) Delete(w http.ResponseWriter, r *http.Request) {
	routineID, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	if err := h.routines.Delete(r.Context(), GetUserIDFromContext(r.Context()), routineID); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
