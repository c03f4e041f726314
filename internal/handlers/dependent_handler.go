package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"carelog/internal/models"
	"carelog/internal/service"
)

// DependentHandler exposes the dependents a user cares for
type DependentHandler struct {
	dependents *service.DependentService
	logger     *zap.Logger
}

// NewDependentHandler creates a new dependent handler
func NewDependentHandler(dependents *service.DependentService, logger *zap.Logger) *DependentHandler {
	return &DependentHandler{dependents: dependents, logger: logger}
}

// Create handles POST /dependents
func (h *DependentHandler) Create(w http.ResponseWriter, r *http.Request) {
	var in models.DependentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	dep, err := h.dependents.Create(r.Context(), GetUserIDFromContext(r.Context()), in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, dep)
}

// List handles GET /dependents
func (h *DependentHandler) List(w http.ResponseWriter, r *http.Request) {
	deps, err := h.dependents.List(r.Context(), GetUserIDFromContext(r.Context()))
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	if deps == nil {
		deps = []models.DependentWithRole{}
	}
	writeJSON(w, http.StatusOK, deps)
}

// Get handles GET /dependents/{id}
func (h *DependentHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	dep, err := h.dependents.Get(r.Context(), GetUserIDFromContext(r.Context()), id)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dep)
}

// Update handles PUT /dependents/{id}
func (h *DependentHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	var in models.DependentInput
	if err := decodeJSON(w, r, &in); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	dep, err := h.dependents.Update(r.Context(), GetUserIDFromContext(r.Context()), id, in)
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, dep)
}

// Delete handles DELETE /dependents/{id}
func (h *DependentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}

	if err := h.dependents.Delete(r.Context(), GetUserIDFromContext(r.Context()), id); err != nil {
		respondWithError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
