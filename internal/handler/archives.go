package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/menuboard/api/internal/database"
	"go.uber.org/zap"
)

// ArchiveStore defines the database methods needed by archive handlers.
type ArchiveStore interface {
	ListArchivesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.ArchiveTemplate, error)
}

// ArchiveHandler lists and restores archived templates.
type ArchiveHandler struct {
	store  ArchiveStore
	copier TemplateCopier
}

// NewArchiveHandler creates a new ArchiveHandler.
func NewArchiveHandler(store ArchiveStore, copier TemplateCopier) *ArchiveHandler {
	return &ArchiveHandler{store: store, copier: copier}
}

// RegisterRoutes registers archive endpoints on the given Chi router.
// Expected to be mounted inside a restaurant-scoped subrouter: /restaurants/{rid}/archives
func (h *ArchiveHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/{aid}/restore", h.Restore)
}

// archiveResponse leaves out the snapshot body.
type archiveResponse struct {
	ID                 uuid.UUID  `json:"id"`
	OriginalTemplateID uuid.UUID  `json:"original_template_id"`
	RestaurantID       uuid.UUID  `json:"restaurant_id"`
	Name               string     `json:"name"`
	ArchivedBy         *uuid.UUID `json:"archived_by"`
	ArchivedAt         time.Time  `json:"archived_at"`
}

func toArchiveResponse(a database.ArchiveTemplate) archiveResponse {
	resp := archiveResponse{
		ID:                 a.ID,
		OriginalTemplateID: a.OriginalTemplateID,
		RestaurantID:       a.RestaurantID,
		Name:               a.Name,
		ArchivedAt:         a.ArchivedAt,
	}
	if a.ArchivedBy.Valid {
		id := uuid.UUID(a.ArchivedBy.Bytes)
		resp.ArchivedBy = &id
	}
	return resp
}

// List returns the restaurant's archived templates, newest first.
func (h *ArchiveHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	archives, err := h.store.ListArchivesByRestaurant(r.Context(), restaurantID)
	if err != nil {
		zap.L().Error("list archives", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]archiveResponse, len(archives))
	for i, a := range archives {
		resp[i] = toArchiveResponse(a)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Restore rebuilds the archived template and removes the archive.
func (h *ArchiveHandler) Restore(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	archiveID, ok := urlUUID(w, r, "aid", "archive")
	if !ok {
		return
	}

	tpl, err := h.copier.Restore(r.Context(), restaurantID, archiveID, callerID(r))
	if err != nil {
		writeTemplateError(w, err, "restore archive")
		return
	}
	writeJSON(w, http.StatusCreated, toTemplateResponse(tpl))
}
