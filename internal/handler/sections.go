package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/menuboard/api/internal/database"
	"go.uber.org/zap"
)

// SectionStore defines the database methods needed by section handlers.
type SectionStore interface {
	ListSectionsByPage(ctx context.Context, arg database.ListSectionsByPageParams) ([]database.Section, error)
	CreateSection(ctx context.Context, arg database.CreateSectionParams) (database.Section, error)
	UpdateSection(ctx context.Context, arg database.UpdateSectionParams) (database.Section, error)
	DeleteSection(ctx context.Context, arg database.DeleteSectionParams) (uuid.UUID, error)
}

// SectionHandler handles the sections of a page.
type SectionHandler struct {
	store SectionStore
}

// NewSectionHandler creates a new SectionHandler.
func NewSectionHandler(store SectionStore) *SectionHandler {
	return &SectionHandler{store: store}
}

// RegisterRoutes registers section endpoints on the given Chi router.
// Expected to be mounted at /restaurants/{rid}/pages/{pid}/sections
func (h *SectionHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type sectionRequest struct {
	Title       string `json:"title"`
	Position    int32  `json:"position"`
	ColumnIndex int32  `json:"column_index"`
}

type sectionResponse struct {
	ID          uuid.UUID `json:"id"`
	PageID      uuid.UUID `json:"page_id"`
	Title       string    `json:"title"`
	Position    int32     `json:"position"`
	ColumnIndex int32     `json:"column_index"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toSectionResponse(s database.Section) sectionResponse {
	return sectionResponse{
		ID:          s.ID,
		PageID:      s.PageID,
		Title:       s.Title,
		Position:    s.Position,
		ColumnIndex: s.ColumnIndex,
		CreatedAt:   s.CreatedAt,
		UpdatedAt:   s.UpdatedAt,
	}
}

func decodeSectionRequest(w http.ResponseWriter, r *http.Request) (sectionRequest, bool) {
	var req sectionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.Title == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "title is required"})
		return req, false
	}
	if req.Position < 0 || req.ColumnIndex < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "position and column_index must not be negative"})
		return req, false
	}
	return req, true
}

// List returns the page's sections by column and position.
func (h *SectionHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}

	sections, err := h.store.ListSectionsByPage(r.Context(), database.ListSectionsByPageParams{
		PageID:       pageID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		zap.L().Error("list sections", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]sectionResponse, len(sections))
	for i, s := range sections {
		resp[i] = toSectionResponse(s)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a section to the page.
func (h *SectionHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}
	req, ok := decodeSectionRequest(w, r)
	if !ok {
		return
	}

	section, err := h.store.CreateSection(r.Context(), database.CreateSectionParams{
		PageID:       pageID,
		RestaurantID: restaurantID,
		Title:        req.Title,
		Position:     req.Position,
		ColumnIndex:  req.ColumnIndex,
	})
	if err != nil {
		writeStoreError(w, err, "create section", "page not found")
		return
	}
	writeJSON(w, http.StatusCreated, toSectionResponse(section))
}

// Update renames or moves a section within its page.
func (h *SectionHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}
	sectionID, ok := urlUUID(w, r, "id", "section")
	if !ok {
		return
	}
	req, ok := decodeSectionRequest(w, r)
	if !ok {
		return
	}

	section, err := h.store.UpdateSection(r.Context(), database.UpdateSectionParams{
		ID:           sectionID,
		RestaurantID: restaurantID,
		PageID:       pageID,
		Title:        req.Title,
		Position:     req.Position,
		ColumnIndex:  req.ColumnIndex,
	})
	if err != nil {
		writeStoreError(w, err, "update section", "section not found")
		return
	}
	writeJSON(w, http.StatusOK, toSectionResponse(section))
}

// Delete removes a section and its dishes.
func (h *SectionHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}
	sectionID, ok := urlUUID(w, r, "id", "section")
	if !ok {
		return
	}

	if _, err := h.store.DeleteSection(r.Context(), database.DeleteSectionParams{
		ID:           sectionID,
		RestaurantID: restaurantID,
		PageID:       pageID,
	}); err != nil {
		writeStoreError(w, err, "delete section", "section not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
