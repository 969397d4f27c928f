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

// PageStore defines the database methods needed by page handlers. Every
// query is scoped to the restaurant through the owning template.
type PageStore interface {
	ListPagesByTemplate(ctx context.Context, arg database.ListPagesByTemplateParams) ([]database.Page, error)
	CreatePage(ctx context.Context, arg database.CreatePageParams) (database.Page, error)
	UpdatePage(ctx context.Context, arg database.UpdatePageParams) (database.Page, error)
	DeletePage(ctx context.Context, arg database.DeletePageParams) (uuid.UUID, error)
}

// PageHandler handles the pages of a template.
type PageHandler struct {
	store PageStore
}

// NewPageHandler creates a new PageHandler.
func NewPageHandler(store PageStore) *PageHandler {
	return &PageHandler{store: store}
}

// RegisterRoutes registers page endpoints on the given Chi router.
// Expected to be mounted at /restaurants/{rid}/templates/{tid}/pages
func (h *PageHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{pid}", h.Update)
	r.Delete("/{pid}", h.Delete)
}

type pageRequest struct {
	PageIndex     int32  `json:"page_index"`
	BackgroundURL string `json:"background_url"`
}

type pageResponse struct {
	ID            uuid.UUID `json:"id"`
	TemplateID    uuid.UUID `json:"template_id"`
	PageIndex     int32     `json:"page_index"`
	BackgroundURL *string   `json:"background_url"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

func toPageResponse(p database.Page) pageResponse {
	return pageResponse{
		ID:            p.ID,
		TemplateID:    p.TemplateID,
		PageIndex:     p.PageIndex,
		BackgroundURL: database.TextPtr(p.BackgroundUrl),
		CreatedAt:     p.CreatedAt,
		UpdatedAt:     p.UpdatedAt,
	}
}

func decodePageRequest(w http.ResponseWriter, r *http.Request) (pageRequest, bool) {
	var req pageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if req.PageIndex < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "page_index must not be negative"})
		return req, false
	}
	return req, true
}

// List returns the template's pages in order.
func (h *PageHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}

	pages, err := h.store.ListPagesByTemplate(r.Context(), database.ListPagesByTemplateParams{
		TemplateID:   templateID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		zap.L().Error("list pages", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]pageResponse, len(pages))
	for i, p := range pages {
		resp[i] = toPageResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a page to the template.
func (h *PageHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}
	req, ok := decodePageRequest(w, r)
	if !ok {
		return
	}

	page, err := h.store.CreatePage(r.Context(), database.CreatePageParams{
		TemplateID:    templateID,
		RestaurantID:  restaurantID,
		PageIndex:     req.PageIndex,
		BackgroundUrl: database.Text(req.BackgroundURL),
	})
	if err != nil {
		writeStoreError(w, err, "create page", "template not found")
		return
	}
	writeJSON(w, http.StatusCreated, toPageResponse(page))
}

// Update moves a page or changes its background.
func (h *PageHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}
	req, ok := decodePageRequest(w, r)
	if !ok {
		return
	}

	page, err := h.store.UpdatePage(r.Context(), database.UpdatePageParams{
		ID:            pageID,
		RestaurantID:  restaurantID,
		TemplateID:    templateID,
		PageIndex:     req.PageIndex,
		BackgroundUrl: database.Text(req.BackgroundURL),
	})
	if err != nil {
		writeStoreError(w, err, "update page", "page not found")
		return
	}
	writeJSON(w, http.StatusOK, toPageResponse(page))
}

// Delete removes a page with its sections, dishes and components.
func (h *PageHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	templateID, ok := urlUUID(w, r, "tid", "template")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}

	if _, err := h.store.DeletePage(r.Context(), database.DeletePageParams{
		ID:           pageID,
		RestaurantID: restaurantID,
		TemplateID:   templateID,
	}); err != nil {
		writeStoreError(w, err, "delete page", "page not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
