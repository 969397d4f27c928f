package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/enum"
	"go.uber.org/zap"
)

// ComponentStore defines the database methods needed by component handlers.
type ComponentStore interface {
	ListComponentsByPage(ctx context.Context, arg database.ListComponentsByPageParams) ([]database.ComponentLayout, error)
	CreateComponent(ctx context.Context, arg database.CreateComponentParams) (database.ComponentLayout, error)
	UpdateComponent(ctx context.Context, arg database.UpdateComponentParams) (database.ComponentLayout, error)
	DeleteComponent(ctx context.Context, arg database.DeleteComponentParams) (uuid.UUID, error)
}

// ComponentHandler handles free-positioned page components (text, images,
// shapes, logos).
type ComponentHandler struct {
	store ComponentStore
}

// NewComponentHandler creates a new ComponentHandler.
func NewComponentHandler(store ComponentStore) *ComponentHandler {
	return &ComponentHandler{store: store}
}

// RegisterRoutes registers component endpoints on the given Chi router.
// Expected to be mounted at /restaurants/{rid}/pages/{pid}/components
func (h *ComponentHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type componentRequest struct {
	Kind   string          `json:"kind"`
	X      float64         `json:"x"`
	Y      float64         `json:"y"`
	Width  float64         `json:"width"`
	Height float64         `json:"height"`
	Props  json.RawMessage `json:"props"`
}

type componentResponse struct {
	ID         uuid.UUID       `json:"id"`
	TemplateID uuid.UUID       `json:"template_id"`
	PageID     uuid.UUID       `json:"page_id"`
	Kind       string          `json:"kind"`
	X          float64         `json:"x"`
	Y          float64         `json:"y"`
	Width      float64         `json:"width"`
	Height     float64         `json:"height"`
	Props      json.RawMessage `json:"props"`
	CreatedAt  time.Time       `json:"created_at"`
	UpdatedAt  time.Time       `json:"updated_at"`
}

func toComponentResponse(c database.ComponentLayout) componentResponse {
	props := json.RawMessage(c.Props)
	if len(props) == 0 {
		props = json.RawMessage(`{}`)
	}
	return componentResponse{
		ID:         c.ID,
		TemplateID: c.TemplateID,
		PageID:     c.PageID,
		Kind:       c.Kind,
		X:          c.X,
		Y:          c.Y,
		Width:      c.Width,
		Height:     c.Height,
		Props:      props,
		CreatedAt:  c.CreatedAt,
		UpdatedAt:  c.UpdatedAt,
	}
}

func isValidComponentKind(kind string) bool {
	switch kind {
	case enum.ComponentKindText, enum.ComponentKindImage, enum.ComponentKindShape, enum.ComponentKindLogo:
		return true
	}
	return false
}

func decodeComponentRequest(w http.ResponseWriter, r *http.Request) (componentRequest, bool) {
	var req componentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return req, false
	}
	if !isValidComponentKind(req.Kind) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "kind must be TEXT, IMAGE, SHAPE, or LOGO"})
		return req, false
	}
	if req.Width < 0 || req.Height < 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "width and height must not be negative"})
		return req, false
	}
	if len(req.Props) == 0 || string(req.Props) == "null" {
		req.Props = json.RawMessage(`{}`)
	}
	return req, true
}

// List returns the page's components.
func (h *ComponentHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}

	components, err := h.store.ListComponentsByPage(r.Context(), database.ListComponentsByPageParams{
		PageID:       pageID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		zap.L().Error("list components", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]componentResponse, len(components))
	for i, c := range components {
		resp[i] = toComponentResponse(c)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create places a component on the page.
func (h *ComponentHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}
	req, ok := decodeComponentRequest(w, r)
	if !ok {
		return
	}

	c, err := h.store.CreateComponent(r.Context(), database.CreateComponentParams{
		PageID:       pageID,
		RestaurantID: restaurantID,
		Kind:         req.Kind,
		X:            req.X,
		Y:            req.Y,
		Width:        req.Width,
		Height:       req.Height,
		Props:        req.Props,
	})
	if err != nil {
		writeStoreError(w, err, "create component", "page not found")
		return
	}
	writeJSON(w, http.StatusCreated, toComponentResponse(c))
}

// Update moves, resizes or restyles a component.
func (h *ComponentHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}
	componentID, ok := urlUUID(w, r, "id", "component")
	if !ok {
		return
	}
	req, ok := decodeComponentRequest(w, r)
	if !ok {
		return
	}

	c, err := h.store.UpdateComponent(r.Context(), database.UpdateComponentParams{
		ID:           componentID,
		RestaurantID: restaurantID,
		PageID:       pageID,
		Kind:         req.Kind,
		X:            req.X,
		Y:            req.Y,
		Width:        req.Width,
		Height:       req.Height,
		Props:        req.Props,
	})
	if err != nil {
		writeStoreError(w, err, "update component", "component not found")
		return
	}
	writeJSON(w, http.StatusOK, toComponentResponse(c))
}

// Delete removes a component.
func (h *ComponentHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	pageID, ok := urlUUID(w, r, "pid", "page")
	if !ok {
		return
	}
	componentID, ok := urlUUID(w, r, "id", "component")
	if !ok {
		return
	}

	if _, err := h.store.DeleteComponent(r.Context(), database.DeleteComponentParams{
		ID:           componentID,
		RestaurantID: restaurantID,
		PageID:       pageID,
	}); err != nil {
		writeStoreError(w, err, "delete component", "component not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
