package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/service"
	"go.uber.org/zap"
)

// LocationStore defines the database methods needed by location handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type LocationStore interface {
	ListLocationsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.RestaurantLocation, error)
	CreateLocation(ctx context.Context, arg database.CreateLocationParams) (database.RestaurantLocation, error)
	UpdateLocation(ctx context.Context, arg database.UpdateLocationParams) (database.RestaurantLocation, error)
	SoftDeleteLocation(ctx context.Context, arg database.SoftDeleteLocationParams) (uuid.UUID, error)
}

// DefaultLocationSetter swaps a restaurant's default location.
// Satisfied by *service.RestaurantService.
type DefaultLocationSetter interface {
	SetDefaultLocation(ctx context.Context, restaurantID, locationID uuid.UUID) (database.RestaurantLocation, error)
}

// LocationHandler handles restaurant location endpoints.
type LocationHandler struct {
	store    LocationStore
	defaults DefaultLocationSetter
}

// NewLocationHandler creates a new LocationHandler.
func NewLocationHandler(store LocationStore, defaults DefaultLocationSetter) *LocationHandler {
	return &LocationHandler{store: store, defaults: defaults}
}

// RegisterRoutes registers location endpoints on the given Chi router.
// Expected to be mounted inside a restaurant-scoped subrouter: /restaurants/{rid}/locations
func (h *LocationHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
	r.Put("/{id}/default", h.SetDefault)
}

// --- Request / Response types ---

type locationRequest struct {
	Name    string `json:"name"`
	Address string `json:"address"`
	Phone   string `json:"phone"`
}

type locationResponse struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Name         string    `json:"name"`
	Address      *string   `json:"address"`
	Phone        *string   `json:"phone"`
	IsDefault    bool      `json:"is_default"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
}

func toLocationResponse(l database.RestaurantLocation) locationResponse {
	return locationResponse{
		ID:           l.ID,
		RestaurantID: l.RestaurantID,
		Name:         l.Name,
		Address:      database.TextPtr(l.Address),
		Phone:        database.TextPtr(l.Phone),
		IsDefault:    l.IsDefault,
		IsActive:     l.IsActive,
		CreatedAt:    l.CreatedAt,
	}
}

// --- Handlers ---

// List returns the restaurant's active locations.
func (h *LocationHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	locations, err := h.store.ListLocationsByRestaurant(r.Context(), restaurantID)
	if err != nil {
		zap.L().Error("list locations", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]locationResponse, len(locations))
	for i, l := range locations {
		resp[i] = toLocationResponse(l)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a non-default location. Use SetDefault to promote it.
func (h *LocationHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	loc, err := h.store.CreateLocation(r.Context(), database.CreateLocationParams{
		RestaurantID: restaurantID,
		Name:         req.Name,
		Address:      database.Text(req.Address),
		Phone:        database.Text(req.Phone),
	})
	if err != nil {
		writeStoreError(w, err, "create location", "restaurant not found")
		return
	}
	writeJSON(w, http.StatusCreated, toLocationResponse(loc))
}

// Update modifies a location's contact details.
func (h *LocationHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	locationID, ok := urlUUID(w, r, "id", "location")
	if !ok {
		return
	}

	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	loc, err := h.store.UpdateLocation(r.Context(), database.UpdateLocationParams{
		ID:           locationID,
		RestaurantID: restaurantID,
		Name:         req.Name,
		Address:      database.Text(req.Address),
		Phone:        database.Text(req.Phone),
	})
	if err != nil {
		writeStoreError(w, err, "update location", "location not found")
		return
	}
	writeJSON(w, http.StatusOK, toLocationResponse(loc))
}

// Delete soft-deletes a location. A deleted default location stops being
// the default.
func (h *LocationHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	locationID, ok := urlUUID(w, r, "id", "location")
	if !ok {
		return
	}

	_, err := h.store.SoftDeleteLocation(r.Context(), database.SoftDeleteLocationParams{
		ID:           locationID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		writeStoreError(w, err, "delete location", "location not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// SetDefault makes the location the restaurant's only default.
func (h *LocationHandler) SetDefault(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	locationID, ok := urlUUID(w, r, "id", "location")
	if !ok {
		return
	}

	loc, err := h.defaults.SetDefaultLocation(r.Context(), restaurantID, locationID)
	if err != nil {
		if errors.Is(err, service.ErrLocationNotFound) {
			writeJSON(w, http.StatusNotFound, map[string]string{"error": "location not found"})
			return
		}
		zap.L().Error("set default location", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, toLocationResponse(loc))
}
