package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/service"
	"go.uber.org/zap"
)

// RestaurantStore defines the database methods needed by restaurant handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type RestaurantStore interface {
	ListRestaurants(ctx context.Context) ([]database.Restaurant, error)
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	UpdateRestaurant(ctx context.Context, arg database.UpdateRestaurantParams) (database.Restaurant, error)
	SetRestaurantOverride(ctx context.Context, arg database.SetRestaurantOverrideParams) (database.Restaurant, error)
}

// RestaurantHandler serves the restaurant directory.
type RestaurantHandler struct {
	store    RestaurantStore
	notifier service.Notifier
}

// NewRestaurantHandler creates a new RestaurantHandler. The notifier hears
// about override changes, since they change access.
func NewRestaurantHandler(store RestaurantStore, notifier service.Notifier) *RestaurantHandler {
	return &RestaurantHandler{store: store, notifier: notifier}
}

// RegisterRoutes registers the restaurant's own profile endpoints.
// Expected to be mounted inside a restaurant-scoped subrouter: /restaurants/{rid}
// manage wraps Update.
func (h *RestaurantHandler) RegisterRoutes(r chi.Router, manage func(http.Handler) http.Handler) {
	r.Get("/", h.Get)
	r.With(manage).Put("/", h.Update)
}

// RegisterAdminRoutes registers the platform-wide endpoints. Callers must
// restrict them to ADMIN.
func (h *RestaurantHandler) RegisterAdminRoutes(r chi.Router) {
	r.Get("/restaurants", h.List)
	r.Put("/restaurants/{rid}/override", h.SetOverride)
}

// --- Request / Response types ---

type updateRestaurantRequest struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

type overrideRequest struct {
	SubscriptionOverride *bool `json:"subscription_override"`
}

type restaurantResponse struct {
	ID                   uuid.UUID `json:"id"`
	Name                 string    `json:"name"`
	Slug                 string    `json:"slug"`
	SubscriptionOverride bool      `json:"subscription_override"`
	IsActive             bool      `json:"is_active"`
	CreatedAt            time.Time `json:"created_at"`
	UpdatedAt            time.Time `json:"updated_at"`
}

func toRestaurantResponse(r database.Restaurant) restaurantResponse {
	return restaurantResponse{
		ID:                   r.ID,
		Name:                 r.Name,
		Slug:                 r.Slug,
		SubscriptionOverride: r.SubscriptionOverride,
		IsActive:             r.IsActive,
		CreatedAt:            r.CreatedAt,
		UpdatedAt:            r.UpdatedAt,
	}
}

// --- Handlers ---

// List returns every restaurant on the platform.
func (h *RestaurantHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurants, err := h.store.ListRestaurants(r.Context())
	if err != nil {
		zap.L().Error("list restaurants", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]restaurantResponse, len(restaurants))
	for i, rest := range restaurants {
		resp[i] = toRestaurantResponse(rest)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Get returns one restaurant.
func (h *RestaurantHandler) Get(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	rest, err := h.store.GetRestaurant(r.Context(), restaurantID)
	if err != nil {
		writeStoreError(w, err, "get restaurant", "restaurant not found")
		return
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(rest))
}

// Update renames the restaurant. An empty slug keeps the current one.
func (h *RestaurantHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	var req updateRestaurantRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return
	}

	var slug string
	if strings.TrimSpace(req.Slug) != "" {
		slug = service.Slugify(req.Slug)
	} else {
		current, err := h.store.GetRestaurant(r.Context(), restaurantID)
		if err != nil {
			writeStoreError(w, err, "update restaurant: get", "restaurant not found")
			return
		}
		slug = current.Slug
	}

	rest, err := h.store.UpdateRestaurant(r.Context(), database.UpdateRestaurantParams{
		ID:   restaurantID,
		Name: req.Name,
		Slug: slug,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "slug already in use"})
			return
		}
		writeStoreError(w, err, "update restaurant", "restaurant not found")
		return
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(rest))
}

// SetOverride toggles subscription_override, which lets an active
// subscription of any plan type grant editor access.
func (h *RestaurantHandler) SetOverride(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	var req overrideRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}
	if req.SubscriptionOverride == nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "subscription_override is required"})
		return
	}

	rest, err := h.store.SetRestaurantOverride(r.Context(), database.SetRestaurantOverrideParams{
		ID:                   restaurantID,
		SubscriptionOverride: *req.SubscriptionOverride,
	})
	if err != nil {
		writeStoreError(w, err, "set restaurant override", "restaurant not found")
		return
	}

	if h.notifier != nil {
		h.notifier.SubscriptionChanged(rest.ID)
	}
	writeJSON(w, http.StatusOK, toRestaurantResponse(rest))
}
