package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/menuboard/api/internal/database"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// DishStore defines the database methods needed by dish handlers.
type DishStore interface {
	ListDishesBySection(ctx context.Context, arg database.ListDishesBySectionParams) ([]database.MenuDish, error)
	CreateDish(ctx context.Context, arg database.CreateDishParams) (database.MenuDish, error)
	UpdateDish(ctx context.Context, arg database.UpdateDishParams) (database.MenuDish, error)
	DeleteDish(ctx context.Context, arg database.DeleteDishParams) (uuid.UUID, error)
}

// DishHandler handles the dishes of a section.
type DishHandler struct {
	store DishStore
}

// NewDishHandler creates a new DishHandler.
func NewDishHandler(store DishStore) *DishHandler {
	return &DishHandler{store: store}
}

// RegisterRoutes registers dish endpoints on the given Chi router.
// Expected to be mounted at /restaurants/{rid}/sections/{sid}/dishes
func (h *DishHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

type dishRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Price       string `json:"price"`
	ImageURL    string `json:"image_url"`
	Position    int32  `json:"position"`
	IsVisible   *bool  `json:"is_visible"`
}

type dishResponse struct {
	ID          uuid.UUID `json:"id"`
	SectionID   uuid.UUID `json:"section_id"`
	Name        string    `json:"name"`
	Description *string   `json:"description"`
	Price       string    `json:"price"`
	ImageURL    *string   `json:"image_url"`
	Position    int32     `json:"position"`
	IsVisible   bool      `json:"is_visible"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func toDishResponse(d database.MenuDish) dishResponse {
	return dishResponse{
		ID:          d.ID,
		SectionID:   d.SectionID,
		Name:        d.Name,
		Description: database.TextPtr(d.Description),
		// Always two decimal places for money.
		Price:     database.NumericToDecimal(d.Price).StringFixed(2),
		ImageURL:  database.TextPtr(d.ImageUrl),
		Position:  d.Position,
		IsVisible: d.IsVisible,
		CreatedAt: d.CreatedAt,
		UpdatedAt: d.UpdatedAt,
	}
}

var errNegativePrice = errors.New("negative price")

// parsePrice reads a decimal string. Empty means free.
func parsePrice(s string) (pgtype.Numeric, error) {
	if s == "" {
		return database.DecimalToNumeric(decimal.Zero), nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return pgtype.Numeric{}, err
	}
	if d.IsNegative() {
		return pgtype.Numeric{}, errNegativePrice
	}
	return database.DecimalToNumeric(d), nil
}

type dishInput struct {
	dishRequest
	price   pgtype.Numeric
	visible bool
}

func decodeDishRequest(w http.ResponseWriter, r *http.Request) (dishInput, bool) {
	var in dishInput
	if err := json.NewDecoder(r.Body).Decode(&in.dishRequest); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return in, false
	}
	if in.Name == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "name is required"})
		return in, false
	}
	price, err := parsePrice(in.Price)
	if err != nil {
		if errors.Is(err, errNegativePrice) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "price must not be negative"})
			return in, false
		}
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid price"})
		return in, false
	}
	in.price = price
	in.visible = in.IsVisible == nil || *in.IsVisible
	return in, true
}

// List returns the section's dishes by position.
func (h *DishHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	sectionID, ok := urlUUID(w, r, "sid", "section")
	if !ok {
		return
	}

	dishes, err := h.store.ListDishesBySection(r.Context(), database.ListDishesBySectionParams{
		SectionID:    sectionID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		zap.L().Error("list dishes", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]dishResponse, len(dishes))
	for i, d := range dishes {
		resp[i] = toDishResponse(d)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a dish to the section. Dishes are visible unless is_visible
// is false.
func (h *DishHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	sectionID, ok := urlUUID(w, r, "sid", "section")
	if !ok {
		return
	}
	in, ok := decodeDishRequest(w, r)
	if !ok {
		return
	}

	dish, err := h.store.CreateDish(r.Context(), database.CreateDishParams{
		SectionID:    sectionID,
		RestaurantID: restaurantID,
		Name:         in.Name,
		Description:  database.Text(in.Description),
		Price:        in.price,
		ImageUrl:     database.Text(in.ImageURL),
		Position:     in.Position,
		IsVisible:    in.visible,
	})
	if err != nil {
		writeStoreError(w, err, "create dish", "section not found")
		return
	}
	writeJSON(w, http.StatusCreated, toDishResponse(dish))
}

// Update replaces a dish's fields.
func (h *DishHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	sectionID, ok := urlUUID(w, r, "sid", "section")
	if !ok {
		return
	}
	dishID, ok := urlUUID(w, r, "id", "dish")
	if !ok {
		return
	}
	in, ok := decodeDishRequest(w, r)
	if !ok {
		return
	}

	dish, err := h.store.UpdateDish(r.Context(), database.UpdateDishParams{
		ID:           dishID,
		RestaurantID: restaurantID,
		SectionID:    sectionID,
		Name:         in.Name,
		Description:  database.Text(in.Description),
		Price:        in.price,
		ImageUrl:     database.Text(in.ImageURL),
		Position:     in.Position,
		IsVisible:    in.visible,
	})
	if err != nil {
		writeStoreError(w, err, "update dish", "dish not found")
		return
	}
	writeJSON(w, http.StatusOK, toDishResponse(dish))
}

// Delete removes a dish.
func (h *DishHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	sectionID, ok := urlUUID(w, r, "sid", "section")
	if !ok {
		return
	}
	dishID, ok := urlUUID(w, r, "id", "dish")
	if !ok {
		return
	}

	if _, err := h.store.DeleteDish(r.Context(), database.DeleteDishParams{
		ID:           dishID,
		RestaurantID: restaurantID,
		SectionID:    sectionID,
	}); err != nil {
		writeStoreError(w, err, "delete dish", "dish not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
