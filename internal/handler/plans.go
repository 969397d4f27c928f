package handler

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/menuboard/api/internal/database"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// PlanStore defines the database methods needed by the plan catalog.
type PlanStore interface {
	ListActivePlans(ctx context.Context) ([]database.Plan, error)
}

// PlanHandler serves the public plan catalog.
type PlanHandler struct {
	store PlanStore
}

// NewPlanHandler creates a new PlanHandler.
func NewPlanHandler(store PlanStore) *PlanHandler {
	return &PlanHandler{store: store}
}

// RegisterRoutes registers plan endpoints on the given Chi router.
func (h *PlanHandler) RegisterRoutes(r chi.Router) {
	r.Get("/plans", h.List)
}

type planResponse struct {
	ID              uuid.UUID       `json:"id"`
	Name            string          `json:"name"`
	StripePriceID   string          `json:"stripe_price_id"`
	Amount          decimal.Decimal `json:"amount"`
	Currency        string          `json:"currency"`
	BillingInterval string          `json:"billing_interval"`
	Features        json.RawMessage `json:"features"`
	SortOrder       int32           `json:"sort_order"`
}

func toPlanResponse(p database.Plan) planResponse {
	features := json.RawMessage(p.Features)
	if len(features) == 0 {
		features = json.RawMessage(`{}`)
	}
	return planResponse{
		ID:              p.ID,
		Name:            p.Name,
		StripePriceID:   p.StripePriceID,
		Amount:          database.NumericToDecimal(p.Amount),
		Currency:        p.Currency,
		BillingInterval: p.BillingInterval,
		Features:        features,
		SortOrder:       p.SortOrder,
	}
}

// List returns active plans in catalog order.
func (h *PlanHandler) List(w http.ResponseWriter, r *http.Request) {
	plans, err := h.store.ListActivePlans(r.Context())
	if err != nil {
		zap.L().Error("list plans", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]planResponse, len(plans))
	for i, p := range plans {
		resp[i] = toPlanResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}
