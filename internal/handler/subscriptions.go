package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/menuboard/api/internal/billing"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/middleware"
	"github.com/menuboard/api/internal/service"
	"go.uber.org/zap"
)

// SubscriptionManager is the subscription lifecycle used by the handlers.
// Satisfied by *service.SubscriptionService.
type SubscriptionManager interface {
	Status(ctx context.Context, restaurantID uuid.UUID, privileged bool) (billing.StatusInfo, error)
	List(ctx context.Context, restaurantID uuid.UUID) ([]service.SubscriptionView, error)
	StartCheckout(ctx context.Context, req service.CheckoutRequest) (string, error)
	Cancel(ctx context.Context, restaurantID, subscriptionID uuid.UUID) (database.Subscription, error)
	Resume(ctx context.Context, restaurantID, subscriptionID uuid.UUID) (database.Subscription, error)
	PortalURL(ctx context.Context, restaurantID, profileID uuid.UUID) (string, error)
}

// SubscriptionHandler handles a restaurant's subscription endpoints.
type SubscriptionHandler struct {
	subs SubscriptionManager
}

// NewSubscriptionHandler creates a new SubscriptionHandler.
func NewSubscriptionHandler(subs SubscriptionManager) *SubscriptionHandler {
	return &SubscriptionHandler{subs: subs}
}

// RegisterRoutes registers subscription endpoints on the given Chi router.
// Expected to be mounted inside a restaurant-scoped subrouter: /restaurants/{rid}/subscriptions
// manage wraps the endpoints that change billing.
func (h *SubscriptionHandler) RegisterRoutes(r chi.Router, manage func(http.Handler) http.Handler) {
	r.Get("/", h.List)
	r.Get("/status", h.Status)
	r.Group(func(r chi.Router) {
		r.Use(manage)
		r.Post("/checkout", h.Checkout)
		r.Post("/portal", h.Portal)
		r.Post("/{id}/cancel", h.Cancel)
		r.Post("/{id}/resume", h.Resume)
	})
}

type checkoutRequest struct {
	PlanID string `json:"plan_id"`
}

type redirectResponse struct {
	URL string `json:"url"`
}

// List returns the restaurant's subscriptions, most relevant first.
func (h *SubscriptionHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	views, err := h.subs.List(r.Context(), restaurantID)
	if err != nil {
		zap.L().Error("list subscriptions", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	if views == nil {
		views = []service.SubscriptionView{}
	}
	writeJSON(w, http.StatusOK, views)
}

// Status returns the access decision for the restaurant as seen by the caller.
func (h *SubscriptionHandler) Status(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	privileged := false
	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil {
		privileged = claims.IsPrivileged()
	}

	info, err := h.subs.Status(r.Context(), restaurantID, privileged)
	if err != nil {
		writeBillingError(w, err, "subscription status")
		return
	}
	writeJSON(w, http.StatusOK, info)
}

// Checkout starts a hosted checkout for a plan and returns its URL.
func (h *SubscriptionHandler) Checkout(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	var req checkoutRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	planID, err := uuid.Parse(req.PlanID)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid plan_id"})
		return
	}

	url, err := h.subs.StartCheckout(r.Context(), service.CheckoutRequest{
		RestaurantID: restaurantID,
		ProfileID:    claims.UserID,
		PlanID:       planID,
	})
	if err != nil {
		writeBillingError(w, err, "start checkout")
		return
	}
	writeJSON(w, http.StatusOK, redirectResponse{URL: url})
}

// Portal opens a billing portal session for the restaurant.
func (h *SubscriptionHandler) Portal(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
		return
	}

	url, err := h.subs.PortalURL(r.Context(), restaurantID, claims.UserID)
	if err != nil {
		writeBillingError(w, err, "billing portal")
		return
	}
	writeJSON(w, http.StatusOK, redirectResponse{URL: url})
}

// Cancel schedules a subscription to end at the close of its period.
func (h *SubscriptionHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	h.changeCancellation(w, r, h.subs.Cancel, "cancel subscription")
}

// Resume withdraws a scheduled cancellation.
func (h *SubscriptionHandler) Resume(w http.ResponseWriter, r *http.Request) {
	h.changeCancellation(w, r, h.subs.Resume, "resume subscription")
}

func (h *SubscriptionHandler) changeCancellation(
	w http.ResponseWriter,
	r *http.Request,
	call func(context.Context, uuid.UUID, uuid.UUID) (database.Subscription, error),
	op string,
) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	subscriptionID, ok := urlUUID(w, r, "id", "subscription")
	if !ok {
		return
	}

	sub, err := call(r.Context(), restaurantID, subscriptionID)
	if err != nil {
		writeBillingError(w, err, op)
		return
	}
	writeJSON(w, http.StatusOK, sub)
}

// writeBillingError maps subscription service errors. Requests Stripe
// rejected are the caller's fault (400); Stripe failing is a 502.
func writeBillingError(w http.ResponseWriter, err error, op string) {
	var stripeErr *billing.StripeError
	switch {
	case errors.Is(err, service.ErrPlanNotFound),
		errors.Is(err, service.ErrPlanInactive),
		errors.Is(err, service.ErrProfileNotFound),
		errors.Is(err, service.ErrNoBillingCustomer):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
	case errors.Is(err, service.ErrSubscriptionNotFound),
		errors.Is(err, service.ErrRestaurantNotFound):
		writeJSON(w, http.StatusNotFound, map[string]string{"error": err.Error()})
	case errors.As(err, &stripeErr):
		if stripeErr.IsClientError() {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": stripeErr.Message})
			return
		}
		zap.L().Error(op, zap.Error(err))
		writeJSON(w, http.StatusBadGateway, map[string]string{"error": "payment provider unavailable"})
	default:
		zap.L().Error(op, zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
	}
}
