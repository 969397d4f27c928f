package handler

import (
	"context"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/menuboard/api/internal/billing"
	"github.com/menuboard/api/internal/service"
	"go.uber.org/zap"
)

const maxWebhookBytes = 64 << 10

// WebhookApplier stores the state carried by a verified billing event.
// Satisfied by *service.SubscriptionService.
type WebhookApplier interface {
	ApplyWebhook(ctx context.Context, evt *billing.Event) error
}

// WebhookHandler receives Stripe webhooks.
type WebhookHandler struct {
	applier WebhookApplier
	secret  string
}

// NewWebhookHandler creates a new WebhookHandler verifying payloads with
// the endpoint's signing secret.
func NewWebhookHandler(applier WebhookApplier, secret string) *WebhookHandler {
	return &WebhookHandler{applier: applier, secret: secret}
}

// RegisterRoutes registers the webhook endpoint on the given Chi router.
func (h *WebhookHandler) RegisterRoutes(r chi.Router) {
	r.Post("/webhooks/stripe", h.Stripe)
}

// Stripe verifies and applies one event. Events that cannot be routed to a
// restaurant are acknowledged so Stripe stops retrying them.
func (h *WebhookHandler) Stripe(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxWebhookBytes))
	if err != nil {
		writeJSON(w, http.StatusRequestEntityTooLarge, map[string]string{"error": "payload too large"})
		return
	}

	evt, err := billing.ParseWebhook(payload, r.Header.Get("Stripe-Signature"), h.secret)
	if err != nil {
		if errors.Is(err, billing.ErrInvalidSignature) {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid signature"})
			return
		}
		zap.L().Warn("malformed webhook", zap.Error(err))
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "malformed event"})
		return
	}

	if err := h.applier.ApplyWebhook(r.Context(), evt); err != nil {
		if errors.Is(err, service.ErrUnroutableEvent) {
			zap.L().Warn("unroutable webhook", zap.String("event_id", evt.ID), zap.String("type", evt.Type))
			writeJSON(w, http.StatusOK, map[string]bool{"received": true})
			return
		}
		zap.L().Error("apply webhook", zap.Error(err), zap.String("event_id", evt.ID), zap.String("type", evt.Type))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusOK, map[string]bool{"received": true})
}
