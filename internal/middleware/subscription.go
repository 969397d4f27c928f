package middleware

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"github.com/menuboard/api/internal/billing"
	"github.com/menuboard/api/internal/service"
	"go.uber.org/zap"
)

// StatusChecker evaluates a restaurant's subscription access.
// Satisfied by *service.SubscriptionService.
type StatusChecker interface {
	Status(ctx context.Context, restaurantID uuid.UUID, privileged bool) (billing.StatusInfo, error)
}

// RequireEditorAccess rejects editor mutations with 402 Payment Required
// unless the restaurant can access features. Reads always pass.
func RequireEditorAccess(checker StatusChecker) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			switch r.Method {
			case http.MethodGet, http.MethodHead, http.MethodOptions:
				next.ServeHTTP(w, r)
				return
			}

			claims := ClaimsFromContext(r.Context())
			if claims == nil {
				writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "not authenticated"})
				return
			}

			rid, err := restaurantParam(r)
			if err != nil {
				writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
				return
			}

			info, err := checker.Status(r.Context(), rid, claims.IsPrivileged())
			if err != nil {
				if errors.Is(err, service.ErrRestaurantNotFound) {
					writeJSON(w, http.StatusNotFound, map[string]string{"error": "restaurant not found"})
					return
				}
				zap.L().Error("subscription status", zap.Error(err), zap.Stringer("restaurant_id", rid))
				writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
				return
			}

			if !info.CanAccessFeatures {
				writeJSON(w, http.StatusPaymentRequired, map[string]interface{}{
					"error":        "an active editor subscription is required",
					"subscription": info,
				})
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
