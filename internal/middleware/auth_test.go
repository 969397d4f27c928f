package middleware_test

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/menuboard/api/internal/auth"
	"github.com/menuboard/api/internal/enum"
	"github.com/menuboard/api/internal/middleware"
)

const testSecret = "test-secret"

func TestAuthMiddleware_ValidToken(t *testing.T) {
	userID := uuid.New()
	restaurantID := uuid.New()
	token, _ := auth.GenerateToken(testSecret, userID, restaurantID, enum.UserRoleStaff)

	handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil {
			t.Fatal("expected claims in context")
		}
		if claims.UserID != userID {
			t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
		}
		if claims.RestaurantID != restaurantID {
			t.Errorf("restaurant ID: got %v, want %v", claims.RestaurantID, restaurantID)
		}
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestAuthMiddleware_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		header string
	}{
		{"missing header", ""},
		{"wrong scheme", "Basic abc"},
		{"invalid token", "Bearer invalid-token"},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			handler := middleware.Authenticate(testSecret)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				t.Fatal("handler should not be called")
			}))

			req := httptest.NewRequest("GET", "/", nil)
			if tc.header != "" {
				req.Header.Set("Authorization", tc.header)
			}
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusUnauthorized {
				t.Errorf("status: got %d, want %d", rr.Code, http.StatusUnauthorized)
			}
		})
	}
}

func restaurantRequest(token string, rid string) *http.Request {
	req := httptest.NewRequest("GET", "/restaurants/"+rid+"/test", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	req.SetPathValue("rid", rid)
	return req
}

func TestRequireRestaurant_Matching(t *testing.T) {
	restaurantID := uuid.New()
	token, _ := auth.GenerateToken(testSecret, uuid.New(), restaurantID, enum.UserRoleManager)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Authenticate(testSecret)(middleware.RequireRestaurant(inner))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, restaurantRequest(token, restaurantID.String()))

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusOK)
	}
}

func TestRequireRestaurant_Mismatched(t *testing.T) {
	token, _ := auth.GenerateToken(testSecret, uuid.New(), uuid.New(), enum.UserRoleOwner)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})
	handler := middleware.Authenticate(testSecret)(middleware.RequireRestaurant(inner))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, restaurantRequest(token, uuid.NewString()))

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}

func TestRequireRestaurant_InvalidID(t *testing.T) {
	token, _ := auth.GenerateToken(testSecret, uuid.New(), uuid.New(), enum.UserRoleOwner)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler should not be called")
	})
	handler := middleware.Authenticate(testSecret)(middleware.RequireRestaurant(inner))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, restaurantRequest(token, "not-a-uuid"))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusBadRequest)
	}
}

func TestRequireRestaurant_AdminBypassesCheck(t *testing.T) {
	token, _ := auth.GenerateToken(testSecret, uuid.New(), uuid.New(), enum.UserRoleAdmin)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	handler := middleware.Authenticate(testSecret)(middleware.RequireRestaurant(inner))

	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, restaurantRequest(token, uuid.NewString()))

	if rr.Code != http.StatusOK {
		t.Errorf("status: got %d, want %d (ADMIN should bypass restaurant check)", rr.Code, http.StatusOK)
	}
}

func TestRequireRole(t *testing.T) {
	token, _ := auth.GenerateToken(testSecret, uuid.New(), uuid.New(), enum.UserRoleStaff)

	inner := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	// STAFF trying to access an OWNER/MANAGER endpoint
	handler := middleware.Authenticate(testSecret)(middleware.RequireRole(enum.UserRoleOwner, enum.UserRoleManager)(inner))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)

	if rr.Code != http.StatusForbidden {
		t.Errorf("status: got %d, want %d", rr.Code, http.StatusForbidden)
	}
}
