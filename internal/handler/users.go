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
	"github.com/menuboard/api/internal/enum"
	"github.com/menuboard/api/internal/middleware"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

const minPasswordLength = 8

// UserStore defines the database methods needed by user handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type UserStore interface {
	ListProfilesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.Profile, error)
	GetProfile(ctx context.Context, arg database.GetProfileParams) (database.Profile, error)
	CreateProfile(ctx context.Context, arg database.CreateProfileParams) (database.Profile, error)
	UpdateProfile(ctx context.Context, arg database.UpdateProfileParams) (database.Profile, error)
	SoftDeleteProfile(ctx context.Context, arg database.SoftDeleteProfileParams) (uuid.UUID, error)
}

// UserHandler handles the restaurant's team members.
type UserHandler struct {
	store UserStore
}

// NewUserHandler creates a new UserHandler.
func NewUserHandler(store UserStore) *UserHandler {
	return &UserHandler{store: store}
}

// RegisterRoutes registers user CRUD endpoints on the given Chi router.
// Expected to be mounted inside a restaurant-scoped subrouter: /restaurants/{rid}/users
func (h *UserHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.List)
	r.Post("/", h.Create)
	r.Put("/{id}", h.Update)
	r.Delete("/{id}", h.Delete)
}

// --- Request / Response types ---

type createUserRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type updateUserRequest struct {
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     string `json:"role"`
}

type userDetailResponse struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
	IsActive     bool      `json:"is_active"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func toUserDetailResponse(p database.Profile) userDetailResponse {
	return userDetailResponse{
		ID:           p.ID,
		RestaurantID: p.RestaurantID,
		Email:        p.Email,
		FullName:     p.FullName,
		Role:         p.Role,
		IsActive:     p.IsActive,
		CreatedAt:    p.CreatedAt,
		UpdatedAt:    p.UpdatedAt,
	}
}

// --- Handlers ---

// List returns all active users of the restaurant.
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	profiles, err := h.store.ListProfilesByRestaurant(r.Context(), restaurantID)
	if err != nil {
		zap.L().Error("list users", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	resp := make([]userDetailResponse, len(profiles))
	for i, p := range profiles {
		resp[i] = toUserDetailResponse(p)
	}
	writeJSON(w, http.StatusOK, resp)
}

// Create adds a new user to the restaurant.
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" || req.Role == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email, password, full_name, and role are required"})
		return
	}

	if !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email format"})
		return
	}

	if len(req.Password) < minPasswordLength {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "password must be at least 8 characters"})
		return
	}

	if !h.checkRole(w, r, req.Role) {
		return
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		zap.L().Error("create user: hash password", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	profile, err := h.store.CreateProfile(r.Context(), database.CreateProfileParams{
		RestaurantID:   restaurantID,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		HashedPassword: string(hashed),
		FullName:       req.FullName,
		Role:           req.Role,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already exists"})
			return
		}
		zap.L().Error("create user", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, toUserDetailResponse(profile))
}

// Update modifies an existing user of the restaurant.
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	userID, ok := urlUUID(w, r, "id", "user")
	if !ok {
		return
	}

	var req updateUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.FullName == "" || req.Role == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email, full_name, and role are required"})
		return
	}

	if !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email format"})
		return
	}

	if !h.checkRole(w, r, req.Role) {
		return
	}
	if !h.checkTarget(w, r, restaurantID, userID, "update user") {
		return
	}

	profile, err := h.store.UpdateProfile(r.Context(), database.UpdateProfileParams{
		ID:           userID,
		RestaurantID: restaurantID,
		Email:        strings.ToLower(strings.TrimSpace(req.Email)),
		FullName:     req.FullName,
		Role:         req.Role,
	})
	if err != nil {
		if isUniqueViolation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{"error": "email already exists"})
			return
		}
		writeStoreError(w, err, "update user", "user not found")
		return
	}

	writeJSON(w, http.StatusOK, toUserDetailResponse(profile))
}

// Delete soft-deletes a user by setting is_active=false. Users cannot
// delete themselves.
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	restaurantID, ok := urlUUID(w, r, "rid", "restaurant")
	if !ok {
		return
	}
	userID, ok := urlUUID(w, r, "id", "user")
	if !ok {
		return
	}

	if claims := middleware.ClaimsFromContext(r.Context()); claims != nil && claims.UserID == userID {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "cannot delete your own account"})
		return
	}
	if !h.checkTarget(w, r, restaurantID, userID, "delete user") {
		return
	}

	_, err := h.store.SoftDeleteProfile(r.Context(), database.SoftDeleteProfileParams{
		ID:           userID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		writeStoreError(w, err, "delete user", "user not found")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// --- Helpers ---

// checkRole rejects unknown roles, and OWNER unless the caller is an OWNER
// or ADMIN. ADMIN is never assignable here.
func (h *UserHandler) checkRole(w http.ResponseWriter, r *http.Request, role string) bool {
	if !isValidRole(role) {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid role"})
		return false
	}
	if role == enum.UserRoleOwner {
		claims := middleware.ClaimsFromContext(r.Context())
		if claims == nil || (claims.Role != enum.UserRoleOwner && !claims.IsPrivileged()) {
			writeJSON(w, http.StatusForbidden, map[string]string{"error": "only an owner can assign the OWNER role"})
			return false
		}
	}
	return true
}

// checkTarget loads the user being changed and rejects the request when the
// target is an OWNER or ADMIN and the caller is neither.
func (h *UserHandler) checkTarget(w http.ResponseWriter, r *http.Request, restaurantID, userID uuid.UUID, op string) bool {
	target, err := h.store.GetProfile(r.Context(), database.GetProfileParams{
		ID:           userID,
		RestaurantID: restaurantID,
	})
	if err != nil {
		writeStoreError(w, err, op, "user not found")
		return false
	}
	if target.Role != enum.UserRoleOwner && target.Role != enum.UserRoleAdmin {
		return true
	}
	claims := middleware.ClaimsFromContext(r.Context())
	if claims == nil || (claims.Role != enum.UserRoleOwner && !claims.IsPrivileged()) {
		writeJSON(w, http.StatusForbidden, map[string]string{"error": "only an owner can change an owner or admin"})
		return false
	}
	return true
}

func isValidRole(role string) bool {
	switch role {
	case enum.UserRoleOwner, enum.UserRoleManager, enum.UserRoleStaff:
		return true
	}
	return false
}
