package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/menuboard/api/internal/auth"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/service"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
)

// AuthStore defines the database methods needed by auth handlers.
// Satisfied by *database.Queries; narrow interface for testability.
type AuthStore interface {
	GetProfileByEmail(ctx context.Context, email string) (database.Profile, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (database.Profile, error)
}

// Registrar creates a restaurant together with its owner.
// Satisfied by *service.RestaurantService.
type Registrar interface {
	Register(ctx context.Context, req service.RegisterRequest) (*service.RegisterResult, error)
}

// AuthHandler handles authentication endpoints.
type AuthHandler struct {
	store     AuthStore
	registrar Registrar
	jwtSecret string
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(store AuthStore, registrar Registrar, jwtSecret string) *AuthHandler {
	return &AuthHandler{store: store, registrar: registrar, jwtSecret: jwtSecret}
}

// RegisterRoutes registers auth endpoints on the given Chi router.
func (h *AuthHandler) RegisterRoutes(r chi.Router) {
	r.Post("/auth/register", h.Register)
	r.Post("/auth/login", h.Login)
	r.Post("/auth/refresh", h.Refresh)
}

// --- Request / Response types ---

type registerRequest struct {
	RestaurantName string `json:"restaurant_name"`
	Email          string `json:"email"`
	Password       string `json:"password"`
	FullName       string `json:"full_name"`
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type refreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

type tokenResponse struct {
	AccessToken  string       `json:"access_token"`
	RefreshToken string       `json:"refresh_token"`
	User         userResponse `json:"user"`
}

type userResponse struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	FullName     string    `json:"full_name"`
	Email        string    `json:"email"`
	Role         string    `json:"role"`
}

type registerResponse struct {
	tokenResponse
	Restaurant restaurantResponse `json:"restaurant"`
	Location   locationResponse   `json:"location"`
}

// --- Handlers ---

// Register signs up a new restaurant and logs its owner in.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" || req.FullName == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "restaurant_name, email, password, and full_name are required"})
		return
	}

	if !strings.Contains(req.Email, "@") {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid email format"})
		return
	}

	result, err := h.registrar.Register(r.Context(), service.RegisterRequest{
		RestaurantName: req.RestaurantName,
		Email:          req.Email,
		Password:       req.Password,
		FullName:       req.FullName,
	})
	if err != nil {
		switch {
		case errors.Is(err, service.ErrRestaurantNameRequired), errors.Is(err, service.ErrWeakPassword):
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		case errors.Is(err, service.ErrEmailTaken):
			writeJSON(w, http.StatusConflict, map[string]string{"error": err.Error()})
		default:
			zap.L().Error("register restaurant", zap.Error(err))
			writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		}
		return
	}

	tokens, err := h.issueTokens(result.Owner)
	if err != nil {
		zap.L().Error("register: issue tokens", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	writeJSON(w, http.StatusCreated, registerResponse{
		tokenResponse: tokens,
		Restaurant:    toRestaurantResponse(result.Restaurant),
		Location:      toLocationResponse(result.Location),
	})
}

// Login handles email + password authentication.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.Email == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "email and password are required"})
		return
	}

	profile, err := h.store.GetProfileByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
			return
		}
		zap.L().Error("login: get profile", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !profile.IsActive {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	if err := bcrypt.CompareHashAndPassword([]byte(profile.HashedPassword), []byte(req.Password)); err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid credentials"})
		return
	}

	h.respondWithTokens(w, profile)
}

// Refresh exchanges a valid refresh token for a new access + refresh token pair.
func (h *AuthHandler) Refresh(w http.ResponseWriter, r *http.Request) {
	var req refreshRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid request body"})
		return
	}

	if req.RefreshToken == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "refresh_token is required"})
		return
	}

	userID, err := auth.ValidateRefreshToken(h.jwtSecret, req.RefreshToken)
	if err != nil {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "invalid refresh token"})
		return
	}

	profile, err := h.store.GetProfileByID(r.Context(), userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "user not found"})
			return
		}
		zap.L().Error("refresh: get profile", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}

	if !profile.IsActive {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "user not found"})
		return
	}

	h.respondWithTokens(w, profile)
}

// --- Helpers ---

func (h *AuthHandler) issueTokens(p database.Profile) (tokenResponse, error) {
	accessToken, err := auth.GenerateToken(h.jwtSecret, p.ID, p.RestaurantID, p.Role)
	if err != nil {
		return tokenResponse{}, err
	}

	refreshToken, err := auth.GenerateRefreshToken(h.jwtSecret, p.ID)
	if err != nil {
		return tokenResponse{}, err
	}

	return tokenResponse{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		User: userResponse{
			ID:           p.ID,
			RestaurantID: p.RestaurantID,
			FullName:     p.FullName,
			Email:        p.Email,
			Role:         p.Role,
		},
	}, nil
}

func (h *AuthHandler) respondWithTokens(w http.ResponseWriter, p database.Profile) {
	tokens, err := h.issueTokens(p)
	if err != nil {
		zap.L().Error("issue tokens", zap.Error(err))
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "internal server error"})
		return
	}
	writeJSON(w, http.StatusOK, tokens)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		zap.L().Error("encode JSON response", zap.Error(err))
	}
}
