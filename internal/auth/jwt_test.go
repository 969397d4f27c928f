package auth_test

import (
	"testing"

	"github.com/google/uuid"
	"github.com/menuboard/api/internal/auth"
	"github.com/menuboard/api/internal/enum"
)

func TestGenerateAndValidateToken(t *testing.T) {
	secret := "test-secret"
	userID := uuid.New()
	restaurantID := uuid.New()
	role := enum.UserRoleManager

	token, err := auth.GenerateToken(secret, userID, restaurantID, role)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	claims, err := auth.ValidateToken(secret, token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}

	if claims.UserID != userID {
		t.Errorf("user ID: got %v, want %v", claims.UserID, userID)
	}
	if claims.RestaurantID != restaurantID {
		t.Errorf("restaurant ID: got %v, want %v", claims.RestaurantID, restaurantID)
	}
	if claims.Role != role {
		t.Errorf("role: got %v, want %v", claims.Role, role)
	}
	if claims.IsPrivileged() {
		t.Error("manager should not be privileged")
	}
}

func TestClaimsIsPrivileged(t *testing.T) {
	token, err := auth.GenerateToken("s", uuid.New(), uuid.New(), enum.UserRoleAdmin)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}
	claims, err := auth.ValidateToken("s", token)
	if err != nil {
		t.Fatalf("validate token: %v", err)
	}
	if !claims.IsPrivileged() {
		t.Error("admin should be privileged")
	}
}

func TestValidateTokenWithWrongSecret(t *testing.T) {
	token, err := auth.GenerateToken("secret-a", uuid.New(), uuid.New(), enum.UserRoleStaff)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	_, err = auth.ValidateToken("secret-b", token)
	if err == nil {
		t.Fatal("expected error validating with wrong secret")
	}
}

func TestValidateTokenWithInvalidString(t *testing.T) {
	_, err := auth.ValidateToken("secret", "not-a-jwt")
	if err == nil {
		t.Fatal("expected error validating invalid token string")
	}
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	userID := uuid.New()
	token, err := auth.GenerateRefreshToken("secret", userID)
	if err != nil {
		t.Fatalf("generate refresh token: %v", err)
	}

	got, err := auth.ValidateRefreshToken("secret", token)
	if err != nil {
		t.Fatalf("validate refresh token: %v", err)
	}
	if got != userID {
		t.Errorf("user ID: got %v, want %v", got, userID)
	}

	if _, err := auth.ValidateRefreshToken("other", token); err == nil {
		t.Error("expected error validating refresh token with wrong secret")
	}
}
