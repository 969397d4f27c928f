package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"unicode"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/enum"
	"golang.org/x/crypto/bcrypt"
)

// Errors returned by the restaurant service.
var (
	ErrRestaurantNameRequired = errors.New("restaurant_name is required")
	ErrEmailTaken             = errors.New("email is already registered")
	ErrLocationNotFound       = errors.New("location not found")
	ErrWeakPassword           = errors.New("password must be at least 8 characters")
)

const minPasswordLength = 8

// RestaurantStore defines the DB methods needed for registration and default
// location changes. Satisfied by *database.Queries (and its WithTx variant).
type RestaurantStore interface {
	CreateRestaurant(ctx context.Context, arg database.CreateRestaurantParams) (database.Restaurant, error)
	CreateLocation(ctx context.Context, arg database.CreateLocationParams) (database.RestaurantLocation, error)
	CreateProfile(ctx context.Context, arg database.CreateProfileParams) (database.Profile, error)
	ClearDefaultLocations(ctx context.Context, restaurantID uuid.UUID) error
	MarkDefaultLocation(ctx context.Context, arg database.MarkDefaultLocationParams) (database.RestaurantLocation, error)
}

// NewRestaurantStore creates a RestaurantStore from a DBTX (pool or tx).
type NewRestaurantStore func(db database.DBTX) RestaurantStore

// RegisterRequest is the sign-up form of a new restaurant owner.
type RegisterRequest struct {
	RestaurantName string
	Email          string
	Password       string
	FullName       string
}

// RegisterResult is everything created by a sign-up.
type RegisterResult struct {
	Restaurant database.Restaurant
	Location   database.RestaurantLocation
	Owner      database.Profile
}

// RestaurantService handles restaurant lifecycle operations.
type RestaurantService struct {
	pool     TxBeginner
	newStore NewRestaurantStore
}

// NewRestaurantService creates a new RestaurantService.
func NewRestaurantService(pool TxBeginner, newStore NewRestaurantStore) *RestaurantService {
	return &RestaurantService{pool: pool, newStore: newStore}
}

// Register creates a restaurant, its default location and its OWNER profile
// atomically.
func (s *RestaurantService) Register(ctx context.Context, req RegisterRequest) (*RegisterResult, error) {
	name := strings.TrimSpace(req.RestaurantName)
	if name == "" {
		return nil, ErrRestaurantNameRequired
	}
	if len(req.Password) < minPasswordLength {
		return nil, ErrWeakPassword
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)

	restaurant, err := store.CreateRestaurant(ctx, database.CreateRestaurantParams{
		Name: name,
		Slug: Slugify(name) + "-" + uuid.NewString()[:8],
	})
	if err != nil {
		return nil, fmt.Errorf("create restaurant: %w", err)
	}

	location, err := store.CreateLocation(ctx, database.CreateLocationParams{
		RestaurantID: restaurant.ID,
		Name:         name,
		IsDefault:    true,
	})
	if err != nil {
		return nil, fmt.Errorf("create location: %w", err)
	}

	owner, err := store.CreateProfile(ctx, database.CreateProfileParams{
		RestaurantID:   restaurant.ID,
		Email:          strings.ToLower(strings.TrimSpace(req.Email)),
		HashedPassword: string(hash),
		FullName:       req.FullName,
		Role:           enum.UserRoleOwner,
	})
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return nil, ErrEmailTaken
		}
		return nil, fmt.Errorf("create profile: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return &RegisterResult{Restaurant: restaurant, Location: location, Owner: owner}, nil
}

// SetDefaultLocation makes locationID the restaurant's only default location.
func (s *RestaurantService) SetDefaultLocation(ctx context.Context, restaurantID, locationID uuid.UUID) (database.RestaurantLocation, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return database.RestaurantLocation{}, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	store := s.newStore(tx)
	if err := store.ClearDefaultLocations(ctx, restaurantID); err != nil {
		return database.RestaurantLocation{}, fmt.Errorf("clear defaults: %w", err)
	}
	loc, err := store.MarkDefaultLocation(ctx, database.MarkDefaultLocationParams{ID: locationID, RestaurantID: restaurantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.RestaurantLocation{}, ErrLocationNotFound
		}
		return database.RestaurantLocation{}, fmt.Errorf("mark default: %w", err)
	}
	if err := tx.Commit(ctx); err != nil {
		return database.RestaurantLocation{}, fmt.Errorf("commit tx: %w", err)
	}
	return loc, nil
}

// Slugify lowercases name and joins its letter and digit runs with dashes.
func Slugify(name string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(name) {
		if unicode.IsLetter(r) || unicode.IsDigit(r) {
			if dash && b.Len() > 0 {
				b.WriteByte('-')
			}
			b.WriteRune(r)
			dash = false
			continue
		}
		dash = true
	}
	if b.Len() == 0 {
		return "restaurant"
	}
	return b.String()
}
