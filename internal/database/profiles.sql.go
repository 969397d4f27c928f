package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const profileColumns = `id, restaurant_id, email, hashed_password, full_name, role, stripe_customer_id, is_active, created_at, updated_at`

func scanProfile(row rowScanner) (Profile, error) {
	var i Profile
	err := row.Scan(&i.ID, &i.RestaurantID, &i.Email, &i.HashedPassword, &i.FullName, &i.Role,
		&i.StripeCustomerID, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const getProfileByEmail = `SELECT ` + profileColumns + `
FROM profiles
WHERE email = $1 AND is_active = true`

func (q *Queries) GetProfileByEmail(ctx context.Context, email string) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, getProfileByEmail, email))
}

const getProfileByID = `SELECT ` + profileColumns + `
FROM profiles
WHERE id = $1 AND is_active = true`

func (q *Queries) GetProfileByID(ctx context.Context, id uuid.UUID) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, getProfileByID, id))
}

const getProfile = `SELECT ` + profileColumns + `
FROM profiles
WHERE id = $1 AND restaurant_id = $2 AND is_active = true`

type GetProfileParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) GetProfile(ctx context.Context, arg GetProfileParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, getProfile, arg.ID, arg.RestaurantID))
}

const listProfilesByRestaurant = `SELECT ` + profileColumns + `
FROM profiles
WHERE restaurant_id = $1 AND is_active = true
ORDER BY full_name`

func (q *Queries) ListProfilesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]Profile, error) {
	rows, err := q.db.Query(ctx, listProfilesByRestaurant, restaurantID)
	return collect(rows, err, scanProfile)
}

const createProfile = `INSERT INTO profiles (restaurant_id, email, hashed_password, full_name, role)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + profileColumns

type CreateProfileParams struct {
	RestaurantID   uuid.UUID `json:"restaurant_id"`
	Email          string    `json:"email"`
	HashedPassword string    `json:"hashed_password"`
	FullName       string    `json:"full_name"`
	Role           string    `json:"role"`
}

func (q *Queries) CreateProfile(ctx context.Context, arg CreateProfileParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, createProfile, arg.RestaurantID, arg.Email, arg.HashedPassword, arg.FullName, arg.Role))
}

const updateProfile = `UPDATE profiles
SET email = $3, full_name = $4, role = $5, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING ` + profileColumns

type UpdateProfileParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Email        string    `json:"email"`
	FullName     string    `json:"full_name"`
	Role         string    `json:"role"`
}

func (q *Queries) UpdateProfile(ctx context.Context, arg UpdateProfileParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, updateProfile, arg.ID, arg.RestaurantID, arg.Email, arg.FullName, arg.Role))
}

const softDeleteProfile = `UPDATE profiles
SET is_active = false, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING id`

type SoftDeleteProfileParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) SoftDeleteProfile(ctx context.Context, arg SoftDeleteProfileParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteProfile, arg.ID, arg.RestaurantID).Scan(&id)
	return id, err
}

const setProfileStripeCustomer = `UPDATE profiles
SET stripe_customer_id = $2, updated_at = now()
WHERE id = $1
RETURNING ` + profileColumns

type SetProfileStripeCustomerParams struct {
	ID               uuid.UUID   `json:"id"`
	StripeCustomerID pgtype.Text `json:"stripe_customer_id"`
}

func (q *Queries) SetProfileStripeCustomer(ctx context.Context, arg SetProfileStripeCustomerParams) (Profile, error) {
	return scanProfile(q.db.QueryRow(ctx, setProfileStripeCustomer, arg.ID, arg.StripeCustomerID))
}
