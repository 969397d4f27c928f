package database

import (
	"context"

	"github.com/google/uuid"
)

const restaurantColumns = `id, name, slug, subscription_override, is_active, created_at, updated_at`

func scanRestaurant(row rowScanner) (Restaurant, error) {
	var i Restaurant
	err := row.Scan(&i.ID, &i.Name, &i.Slug, &i.SubscriptionOverride, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listRestaurants = `SELECT ` + restaurantColumns + `
FROM restaurants
WHERE is_active = true
ORDER BY name`

func (q *Queries) ListRestaurants(ctx context.Context) ([]Restaurant, error) {
	rows, err := q.db.Query(ctx, listRestaurants)
	return collect(rows, err, scanRestaurant)
}

const getRestaurant = `SELECT ` + restaurantColumns + `
FROM restaurants
WHERE id = $1 AND is_active = true`

func (q *Queries) GetRestaurant(ctx context.Context, id uuid.UUID) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, getRestaurant, id))
}

const createRestaurant = `INSERT INTO restaurants (name, slug)
VALUES ($1, $2)
RETURNING ` + restaurantColumns

type CreateRestaurantParams struct {
	Name string `json:"name"`
	Slug string `json:"slug"`
}

func (q *Queries) CreateRestaurant(ctx context.Context, arg CreateRestaurantParams) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, createRestaurant, arg.Name, arg.Slug))
}

const updateRestaurant = `UPDATE restaurants
SET name = $2, slug = $3, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING ` + restaurantColumns

type UpdateRestaurantParams struct {
	ID   uuid.UUID `json:"id"`
	Name string    `json:"name"`
	Slug string    `json:"slug"`
}

func (q *Queries) UpdateRestaurant(ctx context.Context, arg UpdateRestaurantParams) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, updateRestaurant, arg.ID, arg.Name, arg.Slug))
}

const setRestaurantOverride = `UPDATE restaurants
SET subscription_override = $2, updated_at = now()
WHERE id = $1 AND is_active = true
RETURNING ` + restaurantColumns

type SetRestaurantOverrideParams struct {
	ID                   uuid.UUID `json:"id"`
	SubscriptionOverride bool      `json:"subscription_override"`
}

func (q *Queries) SetRestaurantOverride(ctx context.Context, arg SetRestaurantOverrideParams) (Restaurant, error) {
	return scanRestaurant(q.db.QueryRow(ctx, setRestaurantOverride, arg.ID, arg.SubscriptionOverride))
}
