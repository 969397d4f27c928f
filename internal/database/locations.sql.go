package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const locationColumns = `id, restaurant_id, name, address, phone, is_default, is_active, created_at, updated_at`

func scanLocation(row rowScanner) (RestaurantLocation, error) {
	var i RestaurantLocation
	err := row.Scan(&i.ID, &i.RestaurantID, &i.Name, &i.Address, &i.Phone, &i.IsDefault, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listLocationsByRestaurant = `SELECT ` + locationColumns + `
FROM restaurant_locations
WHERE restaurant_id = $1 AND is_active = true
ORDER BY is_default DESC, name`

func (q *Queries) ListLocationsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]RestaurantLocation, error) {
	rows, err := q.db.Query(ctx, listLocationsByRestaurant, restaurantID)
	return collect(rows, err, scanLocation)
}

const createLocation = `INSERT INTO restaurant_locations (restaurant_id, name, address, phone, is_default)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + locationColumns

type CreateLocationParams struct {
	RestaurantID uuid.UUID   `json:"restaurant_id"`
	Name         string      `json:"name"`
	Address      pgtype.Text `json:"address"`
	Phone        pgtype.Text `json:"phone"`
	IsDefault    bool        `json:"is_default"`
}

func (q *Queries) CreateLocation(ctx context.Context, arg CreateLocationParams) (RestaurantLocation, error) {
	return scanLocation(q.db.QueryRow(ctx, createLocation, arg.RestaurantID, arg.Name, arg.Address, arg.Phone, arg.IsDefault))
}

const updateLocation = `UPDATE restaurant_locations
SET name = $3, address = $4, phone = $5, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING ` + locationColumns

type UpdateLocationParams struct {
	ID           uuid.UUID   `json:"id"`
	RestaurantID uuid.UUID   `json:"restaurant_id"`
	Name         string      `json:"name"`
	Address      pgtype.Text `json:"address"`
	Phone        pgtype.Text `json:"phone"`
}

func (q *Queries) UpdateLocation(ctx context.Context, arg UpdateLocationParams) (RestaurantLocation, error) {
	return scanLocation(q.db.QueryRow(ctx, updateLocation, arg.ID, arg.RestaurantID, arg.Name, arg.Address, arg.Phone))
}

const softDeleteLocation = `UPDATE restaurant_locations
SET is_active = false, is_default = false, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING id`

type SoftDeleteLocationParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) SoftDeleteLocation(ctx context.Context, arg SoftDeleteLocationParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, softDeleteLocation, arg.ID, arg.RestaurantID).Scan(&id)
	return id, err
}

const clearDefaultLocations = `UPDATE restaurant_locations
SET is_default = false, updated_at = now()
WHERE restaurant_id = $1 AND is_default = true`

func (q *Queries) ClearDefaultLocations(ctx context.Context, restaurantID uuid.UUID) error {
	_, err := q.db.Exec(ctx, clearDefaultLocations, restaurantID)
	return err
}

const markDefaultLocation = `UPDATE restaurant_locations
SET is_default = true, updated_at = now()
WHERE id = $1 AND restaurant_id = $2 AND is_active = true
RETURNING ` + locationColumns

type MarkDefaultLocationParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) MarkDefaultLocation(ctx context.Context, arg MarkDefaultLocationParams) (RestaurantLocation, error) {
	return scanLocation(q.db.QueryRow(ctx, markDefaultLocation, arg.ID, arg.RestaurantID))
}
