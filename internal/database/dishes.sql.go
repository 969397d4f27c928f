package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const dishColumns = `d.id, d.section_id, d.name, d.description, d.price, d.image_url, d.position, d.is_visible, d.created_at, d.updated_at`

func scanDish(row rowScanner) (MenuDish, error) {
	var i MenuDish
	err := row.Scan(&i.ID, &i.SectionID, &i.Name, &i.Description, &i.Price, &i.ImageUrl,
		&i.Position, &i.IsVisible, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listDishesBySection = `SELECT ` + dishColumns + `
FROM menu_dishes d
JOIN sections s ON s.id = d.section_id
JOIN pages pg ON pg.id = s.page_id
JOIN templates t ON t.id = pg.template_id
WHERE d.section_id = $1 AND t.restaurant_id = $2
ORDER BY d.position`

type ListDishesBySectionParams struct {
	SectionID    uuid.UUID `json:"section_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) ListDishesBySection(ctx context.Context, arg ListDishesBySectionParams) ([]MenuDish, error) {
	rows, err := q.db.Query(ctx, listDishesBySection, arg.SectionID, arg.RestaurantID)
	return collect(rows, err, scanDish)
}

const createDish = `INSERT INTO menu_dishes AS d (section_id, name, description, price, image_url, position, is_visible)
SELECT s.id, $3, $4, $5, $6, $7, $8
FROM sections s
JOIN pages pg ON pg.id = s.page_id
JOIN templates t ON t.id = pg.template_id
WHERE s.id = $1 AND t.restaurant_id = $2
RETURNING ` + dishColumns

type CreateDishParams struct {
	SectionID    uuid.UUID      `json:"section_id"`
	RestaurantID uuid.UUID      `json:"restaurant_id"`
	Name         string         `json:"name"`
	Description  pgtype.Text    `json:"description"`
	Price        pgtype.Numeric `json:"price"`
	ImageUrl     pgtype.Text    `json:"image_url"`
	Position     int32          `json:"position"`
	IsVisible    bool           `json:"is_visible"`
}

func (q *Queries) CreateDish(ctx context.Context, arg CreateDishParams) (MenuDish, error) {
	return scanDish(q.db.QueryRow(ctx, createDish,
		arg.SectionID, arg.RestaurantID, arg.Name, arg.Description, arg.Price, arg.ImageUrl, arg.Position, arg.IsVisible,
	))
}

const updateDish = `UPDATE menu_dishes d
SET name = $3, description = $4, price = $5, image_url = $6, position = $7, is_visible = $8, updated_at = now()
FROM sections s, pages pg, templates t
WHERE d.id = $1 AND s.id = d.section_id AND pg.id = s.page_id AND t.id = pg.template_id AND t.restaurant_id = $2 AND d.section_id = $9
RETURNING ` + dishColumns

type UpdateDishParams struct {
	ID           uuid.UUID      `json:"id"`
	RestaurantID uuid.UUID      `json:"restaurant_id"`
	SectionID    uuid.UUID      `json:"section_id"`
	Name         string         `json:"name"`
	Description  pgtype.Text    `json:"description"`
	Price        pgtype.Numeric `json:"price"`
	ImageUrl     pgtype.Text    `json:"image_url"`
	Position     int32          `json:"position"`
	IsVisible    bool           `json:"is_visible"`
}

func (q *Queries) UpdateDish(ctx context.Context, arg UpdateDishParams) (MenuDish, error) {
	return scanDish(q.db.QueryRow(ctx, updateDish,
		arg.ID, arg.RestaurantID, arg.Name, arg.Description, arg.Price, arg.ImageUrl, arg.Position, arg.IsVisible, arg.SectionID,
	))
}

const deleteDish = `DELETE FROM menu_dishes d
USING sections s, pages pg, templates t
WHERE d.id = $1 AND s.id = d.section_id AND pg.id = s.page_id AND t.id = pg.template_id AND t.restaurant_id = $2 AND d.section_id = $3
RETURNING d.id`

type DeleteDishParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	SectionID    uuid.UUID `json:"section_id"`
}

func (q *Queries) DeleteDish(ctx context.Context, arg DeleteDishParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteDish, arg.ID, arg.RestaurantID, arg.SectionID).Scan(&id)
	return id, err
}
