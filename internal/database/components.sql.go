package database

import (
	"context"

	"github.com/google/uuid"
)

const componentColumns = `c.id, c.template_id, c.page_id, c.kind, c.x, c.y, c.width, c.height, c.props, c.created_at, c.updated_at`

func scanComponent(row rowScanner) (ComponentLayout, error) {
	var i ComponentLayout
	err := row.Scan(&i.ID, &i.TemplateID, &i.PageID, &i.Kind, &i.X, &i.Y, &i.Width, &i.Height,
		&i.Props, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listComponentsByPage = `SELECT ` + componentColumns + `
FROM component_layouts c
JOIN templates t ON t.id = c.template_id
WHERE c.page_id = $1 AND t.restaurant_id = $2
ORDER BY c.created_at`

type ListComponentsByPageParams struct {
	PageID       uuid.UUID `json:"page_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) ListComponentsByPage(ctx context.Context, arg ListComponentsByPageParams) ([]ComponentLayout, error) {
	rows, err := q.db.Query(ctx, listComponentsByPage, arg.PageID, arg.RestaurantID)
	return collect(rows, err, scanComponent)
}

const createComponent = `INSERT INTO component_layouts AS c (template_id, page_id, kind, x, y, width, height, props)
SELECT pg.template_id, pg.id, $3, $4, $5, $6, $7, $8
FROM pages pg
JOIN templates t ON t.id = pg.template_id
WHERE pg.id = $1 AND t.restaurant_id = $2
RETURNING ` + componentColumns

type CreateComponentParams struct {
	PageID       uuid.UUID `json:"page_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Kind         string    `json:"kind"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Width        float64   `json:"width"`
	Height       float64   `json:"height"`
	Props        []byte    `json:"props"`
}

func (q *Queries) CreateComponent(ctx context.Context, arg CreateComponentParams) (ComponentLayout, error) {
	return scanComponent(q.db.QueryRow(ctx, createComponent,
		arg.PageID, arg.RestaurantID, arg.Kind, arg.X, arg.Y, arg.Width, arg.Height, arg.Props,
	))
}

const updateComponent = `UPDATE component_layouts c
SET kind = $3, x = $4, y = $5, width = $6, height = $7, props = $8, updated_at = now()
FROM templates t
WHERE c.id = $1 AND t.id = c.template_id AND t.restaurant_id = $2 AND c.page_id = $9
RETURNING ` + componentColumns

type UpdateComponentParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	PageID       uuid.UUID `json:"page_id"`
	Kind         string    `json:"kind"`
	X            float64   `json:"x"`
	Y            float64   `json:"y"`
	Width        float64   `json:"width"`
	Height       float64   `json:"height"`
	Props        []byte    `json:"props"`
}

func (q *Queries) UpdateComponent(ctx context.Context, arg UpdateComponentParams) (ComponentLayout, error) {
	return scanComponent(q.db.QueryRow(ctx, updateComponent,
		arg.ID, arg.RestaurantID, arg.Kind, arg.X, arg.Y, arg.Width, arg.Height, arg.Props, arg.PageID,
	))
}

const deleteComponent = `DELETE FROM component_layouts c
USING templates t
WHERE c.id = $1 AND t.id = c.template_id AND t.restaurant_id = $2 AND c.page_id = $3
RETURNING c.id`

type DeleteComponentParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	PageID       uuid.UUID `json:"page_id"`
}

func (q *Queries) DeleteComponent(ctx context.Context, arg DeleteComponentParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteComponent, arg.ID, arg.RestaurantID, arg.PageID).Scan(&id)
	return id, err
}
