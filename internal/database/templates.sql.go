package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const templateColumns = `t.id, t.restaurant_id, t.name, t.description, t.page_width, t.page_height, t.is_global, t.created_by, t.created_at, t.updated_at`

func scanTemplate(row rowScanner) (Template, error) {
	var i Template
	err := row.Scan(&i.ID, &i.RestaurantID, &i.Name, &i.Description, &i.PageWidth, &i.PageHeight,
		&i.IsGlobal, &i.CreatedBy, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listTemplatesByRestaurant = `SELECT ` + templateColumns + `
FROM templates t
WHERE t.restaurant_id = $1
ORDER BY t.updated_at DESC`

func (q *Queries) ListTemplatesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]Template, error) {
	rows, err := q.db.Query(ctx, listTemplatesByRestaurant, restaurantID)
	return collect(rows, err, scanTemplate)
}

const getTemplate = `SELECT ` + templateColumns + `
FROM templates t
WHERE t.id = $1 AND t.restaurant_id = $2`

type GetTemplateParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) GetTemplate(ctx context.Context, arg GetTemplateParams) (Template, error) {
	return scanTemplate(q.db.QueryRow(ctx, getTemplate, arg.ID, arg.RestaurantID))
}

const listGlobalTemplates = `SELECT ` + templateColumns + `
FROM templates t
WHERE t.is_global = true
ORDER BY t.name`

func (q *Queries) ListGlobalTemplates(ctx context.Context) ([]Template, error) {
	rows, err := q.db.Query(ctx, listGlobalTemplates)
	return collect(rows, err, scanTemplate)
}

const getGlobalTemplate = `SELECT ` + templateColumns + `
FROM templates t
WHERE t.id = $1 AND t.is_global = true`

func (q *Queries) GetGlobalTemplate(ctx context.Context, id uuid.UUID) (Template, error) {
	return scanTemplate(q.db.QueryRow(ctx, getGlobalTemplate, id))
}

const createTemplate = `INSERT INTO templates AS t (restaurant_id, name, description, page_width, page_height, is_global, created_by)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING ` + templateColumns

type CreateTemplateParams struct {
	RestaurantID pgtype.UUID `json:"restaurant_id"`
	Name         string      `json:"name"`
	Description  pgtype.Text `json:"description"`
	PageWidth    int32       `json:"page_width"`
	PageHeight   int32       `json:"page_height"`
	IsGlobal     bool        `json:"is_global"`
	CreatedBy    pgtype.UUID `json:"created_by"`
}

func (q *Queries) CreateTemplate(ctx context.Context, arg CreateTemplateParams) (Template, error) {
	return scanTemplate(q.db.QueryRow(ctx, createTemplate,
		arg.RestaurantID, arg.Name, arg.Description, arg.PageWidth, arg.PageHeight, arg.IsGlobal, arg.CreatedBy,
	))
}

const updateTemplate = `UPDATE templates t
SET name = $3, description = $4, page_width = $5, page_height = $6, updated_at = now()
WHERE t.id = $1 AND t.restaurant_id = $2
RETURNING ` + templateColumns

type UpdateTemplateParams struct {
	ID           uuid.UUID   `json:"id"`
	RestaurantID uuid.UUID   `json:"restaurant_id"`
	Name         string      `json:"name"`
	Description  pgtype.Text `json:"description"`
	PageWidth    int32       `json:"page_width"`
	PageHeight   int32       `json:"page_height"`
}

func (q *Queries) UpdateTemplate(ctx context.Context, arg UpdateTemplateParams) (Template, error) {
	return scanTemplate(q.db.QueryRow(ctx, updateTemplate,
		arg.ID, arg.RestaurantID, arg.Name, arg.Description, arg.PageWidth, arg.PageHeight,
	))
}

const deleteTemplate = `DELETE FROM templates
WHERE id = $1 AND restaurant_id = $2
RETURNING id`

type DeleteTemplateParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

// DeleteTemplate removes a restaurant template and, by cascade, its pages,
// sections, dishes and component layouts.
func (q *Queries) DeleteTemplate(ctx context.Context, arg DeleteTemplateParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteTemplate, arg.ID, arg.RestaurantID).Scan(&id)
	return id, err
}
