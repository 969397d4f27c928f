package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const pageColumns = `pg.id, pg.template_id, pg.page_index, pg.background_url, pg.created_at, pg.updated_at`

func scanPage(row rowScanner) (Page, error) {
	var i Page
	err := row.Scan(&i.ID, &i.TemplateID, &i.PageIndex, &i.BackgroundUrl, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listPagesByTemplate = `SELECT ` + pageColumns + `
FROM pages pg
JOIN templates t ON t.id = pg.template_id
WHERE pg.template_id = $1 AND t.restaurant_id = $2
ORDER BY pg.page_index`

type ListPagesByTemplateParams struct {
	TemplateID   uuid.UUID `json:"template_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) ListPagesByTemplate(ctx context.Context, arg ListPagesByTemplateParams) ([]Page, error) {
	rows, err := q.db.Query(ctx, listPagesByTemplate, arg.TemplateID, arg.RestaurantID)
	return collect(rows, err, scanPage)
}

const createPage = `INSERT INTO pages AS pg (template_id, page_index, background_url)
SELECT t.id, $3, $4
FROM templates t
WHERE t.id = $1 AND t.restaurant_id = $2
RETURNING ` + pageColumns

type CreatePageParams struct {
	TemplateID    uuid.UUID   `json:"template_id"`
	RestaurantID  uuid.UUID   `json:"restaurant_id"`
	PageIndex     int32       `json:"page_index"`
	BackgroundUrl pgtype.Text `json:"background_url"`
}

// CreatePage returns pgx.ErrNoRows when the template does not belong to the
// restaurant.
func (q *Queries) CreatePage(ctx context.Context, arg CreatePageParams) (Page, error) {
	return scanPage(q.db.QueryRow(ctx, createPage, arg.TemplateID, arg.RestaurantID, arg.PageIndex, arg.BackgroundUrl))
}

const updatePage = `UPDATE pages pg
SET page_index = $3, background_url = $4, updated_at = now()
FROM templates t
WHERE pg.id = $1 AND t.id = pg.template_id AND t.restaurant_id = $2 AND pg.template_id = $5
RETURNING ` + pageColumns

type UpdatePageParams struct {
	ID            uuid.UUID   `json:"id"`
	RestaurantID  uuid.UUID   `json:"restaurant_id"`
	TemplateID    uuid.UUID   `json:"template_id"`
	PageIndex     int32       `json:"page_index"`
	BackgroundUrl pgtype.Text `json:"background_url"`
}

func (q *Queries) UpdatePage(ctx context.Context, arg UpdatePageParams) (Page, error) {
	return scanPage(q.db.QueryRow(ctx, updatePage, arg.ID, arg.RestaurantID, arg.PageIndex, arg.BackgroundUrl, arg.TemplateID))
}

const deletePage = `DELETE FROM pages pg
USING templates t
WHERE pg.id = $1 AND t.id = pg.template_id AND t.restaurant_id = $2 AND pg.template_id = $3
RETURNING pg.id`

type DeletePageParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	TemplateID   uuid.UUID `json:"template_id"`
}

func (q *Queries) DeletePage(ctx context.Context, arg DeletePageParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deletePage, arg.ID, arg.RestaurantID, arg.TemplateID).Scan(&id)
	return id, err
}
