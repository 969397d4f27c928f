package database

import (
	"context"

	"github.com/google/uuid"
)

const sectionColumns = `s.id, s.page_id, s.title, s.position, s.column_index, s.created_at, s.updated_at`

func scanSection(row rowScanner) (Section, error) {
	var i Section
	err := row.Scan(&i.ID, &i.PageID, &i.Title, &i.Position, &i.ColumnIndex, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listSectionsByPage = `SELECT ` + sectionColumns + `
FROM sections s
JOIN pages pg ON pg.id = s.page_id
JOIN templates t ON t.id = pg.template_id
WHERE s.page_id = $1 AND t.restaurant_id = $2
ORDER BY s.column_index, s.position`

type ListSectionsByPageParams struct {
	PageID       uuid.UUID `json:"page_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) ListSectionsByPage(ctx context.Context, arg ListSectionsByPageParams) ([]Section, error) {
	rows, err := q.db.Query(ctx, listSectionsByPage, arg.PageID, arg.RestaurantID)
	return collect(rows, err, scanSection)
}

const createSection = `INSERT INTO sections AS s (page_id, title, position, column_index)
SELECT pg.id, $3, $4, $5
FROM pages pg
JOIN templates t ON t.id = pg.template_id
WHERE pg.id = $1 AND t.restaurant_id = $2
RETURNING ` + sectionColumns

type CreateSectionParams struct {
	PageID       uuid.UUID `json:"page_id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	Title        string    `json:"title"`
	Position     int32     `json:"position"`
	ColumnIndex  int32     `json:"column_index"`
}

func (q *Queries) CreateSection(ctx context.Context, arg CreateSectionParams) (Section, error) {
	return scanSection(q.db.QueryRow(ctx, createSection, arg.PageID, arg.RestaurantID, arg.Title, arg.Position, arg.ColumnIndex))
}

const updateSection = `UPDATE sections s
SET title = $3, position = $4, column_index = $5, updated_at = now()
FROM pages pg, templates t
WHERE s.id = $1 AND pg.id = s.page_id AND t.id = pg.template_id AND t.restaurant_id = $2 AND s.page_id = $6
RETURNING ` + sectionColumns

type UpdateSectionParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	PageID       uuid.UUID `json:"page_id"`
	Title        string    `json:"title"`
	Position     int32     `json:"position"`
	ColumnIndex  int32     `json:"column_index"`
}

func (q *Queries) UpdateSection(ctx context.Context, arg UpdateSectionParams) (Section, error) {
	return scanSection(q.db.QueryRow(ctx, updateSection, arg.ID, arg.RestaurantID, arg.Title, arg.Position, arg.ColumnIndex, arg.PageID))
}

const deleteSection = `DELETE FROM sections s
USING pages pg, templates t
WHERE s.id = $1 AND pg.id = s.page_id AND t.id = pg.template_id AND t.restaurant_id = $2 AND s.page_id = $3
RETURNING s.id`

type DeleteSectionParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
	PageID       uuid.UUID `json:"page_id"`
}

func (q *Queries) DeleteSection(ctx context.Context, arg DeleteSectionParams) (uuid.UUID, error) {
	var id uuid.UUID
	err := q.db.QueryRow(ctx, deleteSection, arg.ID, arg.RestaurantID, arg.PageID).Scan(&id)
	return id, err
}
