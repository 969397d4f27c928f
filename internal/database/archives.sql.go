package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const archiveColumns = `id, original_template_id, restaurant_id, name, snapshot, archived_by, archived_at`

func scanArchive(row rowScanner) (ArchiveTemplate, error) {
	var i ArchiveTemplate
	err := row.Scan(&i.ID, &i.OriginalTemplateID, &i.RestaurantID, &i.Name, &i.Snapshot, &i.ArchivedBy, &i.ArchivedAt)
	return i, err
}

const createArchive = `INSERT INTO archive_templates (original_template_id, restaurant_id, name, snapshot, archived_by)
VALUES ($1, $2, $3, $4, $5)
RETURNING ` + archiveColumns

type CreateArchiveParams struct {
	OriginalTemplateID uuid.UUID   `json:"original_template_id"`
	RestaurantID       uuid.UUID   `json:"restaurant_id"`
	Name               string      `json:"name"`
	Snapshot           []byte      `json:"snapshot"`
	ArchivedBy         pgtype.UUID `json:"archived_by"`
}

func (q *Queries) CreateArchive(ctx context.Context, arg CreateArchiveParams) (ArchiveTemplate, error) {
	return scanArchive(q.db.QueryRow(ctx, createArchive,
		arg.OriginalTemplateID, arg.RestaurantID, arg.Name, arg.Snapshot, arg.ArchivedBy,
	))
}

const listArchivesByRestaurant = `SELECT ` + archiveColumns + `
FROM archive_templates
WHERE restaurant_id = $1
ORDER BY archived_at DESC`

func (q *Queries) ListArchivesByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]ArchiveTemplate, error) {
	rows, err := q.db.Query(ctx, listArchivesByRestaurant, restaurantID)
	return collect(rows, err, scanArchive)
}

const getArchive = `SELECT ` + archiveColumns + `
FROM archive_templates
WHERE id = $1 AND restaurant_id = $2`

type GetArchiveParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) GetArchive(ctx context.Context, arg GetArchiveParams) (ArchiveTemplate, error) {
	return scanArchive(q.db.QueryRow(ctx, getArchive, arg.ID, arg.RestaurantID))
}

const deleteArchive = `DELETE FROM archive_templates
WHERE id = $1 AND restaurant_id = $2`

type DeleteArchiveParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) DeleteArchive(ctx context.Context, arg DeleteArchiveParams) error {
	_, err := q.db.Exec(ctx, deleteArchive, arg.ID, arg.RestaurantID)
	return err
}
