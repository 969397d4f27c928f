package database

import "github.com/jackc/pgx/v5"

// rowScanner is satisfied by pgx.Row and pgx.CollectableRow.
type rowScanner interface {
	Scan(dest ...any) error
}

// collect drains rows through scan.
func collect[T any](rows pgx.Rows, err error, scan func(rowScanner) (T, error)) ([]T, error) {
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (T, error) {
		return scan(row)
	})
}
