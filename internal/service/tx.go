// Package service holds the multi-step business operations that span several
// queries or an external provider.
package service

import (
	"context"

	"github.com/jackc/pgx/v5"
)

// TxBeginner starts a new database transaction.
type TxBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}
