package database

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgtype"
)

const planColumns = `id, name, stripe_price_id, amount, currency, billing_interval, features, sort_order, is_active, created_at, updated_at`

func scanPlan(row rowScanner) (Plan, error) {
	var i Plan
	err := row.Scan(&i.ID, &i.Name, &i.StripePriceID, &i.Amount, &i.Currency, &i.BillingInterval,
		&i.Features, &i.SortOrder, &i.IsActive, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listActivePlans = `SELECT ` + planColumns + `
FROM plans
WHERE is_active = true
ORDER BY sort_order, amount`

func (q *Queries) ListActivePlans(ctx context.Context) ([]Plan, error) {
	rows, err := q.db.Query(ctx, listActivePlans)
	return collect(rows, err, scanPlan)
}

const getPlan = `SELECT ` + planColumns + `
FROM plans
WHERE id = $1`

func (q *Queries) GetPlan(ctx context.Context, id uuid.UUID) (Plan, error) {
	return scanPlan(q.db.QueryRow(ctx, getPlan, id))
}

const getPlanByStripePrice = `SELECT ` + planColumns + `
FROM plans
WHERE stripe_price_id = $1`

func (q *Queries) GetPlanByStripePrice(ctx context.Context, stripePriceID string) (Plan, error) {
	return scanPlan(q.db.QueryRow(ctx, getPlanByStripePrice, stripePriceID))
}

const upsertPlan = `INSERT INTO plans (name, stripe_price_id, amount, currency, billing_interval, features, sort_order, is_active)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (stripe_price_id) DO UPDATE
SET name = EXCLUDED.name,
    amount = EXCLUDED.amount,
    currency = EXCLUDED.currency,
    billing_interval = EXCLUDED.billing_interval,
    features = EXCLUDED.features,
    sort_order = EXCLUDED.sort_order,
    is_active = EXCLUDED.is_active,
    updated_at = now()
RETURNING ` + planColumns

type UpsertPlanParams struct {
	Name            string         `json:"name"`
	StripePriceID   string         `json:"stripe_price_id"`
	Amount          pgtype.Numeric `json:"amount"`
	Currency        string         `json:"currency"`
	BillingInterval string         `json:"billing_interval"`
	Features        []byte         `json:"features"`
	SortOrder       int32          `json:"sort_order"`
	IsActive        bool           `json:"is_active"`
}

func (q *Queries) UpsertPlan(ctx context.Context, arg UpsertPlanParams) (Plan, error) {
	return scanPlan(q.db.QueryRow(ctx, upsertPlan,
		arg.Name, arg.StripePriceID, arg.Amount, arg.Currency, arg.BillingInterval,
		arg.Features, arg.SortOrder, arg.IsActive,
	))
}
