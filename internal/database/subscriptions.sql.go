package database

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
)

const subscriptionColumns = `id, restaurant_id, profile_id, plan_id, stripe_subscription_id, stripe_customer_id, status, is_active,
cancel_at, canceled_at, trial_activated, trial_end_date, current_period_end, created_at, updated_at`

func scanSubscription(row rowScanner) (Subscription, error) {
	var i Subscription
	err := row.Scan(&i.ID, &i.RestaurantID, &i.ProfileID, &i.PlanID, &i.StripeSubscriptionID, &i.StripeCustomerID,
		&i.Status, &i.IsActive, &i.CancelAt, &i.CanceledAt, &i.TrialActivated, &i.TrialEndDate,
		&i.CurrentPeriodEnd, &i.CreatedAt, &i.UpdatedAt)
	return i, err
}

const listSubscriptionsByRestaurant = `SELECT s.id, s.restaurant_id, s.profile_id, s.plan_id, s.stripe_subscription_id, s.stripe_customer_id,
       s.status, s.is_active, s.cancel_at, s.canceled_at, s.trial_activated, s.trial_end_date,
       s.current_period_end, s.created_at, s.updated_at, p.name, p.features
FROM subscriptions s
LEFT JOIN plans p ON p.id = s.plan_id
WHERE s.restaurant_id = $1
ORDER BY s.created_at DESC`

// ListSubscriptionsByRestaurantRow is a subscription with its plan's name
// and features. Both are NULL when the plan is unknown.
type ListSubscriptionsByRestaurantRow struct {
	Subscription
	PlanName     pgtype.Text `json:"plan_name"`
	PlanFeatures []byte      `json:"plan_features"`
}

func (q *Queries) ListSubscriptionsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]ListSubscriptionsByRestaurantRow, error) {
	rows, err := q.db.Query(ctx, listSubscriptionsByRestaurant, restaurantID)
	return collect(rows, err, func(row rowScanner) (ListSubscriptionsByRestaurantRow, error) {
		var i ListSubscriptionsByRestaurantRow
		err := row.Scan(&i.ID, &i.RestaurantID, &i.ProfileID, &i.PlanID, &i.StripeSubscriptionID, &i.StripeCustomerID,
			&i.Status, &i.IsActive, &i.CancelAt, &i.CanceledAt, &i.TrialActivated, &i.TrialEndDate,
			&i.CurrentPeriodEnd, &i.CreatedAt, &i.UpdatedAt, &i.PlanName, &i.PlanFeatures)
		return i, err
	})
}

const getSubscription = `SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE id = $1 AND restaurant_id = $2`

type GetSubscriptionParams struct {
	ID           uuid.UUID `json:"id"`
	RestaurantID uuid.UUID `json:"restaurant_id"`
}

func (q *Queries) GetSubscription(ctx context.Context, arg GetSubscriptionParams) (Subscription, error) {
	return scanSubscription(q.db.QueryRow(ctx, getSubscription, arg.ID, arg.RestaurantID))
}

const getSubscriptionByStripeID = `SELECT ` + subscriptionColumns + `
FROM subscriptions
WHERE stripe_subscription_id = $1`

func (q *Queries) GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (Subscription, error) {
	return scanSubscription(q.db.QueryRow(ctx, getSubscriptionByStripeID, stripeSubscriptionID))
}

const upsertSubscription = `INSERT INTO subscriptions (
    restaurant_id, profile_id, plan_id, stripe_subscription_id, stripe_customer_id, status, is_active,
    cancel_at, canceled_at, trial_activated, trial_end_date, current_period_end
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
ON CONFLICT (stripe_subscription_id) DO UPDATE
SET profile_id = COALESCE(EXCLUDED.profile_id, subscriptions.profile_id),
    plan_id = COALESCE(EXCLUDED.plan_id, subscriptions.plan_id),
    stripe_customer_id = COALESCE(EXCLUDED.stripe_customer_id, subscriptions.stripe_customer_id),
    status = EXCLUDED.status,
    is_active = EXCLUDED.is_active,
    cancel_at = EXCLUDED.cancel_at,
    canceled_at = EXCLUDED.canceled_at,
    trial_activated = subscriptions.trial_activated OR EXCLUDED.trial_activated,
    trial_end_date = COALESCE(EXCLUDED.trial_end_date, subscriptions.trial_end_date),
    current_period_end = EXCLUDED.current_period_end,
    updated_at = now()
RETURNING ` + subscriptionColumns

type UpsertSubscriptionParams struct {
	RestaurantID         uuid.UUID          `json:"restaurant_id"`
	ProfileID            pgtype.UUID        `json:"profile_id"`
	PlanID               pgtype.UUID        `json:"plan_id"`
	StripeSubscriptionID string             `json:"stripe_subscription_id"`
	StripeCustomerID     pgtype.Text        `json:"stripe_customer_id"`
	Status               string             `json:"status"`
	IsActive             bool               `json:"is_active"`
	CancelAt             pgtype.Timestamptz `json:"cancel_at"`
	CanceledAt           pgtype.Timestamptz `json:"canceled_at"`
	TrialActivated       bool               `json:"trial_activated"`
	TrialEndDate         pgtype.Timestamptz `json:"trial_end_date"`
	CurrentPeriodEnd     pgtype.Timestamptz `json:"current_period_end"`
}

func (q *Queries) UpsertSubscription(ctx context.Context, arg UpsertSubscriptionParams) (Subscription, error) {
	return scanSubscription(q.db.QueryRow(ctx, upsertSubscription,
		arg.RestaurantID, arg.ProfileID, arg.PlanID, arg.StripeSubscriptionID, arg.StripeCustomerID,
		arg.Status, arg.IsActive, arg.CancelAt, arg.CanceledAt, arg.TrialActivated,
		arg.TrialEndDate, arg.CurrentPeriodEnd,
	))
}

const markSubscriptionPastDue = `UPDATE subscriptions
SET status = 'past_due', updated_at = now()
WHERE stripe_subscription_id = $1
RETURNING ` + subscriptionColumns

func (q *Queries) MarkSubscriptionPastDue(ctx context.Context, stripeSubscriptionID string) (Subscription, error) {
	return scanSubscription(q.db.QueryRow(ctx, markSubscriptionPastDue, stripeSubscriptionID))
}

const hasActivatedTrial = `SELECT EXISTS (
    SELECT 1 FROM subscriptions WHERE restaurant_id = $1 AND trial_activated = true
)`

func (q *Queries) HasActivatedTrial(ctx context.Context, restaurantID uuid.UUID) (bool, error) {
	var exists bool
	err := q.db.QueryRow(ctx, hasActivatedTrial, restaurantID).Scan(&exists)
	return exists, err
}

const expireTrials = `UPDATE subscriptions
SET status = 'incomplete_expired', is_active = false, updated_at = now()
WHERE status = 'trialing' AND trial_end_date < $1
RETURNING restaurant_id`

// ExpireTrials moves trialing subscriptions whose trial ended before now to
// incomplete_expired and returns the affected restaurant ids, one per
// subscription.
func (q *Queries) ExpireTrials(ctx context.Context, now time.Time) ([]uuid.UUID, error) {
	rows, err := q.db.Query(ctx, expireTrials, now)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, pgx.RowTo[uuid.UUID])
}
