package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/menuboard/api/internal/billing"
	"github.com/menuboard/api/internal/database"
	"github.com/menuboard/api/internal/enum"
	"go.uber.org/zap"
)

// Errors returned by the subscription service.
var (
	ErrPlanNotFound         = errors.New("plan not found")
	ErrPlanInactive         = errors.New("plan is not available")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrRestaurantNotFound   = errors.New("restaurant not found")
	ErrProfileNotFound      = errors.New("profile not found")
	ErrNoBillingCustomer    = errors.New("restaurant has no billing customer")
	ErrUnroutableEvent      = errors.New("webhook event does not reference a known restaurant")
)

// SubscriptionStore defines the DB methods the subscription service needs.
// Satisfied by *database.Queries.
type SubscriptionStore interface {
	GetRestaurant(ctx context.Context, id uuid.UUID) (database.Restaurant, error)
	GetPlan(ctx context.Context, id uuid.UUID) (database.Plan, error)
	GetPlanByStripePrice(ctx context.Context, stripePriceID string) (database.Plan, error)
	GetProfileByID(ctx context.Context, id uuid.UUID) (database.Profile, error)
	SetProfileStripeCustomer(ctx context.Context, arg database.SetProfileStripeCustomerParams) (database.Profile, error)
	ListSubscriptionsByRestaurant(ctx context.Context, restaurantID uuid.UUID) ([]database.ListSubscriptionsByRestaurantRow, error)
	GetSubscription(ctx context.Context, arg database.GetSubscriptionParams) (database.Subscription, error)
	GetSubscriptionByStripeID(ctx context.Context, stripeSubscriptionID string) (database.Subscription, error)
	UpsertSubscription(ctx context.Context, arg database.UpsertSubscriptionParams) (database.Subscription, error)
	MarkSubscriptionPastDue(ctx context.Context, stripeSubscriptionID string) (database.Subscription, error)
	HasActivatedTrial(ctx context.Context, restaurantID uuid.UUID) (bool, error)
	ExpireTrials(ctx context.Context, now time.Time) ([]uuid.UUID, error)
}

// Notifier is told when a restaurant's subscriptions change so connected
// clients can refetch.
type Notifier interface {
	SubscriptionChanged(restaurantID uuid.UUID)
}

type nopNotifier struct{}

func (nopNotifier) SubscriptionChanged(uuid.UUID) {}

// BillingURLs are the redirect targets handed to the payment provider.
type BillingURLs struct {
	SuccessURL      string
	CancelURL       string
	PortalReturnURL string
}

// SubscriptionView is a subscription as listed to the restaurant, with its
// plan and display status resolved.
type SubscriptionView struct {
	database.Subscription
	PlanName      *string `json:"plan_name"`
	PlanType      string  `json:"plan_type"`
	DisplayStatus string  `json:"display_status"`
}

// CheckoutRequest starts a subscription to PlanID for a restaurant.
type CheckoutRequest struct {
	RestaurantID uuid.UUID
	ProfileID    uuid.UUID
	PlanID       uuid.UUID
}

// SubscriptionService runs the subscription lifecycle against the store and
// the payment gateway.
type SubscriptionService struct {
	store     SubscriptionStore
	gateway   billing.Gateway
	notifier  Notifier
	urls      BillingURLs
	trialDays int64
}

// NewSubscriptionService creates a SubscriptionService. A nil notifier is
// replaced with one that does nothing.
func NewSubscriptionService(store SubscriptionStore, gateway billing.Gateway, notifier Notifier, urls BillingURLs, trialDays int64) *SubscriptionService {
	if notifier == nil {
		notifier = nopNotifier{}
	}
	return &SubscriptionService{
		store:     store,
		gateway:   gateway,
		notifier:  notifier,
		urls:      urls,
		trialDays: trialDays,
	}
}

// Status evaluates the restaurant's subscriptions into an access decision.
// Privileged callers get full access without touching the database.
func (s *SubscriptionService) Status(ctx context.Context, restaurantID uuid.UUID, privileged bool) (billing.StatusInfo, error) {
	if privileged {
		return billing.Evaluate(nil, billing.EvaluateOptions{IsPrivilegedRole: true}), nil
	}

	restaurant, err := s.store.GetRestaurant(ctx, restaurantID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return billing.StatusInfo{}, ErrRestaurantNotFound
		}
		return billing.StatusInfo{}, fmt.Errorf("get restaurant: %w", err)
	}

	rows, err := s.store.ListSubscriptionsByRestaurant(ctx, restaurantID)
	if err != nil {
		return billing.StatusInfo{}, fmt.Errorf("list subscriptions: %w", err)
	}

	subs := make([]billing.Subscription, len(rows))
	for i, row := range rows {
		subs[i] = toBillingSubscription(row)
	}
	return billing.Evaluate(subs, billing.EvaluateOptions{
		RestaurantOverride: restaurant.SubscriptionOverride,
	}), nil
}

// List returns the restaurant's subscriptions ordered for display.
func (s *SubscriptionService) List(ctx context.Context, restaurantID uuid.UUID) ([]SubscriptionView, error) {
	rows, err := s.store.ListSubscriptionsByRestaurant(ctx, restaurantID)
	if err != nil {
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	views := make([]SubscriptionView, len(rows))
	for i, row := range rows {
		sub := toBillingSubscription(row)
		views[i] = SubscriptionView{
			Subscription:  row.Subscription,
			PlanName:      database.TextPtr(row.PlanName),
			PlanType:      sub.FeatureType(),
			DisplayStatus: billing.DisplayStatus(sub),
		}
	}
	slices.SortStableFunc(views, func(a, b SubscriptionView) int {
		return billing.Priority(a.DisplayStatus) - billing.Priority(b.DisplayStatus)
	})
	return views, nil
}

// StartCheckout creates a hosted checkout session and returns its URL. The
// trial is only offered to restaurants that never activated one.
func (s *SubscriptionService) StartCheckout(ctx context.Context, req CheckoutRequest) (string, error) {
	plan, err := s.store.GetPlan(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrPlanNotFound
		}
		return "", fmt.Errorf("get plan: %w", err)
	}
	if !plan.IsActive {
		return "", ErrPlanInactive
	}

	profile, err := s.store.GetProfileByID(ctx, req.ProfileID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", ErrProfileNotFound
		}
		return "", fmt.Errorf("get profile: %w", err)
	}

	hadTrial, err := s.store.HasActivatedTrial(ctx, req.RestaurantID)
	if err != nil {
		return "", fmt.Errorf("check trial: %w", err)
	}
	trialDays := s.trialDays
	if hadTrial {
		trialDays = 0
	}

	params := billing.CheckoutParams{
		PriceID:    plan.StripePriceID,
		TrialDays:  trialDays,
		SuccessURL: s.urls.SuccessURL,
		CancelURL:  s.urls.CancelURL,
		Metadata: map[string]string{
			billing.MetadataRestaurantID: req.RestaurantID.String(),
			billing.MetadataProfileID:    req.ProfileID.String(),
			billing.MetadataPlanID:       plan.ID.String(),
		},
	}
	if profile.StripeCustomerID.Valid {
		params.CustomerID = profile.StripeCustomerID.String
	} else {
		params.CustomerEmail = profile.Email
	}

	url, err := s.gateway.CreateCheckoutSession(ctx, params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return url, nil
}

// Cancel schedules the subscription to end at the close of its period.
func (s *SubscriptionService) Cancel(ctx context.Context, restaurantID, subscriptionID uuid.UUID) (database.Subscription, error) {
	return s.changeCancellation(ctx, restaurantID, subscriptionID, s.gateway.CancelAtPeriodEnd)
}

// Resume withdraws a scheduled cancellation.
func (s *SubscriptionService) Resume(ctx context.Context, restaurantID, subscriptionID uuid.UUID) (database.Subscription, error) {
	return s.changeCancellation(ctx, restaurantID, subscriptionID, s.gateway.Resume)
}

func (s *SubscriptionService) changeCancellation(
	ctx context.Context,
	restaurantID, subscriptionID uuid.UUID,
	call func(context.Context, string) (*billing.SubscriptionSnapshot, error),
) (database.Subscription, error) {
	sub, err := s.store.GetSubscription(ctx, database.GetSubscriptionParams{ID: subscriptionID, RestaurantID: restaurantID})
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return database.Subscription{}, ErrSubscriptionNotFound
		}
		return database.Subscription{}, fmt.Errorf("get subscription: %w", err)
	}

	snap, err := call(ctx, sub.StripeSubscriptionID)
	if err != nil {
		return database.Subscription{}, err
	}

	// The webhook for this change arrives later; store the provider's answer
	// now so the next read reflects it.
	updated, err := s.store.UpsertSubscription(ctx, s.upsertParams(ctx, restaurantID, snap))
	if err != nil {
		return database.Subscription{}, fmt.Errorf("store subscription: %w", err)
	}
	s.notifier.SubscriptionChanged(restaurantID)
	return updated, nil
}

// PortalURL opens a billing portal session for the restaurant's customer.
func (s *SubscriptionService) PortalURL(ctx context.Context, restaurantID, profileID uuid.UUID) (string, error) {
	customerID := ""
	profile, err := s.store.GetProfileByID(ctx, profileID)
	switch {
	case err == nil:
		if profile.StripeCustomerID.Valid {
			customerID = profile.StripeCustomerID.String
		}
	case !errors.Is(err, pgx.ErrNoRows):
		return "", fmt.Errorf("get profile: %w", err)
	}

	if customerID == "" {
		rows, err := s.store.ListSubscriptionsByRestaurant(ctx, restaurantID)
		if err != nil {
			return "", fmt.Errorf("list subscriptions: %w", err)
		}
		for _, row := range rows {
			if row.StripeCustomerID.Valid {
				customerID = row.StripeCustomerID.String
				break
			}
		}
	}
	if customerID == "" {
		return "", ErrNoBillingCustomer
	}

	url, err := s.gateway.CreatePortalSession(ctx, customerID, s.urls.PortalReturnURL)
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return url, nil
}

// ApplyWebhook stores the state carried by a verified provider event.
func (s *SubscriptionService) ApplyWebhook(ctx context.Context, evt *billing.Event) error {
	switch {
	case evt.Ignored:
		return nil

	case evt.Checkout != nil:
		return s.linkCustomer(ctx, evt.Checkout)

	case evt.FailedSubscriptionID != "":
		sub, err := s.store.MarkSubscriptionPastDue(ctx, evt.FailedSubscriptionID)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return ErrUnroutableEvent
			}
			return fmt.Errorf("mark past due: %w", err)
		}
		s.notifier.SubscriptionChanged(sub.RestaurantID)
		return nil

	case evt.Subscription != nil:
		restaurantID, err := s.routeSubscription(ctx, evt.Subscription)
		if err != nil {
			return err
		}
		if _, err := s.store.UpsertSubscription(ctx, s.upsertParams(ctx, restaurantID, evt.Subscription)); err != nil {
			return fmt.Errorf("store subscription: %w", err)
		}
		s.notifier.SubscriptionChanged(restaurantID)
		return nil
	}
	return nil
}

// ExpireTrials ends lapsed trials, which then read as incomplete_expired
// and no longer grant access, and notifies each affected restaurant once.
// It returns the number of subscriptions changed.
func (s *SubscriptionService) ExpireTrials(ctx context.Context, now time.Time) (int, error) {
	ids, err := s.store.ExpireTrials(ctx, now)
	if err != nil {
		return 0, fmt.Errorf("expire trials: %w", err)
	}
	seen := make(map[uuid.UUID]struct{}, len(ids))
	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		s.notifier.SubscriptionChanged(id)
	}
	return len(ids), nil
}

func (s *SubscriptionService) linkCustomer(ctx context.Context, done *billing.CheckoutCompleted) error {
	if done.CustomerID == "" {
		return nil
	}
	profileID, err := uuid.Parse(done.Metadata[billing.MetadataProfileID])
	if err != nil {
		return nil
	}
	_, err = s.store.SetProfileStripeCustomer(ctx, database.SetProfileStripeCustomerParams{
		ID:               profileID,
		StripeCustomerID: database.Text(done.CustomerID),
	})
	if err != nil && !errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("link customer: %w", err)
	}
	return nil
}

// routeSubscription finds the restaurant a provider subscription belongs to,
// from its metadata or from the row stored for it earlier.
func (s *SubscriptionService) routeSubscription(ctx context.Context, snap *billing.SubscriptionSnapshot) (uuid.UUID, error) {
	if id, err := uuid.Parse(snap.Metadata[billing.MetadataRestaurantID]); err == nil {
		return id, nil
	}
	existing, err := s.store.GetSubscriptionByStripeID(ctx, snap.ID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return uuid.Nil, ErrUnroutableEvent
		}
		return uuid.Nil, fmt.Errorf("get subscription: %w", err)
	}
	return existing.RestaurantID, nil
}

// upsertParams maps a provider snapshot onto a row. Plan and profile stay
// NULL when unresolved so the upsert keeps the stored values.
func (s *SubscriptionService) upsertParams(ctx context.Context, restaurantID uuid.UUID, snap *billing.SubscriptionSnapshot) database.UpsertSubscriptionParams {
	arg := database.UpsertSubscriptionParams{
		RestaurantID:         restaurantID,
		StripeSubscriptionID: snap.ID,
		StripeCustomerID:     database.Text(snap.CustomerID),
		Status:               snap.Status,
		IsActive:             snap.Status == enum.SubscriptionStatusActive || snap.Status == enum.SubscriptionStatusTrialing,
		CancelAt:             database.Timestamptz(snap.CancelAt),
		CanceledAt:           database.Timestamptz(snap.CanceledAt),
		TrialActivated:       snap.Status == enum.SubscriptionStatusTrialing || snap.TrialEnd != nil,
		TrialEndDate:         database.Timestamptz(snap.TrialEnd),
		CurrentPeriodEnd:     database.Timestamptz(snap.CurrentPeriodEnd),
	}

	if snap.PriceID != "" {
		if plan, err := s.store.GetPlanByStripePrice(ctx, snap.PriceID); err == nil {
			arg.PlanID = database.UUID(plan.ID)
		}
	}
	if !arg.PlanID.Valid {
		if id, err := uuid.Parse(snap.Metadata[billing.MetadataPlanID]); err == nil {
			arg.PlanID = database.UUID(id)
		}
	}
	if id, err := uuid.Parse(snap.Metadata[billing.MetadataProfileID]); err == nil {
		arg.ProfileID = database.UUID(id)
	}
	return arg
}

// toBillingSubscription converts a stored row for the evaluator. Unreadable
// plan features leave the feature type empty.
func toBillingSubscription(row database.ListSubscriptionsByRestaurantRow) billing.Subscription {
	sub := billing.Subscription{
		Status:         row.Status,
		IsActive:       row.IsActive,
		CanceledAt:     database.TimePtr(row.CanceledAt),
		CancelAt:       database.TimePtr(row.CancelAt),
		TrialActivated: row.TrialActivated,
		TrialEndDate:   database.TimePtr(row.TrialEndDate),
	}
	if !row.PlanName.Valid && row.PlanFeatures == nil {
		return sub
	}
	plan := &billing.Plan{Name: row.PlanName.String}
	if err := json.Unmarshal(row.PlanFeatures, &plan.Features); err != nil {
		zap.L().Debug("unreadable plan features", zap.String("plan", plan.Name), zap.Stringer("subscription_id", row.ID), zap.Error(err))
	}
	sub.Plan = plan
	return sub
}
