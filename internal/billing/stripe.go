package billing

import (
	"context"
	"time"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/client"
)

// Metadata keys written on checkout sessions and the subscriptions they
// create, so webhook events can be routed back to a restaurant.
const (
	MetadataRestaurantID = "restaurant_id"
	MetadataProfileID    = "profile_id"
	MetadataPlanID       = "plan_id"
)

// CheckoutParams describes a subscription checkout for one plan price.
type CheckoutParams struct {
	PriceID       string
	CustomerID    string
	CustomerEmail string
	TrialDays     int64
	SuccessURL    string
	CancelURL     string
	Metadata      map[string]string
}

// SubscriptionSnapshot is the provider's view of one subscription.
type SubscriptionSnapshot struct {
	ID               string
	CustomerID       string
	Status           string
	PriceID          string
	CancelAt         *time.Time
	CanceledAt       *time.Time
	TrialEnd         *time.Time
	CurrentPeriodEnd *time.Time
	Metadata         map[string]string
}

// Gateway is the payment provider surface the subscription service uses.
type Gateway interface {
	CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error)
	CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)
	Resume(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error)
	CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error)
}

// StripeGateway implements Gateway with the Stripe API.
type StripeGateway struct {
	api *client.API
}

// NewStripeGateway creates a gateway authenticated with secretKey.
func NewStripeGateway(secretKey string) *StripeGateway {
	api := &client.API{}
	api.Init(secretKey, nil)
	return &StripeGateway{api: api}
}

func (g *StripeGateway) CreateCheckoutSession(ctx context.Context, p CheckoutParams) (string, error) {
	params := &stripe.CheckoutSessionParams{
		Mode: stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{Price: stripe.String(p.PriceID), Quantity: stripe.Int64(1)},
		},
		SuccessURL:       stripe.String(p.SuccessURL),
		CancelURL:        stripe.String(p.CancelURL),
		SubscriptionData: &stripe.CheckoutSessionSubscriptionDataParams{Metadata: p.Metadata},
	}
	params.Context = ctx
	if p.TrialDays > 0 {
		params.SubscriptionData.TrialPeriodDays = stripe.Int64(p.TrialDays)
	}
	if p.CustomerID != "" {
		params.Customer = stripe.String(p.CustomerID)
	} else if p.CustomerEmail != "" {
		params.CustomerEmail = stripe.String(p.CustomerEmail)
	}
	if id := p.Metadata[MetadataRestaurantID]; id != "" {
		params.ClientReferenceID = stripe.String(id)
	}
	for k, v := range p.Metadata {
		params.AddMetadata(k, v)
	}

	session, err := g.api.CheckoutSessions.New(params)
	if err != nil {
		return "", wrapStripeError(err)
	}
	return session.URL, nil
}

func (g *StripeGateway) CancelAtPeriodEnd(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	return g.setCancelAtPeriodEnd(ctx, subscriptionID, true)
}

func (g *StripeGateway) Resume(ctx context.Context, subscriptionID string) (*SubscriptionSnapshot, error) {
	return g.setCancelAtPeriodEnd(ctx, subscriptionID, false)
}

func (g *StripeGateway) setCancelAtPeriodEnd(ctx context.Context, subscriptionID string, cancel bool) (*SubscriptionSnapshot, error) {
	params := &stripe.SubscriptionParams{CancelAtPeriodEnd: stripe.Bool(cancel)}
	params.Context = ctx

	sub, err := g.api.Subscriptions.Update(subscriptionID, params)
	if err != nil {
		return nil, wrapStripeError(err)
	}
	snap := snapshotFromStripe(sub)
	return &snap, nil
}

func (g *StripeGateway) CreatePortalSession(ctx context.Context, customerID, returnURL string) (string, error) {
	params := &stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(returnURL),
	}
	params.Context = ctx

	session, err := g.api.BillingPortalSessions.New(params)
	if err != nil {
		return "", wrapStripeError(err)
	}
	return session.URL, nil
}

func snapshotFromStripe(sub *stripe.Subscription) SubscriptionSnapshot {
	snap := SubscriptionSnapshot{
		ID:               sub.ID,
		Status:           string(sub.Status),
		CancelAt:         unixTime(sub.CancelAt),
		CanceledAt:       unixTime(sub.CanceledAt),
		TrialEnd:         unixTime(sub.TrialEnd),
		CurrentPeriodEnd: unixTime(sub.CurrentPeriodEnd),
		Metadata:         sub.Metadata,
	}
	if sub.Customer != nil {
		snap.CustomerID = sub.Customer.ID
	}
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil {
		snap.PriceID = sub.Items.Data[0].Price.ID
	}
	return snap
}

func unixTime(sec int64) *time.Time {
	if sec == 0 {
		return nil
	}
	t := time.Unix(sec, 0).UTC()
	return &t
}
