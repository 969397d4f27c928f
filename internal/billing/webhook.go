package billing

import (
	"encoding/json"
	"fmt"

	"github.com/stripe/stripe-go/v76"
	"github.com/stripe/stripe-go/v76/webhook"
)

// Stripe event types the service reacts to.
const (
	EventCheckoutCompleted     = "checkout.session.completed"
	EventSubscriptionCreated   = "customer.subscription.created"
	EventSubscriptionUpdated   = "customer.subscription.updated"
	EventSubscriptionDeleted   = "customer.subscription.deleted"
	EventInvoicePaymentFailed  = "invoice.payment_failed"
	EventInvoicePaymentSuccess = "invoice.payment_succeeded"
)

// CheckoutCompleted is the part of a completed checkout session needed to
// link the Stripe customer to a profile.
type CheckoutCompleted struct {
	CustomerID     string
	SubscriptionID string
	Metadata       map[string]string
}

// Event is a verified, decoded webhook event. Exactly one of Subscription,
// Checkout or FailedSubscriptionID is set unless Ignored is true.
type Event struct {
	ID                   string
	Type                 string
	Ignored              bool
	Subscription         *SubscriptionSnapshot
	Checkout             *CheckoutCompleted
	FailedSubscriptionID string
}

// ParseWebhook verifies the Stripe-Signature header and decodes the event.
// Event types outside the handled set decode to an Ignored event.
func ParseWebhook(payload []byte, signature, secret string) (*Event, error) {
	evt, err := webhook.ConstructEventWithOptions(payload, signature, secret, webhook.ConstructEventOptions{
		IgnoreAPIVersionMismatch: true,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	return decodeEvent(evt)
}

func decodeEvent(evt stripe.Event) (*Event, error) {
	out := &Event{ID: evt.ID, Type: string(evt.Type)}
	if evt.Data == nil {
		return nil, fmt.Errorf("%w: %s has no data", ErrMalformedEvent, out.Type)
	}

	switch out.Type {
	case EventSubscriptionCreated, EventSubscriptionUpdated, EventSubscriptionDeleted:
		var sub stripe.Subscription
		if err := json.Unmarshal(evt.Data.Raw, &sub); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		snap := snapshotFromStripe(&sub)
		out.Subscription = &snap

	case EventCheckoutCompleted:
		var cs stripe.CheckoutSession
		if err := json.Unmarshal(evt.Data.Raw, &cs); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		done := &CheckoutCompleted{Metadata: cs.Metadata}
		if cs.Customer != nil {
			done.CustomerID = cs.Customer.ID
		}
		if cs.Subscription != nil {
			done.SubscriptionID = cs.Subscription.ID
		}
		out.Checkout = done

	case EventInvoicePaymentFailed:
		var inv stripe.Invoice
		if err := json.Unmarshal(evt.Data.Raw, &inv); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedEvent, err)
		}
		if inv.Subscription == nil || inv.Subscription.ID == "" {
			out.Ignored = true
			break
		}
		out.FailedSubscriptionID = inv.Subscription.ID

	default:
		// invoice.payment_succeeded is followed by customer.subscription.updated,
		// which carries the state we store.
		out.Ignored = true
	}
	return out, nil
}
