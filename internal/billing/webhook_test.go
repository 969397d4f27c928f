package billing

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testWebhookSecret = "whsec_test_secret"

// signPayload builds a Stripe-Signature header for payload.
func signPayload(payload []byte, secret string, at time.Time) string {
	ts := at.Unix()
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(fmt.Sprintf("%d.", ts)))
	mac.Write(payload)
	return fmt.Sprintf("t=%d,v1=%s", ts, hex.EncodeToString(mac.Sum(nil)))
}

func subscriptionEventPayload(eventType string) []byte {
	return []byte(`{
  "id": "evt_123",
  "object": "event",
  "type": "` + eventType + `",
  "data": {
    "object": {
      "id": "sub_123",
      "object": "subscription",
      "status": "trialing",
      "customer": "cus_456",
      "cancel_at": 1767225600,
      "canceled_at": null,
      "trial_end": 1764547200,
      "current_period_end": 1767225600,
      "metadata": {"restaurant_id": "4b0b3c1c-7d43-4c3b-8f6e-3c6f2e0d5d11"},
      "items": {"object": "list", "data": [{"id": "si_1", "object": "subscription_item", "price": {"id": "price_editor_monthly", "object": "price"}}]}
    }
  }
}`)
}

func TestParseWebhook_SubscriptionUpdated(t *testing.T) {
	payload := subscriptionEventPayload(EventSubscriptionUpdated)
	sig := signPayload(payload, testWebhookSecret, time.Now())

	evt, err := ParseWebhook(payload, sig, testWebhookSecret)
	require.NoError(t, err)

	assert.Equal(t, EventSubscriptionUpdated, evt.Type)
	assert.False(t, evt.Ignored)
	require.NotNil(t, evt.Subscription)

	snap := evt.Subscription
	assert.Equal(t, "sub_123", snap.ID)
	assert.Equal(t, "cus_456", snap.CustomerID)
	assert.Equal(t, "trialing", snap.Status)
	assert.Equal(t, "price_editor_monthly", snap.PriceID)
	assert.Equal(t, "4b0b3c1c-7d43-4c3b-8f6e-3c6f2e0d5d11", snap.Metadata[MetadataRestaurantID])
	require.NotNil(t, snap.CancelAt)
	assert.Equal(t, int64(1767225600), snap.CancelAt.Unix())
	assert.Nil(t, snap.CanceledAt)
	require.NotNil(t, snap.TrialEnd)
	assert.Equal(t, int64(1764547200), snap.TrialEnd.Unix())
}

func TestParseWebhook_BadSignature(t *testing.T) {
	payload := subscriptionEventPayload(EventSubscriptionUpdated)
	sig := signPayload(payload, "whsec_other", time.Now())

	_, err := ParseWebhook(payload, sig, testWebhookSecret)

	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrInvalidSignature))
}

func TestParseWebhook_ExpiredTimestamp(t *testing.T) {
	payload := subscriptionEventPayload(EventSubscriptionUpdated)
	sig := signPayload(payload, testWebhookSecret, time.Now().Add(-time.Hour))

	_, err := ParseWebhook(payload, sig, testWebhookSecret)

	assert.ErrorIs(t, err, ErrInvalidSignature)
}

func TestParseWebhook_InvoicePaymentFailed(t *testing.T) {
	payload := []byte(`{"id":"evt_9","object":"event","type":"invoice.payment_failed","data":{"object":{"id":"in_1","object":"invoice","subscription":"sub_789"}}}`)
	sig := signPayload(payload, testWebhookSecret, time.Now())

	evt, err := ParseWebhook(payload, sig, testWebhookSecret)
	require.NoError(t, err)

	assert.Equal(t, "sub_789", evt.FailedSubscriptionID)
	assert.False(t, evt.Ignored)
}

func TestParseWebhook_CheckoutCompleted(t *testing.T) {
	payload := []byte(`{"id":"evt_2","object":"event","type":"checkout.session.completed","data":{"object":{"id":"cs_1","object":"checkout.session","customer":"cus_1","subscription":"sub_1","metadata":{"profile_id":"p-1"}}}}`)
	sig := signPayload(payload, testWebhookSecret, time.Now())

	evt, err := ParseWebhook(payload, sig, testWebhookSecret)
	require.NoError(t, err)
	require.NotNil(t, evt.Checkout)

	assert.Equal(t, "cus_1", evt.Checkout.CustomerID)
	assert.Equal(t, "sub_1", evt.Checkout.SubscriptionID)
	assert.Equal(t, "p-1", evt.Checkout.Metadata[MetadataProfileID])
}

func TestParseWebhook_UnhandledTypeIsIgnored(t *testing.T) {
	payload := []byte(`{"id":"evt_3","object":"event","type":"customer.created","data":{"object":{"id":"cus_1","object":"customer"}}}`)
	sig := signPayload(payload, testWebhookSecret, time.Now())

	evt, err := ParseWebhook(payload, sig, testWebhookSecret)
	require.NoError(t, err)

	assert.True(t, evt.Ignored)
	assert.Nil(t, evt.Subscription)
}

func TestStripeErrorMatchesSentinel(t *testing.T) {
	err := fmt.Errorf("cancel: %w", &StripeError{Code: "resource_missing", Message: "No such subscription", HTTPStatus: 404})

	assert.ErrorIs(t, err, ErrStripe)

	var se *StripeError
	require.True(t, errors.As(err, &se))
	assert.True(t, se.IsClientError())
	assert.Contains(t, se.Error(), "resource_missing")
}
