package billing_test

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/svc/billing"
)

func newTestLemonSqueezyProvider() *billing.LemonSqueezyProvider {
	return billing.NewLemonSqueezyProvider(billing.LemonSqueezyConfig{
		APIKey:        "ls_test_key",
		SigningSecret: "ls_signing_secret",
		StoreID:       "12345",
	})
}

func signLemonSqueezy(payload []byte) string {
	mac := hmac.New(sha256.New, []byte("ls_signing_secret"))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestLemonSqueezyProvider_ParseWebhook(t *testing.T) {
	t.Parallel()

	payload := []byte(`{
		"meta": {"event_name": "subscription_updated"},
		"data": {
			"type": "subscriptions",
			"id": "42",
			"attributes": {
				"status": "cancelled",
				"product_id": 101,
				"product_name": "Pro Plan",
				"variant_id": 202,
				"customer_id": 303,
				"user_email": "jane@example.com",
				"user_name": "Jane",
				"cancelled": true,
				"renews_at": "2026-09-01T00:00:00Z"
			}
		}
	}`)

	t.Run("valid signature", func(t *testing.T) {
		t.Parallel()

		p := newTestLemonSqueezyProvider()
		header := http.Header{}
		header.Set("X-Signature", signLemonSqueezy(payload))

		ev, err := p.ParseWebhook(context.Background(), payload, header)
		require.NoError(t, err)
		assert.Equal(t, "subscription_updated", ev.ProviderEvent)
		assert.Equal(t, "42", ev.SubscriptionID)
		assert.Equal(t, billing.StatusCanceled, ev.Status)
		assert.Equal(t, "101", ev.ProductID)
		assert.Equal(t, "202", ev.PriceID)
		assert.Equal(t, "303", ev.CustomerID)
		assert.Equal(t, "jane@example.com", ev.CustomerEmail)
		assert.True(t, ev.CancelAtPeriodEnd)
	})

	t.Run("invalid signature", func(t *testing.T) {
		t.Parallel()

		p := newTestLemonSqueezyProvider()
		header := http.Header{}
		header.Set("X-Signature", "deadbeef")

		_, err := p.ParseWebhook(context.Background(), payload, header)
		assert.ErrorIs(t, err, billing.ErrInvalidSignature)
	})

	t.Run("non-subscription resource is ignored", func(t *testing.T) {
		t.Parallel()

		orderPayload := []byte(`{"meta":{"event_name":"order_created"},"data":{"type":"orders","id":"7","attributes":{}}}`)
		p := newTestLemonSqueezyProvider()
		header := http.Header{}
		header.Set("X-Signature", signLemonSqueezy(orderPayload))

		_, err := p.ParseWebhook(context.Background(), orderPayload, header)
		assert.ErrorIs(t, err, billing.ErrIgnoredEvent)
	})
}
