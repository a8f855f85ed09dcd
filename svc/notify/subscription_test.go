package notify_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tradecardhq/tradecard/svc/billing"
	"github.com/tradecardhq/tradecard/svc/notify"
	"github.com/tradecardhq/tradecard/svc/subscription"
)

type fakeSender struct {
	sent []sentEmail
}

type sentEmail struct {
	to, subject, body, tag string
}

func (f *fakeSender) SendEmail(_ context.Context, to, subject, htmlBody, tag string) error {
	f.sent = append(f.sent, sentEmail{to, subject, htmlBody, tag})
	return nil
}

func TestSubscriptionNotifier(t *testing.T) {
	t.Parallel()

	t.Run("active subscription", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		n := notify.NewSubscriptionNotifier(sender)

		err := n.SubscriptionChanged(context.Background(), "jane@example.com", "Jane",
			&subscription.Subscription{Plan: subscription.PlanPro, Status: billing.StatusActive})
		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "jane@example.com", sender.sent[0].to)
		assert.Equal(t, "subscription-active", sender.sent[0].tag)
		assert.Contains(t, sender.sent[0].body, "Hi Jane")
		assert.Contains(t, sender.sent[0].body, "pro")
	})

	t.Run("past due subscription", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		n := notify.NewSubscriptionNotifier(sender)

		err := n.SubscriptionChanged(context.Background(), "jane@example.com", "",
			&subscription.Subscription{Plan: subscription.PlanPro, Status: billing.StatusPastDue})
		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		assert.Equal(t, "subscription-past-due", sender.sent[0].tag)
		assert.Contains(t, sender.sent[0].body, "Hi,")
	})

	t.Run("unpaid sends nothing", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		n := notify.NewSubscriptionNotifier(sender)

		err := n.SubscriptionChanged(context.Background(), "jane@example.com", "Jane",
			&subscription.Subscription{Plan: subscription.PlanPro, Status: billing.StatusUnpaid})
		require.NoError(t, err)
		assert.Empty(t, sender.sent)
	})

	t.Run("name is escaped", func(t *testing.T) {
		t.Parallel()

		sender := &fakeSender{}
		n := notify.NewSubscriptionNotifier(sender)

		err := n.SubscriptionChanged(context.Background(), "jane@example.com", "<script>",
			&subscription.Subscription{Plan: subscription.PlanFree, Status: billing.StatusCanceled})
		require.NoError(t, err)
		require.Len(t, sender.sent, 1)
		assert.NotContains(t, sender.sent[0].body, "<script>")
	})
}
