package notify

import (
	"context"
	"fmt"
	"html"

	"github.com/tradecardhq/tradecard/svc/billing"
	"github.com/tradecardhq/tradecard/svc/subscription"
)

// SubscriptionNotifier emails users about subscription lifecycle changes.
// It implements subscription.Notifier.
type SubscriptionNotifier struct {
	sender EmailSender
}

// NewSubscriptionNotifier creates a notifier. Panics if the sender is nil.
func NewSubscriptionNotifier(sender EmailSender) *SubscriptionNotifier {
	if sender == nil {
		panic("notify: EmailSender is required")
	}
	return &SubscriptionNotifier{sender: sender}
}

// SubscriptionChanged sends the email matching the subscription's new
// status. Unpaid subscriptions get no email; the past_due dunning notice
// already covered the situation.
func (n *SubscriptionNotifier) SubscriptionChanged(ctx context.Context, email, name string, sub *subscription.Subscription) error {
	greeting := "Hi"
	if name != "" {
		greeting = "Hi " + html.EscapeString(name)
	}

	var subject, body, tag string
	switch sub.Status {
	case billing.StatusActive:
		subject = "Your subscription is active"
		body = fmt.Sprintf("<p>%s,</p><p>Your <strong>%s</strong> plan is now active. Happy card building!</p>",
			greeting, html.EscapeString(sub.Plan))
		tag = "subscription-active"
	case billing.StatusPastDue:
		subject = "Payment issue with your subscription"
		body = fmt.Sprintf("<p>%s,</p><p>We could not collect the latest payment for your <strong>%s</strong> plan. "+
			"Please update your payment method to keep your benefits.</p>",
			greeting, html.EscapeString(sub.Plan))
		tag = "subscription-past-due"
	case billing.StatusCanceled:
		subject = "Your subscription was canceled"
		body = fmt.Sprintf("<p>%s,</p><p>Your <strong>%s</strong> plan has been canceled. "+
			"You can resubscribe anytime from your account.</p>",
			greeting, html.EscapeString(sub.Plan))
		tag = "subscription-canceled"
	default:
		return nil
	}

	return n.sender.SendEmail(ctx, email, subject, body, tag)
}
