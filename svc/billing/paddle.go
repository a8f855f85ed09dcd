package billing

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	paddle "github.com/PaddleHQ/paddle-go-sdk/v4"
)

// PaddleConfig holds Paddle credentials and environment selection.
type PaddleConfig struct {
	APIKey        string `env:"PADDLE_API_KEY,required"`
	WebhookSecret string `env:"PADDLE_WEBHOOK_SECRET,required"`
	Environment   string `env:"PADDLE_ENVIRONMENT" envDefault:"production"`
}

// PaddleProvider integrates with Paddle through the official Go SDK.
type PaddleProvider struct {
	client   *paddle.SDK
	verifier *paddle.WebhookVerifier
}

// NewPaddleProvider creates a Paddle provider. Panics on missing credentials
// or an unknown environment since the provider is unusable without them.
func NewPaddleProvider(cfg PaddleConfig) *PaddleProvider {
	if cfg.APIKey == "" {
		panic("billing: paddle API key is required")
	}
	if cfg.WebhookSecret == "" {
		panic("billing: paddle webhook secret is required")
	}

	var client *paddle.SDK
	var err error
	switch strings.ToLower(cfg.Environment) {
	case "sandbox":
		client, err = paddle.NewSandbox(cfg.APIKey)
	case "production", "":
		client, err = paddle.New(cfg.APIKey)
	default:
		panic(fmt.Sprintf("billing: invalid paddle environment: %s", cfg.Environment))
	}
	if err != nil {
		panic(fmt.Sprintf("billing: create paddle client: %v", err))
	}

	return &PaddleProvider{
		client:   client,
		verifier: paddle.NewWebhookVerifier(cfg.WebhookSecret),
	}
}

func (p *PaddleProvider) Name() string { return ProviderPaddle }

// ParseWebhook verifies the Paddle-Signature header and maps subscription
// events into the normalized event shape. Transaction and catalog events
// are acknowledged but ignored.
func (p *PaddleProvider) ParseWebhook(ctx context.Context, payload []byte, header http.Header) (*Event, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, "/webhook", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build verification request: %w", err)
	}
	req.Header.Set("Paddle-Signature", header.Get("Paddle-Signature"))

	valid, err := p.verifier.Verify(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if !valid {
		return nil, ErrInvalidSignature
	}

	// Paddle wraps webhook payloads in an event envelope; the nested data
	// object matches the generic shape closely enough that the shared
	// decoder handles classification, but identifiers live elsewhere.
	var envelope struct {
		EventType string         `json:"event_type"`
		Data      map[string]any `json:"data"`
	}
	if err := decodeJSON(payload, &envelope); err != nil {
		return nil, err
	}
	if !strings.HasPrefix(envelope.EventType, "subscription.") {
		return nil, ErrIgnoredEvent
	}

	status, ok := mapPaddleStatus(str(envelope.Data, "status"))
	if !ok {
		return nil, ErrIgnoredEvent
	}

	ev := &Event{
		ProviderEvent:  envelope.EventType,
		SubscriptionID: str(envelope.Data, "id"),
		Status:         status,
		CustomerID:     str(envelope.Data, "customer_id"),
		Raw:            envelope.Data,
	}

	if period, ok := envelope.Data["current_billing_period"].(map[string]any); ok {
		ev.PeriodStart = timestamp(period, "starts_at")
		ev.PeriodEnd = timestamp(period, "ends_at")
	}
	if change, ok := envelope.Data["scheduled_change"].(map[string]any); ok {
		ev.CancelAtPeriodEnd = str(change, "action") == "cancel"
	}
	if items, ok := envelope.Data["items"].([]any); ok && len(items) > 0 {
		if item, ok := items[0].(map[string]any); ok {
			if price, ok := item["price"].(map[string]any); ok {
				ev.PriceID = str(price, "id")
				ev.ProductID = str(price, "product_id")
			}
			if product, ok := item["product"].(map[string]any); ok {
				ev.ProductName = str(product, "name")
				if ev.ProductID == "" {
					ev.ProductID = str(product, "id")
				}
			}
		}
	}
	// Paddle does not echo customer details on subscription events; the
	// checkout flow stashes them in custom data so events stay attributable.
	if custom, ok := envelope.Data["custom_data"].(map[string]any); ok {
		ev.CustomerEmail = str(custom, "email")
		ev.CustomerName = str(custom, "name")
	}

	if ev.CustomerEmail == "" {
		return nil, ErrMissingCustomerEmail
	}
	return ev, nil
}

// FetchSubscription returns the current subscription state from Paddle.
func (p *PaddleProvider) FetchSubscription(ctx context.Context, providerSubID string) (*Snapshot, error) {
	sub, err := p.client.SubscriptionsClient.GetSubscription(ctx, &paddle.GetSubscriptionRequest{
		SubscriptionID: providerSubID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}

	status, ok := mapPaddleStatus(string(sub.Status))
	if !ok {
		status = StatusUnpaid
	}
	snap := &Snapshot{
		SubscriptionID: sub.ID,
		Status:         status,
	}
	if sub.CurrentBillingPeriod != nil {
		snap.PeriodStart = parsePaddleTime(sub.CurrentBillingPeriod.StartsAt)
		snap.PeriodEnd = parsePaddleTime(sub.CurrentBillingPeriod.EndsAt)
	}
	if sub.ScheduledChange != nil && string(sub.ScheduledChange.Action) == "cancel" {
		snap.CancelAtPeriodEnd = true
	}
	if len(sub.Items) > 0 {
		snap.PriceID = sub.Items[0].Price.ID
		snap.ProductID = sub.Items[0].Price.ProductID
	}
	return snap, nil
}

// CreateCheckout creates a Paddle transaction with a hosted checkout URL.
func (p *PaddleProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	item := paddle.NewCreateTransactionItemsTransactionItemFromCatalog(&paddle.TransactionItemFromCatalog{
		PriceID:  req.PriceID,
		Quantity: 1,
	})
	txReq := &paddle.CreateTransactionRequest{
		Items: []paddle.CreateTransactionItems{*item},
		CustomData: paddle.CustomData{
			"email": req.Email,
		},
	}
	if req.SuccessURL != "" {
		txReq.Checkout = &paddle.TransactionCheckout{
			URL: paddle.PtrTo(req.SuccessURL),
		}
	}

	tx, err := p.client.TransactionsClient.CreateTransaction(ctx, txReq)
	if err != nil {
		return nil, fmt.Errorf("%w: create paddle transaction: %v", ErrProviderUnavailable, err)
	}
	if tx.Checkout == nil || tx.Checkout.URL == nil {
		return nil, fmt.Errorf("%w: no checkout URL returned", ErrProviderUnavailable)
	}
	return &CheckoutLink{URL: *tx.Checkout.URL, SessionID: tx.ID}, nil
}

// CreatePortalSession returns a link to Paddle's customer portal.
func (p *PaddleProvider) CreatePortalSession(ctx context.Context, customerID string) (*PortalLink, error) {
	session, err := p.client.CustomerPortalSessionsClient.CreateCustomerPortalSession(ctx, &paddle.CreateCustomerPortalSessionRequest{
		CustomerID: customerID,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: create paddle portal session: %v", ErrProviderUnavailable, err)
	}
	if session.URLs.General.Overview == "" {
		return nil, fmt.Errorf("%w: no portal URL returned", ErrProviderUnavailable)
	}
	return &PortalLink{
		URL:       session.URLs.General.Overview,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

// mapPaddleStatus folds Paddle's status vocabulary into ours. Trialing
// subscriptions grant access, so they count as active. Unmapped statuses
// (paused, statuses added later) report not ok so callers can ignore them.
func mapPaddleStatus(s string) (Status, bool) {
	switch strings.ToLower(s) {
	case "active", "trialing":
		return StatusActive, true
	case "past_due":
		return StatusPastDue, true
	case "canceled", "cancelled":
		return StatusCanceled, true
	case "unpaid":
		return StatusUnpaid, true
	}
	return "", false
}

func parsePaddleTime(s string) *time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
