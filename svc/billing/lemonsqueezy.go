package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const lemonSqueezyAPIURL = "https://api.lemonsqueezy.com"

// LemonSqueezyConfig holds Lemon Squeezy credentials.
type LemonSqueezyConfig struct {
	APIKey        string `env:"LEMONSQUEEZY_API_KEY,required"`
	SigningSecret string `env:"LEMONSQUEEZY_SIGNING_SECRET,required"`
	StoreID       string `env:"LEMONSQUEEZY_STORE_ID,required"`
}

// LemonSqueezyProvider integrates with the Lemon Squeezy JSON:API. There is
// no official Go SDK, so this is a thin HTTP client. Webhooks are signed
// with a hex-encoded HMAC-SHA256 in the X-Signature header.
type LemonSqueezyProvider struct {
	client        *http.Client
	apiKey        string
	signingSecret []byte
	storeID       string
}

// NewLemonSqueezyProvider creates a Lemon Squeezy provider. Panics on
// missing credentials since the provider is unusable without them.
func NewLemonSqueezyProvider(cfg LemonSqueezyConfig) *LemonSqueezyProvider {
	if cfg.APIKey == "" {
		panic("billing: lemonsqueezy API key is required")
	}
	if cfg.SigningSecret == "" {
		panic("billing: lemonsqueezy signing secret is required")
	}
	if cfg.StoreID == "" {
		panic("billing: lemonsqueezy store ID is required")
	}
	return &LemonSqueezyProvider{
		client:        &http.Client{Timeout: 15 * time.Second},
		apiKey:        cfg.APIKey,
		signingSecret: []byte(cfg.SigningSecret),
		storeID:       cfg.StoreID,
	}
}

func (p *LemonSqueezyProvider) Name() string { return ProviderLemonSqueezy }

// lsSubscriptionAttrs is the subset of subscription attributes this
// application reads. Identifiers arrive as JSON numbers.
type lsSubscriptionAttrs struct {
	Status      string     `json:"status"`
	ProductID   int64      `json:"product_id"`
	ProductName string     `json:"product_name"`
	VariantID   int64      `json:"variant_id"`
	VariantName string     `json:"variant_name"`
	UserEmail   string     `json:"user_email"`
	UserName    string     `json:"user_name"`
	CustomerID  int64      `json:"customer_id"`
	Cancelled   bool       `json:"cancelled"`
	CreatedAt   *time.Time `json:"created_at"`
	RenewsAt    *time.Time `json:"renews_at"`
	EndsAt      *time.Time `json:"ends_at"`
}

// ParseWebhook verifies the X-Signature header and maps subscription events
// into the normalized event shape.
func (p *LemonSqueezyProvider) ParseWebhook(_ context.Context, payload []byte, header http.Header) (*Event, error) {
	if err := p.verifySignature(payload, header.Get("X-Signature")); err != nil {
		return nil, err
	}

	var envelope struct {
		Meta struct {
			EventName string `json:"event_name"`
		} `json:"meta"`
		Data struct {
			Type       string              `json:"type"`
			ID         string              `json:"id"`
			Attributes lsSubscriptionAttrs `json:"attributes"`
		} `json:"data"`
	}
	if err := decodeJSON(payload, &envelope); err != nil {
		return nil, err
	}
	if envelope.Data.Type != "subscriptions" {
		return nil, ErrIgnoredEvent
	}

	attrs := envelope.Data.Attributes
	status, ok := mapLemonSqueezyStatus(attrs.Status)
	if !ok {
		return nil, ErrIgnoredEvent
	}
	if attrs.UserEmail == "" {
		return nil, ErrMissingCustomerEmail
	}

	var raw map[string]any
	_ = json.Unmarshal(payload, &raw)

	return &Event{
		ProviderEvent:     envelope.Meta.EventName,
		SubscriptionID:    envelope.Data.ID,
		Status:            status,
		ProductID:         strconv.FormatInt(attrs.ProductID, 10),
		ProductName:       attrs.ProductName,
		PriceID:           strconv.FormatInt(attrs.VariantID, 10),
		CustomerID:        strconv.FormatInt(attrs.CustomerID, 10),
		CustomerEmail:     attrs.UserEmail,
		CustomerName:      attrs.UserName,
		PeriodStart:       attrs.CreatedAt,
		PeriodEnd:         attrs.RenewsAt,
		CancelAtPeriodEnd: attrs.Cancelled,
		Raw:               raw,
	}, nil
}

func (p *LemonSqueezyProvider) verifySignature(payload []byte, signature string) error {
	if signature == "" {
		return fmt.Errorf("%w: missing X-Signature header", ErrInvalidSignature)
	}
	mac := hmac.New(sha256.New, p.signingSecret)
	mac.Write(payload)
	expected := hex.EncodeToString(mac.Sum(nil))
	if subtle.ConstantTimeCompare([]byte(strings.ToLower(signature)), []byte(expected)) != 1 {
		return ErrInvalidSignature
	}
	return nil
}

// FetchSubscription returns the current subscription state from Lemon Squeezy.
func (p *LemonSqueezyProvider) FetchSubscription(ctx context.Context, providerSubID string) (*Snapshot, error) {
	var body struct {
		Data struct {
			ID         string              `json:"id"`
			Attributes lsSubscriptionAttrs `json:"attributes"`
		} `json:"data"`
	}
	if err := p.do(ctx, http.MethodGet, "/v1/subscriptions/"+providerSubID, nil, &body); err != nil {
		return nil, err
	}

	attrs := body.Data.Attributes
	status, ok := mapLemonSqueezyStatus(attrs.Status)
	if !ok {
		status = StatusUnpaid
	}
	return &Snapshot{
		SubscriptionID:    body.Data.ID,
		Status:            status,
		ProductID:         strconv.FormatInt(attrs.ProductID, 10),
		ProductName:       attrs.ProductName,
		PriceID:           strconv.FormatInt(attrs.VariantID, 10),
		PeriodStart:       attrs.CreatedAt,
		PeriodEnd:         attrs.RenewsAt,
		CancelAtPeriodEnd: attrs.Cancelled,
	}, nil
}

// CreateCheckout creates a hosted checkout for the given variant.
func (p *LemonSqueezyProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	payload := map[string]any{
		"data": map[string]any{
			"type": "checkouts",
			"attributes": map[string]any{
				"checkout_data": map[string]any{
					"email": req.Email,
				},
				"product_options": map[string]any{
					"redirect_url": req.SuccessURL,
				},
			},
			"relationships": map[string]any{
				"store": map[string]any{
					"data": map[string]any{"type": "stores", "id": p.storeID},
				},
				"variant": map[string]any{
					"data": map[string]any{"type": "variants", "id": req.PriceID},
				},
			},
		},
	}

	var body struct {
		Data struct {
			ID         string `json:"id"`
			Attributes struct {
				URL string `json:"url"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/checkouts", payload, &body); err != nil {
		return nil, err
	}
	return &CheckoutLink{URL: body.Data.Attributes.URL, SessionID: body.Data.ID}, nil
}

// CreatePortalSession returns the customer's signed portal link. Lemon
// Squeezy exposes it on the customer object rather than a session endpoint;
// the link is valid for 24 hours.
func (p *LemonSqueezyProvider) CreatePortalSession(ctx context.Context, customerID string) (*PortalLink, error) {
	var body struct {
		Data struct {
			Attributes struct {
				URLs struct {
					CustomerPortal string `json:"customer_portal"`
				} `json:"urls"`
			} `json:"attributes"`
		} `json:"data"`
	}
	if err := p.do(ctx, http.MethodGet, "/v1/customers/"+customerID, nil, &body); err != nil {
		return nil, err
	}
	if body.Data.Attributes.URLs.CustomerPortal == "" {
		return nil, fmt.Errorf("%w: no portal URL returned", ErrProviderUnavailable)
	}
	return &PortalLink{
		URL:       body.Data.Attributes.URLs.CustomerPortal,
		ExpiresAt: time.Now().Add(24 * time.Hour),
	}, nil
}

func (p *LemonSqueezyProvider) do(ctx context.Context, method, path string, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal lemonsqueezy request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, lemonSqueezyAPIURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build lemonsqueezy request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Accept", "application/vnd.api+json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/vnd.api+json")
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrProviderUnavailable, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return ErrSubscriptionNotFound
	case resp.StatusCode >= 400:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%w: lemonsqueezy returned %d: %s", ErrProviderUnavailable, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode lemonsqueezy response: %w", err)
		}
	}
	return nil
}

// mapLemonSqueezyStatus folds Lemon Squeezy's status vocabulary into ours.
func mapLemonSqueezyStatus(s string) (Status, bool) {
	switch strings.ToLower(s) {
	case "active", "on_trial":
		return StatusActive, true
	case "past_due":
		return StatusPastDue, true
	case "cancelled", "canceled", "expired":
		return StatusCanceled, true
	case "unpaid", "paused":
		return StatusUnpaid, true
	}
	return "", false
}
