package billing

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"
)

const (
	polarAPIURL        = "https://api.polar.sh"
	polarSandboxAPIURL = "https://sandbox-api.polar.sh"

	// Standard Webhooks tolerance for timestamp skew.
	polarWebhookTolerance = 5 * time.Minute
)

// PolarConfig holds Polar credentials and environment selection.
type PolarConfig struct {
	AccessToken   string `env:"POLAR_ACCESS_TOKEN,required"`
	WebhookSecret string `env:"POLAR_WEBHOOK_SECRET,required"`
	Sandbox       bool   `env:"POLAR_SANDBOX" envDefault:"false"`
}

// PolarProvider integrates with the Polar billing API. Polar has no official
// Go SDK, so this is a thin HTTP client over its REST API. Webhooks follow
// the Standard Webhooks signing scheme.
type PolarProvider struct {
	client        *http.Client
	baseURL       string
	accessToken   string
	webhookSecret []byte
	now           func() time.Time
}

// NewPolarProvider creates a Polar provider. Panics if credentials are empty
// since the provider is unusable without them.
func NewPolarProvider(cfg PolarConfig) *PolarProvider {
	if cfg.AccessToken == "" {
		panic("billing: polar access token is required")
	}
	if cfg.WebhookSecret == "" {
		panic("billing: polar webhook secret is required")
	}

	baseURL := polarAPIURL
	if cfg.Sandbox {
		baseURL = polarSandboxAPIURL
	}

	// Standard Webhooks secrets are base64 with a whsec_ prefix.
	raw := strings.TrimPrefix(cfg.WebhookSecret, "whsec_")
	secret, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		// Some setups configure the raw string without encoding it.
		secret = []byte(raw)
	}

	return &PolarProvider{
		client:        &http.Client{Timeout: 15 * time.Second},
		baseURL:       baseURL,
		accessToken:   cfg.AccessToken,
		webhookSecret: secret,
		now:           time.Now,
	}
}

func (p *PolarProvider) Name() string { return ProviderPolar }

// ParseWebhook verifies the Standard Webhooks signature and decodes the
// payload into a normalized event.
func (p *PolarProvider) ParseWebhook(_ context.Context, payload []byte, header http.Header) (*Event, error) {
	if err := p.verifySignature(payload, header); err != nil {
		return nil, err
	}
	return DecodeEvent(payload)
}

func (p *PolarProvider) verifySignature(payload []byte, header http.Header) error {
	msgID := header.Get("webhook-id")
	msgTimestamp := header.Get("webhook-timestamp")
	msgSignature := header.Get("webhook-signature")
	if msgID == "" || msgTimestamp == "" || msgSignature == "" {
		return fmt.Errorf("%w: missing signature headers", ErrInvalidSignature)
	}

	unix, err := strconv.ParseInt(msgTimestamp, 10, 64)
	if err != nil {
		return fmt.Errorf("%w: malformed timestamp", ErrInvalidSignature)
	}
	skew := p.now().Sub(time.Unix(unix, 0))
	if skew > polarWebhookTolerance || skew < -polarWebhookTolerance {
		return fmt.Errorf("%w: timestamp outside tolerance", ErrInvalidSignature)
	}

	mac := hmac.New(sha256.New, p.webhookSecret)
	fmt.Fprintf(mac, "%s.%s.", msgID, msgTimestamp)
	mac.Write(payload)
	expected := base64.StdEncoding.EncodeToString(mac.Sum(nil))

	// The header carries space-separated versioned signatures.
	for _, part := range strings.Fields(msgSignature) {
		version, sig, found := strings.Cut(part, ",")
		if !found || version != "v1" {
			continue
		}
		if subtle.ConstantTimeCompare([]byte(sig), []byte(expected)) == 1 {
			return nil
		}
	}
	return ErrInvalidSignature
}

// FetchSubscription returns the current subscription state from Polar.
func (p *PolarProvider) FetchSubscription(ctx context.Context, providerSubID string) (*Snapshot, error) {
	var body struct {
		ID                 string     `json:"id"`
		Status             string     `json:"status"`
		ProductID          string     `json:"product_id"`
		PriceID            string     `json:"price_id"`
		CurrentPeriodStart *time.Time `json:"current_period_start"`
		CurrentPeriodEnd   *time.Time `json:"current_period_end"`
		CancelAtPeriodEnd  bool       `json:"cancel_at_period_end"`
		Product            struct {
			Name string `json:"name"`
		} `json:"product"`
	}
	if err := p.do(ctx, http.MethodGet, "/v1/subscriptions/"+providerSubID, nil, &body); err != nil {
		return nil, err
	}
	return &Snapshot{
		SubscriptionID:    body.ID,
		Status:            Status(body.Status),
		ProductID:         body.ProductID,
		ProductName:       body.Product.Name,
		PriceID:           body.PriceID,
		PeriodStart:       body.CurrentPeriodStart,
		PeriodEnd:         body.CurrentPeriodEnd,
		CancelAtPeriodEnd: body.CancelAtPeriodEnd,
	}, nil
}

// CreateCheckout creates a hosted checkout session for the given product.
func (p *PolarProvider) CreateCheckout(ctx context.Context, req CheckoutRequest) (*CheckoutLink, error) {
	payload := map[string]any{
		"products":    []string{req.PriceID},
		"success_url": req.SuccessURL,
	}
	if req.Email != "" {
		payload["customer_email"] = req.Email
	}

	var body struct {
		ID  string `json:"id"`
		URL string `json:"url"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/checkouts/", payload, &body); err != nil {
		return nil, err
	}
	return &CheckoutLink{URL: body.URL, SessionID: body.ID}, nil
}

// CreatePortalSession returns a pre-authenticated customer portal link.
func (p *PolarProvider) CreatePortalSession(ctx context.Context, customerID string) (*PortalLink, error) {
	payload := map[string]any{"customer_id": customerID}

	var body struct {
		CustomerPortalURL string    `json:"customer_portal_url"`
		ExpiresAt         time.Time `json:"expires_at"`
	}
	if err := p.do(ctx, http.MethodPost, "/v1/customer-sessions/", payload, &body); err != nil {
		return nil, err
	}
	return &PortalLink{URL: body.CustomerPortalURL, ExpiresAt: body.ExpiresAt}, nil
}

func (p *PolarProvider) do(ctx context.Context, method, path string, payload, out any) error {
	var reqBody io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal polar request: %w", err)
		}
		reqBody = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, reqBody)
	if err != nil {
		return fmt.Errorf("build polar request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.accessToken)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
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
		return fmt.Errorf("%w: polar returned %d: %s", ErrProviderUnavailable, resp.StatusCode, msg)
	}

	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return fmt.Errorf("decode polar response: %w", err)
		}
	}
	return nil
}
