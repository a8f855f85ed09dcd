package billing

import (
	"encoding/json"
	"fmt"
	"time"
)

// DecodeEvent classifies and normalizes a webhook payload of unknown shape.
//
// A payload is a subscription event only if its nested data object carries a
// recognized status; everything else (order events, benefit grants, pings)
// returns ErrIgnoredEvent. A recognized event without a customer email
// returns ErrMissingCustomerEmail since it cannot be attributed to a user.
// Field extraction is tolerant: providers evolve their payloads, so missing
// optional fields produce zero values rather than errors.
func DecodeEvent(payload []byte) (*Event, error) {
	var body map[string]any
	if err := decodeJSON(payload, &body); err != nil {
		return nil, err
	}

	data, ok := body["data"].(map[string]any)
	if !ok {
		return nil, ErrIgnoredEvent
	}

	status := str(data, "status")
	if !KnownStatus(status) {
		return nil, ErrIgnoredEvent
	}

	ev := &Event{
		ProviderEvent:     str(body, "type"),
		SubscriptionID:    str(data, "id"),
		Status:            Status(status),
		ProductID:         str(data, "product_id"),
		PriceID:           str(data, "price_id"),
		PeriodStart:       timestamp(data, "current_period_start"),
		PeriodEnd:         timestamp(data, "current_period_end"),
		CancelAtPeriodEnd: boolean(data, "cancel_at_period_end"),
		Raw:               data,
	}

	if product, ok := data["product"].(map[string]any); ok {
		ev.ProductName = str(product, "name")
		if ev.ProductID == "" {
			ev.ProductID = str(product, "id")
		}
	}
	if customer, ok := data["customer"].(map[string]any); ok {
		ev.CustomerID = str(customer, "id")
		ev.CustomerEmail = str(customer, "email")
		ev.CustomerName = str(customer, "name")
	}
	if ev.CustomerID == "" {
		ev.CustomerID = str(data, "customer_id")
	}

	if ev.CustomerEmail == "" {
		return nil, ErrMissingCustomerEmail
	}
	return ev, nil
}

func decodeJSON(payload []byte, out any) error {
	if err := json.Unmarshal(payload, out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}
	return nil
}

func str(m map[string]any, key string) string {
	s, _ := m[key].(string)
	return s
}

func boolean(m map[string]any, key string) bool {
	b, _ := m[key].(bool)
	return b
}

func timestamp(m map[string]any, key string) *time.Time {
	s, ok := m[key].(string)
	if !ok || s == "" {
		return nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return nil
	}
	return &t
}
