package subscription

import "strings"

// PlanMapper derives the application plan from provider product identity.
// Explicit product and price ID mappings are authoritative; name matching is
// only a fallback for products created before the mapping was configured.
type PlanMapper struct {
	byID map[string]string
}

// NewPlanMapper creates a mapper from provider product/price IDs to plan
// names. A nil or empty mapping is valid; derivation then relies on the name
// fallback alone.
func NewPlanMapper(byID map[string]string) *PlanMapper {
	m := make(map[string]string, len(byID))
	for id, plan := range byID {
		m[id] = plan
	}
	return &PlanMapper{byID: m}
}

// Derive returns the plan for a provider product. Lookup order: price ID,
// product ID, then a case-insensitive "pro" substring check on the product
// name. Anything unrecognized is free, so a misconfigured mapping fails
// toward less access rather than more.
func (m *PlanMapper) Derive(productID, priceID, productName string) string {
	if plan, ok := m.byID[priceID]; ok && priceID != "" {
		return plan
	}
	if plan, ok := m.byID[productID]; ok && productID != "" {
		return plan
	}
	if strings.Contains(strings.ToLower(productName), "pro") {
		return PlanPro
	}
	return PlanFree
}
