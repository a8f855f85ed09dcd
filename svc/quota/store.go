package quota

import "context"

// Store persists per-period usage counters. Implementations keep user and
// IP identities in separate keyspaces; a user's counters are unaffected by
// traffic from their IP and vice versa.
type Store interface {
	// Get returns the counters for an identity and period. Identities that
	// have not consumed anything this period return a zero Usage, not an
	// error.
	Get(ctx context.Context, id Identity, periodYM string) (Usage, error)

	// Increment atomically bumps one counter by one if doing so keeps it at
	// or under limit, and returns the new value. Returns ErrQuotaExceeded
	// without modifying anything when the counter is already at the limit.
	// A limit of Unlimited never refuses.
	Increment(ctx context.Context, id Identity, periodYM string, feature Feature, limit int64) (int64, error)
}
