// Package quota meters feature usage per calendar month against plan
// limits. Identities are either authenticated users or anonymous client IPs;
// the two keyspaces are symmetric but fully independent.
package quota

import (
	"time"

	"github.com/google/uuid"
)

// Unlimited indicates no limit for a feature (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Feature is a metered counter. Values double as storage column discriminators.
type Feature string

const (
	FeaturePhotos    Feature = "photosProcessed"
	FeatureMagicFill Feature = "magicFillCount"
	FeatureExport    Feature = "exportCount"
)

// MapFeature translates an externally supplied feature name into a metered
// counter. The photo pipeline historically used two names for the same
// counter, so both map to FeaturePhotos.
func MapFeature(raw string) (Feature, error) {
	switch raw {
	case "photos", "imageProcessing":
		return FeaturePhotos, nil
	case "magicFill":
		return FeatureMagicFill, nil
	case "export":
		return FeatureExport, nil
	}
	return "", ErrInvalidFeature
}

// Identity is the quota subject: an authenticated user or an anonymous
// client IP. Exactly one of the two fields is set.
type Identity struct {
	UserID uuid.UUID
	IP     string
}

// UserIdentity creates an identity for an authenticated user.
func UserIdentity(userID uuid.UUID) Identity {
	return Identity{UserID: userID}
}

// AnonymousIdentity creates an identity keyed by client IP.
func AnonymousIdentity(ip string) Identity {
	return Identity{IP: ip}
}

// IsAnonymous reports whether this identity is IP-keyed.
func (id Identity) IsAnonymous() bool {
	return id.UserID == uuid.Nil
}

// Result is the outcome of a quota check or consume call.
type Result struct {
	Feature   Feature
	Plan      string
	Current   int64
	Limit     int64
	Remaining int64 // Unlimited when Limit is Unlimited
	Allowed   bool
}

// Usage holds the per-period counters for one identity. Counters only ever
// increase within a period; a new period starts from a fresh zero row.
type Usage struct {
	PhotosProcessed int64
	MagicFillCount  int64
	ExportCount     int64
}

// Counter returns the value for a feature.
func (u Usage) Counter(f Feature) int64 {
	switch f {
	case FeaturePhotos:
		return u.PhotosProcessed
	case FeatureMagicFill:
		return u.MagicFillCount
	case FeatureExport:
		return u.ExportCount
	}
	return 0
}

// PeriodYM formats t as the "YYYY-MM" period key.
func PeriodYM(t time.Time) string {
	return t.UTC().Format("2006-01")
}
