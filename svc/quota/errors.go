package quota

import "errors"

var (
	ErrInvalidFeature     = errors.New("quota: invalid feature")
	ErrQuotaExceeded      = errors.New("quota: limit exceeded")
	ErrPlanNotFound       = errors.New("quota: plan not found")
	ErrInvalidPlanCatalog = errors.New("quota: invalid plan catalog")
	ErrFailedToQuery      = errors.New("quota: failed to query usage")
)
