package quota

import (
	"context"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Plan names. Anonymous applies to IP-keyed identities only and is never
// stored on a subscription.
const (
	PlanAnonymous = "anonymous"
	PlanFree      = "free"
	PlanPro       = "pro"
)

// Plan is a named set of monthly feature limits.
type Plan struct {
	Name   string
	Limits map[Feature]int64
}

// PlanSource loads the plan catalog at service construction.
type PlanSource interface {
	Load(ctx context.Context) (map[string]Plan, error)
}

// StaticSource serves a fixed catalog, used for the built-in defaults and
// in tests.
type StaticSource map[string]Plan

func (s StaticSource) Load(context.Context) (map[string]Plan, error) {
	return s, nil
}

// DefaultPlans returns the built-in catalog used when no plans file is
// configured.
func DefaultPlans() StaticSource {
	return StaticSource{
		PlanAnonymous: {
			Name: PlanAnonymous,
			Limits: map[Feature]int64{
				FeaturePhotos:    5,
				FeatureMagicFill: 3,
				FeatureExport:    2,
			},
		},
		PlanFree: {
			Name: PlanFree,
			Limits: map[Feature]int64{
				FeaturePhotos:    50,
				FeatureMagicFill: 10,
				FeatureExport:    10,
			},
		},
		PlanPro: {
			Name: PlanPro,
			Limits: map[Feature]int64{
				FeaturePhotos:    Unlimited,
				FeatureMagicFill: Unlimited,
				FeatureExport:    Unlimited,
			},
		},
	}
}

// YAMLFileSource loads the catalog from a YAML file of the form:
//
//	plans:
//	  free:
//	    photos: 50
//	    magicFill: 10
//	    export: 10
type YAMLFileSource struct {
	Path string
}

func (s YAMLFileSource) Load(context.Context) (map[string]Plan, error) {
	raw, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("%w: read %s: %v", ErrInvalidPlanCatalog, s.Path, err)
	}

	var doc struct {
		Plans map[string]struct {
			Photos    int64 `yaml:"photos"`
			MagicFill int64 `yaml:"magicFill"`
			Export    int64 `yaml:"export"`
		} `yaml:"plans"`
	}
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: parse %s: %v", ErrInvalidPlanCatalog, s.Path, err)
	}

	plans := make(map[string]Plan, len(doc.Plans))
	for name, limits := range doc.Plans {
		plans[name] = Plan{
			Name: name,
			Limits: map[Feature]int64{
				FeaturePhotos:    limits.Photos,
				FeatureMagicFill: limits.MagicFill,
				FeatureExport:    limits.Export,
			},
		}
	}
	return plans, nil
}

// validatePlans ensures the catalog covers every plan the resolver can
// report and every metered feature, so lookups never miss at runtime.
func validatePlans(plans map[string]Plan) error {
	for _, required := range []string{PlanAnonymous, PlanFree, PlanPro} {
		plan, ok := plans[required]
		if !ok {
			return fmt.Errorf("%w: plan %q missing", ErrInvalidPlanCatalog, required)
		}
		for _, f := range []Feature{FeaturePhotos, FeatureMagicFill, FeatureExport} {
			if _, ok := plan.Limits[f]; !ok {
				return fmt.Errorf("%w: plan %q missing limit for %s", ErrInvalidPlanCatalog, required, f)
			}
		}
	}
	return nil
}
