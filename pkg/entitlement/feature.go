package entitlement

import (
	"slices"
	"strings"
)

// Feature is a premium capability gated by the subscription plan.
type Feature string

const (
	FeatureAnalysis Feature = "analysis"
	FeatureAudit    Feature = "audit"
)

// features is ordered for stable output in listings.
var features = [...]Feature{FeatureAnalysis, FeatureAudit}

// featureAliases maps billing provider feature keys onto local features.
var featureAliases = map[string]Feature{
	"analysis":  FeatureAnalysis,
	"analytics": FeatureAnalysis,
	"audit":     FeatureAudit,
}

var featureTitles = map[Feature]string{
	FeatureAnalysis: "Business Analysis",
	FeatureAudit:    "Security Audit",
}

var featureCapabilities = map[Feature][]string{
	FeatureAnalysis: {
		"Revenue and growth analytics",
		"User activity monitoring",
		"Feature usage statistics",
		"Subscription health metrics",
	},
	FeatureAudit: {
		"Real-time security monitoring",
		"Compliance framework assessment",
		"Vulnerability scanning",
		"Access control auditing",
		"Data protection analysis",
	},
}

// Features returns all known features in display order.
func Features() []Feature {
	out := make([]Feature, len(features))
	copy(out, features[:])
	return out
}

// ParseFeature converts a feature name or billing alias into a Feature.
// Matching is case-insensitive and ignores surrounding whitespace.
func ParseFeature(name string) (Feature, error) {
	f, ok := featureAliases[strings.ToLower(strings.TrimSpace(name))]
	if !ok {
		return "", ErrUnknownFeature
	}
	return f, nil
}

// Valid reports whether f is one of the known features.
func (f Feature) Valid() bool {
	_, ok := featureTitles[f]
	return ok
}

// Title returns the human-readable feature name, or the raw value for unknown features.
func (f Feature) Title() string {
	if t, ok := featureTitles[f]; ok {
		return t
	}
	return string(f)
}

func (f Feature) String() string { return string(f) }

// Capabilities lists what the feature unlocks, for upsell copy.
func (f Feature) Capabilities() []string {
	return slices.Clone(featureCapabilities[f])
}
