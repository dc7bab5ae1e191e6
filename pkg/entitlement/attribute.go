package entitlement

import (
	"fmt"
	"strings"
)

// AttributeKind is the namespace of a billing attribute.
type AttributeKind string

const (
	AttributePlan    AttributeKind = "plan"
	AttributeFeature AttributeKind = "feature"
)

// Attribute is a billing-provider style entitlement query, such as
// "plan:business_standard" or "feature:analytics".
type Attribute struct {
	Kind AttributeKind
	Name string
}

// PlanAttribute builds a plan attribute.
func PlanAttribute(id PlanID) Attribute {
	return Attribute{Kind: AttributePlan, Name: string(id)}
}

// FeatureAttribute builds a feature attribute.
func FeatureAttribute(name string) Attribute {
	return Attribute{Kind: AttributeFeature, Name: name}
}

// ParseAttribute parses "kind:name". Whitespace around either part is ignored.
func ParseAttribute(s string) (Attribute, error) {
	kind, name, ok := strings.Cut(s, ":")
	kind = strings.ToLower(strings.TrimSpace(kind))
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return Attribute{}, fmt.Errorf("%w: %q", ErrInvalidAttribute, s)
	}
	switch AttributeKind(kind) {
	case AttributePlan, AttributeFeature:
		return Attribute{Kind: AttributeKind(kind), Name: name}, nil
	default:
		return Attribute{}, fmt.Errorf("%w: unsupported kind %q", ErrInvalidAttribute, kind)
	}
}

func (a Attribute) String() string {
	return string(a.Kind) + ":" + a.Name
}

// HasAttribute evaluates a billing attribute against the holder's plan.
// Plan attributes match the current plan exactly. Feature attributes resolve
// provider aliases and then defer to HasAccess, so both checks never diverge.
func HasAttribute(holder PlanHolder, a Attribute) bool {
	switch a.Kind {
	case AttributePlan:
		plan, ok := currentPlan(holder)
		if !ok {
			return false
		}
		return strings.EqualFold(string(plan.ID), a.Name)
	case AttributeFeature:
		f, err := ParseFeature(a.Name)
		if err != nil {
			return false
		}
		return HasAccess(holder, f)
	default:
		return false
	}
}
