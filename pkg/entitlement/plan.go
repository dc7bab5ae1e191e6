package entitlement

import (
	"slices"
	"strings"
)

// PlanID identifies a subscription plan. The empty PlanID means "no plan".
type PlanID string

const (
	PlanNone             PlanID = ""
	PlanBusinessStarter  PlanID = "business_starter"
	PlanBusinessStandard PlanID = "business_standard"
	PlanEnterprise       PlanID = "enterprise"
	PlanPayAsYouGo       PlanID = "pay_as_you_go"
)

// Unlimited marks a limit without an upper bound (-1 chosen for SQL compatibility).
const Unlimited int64 = -1

// Money is an amount in the smallest currency unit.
type Money struct {
	Amount   int64  `json:"amount"`
	Currency string `json:"currency"`
}

// BillingInterval describes how a plan is charged.
type BillingInterval string

const (
	IntervalMonthly BillingInterval = "monthly"
	IntervalUsage   BillingInterval = "usage" // prepaid credit packs
)

// Tier orders plans for "or higher" comparisons.
// TierNone is used by plans that sit outside the upgrade ladder.
type Tier int

const (
	TierNone Tier = iota
	TierStarter
	TierStandard
	TierEnterprise
)

// Plan is a static subscription tier with fixed entitlements.
type Plan struct {
	ID         PlanID          `json:"id"`
	Name       string          `json:"name"`
	PriceID    string          `json:"price_id"` // billing provider price identifier
	Price      Money           `json:"price"`
	Interval   BillingInterval `json:"interval"`
	TrialDays  int             `json:"trial_days"`
	Tier       Tier            `json:"tier"`
	MaxMembers int64           `json:"max_members"` // Unlimited for no cap
	Features   []Feature       `json:"features"`
	Highlights []string        `json:"highlights"`
}

// Grants reports whether the plan enables the feature.
func (p Plan) Grants(f Feature) bool {
	return slices.Contains(p.Features, f)
}

// AllowsMembers reports whether n members fit into the plan's member limit.
func (p Plan) AllowsMembers(n int64) bool {
	return p.MaxMembers == Unlimited || n <= p.MaxMembers
}

func (p Plan) clone() Plan {
	p.Features = slices.Clone(p.Features)
	p.Highlights = slices.Clone(p.Highlights)
	return p
}

// catalog is populated once at init and read-only afterwards.
var (
	catalog     map[PlanID]Plan
	catalogList []PlanID
	byPriceID   map[string]PlanID
)

func init() {
	plans := []Plan{
		{
			ID:         PlanBusinessStarter,
			Name:       "Business Starter",
			PriceID:    "price_1RzWnWJjIu4ndWVgrLUHUViC",
			Price:      Money{Amount: 1900, Currency: "USD"},
			Interval:   IntervalMonthly,
			TrialDays:  30,
			Tier:       TierStarter,
			MaxMembers: Unlimited,
			Features:   []Feature{FeatureAnalysis},
			Highlights: []string{"Core features", "Analysis tools", "Email support"},
		},
		{
			ID:         PlanBusinessStandard,
			Name:       "Business Standard",
			PriceID:    "price_1RzWnkJjIu4ndWVgei9aei6i",
			Price:      Money{Amount: 3900, Currency: "USD"},
			Interval:   IntervalMonthly,
			TrialDays:  30,
			Tier:       TierStandard,
			MaxMembers: Unlimited,
			Features:   []Feature{FeatureAnalysis, FeatureAudit},
			Highlights: []string{"Everything in Starter", "Security audit", "Priority support"},
		},
		{
			ID:         PlanEnterprise,
			Name:       "Enterprise",
			PriceID:    "price_1RzWnwJjIu4ndWVgAwFRleqP",
			Price:      Money{Amount: 9900, Currency: "USD"},
			Interval:   IntervalMonthly,
			TrialDays:  30,
			Tier:       TierEnterprise,
			MaxMembers: Unlimited,
			Features:   []Feature{FeatureAnalysis, FeatureAudit},
			Highlights: []string{"Everything in Standard", "Custom integrations", "Dedicated support"},
		},
		{
			ID:         PlanPayAsYouGo,
			Name:       "Pay-as-you-go",
			PriceID:    "price_1RzWo8JjIu4ndWVgtvTlKP6O",
			Price:      Money{Amount: 1000, Currency: "USD"},
			Interval:   IntervalUsage,
			Tier:       TierNone,
			MaxMembers: 5,
			Highlights: []string{"No monthly commitment", "Maximum 5 members", "Basic features"},
		},
	}

	catalog = make(map[PlanID]Plan, len(plans))
	byPriceID = make(map[string]PlanID, len(plans))
	catalogList = make([]PlanID, 0, len(plans))
	for _, p := range plans {
		catalog[p.ID] = p
		byPriceID[p.PriceID] = p.ID
		catalogList = append(catalogList, p.ID)
	}
}

// LookupPlan returns a copy of the plan with the given id.
func LookupPlan(id PlanID) (Plan, bool) {
	p, ok := catalog[id]
	if !ok {
		return Plan{}, false
	}
	return p.clone(), true
}

// PlanByPriceID maps a billing provider price identifier to a plan.
func PlanByPriceID(priceID string) (Plan, bool) {
	id, ok := byPriceID[priceID]
	if !ok {
		return Plan{}, false
	}
	return LookupPlan(id)
}

// ParsePlanID validates a plan identifier. Matching is case-insensitive.
func ParsePlanID(s string) (PlanID, error) {
	id := PlanID(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := catalog[id]; !ok {
		return PlanNone, ErrUnknownPlan
	}
	return id, nil
}

// Plans returns copies of all plans in catalog order.
func Plans() []Plan {
	out := make([]Plan, 0, len(catalogList))
	for _, id := range catalogList {
		out = append(out, catalog[id].clone())
	}
	return out
}

// Valid reports whether id names a plan in the catalog.
func (id PlanID) Valid() bool {
	_, ok := catalog[id]
	return ok
}

func (id PlanID) String() string { return string(id) }
