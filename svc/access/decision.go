package access

import "github.com/dmitrymomot/saasgate/pkg/entitlement"

// Decision explains the outcome of a feature check.
type Decision struct {
	Feature      entitlement.Feature `json:"feature"`
	Title        string              `json:"title"`
	Allowed      bool                `json:"allowed"`
	Plan         entitlement.PlanID  `json:"plan,omitempty"` // current plan, empty when none
	RequiredPlan string              `json:"required_plan"`  // e.g. "Business Starter or higher"

	// Unavailable is set when the subscription could not be loaded and the
	// decision was denied for that reason.
	Unavailable bool `json:"-"`
}

func newDecision(holder entitlement.PlanHolder, f entitlement.Feature) Decision {
	d := Decision{
		Feature:      f,
		Title:        f.Title(),
		Allowed:      entitlement.HasAccess(holder, f),
		RequiredPlan: entitlement.RequiredPlanLabel(f),
	}
	if holder != nil {
		d.Plan, _ = holder.CurrentPlan()
	}
	return d
}
