package entitlement

// UnknownPlanLabel is returned by RequiredPlanLabel for features outside the catalog.
const UnknownPlanLabel = "Unknown"

// PlanHolder is anything that can report the plan it is currently on.
// An empty PlanID or ok == false both mean "no plan".
type PlanHolder interface {
	CurrentPlan() (PlanID, bool)
}

// PlanOf adapts a bare PlanID into a PlanHolder.
type PlanOf PlanID

func (p PlanOf) CurrentPlan() (PlanID, bool) {
	return PlanID(p), p != PlanOf(PlanNone)
}

// HasAccess reports whether the holder's plan grants the feature.
// Fails closed: no holder, no plan, an unknown plan or an unknown feature all
// return false.
func HasAccess(holder PlanHolder, f Feature) bool {
	plan, ok := currentPlan(holder)
	if !ok {
		return false
	}
	return plan.Grants(f)
}

// RequiredPlanLabel names the minimum plan tier that grants the feature,
// e.g. "Business Starter or higher". Unknown features yield UnknownPlanLabel.
func RequiredPlanLabel(f Feature) string {
	plan, ok := MinimumPlan(f)
	if !ok {
		return UnknownPlanLabel
	}
	return plan.Name + " or higher"
}

// MinimumPlan returns the lowest tier on the upgrade ladder that grants f.
// Plans outside the ladder (TierNone) are never considered.
func MinimumPlan(f Feature) (Plan, bool) {
	var (
		best  Plan
		found bool
	)
	for _, id := range catalogList {
		p := catalog[id]
		if p.Tier == TierNone || !p.Grants(f) {
			continue
		}
		if !found || p.Tier < best.Tier {
			best, found = p, true
		}
	}
	if !found {
		return Plan{}, false
	}
	return best.clone(), true
}

// FeaturesFor lists the features the holder has access to, in display order.
func FeaturesFor(holder PlanHolder) []Feature {
	plan, ok := currentPlan(holder)
	if !ok {
		return nil
	}
	out := make([]Feature, 0, len(features))
	for _, f := range features {
		if plan.Grants(f) {
			out = append(out, f)
		}
	}
	return out
}

func currentPlan(holder PlanHolder) (Plan, bool) {
	if holder == nil {
		return Plan{}, false
	}
	id, ok := holder.CurrentPlan()
	if !ok || id == PlanNone {
		return Plan{}, false
	}
	plan, ok := catalog[id]
	return plan, ok
}
