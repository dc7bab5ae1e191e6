// Package entitlement resolves whether a subscription grants access to a
// premium feature.
//
// The package is a pure lookup over a static plan catalog. Plans are built
// once at package init and never mutated, so every function here is safe for
// concurrent use without synchronization.
//
// # Plans and features
//
// Four plans exist: Business Starter, Business Standard, Enterprise and
// Pay-as-you-go. Each grants a fixed set of feature flags (analysis, audit)
// and a member limit:
//
//	plan, ok := entitlement.LookupPlan(entitlement.PlanBusinessStandard)
//	if ok && plan.Grants(entitlement.FeatureAudit) {
//		// ...
//	}
//
// # Access checks
//
// HasAccess takes anything that can report its current plan. A missing
// holder or an empty plan never grants anything:
//
//	if !entitlement.HasAccess(sub, entitlement.FeatureAnalysis) {
//		msg := "requires " + entitlement.RequiredPlanLabel(entitlement.FeatureAnalysis)
//	}
//
// # Billing attributes
//
// Billing providers expose entitlements as attributes such as "plan:enterprise"
// or "feature:analytics". HasAttribute evaluates them against the same catalog,
// so a feature attribute always agrees with HasAccess:
//
//	attr, err := entitlement.ParseAttribute("feature:analytics")
//	if err == nil && entitlement.HasAttribute(sub, attr) {
//		// same answer as HasAccess(sub, FeatureAnalysis)
//	}
package entitlement
