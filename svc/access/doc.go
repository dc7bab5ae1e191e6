// Package access is the single authorization surface of saasgate. It loads an
// organization's subscription from a subscription.Store and resolves feature
// and billing-attribute checks through the static plan table in
// pkg/entitlement, so every gated surface gets the same answer.
//
// Lookups fail closed: if the store errors, the caller is denied and the
// failure is logged and counted.
//
//	svc := access.NewService(store,
//		access.WithLogger(log),
//		access.WithMetrics(prometheus.DefaultRegisterer),
//	)
//	if !svc.HasAccess(ctx, orgID, entitlement.FeatureAudit) {
//		d := svc.Decide(ctx, orgID, entitlement.FeatureAudit)
//		// render upsell using d.RequiredPlan
//	}
package access
