// Package subscription models an account's subscription to a plan and its
// lifecycle across billing events.
//
// A Subscription links an account (organization) to at most one
// entitlement.PlanID plus a billing status and period boundaries. It
// implements entitlement.PlanHolder, so it can be passed directly to
// entitlement.HasAccess:
//
//	sub, err := store.Get(ctx, accountID)
//	if err == nil && entitlement.HasAccess(sub, entitlement.FeatureAudit) {
//		// ...
//	}
//
// # Stores
//
// Store is a two-method persistence interface keyed by account ID. The
// package ships four implementations:
//
//   - NoPlanStore: reports every account as having no plan (the default)
//   - MemoryStore: in-process map, for tests and local development
//   - PostgresStore: pgx-backed upsert into the subscriptions table
//   - CachedStore: read-through Redis cache around any other Store
//
// All writable stores run Validate before saving.
//
// # Lifecycle
//
// Billing events are normalized into Event values and applied with Apply
// (pure) or Lifecycle.Handle (load, apply, save):
//
//	lc := subscription.NewLifecycle(store)
//	_, err := lc.Handle(ctx, subscription.Event{
//		Type:      subscription.EventSubscriptionCreated,
//		AccountID: orgID,
//		Plan:      entitlement.PlanBusinessStarter,
//	})
//
// Creation starts a trial when the plan has trial days. Payment failures move
// the subscription to past_due. Deletion clears the plan so no premium
// feature survives cancellation.
package subscription
