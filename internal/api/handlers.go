package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
	"github.com/dmitrymomot/saasgate/pkg/identity"
	"github.com/dmitrymomot/saasgate/pkg/subscription"
	"github.com/dmitrymomot/saasgate/svc/access"
)

type handlers struct {
	access access.Service
	now    func() time.Time
}

func (h *handlers) listPlans(*http.Request) Response {
	plans := entitlement.Plans()
	return JSON(plans, WithMeta("count", len(plans)))
}

type subscriptionView struct {
	Plan               entitlement.PlanID  `json:"plan,omitempty"`
	PlanName           string              `json:"plan_name,omitempty"`
	Status             subscription.Status `json:"status,omitempty"`
	TrialDaysRemaining int                 `json:"trial_days_remaining"`
	TrialExpired       bool                `json:"trial_expired"`
	CurrentPeriodEnd   *time.Time          `json:"current_period_end,omitempty"`
}

type meView struct {
	UserID       string                `json:"user_id"`
	OrgID        string                `json:"org_id"`
	Subscription subscriptionView      `json:"subscription"`
	Features     []entitlement.Feature `json:"features"` // unlocked features only
	Entitlements []access.Decision     `json:"entitlements"`
}

// me is the dashboard view: who the caller is, what they pay for and what it unlocks.
func (h *handlers) me(r *http.Request) Response {
	id, _ := identity.FromContext(r.Context())
	sub, err := h.access.Subscription(r.Context(), id.OrgID)
	if err != nil {
		return subscriptionUnavailable()
	}

	now := h.now()
	view := subscriptionView{
		Plan:               sub.Plan,
		Status:             sub.Status,
		TrialDaysRemaining: sub.TrialDaysRemainingAt(now),
		TrialExpired:       sub.IsTrialing() && sub.IsTrialExpiredAt(now),
		CurrentPeriodEnd:   sub.CurrentPeriodEnd,
	}
	if plan, ok := entitlement.LookupPlan(sub.Plan); ok {
		view.PlanName = plan.Name
	}

	features := entitlement.FeaturesFor(sub)
	if features == nil {
		features = []entitlement.Feature{}
	}

	return JSON(meView{
		UserID:       id.UserID,
		OrgID:        id.OrgID.String(),
		Subscription: view,
		Features:     features,
		Entitlements: h.access.Entitlements(r.Context(), id.OrgID),
	})
}

func (h *handlers) listEntitlements(r *http.Request) Response {
	orgID, _ := identity.OrgIDFromContext(r.Context())
	return JSON(h.access.Entitlements(r.Context(), orgID))
}

func (h *handlers) getEntitlement(r *http.Request) Response {
	f, err := entitlement.ParseFeature(chi.URLParam(r, "feature"))
	if err != nil {
		return Error(http.StatusNotFound, "unknown_feature", "Unknown feature.")
	}
	orgID, _ := identity.OrgIDFromContext(r.Context())
	return JSON(h.access.Decide(r.Context(), orgID, f))
}

// check evaluates billing attributes passed as ?attr=plan:enterprise&attr=feature:analytics.
func (h *handlers) check(r *http.Request) Response {
	raw := r.URL.Query()["attr"]
	if len(raw) == 0 {
		return ValidationError(map[string][]string{"attr": {"at least one attribute is required"}})
	}

	orgID, _ := identity.OrgIDFromContext(r.Context())
	result := make(map[string]bool, len(raw))
	for _, s := range raw {
		attr, err := entitlement.ParseAttribute(s)
		if err != nil {
			return ValidationError(map[string][]string{"attr": {err.Error()}})
		}
		result[attr.String()] = h.access.Has(r.Context(), orgID, attr)
	}
	return JSON(result)
}

func (h *handlers) report(rep report) HandlerFunc {
	return func(r *http.Request) Response {
		var opts []ResponseOption
		if d, ok := DecisionFromContext(r.Context()); ok {
			opts = append(opts, WithMeta("plan", d.Plan))
		}
		return JSON(rep, opts...)
	}
}

// BillingEvents applies normalized billing events.
type BillingEvents interface {
	Handle(ctx context.Context, ev subscription.Event) (*subscription.Subscription, error)
}

type billingHandler struct {
	events BillingEvents
}

func (h *billingHandler) ingest(r *http.Request) Response {
	var req billingEventRequest
	if resp := decodeAndValidate(r, &req); resp != nil {
		return resp
	}

	ev, err := req.event()
	if err != nil {
		return ValidationError(map[string][]string{"plan": {err.Error()}})
	}

	sub, err := h.events.Handle(r.Context(), ev)
	switch {
	case err == nil:
		return JSON(sub)
	case errors.Is(err, subscription.ErrSubscriptionAlreadyExists):
		return Error(http.StatusConflict, "subscription_exists", "The account already has a live subscription.")
	case errors.Is(err, subscription.ErrSubscriptionCanceled):
		return Error(http.StatusConflict, "subscription_canceled", "The subscription is canceled; re-subscribe to change plans.")
	case errors.Is(err, subscription.ErrSubscriptionNotFound):
		return Error(http.StatusNotFound, "subscription_not_found", "The account has no subscription.")
	case errors.Is(err, subscription.ErrUnknownPlan),
		errors.Is(err, subscription.ErrUnknownEvent),
		errors.Is(err, subscription.ErrInvalidSubscription):
		return Error(http.StatusUnprocessableEntity, "invalid_event", err.Error())
	case errors.Is(err, subscription.ErrReadOnlyStore):
		return Error(http.StatusServiceUnavailable, "store_read_only", "Subscriptions are not persisted in this deployment.")
	default:
		return Error(http.StatusInternalServerError, "internal_error", "Failed to apply billing event.")
	}
}
