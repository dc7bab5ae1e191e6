package access

import (
	"context"
	"errors"
	"log/slog"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
	"github.com/dmitrymomot/saasgate/pkg/logger"
	"github.com/dmitrymomot/saasgate/pkg/subscription"
)

// Service answers every entitlement question for an organization.
// Feature checks and billing-attribute checks share one code path.
type Service interface {
	// Subscription returns the organization's subscription, or the "no plan"
	// stand-in when none exists.
	Subscription(ctx context.Context, accountID uuid.UUID) (*subscription.Subscription, error)

	// HasAccess reports whether the organization's plan grants the feature.
	HasAccess(ctx context.Context, accountID uuid.UUID, f entitlement.Feature) bool

	// Has evaluates a billing attribute such as "plan:enterprise" or "feature:analytics".
	Has(ctx context.Context, accountID uuid.UUID, attr entitlement.Attribute) bool

	// Decide returns the access decision together with the upsell label.
	Decide(ctx context.Context, accountID uuid.UUID, f entitlement.Feature) Decision

	// Entitlements returns a decision for every known feature, in display order.
	Entitlements(ctx context.Context, accountID uuid.UUID) []Decision
}

type service struct {
	store      subscription.Store
	log        *slog.Logger
	registerer prometheus.Registerer
	metrics    *metrics
}

// NewService panics on a nil store to fail fast during wiring.
func NewService(store subscription.Store, opts ...Option) Service {
	if store == nil {
		panic("access: subscription store is required")
	}
	s := &service{
		store: store,
		log:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.metrics = newMetrics(s.registerer)
	return s
}

func (s *service) Subscription(ctx context.Context, accountID uuid.UUID) (*subscription.Subscription, error) {
	sub, err := s.store.Get(ctx, accountID)
	if err == nil {
		return sub, nil
	}
	if errors.Is(err, subscription.ErrSubscriptionNotFound) {
		return subscription.None(accountID), nil
	}

	s.metrics.lookupErrors.Inc()
	s.log.ErrorContext(ctx, "subscription lookup failed",
		logger.AccountID(accountID),
		logger.Error(err))
	return nil, errors.Join(ErrSubscriptionLookupFailed, err)
}

func (s *service) HasAccess(ctx context.Context, accountID uuid.UUID, f entitlement.Feature) bool {
	return s.Decide(ctx, accountID, f).Allowed
}

func (s *service) Has(ctx context.Context, accountID uuid.UUID, attr entitlement.Attribute) bool {
	if attr.Kind == entitlement.AttributeFeature {
		f, err := entitlement.ParseFeature(attr.Name)
		if err != nil {
			return false
		}
		return s.HasAccess(ctx, accountID, f)
	}

	sub, err := s.Subscription(ctx, accountID)
	if err != nil {
		return false
	}
	return entitlement.HasAttribute(sub, attr)
}

func (s *service) Decide(ctx context.Context, accountID uuid.UUID, f entitlement.Feature) Decision {
	holder, ok := s.holder(ctx, accountID)
	d := newDecision(holder, f)
	d.Unavailable = !ok
	s.record(ctx, accountID, d)
	return d
}

func (s *service) Entitlements(ctx context.Context, accountID uuid.UUID) []Decision {
	holder, ok := s.holder(ctx, accountID)
	features := entitlement.Features()
	out := make([]Decision, 0, len(features))
	for _, f := range features {
		d := newDecision(holder, f)
		d.Unavailable = !ok
		s.record(ctx, accountID, d)
		out = append(out, d)
	}
	return out
}

// holder returns a nil holder and false on lookup failure so every check denies.
func (s *service) holder(ctx context.Context, accountID uuid.UUID) (entitlement.PlanHolder, bool) {
	sub, err := s.Subscription(ctx, accountID)
	if err != nil {
		return nil, false
	}
	return sub, true
}

func (s *service) record(ctx context.Context, accountID uuid.UUID, d Decision) {
	s.metrics.observe(d)
	s.log.DebugContext(ctx, "entitlement decision",
		logger.AccountID(accountID),
		slog.String("feature", string(d.Feature)),
		slog.Bool("allowed", d.Allowed),
		slog.String("plan", string(d.Plan)))
}
