package subscription

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
	"github.com/dmitrymomot/saasgate/pkg/logger"
)

// EventType is a normalized billing event.
type EventType string

const (
	EventSubscriptionCreated EventType = "subscription.created"
	EventSubscriptionUpdated EventType = "subscription.updated"
	EventSubscriptionDeleted EventType = "subscription.deleted"
	EventPaymentSucceeded    EventType = "payment.succeeded"
	EventPaymentFailed       EventType = "payment.failed"
)

// Event carries the subscription state reported by the billing provider.
// Zero-valued optional fields leave the current value untouched.
type Event struct {
	Type          EventType
	AccountID     uuid.UUID
	Plan          entitlement.PlanID
	Status        Status
	ProviderSubID string
	PeriodStart   *time.Time
	PeriodEnd     *time.Time
}

// Apply computes the subscription state after ev. It never mutates current.
// A nil result with a nil error means the event does not change anything.
func Apply(current *Subscription, ev Event, now time.Time) (*Subscription, error) {
	if ev.AccountID == uuid.Nil {
		return nil, ErrMissingAccountID
	}
	now = now.UTC()

	switch ev.Type {
	case EventSubscriptionCreated:
		return applyCreated(current, ev, now)

	case EventSubscriptionUpdated:
		if !current.Exists() {
			return nil, ErrSubscriptionNotFound
		}
		if ev.Status == StatusCanceled {
			return cancel(current, now), nil
		}
		// A canceled subscription comes back only through subscription.created.
		if current.IsCanceled() {
			return nil, ErrSubscriptionCanceled
		}
		next := current.Clone()
		if ev.Plan != entitlement.PlanNone {
			if !ev.Plan.Valid() {
				return nil, fmt.Errorf("%w: %s", ErrUnknownPlan, ev.Plan)
			}
			next.Plan = ev.Plan
		}
		if ev.Status != "" {
			next.Status = ev.Status
		}
		if ev.ProviderSubID != "" {
			next.ProviderSubID = ev.ProviderSubID
		}
		setPeriod(next, ev)
		next.UpdatedAt = now
		return next, nil

	case EventSubscriptionDeleted:
		if !current.Exists() {
			return nil, ErrSubscriptionNotFound
		}
		return cancel(current, now), nil

	case EventPaymentSucceeded:
		if !current.Exists() {
			return nil, nil
		}
		next := current.Clone()
		switch next.Status {
		case StatusPastDue, StatusUnpaid, StatusIncomplete:
			if next.Plan != entitlement.PlanNone {
				next.Status = StatusActive
			}
		}
		setPeriod(next, ev)
		next.UpdatedAt = now
		return next, nil

	case EventPaymentFailed:
		if !current.Exists() || current.IsCanceled() {
			return nil, nil
		}
		next := current.Clone()
		next.Status = StatusPastDue
		next.UpdatedAt = now
		return next, nil
	}

	return nil, fmt.Errorf("%w: %s", ErrUnknownEvent, ev.Type)
}

func applyCreated(current *Subscription, ev Event, now time.Time) (*Subscription, error) {
	if current.Exists() && current.Plan != entitlement.PlanNone && !current.IsCanceled() {
		return nil, ErrSubscriptionAlreadyExists
	}
	plan, ok := entitlement.LookupPlan(ev.Plan)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPlan, ev.Plan)
	}

	next := &Subscription{
		AccountID:     ev.AccountID,
		Plan:          plan.ID,
		Status:        ev.Status,
		ProviderSubID: ev.ProviderSubID,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if current.Exists() {
		next.CreatedAt = current.CreatedAt
	}
	if next.Status == "" {
		next.Status = StatusActive
		if plan.TrialDays > 0 {
			next.Status = StatusTrialing
		}
	}
	if next.Status == StatusTrialing && plan.TrialDays > 0 {
		trialEnd := now.AddDate(0, 0, plan.TrialDays)
		next.TrialEndsAt = &trialEnd
	}
	setPeriod(next, ev)
	return next, nil
}

// cancel ends the subscription. The plan is cleared so no feature survives cancellation.
func cancel(current *Subscription, now time.Time) *Subscription {
	next := current.Clone()
	next.Plan = entitlement.PlanNone
	next.Status = StatusCanceled
	next.TrialEndsAt = nil
	next.CanceledAt = &now
	next.UpdatedAt = now
	return next
}

func setPeriod(sub *Subscription, ev Event) {
	if ev.PeriodStart != nil {
		sub.CurrentPeriodStart = cloneTime(ev.PeriodStart)
	}
	if ev.PeriodEnd != nil {
		sub.CurrentPeriodEnd = cloneTime(ev.PeriodEnd)
	}
}

// Lifecycle applies billing events to subscriptions held in a Store.
type Lifecycle struct {
	store Store
	now   func() time.Time
	log   *slog.Logger
}

// LifecycleOption configures a Lifecycle.
type LifecycleOption func(*Lifecycle)

// WithClock overrides the time source, mainly for tests.
func WithClock(now func() time.Time) LifecycleOption {
	return func(l *Lifecycle) {
		if now != nil {
			l.now = now
		}
	}
}

func WithLifecycleLogger(log *slog.Logger) LifecycleOption {
	return func(l *Lifecycle) {
		if log != nil {
			l.log = log
		}
	}
}

// NewLifecycle panics on a nil store.
func NewLifecycle(store Store, opts ...LifecycleOption) *Lifecycle {
	if store == nil {
		panic("subscription: Store is required")
	}
	l := &Lifecycle{store: store, now: time.Now, log: slog.Default()}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Handle loads the account's subscription, applies ev and saves the result.
// Returns the stored subscription, or the unchanged one for no-op events.
func (l *Lifecycle) Handle(ctx context.Context, ev Event) (*Subscription, error) {
	current, err := l.store.Get(ctx, ev.AccountID)
	if err != nil && !errors.Is(err, ErrSubscriptionNotFound) {
		return nil, err
	}

	next, err := Apply(current, ev, l.now())
	if err != nil {
		l.log.WarnContext(ctx, "billing event rejected",
			slog.String("event", string(ev.Type)),
			logger.AccountID(ev.AccountID),
			logger.Error(err))
		return nil, err
	}
	if next == nil {
		l.log.DebugContext(ctx, "billing event ignored",
			slog.String("event", string(ev.Type)),
			logger.AccountID(ev.AccountID))
		return current, nil
	}

	if err := l.store.Save(ctx, next); err != nil {
		return nil, fmt.Errorf("failed to apply %s: %w", ev.Type, err)
	}

	l.log.InfoContext(ctx, "subscription updated",
		slog.String("event", string(ev.Type)),
		logger.AccountID(next.AccountID),
		slog.String("plan", string(next.Plan)),
		slog.String("status", string(next.Status)))
	return next, nil
}
