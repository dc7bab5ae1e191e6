package subscription

import (
	"time"

	"github.com/google/uuid"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
)

// Status is the billing state of a subscription.
type Status string

const (
	StatusActive            Status = "active"
	StatusTrialing          Status = "trialing"
	StatusCanceled          Status = "canceled"
	StatusPastDue           Status = "past_due"
	StatusIncomplete        Status = "incomplete"
	StatusIncompleteExpired Status = "incomplete_expired"
	StatusUnpaid            Status = "unpaid"
)

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusTrialing, StatusCanceled, StatusPastDue,
		StatusIncomplete, StatusIncompleteExpired, StatusUnpaid:
		return true
	}
	return false
}

// Subscription associates an account (organization) with at most one plan.
// An empty Plan means the account has no plan and no premium features.
type Subscription struct {
	AccountID          uuid.UUID          `json:"account_id" validate:"required"`
	Plan               entitlement.PlanID `json:"plan,omitempty" validate:"omitempty,plan"`
	Status             Status             `json:"status,omitempty" validate:"omitempty,status"`
	ProviderSubID      string             `json:"provider_sub_id,omitempty" validate:"max=255"`
	CurrentPeriodStart *time.Time         `json:"current_period_start,omitempty"`
	CurrentPeriodEnd   *time.Time         `json:"current_period_end,omitempty"`
	TrialEndsAt        *time.Time         `json:"trial_ends_at,omitempty"`
	CanceledAt         *time.Time         `json:"canceled_at,omitempty"`
	CreatedAt          time.Time          `json:"created_at"`
	UpdatedAt          time.Time          `json:"updated_at"`
}

// None is the stand-in for an account that never subscribed.
func None(accountID uuid.UUID) *Subscription {
	return &Subscription{AccountID: accountID}
}

// CurrentPlan implements entitlement.PlanHolder. Safe on a nil receiver.
func (s *Subscription) CurrentPlan() (entitlement.PlanID, bool) {
	if s == nil || s.Plan == entitlement.PlanNone {
		return entitlement.PlanNone, false
	}
	return s.Plan, true
}

// Exists reports whether the record reflects a real subscription rather
// than the "no plan" stand-in.
func (s *Subscription) Exists() bool {
	return s != nil && (s.Status != "" || s.Plan != entitlement.PlanNone || s.ProviderSubID != "")
}

func (s *Subscription) IsActive() bool {
	return s != nil && s.Status == StatusActive
}

func (s *Subscription) IsTrialing() bool {
	return s != nil && s.Status == StatusTrialing
}

func (s *Subscription) IsCanceled() bool {
	return s != nil && s.Status == StatusCanceled
}

// IsTrialExpiredAt reports whether the trial window has closed at now.
func (s *Subscription) IsTrialExpiredAt(now time.Time) bool {
	if s == nil || s.TrialEndsAt == nil {
		return false
	}
	return now.After(*s.TrialEndsAt)
}

// TrialDaysRemainingAt returns the number of days remaining in the trial at a given time.
// Returns 0 if not in trial or trial has expired.
func (s *Subscription) TrialDaysRemainingAt(now time.Time) int {
	if !s.IsTrialing() || s.TrialEndsAt == nil {
		return 0
	}

	remaining := s.TrialEndsAt.Sub(now)
	if remaining <= 0 {
		return 0
	}

	// Round partial days for display
	days := remaining.Hours() / 24
	return int(days + 0.5)
}

// Clone returns a deep copy.
func (s *Subscription) Clone() *Subscription {
	if s == nil {
		return nil
	}
	c := *s
	c.CurrentPeriodStart = cloneTime(s.CurrentPeriodStart)
	c.CurrentPeriodEnd = cloneTime(s.CurrentPeriodEnd)
	c.TrialEndsAt = cloneTime(s.TrialEndsAt)
	c.CanceledAt = cloneTime(s.CanceledAt)
	return &c
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}
