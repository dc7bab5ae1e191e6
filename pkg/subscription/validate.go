package subscription

import (
	"errors"

	"github.com/go-playground/validator/v10"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("plan", func(fl validator.FieldLevel) bool {
		return entitlement.PlanID(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	if err := v.RegisterValidation("status", func(fl validator.FieldLevel) bool {
		return Status(fl.Field().String()).Valid()
	}); err != nil {
		panic(err)
	}
	return v
}

// Validate checks field formats and cross-field invariants.
// Active and trialing subscriptions must carry a plan; canceled ones must not.
func Validate(s *Subscription) error {
	if s == nil {
		return ErrNilSubscription
	}
	if err := validate.Struct(s); err != nil {
		return errors.Join(ErrInvalidSubscription, err)
	}
	if (s.Status == StatusActive || s.Status == StatusTrialing) && s.Plan == entitlement.PlanNone {
		return errors.Join(ErrInvalidSubscription, errors.New("status "+string(s.Status)+" requires a plan"))
	}
	if s.Status == StatusCanceled && s.Plan != entitlement.PlanNone {
		return errors.Join(ErrInvalidSubscription, errors.New("canceled subscription must not carry a plan"))
	}
	if s.CurrentPeriodStart != nil && s.CurrentPeriodEnd != nil && s.CurrentPeriodEnd.Before(*s.CurrentPeriodStart) {
		return errors.Join(ErrInvalidSubscription, errors.New("current period ends before it starts"))
	}
	return nil
}
