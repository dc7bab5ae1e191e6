package subscription

import "errors"

var (
	ErrSubscriptionNotFound      = errors.New("subscription not found")
	ErrSubscriptionAlreadyExists = errors.New("subscription already exists")
	ErrSubscriptionCanceled      = errors.New("subscription is canceled")
	ErrInvalidSubscription       = errors.New("invalid subscription")
	ErrNilSubscription           = errors.New("subscription is nil")
	ErrMissingAccountID          = errors.New("account ID is required")
	ErrUnknownPlan               = errors.New("unknown subscription plan")
	ErrUnknownEvent              = errors.New("unknown subscription event")
	ErrReadOnlyStore             = errors.New("subscription store is read-only")

	ErrFailedToLoadSubscription = errors.New("failed to load subscription")
	ErrFailedToSaveSubscription = errors.New("failed to save subscription")
)
