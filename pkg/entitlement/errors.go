package entitlement

import "errors"

var (
	ErrUnknownFeature   = errors.New("unknown feature")
	ErrUnknownPlan      = errors.New("unknown subscription plan")
	ErrInvalidAttribute = errors.New("invalid billing attribute")
)
