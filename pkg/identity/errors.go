package identity

import "errors"

var (
	ErrMissingSecret    = errors.New("identity: signing secret is too short")
	ErrMissingToken     = errors.New("identity: missing bearer token")
	ErrInvalidToken     = errors.New("identity: invalid token")
	ErrMissingSubject   = errors.New("identity: token has no subject")
	ErrInvalidOrgID     = errors.New("identity: invalid org_id claim")
	ErrNotAuthenticated = errors.New("identity: not authenticated")
	ErrNoOrganization   = errors.New("identity: no organization selected")
)
