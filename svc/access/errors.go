package access

import "errors"

var ErrSubscriptionLookupFailed = errors.New("subscription lookup failed")
