package identity

import (
	"context"
	"log/slog"

	"github.com/google/uuid"
)

// Identity is the authenticated caller. OrgID is uuid.Nil until the user
// picks an organization.
type Identity struct {
	UserID string    `json:"user_id"`
	OrgID  uuid.UUID `json:"org_id"`
}

// HasOrg reports whether an organization is selected.
func (i Identity) HasOrg() bool {
	return i.OrgID != uuid.Nil
}

type contextKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, contextKey{}, id)
}

func FromContext(ctx context.Context) (Identity, bool) {
	id, ok := ctx.Value(contextKey{}).(Identity)
	return id, ok
}

// OrgIDFromContext returns the selected organization, if any.
func OrgIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := FromContext(ctx)
	if !ok || !id.HasOrg() {
		return uuid.Nil, false
	}
	return id.OrgID, true
}

// LoggerExtractor enriches log records with the caller's user and org ids.
func LoggerExtractor() func(ctx context.Context) (slog.Attr, bool) {
	return func(ctx context.Context) (slog.Attr, bool) {
		id, ok := FromContext(ctx)
		if !ok {
			return slog.Attr{}, false
		}
		attrs := []any{slog.String("user_id", id.UserID)}
		if id.HasOrg() {
			attrs = append(attrs, slog.String("org_id", id.OrgID.String()))
		}
		return slog.Group("identity", attrs...), true
	}
}
