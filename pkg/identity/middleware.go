package identity

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrorHandler writes the response for a rejected request.
type ErrorHandler func(w http.ResponseWriter, r *http.Request, status int, err error)

// MiddlewareOption configures Middleware and RequireOrg.
type MiddlewareOption func(*middlewareConfig)

type middlewareConfig struct {
	onError ErrorHandler
}

// WithErrorHandler replaces the default JSON error writer.
func WithErrorHandler(h ErrorHandler) MiddlewareOption {
	return func(c *middlewareConfig) {
		if h != nil {
			c.onError = h
		}
	}
}

func newMiddlewareConfig(opts []MiddlewareOption) middlewareConfig {
	c := middlewareConfig{onError: writeError}
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

// Middleware authenticates "Authorization: Bearer <token>" requests and stores
// the Identity in the request context. Failures get 401.
func Middleware(v Verifier, opts ...MiddlewareOption) func(http.Handler) http.Handler {
	if v == nil {
		panic("identity: verifier is required")
	}
	cfg := newMiddlewareConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			raw, err := BearerToken(r)
			if err != nil {
				cfg.onError(w, r, http.StatusUnauthorized, err)
				return
			}
			id, err := v.Verify(raw)
			if err != nil {
				cfg.onError(w, r, http.StatusUnauthorized, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithIdentity(r.Context(), id)))
		})
	}
}

// RequireOrg rejects authenticated callers without a selected organization
// with 403, and unauthenticated ones with 401.
func RequireOrg(opts ...MiddlewareOption) func(http.Handler) http.Handler {
	cfg := newMiddlewareConfig(opts)

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id, ok := FromContext(r.Context())
			if !ok {
				cfg.onError(w, r, http.StatusUnauthorized, ErrNotAuthenticated)
				return
			}
			if !id.HasOrg() {
				cfg.onError(w, r, http.StatusForbidden, ErrNoOrganization)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(r *http.Request) (string, error) {
	scheme, token, ok := strings.Cut(r.Header.Get("Authorization"), " ")
	if !ok || !strings.EqualFold(scheme, "Bearer") {
		return "", ErrMissingToken
	}
	token = strings.TrimSpace(token)
	if token == "" {
		return "", ErrMissingToken
	}
	return token, nil
}

// ErrorCode maps identity errors to stable API codes.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNoOrganization):
		return "organization_required"
	case errors.Is(err, ErrMissingToken), errors.Is(err, ErrNotAuthenticated):
		return "unauthenticated"
	default:
		return "invalid_token"
	}
}

func writeError(w http.ResponseWriter, _ *http.Request, status int, err error) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	if status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", `Bearer realm="saasgate"`)
	}
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(map[string]any{
		"error": map[string]string{
			"code":    ErrorCode(err),
			"message": http.StatusText(status),
		},
	})
}
