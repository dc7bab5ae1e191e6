package api

import (
	"context"
	"crypto/subtle"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
	"github.com/dmitrymomot/saasgate/pkg/identity"
	"github.com/dmitrymomot/saasgate/pkg/logger"
	"github.com/dmitrymomot/saasgate/pkg/ratelimiter"
	"github.com/dmitrymomot/saasgate/svc/access"
)

// RequireFeature lets the request through only when the caller's organization
// is entitled to f. Denied requests get 402 with the upsell details, or 503
// when the subscription could not be loaded.
// Must run after identity.RequireOrg.
func RequireFeature(svc access.Service, f entitlement.Feature) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			orgID, ok := identity.OrgIDFromContext(r.Context())
			if !ok {
				render(w, r, Error(http.StatusForbidden, "organization_required", "Select an organization to continue."))
				return
			}

			d := svc.Decide(r.Context(), orgID, f)
			if d.Unavailable {
				render(w, r, subscriptionUnavailable())
				return
			}
			if !d.Allowed {
				render(w, r, upgradeRequired(d))
				return
			}
			next.ServeHTTP(w, r.WithContext(withDecision(r.Context(), d)))
		})
	}
}

func subscriptionUnavailable() Response {
	return Error(http.StatusServiceUnavailable, "subscription_unavailable", "Subscription data is temporarily unavailable.")
}

func upgradeRequired(d access.Decision) Response {
	return Error(http.StatusPaymentRequired, "upgrade_required",
		fmt.Sprintf("Access to %s requires %s.", d.Title, d.RequiredPlan),
		WithMeta("feature", d.Feature),
		WithMeta("required_plan", d.RequiredPlan),
		WithMeta("current_plan", d.Plan),
		WithMeta("capabilities", d.Feature.Capabilities()),
		WithMeta("pricing_url", "/api/plans"),
	)
}

type decisionKey struct{}

func withDecision(ctx context.Context, d access.Decision) context.Context {
	return context.WithValue(ctx, decisionKey{}, d)
}

// DecisionFromContext returns the decision that admitted the request.
func DecisionFromContext(ctx context.Context) (access.Decision, bool) {
	d, ok := ctx.Value(decisionKey{}).(access.Decision)
	return d, ok
}

// RequireToken guards internal endpoints with a static bearer token.
func RequireToken(token string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			got, err := identity.BearerToken(r)
			if err != nil || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
				render(w, r, Error(http.StatusUnauthorized, "unauthenticated", "Invalid or missing token."))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequestLogger logs one line per request after it completes.
func RequestLogger(log *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			defer func() {
				level := slog.LevelInfo
				switch {
				case ww.Status() >= http.StatusInternalServerError:
					level = slog.LevelError
				case ww.Status() >= http.StatusBadRequest:
					level = slog.LevelWarn
				}
				log.LogAttrs(r.Context(), level, "http request",
					slog.String("method", r.Method),
					slog.String("path", r.URL.Path),
					slog.Int("status", ww.Status()),
					slog.Int("bytes", ww.BytesWritten()),
					slog.Duration("duration", time.Since(start)),
					slog.String("remote_ip", r.RemoteAddr),
				)
			}()
			next.ServeHTTP(ww, r)
		})
	}
}

// RequestIDExtractor adds chi's request id to log records.
func RequestIDExtractor() logger.ContextExtractor {
	return func(ctx context.Context) (slog.Attr, bool) {
		if id := middleware.GetReqID(ctx); id != "" {
			return slog.String("request_id", id), true
		}
		return slog.Attr{}, false
	}
}

// identityError writes identity middleware failures in the API envelope.
func identityError(w http.ResponseWriter, r *http.Request, status int, err error) {
	message := "Authentication required."
	if status == http.StatusForbidden {
		message = "Select an organization to continue."
	} else {
		w.Header().Set("WWW-Authenticate", `Bearer realm="saasgate"`)
	}
	render(w, r, Error(status, identity.ErrorCode(err), message))
}

func orgKey(r *http.Request) string {
	if id, ok := identity.OrgIDFromContext(r.Context()); ok {
		return id.String()
	}
	return ""
}

func rateLimited(w http.ResponseWriter, r *http.Request, res ratelimiter.Result) {
	render(w, r, Error(http.StatusTooManyRequests, "rate_limited", "Too many requests, slow down.",
		WithMeta("limit", res.Limit),
		WithMeta("reset_at", res.ResetAt.UTC()),
	))
}
