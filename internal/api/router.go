// Package api is the saasgate HTTP surface: public plan catalog, the
// caller's entitlements, feature-gated resources and health endpoints.
package api

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
	"github.com/dmitrymomot/saasgate/pkg/httpserver"
	"github.com/dmitrymomot/saasgate/pkg/identity"
	"github.com/dmitrymomot/saasgate/pkg/ratelimiter"
	"github.com/dmitrymomot/saasgate/svc/access"
)

const readinessTimeout = 2 * time.Second

// Deps are the collaborators of the router. Access and Verifier are required.
type Deps struct {
	Access   access.Service
	Verifier identity.Verifier
	Log      *slog.Logger

	// Gatherer backs /metrics. Defaults to prometheus.DefaultGatherer.
	Gatherer prometheus.Gatherer
	// Checks are run by /health/ready.
	Checks []httpserver.Check

	// Limiter throttles /api per organization, and per client IP for public routes.
	Limiter ratelimiter.Limiter

	// Billing and BillingToken mount POST /internal/billing/events when both are set.
	Billing      BillingEvents
	BillingToken string

	// Now is the clock used for trial countdowns. Defaults to time.Now.
	Now func() time.Time
}

// NewRouter builds the HTTP handler. It panics when required deps are missing.
func NewRouter(d Deps) http.Handler {
	if d.Access == nil || d.Verifier == nil {
		panic("api: Access and Verifier are required")
	}
	if d.Log == nil {
		d.Log = slog.Default()
	}
	if d.Gatherer == nil {
		d.Gatherer = prometheus.DefaultGatherer
	}
	if d.Now == nil {
		d.Now = time.Now
	}

	h := &handlers{access: d.Access, now: d.Now}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(RequestLogger(d.Log))
	r.Use(middleware.Recoverer)

	r.NotFound(HandlerFunc(func(*http.Request) Response {
		return Error(http.StatusNotFound, "not_found", "Resource not found.")
	}).ServeHTTP)
	r.MethodNotAllowed(HandlerFunc(func(*http.Request) Response {
		return Error(http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed.")
	}).ServeHTTP)

	r.Get("/health/live", httpserver.LivenessHandler())
	r.Get("/health/ready", httpserver.ReadinessHandler(d.Log, readinessTimeout, d.Checks...))
	r.Handle("/metrics", promhttp.HandlerFor(d.Gatherer, promhttp.HandlerOpts{}))

	limit := func(key ratelimiter.KeyFunc) func(http.Handler) http.Handler {
		if d.Limiter == nil {
			return func(next http.Handler) http.Handler { return next }
		}
		return ratelimiter.Middleware(d.Limiter, key,
			ratelimiter.WithDeniedHandler(rateLimited),
			ratelimiter.WithLogger(d.Log),
		)
	}

	r.Route("/api", func(r chi.Router) {
		r.With(limit(ratelimiter.RemoteIP)).Method(http.MethodGet, "/plans", HandlerFunc(h.listPlans))

		r.Group(func(r chi.Router) {
			r.Use(identity.Middleware(d.Verifier, identity.WithErrorHandler(identityError)))
			r.Use(identity.RequireOrg(identity.WithErrorHandler(identityError)))
			r.Use(limit(ratelimiter.Prefixed("org:", orgKey)))

			r.Method(http.MethodGet, "/me", HandlerFunc(h.me))
			r.Method(http.MethodGet, "/entitlements", HandlerFunc(h.listEntitlements))
			r.Method(http.MethodGet, "/entitlements/{feature}", HandlerFunc(h.getEntitlement))
			r.Method(http.MethodGet, "/check", HandlerFunc(h.check))

			r.With(RequireFeature(d.Access, entitlement.FeatureAnalysis)).
				Method(http.MethodGet, "/analysis", h.report(analysisReport))
			r.With(RequireFeature(d.Access, entitlement.FeatureAudit)).
				Method(http.MethodGet, "/audit", h.report(auditReport))
		})
	})

	if d.Billing != nil && d.BillingToken != "" {
		bh := &billingHandler{events: d.Billing}
		r.With(RequireToken(d.BillingToken)).
			Method(http.MethodPost, "/internal/billing/events", HandlerFunc(bh.ingest))
	}

	return r
}
