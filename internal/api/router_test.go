package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/saasgate/internal/api"
	"github.com/dmitrymomot/saasgate/pkg/entitlement"
	"github.com/dmitrymomot/saasgate/pkg/httpserver"
	"github.com/dmitrymomot/saasgate/pkg/identity"
	"github.com/dmitrymomot/saasgate/pkg/ratelimiter"
	"github.com/dmitrymomot/saasgate/pkg/subscription"
	"github.com/dmitrymomot/saasgate/svc/access"
)

var (
	quietLog = slog.New(slog.NewTextHandler(io.Discard, nil))
	fixedNow = time.Date(2025, 9, 1, 12, 0, 0, 0, time.UTC)
	secret   = []byte("0123456789abcdef0123456789abcdef")
)

type envelope struct {
	Data  json.RawMessage `json:"data"`
	Meta  map[string]any  `json:"meta"`
	Error *struct {
		Code    string              `json:"code"`
		Message string              `json:"message"`
		Details map[string][]string `json:"details"`
	} `json:"error"`
}

type fixture struct {
	handler http.Handler
	tokens  *identity.Tokens
	store   *subscription.MemoryStore
	reg     *prometheus.Registry
}

func newFixture(t *testing.T, subs ...*subscription.Subscription) *fixture {
	t.Helper()
	tokens, err := identity.NewTokens(secret)
	require.NoError(t, err)

	store := subscription.NewMemoryStore(subs...)
	reg := prometheus.NewRegistry()
	svc := access.NewService(store, access.WithLogger(quietLog), access.WithMetrics(reg))

	return &fixture{
		handler: api.NewRouter(api.Deps{
			Access:       svc,
			Verifier:     tokens,
			Log:          quietLog,
			Gatherer:     reg,
			Billing:      subscription.NewLifecycle(store, subscription.WithClock(func() time.Time { return fixedNow })),
			BillingToken: "billing-secret",
			Now:          func() time.Time { return fixedNow },
		}),
		tokens: tokens,
		store:  store,
		reg:    reg,
	}
}

func (f *fixture) token(t *testing.T, orgID uuid.UUID) string {
	t.Helper()
	raw, err := f.tokens.Issue(identity.Identity{UserID: "user_1", OrgID: orgID})
	require.NoError(t, err)
	return raw
}

func (f *fixture) do(t *testing.T, method, path, token string, body io.Reader) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, body)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	}
	return rec, env
}

func onPlan(plan entitlement.PlanID) *subscription.Subscription {
	return &subscription.Subscription{
		AccountID: uuid.New(),
		Plan:      plan,
		Status:    subscription.StatusActive,
		CreatedAt: fixedNow,
		UpdatedAt: fixedNow,
	}
}

func TestPlans(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, env := f.do(t, http.MethodGet, "/api/plans", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var plans []entitlement.Plan
	require.NoError(t, json.Unmarshal(env.Data, &plans))
	require.Len(t, plans, 4)
	assert.Equal(t, entitlement.PlanBusinessStarter, plans[0].ID)
	assert.EqualValues(t, 4, env.Meta["count"])
}

func TestAuthentication(t *testing.T) {
	t.Parallel()

	f := newFixture(t)

	t.Run("missing token is rejected", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/entitlements", "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "unauthenticated", env.Error.Code)
	})

	t.Run("invalid token is rejected", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/entitlements", "nope", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, "invalid_token", env.Error.Code)
	})

	t.Run("token without organization is forbidden", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/analysis", f.token(t, uuid.Nil), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, "organization_required", env.Error.Code)
	})
}

func TestFeatureGates(t *testing.T) {
	t.Parallel()

	starter := onPlan(entitlement.PlanBusinessStarter)
	standard := onPlan(entitlement.PlanBusinessStandard)
	payg := onPlan(entitlement.PlanPayAsYouGo)
	f := newFixture(t, starter, standard, payg)

	tests := []struct {
		name   string
		org    uuid.UUID
		path   string
		status int
	}{
		{"starter can open analysis", starter.AccountID, "/api/analysis", http.StatusOK},
		{"starter cannot open audit", starter.AccountID, "/api/audit", http.StatusPaymentRequired},
		{"standard can open audit", standard.AccountID, "/api/audit", http.StatusOK},
		{"pay as you go cannot open analysis", payg.AccountID, "/api/analysis", http.StatusPaymentRequired},
		{"organization without plan cannot open analysis", uuid.New(), "/api/analysis", http.StatusPaymentRequired},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			rec, _ := f.do(t, http.MethodGet, tt.path, f.token(t, tt.org), nil)
			assert.Equal(t, tt.status, rec.Code)
		})
	}

	t.Run("denied request carries the upsell", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/audit", f.token(t, starter.AccountID), nil)
		require.Equal(t, http.StatusPaymentRequired, rec.Code)
		require.NotNil(t, env.Error)
		assert.Equal(t, "upgrade_required", env.Error.Code)
		assert.Equal(t, "Access to Security Audit requires Business Standard or higher.", env.Error.Message)
		assert.Equal(t, "Business Standard or higher", env.Meta["required_plan"])
		assert.Equal(t, "business_starter", env.Meta["current_plan"])
		assert.NotEmpty(t, env.Meta["capabilities"])
	})

	t.Run("granted request returns the report", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/analysis", f.token(t, starter.AccountID), nil)
		require.Equal(t, http.StatusOK, rec.Code)
		var rep struct {
			Title   string `json:"title"`
			Metrics []any  `json:"metrics"`
		}
		require.NoError(t, json.Unmarshal(env.Data, &rep))
		assert.Equal(t, "Business Analysis", rep.Title)
		assert.Len(t, rep.Metrics, 4)
		assert.Equal(t, "business_starter", env.Meta["plan"])
	})
}

func TestEntitlements(t *testing.T) {
	t.Parallel()

	starter := onPlan(entitlement.PlanBusinessStarter)
	f := newFixture(t, starter)
	token := f.token(t, starter.AccountID)

	t.Run("lists every feature", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/entitlements", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got []access.Decision
		require.NoError(t, json.Unmarshal(env.Data, &got))
		require.Len(t, got, 2)
		assert.True(t, got[0].Allowed)
		assert.False(t, got[1].Allowed)
		assert.Equal(t, "Business Standard or higher", got[1].RequiredPlan)
	})

	t.Run("resolves a single feature by alias", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/entitlements/analytics", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got access.Decision
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, entitlement.FeatureAnalysis, got.Feature)
		assert.True(t, got.Allowed)
	})

	t.Run("unknown feature is not found", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/entitlements/export", token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "unknown_feature", env.Error.Code)
	})

	t.Run("checks billing attributes", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/check?attr=plan:business_starter&attr=feature:analytics&attr=plan:enterprise", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var got map[string]bool
		require.NoError(t, json.Unmarshal(env.Data, &got))
		assert.Equal(t, map[string]bool{
			"plan:business_starter": true,
			"feature:analytics":     true,
			"plan:enterprise":       false,
		}, got)
	})

	t.Run("malformed attribute is a validation error", func(t *testing.T) {
		t.Parallel()
		rec, env := f.do(t, http.MethodGet, "/api/check?attr=role:admin", token, nil)
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Equal(t, "validation_error", env.Error.Code)
	})
}

func TestMe(t *testing.T) {
	t.Parallel()

	trialEnd := fixedNow.AddDate(0, 0, 12)
	sub := onPlan(entitlement.PlanBusinessStandard)
	sub.Status = subscription.StatusTrialing
	sub.TrialEndsAt = &trialEnd
	f := newFixture(t, sub)

	rec, env := f.do(t, http.MethodGet, "/api/me", f.token(t, sub.AccountID), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var got struct {
		UserID       string `json:"user_id"`
		OrgID        string `json:"org_id"`
		Subscription struct {
			Plan               string `json:"plan"`
			PlanName           string `json:"plan_name"`
			Status             string `json:"status"`
			TrialDaysRemaining int    `json:"trial_days_remaining"`
			TrialExpired       bool   `json:"trial_expired"`
		} `json:"subscription"`
		Features     []entitlement.Feature `json:"features"`
		Entitlements []access.Decision     `json:"entitlements"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.Equal(t, "user_1", got.UserID)
	assert.Equal(t, sub.AccountID.String(), got.OrgID)
	assert.Equal(t, "Business Standard", got.Subscription.PlanName)
	assert.Equal(t, "trialing", got.Subscription.Status)
	assert.Equal(t, 12, got.Subscription.TrialDaysRemaining)
	assert.False(t, got.Subscription.TrialExpired)
	assert.Equal(t, []entitlement.Feature{entitlement.FeatureAnalysis, entitlement.FeatureAudit}, got.Features)
	assert.Len(t, got.Entitlements, 2)
}

func TestMe_ExpiredTrialAndNoPlan(t *testing.T) {
	t.Parallel()

	trialEnd := fixedNow.AddDate(0, 0, -1)
	expired := onPlan(entitlement.PlanBusinessStarter)
	expired.Status = subscription.StatusTrialing
	expired.TrialEndsAt = &trialEnd
	f := newFixture(t, expired)

	_, env := f.do(t, http.MethodGet, "/api/me", f.token(t, expired.AccountID), nil)
	var got struct {
		Subscription struct {
			TrialDaysRemaining int  `json:"trial_days_remaining"`
			TrialExpired       bool `json:"trial_expired"`
		} `json:"subscription"`
		Features []entitlement.Feature `json:"features"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.True(t, got.Subscription.TrialExpired)
	assert.Zero(t, got.Subscription.TrialDaysRemaining)

	_, env = f.do(t, http.MethodGet, "/api/me", f.token(t, uuid.New()), nil)
	require.NoError(t, json.Unmarshal(env.Data, &got))
	assert.NotNil(t, got.Features)
	assert.Empty(t, got.Features)
}

func TestMe_StoreFailure(t *testing.T) {
	t.Parallel()

	store := &failingStore{}
	store.On("Get", mock.Anything, mock.Anything).Return(nil, errors.New("db down"))

	tokens, err := identity.NewTokens(secret)
	require.NoError(t, err)
	handler := api.NewRouter(api.Deps{
		Access:   access.NewService(store, access.WithLogger(quietLog)),
		Verifier: tokens,
		Log:      quietLog,
		Gatherer: prometheus.NewRegistry(),
	})
	raw, err := tokens.Issue(identity.Identity{UserID: "u", OrgID: uuid.New()})
	require.NoError(t, err)

	for path, want := range map[string]int{
		"/api/me":       http.StatusServiceUnavailable,
		"/api/analysis": http.StatusServiceUnavailable,
	} {
		req := httptest.NewRequest(http.MethodGet, path, nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		assert.Equal(t, want, rec.Code, path)
	}
}

type failingStore struct {
	mock.Mock
}

func (m *failingStore) Get(ctx context.Context, accountID uuid.UUID) (*subscription.Subscription, error) {
	args := m.Called(ctx, accountID)
	return nil, args.Error(1)
}

func (m *failingStore) Save(context.Context, *subscription.Subscription) error {
	return subscription.ErrReadOnlyStore
}

func TestBillingEvents(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	accountID := uuid.New()

	post := func(t *testing.T, token string, body any) (*httptest.ResponseRecorder, envelope) {
		t.Helper()
		data, err := json.Marshal(body)
		require.NoError(t, err)
		return f.do(t, http.MethodPost, "/internal/billing/events", token, bytes.NewReader(data))
	}

	t.Run("requires the billing token", func(t *testing.T) {
		rec, _ := post(t, "", map[string]any{"type": "subscription.created"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
		rec, _ = post(t, f.token(t, accountID), map[string]any{"type": "subscription.created"})
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("validates the payload", func(t *testing.T) {
		rec, env := post(t, "billing-secret", map[string]any{"type": "refund.issued", "account_id": "not-a-uuid"})
		require.Equal(t, http.StatusUnprocessableEntity, rec.Code)
		assert.Contains(t, env.Error.Details, "type")
		assert.Contains(t, env.Error.Details, "account_id")
	})

	t.Run("rejects trailing data after the event", func(t *testing.T) {
		body := `{"type":"subscription.created","account_id":"` + accountID.String() + `","plan":"enterprise"}garbage`
		rec, env := f.do(t, http.MethodPost, "/internal/billing/events", "billing-secret", strings.NewReader(body))
		require.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_json", env.Error.Code)

		rec, _ = f.do(t, http.MethodGet, "/api/analysis", f.token(t, accountID), nil)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("rejects unknown price ids", func(t *testing.T) {
		rec, _ := post(t, "billing-secret", map[string]any{
			"type": "subscription.created", "account_id": accountID.String(), "price_id": "price_unknown",
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("subscription created by price id unlocks the feature", func(t *testing.T) {
		rec, _ := f.do(t, http.MethodGet, "/api/analysis", f.token(t, accountID), nil)
		require.Equal(t, http.StatusPaymentRequired, rec.Code)

		rec, env := post(t, "billing-secret", map[string]any{
			"type":       "subscription.created",
			"account_id": accountID.String(),
			"price_id":   "price_1RzWnWJjIu4ndWVgrLUHUViC",
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var sub subscription.Subscription
		require.NoError(t, json.Unmarshal(env.Data, &sub))
		assert.Equal(t, entitlement.PlanBusinessStarter, sub.Plan)
		assert.Equal(t, subscription.StatusTrialing, sub.Status)

		rec, _ = f.do(t, http.MethodGet, "/api/analysis", f.token(t, accountID), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("duplicate creation conflicts", func(t *testing.T) {
		rec, env := post(t, "billing-secret", map[string]any{
			"type": "subscription.created", "account_id": accountID.String(), "plan": "enterprise",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "subscription_exists", env.Error.Code)
	})

	t.Run("cancellation locks the feature again", func(t *testing.T) {
		rec, _ := post(t, "billing-secret", map[string]any{
			"type": "subscription.deleted", "account_id": accountID.String(),
		})
		require.Equal(t, http.StatusOK, rec.Code)

		rec, _ = f.do(t, http.MethodGet, "/api/analysis", f.token(t, accountID), nil)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("plan change after cancellation conflicts", func(t *testing.T) {
		rec, env := post(t, "billing-secret", map[string]any{
			"type": "subscription.updated", "account_id": accountID.String(), "plan": "enterprise",
		})
		assert.Equal(t, http.StatusConflict, rec.Code)
		assert.Equal(t, "subscription_canceled", env.Error.Code)

		rec, _ = f.do(t, http.MethodGet, "/api/audit", f.token(t, accountID), nil)
		assert.Equal(t, http.StatusPaymentRequired, rec.Code)
	})

	t.Run("updating a missing subscription is not found", func(t *testing.T) {
		rec, _ := post(t, "billing-secret", map[string]any{
			"type": "subscription.updated", "account_id": uuid.NewString(), "plan": "enterprise",
		})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestBillingEvents_NotMountedWithoutToken(t *testing.T) {
	t.Parallel()

	tokens, err := identity.NewTokens(secret)
	require.NoError(t, err)
	handler := api.NewRouter(api.Deps{
		Access:   access.NewService(subscription.NoPlanStore{}, access.WithLogger(quietLog)),
		Verifier: tokens,
		Log:      quietLog,
		Gatherer: prometheus.NewRegistry(),
		Billing:  subscription.NewLifecycle(subscription.NoPlanStore{}),
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/internal/billing/events", strings.NewReader("{}")))
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthAndMetrics(t *testing.T) {
	t.Parallel()

	starter := onPlan(entitlement.PlanBusinessStarter)
	f := newFixture(t, starter)

	rec, _ := f.do(t, http.MethodGet, "/health/live", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	rec, _ = f.do(t, http.MethodGet, "/health/ready", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	f.do(t, http.MethodGet, "/api/audit", f.token(t, starter.AccountID), nil)

	rec = httptest.NewRecorder()
	f.handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `saasgate_entitlement_decisions_total{allowed="false",feature="audit"} 1`)
}

func TestReadinessFailure(t *testing.T) {
	t.Parallel()

	tokens, err := identity.NewTokens(secret)
	require.NoError(t, err)
	handler := api.NewRouter(api.Deps{
		Access:   access.NewService(subscription.NoPlanStore{}, access.WithLogger(quietLog)),
		Verifier: tokens,
		Log:      quietLog,
		Gatherer: prometheus.NewRegistry(),
		Checks: []httpserver.Check{{
			Name:  "postgres",
			Probe: func(context.Context) error { return errors.New("down") },
		}},
	})

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/health/ready", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestNotFound(t *testing.T) {
	t.Parallel()

	f := newFixture(t)
	rec, env := f.do(t, http.MethodGet, "/nope", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, "not_found", env.Error.Code)
}

func TestRateLimit(t *testing.T) {
	t.Parallel()

	tokens, err := identity.NewTokens(secret)
	require.NoError(t, err)
	limits := ratelimiter.NewMemoryStore(ratelimiter.WithCleanupInterval(0))
	t.Cleanup(limits.Close)
	limiter, err := ratelimiter.NewBucket(limits, ratelimiter.Config{Capacity: 2, RefillRate: 1, RefillInterval: time.Hour})
	require.NoError(t, err)

	starter := onPlan(entitlement.PlanBusinessStarter)
	handler := api.NewRouter(api.Deps{
		Access:   access.NewService(subscription.NewMemoryStore(starter), access.WithLogger(quietLog)),
		Verifier: tokens,
		Log:      quietLog,
		Gatherer: prometheus.NewRegistry(),
		Limiter:  limiter,
	})

	get := func(orgID uuid.UUID) *httptest.ResponseRecorder {
		raw, err := tokens.Issue(identity.Identity{UserID: "u", OrgID: orgID})
		require.NoError(t, err)
		req := httptest.NewRequest(http.MethodGet, "/api/entitlements", nil)
		req.Header.Set("Authorization", "Bearer "+raw)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec
	}

	assert.Equal(t, http.StatusOK, get(starter.AccountID).Code)
	assert.Equal(t, http.StatusOK, get(starter.AccountID).Code)

	rec := get(starter.AccountID)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env))
	assert.Equal(t, "rate_limited", env.Error.Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))

	assert.Equal(t, http.StatusOK, get(uuid.New()).Code, "other organizations keep their own budget")
}
