package entitlement_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
)

func TestParseAttribute(t *testing.T) {
	t.Parallel()

	t.Run("parses plan and feature attributes", func(t *testing.T) {
		t.Parallel()
		a, err := entitlement.ParseAttribute("plan:enterprise")
		require.NoError(t, err)
		assert.Equal(t, entitlement.PlanAttribute(entitlement.PlanEnterprise), a)

		a, err = entitlement.ParseAttribute(" Feature : analytics ")
		require.NoError(t, err)
		assert.Equal(t, entitlement.FeatureAttribute("analytics"), a)
		assert.Equal(t, "feature:analytics", a.String())
	})

	t.Run("rejects malformed input", func(t *testing.T) {
		t.Parallel()
		for _, in := range []string{"", "plan", "plan:", "role:admin"} {
			_, err := entitlement.ParseAttribute(in)
			assert.ErrorIs(t, err, entitlement.ErrInvalidAttribute, in)
		}
	})
}

func TestHasAttribute(t *testing.T) {
	t.Parallel()

	t.Run("feature attributes agree with HasAccess for every plan", func(t *testing.T) {
		t.Parallel()
		holders := []entitlement.PlanHolder{nil, entitlement.PlanOf(entitlement.PlanNone)}
		for _, p := range entitlement.Plans() {
			holders = append(holders, entitlement.PlanOf(p.ID))
		}
		for _, h := range holders {
			for _, f := range entitlement.Features() {
				assert.Equal(t,
					entitlement.HasAccess(h, f),
					entitlement.HasAttribute(h, entitlement.FeatureAttribute(string(f))),
					"holder %v feature %s", h, f)
			}
		}
	})

	t.Run("analytics alias maps to analysis", func(t *testing.T) {
		t.Parallel()
		starter := entitlement.PlanOf(entitlement.PlanBusinessStarter)
		assert.True(t, entitlement.HasAttribute(starter, entitlement.FeatureAttribute("analytics")))
		assert.False(t, entitlement.HasAttribute(starter, entitlement.FeatureAttribute("audit")))
	})

	t.Run("plan attributes match the current plan only", func(t *testing.T) {
		t.Parallel()
		standard := entitlement.PlanOf(entitlement.PlanBusinessStandard)
		assert.True(t, entitlement.HasAttribute(standard, entitlement.PlanAttribute(entitlement.PlanBusinessStandard)))
		assert.False(t, entitlement.HasAttribute(standard, entitlement.PlanAttribute(entitlement.PlanEnterprise)))
		assert.False(t, entitlement.HasAttribute(nil, entitlement.PlanAttribute(entitlement.PlanEnterprise)))
	})

	t.Run("unknown kinds and features fail closed", func(t *testing.T) {
		t.Parallel()
		ent := entitlement.PlanOf(entitlement.PlanEnterprise)
		assert.False(t, entitlement.HasAttribute(ent, entitlement.Attribute{Kind: "role", Name: "admin"}))
		assert.False(t, entitlement.HasAttribute(ent, entitlement.FeatureAttribute("export")))
	})
}
