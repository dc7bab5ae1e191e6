package access

import (
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/dmitrymomot/saasgate/pkg/entitlement"
)

type metrics struct {
	decisions    *prometheus.CounterVec
	lookupErrors prometheus.Counter
}

// newMetrics registers collectors with reg. A nil reg yields unregistered collectors.
func newMetrics(reg prometheus.Registerer) *metrics {
	factory := promauto.With(reg)
	return &metrics{
		decisions: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "saasgate",
			Subsystem: "entitlement",
			Name:      "decisions_total",
			Help:      "Feature access decisions by feature and outcome.",
		}, []string{"feature", "allowed"}),
		lookupErrors: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "saasgate",
			Subsystem: "subscription",
			Name:      "lookup_errors_total",
			Help:      "Subscription store failures that forced a deny.",
		}),
	}
}

func (m *metrics) observe(d Decision) {
	m.decisions.WithLabelValues(featureLabel(d.Feature), strconv.FormatBool(d.Allowed)).Inc()
}

// featureLabel keeps label cardinality bounded to the known feature set.
func featureLabel(f entitlement.Feature) string {
	if f.Valid() {
		return string(f)
	}
	return "unknown"
}
