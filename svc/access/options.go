package access

import (
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
)

// Option configures the service.
type Option func(*service)

// WithLogger sets the logger used for lookup failures and decision tracing.
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// WithMetrics registers the decision counters with reg.
func WithMetrics(reg prometheus.Registerer) Option {
	return func(s *service) {
		s.registerer = reg
	}
}
