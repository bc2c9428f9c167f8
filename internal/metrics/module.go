package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
)

// Module registers billing metrics on the default Prometheus registry so
// they are served by promhttp.Handler
func Module() fx.Option {
	return fx.Provide(func() *BillingMetrics {
		return NewBillingMetrics(prometheus.DefaultRegisterer)
	})
}
