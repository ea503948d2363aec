package metrics

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

func newHTTPMetrics(log *zap.SugaredLogger) *Prometheus {
	return NewPrometheus(NewPrometheusOptions{
		Subsystem: Subsystem,
		Logger:    log,
		ReqCntURLLabelMappingFn: func(c *gin.Context) string {
			// unmatched paths share one label so scanners cannot blow up cardinality
			if p := c.FullPath(); p != "" {
				return p
			}
			return "unmatched"
		},
	})
}

func newReconcileMetrics(log *zap.SugaredLogger) *ReconcileMetrics {
	return NewReconcileMetrics(prometheus.DefaultRegisterer, log)
}

var Module = fx.Options(
	fx.Provide(newHTTPMetrics, newReconcileMetrics),
)
