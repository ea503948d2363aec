package metrics

/* adapted from https://github.com/zsais/go-gin-prometheus
edits:
- registry is injected instead of the global default
- metrics are served by the caller's own listener (see Handler)
- no push gateway, no basic auth variant
*/

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var reqCnt = &Metric{
	ID:          "reqCnt",
	Name:        "req_total",
	Description: "How many HTTP requests processed, partitioned by status code and HTTP method.",
	Type:        "counter_vec",
	Args:        []string{"code", "method", "url"},
}

var reqDur = &Metric{
	ID:          "reqDur",
	Name:        "req_dur_ms",
	Description: "The HTTP request latencies in milliseconds.",
	Type:        "histogram_vec",
	Args:        []string{"code", "method", "url"},
}

var resSz = &Metric{
	ID:          "resSz",
	Name:        "resp_sz_bytes",
	Description: "The HTTP response sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url"},
}

var reqSz = &Metric{
	ID:          "reqSz",
	Name:        "req_sz_bytes",
	Description: "The HTTP request sizes in bytes.",
	Type:        "summary_vec",
	Args:        []string{"code", "method", "url"},
}

type Logger interface {
	Errorf(format string, v ...interface{})
}

/*
RequestCounterURLLabelMappingFn controls the cardinality of the "url" label.
Webhook and admin routes carry ids in the path, so callers should map to the
route template, e.g. c.FullPath() ("/api/v1/admin/payments/:payment_id").
*/
type RequestCounterURLLabelMappingFn func(c *gin.Context) string

// Prometheus records HTTP metrics for a gin engine.
type Prometheus struct {
	reqCnt       *prometheus.CounterVec
	reqDur       *prometheus.HistogramVec
	reqSz, resSz *prometheus.SummaryVec

	gatherer    prometheus.Gatherer
	MetricsPath string

	ReqCntURLLabelMappingFn RequestCounterURLLabelMappingFn

	logger Logger
}

type NewPrometheusOptions struct {
	Subsystem               string
	MetricsPath             string
	Registry                *prometheus.Registry
	ReqCntURLLabelMappingFn func(c *gin.Context) string
	Logger                  Logger
}

// NewPrometheus registers the HTTP metrics with options.Registry, or with
// the default registry when none is given.
func NewPrometheus(options NewPrometheusOptions) *Prometheus {
	p := &Prometheus{
		MetricsPath: options.MetricsPath,
		logger:      options.Logger,
	}
	if p.MetricsPath == "" {
		p.MetricsPath = "/metrics"
	}

	var reg prometheus.Registerer = prometheus.DefaultRegisterer
	p.gatherer = prometheus.DefaultGatherer
	if options.Registry != nil {
		reg, p.gatherer = options.Registry, options.Registry
	}

	if options.ReqCntURLLabelMappingFn != nil {
		p.ReqCntURLLabelMappingFn = options.ReqCntURLLabelMappingFn
	} else {
		p.ReqCntURLLabelMappingFn = func(c *gin.Context) string {
			return c.Request.URL.Path
		}
	}

	p.reqCnt = register(reg, reqCnt, options.Subsystem, p.logger).(*prometheus.CounterVec)
	p.reqDur = register(reg, reqDur, options.Subsystem, p.logger).(*prometheus.HistogramVec)
	p.resSz = register(reg, resSz, options.Subsystem, p.logger).(*prometheus.SummaryVec)
	p.reqSz = register(reg, reqSz, options.Subsystem, p.logger).(*prometheus.SummaryVec)
	return p
}

// register creates the collector for def and registers it. When an equal
// collector is already registered (the fx graph is rebuilt in tests) the
// existing one is reused.
func register(reg prometheus.Registerer, def *Metric, subsystem string, logger Logger) prometheus.Collector {
	metric := NewMetric(def, subsystem)
	if err := reg.Register(metric); err != nil {
		var already prometheus.AlreadyRegisteredError
		if errors.As(err, &already) {
			return already.ExistingCollector
		}
		if logger != nil {
			logger.Errorf("%s could not be registered in Prometheus, err=%v", def.Name, err)
		}
	}
	return metric
}

// Handler serves the gathered metrics; mount it on a dedicated listener to
// keep scrapes out of the access log.
func (p *Prometheus) Handler() http.Handler {
	return promhttp.HandlerFor(p.gatherer, promhttp.HandlerOpts{})
}

// Use adds the middleware to a gin engine.
func (p *Prometheus) Use(e *gin.Engine) {
	e.Use(p.HandlerFunc())
}

// HandlerFunc defines handler function for middleware
func (p *Prometheus) HandlerFunc() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.URL.Path == p.MetricsPath {
			c.Next()
			return
		}

		start := time.Now()
		reqSize := computeApproximateRequestSize(c.Request)

		c.Next()

		status := strconv.Itoa(c.Writer.Status())
		elapsed := MillisecondsSince(start)
		resSize := float64(c.Writer.Size())
		url := p.ReqCntURLLabelMappingFn(c)

		p.reqDur.WithLabelValues(status, c.Request.Method, url).Observe(elapsed)
		p.reqCnt.WithLabelValues(status, c.Request.Method, url).Inc()
		p.reqSz.WithLabelValues(status, c.Request.Method, url).Observe(float64(reqSize))
		p.resSz.WithLabelValues(status, c.Request.Method, url).Observe(resSize)
	}
}

func MillisecondsSince(start time.Time) float64 {
	return float64(time.Since(start)) / float64(time.Millisecond)
}

func computeApproximateRequestSize(r *http.Request) int {
	s := 0
	if r.URL != nil {
		s = len(r.URL.Path)
	}
	s += len(r.Method) + len(r.Proto)
	for name, values := range r.Header {
		s += len(name)
		for _, value := range values {
			s += len(value)
		}
	}
	s += len(r.Host)
	if r.ContentLength != -1 {
		s += int(r.ContentLength)
	}
	return s
}
