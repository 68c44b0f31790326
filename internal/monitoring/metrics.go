// Package monitoring exposes prometheus metrics for the gateway, scoring,
// early warning and text generation.
package monitoring

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics implements the metrics interfaces of the gateway, scoring, warning
// and explain packages.
type Metrics struct {
	registry *prometheus.Registry

	gatewayRequests      *prometheus.CounterVec
	gatewayDuration      *prometheus.HistogramVec
	callbackVerification *prometheus.CounterVec
	scoresComputed       *prometheus.CounterVec
	alertsRaised         *prometheus.CounterVec
	textFallbacks        *prometheus.CounterVec
	jobRuns              *prometheus.CounterVec
	httpRequests         *prometheus.CounterVec
	httpDuration         *prometheus.HistogramVec
}

// New registers every collector on a fresh registry, along with the Go and
// process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(prometheus.NewGoCollector(), prometheus.NewProcessCollector(prometheus.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		gatewayRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paybaba_gateway_requests_total",
			Help: "Outbound gateway requests by path and outcome.",
		}, []string{"path", "outcome"}),
		gatewayDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paybaba_gateway_request_duration_seconds",
			Help:    "Outbound gateway request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"path"}),
		callbackVerification: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paybaba_gateway_callback_verifications_total",
			Help: "Inbound callback signature checks by result.",
		}, []string{"result"}),
		scoresComputed: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paybaba_credit_scores_total",
			Help: "Credit score calculations by risk band or insufficient_data.",
		}, []string{"outcome"}),
		alertsRaised: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paybaba_early_warning_alerts_total",
			Help: "Early warning alerts raised by type and severity.",
		}, []string{"type", "severity"}),
		textFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paybaba_text_generation_fallbacks_total",
			Help: "Text generation calls answered with the canned fallback.",
		}, []string{"kind"}),
		jobRuns: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paybaba_scheduled_job_runs_total",
			Help: "Scheduled job runs per merchant by job and outcome.",
		}, []string{"job", "outcome"}),
		httpRequests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "paybaba_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		httpDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "paybaba_http_request_duration_seconds",
			Help:    "HTTP request latency by route.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
	}
}

func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

func (m *Metrics) ObserveGatewayRequest(path, outcome string, d time.Duration) {
	m.gatewayRequests.WithLabelValues(path, outcome).Inc()
	m.gatewayDuration.WithLabelValues(path).Observe(d.Seconds())
}

func (m *Metrics) ObserveCallbackVerification(accepted bool) {
	result := "rejected"
	if accepted {
		result = "accepted"
	}
	m.callbackVerification.WithLabelValues(result).Inc()
}

func (m *Metrics) ObserveScore(outcome string) {
	m.scoresComputed.WithLabelValues(outcome).Inc()
}

func (m *Metrics) ObserveAlert(alertType, severity string) {
	m.alertsRaised.WithLabelValues(alertType, severity).Inc()
}

func (m *Metrics) ObserveTextFallback(kind string) {
	m.textFallbacks.WithLabelValues(kind).Inc()
}

func (m *Metrics) ObserveJobRun(job, outcome string) {
	m.jobRuns.WithLabelValues(job, outcome).Inc()
}

func (m *Metrics) ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	m.httpRequests.WithLabelValues(method, route, statusClass(status)).Inc()
	m.httpDuration.WithLabelValues(method, route).Observe(d.Seconds())
}

func statusClass(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	default:
		return "2xx"
	}
}

// Handler serves the registry in the prometheus text format.
func (m *Metrics) Handler() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
