package metrics

import (
	"strconv"
	"time"

	prom "github.com/prometheus/client_golang/prometheus"
)

// PrometheusRecorder implements Recorder using Prometheus metrics.
type PrometheusRecorder struct {
	requestDuration *prom.HistogramVec
	requests        *prom.CounterVec
	panics          prom.Counter
	exportPages     *prom.CounterVec
	exportDuration  prom.Histogram
	exportRuns      *prom.CounterVec
}

// NewPrometheusRecorder constructs and registers the metrics on reg.
func NewPrometheusRecorder(reg *prom.Registry) *PrometheusRecorder {
	if reg == nil {
		reg = prom.NewRegistry()
	}
	pr := &PrometheusRecorder{
		requestDuration: prom.NewHistogramVec(prom.HistogramOpts{
			Namespace: "scholarsite",
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests by route",
			Buckets:   prom.DefBuckets,
		}, []string{"route"}),
		requests: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "scholarsite",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code",
		}, []string{"route", "code"}),
		panics: prom.NewCounter(prom.CounterOpts{
			Namespace: "scholarsite",
			Name:      "http_panics_total",
			Help:      "Handler panics recovered into 500 responses",
		}),
		exportPages: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "scholarsite",
			Name:      "export_pages_total",
			Help:      "Exported pages by outcome",
		}, []string{"outcome"}),
		exportDuration: prom.NewHistogram(prom.HistogramOpts{
			Namespace: "scholarsite",
			Name:      "export_duration_seconds",
			Help:      "Total export run duration",
			Buckets:   prom.ExponentialBuckets(0.5, 2, 10),
		}),
		exportRuns: prom.NewCounterVec(prom.CounterOpts{
			Namespace: "scholarsite",
			Name:      "export_runs_total",
			Help:      "Export runs by outcome",
		}, []string{"outcome"}),
	}
	reg.MustRegister(pr.requestDuration, pr.requests, pr.panics, pr.exportPages, pr.exportDuration, pr.exportRuns)
	return pr
}

func (p *PrometheusRecorder) ObserveRequest(route string, status int, d time.Duration) {
	if p == nil {
		return
	}
	p.requestDuration.WithLabelValues(route).Observe(d.Seconds())
	p.requests.WithLabelValues(route, strconv.Itoa(status)).Inc()
}

func (p *PrometheusRecorder) IncPanic() {
	if p == nil {
		return
	}
	p.panics.Inc()
}

func (p *PrometheusRecorder) IncExportPage(outcome PageOutcome) {
	if p == nil {
		return
	}
	p.exportPages.WithLabelValues(string(outcome)).Inc()
}

func (p *PrometheusRecorder) ObserveExportDuration(d time.Duration) {
	if p == nil {
		return
	}
	p.exportDuration.Observe(d.Seconds())
}

func (p *PrometheusRecorder) IncExportRun(outcome string) {
	if p == nil {
		return
	}
	p.exportRuns.WithLabelValues(outcome).Inc()
}
