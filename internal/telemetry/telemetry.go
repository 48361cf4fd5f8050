// Package telemetry exposes Prometheus metrics for evaluations and HTTP traffic.
package telemetry

import (
	"strconv"
	"time"

	"github.com/iwvelando/capital-budget/pkg/appraisal"
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "capital_budget"

// Recorder records evaluation and request metrics.
type Recorder struct {
	evaluations     prometheus.Counter
	projects        prometheus.Counter
	metricFailures  *prometheus.CounterVec
	irrIterations   prometheus.Histogram
	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
}

// NewRecorder creates a Recorder and registers its collectors with reg.
func NewRecorder(reg prometheus.Registerer) (*Recorder, error) {
	r := &Recorder{
		evaluations: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "evaluations_total",
			Help:      "Number of computation passes.",
		}),
		projects: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "projects_total",
			Help:      "Number of projects appraised.",
		}),
		metricFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "metric_failures_total",
			Help:      "Metrics that could not be computed, by metric and reason.",
		}, []string{"metric", "reason"}),
		irrIterations: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "irr_iterations",
			Help:      "Newton-Raphson iterations used per IRR search.",
			Buckets:   []float64{1, 2, 4, 8, 16, 64, 256, 1000},
		}),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by path and status code.",
		}, []string{"path", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by path.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path"}),
	}

	for _, c := range []prometheus.Collector{
		r.evaluations, r.projects, r.metricFailures, r.irrIterations, r.requests, r.requestDuration,
	} {
		if err := reg.Register(c); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// ObserveReport records one computation pass.
func (r *Recorder) ObserveReport(report appraisal.Report) {
	if r == nil {
		return
	}
	r.evaluations.Inc()
	r.projects.Add(float64(len(report.Results)))
	for _, result := range report.Results {
		if !result.Payback.OK() {
			r.metricFailures.WithLabelValues("payback", appraisal.FailureReason(result.Payback.Err)).Inc()
		}
		for metric, outcome := range map[string]appraisal.Outcome{"roi": result.ROI, "npv": result.NPV, "irr": result.IRR} {
			if !outcome.OK() {
				r.metricFailures.WithLabelValues(metric, appraisal.FailureReason(outcome.Err)).Inc()
			}
		}
		if result.IRRIterations > 0 {
			r.irrIterations.Observe(float64(result.IRRIterations))
		}
	}
}

// ObserveRequest records one HTTP request.
func (r *Recorder) ObserveRequest(path string, status int, duration time.Duration) {
	if r == nil {
		return
	}
	r.requests.WithLabelValues(path, strconv.Itoa(status)).Inc()
	r.requestDuration.WithLabelValues(path).Observe(duration.Seconds())
}
