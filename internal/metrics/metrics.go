package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/zhank48/ultfpeb-sub004/internal/frontdesk/types"
)

const namespace = "frontdesk"

// Metrics holds the service collectors. A nil *Metrics is valid and records
// nothing.
type Metrics struct {
	checkIns       prometheus.Counter
	checkOuts      prometheus.Counter
	changeRequests *prometheus.CounterVec
	resolutions    *prometheus.CounterVec
	anomalies      *prometheus.GaugeVec

	httpRequests *prometheus.CounterVec
	httpLatency  *prometheus.HistogramVec
}

// New builds the collectors and registers them on reg. A nil reg skips
// registration.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		checkIns: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkins_total",
			Help:      "Total number of visitor check-ins.",
		}),
		checkOuts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "checkouts_total",
			Help:      "Total number of visitor check-outs.",
		}),
		changeRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "change_requests_total",
			Help:      "Total number of change requests created.",
		}, []string{"type"}),
		resolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "resolutions_total",
			Help:      "Total number of change request resolutions.",
		}, []string{"type", "outcome"}),
		anomalies: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "consistency_anomalies",
			Help:      "Anomalies found by the most recent consistency scan.",
		}, []string{"kind"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests.",
		}, []string{"route", "method", "status"}),
		httpLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
		}, []string{"route", "method"}),
	}

	if reg != nil {
		reg.MustRegister(
			m.checkIns, m.checkOuts,
			m.changeRequests, m.resolutions, m.anomalies,
			m.httpRequests, m.httpLatency,
		)
	}
	return m
}

func (m *Metrics) CheckIn() {
	if m == nil {
		return
	}
	m.checkIns.Inc()
}

func (m *Metrics) CheckOut() {
	if m == nil {
		return
	}
	m.checkOuts.Inc()
}

func (m *Metrics) RequestCreated(t types.RequestType) {
	if m == nil {
		return
	}
	m.changeRequests.WithLabelValues(string(t)).Inc()
}

func (m *Metrics) RequestResolved(t types.RequestType, outcome types.RequestStatus) {
	if m == nil {
		return
	}
	m.resolutions.WithLabelValues(string(t), string(outcome)).Inc()
}

// SetAnomalies replaces the gauge values with the counts of one scan. Kinds
// missing from counts are reset to zero.
func (m *Metrics) SetAnomalies(counts map[types.AnomalyKind]int) {
	if m == nil {
		return
	}
	for _, k := range []types.AnomalyKind{
		types.AnomalyOrphanedRequest,
		types.AnomalyOrphanedAuditEntry,
		types.AnomalyDuplicatePendingRequest,
		types.AnomalyStatusMismatch,
	} {
		m.anomalies.WithLabelValues(string(k)).Set(float64(counts[k]))
	}
}

func (m *Metrics) HTTPRequest(route, method string, status int, d time.Duration) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.httpLatency.WithLabelValues(route, method).Observe(d.Seconds())
}
