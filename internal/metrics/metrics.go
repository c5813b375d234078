package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Metrics groups the application's prometheus collectors on a private registry
type Metrics struct {
	registry *prometheus.Registry

	medicationsAdded   prometheus.Counter
	medicationsDeleted prometheus.Counter
	dosesLogged        *prometheus.CounterVec
	duplicateLogs      prometheus.Counter
	serviceCalls       *prometheus.CounterVec
	serviceLatency     *prometheus.HistogramVec
	remindersFired     *prometheus.CounterVec
	activeTriggers     prometheus.Gauge
	httpRequests       *prometheus.CounterVec
}

var (
	defaultMetrics *Metrics
	once           sync.Once
)

func Default() *Metrics {
	once.Do(func() {
		defaultMetrics = New()
	})
	return defaultMetrics
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		medicationsAdded: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medreminder_medications_added_total",
			Help: "Medications created.",
		}),
		medicationsDeleted: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medreminder_medications_deleted_total",
			Help: "Medications deleted.",
		}),
		dosesLogged: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medreminder_doses_logged_total",
			Help: "Dose logs written, by taken flag.",
		}, []string{"taken"}),
		duplicateLogs: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "medreminder_duplicate_logs_total",
			Help: "Dose logs rejected because the dose was already taken that day.",
		}),
		serviceCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medreminder_service_calls_total",
			Help: "Calls to external completion and speech services.",
		}, []string{"service", "outcome"}),
		serviceLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "medreminder_service_call_seconds",
			Help:    "Latency of external service calls.",
			Buckets: prometheus.DefBuckets,
		}, []string{"service"}),
		remindersFired: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medreminder_reminders_fired_total",
			Help: "Reminder notifications delivered, by notifier and outcome.",
		}, []string{"notifier", "outcome"}),
		activeTriggers: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "medreminder_active_triggers",
			Help: "Recurring reminder triggers currently registered.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "medreminder_http_requests_total",
			Help: "HTTP API requests by route and status.",
		}, []string{"route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.medicationsAdded,
		m.medicationsDeleted,
		m.dosesLogged,
		m.duplicateLogs,
		m.serviceCalls,
		m.serviceLatency,
		m.remindersFired,
		m.activeTriggers,
		m.httpRequests,
	)
	return m
}

// Registry exposes the registry for the /metrics handler
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) RecordMedicationAdded() {
	m.medicationsAdded.Inc()
}

func (m *Metrics) RecordMedicationDeleted() {
	m.medicationsDeleted.Inc()
}

func (m *Metrics) RecordDoseLogged(taken bool) {
	label := "false"
	if taken {
		label = "true"
	}
	m.dosesLogged.WithLabelValues(label).Inc()
}

func (m *Metrics) RecordDuplicateLog() {
	m.duplicateLogs.Inc()
}

func (m *Metrics) RecordServiceCall(service string, d time.Duration, err error) {
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	m.serviceCalls.WithLabelValues(service, outcome).Inc()
	m.serviceLatency.WithLabelValues(service).Observe(d.Seconds())
}

func (m *Metrics) RecordReminderFired(notifier string, err error) {
	outcome := "delivered"
	if err != nil {
		outcome = "failed"
	}
	m.remindersFired.WithLabelValues(notifier, outcome).Inc()
}

func (m *Metrics) SetActiveTriggers(n int) {
	m.activeTriggers.Set(float64(n))
}

func (m *Metrics) RecordHTTPRequest(route, status string) {
	m.httpRequests.WithLabelValues(route, status).Inc()
}
