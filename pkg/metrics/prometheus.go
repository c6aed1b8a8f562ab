// Package metrics provides Prometheus metrics for the rescue dispatch engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Manager manages all Prometheus metrics for the engine.
type Manager struct {
	namespace        string
	subsystem        string
	histogramBuckets []float64
	registry         prometheus.Registerer

	// Triage metrics
	reportsScored   prometheus.Counter
	reportsRejected prometheus.Counter
	reportsDropped  prometheus.Counter
	priorityScore   prometheus.Histogram

	// Victim queue metrics
	queueDepth        prometheus.Gauge
	queueAdmissions   prometheus.Counter
	statusTransitions *prometheus.CounterVec

	// Inventory metrics
	inventoryAvailable *prometheus.GaugeVec
	reservations       prometheus.Counter
	releases           prometheus.Counter
	alertsRaised       *prometheus.CounterVec

	// Allocation metrics
	missionsAllocated *prometheus.CounterVec
	shortfallLines    *prometheus.CounterVec
	missionsReleased  prometheus.Counter

	// Intake pipeline metrics
	intakeQueueSize prometheus.Gauge
	workerCount     prometheus.Gauge

	// Error tracking
	errorsByComponent *prometheus.CounterVec
}

// Global metrics manager instance.
var globalManager *Manager //nolint:gochecknoglobals // intentional global for singleton metrics manager

// Custom registry to avoid the default Go collectors.
var customRegistry = prometheus.NewRegistry() //nolint:gochecknoglobals // intentional global for metrics registry

func init() { //nolint:gochecknoinits // intentional init for global metrics setup
	globalManager = NewManager(WithRegistry(customRegistry))
}

// Registry returns the registry holding all engine metrics, for export.
func Registry() *prometheus.Registry {
	return customRegistry
}

// NewManager creates a new metrics manager with default configuration.
func NewManager(opts ...Option) *Manager {
	m := &Manager{
		namespace:        "rescuemesh",
		subsystem:        "engine",
		histogramBuckets: prometheus.LinearBuckets(0, 10, 11), // scores live in [0,100]
		registry:         prometheus.DefaultRegisterer,
	}

	for _, opt := range opts {
		opt(m)
	}

	m.initializeMetrics()
	return m
}

func (m *Manager) initializeMetrics() {
	auto := promauto.With(m.registry)

	m.reportsScored = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_scored_total",
		Help:      "Total number of incident reports scored",
	})

	m.reportsRejected = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_rejected_total",
		Help:      "Total number of malformed incident reports rejected",
	})

	m.reportsDropped = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "reports_dropped_total",
		Help:      "Total number of reports dropped by a full intake queue",
	})

	m.priorityScore = auto.NewHistogram(prometheus.HistogramOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "priority_score",
		Help:      "Distribution of computed priority scores",
		Buckets:   m.histogramBuckets,
	})

	m.queueDepth = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "victim_queue_depth",
		Help:      "Current number of entries in the victim queue",
	})

	m.queueAdmissions = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "victim_queue_admissions_total",
		Help:      "Total number of entries admitted to the victim queue",
	})

	m.statusTransitions = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "victim_status_transitions_total",
			Help:      "Total number of victim status transitions by target status",
		},
		[]string{"status"},
	)

	m.inventoryAvailable = auto.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "inventory_available",
			Help:      "Currently available quantity per equipment kind",
		},
		[]string{"kind"},
	)

	m.reservations = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inventory_reservations_total",
		Help:      "Total number of successful inventory reservations",
	})

	m.releases = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "inventory_releases_total",
		Help:      "Total number of inventory releases",
	})

	m.alertsRaised = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "inventory_alerts_total",
			Help:      "Total number of inventory stock alerts raised, by level",
		},
		[]string{"level"},
	)

	m.missionsAllocated = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "missions_allocated_total",
			Help:      "Total number of allocation attempts by resulting state",
		},
		[]string{"state"},
	)

	m.shortfallLines = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "shortfall_lines_total",
			Help:      "Total number of requirement lines that could not be reserved, by reason",
		},
		[]string{"reason"},
	)

	m.missionsReleased = auto.NewCounter(prometheus.CounterOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "missions_released_total",
		Help:      "Total number of missions whose reservations were released",
	})

	m.intakeQueueSize = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "intake_queue_size",
		Help:      "Current size of the intake report queue",
	})

	m.workerCount = auto.NewGauge(prometheus.GaugeOpts{
		Namespace: m.namespace,
		Subsystem: m.subsystem,
		Name:      "triage_worker_count",
		Help:      "Number of triage workers processing intake reports",
	})

	m.errorsByComponent = auto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: m.namespace,
			Subsystem: m.subsystem,
			Name:      "errors_total",
			Help:      "Total errors by component and type",
		},
		[]string{"component", "type"},
	)
}

// RecordReportScored increments the scored reports counter and observes the score.
func RecordReportScored(score int) {
	globalManager.reportsScored.Inc()
	globalManager.priorityScore.Observe(float64(score))
}

// RecordReportRejected increments the rejected reports counter.
func RecordReportRejected() {
	globalManager.reportsRejected.Inc()
}

// RecordReportDropped increments the dropped reports counter.
func RecordReportDropped() {
	globalManager.reportsDropped.Inc()
}

// UpdateQueueDepth sets the current victim queue depth.
func UpdateQueueDepth(depth int) {
	globalManager.queueDepth.Set(float64(depth))
}

// RecordQueueAdmission increments the queue admissions counter.
func RecordQueueAdmission() {
	globalManager.queueAdmissions.Inc()
}

// RecordStatusTransition records a victim status transition.
func RecordStatusTransition(status string) {
	globalManager.statusTransitions.WithLabelValues(status).Inc()
}

// UpdateInventoryAvailable sets the available quantity for an equipment kind.
func UpdateInventoryAvailable(kind string, available int) {
	globalManager.inventoryAvailable.WithLabelValues(kind).Set(float64(available))
}

// RecordReservation increments the successful reservations counter.
func RecordReservation() {
	globalManager.reservations.Inc()
}

// RecordRelease increments the releases counter.
func RecordRelease() {
	globalManager.releases.Inc()
}

// RecordAlert increments the inventory alerts counter for a level.
func RecordAlert(level string) {
	globalManager.alertsRaised.WithLabelValues(level).Inc()
}

// RecordMissionAllocated records an allocation attempt by resulting state.
func RecordMissionAllocated(state string) {
	globalManager.missionsAllocated.WithLabelValues(state).Inc()
}

// RecordShortfall records a shortfall line by reason.
func RecordShortfall(reason string) {
	globalManager.shortfallLines.WithLabelValues(reason).Inc()
}

// RecordMissionReleased increments the released missions counter.
func RecordMissionReleased() {
	globalManager.missionsReleased.Inc()
}

// UpdateIntakeQueueSize sets the current intake queue size.
func UpdateIntakeQueueSize(size int) {
	globalManager.intakeQueueSize.Set(float64(size))
}

// UpdateWorkerCount sets the triage worker count.
func UpdateWorkerCount(count int) {
	globalManager.workerCount.Set(float64(count))
}

// RecordErrorByComponent records an error by component and type.
func RecordErrorByComponent(component, errorType string) {
	globalManager.errorsByComponent.WithLabelValues(component, errorType).Inc()
}
