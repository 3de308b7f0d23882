package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "cafemuji"

// OrderMetrics records order board activity per station kind.
// A nil *OrderMetrics is a valid no-op recorder.
type OrderMetrics struct {
	groupsSubmitted *prometheus.CounterVec
	itemsCompleted  *prometheus.CounterVec
	prepSeconds     *prometheus.HistogramVec
	admission       *prometheus.CounterVec
	activeGroups    *prometheus.GaugeVec
	cartSubmits     *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	groupsSubmitted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "groups_submitted_total",
		Help:      "Order groups submitted, by kind and birth status.",
	}, []string{"kind", "status"})
	itemsCompleted := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "items_completed_total",
		Help:      "Order items marked complete.",
	}, []string{"kind"})
	prepSeconds := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "item_prep_seconds",
		Help:      "Seconds between item submission and completion.",
		Buckets:   []float64{30, 60, 120, 180, 300, 450, 600, 900, 1200, 1800},
	}, []string{"kind"})
	admission := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "admission_recomputes_total",
		Help:      "Admission control recomputes that moved hold groups, by resulting status.",
	}, []string{"kind", "status"})
	activeGroups := prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "active_groups",
		Help:      "Incomplete order groups seen on the last board read.",
	}, []string{"kind"})
	cartSubmits := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cart_submits_total",
		Help:      "Staging cart submissions by outcome.",
	}, []string{"kind", "outcome"})
	reg.MustRegister(groupsSubmitted, itemsCompleted, prepSeconds, admission, activeGroups, cartSubmits)
	return &OrderMetrics{
		groupsSubmitted: groupsSubmitted,
		itemsCompleted:  itemsCompleted,
		prepSeconds:     prepSeconds,
		admission:       admission,
		activeGroups:    activeGroups,
		cartSubmits:     cartSubmits,
	}
}

func (m *OrderMetrics) GroupSubmitted(kind, status string) {
	if m == nil || m.groupsSubmitted == nil {
		return
	}
	m.groupsSubmitted.WithLabelValues(normalizeLabel(kind), normalizeLabel(status)).Inc()
}

// ItemCompleted counts one completion and observes its preparation time.
func (m *OrderMetrics) ItemCompleted(kind string, prep time.Duration) {
	if m == nil || m.itemsCompleted == nil {
		return
	}
	m.itemsCompleted.WithLabelValues(normalizeLabel(kind)).Inc()
	if prep > 0 {
		m.prepSeconds.WithLabelValues(normalizeLabel(kind)).Observe(prep.Seconds())
	}
}

func (m *OrderMetrics) AdmissionRecomputed(kind, status string) {
	if m == nil || m.admission == nil {
		return
	}
	m.admission.WithLabelValues(normalizeLabel(kind), normalizeLabel(status)).Inc()
}

func (m *OrderMetrics) SetActiveGroups(kind string, n int) {
	if m == nil || m.activeGroups == nil {
		return
	}
	m.activeGroups.WithLabelValues(normalizeLabel(kind)).Set(float64(n))
}

func (m *OrderMetrics) CartSubmitted(kind, outcome string) {
	if m == nil || m.cartSubmits == nil {
		return
	}
	m.cartSubmits.WithLabelValues(normalizeLabel(kind), normalizeLabel(outcome)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
