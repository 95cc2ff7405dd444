package metrics

import "github.com/prometheus/client_golang/prometheus"

// AvailabilityMetrics exposes counters/histograms for availability evaluations.
type AvailabilityMetrics struct {
	evaluationsTotal *prometheus.CounterVec
	slotsReturned    *prometheus.HistogramVec
	upstreamLatency  *prometheus.HistogramVec
}

func NewAvailabilityMetrics(reg prometheus.Registerer) *AvailabilityMetrics {
	m := &AvailabilityMetrics{
		evaluationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "clinicbook",
			Subsystem: "availability",
			Name:      "evaluations_total",
			Help:      "Total availability evaluations by mode and outcome",
		}, []string{"mode", "status"}),
		slotsReturned: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicbook",
			Subsystem: "availability",
			Name:      "available_slots",
			Help:      "Number of available slots returned per evaluation",
			Buckets:   []float64{0, 1, 2, 5, 10, 20, 50, 100},
		}, []string{"mode"}),
		upstreamLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "clinicbook",
			Subsystem: "availability",
			Name:      "upstream_fetch_seconds",
			Help:      "Latency of raw time unit fetches from the scheduling provider",
			Buckets:   prometheus.DefBuckets,
		}, []string{"status"}),
	}
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	reg.MustRegister(m.evaluationsTotal, m.slotsReturned, m.upstreamLatency)
	return m
}

// ObserveEvaluation records one completed evaluation.
func (m *AvailabilityMetrics) ObserveEvaluation(mode, status string, availableSlots int) {
	if m == nil {
		return
	}
	m.evaluationsTotal.WithLabelValues(mode, status).Inc()
	if status == "ok" {
		m.slotsReturned.WithLabelValues(mode).Observe(float64(availableSlots))
	}
}

// ObserveUpstreamFetch records one provider round trip.
func (m *AvailabilityMetrics) ObserveUpstreamFetch(status string, seconds float64) {
	if m == nil {
		return
	}
	m.upstreamLatency.WithLabelValues(status).Observe(seconds)
}
