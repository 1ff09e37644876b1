package metrics

import "github.com/prometheus/client_golang/prometheus"

// StoreMetrics tracks client-side state transitions.
type StoreMetrics struct {
	stale    *prometheus.CounterVec
	cartSize prometheus.Gauge
	sessions *prometheus.CounterVec
}

func NewStoreMetrics(reg prometheus.Registerer) *StoreMetrics {
	if reg == nil {
		return &StoreMetrics{}
	}
	stale := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "catalog_stale_responses",
		Help: "Catalog responses discarded because a newer request was issued for the same slot.",
	}, []string{"slot"})
	cartSize := prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "cart_total_items",
		Help: "Sum of quantities across cart lines.",
	})
	sessions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "session_transitions",
		Help: "Authentication session state transitions.",
	}, []string{"state"})
	reg.MustRegister(stale, cartSize, sessions)
	return &StoreMetrics{stale: stale, cartSize: cartSize, sessions: sessions}
}

// IncStale counts one discarded catalog response.
func (s *StoreMetrics) IncStale(slot string) {
	if s == nil || s.stale == nil {
		return
	}
	s.stale.WithLabelValues(normalizeLabel(slot)).Inc()
}

// SetCartItems publishes the current total item count.
func (s *StoreMetrics) SetCartItems(n int) {
	if s == nil || s.cartSize == nil {
		return
	}
	s.cartSize.Set(float64(n))
}

// IncSession counts a transition into state.
func (s *StoreMetrics) IncSession(state string) {
	if s == nil || s.sessions == nil {
		return
	}
	s.sessions.WithLabelValues(normalizeLabel(state)).Inc()
}
