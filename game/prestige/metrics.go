package prestige

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the transition instruments. A nil *Metrics records nothing.
type Metrics struct {
	Transitions      *prometheus.CounterVec
	Duration         prometheus.Histogram
	SkippedItems     prometheus.Counter
	UnhandledRewards *prometheus.CounterVec
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Transitions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raidprofile",
			Subsystem: "prestige",
			Name:      "transitions_total",
			Help:      "Prestige transitions by final state.",
		}, []string{"outcome"}),
		Duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "raidprofile",
			Subsystem: "prestige",
			Name:      "transition_seconds",
			Help:      "Wall time of prestige transitions.",
			Buckets:   prometheus.DefBuckets,
		}),
		SkippedItems: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "raidprofile",
			Subsystem: "prestige",
			Name:      "skipped_items_total",
			Help:      "Transfer requests skipped because the item could not be carried over.",
		}),
		UnhandledRewards: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "raidprofile",
			Subsystem: "prestige",
			Name:      "unhandled_rewards_total",
			Help:      "Rewards not applied, by reward type.",
		}, []string{"type"}),
	}
	reg.MustRegister(m.Transitions, m.Duration, m.SkippedItems, m.UnhandledRewards)
	return m
}

func (m *Metrics) observe(outcome string, d time.Duration) {
	if m == nil {
		return
	}
	m.Transitions.WithLabelValues(outcome).Inc()
	m.Duration.Observe(d.Seconds())
}

func (m *Metrics) skipped(n int) {
	if m == nil || n == 0 {
		return
	}
	m.SkippedItems.Add(float64(n))
}

func (m *Metrics) unhandled(kind string) {
	if m == nil {
		return
	}
	m.UnhandledRewards.WithLabelValues(kind).Inc()
}
