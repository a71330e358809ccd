package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ProtocolMetrics tracks the emergency protocol's transition activity.
type ProtocolMetrics struct {
	transitionsTotal *prometheus.CounterVec
	ignoredEvents    *prometheus.CounterVec
	episodesTotal    *prometheus.CounterVec
	alertsTotal      *prometheus.CounterVec
	episodeDuration  prometheus.Histogram
}

// NewProtocolMetrics registers the protocol collectors on the default registry.
func NewProtocolMetrics() *ProtocolMetrics {
	return &ProtocolMetrics{
		transitionsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protocol_transitions_total",
				Help: "Protocol state transitions by source state, target state and event",
			},
			[]string{"from", "to", "event"},
		),
		ignoredEvents: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protocol_ignored_events_total",
				Help: "Events received in a state where they are not valid",
			},
			[]string{"state", "event"},
		),
		episodesTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protocol_episodes_total",
				Help: "Resolved emergency episodes by resolution reason",
			},
			[]string{"resolution"},
		),
		alertsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "protocol_alerts_total",
				Help: "Alert deliveries attempted, by kind and outcome",
			},
			[]string{"kind", "outcome"},
		),
		episodeDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "protocol_episode_duration_seconds",
				Help:    "Wall time from trigger to resolution",
				Buckets: prometheus.ExponentialBuckets(10, 2, 10),
			},
		),
	}
}

// ObserveTransition records one state change.
func (m *ProtocolMetrics) ObserveTransition(from, to, event string) {
	m.transitionsTotal.WithLabelValues(from, to, event).Inc()
}

// ObserveIgnoredEvent records an invalid (state, event) no-op.
func (m *ProtocolMetrics) ObserveIgnoredEvent(state, event string) {
	m.ignoredEvents.WithLabelValues(state, event).Inc()
}

// ObserveEpisodeResolved records the resolution and total episode duration.
func (m *ProtocolMetrics) ObserveEpisodeResolved(resolution string, d time.Duration) {
	m.episodesTotal.WithLabelValues(resolution).Inc()
	m.episodeDuration.Observe(d.Seconds())
}

// ObserveAlert records one alert delivery attempt.
func (m *ProtocolMetrics) ObserveAlert(kind string, success bool) {
	outcome := "ok"
	if !success {
		outcome = "failed"
	}
	m.alertsTotal.WithLabelValues(kind, outcome).Inc()
}

// ScoringMetrics tracks the threat scoring engine.
type ScoringMetrics struct {
	analysisDuration prometheus.Histogram
	currentScore     prometheus.Gauge
	sourceFailures   *prometheus.CounterVec
	cacheHits        prometheus.Counter
	timeouts         prometheus.Counter
}

// NewScoringMetrics registers the scoring collectors on the default registry.
func NewScoringMetrics() *ScoringMetrics {
	return &ScoringMetrics{
		analysisDuration: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "threat_analysis_duration_seconds",
				Help:    "End-to-end latency of one scoring pass",
				Buckets: []float64{0.01, 0.05, 0.1, 0.2, 0.3, 0.4, 0.5, 1},
			},
		),
		currentScore: promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "threat_score_current",
				Help: "Most recent threat score in [0,1]",
			},
		),
		sourceFailures: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "threat_source_failures_total",
				Help: "Scoring source fetches that errored or timed out",
			},
			[]string{"category"},
		),
		cacheHits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "threat_analysis_cache_hits_total",
				Help: "Analyses served from the fresh cached result",
			},
		),
		timeouts: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "threat_analysis_timeouts_total",
				Help: "Scoring passes that hit the fan-out deadline",
			},
		),
	}
}

// ObserveAnalysis records the latency and resulting score of one pass.
func (m *ScoringMetrics) ObserveAnalysis(d time.Duration, score float64) {
	m.analysisDuration.Observe(d.Seconds())
	m.currentScore.Set(score)
}

// ObserveSourceFailure records one source fetch failure.
func (m *ScoringMetrics) ObserveSourceFailure(category string) {
	m.sourceFailures.WithLabelValues(category).Inc()
}

// ObserveCacheHit records an analysis served from cache.
func (m *ScoringMetrics) ObserveCacheHit() { m.cacheHits.Inc() }

// ObserveTimeout records a fan-out deadline hit.
func (m *ScoringMetrics) ObserveTimeout() { m.timeouts.Inc() }
