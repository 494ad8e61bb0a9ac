// Package metrics provides Prometheus metrics for the analysis engine.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"
)

// EngineMetrics collects and exposes analysis-related Prometheus metrics.
type EngineMetrics struct {
	registry *prometheus.Registry

	// Batch metrics
	AnalysisRuns     *prometheus.CounterVec
	AnalysisDuration *prometheus.HistogramVec
	MarketsAnalyzed  *prometheus.CounterVec
	ActiveMarkets    *prometheus.GaugeVec

	// Estimate metrics
	EstimatesTotal     *prometheus.CounterVec
	EstimateConfidence *prometheus.HistogramVec
	SanityDamped       *prometheus.CounterVec
	NewsRelevance      *prometheus.HistogramVec

	// Opportunity metrics
	OpportunitiesTotal *prometheus.CounterVec
	OpportunityEdge    *prometheus.HistogramVec
	OverallScore       *prometheus.HistogramVec
	KellyFraction      *prometheus.HistogramVec

	// Upstream API metrics
	APIRequests *prometheus.CounterVec
	APILatency  *prometheus.HistogramVec

	// Prediction log metrics
	PredictionsLogged   *prometheus.CounterVec
	PredictionsResolved *prometheus.CounterVec
	HitRate             *prometheus.GaugeVec
	TotalReturn         *prometheus.GaugeVec
	BrierScore          *prometheus.GaugeVec

	// Settlement stream metrics
	StreamConnected  *prometheus.GaugeVec
	StreamMessages   *prometheus.CounterVec
	StreamReconnects *prometheus.CounterVec
}

// NewEngineMetrics creates a new metrics collector with its own registry.
func NewEngineMetrics() *EngineMetrics {
	registry := prometheus.NewRegistry()

	em := &EngineMetrics{
		registry: registry,

		AnalysisRuns: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_analysis_runs_total",
				Help: "Total number of batch analysis runs",
			},
			[]string{"status"},
		),
		AnalysisDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polyedge_analysis_duration_seconds",
				Help:    "Wall-clock duration of a batch analysis run",
				Buckets: prometheus.ExponentialBuckets(0.1, 2, 12), // 100ms to ~3.5min
			},
			[]string{},
		),
		MarketsAnalyzed: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_markets_analyzed_total",
				Help: "Markets processed per batch outcome",
			},
			[]string{"result"},
		),
		ActiveMarkets: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "polyedge_active_markets",
				Help: "Open markets seen in the latest batch",
			},
			[]string{},
		),

		EstimatesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_estimates_total",
				Help: "Fair-value estimates produced, by model",
			},
			[]string{"model"},
		),
		EstimateConfidence: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polyedge_estimate_confidence",
				Help:    "Confidence of fair-value estimates",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{"model"},
		),
		SanityDamped: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_sanity_damped_total",
				Help: "Estimates pulled toward the market price by the sanity check",
			},
			[]string{},
		),
		NewsRelevance: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polyedge_news_relevance",
				Help:    "News relevance score per analyzed market",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{},
		),

		OpportunitiesTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_opportunities_total",
				Help: "Scored opportunities, by side and risk level",
			},
			[]string{"side", "risk"},
		),
		OpportunityEdge: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polyedge_opportunity_edge",
				Help:    "Absolute edge of scored opportunities",
				Buckets: prometheus.LinearBuckets(0.1, 0.05, 12),
			},
			[]string{},
		),
		OverallScore: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polyedge_overall_score",
				Help:    "Overall score of opportunities",
				Buckets: prometheus.LinearBuckets(0, 0.1, 11),
			},
			[]string{},
		),
		KellyFraction: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polyedge_kelly_fraction",
				Help:    "Recommended position size as bankroll fraction",
				Buckets: []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.15, 0.2, 0.25},
			},
			[]string{},
		),

		APIRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_api_requests_total",
				Help: "Upstream API requests, by API and status",
			},
			[]string{"api", "status"},
		),
		APILatency: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "polyedge_api_latency_seconds",
				Help:    "Upstream API request latency",
				Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
			},
			[]string{"api"},
		),

		PredictionsLogged: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_predictions_logged_total",
				Help: "Predictions written to the log, by side",
			},
			[]string{"side"},
		),
		PredictionsResolved: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_predictions_resolved_total",
				Help: "Predictions settled, by outcome and correctness",
			},
			[]string{"outcome", "correct"},
		),
		HitRate: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "polyedge_hit_rate",
				Help: "Fraction of resolved predictions that were correct",
			},
			[]string{},
		),
		TotalReturn: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "polyedge_total_return",
				Help: "Cumulative realized return across resolved predictions",
			},
			[]string{},
		),
		BrierScore: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "polyedge_brier_score",
				Help: "Mean Brier score over resolved predictions",
			},
			[]string{},
		),

		StreamConnected: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "polyedge_stream_connected",
				Help: "Whether the settlement stream is connected (1 or 0)",
			},
			[]string{},
		),
		StreamMessages: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_stream_messages_total",
				Help: "Settlement stream messages received, by type",
			},
			[]string{"type"},
		),
		StreamReconnects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "polyedge_stream_reconnects_total",
				Help: "Settlement stream reconnect attempts",
			},
			[]string{},
		),
	}

	em.registerAll()

	return em
}

func (em *EngineMetrics) registerAll() {
	em.registry.MustRegister(
		em.AnalysisRuns,
		em.AnalysisDuration,
		em.MarketsAnalyzed,
		em.ActiveMarkets,
		em.EstimatesTotal,
		em.EstimateConfidence,
		em.SanityDamped,
		em.NewsRelevance,
		em.OpportunitiesTotal,
		em.OpportunityEdge,
		em.OverallScore,
		em.KellyFraction,
		em.APIRequests,
		em.APILatency,
		em.PredictionsLogged,
		em.PredictionsResolved,
		em.HitRate,
		em.TotalReturn,
		em.BrierScore,
		em.StreamConnected,
		em.StreamMessages,
		em.StreamReconnects,
	)
}

// Registry returns the underlying Prometheus registry for serving.
func (em *EngineMetrics) Registry() *prometheus.Registry {
	return em.registry
}

// RecordAnalysisRun records a completed (or failed) batch run.
func (em *EngineMetrics) RecordAnalysisRun(status string, durationSec float64, analyzed, skipped, opportunities int) {
	em.AnalysisRuns.WithLabelValues(status).Inc()
	if durationSec > 0 {
		em.AnalysisDuration.WithLabelValues().Observe(durationSec)
	}
	em.MarketsAnalyzed.WithLabelValues("analyzed").Add(float64(analyzed))
	em.MarketsAnalyzed.WithLabelValues("skipped").Add(float64(skipped))
	em.MarketsAnalyzed.WithLabelValues("opportunity").Add(float64(opportunities))
	em.ActiveMarkets.WithLabelValues().Set(float64(analyzed))
}

// RecordEstimate records one fair-value estimate.
func (em *EngineMetrics) RecordEstimate(model string, confidence, newsRelevance float64, damped bool) {
	em.EstimatesTotal.WithLabelValues(model).Inc()
	if confidence >= 0 {
		em.EstimateConfidence.WithLabelValues(model).Observe(confidence)
	}
	em.NewsRelevance.WithLabelValues().Observe(newsRelevance)
	if damped {
		em.SanityDamped.WithLabelValues().Inc()
	}
}

// RecordOpportunity records one scored opportunity.
func (em *EngineMetrics) RecordOpportunity(side, risk string, edge, overall, kelly float64) {
	em.OpportunitiesTotal.WithLabelValues(side, risk).Inc()
	em.OpportunityEdge.WithLabelValues().Observe(edge)
	em.OverallScore.WithLabelValues().Observe(overall)
	if kelly > 0 {
		em.KellyFraction.WithLabelValues().Observe(kelly)
	}
}

// RecordAPIRequest records an upstream request.
func (em *EngineMetrics) RecordAPIRequest(api, status string, latencySec float64) {
	em.APIRequests.WithLabelValues(api, status).Inc()
	if latencySec > 0 {
		em.APILatency.WithLabelValues(api).Observe(latencySec)
	}
}

// RecordPrediction records a logged prediction.
func (em *EngineMetrics) RecordPrediction(side string) {
	em.PredictionsLogged.WithLabelValues(side).Inc()
}

// RecordResolution records a settled prediction.
func (em *EngineMetrics) RecordResolution(outcome string, correct bool) {
	c := "false"
	if correct {
		c = "true"
	}
	em.PredictionsResolved.WithLabelValues(outcome, c).Inc()
}

// UpdateBacktest publishes the latest aggregate performance numbers.
func (em *EngineMetrics) UpdateBacktest(hitRate, totalReturn, brier float64) {
	em.HitRate.WithLabelValues().Set(hitRate)
	em.TotalReturn.WithLabelValues().Set(totalReturn)
	em.BrierScore.WithLabelValues().Set(brier)
}

// StreamUp marks the settlement stream connected or not.
func (em *EngineMetrics) StreamUp(connected bool) {
	v := 0.0
	if connected {
		v = 1.0
	}
	em.StreamConnected.WithLabelValues().Set(v)
}

// RecordStreamMessage records one settlement stream message.
func (em *EngineMetrics) RecordStreamMessage(msgType string) {
	em.StreamMessages.WithLabelValues(msgType).Inc()
}

// RecordStreamReconnect records a reconnect attempt.
func (em *EngineMetrics) RecordStreamReconnect() {
	em.StreamReconnects.WithLabelValues().Inc()
}

// --- Decimal helpers ---

// DecimalToFloat64 safely converts decimal.Decimal to float64 for metrics.
func DecimalToFloat64(d decimal.Decimal) float64 {
	f, _ := d.Float64()
	return f
}
