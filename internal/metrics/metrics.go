// Package metrics provides the centralized Prometheus metrics registry for the prediction engine.
package metrics

import (
	"net/http"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Global registry instance
var (
	registry *prometheus.Registry
	once     sync.Once
)

// Counter metrics
var (
	PredictionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_oracle",
		Name:      "predictions_total",
		Help:      "Total number of predictions served",
	}, []string{"status", "cache"})
	ModelUnavailableTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_oracle",
		Name:      "model_unavailable_total",
		Help:      "Total number of times an estimator signalled absence",
	}, []string{"model"})
	CalibrationStagesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_oracle",
		Name:      "calibration_stages_total",
		Help:      "Total calibration stage executions by outcome",
	}, []string{"stage", "outcome"})
	CircuitBreakerTripsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_oracle",
		Name:      "circuit_breaker_trips_total",
		Help:      "Total number of circuit breaker trips",
	}, []string{"resource"})
	CacheOperationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_oracle",
		Name:      "cache_operations_total",
		Help:      "Total cache operations by kind and outcome",
	}, []string{"op", "outcome"})
	DeadlineDegradationsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: "match_oracle",
		Name:      "deadline_degradations_total",
		Help:      "Total predictions degraded by deadline pressure",
	}, []string{"mode"})
)

// Gauge metrics
var (
	CacheHitRatio = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: "match_oracle",
		Name:      "cache_hit_ratio",
		Help:      "Prediction cache hit ratio since process start",
	})
	LoadedArtifacts = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "match_oracle",
		Name:      "loaded_artifacts",
		Help:      "Number of artifacts currently held in the in-process cache",
	}, []string{"kind"})
	DriftLevel = prometheus.NewGaugeVec(prometheus.GaugeOpts{
		Namespace: "match_oracle",
		Name:      "drift_level",
		Help:      "Advisory drift level per league (0=ok 1=warn 2=high)",
	}, []string{"league"})
)

// Histogram metrics
var (
	PredictionDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
		Namespace: "match_oracle",
		Name:      "prediction_duration_seconds",
		Help:      "End-to-end prediction latency in seconds",
		Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 0.9, 1.5},
	})
	CacheStoreLatency = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "match_oracle",
		Name:      "cache_store_latency_seconds",
		Help:      "Latency of cache store operations in seconds",
		Buckets:   prometheus.DefBuckets,
	}, []string{"op"})
)

// InitRegistry initializes the global Prometheus registry.
func InitRegistry() *prometheus.Registry {
	once.Do(func() {
		registry = prometheus.NewRegistry()

		registry.MustRegister(PredictionsTotal)
		registry.MustRegister(ModelUnavailableTotal)
		registry.MustRegister(CalibrationStagesTotal)
		registry.MustRegister(CircuitBreakerTripsTotal)
		registry.MustRegister(CacheOperationsTotal)
		registry.MustRegister(DeadlineDegradationsTotal)

		registry.MustRegister(CacheHitRatio)
		registry.MustRegister(LoadedArtifacts)
		registry.MustRegister(DriftLevel)

		registry.MustRegister(PredictionDuration)
		registry.MustRegister(CacheStoreLatency)
	})
	return registry
}

// GetRegistry returns the global Prometheus registry.
func GetRegistry() *prometheus.Registry {
	if registry == nil {
		return InitRegistry()
	}
	return registry
}

// Handler returns the Prometheus HTTP handler.
func Handler() http.Handler {
	return promhttp.HandlerFor(GetRegistry(), promhttp.HandlerOpts{})
}

// RecordPrediction records a served prediction with its latency.
func RecordPrediction(status, cache string, durationSeconds float64) {
	PredictionsTotal.WithLabelValues(status, cache).Inc()
	PredictionDuration.Observe(durationSeconds)
}

// RecordModelUnavailable records an estimator signalling absence.
func RecordModelUnavailable(model string) {
	ModelUnavailableTotal.WithLabelValues(model).Inc()
}

// RecordCalibrationStage records one calibration stage execution.
func RecordCalibrationStage(stage, outcome string) {
	CalibrationStagesTotal.WithLabelValues(stage, outcome).Inc()
}

// RecordBreakerTrip records a circuit breaker opening for a resource.
func RecordBreakerTrip(resource string) {
	CircuitBreakerTripsTotal.WithLabelValues(resource).Inc()
}

// RecordCacheOperation records a cache operation outcome.
func RecordCacheOperation(op, outcome string) {
	CacheOperationsTotal.WithLabelValues(op, outcome).Inc()
}

// RecordDeadlineDegradation records a deadline-driven degradation.
func RecordDeadlineDegradation(mode string) {
	DeadlineDegradationsTotal.WithLabelValues(mode).Inc()
}

// UpdateDriftLevel updates the advisory drift gauge for a league.
func UpdateDriftLevel(league string, level float64) {
	DriftLevel.WithLabelValues(league).Set(level)
}
