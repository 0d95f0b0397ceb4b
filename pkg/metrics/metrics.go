package metrics

import (
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"
)

var (
	registry     *prometheus.Registry
	registryOnce sync.Once

	// Analysis metrics
	ConversationsAnalyzed  prometheus.Counter
	AnalysisFailures       prometheus.Counter
	UtterancesClassified   prometheus.Counter
	FrictionPointsDetected *prometheus.CounterVec
	BatchDuration          prometheus.Histogram

	// Insight metrics
	SpotlightsGenerated *prometheus.CounterVec

	// Publishing metrics
	RecordsPublished *prometheus.CounterVec
	PublishErrors    prometheus.Counter
)

// Init registers the engine metrics exactly once. Safe to call repeatedly.
func Init(logger *logrus.Logger) {
	registryOnce.Do(func() {
		registry = prometheus.NewRegistry()

		ConversationsAnalyzed = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careinsight_conversations_analyzed_total",
			Help: "Number of conversations analyzed successfully",
		})
		AnalysisFailures = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careinsight_analysis_failures_total",
			Help: "Number of conversations that failed analysis",
		})
		UtterancesClassified = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careinsight_utterances_classified_total",
			Help: "Number of utterances classified",
		})
		FrictionPointsDetected = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careinsight_friction_points_total",
			Help: "Friction points detected by barrier type",
		}, []string{"barrier"})
		BatchDuration = prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "careinsight_batch_duration_seconds",
			Help:    "Wall time of analysis batches",
			Buckets: prometheus.ExponentialBuckets(0.001, 4, 10),
		})
		SpotlightsGenerated = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careinsight_spotlights_generated_total",
			Help: "Spotlights generated by type",
		}, []string{"type"})
		RecordsPublished = prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "careinsight_records_published_total",
			Help: "Analytics records published by kind",
		}, []string{"kind"})
		PublishErrors = prometheus.NewCounter(prometheus.CounterOpts{
			Name: "careinsight_publish_errors_total",
			Help: "Failed analytics publish attempts",
		})

		registry.MustRegister(
			ConversationsAnalyzed,
			AnalysisFailures,
			UtterancesClassified,
			FrictionPointsDetected,
			BatchDuration,
			SpotlightsGenerated,
			RecordsPublished,
			PublishErrors,
		)

		logger.WithField("component", "metrics").Info("Prometheus metrics registered")
	})
}

// Handler exposes the engine registry over HTTP. Init must run first.
func Handler() http.Handler {
	if registry == nil {
		return http.NotFoundHandler()
	}
	return promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
}

// ObserveBatch records a completed batch run.
func ObserveBatch(start time.Time, analyzed, failed int) {
	if registry == nil {
		return
	}
	BatchDuration.Observe(time.Since(start).Seconds())
	ConversationsAnalyzed.Add(float64(analyzed))
	AnalysisFailures.Add(float64(failed))
}

// CountUtterances records classified utterances.
func CountUtterances(n int) {
	if registry == nil {
		return
	}
	UtterancesClassified.Add(float64(n))
}

// CountFrictionPoint records one detected friction point.
func CountFrictionPoint(barrier string) {
	if registry == nil {
		return
	}
	FrictionPointsDetected.WithLabelValues(barrier).Inc()
}

// CountSpotlight records one generated spotlight.
func CountSpotlight(kind string) {
	if registry == nil {
		return
	}
	SpotlightsGenerated.WithLabelValues(kind).Inc()
}

// CountPublished records one published record of the given kind.
func CountPublished(kind string) {
	if registry == nil {
		return
	}
	RecordsPublished.WithLabelValues(kind).Inc()
}

// CountPublishError records a failed publish attempt.
func CountPublishError() {
	if registry == nil {
		return
	}
	PublishErrors.Inc()
}
