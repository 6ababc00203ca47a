package utils

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	RecommendationsServed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "recommendations_served_total",
			Help: "Recommendation requests by ranker and outcome",
		},
		[]string{"ranker", "outcome"},
	)

	RecommendationDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "recommendation_duration_seconds",
			Help:    "Time spent producing one recommendation list",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"ranker"},
	)

	RecommendationCacheHits = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "recommendation_cache_hits_total",
			Help: "Recommendation lists served from Redis",
		},
	)

	TrainingRuns = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "ranker_training_runs_total",
			Help: "Offline ranker training runs by status",
		},
		[]string{"status"},
	)

	TrainingBestNDCG = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ranker_training_best_ndcg",
			Help: "Validation NDCG of the most recent trained artifact",
		},
		[]string{"at"},
	)
)
