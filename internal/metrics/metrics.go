// Package metrics registers the Prometheus collectors exported at /metrics
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	FixesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roqua_fixes_total",
		Help: "Position fixes submitted to the ingest pipeline by outcome",
	}, []string{"outcome"})
	FixesDroppedTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roqua_fixes_dropped_total",
		Help: "Position fixes dropped because the ingest worker queue was full",
	})
	RegionsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roqua_regions_total",
		Help: "Region cluster decisions by outcome (created, updated, ignored)",
	}, []string{"outcome"})
	RegionsInMemory = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roqua_regions_in_memory",
		Help: "Regions currently held in memory",
	})
	PersistFailuresTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roqua_persist_failures_total",
		Help: "Durable store write failures by store",
	}, []string{"store"})
	EnrichmentTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roqua_enrichment_total",
		Help: "Reverse geocoding enrichments by result (success, fail, cache_hit)",
	}, []string{"result"})
	EnrichmentDurationMs = prometheus.NewHistogram(prometheus.HistogramOpts{
		Name:    "roqua_enrichment_duration_ms",
		Help:    "Reverse geocoding resolver duration in milliseconds",
		Buckets: []float64{10, 50, 100, 200, 500, 1000, 2000, 5000},
	})
	CoveragePercentage = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "roqua_coverage_percentage",
		Help: "Explored percentage of the world grid",
	})
	CoverageCellsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roqua_coverage_cells_added_total",
		Help: "Coverage cells added since process start",
	})
	AchievementEvaluationsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "roqua_achievement_evaluations_total",
		Help: "Achievement progress evaluations",
	})
	AchievementUnlocksTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roqua_achievement_unlocks_total",
		Help: "Achievement unlocks by rarity",
	}, []string{"rarity"})
	ProgressFlushesTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "roqua_progress_flushes_total",
		Help: "Debounced achievement progress flushes by result",
	}, []string{"result"})
)

func init() {
	prometheus.MustRegister(FixesTotal)
	prometheus.MustRegister(FixesDroppedTotal)
	prometheus.MustRegister(RegionsTotal)
	prometheus.MustRegister(RegionsInMemory)
	prometheus.MustRegister(PersistFailuresTotal)
	prometheus.MustRegister(EnrichmentTotal)
	prometheus.MustRegister(EnrichmentDurationMs)
	prometheus.MustRegister(CoveragePercentage)
	prometheus.MustRegister(CoverageCellsTotal)
	prometheus.MustRegister(AchievementEvaluationsTotal)
	prometheus.MustRegister(AchievementUnlocksTotal)
	prometheus.MustRegister(ProgressFlushesTotal)
}

// Handler returns the Prometheus scrape handler
func Handler() http.Handler { return promhttp.Handler() }
