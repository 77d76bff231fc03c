package registry

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"exporthub/pkg/types"
)

var (
	scansTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exporthub",
			Subsystem: "registry",
			Name:      "scans_total",
			Help:      "Total number of configs root scans",
		},
	)

	scanDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Namespace: "exporthub",
			Subsystem: "registry",
			Name:      "scan_duration_seconds",
			Help:      "Duration of configs root scans in seconds",
			Buckets:   prometheus.DefBuckets,
		},
	)

	skippedFilesTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "exporthub",
			Subsystem: "registry",
			Name:      "skipped_files_total",
			Help:      "Card files excluded from scan results",
		},
		[]string{"reason"},
	)

	cardsGauge = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "exporthub",
			Subsystem: "registry",
			Name:      "cards",
			Help:      "Cards loaded by the most recent scan",
		},
	)

	cacheHits = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "exporthub",
			Subsystem: "registry",
			Name:      "cache_hits_total",
			Help:      "Scans served from the cache",
		},
	)
)

func init() {
	prometheus.MustRegister(scansTotal, scanDuration, skippedFilesTotal, cardsGauge, cacheHits)
}

func observeScan(rep types.ScanReport, dur time.Duration) {
	scansTotal.Inc()
	scanDuration.Observe(dur.Seconds())
	cardsGauge.Set(float64(rep.Cards))
	for _, s := range rep.Skipped {
		skippedFilesTotal.WithLabelValues(s.Reason).Inc()
	}
}
