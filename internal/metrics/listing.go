package metrics

import "github.com/prometheus/client_golang/prometheus"

// Listing Prometheus metrics.
var (
	ListingQueryDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "doctor_listing",
			Name:      "query_duration_seconds",
			Help:      "Doctor listing store query duration in seconds",
			Buckets:   []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"sort", "status"},
	)

	ListingQueryFailuresTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "doctor_listing",
			Name:      "query_failures_total",
			Help:      "Total number of failed listing queries",
		},
	)

	ListingPostFilteredTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "doctor_listing",
			Name:      "post_filtered_records_total",
			Help:      "Records removed by the client-side fee filter after the store returned them",
		},
	)

	ListingSupersededTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "doctor_listing",
			Name:      "superseded_responses_total",
			Help:      "Query responses discarded because a newer query was issued",
		},
	)

	ListingActiveSessions = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "doctor_listing",
			Name:      "active_sessions",
			Help:      "Listing sessions currently held in memory",
		},
	)

	FacetCacheTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "doctor_listing",
			Name:      "facet_cache_total",
			Help:      "Facet cache hits and misses",
		},
		[]string{"result"}, // "hit" / "miss" / "error"
	)
)

func init() {
	prometheus.MustRegister(ListingQueryDuration)
	prometheus.MustRegister(ListingQueryFailuresTotal)
	prometheus.MustRegister(ListingPostFilteredTotal)
	prometheus.MustRegister(ListingSupersededTotal)
	prometheus.MustRegister(ListingActiveSessions)
	prometheus.MustRegister(FacetCacheTotal)
}
