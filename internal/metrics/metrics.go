package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pollVotesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_poll_votes_total",
			Help: "Poll votes by outcome",
		},
		[]string{"outcome"},
	)

	cascadeRowsDeleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_cascade_rows_deleted_total",
			Help: "Engagement rows removed when a post is deleted",
		},
		[]string{"store"},
	)

	promotionsInjected = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_promotions_injected_total",
			Help: "Promotional posts spliced into assembled feeds",
		},
	)

	materializeDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "feed_materialize_duration_seconds",
			Help:    "Time spent decorating posts with derived fields",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"batch"},
	)

	postsPublished = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "feed_scheduled_posts_published_total",
			Help: "Scheduled posts made public by the publisher",
		},
	)

	cacheLookups = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "feed_relation_cache_lookups_total",
			Help: "Relation cache lookups by kind and result",
		},
		[]string{"kind", "result"},
	)
)

func RecordPollVote(outcome string) {
	pollVotesTotal.WithLabelValues(outcome).Inc()
}

func RecordCascadeDeletion(store string, rows int64) {
	cascadeRowsDeleted.WithLabelValues(store).Add(float64(rows))
}

func RecordPromotionInjected() {
	promotionsInjected.Inc()
}

// RecordMaterialize observes one materializer call. Batches of one are labelled "single".
func RecordMaterialize(posts int, duration time.Duration) {
	batch := "many"
	if posts <= 1 {
		batch = "single"
	}
	materializeDuration.WithLabelValues(batch).Observe(duration.Seconds())
}

func RecordPublished(n int64) {
	postsPublished.Add(float64(n))
}

func RecordCacheLookup(kind string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheLookups.WithLabelValues(kind, result).Inc()
}
