package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rwid_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// CacheLookups counts cache-aside lookups by key family and result.
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rwid_cache_lookups_total",
		Help: "Cache-aside lookups by key family and result (hit, miss, bypass)",
	}, []string{"family", "result"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "rwid_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// LoginAttempts counts sign-in attempts by method and outcome.
	LoginAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rwid_login_attempts_total",
		Help: "Sign-in attempts by method (password, google, impersonation) and outcome",
	}, []string{"method", "outcome"})

	// ReactionToggles counts like toggles by resulting action.
	ReactionToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rwid_reaction_toggles_total",
		Help: "Post like toggles by action (liked, unliked)",
	}, []string{"action"})

	// BookmarkToggles counts bookmark toggles by resulting action.
	BookmarkToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rwid_bookmark_toggles_total",
		Help: "Post bookmark toggles by action (added, removed)",
	}, []string{"action"})

	// FeedLoads counts community feed loads by mode.
	FeedLoads = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "rwid_feed_loads_total",
		Help: "Community feed loads by mode (full, pinned)",
	}, []string{"mode"})
)

// DatabaseMetrics records query latency for one repository.
type DatabaseMetrics struct {
	table string
}

// NewDatabaseMetrics returns a DatabaseMetrics for the given table.
func NewDatabaseMetrics(table string) *DatabaseMetrics {
	return &DatabaseMetrics{table: table}
}

// ObserveQuery records the latency of a database query.
func (m *DatabaseMetrics) ObserveQuery(operation string, start time.Time) {
	DatabaseQueryLatency.WithLabelValues(operation, m.table).Observe(time.Since(start).Seconds())
}

// TrackQuery returns a function that records query latency when called (e.g. defer).
func (m *DatabaseMetrics) TrackQuery(operation string) func() {
	start := time.Now()
	return func() {
		m.ObserveQuery(operation, start)
	}
}

// ToggleAction names the resulting state of a toggle for metric labels.
func ToggleAction(on bool, onLabel, offLabel string) string {
	if on {
		return onLabel
	}
	return offLabel
}
