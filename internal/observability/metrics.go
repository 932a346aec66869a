package observability

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LikeToggles counts toggle attempts by result (liked, unliked, unauthenticated, in_flight).
	LikeToggles = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linesen_like_toggles_total",
		Help: "Total number of like toggles by result",
	}, []string{"result"})

	// RemoteWriteFailures counts swallowed or propagated remote write failures by collection.
	RemoteWriteFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linesen_remote_write_failures_total",
		Help: "Total number of failed remote writes by collection",
	}, []string{"collection"})

	// PartialDeletes counts artworks whose row was deleted but whose asset removal failed.
	PartialDeletes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linesen_partial_deletes_total",
		Help: "Total number of deletes that left an orphaned asset",
	})

	// SettledCountDrift counts settlements where the store's count differed from the optimistic one.
	SettledCountDrift = promauto.NewCounter(prometheus.CounterOpts{
		Name: "linesen_settled_count_drift_total",
		Help: "Total number of like settlements that corrected the optimistic count",
	})

	// CacheLookups counts cache-aside lookups by result (hit, miss, error,
	// stale_fill).
	CacheLookups = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linesen_cache_lookups_total",
		Help: "Total number of cache lookups by result",
	}, []string{"result"})

	// RedisErrors counts Redis errors by command.
	RedisErrors = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linesen_redis_errors_total",
		Help: "Total number of Redis errors by command",
	}, []string{"command"})

	// SessionEvents counts identity change events by kind.
	SessionEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "linesen_session_events_total",
		Help: "Total number of identity change events observed",
	}, []string{"event"})
)
