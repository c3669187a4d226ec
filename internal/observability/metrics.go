// Package observability provides Prometheus metrics and OpenTelemetry tracing.
package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"gorm.io/gorm"
)

var (
	// RedisErrorRate counts Redis errors by operation type.
	RedisErrorRate = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_redis_error_rate_total",
		Help: "Total number of Redis errors by operation type",
	}, []string{"operation"})

	// DatabaseQueryLatency records database query latency by operation and table.
	DatabaseQueryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_database_query_latency_seconds",
		Help:    "Database query latency in seconds",
		Buckets: prometheus.DefBuckets,
	}, []string{"operation", "table"})

	// CacheRequests counts cache lookups by cache name, layer and result.
	CacheRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_cache_requests_total",
		Help: "Cache lookups by cache, layer (local|redis) and result (hit|miss)",
	}, []string{"cache", "layer", "result"})

	// DomainEvents counts business events (post_created, comment_created, post_liked, ...).
	DomainEvents = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_domain_events_total",
		Help: "Business events by type",
	}, []string{"event"})

	// AISummaryRequests counts summarization calls by provider and outcome.
	AISummaryRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "inkwell_ai_summary_requests_total",
		Help: "AI summary requests by provider and outcome",
	}, []string{"provider", "outcome"})

	// AISummaryLatency records provider round-trip time.
	AISummaryLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "inkwell_ai_summary_latency_seconds",
		Help:    "AI provider latency in seconds",
		Buckets: []float64{0.25, 0.5, 1, 2, 5, 10, 20},
	}, []string{"provider"})
)

// RecordEvent increments the counter for a business event.
func RecordEvent(event string) {
	DomainEvents.WithLabelValues(event).Inc()
}

// RecordCache records a cache lookup result.
func RecordCache(cache, layer string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	CacheRequests.WithLabelValues(cache, layer, result).Inc()
}

const queryStartKey = "inkwell:query_start"

// RegisterGormMetrics installs GORM callbacks that observe query latency per
// operation and table.
func RegisterGormMetrics(db *gorm.DB) error {
	before := func(tx *gorm.DB) {
		tx.InstanceSet(queryStartKey, time.Now())
	}
	after := func(op string) func(*gorm.DB) {
		return func(tx *gorm.DB) {
			v, ok := tx.InstanceGet(queryStartKey)
			if !ok {
				return
			}
			start, ok := v.(time.Time)
			if !ok {
				return
			}
			table := tx.Statement.Table
			if table == "" {
				table = "raw"
			}
			DatabaseQueryLatency.WithLabelValues(op, table).Observe(time.Since(start).Seconds())
		}
	}

	cb := db.Callback()
	steps := []struct {
		op     string
		before func(string) error
		after  func(string) error
	}{
		{"create", func(n string) error { return cb.Create().Before("gorm:create").Register(n, before) },
			func(n string) error { return cb.Create().After("gorm:create").Register(n, after("create")) }},
		{"query", func(n string) error { return cb.Query().Before("gorm:query").Register(n, before) },
			func(n string) error { return cb.Query().After("gorm:query").Register(n, after("query")) }},
		{"update", func(n string) error { return cb.Update().Before("gorm:update").Register(n, before) },
			func(n string) error { return cb.Update().After("gorm:update").Register(n, after("update")) }},
		{"delete", func(n string) error { return cb.Delete().Before("gorm:delete").Register(n, before) },
			func(n string) error { return cb.Delete().After("gorm:delete").Register(n, after("delete")) }},
		{"row", func(n string) error { return cb.Row().Before("gorm:row").Register(n, before) },
			func(n string) error { return cb.Row().After("gorm:row").Register(n, after("row")) }},
		{"raw", func(n string) error { return cb.Raw().Before("gorm:raw").Register(n, before) },
			func(n string) error { return cb.Raw().After("gorm:raw").Register(n, after("raw")) }},
	}
	for _, s := range steps {
		if err := s.before("metrics:before_" + s.op); err != nil {
			return err
		}
		if err := s.after("metrics:after_" + s.op); err != nil {
			return err
		}
	}
	return nil
}
