// Package metrics exposes this node's Prometheus instrumentation: block
// import throughput, trie cache effectiveness, RLPx session counts, and
// engine API request outcomes.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BlocksImported counts blocks that completed chain.AddBlock successfully.
	BlocksImported = promauto.NewCounter(prometheus.CounterOpts{
		Name: "execution_core_blocks_imported_total",
		Help: "The number of blocks that have been imported onto the canonical chain.",
	})

	// BlockImportDuration tracks wall-clock time spent inside chain.AddBlock,
	// from header validation through receipt/log persistence.
	BlockImportDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "execution_core_block_import_duration_seconds",
		Help:    "Time spent importing a single block, including state-root verification.",
		Buckets: prometheus.DefBuckets,
	})

	// TrieCacheHits and TrieCacheMisses track the trie node cache's effectiveness.
	TrieCacheHits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "execution_core_trie_cache_hits_total",
		Help: "The number of trie node lookups served from the in-memory cache.",
	})
	TrieCacheMisses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "execution_core_trie_cache_misses_total",
		Help: "The number of trie node lookups that required a read from the underlying trie node DB.",
	})

	// RLPxEstablishedSessions is a live gauge of peer connections that have
	// completed their Hello exchange.
	RLPxEstablishedSessions = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "execution_core_rlpx_established_sessions",
		Help: "The number of RLPx connections currently past the Hello exchange.",
	})

	// EngineAPIRequests counts engine API calls by method and resulting status.
	EngineAPIRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "execution_core_engine_api_requests_total",
		Help: "The number of engine API requests handled, labeled by method and payload status.",
	}, []string{"method", "status"})
)
