package analytics

import (
	"context"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/kestrel-search/searchplatform/pkg/kafka"
)

// requestWindowSize bounds the rolling sample the aggregator keeps for
// latency percentiles and the no-result ratio, mirroring the core engine's
// request-window invariant (spec §6: window size 1440) rather than
// accumulating an unbounded history for the lifetime of the process.
const requestWindowSize = 1440

type AggregatedStats struct {
	TotalSearches     int64        `json:"total_searches"`
	TotalDocIndexed   int64        `json:"total_docs_indexed"`
	DocsRejected      int64        `json:"docs_rejected"`
	DocsFailed        int64        `json:"docs_failed"`
	CacheHits         int64        `json:"cache_hits"`
	CacheMisses       int64        `json:"cache_misses"`
	ZeroResultCount   int64        `json:"zero_result_count"`
	NoResultRatio     float64      `json:"no_result_ratio"`
	AvgLatencyMs      float64      `json:"avg_latency_ms"`
	P50LatencyMs      int64        `json:"p50_latency_ms"`
	P95LatencyMs      int64        `json:"p95_latency_ms"`
	P99LatencyMs      int64        `json:"p99_latency_ms"`
	TopQueries        []QueryCount `json:"top_queries"`
	ZeroResultQueries []QueryCount `json:"zero_result_queries"`
	QueriesPerMinute  float64      `json:"queries_per_minute"`
}

type QueryCount struct {
	Query string `json:"query"`
	Count int64  `json:"count"`
}

// Aggregator consumes SearchEvent/IndexEvent records off Kafka and folds
// them into running counters plus a bounded window of recent latency and
// hit-rate samples, serving as the backing store for the analytics HTTP
// endpoint.
type Aggregator struct {
	mu                sync.RWMutex
	totalSearches     atomic.Int64
	totalDocIndexed   atomic.Int64
	docsRejected      atomic.Int64
	docsFailed        atomic.Int64
	cacheHits         atomic.Int64
	cacheMisses       atomic.Int64
	zeroResults       atomic.Int64
	latencyWindow     []int64
	zeroResultWindow  []bool
	windowPos         int
	queryCounts       map[string]int64
	zeroResultQueries map[string]int64
	startTime         time.Time

	consumer *kafka.Consumer
	logger   *slog.Logger
}

func NewAggregator(consumer *kafka.Consumer) *Aggregator {
	return &Aggregator{
		latencyWindow:     make([]int64, 0, requestWindowSize),
		zeroResultWindow:  make([]bool, 0, requestWindowSize),
		queryCounts:       make(map[string]int64),
		zeroResultQueries: make(map[string]int64),
		startTime:         time.Now(),
		consumer:          consumer,
		logger:            slog.Default().With("component", "analytics-aggregator"),
	}
}

func (a *Aggregator) Start(ctx context.Context) error {
	a.logger.Info("analytics aggregator starting", "window_size", requestWindowSize)
	return a.consumer.Start(ctx)
}

// HandleEvent returns a Kafka MessageHandler that folds decoded analytics
// events into the aggregator. A message is tried as a SearchEvent first
// and falls back to IndexEvent, since both ride the same analytics topic;
// a message whose type is an indexing type is always read as an IndexEvent.
func HandleEvent(agg *Aggregator) kafka.MessageHandler {
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := kafka.DecodeJSON[SearchEvent](value)
		if err == nil && event.Type != EventDocumentOutcome && event.Type != EventIndexDoc {
			agg.recordSearchEvent(event)
			return nil
		}
		idxEvent, idxErr := kafka.DecodeJSON[IndexEvent](value)
		if idxErr != nil {
			agg.logger.Error("failed to decode analytics event",
				"error", idxErr,
			)
			return nil
		}
		agg.recordIndexEvent(idxEvent)
		return nil
	}
}

func (a *Aggregator) recordSearchEvent(event SearchEvent) {
	a.totalSearches.Add(1)

	if event.CacheHit {
		a.cacheHits.Add(1)
	} else {
		a.cacheMisses.Add(1)
	}

	isZeroResult := event.TotalHits == 0
	if isZeroResult {
		a.zeroResults.Add(1)
	}

	a.mu.Lock()
	a.pushWindowSample(event.LatencyMs, isZeroResult)
	a.queryCounts[event.Query]++
	if isZeroResult {
		a.zeroResultQueries[event.Query]++
	}
	a.mu.Unlock()
}

// pushWindowSample records a latency/zero-result sample into the bounded
// request window, overwriting the oldest entry once the window is full.
// Must be called with a.mu held.
func (a *Aggregator) pushWindowSample(latencyMs int64, zeroResult bool) {
	if len(a.latencyWindow) < requestWindowSize {
		a.latencyWindow = append(a.latencyWindow, latencyMs)
		a.zeroResultWindow = append(a.zeroResultWindow, zeroResult)
		return
	}
	a.latencyWindow[a.windowPos] = latencyMs
	a.zeroResultWindow[a.windowPos] = zeroResult
	a.windowPos = (a.windowPos + 1) % requestWindowSize
}

func (a *Aggregator) recordIndexEvent(event IndexEvent) {
	switch event.Outcome {
	case OutcomeRejected:
		a.docsRejected.Add(1)
	case OutcomeFailed:
		a.docsFailed.Add(1)
	default:
		a.totalDocIndexed.Add(1)
	}
}

func (a *Aggregator) Stats() AggregatedStats {
	a.mu.RLock()
	defer a.mu.RUnlock()

	stats := AggregatedStats{
		TotalSearches:   a.totalSearches.Load(),
		TotalDocIndexed: a.totalDocIndexed.Load(),
		DocsRejected:    a.docsRejected.Load(),
		DocsFailed:      a.docsFailed.Load(),
		CacheHits:       a.cacheHits.Load(),
		CacheMisses:     a.cacheMisses.Load(),
		ZeroResultCount: a.zeroResults.Load(),
	}
	if len(a.latencyWindow) > 0 {
		sorted := make([]int64, len(a.latencyWindow))
		copy(sorted, a.latencyWindow)
		sort.Slice(sorted, func(i, j int) bool { return sorted[i] < sorted[j] })

		var sum int64
		for _, l := range sorted {
			sum += l
		}
		stats.AvgLatencyMs = float64(sum) / float64(len(sorted))
		stats.P50LatencyMs = percentile(sorted, 50)
		stats.P95LatencyMs = percentile(sorted, 95)
		stats.P99LatencyMs = percentile(sorted, 99)

		var zeroCount int
		for _, z := range a.zeroResultWindow {
			if z {
				zeroCount++
			}
		}
		stats.NoResultRatio = float64(zeroCount) / float64(len(a.zeroResultWindow))
	}
	stats.TopQueries = topN(a.queryCounts, 10)
	stats.ZeroResultQueries = topN(a.zeroResultQueries, 10)
	elapsed := time.Since(a.startTime).Minutes()
	if elapsed > 0 {
		stats.QueriesPerMinute = float64(stats.TotalSearches) / elapsed
	}

	return stats
}

func percentile(sorted []int64, pct int) int64 {
	if len(sorted) == 0 {
		return 0
	}
	idx := (pct * len(sorted)) / 100
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}

func topN(counts map[string]int64, n int) []QueryCount {
	result := make([]QueryCount, 0, len(counts))
	for query, count := range counts {
		result = append(result, QueryCount{Query: query, Count: count})
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Count > result[j].Count
	})
	if len(result) > n {
		result = result[:n]
	}
	return result
}
