package analytics

import "time"

type EventType string

const (
	EventSearch          EventType = "search"
	EventCacheHit        EventType = "cache_hit"
	EventCacheMiss       EventType = "cache_miss"
	EventIndexDoc        EventType = "index_document"
	EventZeroResult      EventType = "zero_result"
	EventDocumentOutcome EventType = "document_outcome"
)

// DocumentOutcome mirrors the status a document lands in after an index
// attempt (see internal/indexer/consumer.docStatusFor): INDEXED on success,
// REJECTED when the engine permanently refused the content (e.g. a
// control-byte term), FAILED for anything else.
type DocumentOutcome string

const (
	OutcomeIndexed  DocumentOutcome = "INDEXED"
	OutcomeRejected DocumentOutcome = "REJECTED"
	OutcomeFailed   DocumentOutcome = "FAILED"
)

type SearchEvent struct {
	Type         EventType `json:"type"`
	Query        string    `json:"query"`
	Terms        []string  `json:"terms"`
	StatusFilter string    `json:"status_filter,omitempty"`
	TotalHits    int       `json:"total_hits"`
	Returned     int       `json:"returned"`
	LatencyMs    int64     `json:"latency_ms"`
	CacheHit     bool      `json:"cache_hit"`
	ShardCount   int       `json:"shard_count"`
	Timestamp    time.Time `json:"timestamp"`
	RequestID    string    `json:"request_id"`
}

// IndexEvent records the outcome of a single indexing attempt at the
// Kafka consumer boundary, carrying the final document status so the
// aggregator can track indexing failure and rejection rates alongside
// search latency.
type IndexEvent struct {
	Type       EventType       `json:"type"`
	DocumentID string          `json:"document_id"`
	ShardID    int             `json:"shard_id"`
	Outcome    DocumentOutcome `json:"outcome"`
	TokenCount int             `json:"token_count"`
	SizeBytes  int             `json:"size_bytes"`
	LatencyMs  int64           `json:"latency_ms"`
	Timestamp  time.Time       `json:"timestamp"`
}
