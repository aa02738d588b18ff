// Package executor runs a parsed search query against one or more
// indexer.Engine shards, delegating ranking entirely to each shard's
// searchengine core.
package executor

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/kestrel-search/searchplatform/internal/indexer"
	"github.com/kestrel-search/searchplatform/internal/searchengine"
)

// SearchResult is the response shape returned by both Executor and
// ShardedExecutor.
type SearchResult struct {
	Query     string                   `json:"query"`
	TotalHits int                      `json:"total_hits"`
	Results   []indexer.ScoredDocument `json:"results"`
}

// Executor runs queries against a single (non-sharded) indexer.Engine.
type Executor struct {
	engine *indexer.Engine
	logger *slog.Logger
}

func New(engine *indexer.Engine) *Executor {
	return &Executor{
		engine: engine,
		logger: slog.Default().With("component", "query-executor"),
	}
}

// Execute ranks rawQuery against e.engine, restricted to status if
// non-empty, and truncates to limit results.
func (e *Executor) Execute(ctx context.Context, rawQuery string, status string, limit int) (*SearchResult, error) {
	results, err := e.rank(rawQuery, status)
	if err != nil {
		return nil, fmt.Errorf("executing query %q: %w", rawQuery, err)
	}
	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	e.logger.Info("query executed",
		"query", rawQuery,
		"status", status,
		"results", len(results),
	)
	return &SearchResult{
		Query:     rawQuery,
		TotalHits: len(results),
		Results:   results,
	}, nil
}

func (e *Executor) rank(rawQuery, status string) ([]indexer.ScoredDocument, error) {
	if status == "" {
		return e.engine.FindTopDocuments(rawQuery)
	}
	parsed, ok := searchengine.ParseStatus(status)
	if !ok {
		return nil, fmt.Errorf("unknown status %q", status)
	}
	return e.engine.FindTopDocumentsByStatus(rawQuery, parsed)
}
