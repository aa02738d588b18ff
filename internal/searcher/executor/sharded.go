package executor

import (
	"context"
	"fmt"
	"log/slog"

	"golang.org/x/sync/errgroup"

	"github.com/kestrel-search/searchplatform/internal/indexer"
	"github.com/kestrel-search/searchplatform/internal/searcher/merger"
	"github.com/kestrel-search/searchplatform/internal/searchengine"
)

// ShardedExecutor fans a query out to every shard, ranks it independently
// per shard (TF-IDF's idf is corpus-relative, so postings cannot be merged
// across shards before ranking), then merges each shard's already-ranked
// top-K into one global top-K.
type ShardedExecutor struct {
	engines map[int]*indexer.Engine
	logger  *slog.Logger
}

func NewSharded(engines map[int]*indexer.Engine) *ShardedExecutor {
	return &ShardedExecutor{
		engines: engines,
		logger:  slog.Default().With("component", "sharded-executor"),
	}
}

func (se *ShardedExecutor) Execute(ctx context.Context, rawQuery string, status string, limit int) (*SearchResult, error) {
	shardResults, err := se.fanOut(rawQuery, status)
	if err != nil {
		return nil, fmt.Errorf("shard fan-out: %w", err)
	}
	merged := merger.Merge(shardResults, limit)
	se.logger.Info("sharded query executed",
		"query", rawQuery,
		"status", status,
		"shards_queried", len(shardResults),
		"results", len(merged),
	)
	return &SearchResult{
		Query:     rawQuery,
		TotalHits: len(merged),
		Results:   merged,
	}, nil
}

func (se *ShardedExecutor) fanOut(rawQuery, status string) ([][]indexer.ScoredDocument, error) {
	var parsedStatus searchengine.Status
	filterByStatus := false
	if status != "" {
		var ok bool
		parsedStatus, ok = searchengine.ParseStatus(status)
		if !ok {
			return nil, fmt.Errorf("unknown status %q", status)
		}
		filterByStatus = true
	}

	results := make([][]indexer.ScoredDocument, len(se.engines))
	shardIDs := make([]int, 0, len(se.engines))
	for shardID := range se.engines {
		shardIDs = append(shardIDs, shardID)
	}

	var g errgroup.Group
	for i, shardID := range shardIDs {
		i, shardID := i, shardID
		g.Go(func() error {
			engine := se.engines[shardID]
			var (
				res []indexer.ScoredDocument
				err error
			)
			if filterByStatus {
				res, err = engine.FindTopDocumentsByStatus(rawQuery, parsedStatus)
			} else {
				res, err = engine.FindTopDocuments(rawQuery)
			}
			if err != nil {
				return fmt.Errorf("shard %d: %w", shardID, err)
			}
			results[i] = res
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}
