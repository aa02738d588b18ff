// Package dispatch runs independent queries against a searchengine.Engine
// concurrently, since distinct queries share no mutable state beyond the
// engine's own internal locking.
package dispatch

import (
	"golang.org/x/sync/errgroup"

	"github.com/kestrel-search/searchplatform/internal/searchengine"
)

// ProcessQueries runs every query in queries against engine concurrently
// and returns one result slice per query, in the same order as queries.
// A per-query error (e.g. a malformed minus-word) fails only that query's
// slot; ProcessQueries itself only fails if engine rejects a query with an
// error unrelated to the query text, which the current engine never does,
// so in practice this always returns a nil error.
func ProcessQueries(engine *searchengine.Engine, queries []string) ([][]searchengine.ScoredDocument, error) {
	results := make([][]searchengine.ScoredDocument, len(queries))

	var g errgroup.Group
	for i, rawQuery := range queries {
		i, rawQuery := i, rawQuery
		g.Go(func() error {
			docs, err := engine.FindTopDocuments(rawQuery)
			if err != nil {
				results[i] = nil
				return nil
			}
			results[i] = docs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// ProcessQueriesJoined is ProcessQueries with every query's results
// flattened into a single slice, queries processed in input order,
// documents within a query's slot kept in that query's own ranked order.
func ProcessQueriesJoined(engine *searchengine.Engine, queries []string) ([]searchengine.ScoredDocument, error) {
	perQuery, err := ProcessQueries(engine, queries)
	if err != nil {
		return nil, err
	}

	total := 0
	for _, docs := range perQuery {
		total += len(docs)
	}

	joined := make([]searchengine.ScoredDocument, 0, total)
	for _, docs := range perQuery {
		joined = append(joined, docs...)
	}
	return joined, nil
}
