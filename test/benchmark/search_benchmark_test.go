package benchmark

import (
	"context"
	"fmt"
	"testing"

	"github.com/kestrel-search/searchplatform/internal/indexer"
	"github.com/kestrel-search/searchplatform/internal/searchengine"
	"github.com/kestrel-search/searchplatform/internal/searchengine/query"
	"github.com/kestrel-search/searchplatform/internal/searchengine/token"
	"github.com/kestrel-search/searchplatform/internal/searcher/executor"
	"github.com/kestrel-search/searchplatform/pkg/config"
)

var emptyStopWords, _ = token.NewStopWords(nil)

// BenchmarkQueryParse measures plus/minus query parsing latency for queries
// of varying complexity.
func BenchmarkQueryParse(b *testing.B) {
	queries := []struct {
		name  string
		query string
	}{
		{"simple", "distributed systems"},
		{"with_minus", "distributed -monolithic"},
		{"multi_minus", "search ranking -analytics -deprecated"},
		{"long", "distributed search analytics platform indexing query processing ranking caching sharding"},
	}

	for _, q := range queries {
		b.Run(q.name, func(b *testing.B) {
			b.ReportAllocs()
			for i := 0; i < b.N; i++ {
				parsed, err := query.Parse(q.query, emptyStopWords)
				if err != nil {
					b.Fatal(err)
				}
				_ = parsed
			}
		})
	}
}

// BenchmarkTFIDFRanking measures the core's ranked retrieval for different
// corpus sizes.
func BenchmarkTFIDFRanking(b *testing.B) {
	sizes := []int{100, 1000, 10000}
	for _, numDocs := range sizes {
		b.Run(fmt.Sprintf("docs_%d", numDocs), func(b *testing.B) {
			e, err := searchengine.New(nil)
			if err != nil {
				b.Fatal(err)
			}
			for i := 0; i < numDocs; i++ {
				if err := e.AddDocument(i, "search engine platform for distributed analytics", searchengine.StatusActual, []int{(i % 10) + 1}); err != nil {
					b.Fatal(err)
				}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ranked, err := e.FindTopDocuments("search")
				if err != nil {
					b.Fatal(err)
				}
				_ = ranked
			}
		})
	}
}

// BenchmarkTFIDFMultiTerm measures ranking with an increasing number of
// plus-word query terms.
func BenchmarkTFIDFMultiTerm(b *testing.B) {
	termCount := []int{1, 3, 5, 10}
	allTerms := []string{"term0", "term1", "term2", "term3", "term4", "term5", "term6", "term7", "term8", "term9"}
	for _, tc := range termCount {
		b.Run(fmt.Sprintf("terms_%d", tc), func(b *testing.B) {
			e, err := searchengine.New(nil)
			if err != nil {
				b.Fatal(err)
			}
			for i := 0; i < 500; i++ {
				text := ""
				for t := 0; t < tc; t++ {
					text += allTerms[t] + " "
				}
				if err := e.AddDocument(i, text, searchengine.StatusActual, []int{(i % 5) + 1}); err != nil {
					b.Fatal(err)
				}
			}
			rawQuery := ""
			for t := 0; t < tc; t++ {
				rawQuery += allTerms[t] + " "
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				ranked, err := e.FindTopDocuments(rawQuery)
				if err != nil {
					b.Fatal(err)
				}
				_ = ranked
			}
		})
	}
}

// BenchmarkShardedExecutor exercises the sharded query executor with
// varying shard counts.
func BenchmarkShardedExecutor(b *testing.B) {
	shardCounts := []int{1, 4, 8}
	for _, numShards := range shardCounts {
		b.Run(fmt.Sprintf("shards_%d", numShards), func(b *testing.B) {
			engines := make(map[int]*indexer.Engine)
			for s := 0; s < numShards; s++ {
				cfg := config.IndexerConfig{
					DataDir:        b.TempDir(),
					SegmentMaxSize: 100 * 1024 * 1024,
					FlushInterval:  0,
				}
				engine, err := indexer.NewEngine(cfg)
				if err != nil {
					b.Fatal(err)
				}
				defer engine.Close()

				for d := 0; d < 1000; d++ {
					docID := fmt.Sprintf("shard%d-doc%d", s, d)
					engine.IndexDocument(docID, "distributed search",
						"search analytics platform with distributed indexing and query ranking")
				}
				engines[s] = engine
			}

			exec := executor.NewSharded(engines)

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				result, err := exec.Execute(context.Background(), "distributed search", "", 10)
				if err != nil {
					b.Fatal(err)
				}
				_ = result
			}
		})
	}
}

// BenchmarkShardedExecutorParallel measures concurrent sharded search
// throughput across 8 shards.
func BenchmarkShardedExecutorParallel(b *testing.B) {
	engines := make(map[int]*indexer.Engine)
	for s := 0; s < 8; s++ {
		cfg := config.IndexerConfig{
			DataDir:        b.TempDir(),
			SegmentMaxSize: 100 * 1024 * 1024,
			FlushInterval:  0,
		}
		engine, err := indexer.NewEngine(cfg)
		if err != nil {
			b.Fatal(err)
		}
		defer engine.Close()

		for d := 0; d < 1000; d++ {
			docID := fmt.Sprintf("shard%d-doc%d", s, d)
			engine.IndexDocument(docID, "distributed search analytics",
				"platform with distributed search indexing query processing and ranking engine")
		}
		engines[s] = engine
	}

	exec := executor.NewSharded(engines)

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			result, err := exec.Execute(context.Background(), "distributed search", "", 10)
			if err != nil {
				b.Fatal(err)
			}
			_ = result
		}
	})
}
