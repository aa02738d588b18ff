// Package benchmark contains Go benchmarks for the search engine core, the
// indexer engine, and the search pipeline, measuring throughput and
// allocation behaviour.
package benchmark

import (
	"fmt"
	"testing"

	"github.com/kestrel-search/searchplatform/internal/indexer"
	"github.com/kestrel-search/searchplatform/internal/searchengine"
	"github.com/kestrel-search/searchplatform/pkg/config"
)

// BenchmarkCoreAddDocument measures per-document insert throughput into the
// search engine core's inverted index.
func BenchmarkCoreAddDocument(b *testing.B) {
	e, err := searchengine.New(nil)
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		err := e.AddDocument(i, "this is a benchmark document with several terms for testing the indexing performance of our search engine core", searchengine.StatusActual, []int{1})
		if err != nil {
			b.Fatal(err)
		}
	}
}

// BenchmarkCoreFindTopDocuments measures single-term ranked retrieval
// latency over 10 000 documents.
func BenchmarkCoreFindTopDocuments(b *testing.B) {
	e, err := searchengine.New(nil)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 10000; i++ {
		err := e.AddDocument(i, "search engine with distributed indexing and query processing", searchengine.StatusActual, []int{i % 10})
		if err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, err := e.FindTopDocuments("search")
		if err != nil {
			b.Fatal(err)
		}
		_ = results
	}
}

// BenchmarkCoreFindTopDocumentsParallel measures concurrent read throughput
// against the core.
func BenchmarkCoreFindTopDocumentsParallel(b *testing.B) {
	e, err := searchengine.New(nil)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 10000; i++ {
		err := e.AddDocument(i, "search engine with distributed indexing and query processing", searchengine.StatusActual, []int{i % 10})
		if err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			results, err := e.FindTopDocumentsParallel("search")
			if err != nil {
				b.Fatal(err)
			}
			_ = results
		}
	})
}

// BenchmarkCoreSnapshot measures the cost of snapshotting the core before a
// segment flush.
func BenchmarkCoreSnapshot(b *testing.B) {
	e, err := searchengine.New(nil)
	if err != nil {
		b.Fatal(err)
	}
	for i := 0; i < 5000; i++ {
		err := e.AddDocument(i, "testing snapshot performance with multiple terms and documents", searchengine.StatusActual, []int{1})
		if err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		snapshot := e.Snapshot()
		_ = snapshot
	}
}

// BenchmarkEngineIndex measures full indexer engine throughput at various
// pre-loaded corpus sizes.
func BenchmarkEngineIndex(b *testing.B) {
	sizes := []int{100, 1000, 5000}
	for _, preload := range sizes {
		b.Run(fmt.Sprintf("preload_%d", preload), func(b *testing.B) {
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

			for i := 0; i < preload; i++ {
				docID := fmt.Sprintf("preload-%d", i)
				if err := engine.IndexDocument(docID, "preload doc", "preloading documents for benchmark warmup phase"); err != nil {
					b.Fatal(err)
				}
			}

			b.ReportAllocs()
			b.ResetTimer()
			for i := 0; i < b.N; i++ {
				docID := fmt.Sprintf("bench-%d", i)
				err := engine.IndexDocument(docID, "benchmark title", "benchmark document body for measuring indexing throughput")
				if err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

// BenchmarkEngineFindTopDocuments measures end-to-end ranked search latency
// across 10 000 documents.
func BenchmarkEngineFindTopDocuments(b *testing.B) {
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

	terms := []string{"distributed", "search", "analytics", "platform", "indexing", "query", "engine", "ranking"}
	for i := 0; i < 10000; i++ {
		docID := fmt.Sprintf("doc-%d", i)
		title := fmt.Sprintf("document about %s and %s", terms[i%len(terms)], terms[(i+1)%len(terms)])
		body := fmt.Sprintf("this document covers %s %s %s in production systems",
			terms[i%len(terms)], terms[(i+2)%len(terms)], terms[(i+3)%len(terms)])
		if err := engine.IndexDocument(docID, title, body); err != nil {
			b.Fatal(err)
		}
	}

	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		results, err := engine.FindTopDocuments(terms[i%len(terms)])
		if err != nil {
			b.Fatal(err)
		}
		_ = results
	}
}
