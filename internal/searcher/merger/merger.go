// Package merger combines per-shard top-K results into one global top-K.
// Each shard ranks by TF-IDF over its own corpus, so idf is shard-relative:
// results cannot be merged before ranking the way a single global postings
// list could. Instead every shard produces its own top-K, and merger picks
// the global top-K of those already-ranked candidates.
package merger

import (
	"container/heap"
	"math"

	"github.com/kestrel-search/searchplatform/internal/indexer"
)

// relevanceEpsilon mirrors searchengine.RelevanceEpsilon: two results
// within this tolerance are treated as tied and broken by rating.
const relevanceEpsilon = 1e-6

// Merge returns the global top-limit results across every shard's result
// slice, ordered by descending relevance with ties broken by descending
// rating.
func Merge(shardResults [][]indexer.ScoredDocument, limit int) []indexer.ScoredDocument {
	if limit <= 0 {
		limit = 10
	}
	h := &scoredDocHeap{}
	heap.Init(h)
	for _, results := range shardResults {
		for _, doc := range results {
			heap.Push(h, doc)
			if h.Len() > limit {
				heap.Pop(h)
			}
		}
	}
	result := make([]indexer.ScoredDocument, h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(h).(indexer.ScoredDocument)
	}
	return result
}

// scoredDocHeap is a min-heap: Pop discards the worst-ranked candidate,
// which is exactly what bounding the heap to limit elements needs.
type scoredDocHeap []indexer.ScoredDocument

func (h scoredDocHeap) Len() int { return len(h) }

func (h scoredDocHeap) Less(i, j int) bool {
	if math.Abs(h[i].Relevance-h[j].Relevance) >= relevanceEpsilon {
		return h[i].Relevance < h[j].Relevance
	}
	return h[i].Rating < h[j].Rating
}

func (h scoredDocHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *scoredDocHeap) Push(x interface{}) {
	*h = append(*h, x.(indexer.ScoredDocument))
}

func (h *scoredDocHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}
