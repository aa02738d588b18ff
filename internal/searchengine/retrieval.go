package searchengine

import (
	"math"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/kestrel-search/searchplatform/internal/searchengine/concurrentmap"
	"github.com/kestrel-search/searchplatform/internal/searchengine/query"
)

const (
	// MaxResultDocumentCount is the top-K truncation applied to every
	// ranked retrieval.
	MaxResultDocumentCount = 5
	// RelevanceEpsilon is the tolerance below which two relevances are
	// considered tied for ordering purposes; ties are broken by rating,
	// higher first.
	RelevanceEpsilon = 1e-6
)

// ScoredDocument is one ranked retrieval result.
type ScoredDocument struct {
	ID        int
	Relevance float64
	Rating    int
}

// FindTopDocuments ranks documents against rawQuery, keeping only those
// with status ACTUAL. Returning zero results is not an error.
func (e *Engine) FindTopDocuments(rawQuery string) ([]ScoredDocument, error) {
	return e.findTopDocuments(rawQuery, actualOnly(), false)
}

// FindTopDocumentsByStatus ranks documents against rawQuery, keeping only
// those whose status equals status.
func (e *Engine) FindTopDocumentsByStatus(rawQuery string, status Status) ([]ScoredDocument, error) {
	return e.findTopDocuments(rawQuery, ByStatus(status), false)
}

// FindTopDocumentsFunc ranks documents against rawQuery, keeping only those
// for which predicate(id, status, rating) is true.
func (e *Engine) FindTopDocumentsFunc(rawQuery string, predicate Predicate) ([]ScoredDocument, error) {
	return e.findTopDocuments(rawQuery, predicate, false)
}

// FindTopDocumentsParallel is FindTopDocuments with plus/minus-word
// iteration parallelised through the sharded accumulator. Results are
// indistinguishable from the sequential path up to the documented
// tie-break freedom.
func (e *Engine) FindTopDocumentsParallel(rawQuery string) ([]ScoredDocument, error) {
	return e.findTopDocuments(rawQuery, actualOnly(), true)
}

// FindTopDocumentsByStatusParallel is FindTopDocumentsByStatus, parallel
// variant.
func (e *Engine) FindTopDocumentsByStatusParallel(rawQuery string, status Status) ([]ScoredDocument, error) {
	return e.findTopDocuments(rawQuery, ByStatus(status), true)
}

// FindTopDocumentsFuncParallel is FindTopDocumentsFunc, parallel variant.
func (e *Engine) FindTopDocumentsFuncParallel(rawQuery string, predicate Predicate) ([]ScoredDocument, error) {
	return e.findTopDocuments(rawQuery, predicate, true)
}

func (e *Engine) findTopDocuments(rawQuery string, predicate Predicate, parallel bool) ([]ScoredDocument, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	q, err := query.Parse(rawQuery, e.stopWords)
	if err != nil {
		return nil, err
	}

	var scores map[int]float64
	if parallel {
		scores = e.accumulateParallel(q, predicate)
	} else {
		scores = e.accumulateSequential(q, predicate)
	}

	results := make([]ScoredDocument, 0, len(scores))
	for id, relevance := range scores {
		results = append(results, ScoredDocument{
			ID:        id,
			Relevance: relevance,
			Rating:    e.docs[id].rating,
		})
	}

	sort.Slice(results, func(i, j int) bool {
		if math.Abs(results[i].Relevance-results[j].Relevance) < RelevanceEpsilon {
			return results[i].Rating > results[j].Rating
		}
		return results[i].Relevance > results[j].Relevance
	})

	if len(results) > MaxResultDocumentCount {
		results = results[:MaxResultDocumentCount]
	}
	return results, nil
}

// accumulateSequential implements spec.md §4.5 step 3-4: accumulate
// idf-weighted tf for every predicate-matching plus-word hit, then drop
// every document hit by a minus-word. Caller must hold at least e.mu.RLock.
func (e *Engine) accumulateSequential(q query.Query, predicate Predicate) map[int]float64 {
	scores := make(map[int]float64)
	totalDocs := len(e.docIDs)

	for _, term := range q.Plus {
		docFreqs, ok := e.postings[term]
		if !ok {
			continue
		}
		idf := inverseDocumentFrequency(totalDocs, len(docFreqs))
		for id, tf := range docFreqs {
			doc := e.docs[id]
			if predicate(id, doc.status, doc.rating) {
				scores[id] += tf * idf
			}
		}
	}

	for _, term := range q.Minus {
		for id := range e.postings[term] {
			delete(scores, id)
		}
	}

	return scores
}

// accumulateParallel is accumulateSequential with plus-word and minus-word
// iteration fanned out one goroutine per term, writing through the sharded
// concurrent map (concurrentmap.ShardedMap) instead of a single shared map.
// Caller must hold at least e.mu.RLock.
func (e *Engine) accumulateParallel(q query.Query, predicate Predicate) map[int]float64 {
	totalDocs := len(e.docIDs)
	acc := concurrentmap.New(concurrentmap.DefaultBuckets)

	var plusGroup errgroup.Group
	for _, term := range q.Plus {
		docFreqs, ok := e.postings[term]
		if !ok {
			continue
		}
		idf := inverseDocumentFrequency(totalDocs, len(docFreqs))
		plusGroup.Go(func() error {
			for id, tf := range docFreqs {
				doc := e.docs[id]
				if predicate(id, doc.status, doc.rating) {
					acc.Add(id, tf*idf)
				}
			}
			return nil
		})
	}
	_ = plusGroup.Wait()

	var minusGroup errgroup.Group
	for _, term := range q.Minus {
		docFreqs, ok := e.postings[term]
		if !ok {
			continue
		}
		minusGroup.Go(func() error {
			for id := range docFreqs {
				acc.Erase(id)
			}
			return nil
		})
	}
	_ = minusGroup.Wait()

	return acc.BuildOrdered()
}

func inverseDocumentFrequency(totalDocs, docFreq int) float64 {
	return math.Log(float64(totalDocs) / float64(docFreq))
}

// MatchDocument reports which of query's plus-words occur in document id
// and the document's status. If any minus-word of query occurs in id, it
// returns an empty list instead (matched-words semantics are exclusive).
// Fails with apperr.ErrUnknownID if id is not in the engine.
func (e *Engine) MatchDocument(rawQuery string, id int) ([]string, Status, error) {
	return e.matchDocument(rawQuery, id, false)
}

// MatchDocumentParallel is MatchDocument with minus-word presence checked
// via a short-circuiting any-true fan-out and the plus-word list built by
// parallel copy-if then sort+unique.
func (e *Engine) MatchDocumentParallel(rawQuery string, id int) ([]string, Status, error) {
	return e.matchDocument(rawQuery, id, true)
}

func (e *Engine) matchDocument(rawQuery string, id int, parallel bool) ([]string, Status, error) {
	e.mu.RLock()
	defer e.mu.RUnlock()

	doc, exists := e.docs[id]
	if !exists {
		return nil, 0, newUnknownIDError(id)
	}

	q, err := query.Parse(rawQuery, e.stopWords)
	if err != nil {
		return nil, 0, err
	}

	hasDoc := func(term string) bool {
		_, ok := e.postings[term][id]
		return ok
	}

	if !parallel {
		for _, term := range q.Minus {
			if hasDoc(term) {
				return []string{}, doc.status, nil
			}
		}
		matched := make([]string, 0, len(q.Plus))
		for _, term := range q.Plus {
			if hasDoc(term) {
				matched = append(matched, term)
			}
		}
		return matched, doc.status, nil
	}

	var mu sync.Mutex
	excluded := false
	var wg sync.WaitGroup
	for _, term := range q.Minus {
		wg.Add(1)
		go func(term string) {
			defer wg.Done()
			mu.Lock()
			done := excluded
			mu.Unlock()
			if !done && hasDoc(term) {
				mu.Lock()
				excluded = true
				mu.Unlock()
			}
		}(term)
	}
	wg.Wait()
	if excluded {
		return []string{}, doc.status, nil
	}

	matched := make([]string, 0, len(q.Plus))
	var mu2 sync.Mutex
	var wg2 sync.WaitGroup
	for _, term := range q.Plus {
		wg2.Add(1)
		go func(term string) {
			defer wg2.Done()
			if hasDoc(term) {
				mu2.Lock()
				matched = append(matched, term)
				mu2.Unlock()
			}
		}(term)
	}
	wg2.Wait()
	sort.Strings(matched)
	return matched, doc.status, nil
}
