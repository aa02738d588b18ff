// Package requestqueue wraps a searchengine.Engine with a sliding window
// over the most recent find-request outcomes, answering "how many of the
// last WindowSize requests had no results" without the caller tracking it
// itself.
package requestqueue

import (
	"sync"

	"github.com/kestrel-search/searchplatform/internal/searchengine"
)

// WindowSize is the number of most recent requests retained, matching one
// day's worth of one-per-minute requests.
const WindowSize = 1440

type entry struct {
	noResult bool
}

// Queue records the empty/non-empty outcome of every find request made
// through it, in a fixed-size FIFO window of the most recent WindowSize
// requests.
type Queue struct {
	mu     sync.Mutex
	engine *searchengine.Engine

	entries    []entry
	noResultCt int
}

// New wraps engine in a Queue with an empty window.
func New(engine *searchengine.Engine) *Queue {
	return &Queue{
		engine:  engine,
		entries: make([]entry, 0, WindowSize),
	}
}

// AddFindRequest runs FindTopDocuments through the queue, recording
// whether it produced zero results.
func (q *Queue) AddFindRequest(rawQuery string) ([]searchengine.ScoredDocument, error) {
	results, err := q.engine.FindTopDocuments(rawQuery)
	if err != nil {
		return nil, err
	}
	q.record(len(results) == 0)
	return results, nil
}

// AddFindRequestByStatus runs FindTopDocumentsByStatus through the queue.
func (q *Queue) AddFindRequestByStatus(rawQuery string, status searchengine.Status) ([]searchengine.ScoredDocument, error) {
	results, err := q.engine.FindTopDocumentsByStatus(rawQuery, status)
	if err != nil {
		return nil, err
	}
	q.record(len(results) == 0)
	return results, nil
}

// AddFindRequestFunc runs FindTopDocumentsFunc through the queue.
func (q *Queue) AddFindRequestFunc(rawQuery string, predicate searchengine.Predicate) ([]searchengine.ScoredDocument, error) {
	results, err := q.engine.FindTopDocumentsFunc(rawQuery, predicate)
	if err != nil {
		return nil, err
	}
	q.record(len(results) == 0)
	return results, nil
}

// GetNoResultRequests returns the count of requests in the current window
// that produced zero results.
func (q *Queue) GetNoResultRequests() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.noResultCt
}

func (q *Queue) record(noResult bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.entries) == WindowSize {
		evicted := q.entries[0]
		q.entries = q.entries[1:]
		if evicted.noResult {
			q.noResultCt--
		}
	}

	q.entries = append(q.entries, entry{noResult: noResult})
	if noResult {
		q.noResultCt++
	}
}
