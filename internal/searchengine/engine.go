// Package searchengine implements an in-memory document search engine: an
// inverted index over whitespace-tokenised documents, ranked retrieval by
// TF-IDF with required ("plus") and forbidden ("minus") query terms,
// predicate-based result filtering, and the maintenance operations
// (removal, duplicate elimination) that keep the index consistent.
//
// The exported surface follows the teacher's service packages: a mutable
// core (Engine) guarded by a single RWMutex, reader operations safe for
// any number of concurrent callers, writer operations (AddDocument,
// RemoveDocument) requiring the caller not to interleave them with any
// other engine call.
package searchengine

import (
	"log/slog"
	"sync"

	"github.com/kestrel-search/searchplatform/internal/searchengine/apperr"
	"github.com/kestrel-search/searchplatform/internal/searchengine/token"
)

// documentData is the caller-opaque metadata stored per document.
type documentData struct {
	rating int
	status Status
	text   string
}

// Engine is the inverted-index core. The zero value is not usable; create
// one with New or NewFromText.
type Engine struct {
	mu sync.RWMutex

	stopWords *token.StopWords

	// postings is the authoritative inverted index: term -> docID -> tf.
	postings map[string]map[int]float64
	// perDocTerms is always a faithful transpose of postings: docID -> term -> tf.
	perDocTerms map[int]map[string]float64
	// docs holds per-document metadata, keyed by id.
	docs map[int]documentData
	// docIDs preserves insertion order; relative order of survivors is
	// preserved across removals.
	docIDs []int

	logger *slog.Logger
}

// New constructs an Engine whose stop-words are exactly the (deduplicated,
// non-empty) strings in stopWords. Fails with apperr.ErrInvalidCharacter if
// any stop-word contains a control byte.
func New(stopWords []string) (*Engine, error) {
	sw, err := token.NewStopWords(stopWords)
	if err != nil {
		return nil, err
	}
	return newEngine(sw), nil
}

// NewFromText constructs an Engine whose stop-words are the whitespace-
// separated tokens of stopWordsText.
func NewFromText(stopWordsText string) (*Engine, error) {
	sw, err := token.NewStopWordsFromText(stopWordsText)
	if err != nil {
		return nil, err
	}
	return newEngine(sw), nil
}

func newEngine(sw *token.StopWords) *Engine {
	return &Engine{
		stopWords:   sw,
		postings:    make(map[string]map[int]float64),
		perDocTerms: make(map[int]map[string]float64),
		docs:        make(map[int]documentData),
		logger:      slog.Default().With("component", "search-engine"),
	}
}

// AddDocument ingests a document. It fails with apperr.ErrNegativeID if id
// is negative, apperr.ErrDuplicateID if id is already present, or
// apperr.ErrInvalidCharacter if any token of text (including stop-words,
// which are validated before being filtered out) contains a control byte.
// On failure the engine's state is unchanged.
//
// rating is computed as the truncated-toward-zero integer mean of ratings,
// or 0 if ratings is empty.
func (e *Engine) AddDocument(id int, text string, status Status, ratings []int) error {
	if id < 0 {
		return apperr.New(apperr.ErrNegativeID, "document id must be >= 0")
	}

	allWords, err := token.SplitValidated(text)
	if err != nil {
		return err
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if _, exists := e.docs[id]; exists {
		return apperr.Newf(apperr.ErrDuplicateID, "document %d already exists", id)
	}

	words := make([]string, 0, len(allWords))
	for _, w := range allWords {
		if !e.stopWords.Contains(w) {
			words = append(words, w)
		}
	}

	termCounts := make(map[string]int, len(words))
	for _, w := range words {
		termCounts[w]++
	}

	n := len(words)
	terms := make(map[string]float64, len(termCounts))
	if n > 0 {
		invN := 1.0 / float64(n)
		for term, count := range termCounts {
			terms[term] = float64(count) * invN
			if e.postings[term] == nil {
				e.postings[term] = make(map[int]float64)
			}
			e.postings[term][id] = terms[term]
		}
	}

	e.perDocTerms[id] = terms
	e.docs[id] = documentData{
		rating: computeAverageRating(ratings),
		status: status,
		text:   text,
	}
	e.docIDs = append(e.docIDs, id)

	e.logger.Debug("document indexed",
		"doc_id", id,
		"status", status.String(),
		"term_count", n,
		"distinct_terms", len(terms),
	)
	return nil
}

// computeAverageRating returns the truncated-toward-zero integer mean of
// ratings, or 0 for an empty slice. Go's integer division already
// truncates toward zero, matching the spec exactly.
func computeAverageRating(ratings []int) int {
	if len(ratings) == 0 {
		return 0
	}
	sum := 0
	for _, r := range ratings {
		sum += r
	}
	return sum / len(ratings)
}

// GetDocumentCount returns the number of documents currently in the
// engine.
func (e *Engine) GetDocumentCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.docIDs)
}

// DocumentIDs returns a snapshot of document ids in insertion order.
func (e *Engine) DocumentIDs() []int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	ids := make([]int, len(e.docIDs))
	copy(ids, e.docIDs)
	return ids
}

// GetWordFrequencies returns a copy of the term->tf mapping for id, or an
// empty map if id is unknown. It never fails.
func (e *Engine) GetWordFrequencies(id int) map[string]float64 {
	e.mu.RLock()
	defer e.mu.RUnlock()
	terms := e.perDocTerms[id]
	out := make(map[string]float64, len(terms))
	for t, tf := range terms {
		out[t] = tf
	}
	return out
}

// DocumentSnapshot is one document's persistable state, enough to replay
// AddDocument on recovery. It carries no postings: those are rebuilt from
// Text by AddDocument itself.
type DocumentSnapshot struct {
	ID     int
	Text   string
	Status Status
	Rating int
}

// Snapshot returns every document currently in the engine, in insertion
// order, for use by an on-disk persistence layer. It is not part of the
// ranking algorithm's contract.
func (e *Engine) Snapshot() []DocumentSnapshot {
	e.mu.RLock()
	defer e.mu.RUnlock()
	out := make([]DocumentSnapshot, 0, len(e.docIDs))
	for _, id := range e.docIDs {
		d := e.docs[id]
		out = append(out, DocumentSnapshot{ID: id, Text: d.text, Status: d.status, Rating: d.rating})
	}
	return out
}

func newUnknownIDError(id int) error {
	return apperr.Newf(apperr.ErrUnknownID, "document %d not found", id)
}

// RemoveDocument removes id from the engine. A non-existent id is a no-op,
// not an error. After return, invariants 1 and 2 of the data model hold:
// id is absent from docs, doc_ids, postings, and per_doc_terms alike.
func (e *Engine) RemoveDocument(id int) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.removeDocumentLocked(id)
}

func (e *Engine) removeDocumentLocked(id int) {
	if _, exists := e.docs[id]; !exists {
		return
	}
	for i, docID := range e.docIDs {
		if docID == id {
			e.docIDs = append(e.docIDs[:i], e.docIDs[i+1:]...)
			break
		}
	}
	delete(e.docs, id)
	for term := range e.perDocTerms[id] {
		delete(e.postings[term], id)
		if len(e.postings[term]) == 0 {
			delete(e.postings, term)
		}
	}
	delete(e.perDocTerms, id)
	e.logger.Debug("document removed", "doc_id", id)
}
