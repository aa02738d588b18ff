package indexer

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/kestrel-search/searchplatform/internal/indexer/index"
	"github.com/kestrel-search/searchplatform/internal/indexer/segment"
	"github.com/kestrel-search/searchplatform/internal/indexer/stemmer"
	"github.com/kestrel-search/searchplatform/internal/searchengine"
	"github.com/kestrel-search/searchplatform/pkg/config"
)

// ScoredDocument is a ranked search result keyed by the caller-facing
// string document id, rather than the engine's internal int id.
type ScoredDocument struct {
	DocumentID string
	Relevance  float64
	Rating     int
}

// Engine owns one searchengine.Engine core plus the on-disk segment log
// needed to recover it across restarts, and the string<->int document id
// mapping the core requires but the ingestion pipeline does not produce.
type Engine struct {
	core *searchengine.Engine

	idMu  sync.Mutex
	idOf  map[string]int
	docOf map[int]string
	next  int

	writer  *segment.Writer
	readers []*segment.Reader
	readerMu sync.RWMutex

	cfg    config.IndexerConfig
	logger *slog.Logger

	flushedSinceLoad int64
}

// NewEngine constructs an Engine rooted at cfg.DataDir, replaying any
// segments already on disk before returning.
func NewEngine(cfg config.IndexerConfig) (*Engine, error) {
	if err := os.MkdirAll(cfg.DataDir, 0755); err != nil {
		return nil, fmt.Errorf("creating index data directory: %w", err)
	}
	core, err := searchengine.New(cfg.StopWords)
	if err != nil {
		return nil, fmt.Errorf("constructing search engine core: %w", err)
	}
	e := &Engine{
		core:   core,
		idOf:   make(map[string]int),
		docOf:  make(map[int]string),
		writer: segment.NewWriter(cfg.DataDir),
		cfg:    cfg,
		logger: slog.Default().With("component", "indexer"),
	}
	if err := e.loadExistingSegments(); err != nil {
		return nil, fmt.Errorf("loading existing segments: %w", err)
	}
	return e, nil
}

// defaultRating derives a document's rating from its content length when
// the ingestion event carries no explicit rating: one point per 200 bytes
// of combined title+body, capped at 10. This keeps newly-ingested documents
// from all tying at rating 0, without requiring ingestion to supply one.
func defaultRating(text string) int {
	rating := len(text) / 200
	if rating > 10 {
		rating = 10
	}
	return rating
}

// IndexDocument ingests one document under its ingestion-assigned string
// id. Re-delivery of an already-indexed docID is a no-op, in line with the
// ingestion layer's idempotency-key handling. If cfg.EnableStemming is
// set, title and body are stemmed before being handed to the core.
func (e *Engine) IndexDocument(docID string, title string, body string) error {
	e.idMu.Lock()
	if _, exists := e.idOf[docID]; exists {
		e.idMu.Unlock()
		e.logger.Debug("document already indexed, skipping", "doc_id", docID)
		return nil
	}
	internalID := e.next
	e.next++
	e.idOf[docID] = internalID
	e.docOf[internalID] = docID
	e.idMu.Unlock()

	fullText := title + " " + body
	if e.cfg.EnableStemming {
		fullText = stemmer.Stem(fullText)
	}
	rating := defaultRating(fullText)

	if err := e.core.AddDocument(internalID, fullText, searchengine.StatusActual, []int{rating}); err != nil {
		e.idMu.Lock()
		delete(e.idOf, docID)
		delete(e.docOf, internalID)
		e.idMu.Unlock()
		return fmt.Errorf("indexing document %s: %w", docID, err)
	}

	e.logger.Debug("document indexed in memory",
		"doc_id", docID,
		"internal_id", internalID,
		"doc_count", e.core.GetDocumentCount(),
	)

	if int64(e.core.GetDocumentCount())-e.flushedSinceLoad >= e.segmentDocThreshold() {
		if err := e.Flush(); err != nil {
			return fmt.Errorf("flushing memory index: %w", err)
		}
	}
	return nil
}

// segmentDocThreshold approximates cfg.SegmentMaxSize (a byte budget) as a
// document count, assuming an average of 512 bytes per document. The core
// holds no byte-accounting of its own, only document and term counts.
func (e *Engine) segmentDocThreshold() int64 {
	const avgDocBytes = 512
	if e.cfg.SegmentMaxSize <= 0 {
		return 1 << 62
	}
	threshold := e.cfg.SegmentMaxSize / avgDocBytes
	if threshold < 1 {
		threshold = 1
	}
	return threshold
}

// FindTopDocuments runs a plus/minus query against the core and translates
// the result back into caller-facing string document ids.
func (e *Engine) FindTopDocuments(rawQuery string) ([]ScoredDocument, error) {
	results, err := e.core.FindTopDocuments(rawQuery)
	if err != nil {
		return nil, err
	}
	return e.translate(results), nil
}

// FindTopDocumentsByStatus runs a plus/minus query against the core,
// keeping only documents with the given status.
func (e *Engine) FindTopDocumentsByStatus(rawQuery string, status searchengine.Status) ([]ScoredDocument, error) {
	results, err := e.core.FindTopDocumentsByStatus(rawQuery, status)
	if err != nil {
		return nil, err
	}
	return e.translate(results), nil
}

// FindTopDocumentsFunc runs a predicate-filtered query against the core.
func (e *Engine) FindTopDocumentsFunc(rawQuery string, predicate searchengine.Predicate) ([]ScoredDocument, error) {
	results, err := e.core.FindTopDocumentsFunc(rawQuery, predicate)
	if err != nil {
		return nil, err
	}
	return e.translate(results), nil
}

func (e *Engine) translate(results []searchengine.ScoredDocument) []ScoredDocument {
	e.idMu.Lock()
	defer e.idMu.Unlock()
	out := make([]ScoredDocument, 0, len(results))
	for _, r := range results {
		if docID, ok := e.docOf[r.ID]; ok {
			out = append(out, ScoredDocument{DocumentID: docID, Relevance: r.Relevance, Rating: r.Rating})
		}
	}
	return out
}

// Flush persists every document currently held by the core into a new
// segment file, then keeps the core's in-memory state as-is: unlike the
// teacher's original design, flushing never evicts documents from memory,
// since the core is the sole ranking authority and has no secondary
// on-disk-only retrieval path. Flush exists purely so loadExistingSegments
// can replay a prior run's documents after a restart.
func (e *Engine) Flush() error {
	snapshot := e.core.Snapshot()
	if len(snapshot) == 0 {
		return nil
	}
	records := make([]index.DocumentRecord, 0, len(snapshot))
	e.idMu.Lock()
	for _, d := range snapshot {
		docID, ok := e.docOf[d.ID]
		if !ok {
			continue
		}
		records = append(records, index.DocumentRecord{
			InternalID: d.ID,
			DocumentID: docID,
			Text:       d.Text,
			Status:     int(d.Status),
			Rating:     d.Rating,
		})
	}
	e.idMu.Unlock()

	segmentName, err := e.writer.Write(records)
	if err != nil {
		return fmt.Errorf("writing segment: %w", err)
	}
	segPath := filepath.Join(e.cfg.DataDir, segmentName)
	reader, err := segment.OpenReader(segPath)
	if err != nil {
		return fmt.Errorf("opening new segment for reading: %w", err)
	}
	e.readerMu.Lock()
	e.readers = append(e.readers, reader)
	e.readerMu.Unlock()
	e.flushedSinceLoad = int64(len(records))
	e.logger.Info("segment flushed",
		"segment", segmentName,
		"documents", len(records),
		"active_segments", len(e.readers),
	)
	return nil
}

// ReloadSegments re-scans cfg.DataDir for segment files not yet loaded and
// replays any new documents they contain into the core. It returns the
// number of newly loaded segments.
func (e *Engine) ReloadSegments() int {
	e.readerMu.RLock()
	loaded := make(map[string]bool, len(e.readers))
	for _, r := range e.readers {
		loaded[r.Path()] = true
	}
	e.readerMu.RUnlock()

	entries, err := os.ReadDir(e.cfg.DataDir)
	if err != nil {
		e.logger.Error("rescanning data directory", "error", err)
		return 0
	}
	newCount := 0
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".spdx") {
			continue
		}
		path := filepath.Join(e.cfg.DataDir, entry.Name())
		if loaded[path] {
			continue
		}
		if err := e.replaySegment(path); err != nil {
			e.logger.Error("failed to replay segment, skipping", "segment", entry.Name(), "error", err)
			continue
		}
		newCount++
	}
	return newCount
}

func (e *Engine) replaySegment(path string) error {
	reader, err := segment.OpenReader(path)
	if err != nil {
		return err
	}
	records, err := reader.Records()
	if err != nil {
		reader.Close()
		return err
	}
	for _, rec := range records {
		e.idMu.Lock()
		if _, exists := e.idOf[rec.DocumentID]; exists {
			e.idMu.Unlock()
			continue
		}
		internalID := rec.InternalID
		if internalID >= e.next {
			e.next = internalID + 1
		}
		e.idOf[rec.DocumentID] = internalID
		e.docOf[internalID] = rec.DocumentID
		e.idMu.Unlock()

		if err := e.core.AddDocument(internalID, rec.Text, searchengine.Status(rec.Status), []int{rec.Rating}); err != nil {
			e.logger.Error("failed to replay document", "doc_id", rec.DocumentID, "error", err)
		}
	}
	e.readerMu.Lock()
	e.readers = append(e.readers, reader)
	e.readerMu.Unlock()
	e.logger.Info("segment replayed", "segment", path, "records", len(records))
	return nil
}

func (e *Engine) StartFlushLoop(ctx context.Context) {
	ticker := time.NewTicker(e.cfg.FlushInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				e.logger.Info("flush loop stopping, performing final flush")
				if err := e.Flush(); err != nil {
					e.logger.Error("final flush failed", "error", err)
				}
				return
			case <-ticker.C:
				if e.core.GetDocumentCount() > 0 {
					if err := e.Flush(); err != nil {
						e.logger.Error("periodic flush failed", "error", err)
					}
				}
			}
		}
	}()
}

func (e *Engine) Close() error {
	if err := e.Flush(); err != nil {
		e.logger.Error("final flush on close failed", "error", err)
	}
	e.readerMu.Lock()
	defer e.readerMu.Unlock()
	for _, reader := range e.readers {
		if err := reader.Close(); err != nil {
			e.logger.Error("closing segment reader", "error", err)
		}
	}
	e.readers = nil
	return nil
}

func (e *Engine) loadExistingSegments() error {
	entries, err := os.ReadDir(e.cfg.DataDir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("reading data directory: %w", err)
	}
	segFiles := make([]string, 0)
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), ".spdx") {
			segFiles = append(segFiles, entry.Name())
		}
	}
	sort.Strings(segFiles)

	for _, name := range segFiles {
		path := filepath.Join(e.cfg.DataDir, name)
		if err := e.replaySegment(path); err != nil {
			e.logger.Error("failed to open segment, skipping", "segment", name, "error", err)
			continue
		}
	}
	e.logger.Info("segment recovery complete", "segments_loaded", len(e.readers), "documents", e.core.GetDocumentCount())
	return nil
}
