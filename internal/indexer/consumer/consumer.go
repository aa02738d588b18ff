// Package consumer reads ingestion events from Kafka and indexes them
// via the indexer engine, optionally routing documents through the shard
// router for partitioned indexing.
package consumer

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/kestrel-search/searchplatform/internal/analytics"
	"github.com/kestrel-search/searchplatform/internal/indexer"
	"github.com/kestrel-search/searchplatform/internal/indexer/shard"
	"github.com/kestrel-search/searchplatform/internal/ingestion"
	"github.com/kestrel-search/searchplatform/internal/searchengine/apperr"
	"github.com/kestrel-search/searchplatform/pkg/kafka"
)

// IndexConsumer wraps a Kafka consumer to drive the indexing pipeline.
type IndexConsumer struct {
	consumer *kafka.Consumer
	logger   *slog.Logger
}

// New creates an IndexConsumer backed by the given Kafka consumer.
func New(kafkaConsumer *kafka.Consumer) *IndexConsumer {
	return &IndexConsumer{
		consumer: kafkaConsumer,
		logger:   slog.Default().With("component", "index-consumer"),
	}
}

// Start begins consuming Kafka messages. It blocks until ctx is cancelled.
func (ic *IndexConsumer) Start(ctx context.Context) error {
	ic.logger.Info("index consumer starting")
	return ic.consumer.Start(ctx)
}

// HandleMessageSharded returns a Kafka MessageHandler that routes each ingest
// event to the correct shard engine via the Router before indexing.
// If db is non-nil, the document status is updated from PENDING to INDEXED
// (or REJECTED/FAILED) in PostgreSQL after the index attempt. If collector
// is non-nil, the outcome is also published as an analytics IndexEvent.
func HandleMessageSharded(router *shard.Router, db *sql.DB, collector *analytics.Collector) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := decodeIngestEvent(value, key, logger)
		if err != nil {
			return nil
		}

		engine, err := router.Route(event.ShardID)
		if err != nil {
			return fmt.Errorf("routing shard %d: %w", event.ShardID, err)
		}

		return indexEvent(ctx, engine, db, collector, event, logger)
	}
}

// HandleMessage returns a Kafka MessageHandler that indexes every ingest
// event into a single (non-sharded) Engine.
// If db is non-nil, the document status is updated after indexing. If
// collector is non-nil, the outcome is also published as an analytics
// IndexEvent.
func HandleMessage(engine *indexer.Engine, db *sql.DB, collector *analytics.Collector) kafka.MessageHandler {
	logger := slog.Default().With("component", "index-consumer")
	return func(ctx context.Context, key []byte, value []byte) error {
		event, err := decodeIngestEvent(value, key, logger)
		if err != nil {
			return nil
		}
		return indexEvent(ctx, engine, db, collector, event, logger)
	}
}

// decodeIngestEvent decodes an ingest event off the wire. A decode failure
// is logged and swallowed rather than returned: a malformed message will
// never decode successfully on retry, so returning an error here would
// just spin the consumer on a poison message.
func decodeIngestEvent(value []byte, key []byte, logger *slog.Logger) (ingestion.IngestEvent, error) {
	event, err := kafka.DecodeJSON[ingestion.IngestEvent](value)
	if err != nil {
		logger.Error("failed to decode ingest event",
			"error", err,
			"key", string(key),
		)
		return ingestion.IngestEvent{}, err
	}
	return event, nil
}

// indexEvent runs one ingest event through engine and reconciles the
// document's PostgreSQL status with the outcome. Shared by the sharded
// and single-engine handlers so the status-reconciliation logic (and its
// REJECTED-vs-FAILED distinction) only lives in one place.
func indexEvent(ctx context.Context, engine *indexer.Engine, db *sql.DB, collector *analytics.Collector, event ingestion.IngestEvent, logger *slog.Logger) error {
	logger.Debug("processing ingest event",
		"doc_id", event.DocumentID,
		"shard_id", event.ShardID,
	)

	err := engine.IndexDocument(event.DocumentID, event.Title, event.Body)
	if err != nil {
		outcome := docStatusFor(err)
		updateDocStatus(ctx, db, event.DocumentID, string(outcome), logger)
		trackOutcome(collector, event, outcome)
		return fmt.Errorf("indexing document %s in shard %d: %w", event.DocumentID, event.ShardID, err)
	}

	updateDocStatus(ctx, db, event.DocumentID, string(analytics.OutcomeIndexed), logger)
	trackOutcome(collector, event, analytics.OutcomeIndexed)
	logger.Info("document indexed",
		"doc_id", event.DocumentID,
		"shard_id", event.ShardID,
	)
	return nil
}

// trackOutcome publishes an analytics IndexEvent for the given ingest event
// outcome. collector may be nil (e.g. in tests or a collector-less deploy),
// in which case this is a no-op.
func trackOutcome(collector *analytics.Collector, event ingestion.IngestEvent, outcome analytics.DocumentOutcome) {
	if collector == nil {
		return
	}
	collector.TrackIndexOutcome(analytics.IndexEvent{
		Type:       analytics.EventDocumentOutcome,
		DocumentID: event.DocumentID,
		ShardID:    event.ShardID,
		Outcome:    outcome,
		Timestamp:  time.Now().UTC(),
	})
}

// docStatusFor classifies an indexing failure as a permanent rejection of
// the document's content (control-byte terms) versus a retryable/unknown
// failure. REJECTED documents are never resubmitted by the publisher;
// FAILED ones may be worth a manual re-ingest once the underlying cause
// (shard unavailability, engine restart) is resolved.
func docStatusFor(err error) analytics.DocumentOutcome {
	if errors.Is(err, apperr.ErrInvalidCharacter) {
		return analytics.OutcomeRejected
	}
	return analytics.OutcomeFailed
}

// updateDocStatus updates the document's status and indexed_at timestamp in PostgreSQL.
// If db is nil, the update is silently skipped.
func updateDocStatus(ctx context.Context, db *sql.DB, docID, status string, logger *slog.Logger) {
	if db == nil {
		return
	}
	_, err := db.ExecContext(ctx,
		`UPDATE documents SET status = $1, indexed_at = NOW() WHERE id = $2`,
		status, docID,
	)
	if err != nil {
		logger.Error("failed to update document status",
			"doc_id", docID,
			"status", status,
			"error", err,
		)
	}
}
