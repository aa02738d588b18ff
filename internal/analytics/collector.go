// Package analytics streams search and indexing telemetry through Kafka
// to the aggregator, which folds it into the stats served by Handler.
package analytics

import (
	"context"
	"log/slog"

	"github.com/kestrel-search/searchplatform/pkg/kafka"
)

// analyticsTopicKey is the Kafka partition key every analytics event is
// published under; search and index events share one topic so a single
// Aggregator consumer group can fold both into AggregatedStats.
const analyticsTopicKey = "analytics"

// Collector buffers SearchEvent/IndexEvent records in memory and publishes
// them to Kafka on a background goroutine, so a slow or unavailable broker
// never blocks the request path that calls Track.
type Collector struct {
	producer *kafka.Producer
	eventCh  chan interface{}
	logger   *slog.Logger
	done     chan struct{}
}

func NewCollector(producer *kafka.Producer, bufferSize int) *Collector {
	if bufferSize <= 0 {
		bufferSize = 10000
	}
	c := &Collector{
		producer: producer,
		eventCh:  make(chan interface{}, bufferSize),
		logger:   slog.Default().With("component", "analytics-collector"),
		done:     make(chan struct{}),
	}

	return c
}

func (c *Collector) Start(ctx context.Context) {
	go func() {
		defer close(c.done)
		for {
			select {
			case event, ok := <-c.eventCh:
				if !ok {
					return
				}
				if err := c.producer.Publish(ctx, kafka.Event{
					Key:   analyticsTopicKey,
					Value: event,
				}); err != nil {
					c.logger.Error("failed to publish analytics event", "error", err)

				}
			case <-ctx.Done():
				c.drainRemaining()
				return
			}
		}
	}()
	c.logger.Info("analytics collector started", "buffer_size", cap(c.eventCh))
}

// Track enqueues a SearchEvent or IndexEvent for async publication. If the
// buffer is full the event is dropped rather than blocking the caller —
// analytics is best-effort and must never add latency to the search or
// ingestion request path.
func (c *Collector) Track(event interface{}) {
	select {
	case c.eventCh <- event:
	default:
		c.logger.Warn("analytics event dropped (buffer full)")
	}
}

// TrackIndexOutcome records the terminal status of an indexing attempt
// (INDEXED/REJECTED/FAILED) so the aggregator can compute rejection and
// failure rates alongside search latency.
func (c *Collector) TrackIndexOutcome(event IndexEvent) {
	c.Track(event)
}

func (c *Collector) Close() {
	close(c.eventCh)
	<-c.done
}

func (c *Collector) drainRemaining() {
	for {
		select {
		case event, ok := <-c.eventCh:
			if !ok {
				return
			}
			ctx := context.Background()
			if err := c.producer.Publish(ctx, kafka.Event{
				Key:   analyticsTopicKey,
				Value: event,
			}); err != nil {
				c.logger.Error("failed to publish remaining event", "error", err)
			}
		default:
			return
		}
	}
}
