package shipper

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"github.com/segmentio/kafka-go"

	"github.com/human-centric-engineering/sunrise/internal/adapter/metrics"
	"github.com/human-centric-engineering/sunrise/internal/domain"
)

const (
	defaultQueueSize    = 1024
	defaultBatchSize    = 100
	defaultFlushEvery   = 1 * time.Second
	defaultRetryCount   = 3
	defaultRetryBackoff = 500 * time.Millisecond
)

// Writer is the slice of kafka.Writer the shipper needs.
type Writer interface {
	WriteMessages(ctx context.Context, msgs ...kafka.Message) error
}

// KafkaShipper forwards accepted log entries to a Kafka topic. Publish never
// blocks: entries are queued and flushed in batches by a background worker,
// and the queue drops new entries when full.
type KafkaShipper struct {
	writer Writer
	logger *slog.Logger
	m      *metrics.Metrics
	queue  chan domain.LogEntry
	done   chan struct{}
}

// NewKafkaShipper creates a shipper around an already configured writer.
func NewKafkaShipper(writer Writer, logger *slog.Logger, m *metrics.Metrics) *KafkaShipper {
	return &KafkaShipper{
		writer: writer,
		logger: logger.With("component", "kafka_shipper"),
		m:      m,
		queue:  make(chan domain.LogEntry, defaultQueueSize),
		done:   make(chan struct{}),
	}
}

// Publish implements domain.LogSink.
func (s *KafkaShipper) Publish(entry domain.LogEntry) {
	select {
	case s.queue <- entry:
	default:
		if s.m != nil {
			s.m.ShipperDropped.Inc()
		}
	}
}

// Run drains the queue until ctx is cancelled, then flushes whatever is
// still queued. Call it from its own goroutine and use Wait to block on the
// final flush during shutdown.
func (s *KafkaShipper) Run(ctx context.Context) {
	defer close(s.done)

	ticker := time.NewTicker(defaultFlushEvery)
	defer ticker.Stop()

	batch := make([]domain.LogEntry, 0, defaultBatchSize)
	for {
		select {
		case <-ctx.Done():
			s.drain(&batch)
			flushCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			s.flush(flushCtx, batch)
			cancel()
			return
		case entry := <-s.queue:
			batch = append(batch, entry)
			if len(batch) >= defaultBatchSize {
				s.flush(ctx, batch)
				batch = batch[:0]
			}
		case <-ticker.C:
			if len(batch) > 0 {
				s.flush(ctx, batch)
				batch = batch[:0]
			}
		}
	}
}

// Wait blocks until the background worker has flushed and exited.
func (s *KafkaShipper) Wait() {
	<-s.done
}

func (s *KafkaShipper) drain(batch *[]domain.LogEntry) {
	for {
		select {
		case entry := <-s.queue:
			*batch = append(*batch, entry)
		default:
			return
		}
	}
}

func (s *KafkaShipper) flush(ctx context.Context, batch []domain.LogEntry) {
	if len(batch) == 0 {
		return
	}

	msgs := make([]kafka.Message, 0, len(batch))
	for _, entry := range batch {
		payload, err := json.Marshal(entry)
		if err != nil {
			s.logger.Warn("failed to marshal entry for shipping, skipping", "error", err)
			continue
		}
		msgs = append(msgs, kafka.Message{
			Key:   []byte(entry.Level),
			Value: payload,
		})
	}
	if len(msgs) == 0 {
		return
	}

	var lastErr error
	for attempt := 0; attempt < defaultRetryCount; attempt++ {
		err := s.writer.WriteMessages(ctx, msgs...)
		if err == nil {
			if s.m != nil {
				s.m.ShippedTotal.Add(float64(len(msgs)))
			}
			return
		}
		lastErr = err
		s.logger.Warn("failed to ship log batch, retrying...", "attempt", attempt+1, "error", err)
		select {
		case <-time.After(defaultRetryBackoff):
		case <-ctx.Done():
			return
		}
	}

	s.logger.Error("dropping log batch after retries", "count", len(msgs), "error", lastErr)
	if s.m != nil {
		s.m.ShipperDropped.Add(float64(len(msgs)))
	}
}
