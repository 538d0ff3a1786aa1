package usecase

import (
	"context"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel"

	"github.com/human-centric-engineering/sunrise/internal/adapter/metrics"
	"github.com/human-centric-engineering/sunrise/internal/domain"
)

// FieldScrubber removes sensitive values from a field map. The logging
// facility's redactor satisfies it, so client reports get the same scrubbing
// as server-side entries.
type FieldScrubber interface {
	Scrub(fields map[string]any) map[string]any
}

// ClientLogReport is one entry reported by a browser client. Clients that
// keep their own counter may send an ID; it is honored only when it is above
// everything the store has issued.
type ClientLogReport struct {
	ID        int64          `json:"id,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Level     string         `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// ClientLogUseCase folds log reports from browser clients into the server's
// log store and sinks.
type ClientLogUseCase struct {
	store  domain.LogStore
	scrub  FieldScrubber
	sinks  []domain.LogSink
	logger *slog.Logger
	m      *metrics.Metrics
}

// NewClientLogUseCase creates a new ClientLogUseCase. scrub and m may be nil.
func NewClientLogUseCase(store domain.LogStore, scrub FieldScrubber, sinks []domain.LogSink, logger *slog.Logger, m *metrics.Metrics) *ClientLogUseCase {
	return &ClientLogUseCase{
		store:  store,
		scrub:  scrub,
		sinks:  sinks,
		logger: logger,
		m:      m,
	}
}

// Report stores a batch of client entries. Reports without a message or with
// a level outside the known set are rejected; everything else is accepted,
// scrubbed and tagged with its origin.
func (uc *ClientLogUseCase) Report(ctx context.Context, reports []ClientLogReport) (accepted, rejected int) {
	_, span := otel.Tracer("client-logs").Start(ctx, "Report")
	defer span.End()

	for _, report := range reports {
		level, err := domain.ParseLevel(report.Level)
		if err != nil || report.Message == "" {
			rejected++
			continue
		}

		meta := report.Meta
		if meta == nil {
			meta = make(map[string]any, 1)
		}
		meta["source"] = "client"

		entry := domain.LogEntry{
			Timestamp: report.Timestamp,
			Level:     level,
			Message:   report.Message,
			Context:   report.Context,
			Meta:      meta,
		}
		if uc.scrub != nil {
			entry.Context = uc.scrub.Scrub(entry.Context)
			entry.Meta = uc.scrub.Scrub(entry.Meta)
		}

		if report.ID > 0 {
			uc.store.AppendWithID(report.ID, entry)
		} else {
			uc.store.Append(entry)
		}
		if uc.m != nil {
			uc.m.LogEntriesTotal.WithLabelValues(string(level)).Inc()
		}
		for _, s := range uc.sinks {
			s.Publish(entry)
		}
		accepted++
	}

	if rejected > 0 {
		uc.logger.Warn("rejected malformed client log reports", "rejected", rejected, "accepted", accepted)
	}
	return accepted, rejected
}
