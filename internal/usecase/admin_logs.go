package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/klauspost/compress/zstd"
	"go.opentelemetry.io/otel"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

// AdminLogsUseCase exposes the admin console's operations over the in-memory
// log store.
type AdminLogsUseCase struct {
	store  domain.LogStore
	logger *slog.Logger
}

// NewAdminLogsUseCase creates a new AdminLogsUseCase.
func NewAdminLogsUseCase(store domain.LogStore, logger *slog.Logger) *AdminLogsUseCase {
	return &AdminLogsUseCase{
		store:  store,
		logger: logger,
	}
}

// Query returns one page of entries for the log viewer.
func (uc *AdminLogsUseCase) Query(ctx context.Context, q domain.LogQuery) domain.LogPage {
	_, span := otel.Tracer("admin-logs").Start(ctx, "Query")
	defer span.End()

	return uc.store.Query(q)
}

// Clear wipes the store and restarts ID generation.
func (uc *AdminLogsUseCase) Clear(ctx context.Context) {
	_, span := otel.Tracer("admin-logs").Start(ctx, "Clear")
	defer span.End()

	uc.store.Clear()
	uc.logger.Info("log store cleared by admin")
}

// Stats reports the store's occupancy counters.
func (uc *AdminLogsUseCase) Stats(ctx context.Context) domain.BufferStats {
	_, span := otel.Tracer("admin-logs").Start(ctx, "Stats")
	defer span.End()

	return uc.store.Stats()
}

// Export writes the whole buffer to w as zstd-compressed NDJSON, oldest entry
// first, and returns how many entries it wrote.
func (uc *AdminLogsUseCase) Export(ctx context.Context, w io.Writer) (int, error) {
	_, span := otel.Tracer("admin-logs").Start(ctx, "Export")
	defer span.End()

	enc, err := zstd.NewWriter(w)
	if err != nil {
		return 0, fmt.Errorf("create zstd writer: %w", err)
	}

	written := 0
	je := json.NewEncoder(enc)
	for _, entry := range uc.store.Snapshot() {
		if err := je.Encode(entry); err != nil {
			enc.Close()
			return written, fmt.Errorf("encode entry: %w", err)
		}
		written++
	}

	if err := enc.Close(); err != nil {
		return written, fmt.Errorf("flush zstd writer: %w", err)
	}

	uc.logger.Info("log export finished", "entries", written)
	return written, nil
}
