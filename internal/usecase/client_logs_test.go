package usecase

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/human-centric-engineering/sunrise/internal/adapter/repository/memory"
	"github.com/human-centric-engineering/sunrise/internal/domain"
	"github.com/human-centric-engineering/sunrise/internal/domain/mocks"
)

type stubScrubber struct{}

func (stubScrubber) Scrub(fields map[string]any) map[string]any {
	if fields == nil {
		return nil
	}
	if _, ok := fields["password"]; ok {
		fields["password"] = "[REDACTED]"
	}
	return fields
}

func TestClientLogUseCase_Report(t *testing.T) {
	reportTime := time.Date(2025, time.June, 2, 8, 0, 0, 0, time.UTC)

	t.Run("Counts Accepted And Rejected", func(t *testing.T) {
		store := memory.NewLogBuffer(10)
		uc := NewClientLogUseCase(store, nil, nil, discardLogger(), nil)

		accepted, rejected := uc.Report(context.Background(), []ClientLogReport{
			{Timestamp: reportTime, Level: "info", Message: "page loaded"},
			{Timestamp: reportTime, Level: "ERROR", Message: "fetch failed"},
			{Timestamp: reportTime, Level: "verbose", Message: "unknown level"},
			{Timestamp: reportTime, Level: "info", Message: ""},
		})

		if accepted != 2 {
			t.Errorf("got %d accepted, want 2", accepted)
		}
		if rejected != 2 {
			t.Errorf("got %d rejected, want 2", rejected)
		}
		if store.Size() != 2 {
			t.Errorf("got %d stored entries, want 2", store.Size())
		}
	})

	t.Run("Tags Entries With Client Source", func(t *testing.T) {
		store := memory.NewLogBuffer(10)
		uc := NewClientLogUseCase(store, nil, nil, discardLogger(), nil)

		uc.Report(context.Background(), []ClientLogReport{
			{Timestamp: reportTime, Level: "info", Message: "hello", Meta: map[string]any{"app": "web"}},
			{Timestamp: reportTime, Level: "info", Message: "no meta at all"},
		})

		for _, entry := range store.Snapshot() {
			if entry.Meta["source"] != "client" {
				t.Errorf("entry %d: got meta %v, want source=client", entry.ID, entry.Meta)
			}
		}
	})

	t.Run("Scrubs Context And Meta", func(t *testing.T) {
		store := memory.NewLogBuffer(10)
		uc := NewClientLogUseCase(store, stubScrubber{}, nil, discardLogger(), nil)

		uc.Report(context.Background(), []ClientLogReport{{
			Timestamp: reportTime,
			Level:     "warn",
			Message:   "login form submitted",
			Context:   map[string]any{"password": "hunter2", "field": "ok"},
		}})

		entry := store.Snapshot()[0]
		if entry.Context["password"] != "[REDACTED]" {
			t.Errorf("got context %v, want password redacted", entry.Context)
		}
		if entry.Context["field"] != "ok" {
			t.Errorf("unrelated field was touched: %v", entry.Context)
		}
	})

	t.Run("Honors Client IDs Above The Counter", func(t *testing.T) {
		store := memory.NewLogBuffer(10)
		uc := NewClientLogUseCase(store, nil, nil, discardLogger(), nil)

		uc.Report(context.Background(), []ClientLogReport{
			{ID: 500, Timestamp: reportTime, Level: "info", Message: "client picked the ID"},
		})

		if got := store.Snapshot()[0].ID; got != 500 {
			t.Errorf("got ID %d, want 500", got)
		}
		if stats := store.Stats(); stats.NextID != 501 {
			t.Errorf("got next ID %d, want 501", stats.NextID)
		}
	})

	t.Run("Colliding Client IDs Fall Back", func(t *testing.T) {
		store := memory.NewLogBuffer(10)
		store.Append(domain.LogEntry{Level: domain.LevelInfo, Message: "server entry"})
		uc := NewClientLogUseCase(store, nil, nil, discardLogger(), nil)

		uc.Report(context.Background(), []ClientLogReport{
			{ID: 1, Timestamp: reportTime, Level: "info", Message: "stale client counter"},
		})

		snap := store.Snapshot()
		if len(snap) != 2 {
			t.Fatalf("got %d entries, want 2", len(snap))
		}
		if snap[1].ID != 2 {
			t.Errorf("got ID %d, want fresh ID 2", snap[1].ID)
		}
	})

	t.Run("Extreme Client IDs Fall Back", func(t *testing.T) {
		store := memory.NewLogBuffer(10)
		uc := NewClientLogUseCase(store, nil, nil, discardLogger(), nil)

		uc.Report(context.Background(), []ClientLogReport{
			{ID: math.MaxInt64, Timestamp: reportTime, Level: "error", Message: "hostile counter"},
			{Timestamp: reportTime, Level: "info", Message: "business as usual"},
		})

		snap := store.Snapshot()
		if snap[0].ID != 1 || snap[1].ID != 2 {
			t.Errorf("got IDs %d, %d, want 1, 2", snap[0].ID, snap[1].ID)
		}
	})

	t.Run("Publishes Accepted Entries To Sinks", func(t *testing.T) {
		store := memory.NewLogBuffer(10)
		sink := &mocks.MockLogSink{}
		uc := NewClientLogUseCase(store, nil, []domain.LogSink{sink}, discardLogger(), nil)

		uc.Report(context.Background(), []ClientLogReport{
			{Timestamp: reportTime, Level: "info", Message: "ok"},
			{Timestamp: reportTime, Level: "nope", Message: "rejected"},
		})

		if sink.PublishedCount() != 1 {
			t.Errorf("got %d published entries, want 1", sink.PublishedCount())
		}
	})
}
