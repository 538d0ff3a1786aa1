package shipper

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/segmentio/kafka-go"
	"go.uber.org/goleak"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

type fakeWriter struct {
	mu       sync.Mutex
	messages []kafka.Message
	failures int
}

func (w *fakeWriter) WriteMessages(ctx context.Context, msgs ...kafka.Message) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failures > 0 {
		w.failures--
		return errors.New("broker unavailable")
	}
	w.messages = append(w.messages, msgs...)
	return nil
}

func (w *fakeWriter) count() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.messages)
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func waitForCount(t *testing.T, w *fakeWriter, want int) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if w.count() >= want {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %d messages, got %d", want, w.count())
}

func TestKafkaShipper_FlushesFullBatches(t *testing.T) {
	w := &fakeWriter{}
	s := NewKafkaShipper(w, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	for i := 0; i < defaultBatchSize; i++ {
		s.Publish(domain.LogEntry{Level: domain.LevelInfo, Message: "m"})
	}
	waitForCount(t, w, defaultBatchSize)

	cancel()
	s.Wait()
}

func TestKafkaShipper_FlushesRemainderOnShutdown(t *testing.T) {
	w := &fakeWriter{}
	s := NewKafkaShipper(w, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	s.Publish(domain.LogEntry{Level: domain.LevelWarn, Message: "one"})
	s.Publish(domain.LogEntry{Level: domain.LevelWarn, Message: "two"})
	cancel()
	s.Wait()

	if got := w.count(); got != 2 {
		t.Errorf("got %d messages after shutdown flush, want 2", got)
	}
}

func TestKafkaShipper_RetriesFailedWrites(t *testing.T) {
	w := &fakeWriter{failures: 1}
	s := NewKafkaShipper(w, testLogger(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	go s.Run(ctx)

	s.Publish(domain.LogEntry{Level: domain.LevelError, Message: "retry me"})
	waitForCount(t, w, 1)

	cancel()
	s.Wait()
}

func TestKafkaShipper_PublishNeverBlocks(t *testing.T) {
	// No Run loop: the queue fills up and the overflow must be dropped
	// without stalling the caller.
	s := NewKafkaShipper(&fakeWriter{}, testLogger(), nil)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < defaultQueueSize*2; i++ {
			s.Publish(domain.LogEntry{Message: "overflow"})
		}
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Publish blocked on a full queue")
	}
}
