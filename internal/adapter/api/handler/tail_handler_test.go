package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func newTailBrokerForTest(t *testing.T) *TailBroker {
	t.Helper()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	return NewTailBroker(ctx, testLogger(), nil)
}

func clientCount(b *TailBroker) int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

func waitForClients(t *testing.T, b *TailBroker, want int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for clientCount(b) != want {
		if time.Now().After(deadline) {
			t.Fatalf("got %d registered clients, want %d", clientCount(b), want)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func receiveFrame(t *testing.T, ch chan []byte) []byte {
	t.Helper()
	select {
	case frame := <-ch:
		return frame
	case <-time.After(2 * time.Second):
		t.Fatal("timed out waiting for frame")
		return nil
	}
}

func TestTailBroker_Publish(t *testing.T) {
	t.Run("Delivers Frames To Registered Clients", func(t *testing.T) {
		broker := newTailBrokerForTest(t)
		frames := make(chan []byte, 16)
		broker.addClient(frames)
		defer broker.removeClient(frames)

		broker.Publish(domain.LogEntry{
			ID:        42,
			Timestamp: time.Date(2025, time.July, 1, 10, 0, 0, 0, time.UTC),
			Level:     domain.LevelError,
			Message:   "upstream timeout",
			Context:   map[string]any{"attempt": float64(3)},
		})

		frame := receiveFrame(t, frames)
		text := string(frame)
		if !strings.HasPrefix(text, "data: ") || !strings.HasSuffix(text, "\n\n") {
			t.Fatalf("frame %q is not a well-formed event", text)
		}

		var ev tailEvent
		if err := json.Unmarshal([]byte(strings.TrimSuffix(strings.TrimPrefix(text, "data: "), "\n\n")), &ev); err != nil {
			t.Fatalf("unmarshal frame payload: %v", err)
		}
		if ev.Level != domain.LevelError {
			t.Errorf("got level %q, want %q", ev.Level, domain.LevelError)
		}
		if ev.Message != "upstream timeout" {
			t.Errorf("got message %q, want %q", ev.Message, "upstream timeout")
		}
		if ev.Context["attempt"] != float64(3) {
			t.Errorf("got context %v, want attempt=3", ev.Context)
		}
		if strings.Contains(text, `"id"`) {
			t.Errorf("frame %q should not carry a store ID", text)
		}
	})

	t.Run("Skips Full Client Channels", func(t *testing.T) {
		broker := newTailBrokerForTest(t)
		stuck := make(chan []byte) // never read
		healthy := make(chan []byte, 16)
		broker.addClient(stuck)
		broker.addClient(healthy)
		defer broker.removeClient(stuck)
		defer broker.removeClient(healthy)

		broker.Publish(domain.LogEntry{Level: domain.LevelInfo, Message: "still flowing"})

		frame := receiveFrame(t, healthy)
		if !strings.Contains(string(frame), "still flowing") {
			t.Errorf("healthy client got %q, want the published entry", frame)
		}
	})

	t.Run("Closes Clients On Shutdown", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		broker := NewTailBroker(ctx, testLogger(), nil)
		frames := make(chan []byte, 16)
		broker.addClient(frames)

		cancel()

		deadline := time.After(2 * time.Second)
		for {
			select {
			case _, ok := <-frames:
				if !ok {
					return
				}
			case <-deadline:
				t.Fatal("client channel was not closed on shutdown")
			}
		}
	})
}

// notifyingRecorder signals each body write so tests can sequence cancellation
// after a frame has actually been flushed to the client.
type notifyingRecorder struct {
	*httptest.ResponseRecorder
	wrote chan struct{}
}

func (r *notifyingRecorder) Write(p []byte) (int, error) {
	n, err := r.ResponseRecorder.Write(p)
	select {
	case r.wrote <- struct{}{}:
	default:
	}
	return n, err
}

type plainWriter struct {
	http.ResponseWriter
}

func TestTailBroker_ServeHTTP(t *testing.T) {
	t.Run("Streams Frames Until Client Disconnects", func(t *testing.T) {
		broker := newTailBrokerForTest(t)

		reqCtx, cancelReq := context.WithCancel(context.Background())
		defer cancelReq()
		req := httptest.NewRequest(http.MethodGet, "/api/admin/logs/stream", nil).WithContext(reqCtx)
		rec := &notifyingRecorder{ResponseRecorder: httptest.NewRecorder(), wrote: make(chan struct{}, 1)}

		done := make(chan struct{})
		go func() {
			broker.ServeHTTP(rec, req)
			close(done)
		}()

		waitForClients(t, broker, 1)
		broker.Publish(domain.LogEntry{Level: domain.LevelWarn, Message: "disk filling up"})

		select {
		case <-rec.wrote:
		case <-time.After(2 * time.Second):
			t.Fatal("timed out waiting for the frame to reach the client")
		}

		cancelReq()
		select {
		case <-done:
		case <-time.After(2 * time.Second):
			t.Fatal("handler did not return after the client disconnected")
		}

		if got := rec.Header().Get("Content-Type"); got != "text/event-stream" {
			t.Errorf("got Content-Type %q, want %q", got, "text/event-stream")
		}
		if body := rec.Body.String(); !strings.Contains(body, "data: ") || !strings.Contains(body, "disk filling up") {
			t.Errorf("body %q does not contain the streamed entry", body)
		}
		waitForClients(t, broker, 0)
	})

	t.Run("Rejects Writers Without Flush", func(t *testing.T) {
		broker := newTailBrokerForTest(t)

		req := httptest.NewRequest(http.MethodGet, "/api/admin/logs/stream", nil)
		rec := httptest.NewRecorder()
		broker.ServeHTTP(plainWriter{rec}, req)

		if rec.Code != http.StatusInternalServerError {
			t.Fatalf("got status %d, want %d", rec.Code, http.StatusInternalServerError)
		}
	})
}
