package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/human-centric-engineering/sunrise/internal/adapter/metrics"
	"github.com/human-centric-engineering/sunrise/internal/domain"
)

const keepaliveInterval = 15 * time.Second

// tailEvent is the wire form of one live entry. IDs are assigned inside the
// log store, so the copy offered to sinks carries everything but the ID.
type tailEvent struct {
	Timestamp time.Time      `json:"timestamp"`
	Level     domain.Level   `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// TailBroker fans accepted log entries out to connected SSE clients. It
// implements domain.LogSink on the write side and http.Handler on the read
// side.
type TailBroker struct {
	logger  *slog.Logger
	m       *metrics.Metrics
	clients map[chan []byte]struct{}
	mu      sync.RWMutex
	intake  chan domain.LogEntry
}

// NewTailBroker creates a new TailBroker and starts its processing loop.
func NewTailBroker(ctx context.Context, logger *slog.Logger, m *metrics.Metrics) *TailBroker {
	broker := &TailBroker{
		logger:  logger.With("component", "tail_broker"),
		m:       m,
		clients: make(map[chan []byte]struct{}),
		intake:  make(chan domain.LogEntry, 256),
	}
	go broker.run(ctx)
	return broker
}

// Publish implements domain.LogSink. It must stay silent and non-blocking:
// logging from here would feed back into the sink chain, and a full intake
// simply means the tail misses a burst.
func (b *TailBroker) Publish(entry domain.LogEntry) {
	select {
	case b.intake <- entry:
	default:
	}
}

// ServeHTTP handles new client connections for the SSE stream.
func (b *TailBroker) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming unsupported!", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	frames := make(chan []byte, 16)
	b.addClient(frames)
	defer b.removeClient(frames)

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case frame, ok := <-frames:
			if !ok {
				return // Broker shut down
			}
			if _, err := w.Write(frame); err != nil {
				return
			}
			flusher.Flush()
		}
	}
}

func (b *TailBroker) addClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[client] = struct{}{}
	if b.m != nil {
		b.m.StreamClients.Set(float64(len(b.clients)))
	}
	b.logger.Info("tail client connected", "clients", len(b.clients))
}

func (b *TailBroker) removeClient(client chan []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[client]; ok {
		delete(b.clients, client)
		close(client)
		if b.m != nil {
			b.m.StreamClients.Set(float64(len(b.clients)))
		}
		b.logger.Info("tail client disconnected", "clients", len(b.clients))
	}
}

func (b *TailBroker) broadcast(frame []byte) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for client := range b.clients {
		select {
		case client <- frame:
		default:
			// Client channel is full, maybe slow client.
			// We don't block the broadcast for one slow client.
		}
	}
}

func (b *TailBroker) closeAll() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for client := range b.clients {
		delete(b.clients, client)
		close(client)
	}
	if b.m != nil {
		b.m.StreamClients.Set(0)
	}
}

// run is the main processing loop for the broker.
func (b *TailBroker) run(ctx context.Context) {
	ticker := time.NewTicker(keepaliveInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			b.closeAll()
			return
		case entry := <-b.intake:
			payload, err := json.Marshal(tailEvent{
				Timestamp: entry.Timestamp,
				Level:     entry.Level,
				Message:   entry.Message,
				Context:   entry.Context,
				Meta:      entry.Meta,
			})
			if err != nil {
				continue
			}
			b.broadcast([]byte(fmt.Sprintf("data: %s\n\n", payload)))
		case <-ticker.C:
			// Comment frame so proxies keep idle streams open.
			b.broadcast([]byte(": keepalive\n\n"))
		}
	}
}
