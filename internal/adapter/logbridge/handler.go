package logbridge

import (
	"context"
	"log/slog"
	"maps"
	"strings"

	"github.com/human-centric-engineering/sunrise/internal/adapter/metrics"
	"github.com/human-centric-engineering/sunrise/internal/domain"
)

// Scrubber removes sensitive values from a field map before it is stored.
type Scrubber interface {
	Scrub(fields map[string]any) map[string]any
}

// Handler is a slog.Handler that tees every record into the in-memory log
// store and the configured sinks while delegating terminal output to the
// wrapped handler. Attrs bound with Logger.With land in the entry's Meta
// bucket; attrs from the call site land in Context. Group names become
// dotted key prefixes.
type Handler struct {
	inner  slog.Handler
	store  domain.LogStore
	scrub  Scrubber
	sinks  []domain.LogSink
	m      *metrics.Metrics
	scope  map[string]any
	groups []string
}

// New wraps inner so records reach the store and sinks. scrub and m may be
// nil.
func New(inner slog.Handler, store domain.LogStore, scrub Scrubber, sinks []domain.LogSink, m *metrics.Metrics) *Handler {
	return &Handler{inner: inner, store: store, scrub: scrub, sinks: sinks, m: m}
}

func (h *Handler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.inner.Enabled(ctx, level)
}

func (h *Handler) Handle(ctx context.Context, rec slog.Record) error {
	entry := domain.LogEntry{
		Timestamp: rec.Time,
		Level:     levelFrom(rec.Level),
		Message:   rec.Message,
	}
	if rec.NumAttrs() > 0 {
		entry.Context = make(map[string]any, rec.NumAttrs())
		prefix := strings.Join(h.groups, ".")
		rec.Attrs(func(a slog.Attr) bool {
			flattenAttr(entry.Context, prefix, a)
			return true
		})
	}
	if len(h.scope) > 0 {
		entry.Meta = maps.Clone(h.scope)
	}
	if h.scrub != nil {
		entry.Context = h.scrub.Scrub(entry.Context)
		entry.Meta = h.scrub.Scrub(entry.Meta)
	}

	h.store.Append(entry)
	if h.m != nil {
		h.m.LogEntriesTotal.WithLabelValues(string(entry.Level)).Inc()
		stats := h.store.Stats()
		h.m.BufferSize.Set(float64(stats.Size))
		h.m.BufferEvicted.Set(float64(stats.Evicted))
	}
	for _, s := range h.sinks {
		s.Publish(entry)
	}

	return h.inner.Handle(ctx, rec)
}

func (h *Handler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	c := h.clone()
	c.inner = h.inner.WithAttrs(attrs)
	prefix := strings.Join(h.groups, ".")
	for _, a := range attrs {
		flattenAttr(c.scope, prefix, a)
	}
	return c
}

func (h *Handler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	c := h.clone()
	c.inner = h.inner.WithGroup(name)
	c.groups = append(c.groups, name)
	return c
}

func (h *Handler) clone() *Handler {
	c := *h
	c.scope = maps.Clone(h.scope)
	if c.scope == nil {
		c.scope = make(map[string]any)
	}
	c.groups = append([]string(nil), h.groups...)
	return &c
}

// levelFrom buckets slog levels into the store's closed level set.
func levelFrom(l slog.Level) domain.Level {
	switch {
	case l < slog.LevelInfo:
		return domain.LevelDebug
	case l < slog.LevelWarn:
		return domain.LevelInfo
	case l < slog.LevelError:
		return domain.LevelWarn
	default:
		return domain.LevelError
	}
}

func flattenAttr(dst map[string]any, prefix string, a slog.Attr) {
	a.Value = a.Value.Resolve()
	if a.Value.Kind() == slog.KindGroup {
		p := a.Key
		if p == "" {
			p = prefix
		} else if prefix != "" {
			p = prefix + "." + a.Key
		}
		for _, ga := range a.Value.Group() {
			flattenAttr(dst, p, ga)
		}
		return
	}
	if a.Key == "" {
		return
	}
	key := a.Key
	if prefix != "" {
		key = prefix + "." + key
	}
	dst[key] = a.Value.Any()
}
