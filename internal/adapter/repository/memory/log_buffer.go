package memory

import (
	"encoding/json"
	"maps"
	"math"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/human-centric-engineering/sunrise/internal/domain"
)

const (
	// DefaultCapacity bounds the buffer when the caller does not choose a size.
	DefaultCapacity = 1000

	// DefaultPageSize is applied when a query asks for a non-positive limit.
	DefaultPageSize = 50

	maxMessageBytes = 8 << 10

	// maxExplicitID caps caller-supplied IDs so the counter always keeps
	// headroom to generate more without wrapping.
	maxExplicitID = math.MaxInt64 - (1 << 32)
)

// LogBuffer is a fixed-capacity ring of log entries. Once the ring is full,
// every append overwrites the oldest entry. A single lock guards the ring and
// the ID counter, so appends that are observed to happen in order receive
// strictly increasing IDs. IDs are never reused while the process lives.
type LogBuffer struct {
	mu      sync.RWMutex
	entries []domain.LogEntry
	head    int
	count   int
	seq     int64
	evicted uint64
}

// NewLogBuffer returns an empty buffer holding at most capacity entries.
// A non-positive capacity falls back to DefaultCapacity.
func NewLogBuffer(capacity int) *LogBuffer {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &LogBuffer{entries: make([]domain.LogEntry, capacity)}
}

// Append stores entry under the next generated ID. The ID field of the
// argument is ignored; a zero Timestamp is stamped with the current time.
func (b *LogBuffer) Append(entry domain.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.seq++
	entry.ID = b.seq
	b.push(entry)
}

// AppendWithID stores entry under the caller's ID when it is greater than
// every ID issued so far and at most maxExplicitID, advancing the counter
// past it. Any other value would collide with an ID already handed out or
// park the counter at its ceiling, so the entry falls back to a generated ID
// instead. Either way the append is accepted.
func (b *LogBuffer) AppendWithID(id int64, entry domain.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if id > b.seq && id <= maxExplicitID {
		b.seq = id
	} else {
		b.seq++
	}
	entry.ID = b.seq
	b.push(entry)
}

// push assumes b.mu is held for writing.
func (b *LogBuffer) push(entry domain.LogEntry) {
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}
	if len(entry.Message) > maxMessageBytes {
		entry.Message = entry.Message[:maxMessageBytes]
	}
	b.entries[(b.head+b.count)%len(b.entries)] = entry
	if b.count == len(b.entries) {
		b.head = (b.head + 1) % len(b.entries)
		b.evicted++
		return
	}
	b.count++
}

// Query filters, sorts and pages the buffered entries. The level filter is an
// exact match; the search filter is a case-insensitive substring match over
// the message and the JSON form of the context and meta fields. Both filters
// must hold when both are set. Results are ordered newest first regardless of
// insertion order, with insertion order breaking timestamp ties. Total always
// reflects the full filtered count, so a page past the end comes back empty
// while Total stays accurate.
func (b *LogBuffer) Query(q domain.LogQuery) domain.LogPage {
	page := q.Page
	if page < 1 {
		page = 1
	}
	limit := q.Limit
	if limit < 1 {
		limit = DefaultPageSize
	}
	needle := strings.ToLower(q.Search)

	b.mu.RLock()
	matched := make([]domain.LogEntry, 0, b.count)
	for i := 0; i < b.count; i++ {
		e := b.entries[(b.head+i)%len(b.entries)]
		if q.Level != "" && e.Level != q.Level {
			continue
		}
		if needle != "" && !matchesSearch(e, needle) {
			continue
		}
		matched = append(matched, e)
	}
	b.mu.RUnlock()

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].Timestamp.After(matched[j].Timestamp)
	})

	// page and limit are caller-controlled and unbounded, so the window is
	// computed without sums like total+limit that could wrap.
	total := len(matched)
	start := total
	if total > 0 {
		if lastPage := (total-1)/limit + 1; page <= lastPage {
			start = (page - 1) * limit
		}
	}
	end := total
	if total-start > limit {
		end = start + limit
	}

	out := make([]domain.LogEntry, end-start)
	for i, e := range matched[start:end] {
		out[i] = cloneEntry(e)
	}
	return domain.LogPage{Entries: out, Total: total, Page: page, Limit: limit}
}

// Clear drops every entry and restarts ID generation, so the next generated
// ID is 1 again. The eviction counter resets with it.
func (b *LogBuffer) Clear() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.entries = make([]domain.LogEntry, len(b.entries))
	b.head = 0
	b.count = 0
	b.seq = 0
	b.evicted = 0
}

// Size reports how many entries the buffer currently holds.
func (b *LogBuffer) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.count
}

// Capacity reports the fixed maximum number of entries.
func (b *LogBuffer) Capacity() int {
	return len(b.entries)
}

// Snapshot returns a copy of the buffered entries in insertion order.
func (b *LogBuffer) Snapshot() []domain.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make([]domain.LogEntry, b.count)
	for i := 0; i < b.count; i++ {
		out[i] = cloneEntry(b.entries[(b.head+i)%len(b.entries)])
	}
	return out
}

// Stats reports the buffer's occupancy counters.
func (b *LogBuffer) Stats() domain.BufferStats {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return domain.BufferStats{
		Size:     b.count,
		Capacity: len(b.entries),
		Evicted:  b.evicted,
		NextID:   b.seq + 1,
	}
}

func matchesSearch(e domain.LogEntry, needle string) bool {
	if strings.Contains(strings.ToLower(e.Message), needle) {
		return true
	}
	if strings.Contains(strings.ToLower(stringifyFields(e.Context)), needle) {
		return true
	}
	return strings.Contains(strings.ToLower(stringifyFields(e.Meta)), needle)
}

// stringifyFields renders a field map the way it appears on the wire. A nil
// map searches as an empty object, and a map that cannot be marshalled is
// treated the same rather than failing the query.
func stringifyFields(fields map[string]any) string {
	if len(fields) == 0 {
		return "{}"
	}
	raw, err := json.Marshal(fields)
	if err != nil {
		return "{}"
	}
	return string(raw)
}

// cloneEntry copies the entry's field maps so callers can hold results
// without racing later appends.
func cloneEntry(e domain.LogEntry) domain.LogEntry {
	e.Context = maps.Clone(e.Context)
	e.Meta = maps.Clone(e.Meta)
	return e
}
