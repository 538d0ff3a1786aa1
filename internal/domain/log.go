package domain

import (
	"fmt"
	"strings"
	"time"
)

// Level classifies the severity of a log entry. The set is closed: the four
// values below are the only ones that appear in the store or on the wire.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
)

// ParseLevel converts a wire value into a Level, case-insensitively.
func ParseLevel(s string) (Level, error) {
	switch Level(strings.ToLower(s)) {
	case LevelDebug:
		return LevelDebug, nil
	case LevelInfo:
		return LevelInfo, nil
	case LevelWarn:
		return LevelWarn, nil
	case LevelError:
		return LevelError, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownLevel, s)
}

// LogEntry is a single record held by the in-memory log store. Context carries
// fields attached at the call site; Meta carries fields inherited from the
// logger's scope. The two are kept separate, never merged.
type LogEntry struct {
	ID        int64          `json:"id"`
	Timestamp time.Time      `json:"timestamp"`
	Level     Level          `json:"level"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	Meta      map[string]any `json:"meta,omitempty"`
}

// LogQuery narrows and pages a read of the log store. A zero Level means no
// level filter; an empty Search means no text filter. Page is 1-based.
type LogQuery struct {
	Level  Level
	Search string
	Page   int
	Limit  int
}

// LogPage is one page of query results. Total counts every entry that matched
// the filters, not just the ones on this page.
type LogPage struct {
	Entries []LogEntry
	Total   int
	Page    int
	Limit   int
}

// TotalPages reports how many pages the filtered result set spans. The
// division form cannot overflow however large Limit is.
func (p LogPage) TotalPages() int {
	if p.Limit <= 0 || p.Total <= 0 {
		return 0
	}
	return (p.Total-1)/p.Limit + 1
}
