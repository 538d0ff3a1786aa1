package domain

import (
	"context"
	"time"
)

// LogStore is the bounded in-memory store behind the admin log endpoints.
// Implementations must be safe for concurrent use; none of the methods block
// on I/O or return errors.
type LogStore interface {
	// Append stores an entry under the next generated ID, evicting the oldest
	// entry once the store is at capacity.
	Append(entry LogEntry)

	// AppendWithID stores an entry under the caller's ID when it is greater
	// than every ID issued so far and within the counter's headroom, and
	// falls back to a generated ID otherwise.
	AppendWithID(id int64, entry LogEntry)

	// Query returns one page of entries matching the filters, newest first.
	Query(q LogQuery) LogPage

	// Clear drops every entry and restarts ID generation from the beginning.
	Clear()

	// Snapshot returns a copy of the stored entries in insertion order.
	Snapshot() []LogEntry

	Size() int
	Capacity() int

	// Stats reports the store's occupancy counters.
	Stats() BufferStats
}

// UserRepository persists user accounts.
type UserRepository interface {
	Create(ctx context.Context, user User) error
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)
	List(ctx context.Context) ([]User, error)
	Update(ctx context.Context, user User) error
}

// FlagRepository persists feature flags.
type FlagRepository interface {
	Upsert(ctx context.Context, flag FeatureFlag) error
	Get(ctx context.Context, key string) (FeatureFlag, error)
	List(ctx context.Context) ([]FeatureFlag, error)
}

// SessionStore holds server-side login sessions keyed by their opaque token.
type SessionStore interface {
	Save(ctx context.Context, session Session, ttl time.Duration) error
	Get(ctx context.Context, token string) (Session, error)
	Delete(ctx context.Context, token string) error
}
