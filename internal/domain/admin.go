package domain

// BufferStats is the admin view of the log store's occupancy. Evicted counts
// entries dropped by overflow since the last clear.
type BufferStats struct {
	Size     int    `json:"size"`
	Capacity int    `json:"capacity"`
	Evicted  uint64 `json:"evicted"`
	NextID   int64  `json:"next_id"`
}
