package domain

// LogSink receives every entry accepted by the logging facility. Sinks see
// the entry after redaction but before the store assigns its ID. Publish must
// not block: a sink that cannot keep up drops entries rather than stalling
// the logging caller.
type LogSink interface {
	Publish(entry LogEntry)
}
