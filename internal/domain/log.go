package domain

import (
	"time"

	"github.com/bmatcuk/doublestar/v4"
)

// Stream represents where a log entry came from
type Stream string

const (
	// StreamStdout is a line read from a worker's standard output
	StreamStdout Stream = "stdout"
	// StreamSystem is a message emitted by the supervisor about a worker
	StreamSystem Stream = "system"
)

// String returns the string representation of Stream
func (s Stream) String() string {
	return string(s)
}

// LogEntry represents a single line attributed to a worker
type LogEntry struct {
	Timestamp time.Time `json:"timestamp"`
	WorkerID  int       `json:"worker_id"`
	Worker    string    `json:"worker"`
	Stream    Stream    `json:"stream"`
	Line      string    `json:"line"`
}

// LogFilter defines criteria for filtering log entries
type LogFilter struct {
	Workers []string // Filter to specific worker labels; glob patterns allowed
	Pattern string   // Filter by pattern match
	IsRegex bool     // If true, Pattern is a regex; otherwise substring match
}

// IsEmpty returns true if no filters are set
func (f LogFilter) IsEmpty() bool {
	return len(f.Workers) == 0 && f.Pattern == ""
}

// MatchesWorker returns true if the worker label matches the filter.
// Entries are exact labels or globs such as "email*"; a malformed glob
// only matches itself.
func (f LogFilter) MatchesWorker(label string) bool {
	if len(f.Workers) == 0 {
		return true
	}
	for _, w := range f.Workers {
		if w == label {
			return true
		}
		if ok, err := doublestar.Match(w, label); err == nil && ok {
			return true
		}
	}
	return false
}

// LogStats contains statistics about the log buffer
type LogStats struct {
	TotalEntries int
	BufferSize   int
	Written      uint64
	Subscribers  int
}
