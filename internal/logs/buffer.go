package logs

import (
	"sync"

	"github.com/charliek/qrun/internal/domain"
)

// RingBuffer keeps the most recent worker lines in arrival order
type RingBuffer struct {
	mu      sync.RWMutex
	entries []domain.LogEntry
	next    int    // next write position
	size    int    // current number of entries
	written uint64 // entries written since creation, including overwritten ones
}

// NewRingBuffer creates a ring buffer holding at most capacity entries
func NewRingBuffer(capacity int) *RingBuffer {
	if capacity <= 0 {
		capacity = 1000
	}
	return &RingBuffer{entries: make([]domain.LogEntry, capacity)}
}

// Write stores an entry, overwriting the oldest one when full
func (b *RingBuffer) Write(entry domain.LogEntry) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.entries[b.next] = entry
	b.next = (b.next + 1) % len(b.entries)
	if b.size < len(b.entries) {
		b.size++
	}
	b.written++
}

// Read returns a copy of the stored entries, oldest first
func (b *RingBuffer) Read() []domain.LogEntry {
	b.mu.RLock()
	defer b.mu.RUnlock()

	if b.size == 0 {
		return nil
	}

	result := make([]domain.LogEntry, 0, b.size)
	start := (b.next - b.size + len(b.entries)) % len(b.entries)
	for i := 0; i < b.size; i++ {
		result = append(result, b.entries[(start+i)%len(b.entries)])
	}
	return result
}

// Count returns the number of stored entries
func (b *RingBuffer) Count() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.size
}

// Written returns how many entries were ever written
func (b *RingBuffer) Written() uint64 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.written
}

// Capacity returns the maximum number of stored entries
func (b *RingBuffer) Capacity() int {
	return len(b.entries)
}
