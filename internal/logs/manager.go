package logs

import (
	"sync"

	"github.com/charliek/qrun/internal/constants"
	"github.com/charliek/qrun/internal/domain"
)

// ManagerConfig holds configuration for the log manager
type ManagerConfig struct {
	BufferSize         int // Number of entries to keep in ring buffer
	SubscriptionBuffer int // Buffer size for subscription channels
}

// DefaultManagerConfig returns the default configuration
func DefaultManagerConfig() ManagerConfig {
	return ManagerConfig{
		BufferSize:         constants.DefaultLogBufferSize,
		SubscriptionBuffer: constants.DefaultSubscriptionBuffer,
	}
}

// Manager keeps recent worker output and fans it out to subscribers.
// It backs the control API and the dashboard; the console does not depend on it.
type Manager struct {
	// mu orders writes against Follow, so a follower sees every entry
	// exactly once: either in its history or on its channel
	mu sync.Mutex

	buffer        *RingBuffer
	subscriptions *SubscriptionManager
}

// NewManager creates a new log manager
func NewManager(config ManagerConfig) *Manager {
	defaults := DefaultManagerConfig()
	if config.BufferSize <= 0 {
		config.BufferSize = defaults.BufferSize
	}
	if config.SubscriptionBuffer <= 0 {
		config.SubscriptionBuffer = defaults.SubscriptionBuffer
	}

	return &Manager{
		buffer:        NewRingBuffer(config.BufferSize),
		subscriptions: NewSubscriptionManager(config.SubscriptionBuffer),
	}
}

// Write records an entry and broadcasts it to subscribers
func (m *Manager) Write(entry domain.LogEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.buffer.Write(entry)
	m.subscriptions.Broadcast(entry)
}

// Query returns the last limit entries matching the filter and the total
// number of matches
func (m *Manager) Query(filter domain.LogFilter, limit int) ([]domain.LogEntry, int, error) {
	return FilterEntries(m.buffer.Read(), filter, limit)
}

// Subscribe creates a subscription for entries matching the filter
func (m *Manager) Subscribe(filter domain.LogFilter) (string, <-chan domain.LogEntry, error) {
	return m.subscriptions.Subscribe(filter)
}

// Follow returns the last n entries matching the filter together with a
// subscription that continues right after them. n <= 0 returns no history.
func (m *Manager) Follow(filter domain.LogFilter, n int) ([]domain.LogEntry, string, <-chan domain.LogEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var history []domain.LogEntry
	if n > 0 {
		var err error
		if history, _, err = FilterEntries(m.buffer.Read(), filter, n); err != nil {
			return nil, "", nil, err
		}
	}

	id, ch, err := m.subscriptions.Subscribe(filter)
	if err != nil {
		return nil, "", nil, err
	}
	return history, id, ch, nil
}

// Unsubscribe removes a subscription
func (m *Manager) Unsubscribe(id string) {
	m.subscriptions.Unsubscribe(id)
}

// Stats returns statistics about the log manager
func (m *Manager) Stats() domain.LogStats {
	return domain.LogStats{
		TotalEntries: m.buffer.Count(),
		BufferSize:   m.buffer.Capacity(),
		Written:      m.buffer.Written(),
		Subscribers:  m.subscriptions.Count(),
	}
}

// Close closes all subscriptions
func (m *Manager) Close() {
	m.subscriptions.Close()
}
