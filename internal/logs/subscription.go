package logs

import (
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/charliek/qrun/internal/domain"
)

// dropWarnInterval limits how often a lagging subscriber is reported
const dropWarnInterval = 10 * time.Second

// Subscription delivers matching entries to one consumer.
// Entries are dropped, never blocked on, when the consumer falls behind.
type Subscription struct {
	id      string
	ch      chan domain.LogEntry
	filter  *Filter
	closed  atomic.Bool
	dropped atomic.Uint64
	warn    rate.Sometimes
}

func newSubscription(filter domain.LogFilter, bufferSize int) (*Subscription, error) {
	f, err := NewFilter(filter)
	if err != nil {
		return nil, err
	}

	return &Subscription{
		id:     "sub-" + uuid.NewString(),
		ch:     make(chan domain.LogEntry, bufferSize),
		filter: f,
		warn:   rate.Sometimes{First: 1, Interval: dropWarnInterval},
	}, nil
}

// ID returns the subscription ID
func (s *Subscription) ID() string {
	return s.id
}

// Channel returns the channel for receiving log entries
func (s *Subscription) Channel() <-chan domain.LogEntry {
	return s.ch
}

// Dropped returns how many entries were dropped because the channel was full
func (s *Subscription) Dropped() uint64 {
	return s.dropped.Load()
}

// Send attempts to deliver an entry.
// Returns false if the channel is full or closed.
func (s *Subscription) Send(entry domain.LogEntry) bool {
	if s.closed.Load() {
		return false
	}
	if !s.filter.Matches(entry) {
		return true
	}

	select {
	case s.ch <- entry:
		return true
	default:
		s.dropped.Add(1)
		s.warn.Do(func() {
			log.Printf("subscription %s: %d entries dropped so far (channel full)", s.id, s.dropped.Load())
		})
		return false
	}
}

// Close closes the subscription channel
func (s *Subscription) Close() {
	if s.closed.CompareAndSwap(false, true) {
		close(s.ch)
	}
}

// SubscriptionManager manages multiple subscriptions
type SubscriptionManager struct {
	mu            sync.RWMutex
	subscriptions map[string]*Subscription
	bufferSize    int
}

// NewSubscriptionManager creates a new subscription manager
func NewSubscriptionManager(bufferSize int) *SubscriptionManager {
	if bufferSize <= 0 {
		bufferSize = 100
	}
	return &SubscriptionManager{
		subscriptions: make(map[string]*Subscription),
		bufferSize:    bufferSize,
	}
}

// Subscribe creates a new subscription
func (m *SubscriptionManager) Subscribe(filter domain.LogFilter) (string, <-chan domain.LogEntry, error) {
	sub, err := newSubscription(filter, m.bufferSize)
	if err != nil {
		return "", nil, err
	}

	m.mu.Lock()
	m.subscriptions[sub.id] = sub
	m.mu.Unlock()

	return sub.id, sub.ch, nil
}

// Unsubscribe removes and closes a subscription
func (m *SubscriptionManager) Unsubscribe(id string) {
	m.mu.Lock()
	sub, ok := m.subscriptions[id]
	delete(m.subscriptions, id)
	m.mu.Unlock()

	if ok {
		sub.Close()
	}
}

// Broadcast sends an entry to all subscribers
func (m *SubscriptionManager) Broadcast(entry domain.LogEntry) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	for _, sub := range m.subscriptions {
		sub.Send(entry)
	}
}

// Count returns the number of active subscriptions
func (m *SubscriptionManager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.subscriptions)
}

// Close closes all subscriptions
func (m *SubscriptionManager) Close() {
	m.mu.Lock()
	subs := m.subscriptions
	m.subscriptions = make(map[string]*Subscription)
	m.mu.Unlock()

	for _, sub := range subs {
		sub.Close()
	}
}
