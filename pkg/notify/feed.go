package notify

import (
	"sync"
	"time"

	"github.com/google/uuid"
)

// DefaultLogCapacity bounds the feed.
const DefaultLogCapacity = 50

// Feed is the persistent log, newest entry first. Once it holds more than
// capacity entries the oldest are dropped, regardless of severity.
type Feed struct {
	mu       sync.RWMutex
	entries  []Entry
	capacity int
	now      func() time.Time

	onAdd func(Entry)
}

// NewFeed creates a feed bounded to capacity entries.
func NewFeed(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultLogCapacity
	}
	return &Feed{
		entries:  make([]Entry, 0, capacity+1),
		capacity: capacity,
		now:      time.Now,
	}
}

// OnAdd registers a callback invoked after every insertion.
func (f *Feed) OnAdd(fn func(Entry)) {
	f.mu.Lock()
	f.onAdd = fn
	f.mu.Unlock()
}

// Add inserts message at the front, stamped with the current wall clock.
// An empty severity means error.
func (f *Feed) Add(message string, sev Severity) Entry {
	if sev == "" {
		sev = SeverityError
	}

	f.mu.Lock()
	entry := Entry{
		ID:       uuid.New().String(),
		Time:     f.now(),
		Severity: sev,
		Message:  message,
	}
	f.entries = append(f.entries, Entry{})
	copy(f.entries[1:], f.entries)
	f.entries[0] = entry
	if len(f.entries) > f.capacity {
		f.entries = f.entries[:f.capacity]
	}
	cb := f.onAdd
	f.mu.Unlock()

	if cb != nil {
		cb(entry)
	}
	return entry
}

// Entries returns a copy of the log, newest first.
func (f *Feed) Entries() []Entry {
	f.mu.RLock()
	defer f.mu.RUnlock()
	out := make([]Entry, len(f.entries))
	copy(out, f.entries)
	return out
}

// Len returns the number of entries held.
func (f *Feed) Len() int {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return len(f.entries)
}
