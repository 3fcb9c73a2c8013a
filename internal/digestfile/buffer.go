package digestfile

import "sync"

// Buffer is the process-wide store of events awaiting flush. It is
// append-only between drains; Drain is the only removal path. There is no
// backpressure or eviction: unbounded growth is an accepted limitation.
type Buffer struct {
	mu     sync.Mutex
	events []Event
}

func NewBuffer() *Buffer {
	return &Buffer{}
}

func (b *Buffer) Append(event Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, event)
}

func (b *Buffer) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.events)
}

// Snapshot copies the current contents so a flush can group and write without
// holding the lock. The returned length marks the drain boundary: events
// appended after the snapshot are never touched by the matching Drain.
func (b *Buffer) Snapshot() ([]Event, int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	snapshot := make([]Event, len(b.events))
	copy(snapshot, b.events)
	return snapshot, len(snapshot)
}

// Drain atomically removes every event among the first upTo entries whose
// project is in the given set, flushed and filtered-out alike. Events of
// other projects, and anything appended after the snapshot, stay buffered.
func (b *Buffer) Drain(projects map[string]bool, upTo int) []Event {
	b.mu.Lock()
	defer b.mu.Unlock()
	if upTo > len(b.events) {
		upTo = len(b.events)
	}
	kept := make([]Event, 0, len(b.events))
	removed := make([]Event, 0, upTo)
	for i, event := range b.events {
		if i < upTo && projects[event.ProjectID] {
			removed = append(removed, event)
			continue
		}
		kept = append(kept, event)
	}
	b.events = kept
	return removed
}
