package orchestrator

import (
	"sync"

	"github.com/mshevtsov/concilium/internal/model"
)

// DiscussionLog is the append-only, timestamped record of one evaluation run.
// It is the only mutable state shared between concurrent agent calls; a
// single mutex serializes appends, so entry order is completion order.
// Subscribers receive every entry appended after they subscribe.
type DiscussionLog struct {
	mu      sync.Mutex
	entries []model.DiscussionEntry
	subs    map[int]chan model.DiscussionEntry
	nextSub int
	closed  bool
}

// NewDiscussionLog creates an empty log.
func NewDiscussionLog() *DiscussionLog {
	return &DiscussionLog{subs: make(map[int]chan model.DiscussionEntry)}
}

// Append adds an entry and fans it out to subscribers. A subscriber whose
// buffer is full misses that entry rather than blocking the phase.
func (l *DiscussionLog) Append(e model.DiscussionEntry) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.entries = append(l.entries, e)
	for _, ch := range l.subs {
		select {
		case ch <- e:
		default:
		}
	}
}

// Snapshot returns a copy of all entries appended so far.
func (l *DiscussionLog) Snapshot() []model.DiscussionEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]model.DiscussionEntry, len(l.entries))
	copy(out, l.entries)
	return out
}

// Len returns the number of entries appended so far.
func (l *DiscussionLog) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Subscribe registers a live consumer. The returned cancel function must be
// called when the consumer is done; the channel is closed on cancel or when
// the log itself closes.
func (l *DiscussionLog) Subscribe(buffer int) (<-chan model.DiscussionEntry, func()) {
	if buffer <= 0 {
		buffer = 64
	}
	ch := make(chan model.DiscussionEntry, buffer)

	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		close(ch)
		return ch, func() {}
	}
	id := l.nextSub
	l.nextSub++
	l.subs[id] = ch

	cancel := func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		if c, ok := l.subs[id]; ok {
			delete(l.subs, id)
			close(c)
		}
	}
	return ch, cancel
}

// Close marks the run finished and closes all subscriber channels. Further
// appends are ignored.
func (l *DiscussionLog) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.closed {
		return
	}
	l.closed = true
	for id, ch := range l.subs {
		delete(l.subs, id)
		close(ch)
	}
}
