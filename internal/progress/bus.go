package progress

import "sync"

// Status describes where a file is in its ingestion lifecycle.
type Status string

const (
	StatusWaiting   Status = "Waiting"
	StatusIngesting Status = "Ingesting"
	StatusDone      Status = "Done"
	StatusFailed    Status = "Failed"
)

// Event is a single per-file progress notification.
type Event struct {
	FileName  string `json:"fileName"`
	Status    Status `json:"status"`
	Error     string `json:"error,omitempty"`
	ElapsedMs int64  `json:"elapsedMs,omitempty"`
}

// subscriberBuffer bounds how far a slow subscriber may lag before events
// are dropped for it. Delivery is best-effort, there is no replay.
const subscriberBuffer = 64

// Bus broadcasts ingestion progress events to an arbitrary number of
// subscribers. Publish never blocks: a subscriber whose buffer is full
// misses events rather than stalling the ingestion pipeline.
//
// Events for one file are published from that file's processing goroutine,
// so per-file ordering (Waiting -> Ingesting -> Done|Failed) is preserved
// on every subscriber channel. Events for different files may interleave.
type Bus struct {
	mu   sync.Mutex
	subs map[int]chan Event
	next int
}

// NewBus creates an empty progress bus.
func NewBus() *Bus {
	return &Bus{subs: make(map[int]chan Event)}
}

// Subscribe registers a new listener. The returned cancel function must be
// called when the listener goes away; it closes the channel.
func (b *Bus) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.next
	b.next++
	ch := make(chan Event, subscriberBuffer)
	b.subs[id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subs[id]; ok {
			delete(b.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Publish delivers an event to all current subscribers without blocking.
func (b *Bus) Publish(e Event) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for _, ch := range b.subs {
		select {
		case ch <- e:
		default:
			// Subscriber is not keeping up; drop the event for it.
		}
	}
}
