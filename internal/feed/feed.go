// Package feed implements the shared live-activity feed: a bounded,
// most-recent-first buffer of drop events plus fan-out to streaming
// subscribers. One Feed instance is injected into the request handlers
// and the synthetic generator; there is no ambient global.
package feed

import (
	"sync"

	"kazino-api/internal/model"
)

// DefaultCapacity is the feed buffer size used in production.
const DefaultCapacity = 16

// subscriberBuffer is the channel depth per streaming subscriber. A
// subscriber that falls this far behind misses events rather than
// blocking publishers.
const subscriberBuffer = 16

// Feed is a mutex-guarded bounded buffer of FeedEvents, newest first.
type Feed struct {
	mu       sync.Mutex
	events   []model.FeedEvent
	capacity int
	subs     map[chan model.FeedEvent]struct{}
}

// New creates a feed with the given capacity.
func New(capacity int) *Feed {
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	return &Feed{
		capacity: capacity,
		subs:     make(map[chan model.FeedEvent]struct{}),
	}
}

// Publish appends an event to the front of the buffer, evicting the
// oldest event beyond capacity, and fans it out to subscribers.
func (f *Feed) Publish(ev model.FeedEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.events = append([]model.FeedEvent{ev}, f.events...)
	if len(f.events) > f.capacity {
		f.events = f.events[:f.capacity]
	}

	for ch := range f.subs {
		select {
		case ch <- ev:
		default:
			// Slow subscriber: drop the event for them, never block.
		}
	}
}

// Snapshot returns a copy of the buffer, most recent first. Readers
// always observe a consistent state.
func (f *Feed) Snapshot() []model.FeedEvent {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make([]model.FeedEvent, len(f.events))
	copy(out, f.events)
	return out
}

// Subscribe registers a streaming consumer. The returned cancel function
// must be called when the consumer goes away; it closes the channel.
func (f *Feed) Subscribe() (<-chan model.FeedEvent, func()) {
	ch := make(chan model.FeedEvent, subscriberBuffer)

	f.mu.Lock()
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return ch, f.unsubscribe(ch)
}

// SubscribeWithSnapshot captures the current buffer and registers a
// streaming consumer under one lock hold, so any event lands either in
// the returned snapshot or on the channel, never both and never
// neither. Streaming readers that replay the backlog first use this
// instead of a separate Snapshot + Subscribe pair.
func (f *Feed) SubscribeWithSnapshot() ([]model.FeedEvent, <-chan model.FeedEvent, func()) {
	ch := make(chan model.FeedEvent, subscriberBuffer)

	f.mu.Lock()
	snapshot := make([]model.FeedEvent, len(f.events))
	copy(snapshot, f.events)
	f.subs[ch] = struct{}{}
	f.mu.Unlock()

	return snapshot, ch, f.unsubscribe(ch)
}

// unsubscribe builds the cancel function for a registered channel.
// Cancelling twice is safe; the channel closes once.
func (f *Feed) unsubscribe(ch chan model.FeedEvent) func() {
	return func() {
		f.mu.Lock()
		if _, ok := f.subs[ch]; ok {
			delete(f.subs, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
}
