// Package events allows subscribers to receive the ledger events as they
// are produced.
package events

import (
	"fmt"
	"sync"
)

// subscriberBuffer is the number of events held for a subscriber that isn't
// ready to receive. Events beyond it are dropped for that subscriber.
const subscriberBuffer = 100

// Events maintains a mapping of subscriber id and channels so goroutines
// can subscribe and receive events.
type Events struct {
	mu   sync.RWMutex
	subs map[string]chan string
}

// New constructs an events value for subscribing to and sending events.
func New() *Events {
	return &Events{
		subs: make(map[string]chan string),
	}
}

// Shutdown closes and removes every subscriber channel.
func (evt *Events) Shutdown() {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	for id, ch := range evt.subs {
		delete(evt.subs, id)
		close(ch)
	}
}

// Acquire takes a unique subscriber id and returns a channel that receives
// events until the id is released.
func (evt *Events) Acquire(id string) <-chan string {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	if ch, exists := evt.subs[id]; exists {
		return ch
	}

	ch := make(chan string, subscriberBuffer)
	evt.subs[id] = ch

	return ch
}

// Release closes and removes the channel for the subscriber id.
func (evt *Events) Release(id string) error {
	evt.mu.Lock()
	defer evt.mu.Unlock()

	ch, exists := evt.subs[id]
	if !exists {
		return fmt.Errorf("subscriber %q does not exist", id)
	}

	delete(evt.subs, id)
	close(ch)

	return nil
}

// Send delivers the event to every subscriber. Send never blocks waiting on
// a slow subscriber.
func (evt *Events) Send(s string) {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	for _, ch := range evt.subs {
		select {
		case ch <- s:
		default:
		}
	}
}

// Count returns the number of subscribers.
func (evt *Events) Count() int {
	evt.mu.RLock()
	defer evt.mu.RUnlock()

	return len(evt.subs)
}
