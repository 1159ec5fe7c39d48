package server

import (
	"sync"
	"time"
)

// ReloadEvent announces a catalog reload to event stream listeners.
type ReloadEvent struct {
	Databases int       `json:"databases"`
	Error     string    `json:"error,omitempty"`
	At        time.Time `json:"at"`
}

// notifier fans reload events out to subscribed listeners. Each listener
// keeps only the latest undelivered event.
type notifier struct {
	mu        sync.RWMutex
	listeners map[chan ReloadEvent]struct{}
}

func newNotifier() *notifier {
	return &notifier{listeners: make(map[chan ReloadEvent]struct{})}
}

// subscribe returns a channel receiving reload events. The caller must
// unsubscribe when done.
func (n *notifier) subscribe() chan ReloadEvent {
	ch := make(chan ReloadEvent, 1)
	n.mu.Lock()
	n.listeners[ch] = struct{}{}
	n.mu.Unlock()
	return ch
}

func (n *notifier) unsubscribe(ch chan ReloadEvent) {
	n.mu.Lock()
	delete(n.listeners, ch)
	n.mu.Unlock()
	close(ch)
}

// broadcast never blocks: a listener with a pending event has it replaced.
func (n *notifier) broadcast(ev ReloadEvent) {
	n.mu.RLock()
	defer n.mu.RUnlock()

	for ch := range n.listeners {
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- ev:
		default:
		}
	}
}

func (n *notifier) count() int {
	n.mu.RLock()
	defer n.mu.RUnlock()
	return len(n.listeners)
}
