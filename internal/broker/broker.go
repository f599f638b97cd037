// Package broker provides an in-memory pub/sub mechanism scoped by store
// collection. It is used to notify live subscribers when documents in a
// collection change.
package broker

import "sync"

// Broker is a collection-scoped pub/sub hub. Subscribers receive a signal
// (empty struct) whenever Publish is called for their collection. Channels are
// buffered to 1 so multiple rapid publishes coalesce into a single notification.
type Broker struct {
	mu   sync.Mutex
	subs map[string]map[chan struct{}]struct{}
}

// New creates a ready-to-use Broker.
func New() *Broker {
	return &Broker{
		subs: make(map[string]map[chan struct{}]struct{}),
	}
}

// Subscribe returns a buffered(1) channel that receives a signal each time
// Publish is called for the given collection.
func (b *Broker) Subscribe(collection string) chan struct{} {
	ch := make(chan struct{}, 1)
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.subs[collection] == nil {
		b.subs[collection] = make(map[chan struct{}]struct{})
	}
	b.subs[collection][ch] = struct{}{}
	return ch
}

// Unsubscribe removes a channel from the collection's subscriber set.
// If the collection has no remaining subscribers, the entry is cleaned up.
func (b *Broker) Unsubscribe(collection string, ch chan struct{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if subs, ok := b.subs[collection]; ok {
		delete(subs, ch)
		if len(subs) == 0 {
			delete(b.subs, collection)
		}
	}
}

// Publish sends a non-blocking signal to every subscriber for the given
// collection. Because channels are buffered to 1, a pending unread signal is
// not duplicated.
func (b *Broker) Publish(collection string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for ch := range b.subs[collection] {
		select {
		case ch <- struct{}{}:
		default:
		}
	}
}
