package server

import (
	"encoding/json"
	"sync"

	"github.com/cardhall/seatscore/internal/tracker"
)

// Broker is an in-process pub/sub fanning tracker events out to SSE
// subscribers. There is one stream: every subscriber sees every event.
type Broker struct {
	mu   sync.RWMutex
	subs map[chan []byte]struct{}
}

func NewBroker() *Broker {
	return &Broker{
		subs: make(map[chan []byte]struct{}),
	}
}

// Subscribe returns a channel that receives JSON-encoded events.
func (b *Broker) Subscribe() chan []byte {
	ch := make(chan []byte, 16)
	b.mu.Lock()
	b.subs[ch] = struct{}{}
	b.mu.Unlock()
	return ch
}

// Unsubscribe removes a channel from the subscriber set.
func (b *Broker) Unsubscribe(ch chan []byte) {
	b.mu.Lock()
	delete(b.subs, ch)
	b.mu.Unlock()
}

// Publish sends an event to all subscribers.
func (b *Broker) Publish(event tracker.Event) {
	data, _ := json.Marshal(event)
	b.mu.RLock()
	for ch := range b.subs {
		select {
		case ch <- data:
		default:
			// Drop if subscriber is slow.
		}
	}
	b.mu.RUnlock()
}
