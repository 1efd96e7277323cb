package identity

import "sync"

// Broker pushes auth state changes to subscribers. Subscriptions are
// cancellable; a subscriber that falls behind loses events rather than
// blocking sign-in and sign-out.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[int]chan Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[int]chan Event)}
}

// Subscribe returns a channel of auth events and a cancel func. Cancel
// closes the channel and must be called exactly once.
func (b *Broker) Subscribe() (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, 16)
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

func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}
