package documents

import "sync"

type EventType string

const (
	EventCreated EventType = "created"
	EventDeleted EventType = "deleted"
)

// Event describes a change to a user's document list. It is pushed to
// every live watcher of that user.
type Event struct {
	Type     EventType `json:"type"`
	Document Document  `json:"document"`
}

// Broker fans document events out to per-user subscribers. Delivery is
// best effort: a subscriber that stops draining its channel loses events
// rather than blocking publishers.
type Broker struct {
	mu     sync.Mutex
	nextID int
	subs   map[string]map[int]chan Event
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[int]chan Event)}
}

// Subscribe registers a watcher for the user's events. The returned cancel
// func closes the channel and must be called exactly once.
func (b *Broker) Subscribe(userID string) (<-chan Event, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	id := b.nextID
	ch := make(chan Event, 16)
	if b.subs[userID] == nil {
		b.subs[userID] = make(map[int]chan Event)
	}
	b.subs[userID][id] = ch

	cancel := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if userSubs, ok := b.subs[userID]; ok {
			if sub, ok := userSubs[id]; ok {
				delete(userSubs, id)
				close(sub)
			}
			if len(userSubs) == 0 {
				delete(b.subs, userID)
			}
		}
	}
	return ch, cancel
}

// Publish delivers the event to all current subscribers of the document's owner.
func (b *Broker) Publish(ev Event) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for _, ch := range b.subs[ev.Document.UserID] {
		select {
		case ch <- ev:
		default:
		}
	}
}
