package realtime

import "sync"

// Relation names watched by the aggregators.
const (
	RelationMessages         = "messages"
	RelationChatParticipants = "chat_participants"
	RelationConnections      = "connections"
	RelationNotifications    = "notifications"
)

// Change is one observed row change on a relation. Subscribers never inspect
// it beyond routing; every event means "invalidate and refetch".
type Change struct {
	Table string `json:"table"`
	Op    string `json:"op"`
}

// Bridge fans row-change events out to per-relation subscribers. Events are
// delivered one callback invocation per event, without coalescing.
type Bridge struct {
	mu          sync.RWMutex
	subscribers map[string]map[*Subscription]bool
}

// NewBridge creates an empty bridge.
func NewBridge() *Bridge {
	return &Bridge{subscribers: make(map[string]map[*Subscription]bool)}
}

// Subscription is an explicit handle owned by the scope that created it.
// Closing it stops further callbacks; Close is idempotent.
type Subscription struct {
	relations []string
	callback  func(Change)

	owner *Bridge
	once  sync.Once
}

// Subscribe registers callback for every change on any of the relations and
// returns the subscription handle. The callback runs on the publishing
// goroutine and must not block.
func (b *Bridge) Subscribe(relations []string, callback func(Change)) *Subscription {
	sub := &Subscription{relations: relations, callback: callback, owner: b}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, rel := range relations {
		if _, ok := b.subscribers[rel]; !ok {
			b.subscribers[rel] = make(map[*Subscription]bool)
		}
		b.subscribers[rel][sub] = true
	}
	return sub
}

// Publish delivers the change to every subscription watching its relation.
func (b *Bridge) Publish(change Change) {
	b.mu.RLock()
	subs := make([]*Subscription, 0, len(b.subscribers[change.Table]))
	for sub := range b.subscribers[change.Table] {
		subs = append(subs, sub)
	}
	b.mu.RUnlock()

	for _, sub := range subs {
		sub.callback(change)
	}
}

// Close removes the subscription from every relation it watches. After Close
// returns no new callbacks start; a callback already in flight may still
// finish.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.owner.mu.Lock()
		defer s.owner.mu.Unlock()
		for _, rel := range s.relations {
			if subs, ok := s.owner.subscribers[rel]; ok {
				delete(subs, s)
				if len(subs) == 0 {
					delete(s.owner.subscribers, rel)
				}
			}
		}
	})
}
