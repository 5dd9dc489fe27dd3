package aggregator

import (
	"context"
	"log"
	"sync"

	"connect-service/internal/observability"
	"connect-service/internal/realtime"
)

// Counter is a live-updated derived count for one member. It holds the last
// known value, refetches whenever a watched relation changes, and keeps the
// old value on transient fetch failure so badges never flicker to zero on a
// blip.
//
// Concurrent refetches are allowed to race; a monotonic request counter makes
// sure only the response to the latest request is applied.
type Counter struct {
	name      string
	fetch     func(ctx context.Context) (int, error)
	bridge    *realtime.Bridge
	relations []string
	onUpdate  func(int)

	mu      sync.Mutex
	value   int
	loading bool
	closed  bool
	seq     uint64
	sub     *realtime.Subscription
}

// NewCounter builds a counter over fetch, invalidated by changes on the given
// relations. onUpdate, if set, is called outside the lock with each newly
// applied value.
func NewCounter(name string, bridge *realtime.Bridge, relations []string, fetch func(ctx context.Context) (int, error), onUpdate func(int)) *Counter {
	return &Counter{
		name:      name,
		fetch:     fetch,
		bridge:    bridge,
		relations: relations,
		onUpdate:  onUpdate,
	}
}

// Start performs the baseline fetch and opens the change subscription. Every
// observed event triggers exactly one refetch.
func (c *Counter) Start(ctx context.Context) {
	c.mu.Lock()
	if c.closed || c.sub != nil {
		c.mu.Unlock()
		return
	}
	c.sub = c.bridge.Subscribe(c.relations, func(realtime.Change) {
		c.Refresh(ctx)
	})
	c.mu.Unlock()

	c.Refresh(ctx)
}

// Refresh issues an asynchronous refetch. Responses that lose the race to a
// newer request, or that arrive after Close, are discarded.
func (c *Counter) Refresh(ctx context.Context) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.seq++
	seq := c.seq
	c.loading = true
	c.mu.Unlock()

	observability.IncRefetch(c.name)

	go func() {
		value, err := c.fetch(ctx)

		c.mu.Lock()
		if c.closed || seq != c.seq {
			c.mu.Unlock()
			return
		}
		c.loading = false
		if err != nil {
			c.mu.Unlock()
			log.Printf("%s refetch failed, keeping last value: %v", c.name, err)
			return
		}
		changed := value != c.value
		c.value = value
		onUpdate := c.onUpdate
		c.mu.Unlock()

		if changed && onUpdate != nil {
			onUpdate(value)
		}
	}()
}

// Count returns the last applied value.
func (c *Counter) Count() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.value
}

// Loading reports whether a fetch is outstanding, for interim rendering.
func (c *Counter) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Close unsubscribes and discards any in-flight responses. Idempotent.
func (c *Counter) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	sub := c.sub
	c.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}
