package aggregator

import (
	"context"

	"connect-service/internal/realtime"
)

// PendingSource counts incoming pending connection requests.
type PendingSource interface {
	CountPending(ctx context.Context, memberID int) (int, error)
}

// NewPendingCounter builds the pending-connection counter for a member. The
// subscription is not filtered by event type: a new request, a withdrawal, or
// a decision all change the count, so any event on connections triggers a full
// recount.
func NewPendingCounter(connections PendingSource, memberID int, bridge *realtime.Bridge, onUpdate func(int)) *Counter {
	fetch := func(ctx context.Context) (int, error) {
		return connections.CountPending(ctx, memberID)
	}
	return NewCounter("pending_connections", bridge, []string{realtime.RelationConnections}, fetch, onUpdate)
}
