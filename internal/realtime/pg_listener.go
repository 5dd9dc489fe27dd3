package realtime

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/lib/pq"
)

const notifyChannel = "row_changes"

// Listener feeds Postgres NOTIFY payloads from the row-change triggers into a
// Bridge. It owns its own database connection, separate from the query pool.
type Listener struct {
	bridge   *Bridge
	listener *pq.Listener
}

// NewListener dials a LISTEN connection for the row-change channel.
func NewListener(dsn string, bridge *Bridge) (*Listener, error) {
	pl := pq.NewListener(dsn, 10*time.Second, time.Minute, func(ev pq.ListenerEventType, err error) {
		if err != nil {
			log.Printf("realtime listener event %d: %v", ev, err)
		}
	})
	if err := pl.Listen(notifyChannel); err != nil {
		pl.Close()
		return nil, err
	}
	return &Listener{bridge: bridge, listener: pl}, nil
}

// Run pumps notifications into the bridge until ctx is cancelled. Postgres
// drops notifications across reconnects, so a reconnect (nil notification)
// publishes a synthetic change per watched relation to force refetches.
func (l *Listener) Run(ctx context.Context) {
	defer l.listener.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case n := <-l.listener.Notify:
			if n == nil {
				for _, rel := range []string{RelationMessages, RelationChatParticipants, RelationConnections, RelationNotifications} {
					l.bridge.Publish(Change{Table: rel, Op: "RECONNECT"})
				}
				continue
			}
			var change Change
			if err := json.Unmarshal([]byte(n.Extra), &change); err != nil {
				log.Printf("realtime: bad notify payload %q: %v", n.Extra, err)
				continue
			}
			l.bridge.Publish(change)
		case <-time.After(90 * time.Second):
			go l.listener.Ping()
		}
	}
}
