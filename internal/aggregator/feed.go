package aggregator

import (
	"context"
	"log"
	"sync"

	"connect-service/internal/models"
	"connect-service/internal/observability"
	"connect-service/internal/realtime"
	"connect-service/internal/repositories"
)

// DefaultPageSize bounds the notification list when no page size is configured.
const DefaultPageSize = 20

// Feed maintains a member's notification list, newest first, together with the
// unread badge count. The badge is always recomputed from the store after a
// mark operation, never decremented in place, so concurrent mutations cannot
// make it drift.
type Feed struct {
	store    repositories.NotificationRepository
	memberID int
	pageSize int
	bridge   *realtime.Bridge
	onUpdate func()

	mu            sync.Mutex
	notifications []models.Notification
	unread        int
	loading       bool
	closed        bool
	seq           uint64
	sub           *realtime.Subscription
}

// NewFeed builds the notification feed for a member. pageSize <= 0 selects the
// default. onUpdate, if set, is called after each applied refresh.
func NewFeed(store repositories.NotificationRepository, memberID int, pageSize int, bridge *realtime.Bridge, onUpdate func()) *Feed {
	if pageSize <= 0 {
		pageSize = DefaultPageSize
	}
	return &Feed{
		store:    store,
		memberID: memberID,
		pageSize: pageSize,
		bridge:   bridge,
		onUpdate: onUpdate,
	}
}

// Start performs the baseline fetch and subscribes to notification changes.
func (f *Feed) Start(ctx context.Context) {
	f.mu.Lock()
	if f.closed || f.sub != nil {
		f.mu.Unlock()
		return
	}
	f.sub = f.bridge.Subscribe([]string{realtime.RelationNotifications}, func(realtime.Change) {
		f.Refresh(ctx)
	})
	f.mu.Unlock()

	f.Refresh(ctx)
}

// Refresh refetches the list and the unread count asynchronously. Stale
// responses (a newer request issued, or the feed closed) are discarded; on
// failure the previous list and count are kept.
func (f *Feed) Refresh(ctx context.Context) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.seq++
	seq := f.seq
	f.loading = true
	f.mu.Unlock()

	observability.IncRefetch("notifications")

	go func() {
		notifications, listErr := f.store.List(ctx, f.memberID, f.pageSize)
		unread, countErr := f.store.CountUnread(ctx, f.memberID)

		f.mu.Lock()
		if f.closed || seq != f.seq {
			f.mu.Unlock()
			return
		}
		f.loading = false
		if listErr != nil || countErr != nil {
			f.mu.Unlock()
			log.Printf("notification refetch failed, keeping last state: list=%v count=%v", listErr, countErr)
			return
		}
		f.notifications = notifications
		f.unread = unread
		onUpdate := f.onUpdate
		f.mu.Unlock()

		if onUpdate != nil {
			onUpdate()
		}
	}()
}

// Notifications returns the current list, the unread count, and the loading
// flag for interim rendering.
func (f *Feed) Notifications() ([]models.Notification, int, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]models.Notification, len(f.notifications))
	copy(out, f.notifications)
	return out, f.unread, f.loading
}

// UnreadCount returns the current unread badge value.
func (f *Feed) UnreadCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.unread
}

// MarkRead marks one notification read and eagerly recomputes the badge. The
// transition is unread -> read only and idempotent; no optimistic local update
// happens before the store succeeds.
func (f *Feed) MarkRead(ctx context.Context, notificationID int) error {
	if err := f.store.MarkRead(ctx, notificationID, f.memberID); err != nil {
		return err
	}
	f.Refresh(ctx)
	return nil
}

// MarkAllRead marks everything unread at call time and recomputes the badge.
func (f *Feed) MarkAllRead(ctx context.Context) error {
	if _, err := f.store.MarkAllRead(ctx, f.memberID); err != nil {
		return err
	}
	f.Refresh(ctx)
	return nil
}

// Close unsubscribes and discards in-flight refreshes. Idempotent.
func (f *Feed) Close() {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	f.closed = true
	sub := f.sub
	f.mu.Unlock()

	if sub != nil {
		sub.Close()
	}
}
