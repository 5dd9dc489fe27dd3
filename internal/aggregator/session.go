package aggregator

import (
	"context"
	"sync"

	"connect-service/internal/models"
	"connect-service/internal/realtime"
	"connect-service/internal/repositories"
)

// Broadcaster pushes refreshed badge counts to a member's live connections.
type Broadcaster interface {
	BroadcastBadges(memberID int, counts models.BadgeCounts)
}

// Session owns the three aggregators of one member. Its lifetime is tied to
// the member having at least one live badge connection: opened on the first,
// closed on the last, so subscriptions never leak across member changes.
type Session struct {
	memberID int
	unread   *Counter
	pending  *Counter
	feed     *Feed
}

// Start opens the aggregators' subscriptions and baseline fetches.
func (s *Session) Start(ctx context.Context) {
	s.unread.Start(ctx)
	s.pending.Start(ctx)
	s.feed.Start(ctx)
}

// Badges snapshots the current counts.
func (s *Session) Badges() models.BadgeCounts {
	return models.BadgeCounts{
		UnreadCount:             s.unread.Count(),
		PendingConnectionCount:  s.pending.Count(),
		NotificationUnreadCount: s.feed.UnreadCount(),
	}
}

// Feed exposes the session's notification feed.
func (s *Session) Feed() *Feed {
	return s.feed
}

// Close tears down all three aggregators.
func (s *Session) Close() {
	s.unread.Close()
	s.pending.Close()
	s.feed.Close()
}

// Service manages per-member badge sessions with reference counting.
type Service struct {
	chats         repositories.ChatRepository
	messages      repositories.MessageRepository
	connections   repositories.ConnectionRepository
	notifications repositories.NotificationRepository
	bridge        *realtime.Bridge
	broadcaster   Broadcaster
	pageSize      int

	mu       sync.Mutex
	sessions map[int]*sessionRef
}

type sessionRef struct {
	session *Session
	refs    int
}

// NewService wires the badge-session service.
func NewService(
	chats repositories.ChatRepository,
	messages repositories.MessageRepository,
	connections repositories.ConnectionRepository,
	notifications repositories.NotificationRepository,
	bridge *realtime.Bridge,
	broadcaster Broadcaster,
	pageSize int,
) *Service {
	return &Service{
		chats:         chats,
		messages:      messages,
		connections:   connections,
		notifications: notifications,
		bridge:        bridge,
		broadcaster:   broadcaster,
		pageSize:      pageSize,
		sessions:      make(map[int]*sessionRef),
	}
}

// Acquire returns the member's session, starting it on the first reference.
func (s *Service) Acquire(ctx context.Context, memberID int) *Session {
	s.mu.Lock()
	if ref, ok := s.sessions[memberID]; ok {
		ref.refs++
		s.mu.Unlock()
		return ref.session
	}

	session := s.newSession(memberID)
	s.sessions[memberID] = &sessionRef{session: session, refs: 1}
	s.mu.Unlock()

	session.Start(ctx)
	return session
}

// Release drops one reference, closing the session on the last.
func (s *Service) Release(memberID int) {
	s.mu.Lock()
	ref, ok := s.sessions[memberID]
	if !ok {
		s.mu.Unlock()
		return
	}
	ref.refs--
	if ref.refs > 0 {
		s.mu.Unlock()
		return
	}
	delete(s.sessions, memberID)
	s.mu.Unlock()

	ref.session.Close()
}

// Session returns the live session for a member, if any.
func (s *Service) Session(memberID int) (*Session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	ref, ok := s.sessions[memberID]
	if !ok {
		return nil, false
	}
	return ref.session, true
}

// Snapshot computes the badge counts directly from the stores, for one-shot
// HTTP reads when no session is running.
func (s *Service) Snapshot(ctx context.Context, memberID int) (models.BadgeCounts, error) {
	unread, err := unreadCount(ctx, s.chats, s.messages, memberID)
	if err != nil {
		return models.BadgeCounts{}, err
	}
	pending, err := s.connections.CountPending(ctx, memberID)
	if err != nil {
		return models.BadgeCounts{}, err
	}
	notifications, err := s.notifications.CountUnread(ctx, memberID)
	if err != nil {
		return models.BadgeCounts{}, err
	}
	return models.BadgeCounts{
		UnreadCount:             unread,
		PendingConnectionCount:  pending,
		NotificationUnreadCount: notifications,
	}, nil
}

func (s *Service) newSession(memberID int) *Session {
	session := &Session{memberID: memberID}
	push := func() {
		if s.broadcaster != nil {
			s.broadcaster.BroadcastBadges(memberID, session.Badges())
		}
	}
	session.unread = NewUnreadCounter(s.chats, s.messages, memberID, s.bridge, func(int) { push() })
	session.pending = NewPendingCounter(s.connections, memberID, s.bridge, func(int) { push() })
	session.feed = NewFeed(s.notifications, memberID, s.pageSize, s.bridge, push)
	return session
}
