package aggregator

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"connect-service/internal/mocks"
	"connect-service/internal/models"
	"connect-service/internal/realtime"
)

type captureBroadcaster struct {
	mu     sync.Mutex
	counts []models.BadgeCounts
}

func (b *captureBroadcaster) BroadcastBadges(_ int, counts models.BadgeCounts) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.counts = append(b.counts, counts)
}

func (b *captureBroadcaster) last() (models.BadgeCounts, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if len(b.counts) == 0 {
		return models.BadgeCounts{}, false
	}
	return b.counts[len(b.counts)-1], true
}

func newServiceForTest(broadcaster Broadcaster) (*Service, *mocks.ChatRepositoryMock, *mocks.MessageRepositoryMock, *mocks.ConnectionRepositoryMock, *mocks.NotificationRepositoryMock, *realtime.Bridge) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	connections := new(mocks.ConnectionRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	bridge := realtime.NewBridge()
	service := NewService(chats, messages, connections, notifications, bridge, broadcaster, 20)
	return service, chats, messages, connections, notifications, bridge
}

func TestServiceSessionBroadcastsOnChange(t *testing.T) {
	broadcaster := &captureBroadcaster{}
	service, chats, _, connections, notifications, bridge := newServiceForTest(broadcaster)

	chats.On("ListParticipants", mock.Anything, 1).Return([]models.ChatParticipant{}, nil)
	connections.On("CountPending", mock.Anything, 1).Return(1, nil).Once()
	connections.On("CountPending", mock.Anything, 1).Return(0, nil)
	notifications.On("List", mock.Anything, 1, 20).Return([]models.Notification{}, nil)
	notifications.On("CountUnread", mock.Anything, 1).Return(0, nil)

	session := service.Acquire(context.Background(), 1)
	defer service.Release(1)

	require.Eventually(t, func() bool {
		return session.Badges().PendingConnectionCount == 1
	}, time.Second, 5*time.Millisecond)

	// The receiver decides the request; the connections change invalidates
	// the pending count and the drop is pushed to the broadcaster.
	bridge.Publish(realtime.Change{Table: realtime.RelationConnections, Op: "UPDATE"})

	require.Eventually(t, func() bool {
		counts, ok := broadcaster.last()
		return ok && counts.PendingConnectionCount == 0
	}, time.Second, 5*time.Millisecond)
}

func TestServiceRefcountsSessions(t *testing.T) {
	service, chats, _, connections, notifications, _ := newServiceForTest(nil)

	chats.On("ListParticipants", mock.Anything, 1).Return([]models.ChatParticipant{}, nil)
	connections.On("CountPending", mock.Anything, 1).Return(0, nil)
	notifications.On("List", mock.Anything, 1, 20).Return([]models.Notification{}, nil)
	notifications.On("CountUnread", mock.Anything, 1).Return(0, nil)

	first := service.Acquire(context.Background(), 1)
	second := service.Acquire(context.Background(), 1)
	assert.Same(t, first, second, "one session per member")

	service.Release(1)
	_, live := service.Session(1)
	assert.True(t, live, "session stays while a reference remains")

	service.Release(1)
	_, live = service.Session(1)
	assert.False(t, live, "last release closes the session")
}

func TestServiceSnapshot(t *testing.T) {
	service, chats, messages, connections, notifications, _ := newServiceForTest(nil)

	joined := time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)
	chats.On("ListParticipants", mock.Anything, 2).Return([]models.ChatParticipant{
		{ChatID: 9, MemberID: 2, JoinedAt: joined},
	}, nil).Once()
	messages.On("CountMessagesSince", mock.Anything, 9, 2, joined).Return(4, nil).Once()
	connections.On("CountPending", mock.Anything, 2).Return(1, nil).Once()
	notifications.On("CountUnread", mock.Anything, 2).Return(3, nil).Once()

	counts, err := service.Snapshot(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, models.BadgeCounts{UnreadCount: 4, PendingConnectionCount: 1, NotificationUnreadCount: 3}, counts)
}
