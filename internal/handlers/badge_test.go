package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"connect-service/internal/aggregator"
	"connect-service/internal/mocks"
	"connect-service/internal/models"
	"connect-service/internal/realtime"
)

func setupBadgeRouter(handler *BadgeHandler, memberID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if memberID != 0 {
			c.Set("memberID", memberID)
		}
		c.Next()
	})
	r.GET("/me/badges", handler.GetBadges)
	r.GET("/me", handler.GetMe)
	return r
}

func TestGetBadgesSnapshot(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	messages := new(mocks.MessageRepositoryMock)
	connections := new(mocks.ConnectionRepositoryMock)
	notifications := new(mocks.NotificationRepositoryMock)
	service := aggregator.NewService(chats, messages, connections, notifications, realtime.NewBridge(), nil, 20)
	handler := NewBadgeHandler(service, new(mocks.MemberRepositoryMock))
	router := setupBadgeRouter(handler, 1)

	joined := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	chats.On("ListParticipants", mock.Anything, 1).Return([]models.ChatParticipant{
		{ChatID: 3, MemberID: 1, JoinedAt: joined},
	}, nil).Once()
	messages.On("CountMessagesSince", mock.Anything, 3, 1, joined).Return(2, nil).Once()
	connections.On("CountPending", mock.Anything, 1).Return(1, nil).Once()
	notifications.On("CountUnread", mock.Anything, 1).Return(3, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/me/badges", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var counts models.BadgeCounts
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&counts))
	assert.Equal(t, models.BadgeCounts{UnreadCount: 2, PendingConnectionCount: 1, NotificationUnreadCount: 3}, counts)
}

func TestGetBadgesNoMemberReturnsZeros(t *testing.T) {
	service := aggregator.NewService(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock),
		new(mocks.ConnectionRepositoryMock), new(mocks.NotificationRepositoryMock), realtime.NewBridge(), nil, 20)
	handler := NewBadgeHandler(service, new(mocks.MemberRepositoryMock))
	router := setupBadgeRouter(handler, 0)

	req := httptest.NewRequest(http.MethodGet, "/me/badges", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var counts models.BadgeCounts
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&counts))
	assert.Equal(t, models.BadgeCounts{}, counts)
}

func TestGetBadgesSnapshotFailureDegradesToZeros(t *testing.T) {
	chats := new(mocks.ChatRepositoryMock)
	service := aggregator.NewService(chats, new(mocks.MessageRepositoryMock),
		new(mocks.ConnectionRepositoryMock), new(mocks.NotificationRepositoryMock), realtime.NewBridge(), nil, 20)
	handler := NewBadgeHandler(service, new(mocks.MemberRepositoryMock))
	router := setupBadgeRouter(handler, 1)

	chats.On("ListParticipants", mock.Anything, 1).Return(nil, assert.AnError).Once()

	req := httptest.NewRequest(http.MethodGet, "/me/badges", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var counts models.BadgeCounts
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&counts))
	assert.Equal(t, models.BadgeCounts{}, counts)
}

func TestGetMe(t *testing.T) {
	memberRepo := new(mocks.MemberRepositoryMock)
	service := aggregator.NewService(new(mocks.ChatRepositoryMock), new(mocks.MessageRepositoryMock),
		new(mocks.ConnectionRepositoryMock), new(mocks.NotificationRepositoryMock), realtime.NewBridge(), nil, 20)
	handler := NewBadgeHandler(service, memberRepo)
	router := setupBadgeRouter(handler, 1)

	memberRepo.On("GetMember", mock.Anything, 1).Return(models.Member{ID: 1, FullName: "Ada", Email: "ada@example.com"}, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/me", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var member models.Member
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&member))
	assert.Equal(t, "Ada", member.FullName)
	memberRepo.AssertExpectations(t)
}
