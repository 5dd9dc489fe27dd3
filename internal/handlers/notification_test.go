package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"connect-service/internal/mocks"
	"connect-service/internal/models"
	"connect-service/internal/repositories"
)

func setupNotificationRouter(handler *NotificationHandler, memberID int) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		if memberID != 0 {
			c.Set("memberID", memberID)
		}
		c.Next()
	})
	r.GET("/notifications", handler.ListNotifications)
	r.POST("/notifications/:notification_id/read", handler.MarkNotificationRead)
	r.POST("/notifications/read-all", handler.MarkAllNotificationsRead)
	return r
}

func TestListNotifications(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo, 20, nil)
	router := setupNotificationRouter(handler, 1)

	repo.On("List", mock.Anything, 1, 20).Return([]models.Notification{
		{ID: 3, RecipientID: 1, Type: models.NotificationPostLiked},
		{ID: 2, RecipientID: 1, Type: models.NotificationConnectionRequest, IsRead: true},
	}, nil).Once()
	repo.On("CountUnread", mock.Anything, 1).Return(1, nil).Once()

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Notifications []models.Notification `json:"notifications"`
		UnreadCount   int                   `json:"unread_count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	require.Len(t, resp.Notifications, 2)
	assert.Equal(t, 3, resp.Notifications[0].ID)
	assert.Equal(t, 1, resp.UnreadCount)
	repo.AssertExpectations(t)
}

func TestMarkNotificationRead(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo, 20, nil)
	router := setupNotificationRouter(handler, 1)

	repo.On("MarkRead", mock.Anything, 4, 1).Return(nil).Once()
	repo.On("CountUnread", mock.Anything, 1).Return(2, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/notifications/4/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		UnreadCount int `json:"unread_count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 2, resp.UnreadCount)
	repo.AssertExpectations(t)
}

func TestMarkNotificationReadNotFound(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo, 20, nil)
	router := setupNotificationRouter(handler, 1)

	// Someone else's notification looks the same as a missing one.
	repo.On("MarkRead", mock.Anything, 99, 1).Return(repositories.ErrNotificationNotFound).Once()

	req := httptest.NewRequest(http.MethodPost, "/notifications/99/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusNotFound, rec.Code)
	repo.AssertExpectations(t)
}

func TestMarkNotificationReadInvalidID(t *testing.T) {
	handler := NewNotificationHandler(new(mocks.NotificationRepositoryMock), 20, nil)
	router := setupNotificationRouter(handler, 1)

	req := httptest.NewRequest(http.MethodPost, "/notifications/abc/read", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMarkAllNotificationsRead(t *testing.T) {
	repo := new(mocks.NotificationRepositoryMock)
	handler := NewNotificationHandler(repo, 20, nil)
	router := setupNotificationRouter(handler, 1)

	repo.On("MarkAllRead", mock.Anything, 1).Return(5, nil).Once()

	req := httptest.NewRequest(http.MethodPost, "/notifications/read-all", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusOK, rec.Code)
	var resp struct {
		Marked      int `json:"marked"`
		UnreadCount int `json:"unread_count"`
	}
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 5, resp.Marked)
	assert.Equal(t, 0, resp.UnreadCount)
	repo.AssertExpectations(t)
}

func TestListNotificationsNoMember(t *testing.T) {
	handler := NewNotificationHandler(new(mocks.NotificationRepositoryMock), 20, nil)
	router := setupNotificationRouter(handler, 0)

	req := httptest.NewRequest(http.MethodGet, "/notifications", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	require.Equal(t, http.StatusForbidden, rec.Code)
}
