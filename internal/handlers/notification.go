package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"connect-service/internal/middleware"
	"connect-service/internal/repositories"
	"connect-service/internal/telemetry"
)

// NotificationHandler manages the notification feed endpoints.
type NotificationHandler struct {
	notificationRepo repositories.NotificationRepository
	pageSize         int
	audit            *telemetry.AuditEmitter
}

// NewNotificationHandler builds a NotificationHandler. pageSize bounds List.
func NewNotificationHandler(notificationRepo repositories.NotificationRepository, pageSize int, audit *telemetry.AuditEmitter) *NotificationHandler {
	if pageSize <= 0 {
		pageSize = 20
	}
	return &NotificationHandler{notificationRepo: notificationRepo, pageSize: pageSize, audit: audit}
}

// ListNotifications returns the member's notifications, newest first, with
// the unread badge count.
func (h *NotificationHandler) ListNotifications(c *gin.Context) {
	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return
	}

	notifications, err := h.notificationRepo.List(c.Request.Context(), memberID, h.pageSize)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load notifications"})
		return
	}
	unread, err := h.notificationRepo.CountUnread(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unread"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"notifications": notifications, "unread_count": unread})
}

// MarkNotificationRead marks one notification read. Marking twice is a no-op
// success; the unread count in the response is recomputed, never decremented.
func (h *NotificationHandler) MarkNotificationRead(c *gin.Context) {
	notificationID, err := strconv.Atoi(c.Param("notification_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid notification id"})
		return
	}

	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return
	}

	if err := h.notificationRepo.MarkRead(c.Request.Context(), notificationID, memberID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrNotificationNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not mark notification read"})
		return
	}

	unread, err := h.notificationRepo.CountUnread(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to count unread"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"unread_count": unread})
}

// MarkAllNotificationsRead marks everything unread at call time.
func (h *NotificationHandler) MarkAllNotificationsRead(c *gin.Context) {
	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return
	}

	marked, err := h.notificationRepo.MarkAllRead(c.Request.Context(), memberID)
	if err != nil {
		h.audit.Emit(c.Request.Context(), "ERROR", "mark all read failed", requestIDFromContext(c), memberIDFromContext(c))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not mark notifications read"})
		return
	}

	h.audit.Emit(c.Request.Context(), "INFO", "all notifications marked read", requestIDFromContext(c), memberIDFromContext(c))
	c.JSON(http.StatusOK, gin.H{"marked": marked, "unread_count": 0})
}
