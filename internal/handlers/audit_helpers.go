package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"connect-service/internal/middleware"
)

const requestIDContextKey = "request_id"

func requestIDFromContext(c *gin.Context) string {
	if val, ok := c.Get(requestIDContextKey); ok {
		if id, ok := val.(string); ok && id != "" {
			return id
		}
	}

	requestID := c.GetHeader("X-Request-ID")
	if requestID == "" {
		requestID = uuid.NewString()
	}
	c.Set(requestIDContextKey, requestID)
	return requestID
}

func memberIDFromContext(c *gin.Context) *int64 {
	if id, ok := middleware.MemberID(c); ok {
		value := int64(id)
		return &value
	}
	return nil
}
