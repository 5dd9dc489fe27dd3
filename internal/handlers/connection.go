package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"connect-service/internal/middleware"
	"connect-service/internal/models"
	"connect-service/internal/repositories"
	"connect-service/internal/telemetry"
	"connect-service/internal/ws"
)

// ConnectionHandler manages connection-request endpoints.
type ConnectionHandler struct {
	connectionRepo   repositories.ConnectionRepository
	notificationRepo repositories.NotificationRepository
	memberRepo       repositories.MemberRepository
	hub              *ws.Hub
	audit            *telemetry.AuditEmitter
}

// NewConnectionHandler builds a ConnectionHandler.
func NewConnectionHandler(connectionRepo repositories.ConnectionRepository, notificationRepo repositories.NotificationRepository, memberRepo repositories.MemberRepository, hub *ws.Hub, audit *telemetry.AuditEmitter) *ConnectionHandler {
	return &ConnectionHandler{
		connectionRepo:   connectionRepo,
		notificationRepo: notificationRepo,
		memberRepo:       memberRepo,
		hub:              hub,
		audit:            audit,
	}
}

// CreateConnection sends a connection request. The receiver gets a
// connection_request notification in the same flow.
func (h *ConnectionHandler) CreateConnection(c *gin.Context) {
	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return
	}

	var req struct {
		ReceiverID int `json:"receiver_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ReceiverID == memberID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot connect with yourself"})
		return
	}

	conn, err := h.connectionRepo.CreateRequest(c.Request.Context(), memberID, req.ReceiverID)
	if err != nil {
		if errors.Is(err, repositories.ErrConnectionExists) {
			c.JSON(http.StatusConflict, gin.H{"error": "connection already exists"})
			return
		}
		h.emitAudit(c, "ERROR", "connection request failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not create connection"})
		return
	}

	h.notifyConnectionRequest(c, conn)
	h.emitAudit(c, "INFO", "connection request sent")
	c.JSON(http.StatusCreated, conn)
}

// ListPendingConnections returns incoming requests awaiting the member's
// decision.
func (h *ConnectionHandler) ListPendingConnections(c *gin.Context) {
	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return
	}

	conns, err := h.connectionRepo.ListPending(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load pending connections"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"connections": conns})
}

// DecideConnection accepts or rejects a pending request. The transition is
// terminal; deciding an already-decided connection returns 409.
func (h *ConnectionHandler) DecideConnection(c *gin.Context) {
	connectionID, err := strconv.Atoi(c.Param("connection_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid connection id"})
		return
	}

	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return
	}

	var req struct {
		Action string `json:"action" binding:"required,oneof=accept reject"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	status := models.ConnectionAccepted
	if req.Action == "reject" {
		status = models.ConnectionRejected
	}

	conn, err := h.connectionRepo.Decide(c.Request.Context(), connectionID, memberID, status)
	if err != nil {
		if errors.Is(err, repositories.ErrConnectionNotPending) {
			c.JSON(http.StatusConflict, gin.H{"error": "connection is not pending"})
			return
		}
		h.emitAudit(c, "ERROR", "connection decision failed")
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not decide connection"})
		return
	}

	if conn.Status == models.ConnectionAccepted {
		h.notifyConnectionAccepted(c, conn)
	}
	h.emitAudit(c, "INFO", fmt.Sprintf("connection %s", conn.Status))
	c.JSON(http.StatusOK, conn)
}

func (h *ConnectionHandler) notifyConnectionRequest(c *gin.Context, conn models.Connection) {
	data, err := models.EncodePayload(models.ConnectionRequestData{ConnectionID: conn.ID, SenderID: conn.SenderID})
	if err != nil {
		return
	}

	message := "A member wants to connect with you"
	if sender, err := h.memberRepo.GetMember(c.Request.Context(), conn.SenderID); err == nil && sender.FullName != "" {
		message = fmt.Sprintf("%s wants to connect with you", sender.FullName)
	}

	n, err := h.notificationRepo.Create(c.Request.Context(), conn.ReceiverID,
		models.NotificationConnectionRequest, "New connection request", message, data)
	if err != nil {
		// The pending badge still updates through the connections trigger.
		return
	}
	h.hub.BroadcastNotification(conn.ReceiverID, n)
}

func (h *ConnectionHandler) notifyConnectionAccepted(c *gin.Context, conn models.Connection) {
	data, err := models.EncodePayload(models.ConnectionAcceptedData{ConnectionID: conn.ID, ReceiverID: conn.ReceiverID})
	if err != nil {
		return
	}

	message := "Your connection request was accepted"
	if receiver, err := h.memberRepo.GetMember(c.Request.Context(), conn.ReceiverID); err == nil && receiver.FullName != "" {
		message = fmt.Sprintf("%s accepted your connection request", receiver.FullName)
	}

	n, err := h.notificationRepo.Create(c.Request.Context(), conn.SenderID,
		models.NotificationConnectionAccepted, "Connection accepted", message, data)
	if err != nil {
		return
	}
	h.hub.BroadcastNotification(conn.SenderID, n)
}

func (h *ConnectionHandler) emitAudit(c *gin.Context, level, text string) {
	h.audit.Emit(c.Request.Context(), level, text, requestIDFromContext(c), memberIDFromContext(c))
}
