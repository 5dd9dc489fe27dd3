package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"connect-service/internal/middleware"
	"connect-service/internal/repositories"
)

// ChatHandler manages chat endpoints.
type ChatHandler struct {
	chatRepo    repositories.ChatRepository
	messageRepo repositories.MessageRepository
}

// NewChatHandler builds a ChatHandler.
func NewChatHandler(chatRepo repositories.ChatRepository, messageRepo repositories.MessageRepository) *ChatHandler {
	return &ChatHandler{chatRepo: chatRepo, messageRepo: messageRepo}
}

// ListChats returns the chats the member participates in.
func (h *ChatHandler) ListChats(c *gin.Context) {
	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return
	}

	chats, err := h.chatRepo.ListChats(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load chats"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chats": chats})
}

// StartChat creates or returns the chat between the member and a partner.
func (h *ChatHandler) StartChat(c *gin.Context) {
	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return
	}

	var req struct {
		MemberID int `json:"member_id" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.MemberID == memberID {
		c.JSON(http.StatusBadRequest, gin.H{"error": "cannot chat with yourself"})
		return
	}

	chat, err := h.chatRepo.StartChat(c.Request.Context(), memberID, req.MemberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "could not start chat"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"chat_id": chat.ID})
}

// GetChatMessages returns the chat's messages in order.
func (h *ChatHandler) GetChatMessages(c *gin.Context) {
	chatID, memberID, ok := h.authorizeChat(c)
	if !ok {
		return
	}
	_ = memberID

	msgs, err := h.messageRepo.ListMessages(c.Request.Context(), chatID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load messages"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": msgs})
}

// PostChatMessage appends a message to the chat. The row-change trigger takes
// care of invalidating every other participant's unread count.
func (h *ChatHandler) PostChatMessage(c *gin.Context) {
	chatID, memberID, ok := h.authorizeChat(c)
	if !ok {
		return
	}

	var req struct {
		Content string `json:"content" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	msg, err := h.messageRepo.CreateMessage(c.Request.Context(), chatID, memberID, req.Content)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to store message"})
		return
	}

	c.JSON(http.StatusCreated, msg)
}

// MarkChatRead advances the member's read cutoff for the chat to now.
// Messages created at or before the cutoff stop counting as unread.
func (h *ChatHandler) MarkChatRead(c *gin.Context) {
	chatID, memberID, ok := h.authorizeChat(c)
	if !ok {
		return
	}

	if err := h.chatRepo.MarkChatRead(c.Request.Context(), chatID, memberID); err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, repositories.ErrChatNotFound) {
			status = http.StatusNotFound
		}
		c.JSON(status, gin.H{"error": "could not mark chat read"})
		return
	}

	c.Status(http.StatusNoContent)
}

func (h *ChatHandler) authorizeChat(c *gin.Context) (int, int, bool) {
	chatID, err := strconv.Atoi(c.Param("chat_id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid chat id"})
		return 0, 0, false
	}

	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return 0, 0, false
	}

	participant, err := h.chatRepo.IsParticipant(c.Request.Context(), chatID, memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to verify membership"})
		return 0, 0, false
	}
	if !participant {
		c.JSON(http.StatusForbidden, gin.H{"error": "not a chat participant"})
		return 0, 0, false
	}
	return chatID, memberID, true
}
