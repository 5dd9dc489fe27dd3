package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"connect-service/internal/aggregator"
	"connect-service/internal/middleware"
	"connect-service/internal/models"
	"connect-service/internal/repositories"
)

// BadgeHandler exposes the derived badge counts over plain HTTP, for clients
// without a websocket. Badges are ambient affordances: fetch failures degrade
// to zeros with a log line instead of an error response, and accounts without
// a member profile get zeros rather than a rejection.
type BadgeHandler struct {
	sessions   *aggregator.Service
	memberRepo repositories.MemberRepository
}

// NewBadgeHandler builds a BadgeHandler.
func NewBadgeHandler(sessions *aggregator.Service, memberRepo repositories.MemberRepository) *BadgeHandler {
	return &BadgeHandler{sessions: sessions, memberRepo: memberRepo}
}

// GetBadges returns the member's current badge counts. A live session's
// last-known values are preferred; otherwise the counts are computed directly.
func (h *BadgeHandler) GetBadges(c *gin.Context) {
	memberID, ok := middleware.MemberID(c)
	if !ok {
		c.JSON(http.StatusOK, models.BadgeCounts{})
		return
	}

	if session, live := h.sessions.Session(memberID); live {
		c.JSON(http.StatusOK, session.Badges())
		return
	}

	counts, err := h.sessions.Snapshot(c.Request.Context(), memberID)
	if err != nil {
		log.Printf("badge snapshot failed for member %d: %v", memberID, err)
		c.JSON(http.StatusOK, models.BadgeCounts{})
		return
	}
	c.JSON(http.StatusOK, counts)
}

// GetMe returns the resolved member profile.
func (h *BadgeHandler) GetMe(c *gin.Context) {
	memberID, ok := middleware.RequireMember(c)
	if !ok {
		return
	}

	member, err := h.memberRepo.GetMember(c.Request.Context(), memberID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load member"})
		return
	}
	c.JSON(http.StatusOK, member)
}
