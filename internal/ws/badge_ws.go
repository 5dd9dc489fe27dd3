package ws

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.opentelemetry.io/otel"

	"connect-service/internal/aggregator"
	"connect-service/internal/identity"
	"connect-service/internal/observability"
	"connect-service/internal/repositories"
)

// BadgeWebSocketHandler streams live badge counts to a member. The member's
// badge session is acquired when the socket attaches and released when it
// closes, so aggregator subscriptions exist exactly while someone is
// listening.
type BadgeWebSocketHandler struct {
	hub      *Hub
	sessions *aggregator.Service
	provider identity.Provider
	members  repositories.MemberRepository
}

// NewBadgeWebSocketHandler constructs a BadgeWebSocketHandler.
func NewBadgeWebSocketHandler(hub *Hub, sessions *aggregator.Service, provider identity.Provider, members repositories.MemberRepository) *BadgeWebSocketHandler {
	return &BadgeWebSocketHandler{hub: hub, sessions: sessions, provider: provider, members: members}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Handle upgrades the connection, starts the badge session, and pushes the
// current counts immediately so the client renders without waiting for the
// first change event.
func (h *BadgeWebSocketHandler) Handle(c *gin.Context) {
	ctx, span := otel.Tracer("connect-service/ws").Start(c.Request.Context(), "ws.handshake")
	defer span.End()
	c.Request = c.Request.WithContext(ctx)

	token := c.GetHeader("Authorization")
	if token == "" {
		token = c.Query("token")
		if token != "" {
			token = "Bearer " + token
		}
	}

	memberID, err := h.resolveMember(c.Request.Context(), token)
	if err != nil {
		if errors.Is(err, repositories.ErrMemberNotFound) {
			c.JSON(http.StatusForbidden, gin.H{"error": "no member profile"})
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
		return
	}

	conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		return
	}
	traceID := span.SpanContext().TraceID().String()
	requestID := observability.RequestIDFromRequest(c.Request)
	info := ConnInfo{
		ConnID:      newConnID(),
		MemberID:    memberID,
		DeviceID:    observability.DeviceIDFromRequest(c.Request),
		IP:          observability.IPFromRequest(c.Request),
		RequestID:   requestID,
		TraceID:     traceID,
		ConnectedAt: time.Now(),
	}
	h.hub.AddClient(memberID, conn, info)

	// Session lifetime is detached from the handshake request context.
	session := h.sessions.Acquire(context.Background(), memberID)
	h.hub.BroadcastBadges(memberID, session.Badges())

	observability.IncWSActive("badge")
	observability.IncWSEvent("badge", "ws_connect")
	_ = observability.PublishEvent(ctx, badgeRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_connect",
		Payload:   wsEventPayload("ws_connect", info, 0, ""),
	}, observability.BuildHeaders(requestID, traceID))

	go func() {
		var closeReason string
		defer func() {
			h.hub.RemoveClient(memberID, conn)
			h.sessions.Release(memberID)
			observability.DecWSActive("badge")
			observability.IncWSEvent("badge", "ws_disconnect")
			_ = observability.PublishEvent(ctx, badgeRoutingKey, observability.EventEnvelope{
				EventType: "ws_events",
				EventName: "ws_disconnect",
				Payload:   wsEventPayload("ws_disconnect", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
			}, observability.BuildHeaders(requestID, traceID))
			conn.Close()
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				closeReason = err.Error()
				if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					observability.IncWSEvent("badge", "ws_error")
					_ = observability.PublishEvent(ctx, badgeRoutingKey, observability.EventEnvelope{
						EventType: "ws_events",
						EventName: "ws_error",
						Payload:   wsEventPayload("ws_error", info, time.Since(info.ConnectedAt).Milliseconds(), closeReason),
					}, observability.BuildHeaders(requestID, traceID))
				}
				return
			}
		}
	}()
}

func (h *BadgeWebSocketHandler) resolveMember(ctx context.Context, header string) (int, error) {
	parts := strings.Split(header, " ")
	if len(parts) != 2 {
		return 0, fmt.Errorf("invalid token")
	}
	user, err := h.provider.CurrentUser(ctx, parts[1])
	if err != nil {
		return 0, err
	}
	member, err := h.members.ResolveMember(ctx, user.ID)
	if err != nil {
		return 0, err
	}
	return member.ID, nil
}

func wsEventPayload(event string, info ConnInfo, durationMS int64, reason string) map[string]interface{} {
	return map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "badge",
			"resource_id": info.MemberID,
			"event":       event,
			"conn_id":     info.ConnID,
			"duration_ms": durationMS,
			"reason":      reason,
		},
		"identity": map[string]interface{}{
			"member_id": info.MemberID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}
}
