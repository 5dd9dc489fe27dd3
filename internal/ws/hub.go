package ws

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"connect-service/internal/models"
	"connect-service/internal/observability"
)

const badgeRoutingKey = "ws_events.badges"

// Hub maintains the active badge websocket connections, grouped per member.
type Hub struct {
	rooms    map[int]map[*websocket.Conn]bool
	connInfo map[int]map[*websocket.Conn]ConnInfo
	mu       sync.RWMutex
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		rooms:    make(map[int]map[*websocket.Conn]bool),
		connInfo: make(map[int]map[*websocket.Conn]ConnInfo),
	}
}

// AddClient registers a websocket connection for a member.
func (h *Hub) AddClient(memberID int, conn *websocket.Conn, info ConnInfo) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.rooms[memberID]; !ok {
		h.rooms[memberID] = make(map[*websocket.Conn]bool)
	}
	h.rooms[memberID][conn] = true
	if _, ok := h.connInfo[memberID]; !ok {
		h.connInfo[memberID] = make(map[*websocket.Conn]ConnInfo)
	}
	h.connInfo[memberID][conn] = info
}

// RemoveClient removes a member's websocket connection.
func (h *Hub) RemoveClient(memberID int, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if conns, ok := h.rooms[memberID]; ok {
		delete(conns, conn)
		if len(conns) == 0 {
			delete(h.rooms, memberID)
		}
	}
	if infos, ok := h.connInfo[memberID]; ok {
		delete(infos, conn)
		if len(infos) == 0 {
			delete(h.connInfo, memberID)
		}
	}
}

// ClientCount returns the number of live connections for a member.
func (h *Hub) ClientCount(memberID int) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.rooms[memberID])
}

// BroadcastBadges pushes refreshed badge counts to all of the member's
// connections.
func (h *Hub) BroadcastBadges(memberID int, counts models.BadgeCounts) {
	event := models.BadgeEvent{Type: "badges", Badges: counts}
	h.broadcast(memberID, event)
	observability.IncBadgePush()
}

// BroadcastNotification pushes a new notification to the member.
func (h *Hub) BroadcastNotification(memberID int, n models.Notification) {
	event := models.NotificationEvent{Type: "notification", Notification: &n}
	h.broadcast(memberID, event)
}

func (h *Hub) broadcast(memberID int, event any) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.rooms[memberID]))
	for conn := range h.rooms[memberID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	payload, _ := json.Marshal(event)
	for _, conn := range conns {
		if err := conn.WriteMessage(websocket.TextMessage, payload); err != nil {
			log.Printf("websocket write error: %v", err)
			conn.Close()
			h.RemoveClient(memberID, conn)
			h.publishWSError(memberID, conn, err)
		}
	}
}

func (h *Hub) publishWSError(memberID int, conn *websocket.Conn, err error) {
	info, ok := h.getConnInfo(memberID, conn)
	if !ok {
		return
	}

	payload := map[string]interface{}{
		"ws": map[string]interface{}{
			"kind":        "badge",
			"resource_id": memberID,
			"event":       "ws_error",
			"conn_id":     info.ConnID,
			"duration_ms": time.Since(info.ConnectedAt).Milliseconds(),
			"reason":      err.Error(),
		},
		"identity": map[string]interface{}{
			"member_id": info.MemberID,
			"device_id": info.DeviceID,
			"ip":        info.IP,
		},
	}

	headers := observability.BuildHeaders(info.RequestID, info.TraceID)
	_ = observability.PublishEvent(context.Background(), badgeRoutingKey, observability.EventEnvelope{
		EventType: "ws_events",
		EventName: "ws_error",
		Payload:   payload,
	}, headers)
	observability.IncWSEvent("badge", "ws_error")
}

func (h *Hub) getConnInfo(memberID int, conn *websocket.Conn) (ConnInfo, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if infos, ok := h.connInfo[memberID]; ok {
		info, exists := infos[conn]
		return info, exists
	}
	return ConnInfo{}, false
}
