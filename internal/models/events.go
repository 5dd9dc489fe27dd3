package models

// BadgeCounts are the reactive values consumed by navigation badges.
type BadgeCounts struct {
	UnreadCount             int `json:"unread_count"`
	PendingConnectionCount  int `json:"pending_connection_count"`
	NotificationUnreadCount int `json:"notification_unread_count"`
}

// BadgeEvent is pushed over a member's websocket whenever a derived count
// refreshes.
type BadgeEvent struct {
	Type   string      `json:"type"`
	Badges BadgeCounts `json:"badges"`
}

// NotificationEvent is pushed when a new notification lands for the member.
type NotificationEvent struct {
	Type         string        `json:"type"`
	Notification *Notification `json:"notification,omitempty"`
}
