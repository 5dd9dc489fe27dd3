package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// NotificationType discriminates the payload variant carried in Data.
type NotificationType string

const (
	NotificationConnectionRequest  NotificationType = "connection_request"
	NotificationConnectionAccepted NotificationType = "connection_accepted"
	NotificationPostLiked          NotificationType = "post_liked"
	NotificationPostCommented      NotificationType = "post_commented"
)

// Notification is a feed entry for one member. The only mutation after
// creation is the unread -> read transition, which is terminal.
type Notification struct {
	ID          int              `db:"id" json:"id"`
	RecipientID int              `db:"recipient_id" json:"recipient_id"`
	Type        NotificationType `db:"type" json:"type"`
	Title       string           `db:"title" json:"title"`
	Message     string           `db:"message" json:"message"`
	Data        json.RawMessage  `db:"data" json:"data,omitempty"`
	IsRead      bool             `db:"is_read" json:"is_read"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}

// ConnectionRequestData is the payload of a connection_request notification.
type ConnectionRequestData struct {
	ConnectionID int `json:"connection_id"`
	SenderID     int `json:"sender_id"`
}

// Link returns the in-app target for the notification.
func (d ConnectionRequestData) Link() string { return "/connections/pending" }

// ConnectionAcceptedData is the payload of a connection_accepted notification.
type ConnectionAcceptedData struct {
	ConnectionID int `json:"connection_id"`
	ReceiverID   int `json:"receiver_id"`
}

func (d ConnectionAcceptedData) Link() string { return fmt.Sprintf("/members/%d", d.ReceiverID) }

// PostLikedData is the payload of a post_liked notification.
type PostLikedData struct {
	PostID  int `json:"post_id"`
	LikerID int `json:"liker_id"`
}

func (d PostLikedData) Link() string { return fmt.Sprintf("/posts/%d", d.PostID) }

// PostCommentedData is the payload of a post_commented notification.
type PostCommentedData struct {
	PostID    int `json:"post_id"`
	CommentID int `json:"comment_id"`
	AuthorID  int `json:"author_id"`
}

func (d PostCommentedData) Link() string { return fmt.Sprintf("/posts/%d#comment-%d", d.PostID, d.CommentID) }

// Linker is implemented by all notification payload variants.
type Linker interface {
	Link() string
}

// DecodePayload unmarshals Data into the variant matching the notification
// type. Unknown types are an error so the feed never renders an untyped bag.
func (n Notification) DecodePayload() (Linker, error) {
	switch n.Type {
	case NotificationConnectionRequest:
		var d ConnectionRequestData
		if err := json.Unmarshal(n.Data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case NotificationConnectionAccepted:
		var d ConnectionAcceptedData
		if err := json.Unmarshal(n.Data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case NotificationPostLiked:
		var d PostLikedData
		if err := json.Unmarshal(n.Data, &d); err != nil {
			return nil, err
		}
		return d, nil
	case NotificationPostCommented:
		var d PostCommentedData
		if err := json.Unmarshal(n.Data, &d); err != nil {
			return nil, err
		}
		return d, nil
	default:
		return nil, fmt.Errorf("unknown notification type %q", n.Type)
	}
}

// EncodePayload marshals a typed payload for storage.
func EncodePayload(d Linker) (json.RawMessage, error) {
	raw, err := json.Marshal(d)
	if err != nil {
		return nil, err
	}
	return raw, nil
}
