package models

import "time"

// ConnectionStatus is the lifecycle state of a connection request.
type ConnectionStatus string

const (
	ConnectionPending  ConnectionStatus = "pending"
	ConnectionAccepted ConnectionStatus = "accepted"
	ConnectionRejected ConnectionStatus = "rejected"
)

// Terminal reports whether the status can no longer change. Accepted and
// rejected are terminal; a connection transitions out of pending exactly once.
func (s ConnectionStatus) Terminal() bool {
	return s == ConnectionAccepted || s == ConnectionRejected
}

// Connection is a relationship request between two members. At most one
// connection exists per unordered member pair.
type Connection struct {
	ID          int              `db:"id" json:"id"`
	SenderID    int              `db:"sender_id" json:"sender_id"`
	ReceiverID  int              `db:"receiver_id" json:"receiver_id"`
	Status      ConnectionStatus `db:"status" json:"status"`
	RespondedAt *time.Time       `db:"responded_at" json:"responded_at,omitempty"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
}
