package models

import "time"

// Chat is a conversation between members.
type Chat struct {
	ID        int       `db:"id" json:"id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// ChatParticipant records one member's membership in one chat together with
// their read cutoff. A member has at most one participant row per chat.
// LastReadAt is nil until the member first marks the chat read; JoinedAt is the
// fallback cutoff for unread counting.
type ChatParticipant struct {
	ChatID     int        `db:"chat_id" json:"chat_id"`
	MemberID   int        `db:"member_id" json:"member_id"`
	LastReadAt *time.Time `db:"last_read_at" json:"last_read_at,omitempty"`
	JoinedAt   time.Time  `db:"joined_at" json:"joined_at"`
}

// ChatSummary is the API-friendly view of a chat for one member.
type ChatSummary struct {
	ChatID    int       `db:"chat_id" json:"chat_id"`
	PartnerID int       `db:"partner_id" json:"partner_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
