package aggregator

import (
	"context"
	"time"

	"connect-service/internal/models"
	"connect-service/internal/realtime"
)

// ParticipantSource lists a member's chat-participant records.
type ParticipantSource interface {
	ListParticipants(ctx context.Context, memberID int) ([]models.ChatParticipant, error)
}

// MessageCounter counts foreign messages in a chat after a cutoff.
type MessageCounter interface {
	CountMessagesSince(ctx context.Context, chatID int, memberID int, cutoff time.Time) (int, error)
}

// NewUnreadCounter builds the unread-message counter for a member: the sum,
// over all chats they participate in, of messages from other members created
// strictly after that chat's read cutoff. Invalidated by message inserts and
// participant updates (mark-as-read advances the cutoff).
func NewUnreadCounter(participants ParticipantSource, messages MessageCounter, memberID int, bridge *realtime.Bridge, onUpdate func(int)) *Counter {
	fetch := func(ctx context.Context) (int, error) {
		return unreadCount(ctx, participants, messages, memberID)
	}
	return NewCounter("unread_messages", bridge,
		[]string{realtime.RelationMessages, realtime.RelationChatParticipants}, fetch, onUpdate)
}

func unreadCount(ctx context.Context, participants ParticipantSource, messages MessageCounter, memberID int) (int, error) {
	records, err := participants.ListParticipants(ctx, memberID)
	if err != nil {
		return 0, err
	}
	if len(records) == 0 {
		return 0, nil
	}

	now := time.Now()
	total := 0
	for _, p := range records {
		count, err := messages.CountMessagesSince(ctx, p.ChatID, memberID, cutoffFor(p, now))
		if err != nil {
			return 0, err
		}
		total += count
	}
	return total, nil
}

// cutoffFor resolves the timestamp after which messages count as unread for
// one chat. The per-chat cutoff matters because a member reads different chats
// at different times. Falling back to now guards against malformed rows with
// neither timestamp and yields zero unread for that chat.
func cutoffFor(p models.ChatParticipant, now time.Time) time.Time {
	if p.LastReadAt != nil {
		return *p.LastReadAt
	}
	if !p.JoinedAt.IsZero() {
		return p.JoinedAt
	}
	return now
}
