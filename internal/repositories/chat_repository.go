package repositories

import (
	"context"
	"database/sql"
	"errors"
	"sort"

	"github.com/jmoiron/sqlx"

	"connect-service/internal/models"
)

var ErrChatNotFound = errors.New("chat not found")

// ChatRepository abstracts chat and participant persistence.
type ChatRepository interface {
	StartChat(ctx context.Context, memberID int, partnerID int) (models.Chat, error)
	GetChat(ctx context.Context, chatID int) (models.Chat, error)
	IsParticipant(ctx context.Context, chatID int, memberID int) (bool, error)
	ListChats(ctx context.Context, memberID int) ([]models.ChatSummary, error)
	ListParticipants(ctx context.Context, memberID int) ([]models.ChatParticipant, error)
	MarkChatRead(ctx context.Context, chatID int, memberID int) error
}

// ChatRepo is a sqlx implementation of ChatRepository.
type ChatRepo struct {
	db *sqlx.DB
}

// NewChatRepo constructs a ChatRepo.
func NewChatRepo(db *sqlx.DB) *ChatRepo {
	return &ChatRepo{db: db}
}

// StartChat returns the existing chat between the two members or creates one,
// joining both as participants. A member has at most one participant row per
// chat, enforced by the primary key and ON CONFLICT DO NOTHING.
func (r *ChatRepo) StartChat(ctx context.Context, memberID int, partnerID int) (models.Chat, error) {
	if memberID == partnerID {
		return models.Chat{}, errors.New("cannot start chat with self")
	}
	pair := []int{memberID, partnerID}
	sort.Ints(pair)

	var chat models.Chat
	query := `SELECT c.id, c.created_at FROM chats c
        JOIN chat_participants p1 ON p1.chat_id = c.id AND p1.member_id = $1
        JOIN chat_participants p2 ON p2.chat_id = c.id AND p2.member_id = $2
        LIMIT 1`
	err := r.db.GetContext(ctx, &chat, query, pair[0], pair[1])
	if err == nil {
		return chat, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, err
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return models.Chat{}, err
	}
	defer tx.Rollback()

	if err := tx.QueryRowxContext(ctx, `INSERT INTO chats DEFAULT VALUES RETURNING id, created_at`).
		Scan(&chat.ID, &chat.CreatedAt); err != nil {
		return models.Chat{}, err
	}
	for _, id := range pair {
		if _, err := tx.ExecContext(ctx, `INSERT INTO chat_participants (chat_id, member_id) VALUES ($1, $2)
            ON CONFLICT (chat_id, member_id) DO NOTHING`, chat.ID, id); err != nil {
			return models.Chat{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return models.Chat{}, err
	}
	return chat, nil
}

// GetChat fetches a chat by id.
func (r *ChatRepo) GetChat(ctx context.Context, chatID int) (models.Chat, error) {
	var chat models.Chat
	err := r.db.GetContext(ctx, &chat, `SELECT id, created_at FROM chats WHERE id=$1`, chatID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Chat{}, ErrChatNotFound
	}
	return chat, err
}

// IsParticipant checks whether a member belongs to the chat.
func (r *ChatRepo) IsParticipant(ctx context.Context, chatID int, memberID int) (bool, error) {
	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM chat_participants WHERE chat_id=$1 AND member_id=$2)`, chatID, memberID)
	return exists, err
}

// ListChats returns the member's chats, newest first, with the other
// participant's id for two-party chats.
func (r *ChatRepo) ListChats(ctx context.Context, memberID int) ([]models.ChatSummary, error) {
	query := `SELECT c.id AS chat_id, COALESCE(other.member_id, 0) AS partner_id, c.created_at
        FROM chats c
        JOIN chat_participants me ON me.chat_id = c.id AND me.member_id = $1
        LEFT JOIN chat_participants other ON other.chat_id = c.id AND other.member_id <> $1
        ORDER BY c.created_at DESC`
	var chats []models.ChatSummary
	err := r.db.SelectContext(ctx, &chats, query, memberID)
	return chats, err
}

// ListParticipants returns every participant record of the member, the input
// to unread counting.
func (r *ChatRepo) ListParticipants(ctx context.Context, memberID int) ([]models.ChatParticipant, error) {
	var participants []models.ChatParticipant
	err := r.db.SelectContext(ctx, &participants,
		`SELECT chat_id, member_id, last_read_at, joined_at FROM chat_participants WHERE member_id=$1`, memberID)
	return participants, err
}

// MarkChatRead advances the member's read cutoff for the chat to now.
func (r *ChatRepo) MarkChatRead(ctx context.Context, chatID int, memberID int) error {
	res, err := r.db.ExecContext(ctx, `UPDATE chat_participants SET last_read_at = NOW() WHERE chat_id=$1 AND member_id=$2`, chatID, memberID)
	if err != nil {
		return err
	}
	count, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if count == 0 {
		return ErrChatNotFound
	}
	return nil
}
