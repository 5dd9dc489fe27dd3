package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"connect-service/internal/models"
)

var (
	ErrConnectionExists = errors.New("connection already exists")
	// ErrConnectionNotPending covers missing rows, rows the caller does not
	// receive, and rows already decided: accepted/rejected are terminal.
	ErrConnectionNotPending = errors.New("connection not pending")
)

// ConnectionRepository manages the connection-request lifecycle.
type ConnectionRepository interface {
	CreateRequest(ctx context.Context, senderID int, receiverID int) (models.Connection, error)
	Decide(ctx context.Context, connectionID int, receiverID int, status models.ConnectionStatus) (models.Connection, error)
	CountPending(ctx context.Context, memberID int) (int, error)
	ListPending(ctx context.Context, memberID int) ([]models.Connection, error)
}

// ConnectionRepo is a sqlx implementation of ConnectionRepository.
type ConnectionRepo struct {
	db *sqlx.DB
}

// NewConnectionRepo constructs a ConnectionRepo.
func NewConnectionRepo(db *sqlx.DB) *ConnectionRepo {
	return &ConnectionRepo{db: db}
}

// CreateRequest creates a pending connection from sender to receiver. At most
// one connection exists per unordered member pair, so the existence check
// looks up both orderings.
func (r *ConnectionRepo) CreateRequest(ctx context.Context, senderID int, receiverID int) (models.Connection, error) {
	if senderID == receiverID {
		return models.Connection{}, errors.New("cannot connect with self")
	}

	var exists bool
	err := r.db.GetContext(ctx, &exists, `SELECT EXISTS(SELECT 1 FROM connections
        WHERE (sender_id=$1 AND receiver_id=$2) OR (sender_id=$2 AND receiver_id=$1))`, senderID, receiverID)
	if err != nil {
		return models.Connection{}, err
	}
	if exists {
		return models.Connection{}, ErrConnectionExists
	}

	var conn models.Connection
	err = r.db.QueryRowxContext(ctx, `INSERT INTO connections (sender_id, receiver_id, status) VALUES ($1, $2, 'pending')
        RETURNING id, sender_id, receiver_id, status, responded_at, created_at`, senderID, receiverID).
		Scan(&conn.ID, &conn.SenderID, &conn.ReceiverID, &conn.Status, &conn.RespondedAt, &conn.CreatedAt)
	return conn, err
}

// Decide transitions a pending connection to accepted or rejected. The WHERE
// clause only matches rows still pending and addressed to the caller, so a
// second decision on the same row affects nothing and maps to
// ErrConnectionNotPending.
func (r *ConnectionRepo) Decide(ctx context.Context, connectionID int, receiverID int, status models.ConnectionStatus) (models.Connection, error) {
	if !status.Terminal() {
		return models.Connection{}, errors.New("decision must be accepted or rejected")
	}

	var conn models.Connection
	err := r.db.QueryRowxContext(ctx, `UPDATE connections SET status=$1, responded_at=NOW()
        WHERE id=$2 AND receiver_id=$3 AND status='pending'
        RETURNING id, sender_id, receiver_id, status, responded_at, created_at`, status, connectionID, receiverID).
		Scan(&conn.ID, &conn.SenderID, &conn.ReceiverID, &conn.Status, &conn.RespondedAt, &conn.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Connection{}, ErrConnectionNotPending
	}
	return conn, err
}

// CountPending counts incoming requests awaiting the member's decision.
func (r *ConnectionRepo) CountPending(ctx context.Context, memberID int) (int, error) {
	var count int
	err := r.db.GetContext(ctx, &count,
		`SELECT COUNT(*) FROM connections WHERE receiver_id=$1 AND status='pending'`, memberID)
	return count, err
}

// ListPending returns incoming pending requests, newest first.
func (r *ConnectionRepo) ListPending(ctx context.Context, memberID int) ([]models.Connection, error) {
	var conns []models.Connection
	err := r.db.SelectContext(ctx, &conns, `SELECT id, sender_id, receiver_id, status, responded_at, created_at
        FROM connections WHERE receiver_id=$1 AND status='pending' ORDER BY created_at DESC`, memberID)
	return conns, err
}
