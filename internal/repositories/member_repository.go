package repositories

import (
	"context"
	"database/sql"
	"errors"

	"github.com/jmoiron/sqlx"

	"connect-service/internal/models"
)

// ErrMemberNotFound means the authenticated identity has no member profile.
// Callers treat this as a distinct outcome, not a transport failure: dependent
// aggregators degrade to zero/empty state instead of erroring.
var ErrMemberNotFound = errors.New("member not found")

// MemberRepository resolves authentication identities to member records.
type MemberRepository interface {
	ResolveMember(ctx context.Context, authUserID string) (models.Member, error)
	GetMember(ctx context.Context, memberID int) (models.Member, error)
}

// MemberRepo is a sqlx implementation of MemberRepository.
type MemberRepo struct {
	db *sqlx.DB
}

// NewMemberRepo constructs a MemberRepo.
func NewMemberRepo(db *sqlx.DB) *MemberRepo {
	return &MemberRepo{db: db}
}

// ResolveMember maps an auth user id to the member row. Read-only and
// idempotent; safe to call on every request.
func (r *MemberRepo) ResolveMember(ctx context.Context, authUserID string) (models.Member, error) {
	var member models.Member
	err := r.db.GetContext(ctx, &member, `SELECT id, auth_user_id, email, full_name, created_at FROM members WHERE auth_user_id=$1`, authUserID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Member{}, ErrMemberNotFound
	}
	return member, err
}

// GetMember fetches a member by internal id.
func (r *MemberRepo) GetMember(ctx context.Context, memberID int) (models.Member, error) {
	var member models.Member
	err := r.db.GetContext(ctx, &member, `SELECT id, auth_user_id, email, full_name, created_at FROM members WHERE id=$1`, memberID)
	if errors.Is(err, sql.ErrNoRows) {
		return models.Member{}, ErrMemberNotFound
	}
	return member, err
}
