package models

import "time"

// Member is the internal identity record that scopes all personal aggregates.
// It is distinct from the raw authentication identity: admin-only accounts may
// have no member row at all.
type Member struct {
	ID         int       `db:"id" json:"id"`
	AuthUserID string    `db:"auth_user_id" json:"auth_user_id"`
	Email      string    `db:"email" json:"email"`
	FullName   string    `db:"full_name" json:"full_name"`
	CreatedAt  time.Time `db:"created_at" json:"created_at"`
}
