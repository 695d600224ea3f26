package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending   = "PENDING"
	StatusAccepted  = "ACCEPTED"
	StatusExpired   = "EXPIRED"
	StatusCancelled = "CANCELLED"
)

// EmailInvitation invites an address that may not have an account yet. The token is a bearer secret.
type EmailInvitation struct {
	ID         snowflake.ID  `gorm:"primaryKey" json:"id"`
	Email      string        `gorm:"type:text;not null;uniqueIndex:ux_email_invitations_email_team,priority:1" json:"email"`
	TeamID     snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_email_invitations_email_team,priority:2" json:"team_id"`
	Token      string        `gorm:"type:text;not null;uniqueIndex:ux_email_invitations_token" json:"-"`
	Role       string        `gorm:"type:text;not null" json:"role"`
	InvitedBy  snowflake.ID  `gorm:"not null" json:"invited_by"`
	Status     string        `gorm:"type:text;not null;index" json:"status"`
	ExpiresAt  time.Time     `gorm:"not null;index" json:"expires_at"`
	AcceptedBy *snowflake.ID `json:"accepted_by,omitempty"`
	AcceptedAt *time.Time    `json:"accepted_at,omitempty"`
	CreatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt  time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (EmailInvitation) TableName() string { return "email_invitations" }

func (e EmailInvitation) IsExpired(now time.Time) bool {
	return now.After(e.ExpiresAt)
}

// IsTerminal reports whether the row can be reused for a fresh invitation.
func (e EmailInvitation) IsTerminal(now time.Time) bool {
	return e.Status != StatusPending || e.IsExpired(now)
}
