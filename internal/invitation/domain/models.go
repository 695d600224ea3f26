package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending   = "PENDING"
	StatusAccepted  = "ACCEPTED"
	StatusDeclined  = "DECLINED"
	StatusCancelled = "CANCELLED"
)

// Invitation asks a registered user to join a team with a given role.
type Invitation struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	TeamID      snowflake.ID `gorm:"not null;index" json:"team_id"`
	SenderID    snowflake.ID `gorm:"not null;index" json:"sender_id"`
	ReceiverID  snowflake.ID `gorm:"not null;index" json:"receiver_id"`
	Role        string       `gorm:"type:text;not null" json:"role"`
	Message     string       `gorm:"type:text" json:"message,omitempty"`
	Status      string       `gorm:"type:text;not null;index" json:"status"`
	ExpiresAt   time.Time    `gorm:"not null" json:"expires_at"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Invitation) TableName() string { return "invitations" }

func (i Invitation) IsExpired(now time.Time) bool {
	return now.After(i.ExpiresAt)
}
