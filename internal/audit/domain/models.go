package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	TargetTeam            = "team"
	TargetMember          = "team_member"
	TargetInvitation      = "invitation"
	TargetEmailInvitation = "email_invitation"
	TargetJob             = "job_posting"
	TargetApplication     = "job_application"
)

// Log is an append-only record of a mutation performed by a user.
type Log struct {
	ID         snowflake.ID      `gorm:"primaryKey" json:"id"`
	TeamID     *snowflake.ID     `gorm:"index" json:"team_id,omitempty"`
	ActorID    *snowflake.ID     `gorm:"index" json:"actor_id,omitempty"`
	Action     string            `gorm:"type:text;not null;index" json:"action"`
	TargetType string            `gorm:"type:text;not null" json:"target_type"`
	TargetID   *string           `gorm:"type:text" json:"target_id,omitempty"`
	Metadata   datatypes.JSONMap `gorm:"type:json" json:"metadata,omitempty"`
	RequestID  string            `gorm:"type:text" json:"request_id,omitempty"`
	CreatedAt  time.Time         `gorm:"not null;index" json:"created_at"`
}

// TableName sets the database table name.
func (Log) TableName() string { return "audit_logs" }
