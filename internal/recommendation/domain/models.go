package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	TypeRequest = "REQUEST"
	TypeGiven   = "GIVEN"
)

const (
	StatusPending  = "PENDING"
	StatusAccepted = "ACCEPTED"
	StatusRejected = "REJECTED"
)

// LikeMessage marks a lightweight endorsement. GIVEN recommendations carrying
// exactly this message are exempt from the one-per-receiver limit.
const LikeMessage = "👍"

// Recommendation is either a request for a recommendation (REQUEST) or a
// written one (GIVEN), optionally scoped to a portfolio, project or team.
type Recommendation struct {
	ID          snowflake.ID  `gorm:"primaryKey" json:"id"`
	SenderID    snowflake.ID  `gorm:"not null;index" json:"sender_id"`
	ReceiverID  snowflake.ID  `gorm:"not null;index" json:"receiver_id"`
	Type        string        `gorm:"type:text;not null" json:"type"`
	Status      string        `gorm:"type:text;not null;index" json:"status"`
	Message     string        `gorm:"type:text;not null;default:''" json:"message"`
	Rating      *int          `json:"rating,omitempty"`
	PortfolioID *snowflake.ID `gorm:"index" json:"portfolio_id,omitempty"`
	ProjectName string        `gorm:"type:text" json:"project_name,omitempty"`
	TeamID      *snowflake.ID `gorm:"index" json:"team_id,omitempty"`
	RespondedAt *time.Time    `json:"responded_at,omitempty"`
	CreatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Recommendation) TableName() string { return "recommendations" }

// IsLike reports whether r is a sentinel endorsement rather than a written recommendation.
func (r Recommendation) IsLike() bool {
	return r.Type == TypeGiven && r.Message == LikeMessage
}

func ValidType(value string) bool {
	return value == TypeRequest || value == TypeGiven
}

func ValidStatus(value string) bool {
	switch value {
	case StatusPending, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}
