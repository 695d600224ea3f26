package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	ContributorPending  = "PENDING"
	ContributorAccepted = "ACCEPTED"
	ContributorRejected = "REJECTED"
)

// Portfolio is a showcased project owned by one user.
type Portfolio struct {
	ID          snowflake.ID                `gorm:"primaryKey" json:"id"`
	UserID      snowflake.ID                `gorm:"not null;uniqueIndex:ux_portfolios_user_slug,priority:1" json:"user_id"`
	Title       string                      `gorm:"type:text;not null" json:"title"`
	Slug        string                      `gorm:"type:text;not null;uniqueIndex:ux_portfolios_user_slug,priority:2" json:"slug"`
	Description string                      `gorm:"type:text" json:"description"`
	ProjectURL  string                      `gorm:"type:text" json:"project_url"`
	Tags        datatypes.JSONSlice[string] `gorm:"type:json" json:"tags"`
	CreatedAt   time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Portfolio) TableName() string { return "portfolios" }

// Contributor is an invitation, possibly accepted, for a user to be credited on a portfolio.
type Contributor struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	PortfolioID snowflake.ID `gorm:"not null;uniqueIndex:ux_portfolio_contributors_portfolio_user,priority:1" json:"portfolio_id"`
	UserID      snowflake.ID `gorm:"not null;index;uniqueIndex:ux_portfolio_contributors_portfolio_user,priority:2" json:"user_id"`
	Role        string       `gorm:"type:text" json:"role"`
	Status      string       `gorm:"type:text;not null;index" json:"status"`
	InvitedBy   snowflake.ID `gorm:"not null" json:"invited_by"`
	RespondedAt *time.Time   `json:"responded_at,omitempty"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Contributor) TableName() string { return "portfolio_contributors" }
