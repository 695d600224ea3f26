// Package domain contains persistence models for the team service.
package domain

import (
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	TypeTeam         = "TEAM"
	TypeOrganization = "ORGANIZATION"
	TypeCompany      = "COMPANY"
)

const (
	RoleOwner  = "OWNER"
	RoleAdmin  = "ADMIN"
	RoleMember = "MEMBER"
)

// legacyTypes maps the retired team types onto their replacements.
var legacyTypes = map[string]string{
	"PROJECT": TypeTeam,
	"AGENCY":  TypeOrganization,
	"STARTUP": TypeCompany,
}

// Team is either a main team (no parent) or a sub-team of a main team.
type Team struct {
	ID           snowflake.ID  `gorm:"primaryKey" json:"id"`
	Name         string        `gorm:"type:text;not null" json:"name"`
	Slug         string        `gorm:"type:text;not null;uniqueIndex:ux_teams_slug" json:"slug"`
	Description  string        `gorm:"type:text" json:"description"`
	Type         string        `gorm:"type:text;not null" json:"type"`
	OwnerID      snowflake.ID  `gorm:"not null;index" json:"owner_id"`
	ParentTeamID *snowflake.ID `gorm:"index" json:"parent_team_id,omitempty"`
	CreatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Team) TableName() string { return "teams" }

// IsMainTeam is derived from the parent reference and never stored.
func (t Team) IsMainTeam() bool { return t.ParentTeamID == nil }

// Member is a user's membership in a team.
type Member struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	TeamID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_team_members_team_user,priority:1" json:"team_id"`
	UserID    snowflake.ID `gorm:"not null;index;uniqueIndex:ux_team_members_team_user,priority:2" json:"user_id"`
	Role      string       `gorm:"type:text;not null" json:"role"`
	JoinedAt  time.Time    `gorm:"not null" json:"joined_at"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Member) TableName() string { return "team_members" }

// NormalizeType upper-cases raw and maps legacy values. ok is false for unknown types.
func NormalizeType(raw string) (string, bool) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if mapped, legacy := legacyTypes[value]; legacy {
		return mapped, true
	}
	switch value {
	case TypeTeam, TypeOrganization, TypeCompany:
		return value, true
	default:
		return "", false
	}
}

// NormalizeRole upper-cases raw and reports whether it is a member role.
func NormalizeRole(raw string) (string, bool) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	switch value {
	case RoleOwner, RoleAdmin, RoleMember:
		return value, true
	default:
		return "", false
	}
}
