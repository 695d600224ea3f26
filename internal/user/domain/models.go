// Package domain contains account and profile models for the user service.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	RoleFreelancer = "FREELANCER"
	RoleAgency     = "AGENCY"
	RoleStartup    = "STARTUP"
)

const (
	AvailabilityAvailable   = "AVAILABLE"
	AvailabilityBusy        = "BUSY"
	AvailabilityUnavailable = "UNAVAILABLE"
)

// User is a registered account and its public profile.
type User struct {
	ID           snowflake.ID      `gorm:"primaryKey" json:"id"`
	Email        string            `gorm:"type:text;not null;uniqueIndex:ux_users_email" json:"email,omitempty"`
	Username     string            `gorm:"type:text;not null;uniqueIndex:ux_users_username" json:"username"`
	PasswordHash *string           `gorm:"type:text" json:"-"`
	Role         string            `gorm:"type:text;not null" json:"role"`
	FirstName    string            `gorm:"type:text" json:"first_name"`
	LastName     string            `gorm:"type:text" json:"last_name"`
	Bio          string            `gorm:"type:text" json:"bio"`
	Location     string            `gorm:"type:text" json:"location"`
	Availability string            `gorm:"type:text;not null;default:'AVAILABLE'" json:"availability"`
	HourlyRate   *float64          `gorm:"column:hourly_rate" json:"hourly_rate,omitempty"`
	Links        datatypes.JSONMap `json:"links,omitempty"`
	CreatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt    time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (User) TableName() string { return "users" }

// DisplayName prefers the full name and falls back to the username.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Username
	}
	return name
}

// Summary returns the compact public view used in nested payloads.
func (u User) Summary() Summary {
	return Summary{
		ID:        u.ID.String(),
		Username:  u.Username,
		FirstName: u.FirstName,
		LastName:  u.LastName,
	}
}

type Skill struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	Name      string       `gorm:"type:text;not null;uniqueIndex:ux_skills_name" json:"name"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Skill) TableName() string { return "skills" }

type UserSkill struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	UserID    snowflake.ID `gorm:"not null;uniqueIndex:ux_user_skills_user_skill,priority:1" json:"user_id"`
	SkillID   snowflake.ID `gorm:"not null;index;uniqueIndex:ux_user_skills_user_skill,priority:2" json:"skill_id"`
	Level     string       `gorm:"type:text" json:"level"`
	CreatedAt time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (UserSkill) TableName() string { return "user_skills" }

// Summary is the user shape embedded in member, invitation and application payloads.
type Summary struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	FirstName string `json:"first_name"`
	LastName  string `json:"last_name"`
}

// SkillView joins a user's skill with its catalog name.
type SkillView struct {
	UserID snowflake.ID `json:"-"`
	Name   string       `json:"name"`
	Level  string       `json:"level,omitempty"`
}
