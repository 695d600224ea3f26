package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

const (
	StatusActive = "ACTIVE"
	StatusClosed = "CLOSED"
	StatusDraft  = "DRAFT"
)

const (
	EmploymentFullTime   = "FULL_TIME"
	EmploymentPartTime   = "PART_TIME"
	EmploymentContract   = "CONTRACT"
	EmploymentFreelance  = "FREELANCE"
	EmploymentInternship = "INTERNSHIP"
)

// Posting is a job advertised by a team, optionally on behalf of one of its sub-teams.
type Posting struct {
	ID             snowflake.ID                `gorm:"primaryKey" json:"id"`
	TeamID         snowflake.ID                `gorm:"not null;index" json:"team_id"`
	SubTeamID      *snowflake.ID               `gorm:"index" json:"sub_team_id,omitempty"`
	CreatedBy      snowflake.ID                `gorm:"not null;index" json:"created_by"`
	Title          string                      `gorm:"type:text;not null" json:"title"`
	Description    string                      `gorm:"type:text" json:"description"`
	Location       string                      `gorm:"type:text" json:"location"`
	Remote         bool                        `gorm:"not null;default:false" json:"remote"`
	EmploymentType string                      `gorm:"type:text;not null" json:"employment_type"`
	SalaryMin      *int64                      `json:"salary_min,omitempty"`
	SalaryMax      *int64                      `json:"salary_max,omitempty"`
	Currency       string                      `gorm:"type:text;not null" json:"currency"`
	Skills         datatypes.JSONSlice[string] `gorm:"type:json" json:"skills"`
	Status         string                      `gorm:"type:text;not null;index" json:"status"`
	IsFeatured     bool                        `gorm:"not null;default:false" json:"is_featured"`
	IsSponsored    bool                        `gorm:"not null;default:false" json:"is_sponsored"`
	CreatedAt      time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt      time.Time                   `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Posting) TableName() string { return "job_postings" }

func ValidStatus(status string) bool {
	switch status {
	case StatusActive, StatusClosed, StatusDraft:
		return true
	default:
		return false
	}
}

func ValidEmploymentType(value string) bool {
	switch value {
	case EmploymentFullTime, EmploymentPartTime, EmploymentContract, EmploymentFreelance, EmploymentInternship:
		return true
	default:
		return false
	}
}
