package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

const (
	StatusPending   = "PENDING"
	StatusReviewing = "REVIEWING"
	StatusAccepted  = "ACCEPTED"
	StatusRejected  = "REJECTED"
)

// Application is a user's bid on a job posting. A user applies to a job at most once.
type Application struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	JobID       snowflake.ID `gorm:"not null;index;uniqueIndex:ux_job_applications_user_job,priority:2" json:"job_id"`
	UserID      snowflake.ID `gorm:"not null;uniqueIndex:ux_job_applications_user_job,priority:1" json:"user_id"`
	CoverLetter string       `gorm:"type:text;not null;default:''" json:"cover_letter"`
	Status      string       `gorm:"type:text;not null;index" json:"status"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Application) TableName() string { return "job_applications" }

func ValidStatus(status string) bool {
	switch status {
	case StatusPending, StatusReviewing, StatusAccepted, StatusRejected:
		return true
	default:
		return false
	}
}

// CanTransition reports whether a reviewer may move an application from one status to another.
func CanTransition(from, to string) bool {
	switch from {
	case StatusPending:
		return to == StatusReviewing || to == StatusAccepted || to == StatusRejected
	case StatusReviewing:
		return to == StatusAccepted || to == StatusRejected
	default:
		return false
	}
}
