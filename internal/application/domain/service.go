package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/apperr"
)

type Service interface {
	Apply(ctx context.Context, userID, jobID snowflake.ID, req ApplyRequest) (*ApplicationResponse, error)
	ListMine(ctx context.Context, userID snowflake.ID, status string) ([]ApplicationResponse, error)
	ListForJob(ctx context.Context, actorID, jobID snowflake.ID, status string) ([]ApplicationResponse, error)
	UpdateStatus(ctx context.Context, actorID, id snowflake.ID, status string) (*ApplicationResponse, error)
	Withdraw(ctx context.Context, userID, id snowflake.ID) error
	CountMine(ctx context.Context, userID snowflake.ID) (map[string]int64, error)
}

type ApplyRequest struct {
	CoverLetter string `json:"cover_letter"`
}

// JobSummary is the job shape embedded in application payloads.
type JobSummary struct {
	ID     string `json:"id"`
	TeamID string `json:"team_id"`
	Title  string `json:"title"`
	Status string `json:"status"`
}

type ApplicationResponse struct {
	ID          string              `json:"id"`
	JobID       string              `json:"job_id"`
	UserID      string              `json:"user_id"`
	CoverLetter string              `json:"cover_letter"`
	Status      string              `json:"status"`
	CreatedAt   time.Time           `json:"created_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	Job         *JobSummary         `json:"job,omitempty"`
	Applicant   *userdomain.Summary `json:"applicant,omitempty"`
}

var (
	ErrApplicationNotFound = apperr.NotFound("application_not_found", "Application not found")
	ErrJobNotActive        = apperr.Validation("job_not_active", "job posting is not accepting applications")
	ErrOwnJob              = apperr.Validation("own_job", "cannot apply to your own job posting")
	ErrAlreadyApplied      = apperr.Conflict("already_applied", "You have already applied to this job")
	ErrInvalidStatus       = apperr.Validation("invalid_status", "status must be one of PENDING, REVIEWING, ACCEPTED, REJECTED")
	ErrInvalidTransition   = apperr.Conflict("invalid_transition", "application status cannot change from its current state")
	ErrCannotReview        = apperr.Forbidden("cannot_review_applications", "Only team owners and admins can review applications")
	ErrNotApplicant        = apperr.Forbidden("not_applicant", "Only the applicant can withdraw this application")
	ErrWithdrawAccepted    = apperr.Validation("application_accepted", "cannot withdraw an accepted application")
)
