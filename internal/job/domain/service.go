package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/pkg/apperr"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, actorID snowflake.ID, req CreateJobRequest) (*Posting, error)
	Get(ctx context.Context, viewerID, id snowflake.ID) (*Posting, error)
	List(ctx context.Context, req ListRequest) (*ListResponse, error)
	ListForTeam(ctx context.Context, teamID, viewerID snowflake.ID) ([]Posting, error)
	Update(ctx context.Context, actorID, id snowflake.ID, req UpdateJobRequest) (*Posting, error)
	Delete(ctx context.Context, actorID, id snowflake.ID) error
	Close(ctx context.Context, actorID, id snowflake.ID) (*Posting, error)
}

type CreateJobRequest struct {
	TeamID         snowflake.ID
	SubTeamID      *snowflake.ID
	Title          string
	Description    string
	Location       string
	Remote         bool
	EmploymentType string
	SalaryMin      *int64
	SalaryMax      *int64
	Currency       string
	Skills         []string
	Status         string
	IsFeatured     bool
	IsSponsored    bool
}

type UpdateJobRequest struct {
	Title          *string
	Description    *string
	Location       *string
	Remote         *bool
	EmploymentType *string
	SalaryMin      *int64
	SalaryMax      *int64
	Currency       *string
	Skills         []string
	Status         *string
	IsFeatured     *bool
	IsSponsored    *bool
}

type ListRequest struct {
	ViewerID snowflake.ID
	ListFilter
	pagination.Pagination
}

type ListResponse struct {
	Jobs     []Posting           `json:"jobs"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrJobNotFound           = apperr.NotFound("job_not_found", "Job posting not found")
	ErrInvalidTitle          = apperr.Validation("invalid_title", "Job title is required")
	ErrInvalidStatus         = apperr.Validation("invalid_status", "status must be one of ACTIVE, CLOSED, DRAFT")
	ErrInvalidEmploymentType = apperr.Validation("invalid_employment_type", "employment type must be one of FULL_TIME, PART_TIME, CONTRACT, FREELANCE, INTERNSHIP")
	ErrInvalidSalary         = apperr.Validation("invalid_salary", "salary range is invalid")
	ErrInvalidSubTeam        = apperr.Validation("invalid_sub_team", "Sub-team must belong to the team")
	ErrCannotManageJobs      = apperr.Forbidden("cannot_manage_jobs", "Only team owners and admins can manage job postings")
)
