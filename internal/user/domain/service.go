package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/pkg/apperr"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
)

type Service interface {
	GetByID(ctx context.Context, id snowflake.ID) (*Profile, error)
	Get(ctx context.Context, identifier string) (*Profile, error)
	UpdateProfile(ctx context.Context, userID snowflake.ID, req UpdateProfileRequest) (*Profile, error)
	SetSkills(ctx context.Context, userID snowflake.ID, skills []SkillInput) (*Profile, error)
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
}

// Profile is a user with their skills attached.
type Profile struct {
	User
	Skills []SkillView `json:"skills"`
}

type UpdateProfileRequest struct {
	FirstName    *string
	LastName     *string
	Bio          *string
	Location     *string
	Availability *string
	HourlyRate   *float64
	Links        map[string]any
}

type SkillInput struct {
	Name  string `json:"name"`
	Level string `json:"level"`
}

type SearchRequest struct {
	SearchFilter
	pagination.Pagination
}

type SearchResponse struct {
	Users    []Profile           `json:"users"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

var (
	ErrUserNotFound        = apperr.NotFound("user_not_found", "User not found")
	ErrInvalidAvailability = apperr.Validation("invalid_availability", "availability must be one of AVAILABLE, BUSY, UNAVAILABLE")
	ErrInvalidHourlyRate   = apperr.Validation("invalid_hourly_rate", "hourly rate cannot be negative")
	ErrInvalidSkill        = apperr.Validation("invalid_skill", "skill name is required")
)

// ValidRole reports whether role is an account role.
func ValidRole(role string) bool {
	switch role {
	case RoleFreelancer, RoleAgency, RoleStartup:
		return true
	default:
		return false
	}
}

// ValidAvailability reports whether value is a known availability.
func ValidAvailability(value string) bool {
	switch value {
	case AvailabilityAvailable, AvailabilityBusy, AvailabilityUnavailable:
		return true
	default:
		return false
	}
}
