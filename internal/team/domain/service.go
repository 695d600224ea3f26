package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/apperr"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
)

type Service interface {
	Create(ctx context.Context, ownerID snowflake.ID, req CreateTeamRequest) (*TeamResponse, error)
	Get(ctx context.Context, identifier string) (*TeamResponse, error)
	Update(ctx context.Context, teamID, actorID snowflake.ID, req UpdateTeamRequest) (*TeamResponse, error)
	Delete(ctx context.Context, teamID, actorID snowflake.ID) error
	Search(ctx context.Context, req SearchRequest) (*SearchResponse, error)
	ListMine(ctx context.Context, userID snowflake.ID) ([]MyTeam, error)
	ListSubTeams(ctx context.Context, teamID snowflake.ID) ([]TeamResponse, error)

	ListMembers(ctx context.Context, teamID snowflake.ID) ([]MemberResponse, error)
	AddMember(ctx context.Context, teamID, actorID snowflake.ID, req AddMemberRequest) (*MemberResponse, error)
	RemoveMember(ctx context.Context, teamID, actorID, targetID snowflake.ID) error
	UpdateMemberRole(ctx context.Context, teamID, actorID, targetID snowflake.ID, role string) (*MemberResponse, error)
	Leave(ctx context.Context, teamID, userID snowflake.ID) error
}

type CreateTeamRequest struct {
	Name         string
	Description  string
	Type         string
	ParentTeamID *snowflake.ID
}

type UpdateTeamRequest struct {
	Name        *string
	Description *string
	Type        *string
}

type AddMemberRequest struct {
	UserID snowflake.ID
	Role   string
}

type SearchRequest struct {
	SearchFilter
	pagination.Pagination
}

type TeamResponse struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Slug         string    `json:"slug"`
	Description  string    `json:"description"`
	Type         string    `json:"type"`
	OwnerID      string    `json:"owner_id"`
	ParentTeamID *string   `json:"parent_team_id"`
	IsMainTeam   bool      `json:"is_main_team"`
	MemberCount  int64     `json:"member_count"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

type MyTeam struct {
	TeamResponse
	Role     string    `json:"role"`
	JoinedAt time.Time `json:"joined_at"`
}

type MemberResponse struct {
	ID       string             `json:"id"`
	TeamID   string             `json:"team_id"`
	UserID   string             `json:"user_id"`
	Role     string             `json:"role"`
	JoinedAt time.Time          `json:"joined_at"`
	User     userdomain.Summary `json:"user"`
}

type SearchResponse struct {
	Teams    []TeamResponse      `json:"teams"`
	PageInfo pagination.PageInfo `json:"page_info"`
}

// NewTeamResponse renders t with the derived main-team flag.
func NewTeamResponse(t Team, memberCount int64) TeamResponse {
	resp := TeamResponse{
		ID:          t.ID.String(),
		Name:        t.Name,
		Slug:        t.Slug,
		Description: t.Description,
		Type:        t.Type,
		OwnerID:     t.OwnerID.String(),
		IsMainTeam:  t.IsMainTeam(),
		MemberCount: memberCount,
		CreatedAt:   t.CreatedAt,
		UpdatedAt:   t.UpdatedAt,
	}
	if t.ParentTeamID != nil {
		parent := t.ParentTeamID.String()
		resp.ParentTeamID = &parent
	}
	return resp
}

var (
	ErrTeamNotFound           = apperr.NotFound("team_not_found", "Team not found")
	ErrParentTeamNotFound     = apperr.NotFound("parent_team_not_found", "Parent team not found")
	ErrMemberNotFound         = apperr.NotFound("member_not_found", "User is not a member of this team")
	ErrInvalidName            = apperr.Validation("invalid_name", "Team name is required")
	ErrInvalidType            = apperr.Validation("invalid_type", "type must be one of TEAM, ORGANIZATION, COMPANY")
	ErrInvalidRole            = apperr.Validation("invalid_role", "role must be ADMIN or MEMBER")
	ErrNestedSubTeam          = apperr.Validation("nested_sub_team", "Sub-teams can only be created under a main team")
	ErrOnlyOwnerCanUpdate     = apperr.Forbidden("only_owner_can_update", "Only team owner can update the team")
	ErrOnlyOwnerCanDelete     = apperr.Forbidden("only_owner_can_delete", "Only team owner can delete the team")
	ErrOnlyOwnerCanSetRole    = apperr.Forbidden("only_owner_can_change_roles", "Only team owner can change member roles")
	ErrCannotManageMembers    = apperr.Forbidden("cannot_manage_members", "Only team owners and admins can manage members")
	ErrCannotCreateSubTeam    = apperr.Forbidden("cannot_create_sub_team", "Only team owners and admins can create sub-teams")
	ErrCannotRemoveOwner      = apperr.Forbidden("cannot_remove_owner", "Team owner cannot be removed")
	ErrCannotChangeOwner      = apperr.Forbidden("cannot_change_owner_role", "Team owner role cannot be changed")
	ErrAdminCannotRemoveAdmin = apperr.Forbidden("admin_cannot_remove_admin", "Only team owner can remove an admin")
	ErrOwnerCannotLeave       = apperr.Forbidden("owner_cannot_leave", "Team owner cannot leave the team")
	ErrAlreadyMember          = apperr.Conflict("already_member", "User is already a member of this team")
)
