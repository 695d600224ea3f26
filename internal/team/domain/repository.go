package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type SearchFilter struct {
	Query    string
	Type     string
	MainOnly bool
}

// Membership is a team joined with the caller's role in it.
type Membership struct {
	Team
	Role     string
	JoinedAt time.Time
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	CreateTeam(ctx context.Context, team *Team) error
	FindByID(ctx context.Context, id snowflake.ID) (*Team, error)
	FindBySlug(ctx context.Context, slug string) (*Team, error)
	FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Team, error)
	SlugExists(ctx context.Context, slug string) (bool, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Search(ctx context.Context, filter SearchFilter, page pagination.Pagination) ([]Team, error)
	ListSubTeams(ctx context.Context, parentID snowflake.ID) ([]Team, error)
	ListSubTeamIDs(ctx context.Context, parentID snowflake.ID) ([]snowflake.ID, error)
	DeleteCascade(ctx context.Context, teamIDs []snowflake.ID) error

	AddMember(ctx context.Context, member *Member) error
	FindMember(ctx context.Context, teamID, userID snowflake.ID) (*Member, error)
	ListMembers(ctx context.Context, teamID snowflake.ID) ([]Member, error)
	CountMembers(ctx context.Context, teamIDs []snowflake.ID) (map[snowflake.ID]int64, error)
	ListMembershipsByUser(ctx context.Context, userID snowflake.ID) ([]Membership, error)
	UpdateMemberRole(ctx context.Context, teamID, userID snowflake.ID, role string) error
	RemoveMember(ctx context.Context, teamID, userID snowflake.ID) error
}
