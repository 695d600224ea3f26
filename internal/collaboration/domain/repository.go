package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
)

type Repository interface {
	SharesTeam(ctx context.Context, a, b snowflake.ID) (bool, error)
	SharesPortfolio(ctx context.Context, a, b snowflake.ID) (bool, error)
	TeamPeers(ctx context.Context, userID snowflake.ID) ([]snowflake.ID, error)
	PortfolioPeers(ctx context.Context, userID snowflake.ID) ([]snowflake.ID, error)

	SkillCatalog(ctx context.Context) ([]userdomain.Skill, error)
	UsersWithSkills(ctx context.Context, skillIDs []snowflake.ID) ([]snowflake.ID, error)
	UsersWithBioTerms(ctx context.Context, terms []string, limit int) ([]snowflake.ID, error)
	ContributorIDs(ctx context.Context, portfolioID snowflake.ID) ([]snowflake.ID, error)
}
