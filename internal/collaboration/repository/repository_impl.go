package repository

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/collaboration/domain"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db/option"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) SharesTeam(ctx context.Context, a, b snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("team_members AS a").
		Joins("JOIN team_members AS b ON a.team_id = b.team_id").
		Where("a.user_id = ? AND b.user_id = ?", a, b).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) SharesPortfolio(ctx context.Context, a, b snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Table("portfolio_contributors AS c").
		Joins("JOIN portfolios AS p ON p.id = c.portfolio_id").
		Where("c.status = ?", portfoliodomain.ContributorAccepted).
		Where("(p.user_id = ? AND c.user_id = ?) OR (p.user_id = ? AND c.user_id = ?)", a, b, b, a).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) TeamPeers(ctx context.Context, userID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Table("team_members AS a").
		Joins("JOIN team_members AS b ON a.team_id = b.team_id").
		Where("a.user_id = ? AND b.user_id <> ?", userID, userID).
		Distinct().
		Pluck("b.user_id", &ids).Error
	return ids, err
}

// PortfolioPeers returns accepted contributors on the user's portfolios and
// owners of portfolios the user contributed to.
func (r *repository) PortfolioPeers(ctx context.Context, userID snowflake.ID) ([]snowflake.ID, error) {
	db := r.db.WithContext(ctx)

	var contributors []snowflake.ID
	err := db.Table("portfolio_contributors AS c").
		Joins("JOIN portfolios AS p ON p.id = c.portfolio_id").
		Where("p.user_id = ? AND c.status = ?", userID, portfoliodomain.ContributorAccepted).
		Distinct().
		Pluck("c.user_id", &contributors).Error
	if err != nil {
		return nil, err
	}

	var owners []snowflake.ID
	err = db.Table("portfolio_contributors AS c").
		Joins("JOIN portfolios AS p ON p.id = c.portfolio_id").
		Where("c.user_id = ? AND c.status = ?", userID, portfoliodomain.ContributorAccepted).
		Distinct().
		Pluck("p.user_id", &owners).Error
	if err != nil {
		return nil, err
	}
	return append(contributors, owners...), nil
}

func (r *repository) SkillCatalog(ctx context.Context) ([]userdomain.Skill, error) {
	var skills []userdomain.Skill
	err := r.db.WithContext(ctx).Order("name ASC").Find(&skills).Error
	return skills, err
}

func (r *repository) UsersWithSkills(ctx context.Context, skillIDs []snowflake.ID) ([]snowflake.ID, error) {
	if len(skillIDs) == 0 {
		return nil, nil
	}
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Model(&userdomain.UserSkill{}).
		Where("skill_id IN ?", skillIDs).
		Distinct().
		Pluck("user_id", &ids).Error
	return ids, err
}

func (r *repository) UsersWithBioTerms(ctx context.Context, terms []string, limit int) ([]snowflake.ID, error) {
	if len(terms) == 0 {
		return nil, nil
	}
	clauses := make([]string, 0, len(terms))
	args := make([]any, 0, len(terms))
	for _, term := range terms {
		clauses = append(clauses, "LOWER(bio) LIKE ?")
		args = append(args, option.Like(term))
	}

	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Model(&userdomain.User{}).
		Where(strings.Join(clauses, " OR "), args...).
		Order("id ASC").
		Limit(limit).
		Pluck("id", &ids).Error
	return ids, err
}

func (r *repository) ContributorIDs(ctx context.Context, portfolioID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Model(&portfoliodomain.Contributor{}).
		Where("portfolio_id = ?", portfolioID).
		Pluck("user_id", &ids).Error
	return ids, err
}
