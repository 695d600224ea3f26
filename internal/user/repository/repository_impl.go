package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db/option"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type repo struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repo{db: db}
}

func (r *repo) WithTx(tx *gorm.DB) domain.Repository {
	return &repo{db: tx}
}

func (r *repo) Create(ctx context.Context, user *domain.User) error {
	return r.db.WithContext(ctx).Create(user).Error
}

func (r *repo) FindByID(ctx context.Context, id snowflake.ID) (*domain.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repo) FindByEmail(ctx context.Context, email string) (*domain.User, error) {
	return r.first(ctx, "email = ?", strings.ToLower(strings.TrimSpace(email)))
}

func (r *repo) FindByUsername(ctx context.Context, username string) (*domain.User, error) {
	return r.first(ctx, "username = ?", strings.TrimSpace(username))
}

func (r *repo) first(ctx context.Context, query string, args ...any) (*domain.User, error) {
	var user domain.User
	err := r.db.WithContext(ctx).Where(query, args...).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrUserNotFound
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *repo) FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.User, error) {
	out := make(map[snowflake.ID]domain.User, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var users []domain.User
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&users).Error; err != nil {
		return nil, err
	}
	for _, u := range users {
		out[u.ID] = u
	}
	return out, nil
}

func (r *repo) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.User{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrUserNotFound
	}
	return nil
}

func (r *repo) Search(ctx context.Context, filter domain.SearchFilter, page pagination.Pagination) ([]domain.User, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.User{})
	opts := []option.QueryOption{}
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := option.Like(q)
		stmt = stmt.Where(
			"LOWER(username) LIKE ? OR LOWER(first_name) LIKE ? OR LOWER(last_name) LIKE ? OR LOWER(bio) LIKE ?",
			pattern, pattern, pattern, pattern,
		)
	}
	if filter.Role != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "role", Operator: option.EQ, Value: filter.Role}))
	}
	if filter.Availability != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "availability", Operator: option.EQ, Value: filter.Availability}))
	}
	if skill := strings.TrimSpace(filter.Skill); skill != "" {
		stmt = stmt.Where(
			`id IN (SELECT us.user_id FROM user_skills us JOIN skills s ON s.id = us.skill_id WHERE LOWER(s.name) = ?)`,
			strings.ToLower(skill),
		)
	}
	opts = append(opts, option.WithSortBy(option.QuerySortBy{}), option.ApplyPagination(page))
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}

	var users []domain.User
	if err := stmt.Find(&users).Error; err != nil {
		return nil, err
	}
	return users, nil
}

func (r *repo) FindOrCreateSkill(ctx context.Context, skill *domain.Skill) (*domain.Skill, error) {
	err := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "name"}}, DoNothing: true}).
		Create(skill).Error
	if err != nil {
		return nil, err
	}

	var existing domain.Skill
	if err := r.db.WithContext(ctx).Where("name = ?", skill.Name).First(&existing).Error; err != nil {
		return nil, err
	}
	return &existing, nil
}

func (r *repo) ReplaceUserSkills(ctx context.Context, userID snowflake.ID, skills []domain.UserSkill) error {
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Delete(&domain.UserSkill{}).Error; err != nil {
		return err
	}
	if len(skills) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&skills).Error
}

func (r *repo) ListSkills(ctx context.Context, userIDs []snowflake.ID) ([]domain.SkillView, error) {
	var views []domain.SkillView
	if len(userIDs) == 0 {
		return views, nil
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT us.user_id, s.name, us.level
		 FROM user_skills us
		 JOIN skills s ON s.id = us.skill_id
		 WHERE us.user_id IN ?
		 ORDER BY s.name ASC`,
		userIDs,
	).Scan(&views).Error
	if err != nil {
		return nil, err
	}
	return views, nil
}
