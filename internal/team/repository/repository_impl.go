package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/team/domain"
	"github.com/smallbiznis/talentlink/pkg/db/option"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type repository struct {
	db *gorm.DB
}

func New(db *gorm.DB) domain.Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) domain.Repository {
	return &repository{db: tx}
}

func (r *repository) CreateTeam(ctx context.Context, team *domain.Team) error {
	return r.db.WithContext(ctx).Create(team).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *repository) FindBySlug(ctx context.Context, slug string) (*domain.Team, error) {
	var team domain.Team
	err := r.db.WithContext(ctx).Where("slug = ?", slug).First(&team).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrTeamNotFound
	}
	if err != nil {
		return nil, err
	}
	return &team, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Team, error) {
	out := make(map[snowflake.ID]domain.Team, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var teams []domain.Team
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&teams).Error; err != nil {
		return nil, err
	}
	for _, t := range teams {
		out[t.ID] = t
	}
	return out, nil
}

func (r *repository) SlugExists(ctx context.Context, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&domain.Team{}).Where("slug = ?", slug).Count(&count).Error
	return count > 0, err
}

func (r *repository) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Team{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrTeamNotFound
	}
	return nil
}

func (r *repository) Search(ctx context.Context, filter domain.SearchFilter, page pagination.Pagination) ([]domain.Team, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Team{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := option.Like(q)
		stmt = stmt.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}
	if filter.Type != "" {
		stmt = option.ApplyOperator(option.Condition{Field: "type", Operator: option.EQ, Value: filter.Type}).Apply(stmt)
	}
	if filter.MainOnly {
		stmt = stmt.Where("parent_team_id IS NULL")
	}
	stmt = option.WithSortBy(option.QuerySortBy{}).Apply(stmt)
	stmt = option.ApplyPagination(page).Apply(stmt)

	var teams []domain.Team
	if err := stmt.Find(&teams).Error; err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *repository) ListSubTeams(ctx context.Context, parentID snowflake.ID) ([]domain.Team, error) {
	var teams []domain.Team
	err := r.db.WithContext(ctx).
		Where("parent_team_id = ?", parentID).
		Order("name ASC").
		Find(&teams).Error
	if err != nil {
		return nil, err
	}
	return teams, nil
}

func (r *repository) ListSubTeamIDs(ctx context.Context, parentID snowflake.ID) ([]snowflake.ID, error) {
	var ids []snowflake.ID
	err := r.db.WithContext(ctx).
		Model(&domain.Team{}).
		Where("parent_team_id = ?", parentID).
		Pluck("id", &ids).Error
	return ids, err
}

// DeleteCascade removes the teams and every row that references them.
func (r *repository) DeleteCascade(ctx context.Context, teamIDs []snowflake.ID) error {
	if len(teamIDs) == 0 {
		return nil
	}
	db := r.db.WithContext(ctx)
	statements := []string{
		`DELETE FROM job_applications WHERE job_id IN (SELECT id FROM job_postings WHERE team_id IN ? OR sub_team_id IN ?)`,
		`DELETE FROM job_postings WHERE team_id IN ? OR sub_team_id IN ?`,
	}
	for _, stmt := range statements {
		if err := db.Exec(stmt, teamIDs, teamIDs).Error; err != nil {
			return err
		}
	}
	for _, stmt := range []string{
		`DELETE FROM invitations WHERE team_id IN ?`,
		`DELETE FROM email_invitations WHERE team_id IN ?`,
		`DELETE FROM team_members WHERE team_id IN ?`,
		`UPDATE recommendations SET team_id = NULL WHERE team_id IN ?`,
		`DELETE FROM teams WHERE id IN ?`,
	} {
		if err := db.Exec(stmt, teamIDs).Error; err != nil {
			return err
		}
	}
	return nil
}

func (r *repository) AddMember(ctx context.Context, member *domain.Member) error {
	return r.db.WithContext(ctx).Create(member).Error
}

func (r *repository) FindMember(ctx context.Context, teamID, userID snowflake.ID) (*domain.Member, error) {
	var member domain.Member
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		First(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrMemberNotFound
	}
	if err != nil {
		return nil, err
	}
	return &member, nil
}

func (r *repository) ListMembers(ctx context.Context, teamID snowflake.ID) ([]domain.Member, error) {
	var members []domain.Member
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("joined_at ASC, id ASC").
		Find(&members).Error
	if err != nil {
		return nil, err
	}
	return members, nil
}

func (r *repository) CountMembers(ctx context.Context, teamIDs []snowflake.ID) (map[snowflake.ID]int64, error) {
	counts := make(map[snowflake.ID]int64, len(teamIDs))
	if len(teamIDs) == 0 {
		return counts, nil
	}
	var rows []struct {
		TeamID snowflake.ID
		Total  int64
	}
	err := r.db.WithContext(ctx).Raw(
		`SELECT team_id, COUNT(*) AS total
		 FROM team_members
		 WHERE team_id IN ?
		 GROUP BY team_id`,
		teamIDs,
	).Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	for _, row := range rows {
		counts[row.TeamID] = row.Total
	}
	return counts, nil
}

func (r *repository) ListMembershipsByUser(ctx context.Context, userID snowflake.ID) ([]domain.Membership, error) {
	var members []domain.Member
	if err := r.db.WithContext(ctx).Where("user_id = ?", userID).Find(&members).Error; err != nil {
		return nil, err
	}
	if len(members) == 0 {
		return []domain.Membership{}, nil
	}

	teamIDs := make([]snowflake.ID, 0, len(members))
	for _, m := range members {
		teamIDs = append(teamIDs, m.TeamID)
	}
	var teams []domain.Team
	if err := r.db.WithContext(ctx).Where("id IN ?", teamIDs).Order("created_at ASC, id ASC").Find(&teams).Error; err != nil {
		return nil, err
	}

	byTeam := make(map[snowflake.ID]domain.Member, len(members))
	for _, m := range members {
		byTeam[m.TeamID] = m
	}
	out := make([]domain.Membership, 0, len(teams))
	for _, t := range teams {
		m := byTeam[t.ID]
		out = append(out, domain.Membership{Team: t, Role: m.Role, JoinedAt: m.JoinedAt})
	}
	return out, nil
}

func (r *repository) UpdateMemberRole(ctx context.Context, teamID, userID snowflake.ID, role string) error {
	tx := r.db.WithContext(ctx).
		Model(&domain.Member{}).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Update("role", role)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *repository) RemoveMember(ctx context.Context, teamID, userID snowflake.ID) error {
	tx := r.db.WithContext(ctx).
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Delete(&domain.Member{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
