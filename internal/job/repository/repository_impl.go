package repository

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/job/domain"
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

func (r *repository) Create(ctx context.Context, job *domain.Posting) error {
	return r.db.WithContext(ctx).Create(job).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Posting, error) {
	var job domain.Posting
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrJobNotFound
	}
	if err != nil {
		return nil, err
	}
	return &job, nil
}

func (r *repository) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Posting{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

// Delete removes the posting and its applications.
func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	db := r.db.WithContext(ctx)
	if err := db.Exec(`DELETE FROM job_applications WHERE job_id = ?`, id).Error; err != nil {
		return err
	}
	tx := db.Where("id = ?", id).Delete(&domain.Posting{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrJobNotFound
	}
	return nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter, page pagination.Pagination) ([]domain.Posting, error) {
	var opts []option.QueryOption
	if filter.Status != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "status", Operator: option.EQ, Value: filter.Status}))
	}
	if filter.TeamID != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "team_id", Operator: option.EQ, Value: *filter.TeamID}))
	}
	if len(filter.TeamIDs) > 0 {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "team_id", Operator: option.IN, Value: filter.TeamIDs}))
	}
	if filter.EmploymentType != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "employment_type", Operator: option.EQ, Value: filter.EmploymentType}))
	}
	if filter.Featured != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "is_featured", Operator: option.EQ, Value: *filter.Featured}))
	}
	if filter.Remote != nil {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "remote", Operator: option.EQ, Value: *filter.Remote}))
	}

	stmt := r.db.WithContext(ctx).Model(&domain.Posting{})
	if q := strings.TrimSpace(filter.Query); q != "" {
		pattern := option.Like(q)
		stmt = stmt.Where("LOWER(title) LIKE ? OR LOWER(description) LIKE ? OR LOWER(location) LIKE ?", pattern, pattern, pattern)
	}
	for _, opt := range opts {
		stmt = opt.Apply(stmt)
	}
	stmt = stmt.Order("is_sponsored DESC, is_featured DESC, created_at DESC, id DESC")
	stmt = option.ApplyPagination(page).Apply(stmt)

	var jobs []domain.Posting
	if err := stmt.Find(&jobs).Error; err != nil {
		return nil, err
	}
	return jobs, nil
}
