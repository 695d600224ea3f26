package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/portfolio/domain"
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

func (r *repository) Create(ctx context.Context, portfolio *domain.Portfolio) error {
	return r.db.WithContext(ctx).Create(portfolio).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Portfolio, error) {
	var portfolio domain.Portfolio
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&portfolio).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrPortfolioNotFound
	}
	if err != nil {
		return nil, err
	}
	return &portfolio, nil
}

func (r *repository) FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]domain.Portfolio, error) {
	out := make(map[snowflake.ID]domain.Portfolio, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var portfolios []domain.Portfolio
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&portfolios).Error; err != nil {
		return nil, err
	}
	for _, p := range portfolios {
		out[p.ID] = p
	}
	return out, nil
}

func (r *repository) SlugExists(ctx context.Context, userID snowflake.ID, slug string) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Portfolio{}).
		Where("user_id = ? AND slug = ?", userID, slug).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.Portfolio, error) {
	var portfolios []domain.Portfolio
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC, id DESC").
		Find(&portfolios).Error
	return portfolios, err
}

func (r *repository) UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error {
	tx := r.db.WithContext(ctx).Model(&domain.Portfolio{}).Where("id = ?", id).Updates(fields)
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}

// Delete removes the portfolio with its contributors and detaches recommendations scoped to it.
func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	db := r.db.WithContext(ctx)
	if err := db.Where("portfolio_id = ?", id).Delete(&domain.Contributor{}).Error; err != nil {
		return err
	}
	if err := db.Exec(`UPDATE recommendations SET portfolio_id = NULL WHERE portfolio_id = ?`, id).Error; err != nil {
		return err
	}
	tx := db.Where("id = ?", id).Delete(&domain.Portfolio{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrPortfolioNotFound
	}
	return nil
}

func (r *repository) AddContributor(ctx context.Context, c *domain.Contributor) error {
	return r.db.WithContext(ctx).Create(c).Error
}

func (r *repository) FindContributor(ctx context.Context, id snowflake.ID) (*domain.Contributor, error) {
	var c domain.Contributor
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&c).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrContributorNotFound
	}
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *repository) ContributorExists(ctx context.Context, portfolioID, userID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Contributor{}).
		Where("portfolio_id = ? AND user_id = ?", portfolioID, userID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) ListContributors(ctx context.Context, filter domain.ContributorFilter) ([]domain.Contributor, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Contributor{})
	if filter.PortfolioID != nil {
		stmt = stmt.Where("portfolio_id = ?", *filter.PortfolioID)
	}
	if filter.UserID != nil {
		stmt = stmt.Where("user_id = ?", *filter.UserID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var contributors []domain.Contributor
	if err := stmt.Order("created_at ASC, id ASC").Find(&contributors).Error; err != nil {
		return nil, err
	}
	return contributors, nil
}

// ResolveContributor answers a PENDING invitation; false means it was already answered.
func (r *repository) ResolveContributor(ctx context.Context, id snowflake.ID, status string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Contributor{}).
		Where("id = ? AND status = ?", id, domain.ContributorPending).
		Updates(map[string]any{
			"status":       status,
			"responded_at": at,
			"updated_at":   at,
		})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *repository) RemoveContributor(ctx context.Context, id snowflake.ID) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Contributor{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrContributorNotFound
	}
	return nil
}
