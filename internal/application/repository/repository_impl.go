package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/application/domain"
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

func (r *repository) Create(ctx context.Context, app *domain.Application) error {
	return r.db.WithContext(ctx).Create(app).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Application, error) {
	var app domain.Application
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&app).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrApplicationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &app, nil
}

func (r *repository) Exists(ctx context.Context, userID, jobID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("user_id = ? AND job_id = ?", userID, jobID).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Application, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Application{})
	if filter.UserID != nil {
		stmt = stmt.Where("user_id = ?", *filter.UserID)
	}
	if filter.JobID != nil {
		stmt = stmt.Where("job_id = ?", *filter.JobID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var apps []domain.Application
	if err := stmt.Order("created_at DESC, id DESC").Find(&apps).Error; err != nil {
		return nil, err
	}
	return apps, nil
}

// Transition moves the application to status to only if it is still in from.
func (r *repository) Transition(ctx context.Context, id snowflake.ID, from, to string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Application{}).
		Where("id = ? AND status = ?", id, from).
		Updates(map[string]any{"status": to, "updated_at": at})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

// DeleteUnlessStatus removes the application unless it is in status. It reports
// whether a row was deleted.
func (r *repository) DeleteUnlessStatus(ctx context.Context, id snowflake.ID, status string) (bool, error) {
	tx := r.db.WithContext(ctx).
		Where("id = ? AND status <> ?", id, status).
		Delete(&domain.Application{})
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *repository) CountByStatus(ctx context.Context, userID snowflake.ID) ([]domain.StatusCount, error) {
	var rows []domain.StatusCount
	err := r.db.WithContext(ctx).
		Model(&domain.Application{}).
		Select("status, COUNT(*) AS total").
		Where("user_id = ?", userID).
		Group("status").
		Scan(&rows).Error
	return rows, err
}
