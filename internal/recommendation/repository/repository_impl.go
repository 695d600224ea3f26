package repository

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/recommendation/domain"
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

func (r *repository) Create(ctx context.Context, rec *domain.Recommendation) error {
	return r.db.WithContext(ctx).Create(rec).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Recommendation, error) {
	var rec domain.Recommendation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrRecommendationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Recommendation, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Recommendation{})
	if filter.SenderID != nil {
		stmt = stmt.Where("sender_id = ?", *filter.SenderID)
	}
	if filter.ReceiverID != nil {
		stmt = stmt.Where("receiver_id = ?", *filter.ReceiverID)
	}
	if filter.PortfolioID != nil {
		stmt = stmt.Where("portfolio_id = ?", *filter.PortfolioID)
	}
	if filter.Type != "" {
		stmt = stmt.Where("type = ?", filter.Type)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var recs []domain.Recommendation
	if err := stmt.Order("created_at DESC, id DESC").Find(&recs).Error; err != nil {
		return nil, err
	}
	return recs, nil
}

// CountSubstantive counts GIVEN recommendations from sender to receiver that are not likes.
func (r *repository) CountSubstantive(ctx context.Context, senderID, receiverID snowflake.ID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Where("sender_id = ? AND receiver_id = ? AND type = ? AND message <> ?",
			senderID, receiverID, domain.TypeGiven, domain.LikeMessage).
		Count(&count).Error
	return count, err
}

func (r *repository) HasPendingRequest(ctx context.Context, senderID, receiverID snowflake.ID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Where("sender_id = ? AND receiver_id = ? AND type = ? AND status = ?",
			senderID, receiverID, domain.TypeRequest, domain.StatusPending).
		Count(&count).Error
	return count > 0, err
}

func (r *repository) Resolve(ctx context.Context, id snowflake.ID, status string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
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

// FulfillRequests accepts pending requests the requester sent to the writer.
func (r *repository) FulfillRequests(ctx context.Context, requesterID, writerID snowflake.ID, at time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Where("sender_id = ? AND receiver_id = ? AND type = ? AND status = ?",
			requesterID, writerID, domain.TypeRequest, domain.StatusPending).
		Updates(map[string]any{
			"status":       domain.StatusAccepted,
			"responded_at": at,
			"updated_at":   at,
		})
	return tx.RowsAffected, tx.Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	tx := r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.Recommendation{})
	if tx.Error != nil {
		return tx.Error
	}
	if tx.RowsAffected == 0 {
		return domain.ErrRecommendationNotFound
	}
	return nil
}

func (r *repository) ReceivedStats(ctx context.Context, receiverID snowflake.ID) (domain.RatingStats, error) {
	var row struct {
		Total   int64
		Average sql.NullFloat64
	}
	err := r.db.WithContext(ctx).
		Model(&domain.Recommendation{}).
		Select("COUNT(*) AS total, AVG(rating) AS average").
		Where("receiver_id = ? AND type = ? AND status = ?", receiverID, domain.TypeGiven, domain.StatusAccepted).
		Scan(&row).Error
	if err != nil {
		return domain.RatingStats{}, err
	}
	stats := domain.RatingStats{Count: row.Total}
	if row.Average.Valid {
		avg := row.Average.Float64
		stats.AverageRating = &avg
	}
	return stats, nil
}
