package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/invitation/domain"
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

func (r *repository) Create(ctx context.Context, inv *domain.Invitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) FindPending(ctx context.Context, teamID, receiverID snowflake.ID, now time.Time) (*domain.Invitation, error) {
	var inv domain.Invitation
	err := r.db.WithContext(ctx).
		Where("team_id = ? AND receiver_id = ? AND status = ? AND expires_at > ?", teamID, receiverID, domain.StatusPending, now).
		First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) Resolve(ctx context.Context, id snowflake.ID, status string, at time.Time) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.Invitation{}).
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

func (r *repository) List(ctx context.Context, filter domain.ListFilter) ([]domain.Invitation, error) {
	stmt := r.db.WithContext(ctx).Model(&domain.Invitation{})
	if filter.TeamID != nil {
		stmt = stmt.Where("team_id = ?", *filter.TeamID)
	}
	if filter.SenderID != nil {
		stmt = stmt.Where("sender_id = ?", *filter.SenderID)
	}
	if filter.ReceiverID != nil {
		stmt = stmt.Where("receiver_id = ?", *filter.ReceiverID)
	}
	if filter.Status != "" {
		stmt = stmt.Where("status = ?", filter.Status)
	}

	var invitations []domain.Invitation
	if err := stmt.Order("created_at DESC, id DESC").Find(&invitations).Error; err != nil {
		return nil, err
	}
	return invitations, nil
}
