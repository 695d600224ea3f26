package repository

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/emailinvitation/domain"
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

func (r *repository) Create(ctx context.Context, inv *domain.EmailInvitation) error {
	return r.db.WithContext(ctx).Create(inv).Error
}

func (r *repository) Save(ctx context.Context, inv *domain.EmailInvitation) error {
	return r.db.WithContext(ctx).Save(inv).Error
}

func (r *repository) Delete(ctx context.Context, id snowflake.ID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&domain.EmailInvitation{}).Error
}

func (r *repository) FindByID(ctx context.Context, id snowflake.ID) (*domain.EmailInvitation, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *repository) FindByToken(ctx context.Context, token string) (*domain.EmailInvitation, error) {
	return r.first(ctx, "token = ?", token)
}

func (r *repository) FindByEmailAndTeam(ctx context.Context, email string, teamID snowflake.ID) (*domain.EmailInvitation, error) {
	return r.first(ctx, "email = ? AND team_id = ?", email, teamID)
}

func (r *repository) first(ctx context.Context, query string, args ...any) (*domain.EmailInvitation, error) {
	var inv domain.EmailInvitation
	err := r.db.WithContext(ctx).Where(query, args...).First(&inv).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrInvitationNotFound
	}
	if err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r *repository) ListByTeam(ctx context.Context, teamID snowflake.ID) ([]domain.EmailInvitation, error) {
	var invitations []domain.EmailInvitation
	err := r.db.WithContext(ctx).
		Where("team_id = ?", teamID).
		Order("created_at DESC, id DESC").
		Find(&invitations).Error
	if err != nil {
		return nil, err
	}
	return invitations, nil
}

func (r *repository) Transition(ctx context.Context, id snowflake.ID, from string, fields map[string]any) (bool, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.EmailInvitation{}).
		Where("id = ? AND status = ?", id, from).
		Updates(fields)
	if tx.Error != nil {
		return false, tx.Error
	}
	return tx.RowsAffected == 1, nil
}

func (r *repository) ExpirePending(ctx context.Context, now time.Time) (int64, error) {
	tx := r.db.WithContext(ctx).
		Model(&domain.EmailInvitation{}).
		Where("status = ? AND expires_at < ?", domain.StatusPending, now).
		Updates(map[string]any{"status": domain.StatusExpired, "updated_at": now})
	return tx.RowsAffected, tx.Error
}
