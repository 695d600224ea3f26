package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, inv *EmailInvitation) error
	Save(ctx context.Context, inv *EmailInvitation) error
	Delete(ctx context.Context, id snowflake.ID) error
	FindByID(ctx context.Context, id snowflake.ID) (*EmailInvitation, error)
	FindByToken(ctx context.Context, token string) (*EmailInvitation, error)
	FindByEmailAndTeam(ctx context.Context, email string, teamID snowflake.ID) (*EmailInvitation, error)
	ListByTeam(ctx context.Context, teamID snowflake.ID) ([]EmailInvitation, error)
	// Transition updates the row only while it is still in status from.
	Transition(ctx context.Context, id snowflake.ID, from string, fields map[string]any) (bool, error)
	ExpirePending(ctx context.Context, now time.Time) (int64, error)
}
