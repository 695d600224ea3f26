package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	TeamID     *snowflake.ID
	SenderID   *snowflake.ID
	ReceiverID *snowflake.ID
	Status     string
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, inv *Invitation) error
	FindByID(ctx context.Context, id snowflake.ID) (*Invitation, error)
	FindPending(ctx context.Context, teamID, receiverID snowflake.ID, now time.Time) (*Invitation, error)
	// Resolve moves a PENDING invitation to status. It reports false when the row was no longer PENDING.
	Resolve(ctx context.Context, id snowflake.ID, status string, at time.Time) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Invitation, error)
}
