package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListFilter struct {
	UserID *snowflake.ID
	JobID  *snowflake.ID
	Status string
}

// StatusCount is one row of a grouped count by status.
type StatusCount struct {
	Status string
	Total  int64
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, app *Application) error
	FindByID(ctx context.Context, id snowflake.ID) (*Application, error)
	Exists(ctx context.Context, userID, jobID snowflake.ID) (bool, error)
	List(ctx context.Context, filter ListFilter) ([]Application, error)
	Transition(ctx context.Context, id snowflake.ID, from, to string, at time.Time) (bool, error)
	DeleteUnlessStatus(ctx context.Context, id snowflake.ID, status string) (bool, error)
	CountByStatus(ctx context.Context, userID snowflake.ID) ([]StatusCount, error)
}
