package domain

import (
	"context"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ContributorFilter struct {
	PortfolioID *snowflake.ID
	UserID      *snowflake.ID
	Status      string
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository

	Create(ctx context.Context, portfolio *Portfolio) error
	FindByID(ctx context.Context, id snowflake.ID) (*Portfolio, error)
	FindByIDs(ctx context.Context, ids []snowflake.ID) (map[snowflake.ID]Portfolio, error)
	SlugExists(ctx context.Context, userID snowflake.ID, slug string) (bool, error)
	ListByUser(ctx context.Context, userID snowflake.ID) ([]Portfolio, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, id snowflake.ID) error

	AddContributor(ctx context.Context, c *Contributor) error
	FindContributor(ctx context.Context, id snowflake.ID) (*Contributor, error)
	ContributorExists(ctx context.Context, portfolioID, userID snowflake.ID) (bool, error)
	ListContributors(ctx context.Context, filter ContributorFilter) ([]Contributor, error)
	ResolveContributor(ctx context.Context, id snowflake.ID, status string, at time.Time) (bool, error)
	RemoveContributor(ctx context.Context, id snowflake.ID) error
}
