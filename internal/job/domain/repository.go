package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	Status         string
	TeamID         *snowflake.ID
	TeamIDs        []snowflake.ID
	Query          string
	EmploymentType string
	Featured       *bool
	Remote         *bool
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, job *Posting) error
	FindByID(ctx context.Context, id snowflake.ID) (*Posting, error)
	UpdateFields(ctx context.Context, id snowflake.ID, fields map[string]any) error
	Delete(ctx context.Context, id snowflake.ID) error
	List(ctx context.Context, filter ListFilter, page pagination.Pagination) ([]Posting, error)
}
