package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"gorm.io/gorm"
)

type ListFilter struct {
	TeamID snowflake.ID
	Action string
}

type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Insert(ctx context.Context, entry *Log) error
	List(ctx context.Context, filter ListFilter, page pagination.Pagination) ([]Log, error)
}
