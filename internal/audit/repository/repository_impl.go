package repository

import (
	"context"
	"strings"

	"github.com/smallbiznis/talentlink/internal/audit/domain"
	"github.com/smallbiznis/talentlink/pkg/db/option"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"github.com/smallbiznis/talentlink/pkg/repository"
	"gorm.io/gorm"
)

type repo struct {
	store repository.Store[domain.Log]
}

func New(db *gorm.DB) domain.Repository {
	return &repo{store: repository.ProvideStore[domain.Log](db)}
}

func (r *repo) WithTx(tx *gorm.DB) domain.Repository {
	return &repo{store: r.store.WithTx(tx)}
}

func (r *repo) Insert(ctx context.Context, entry *domain.Log) error {
	return r.store.Create(ctx, entry)
}

func (r *repo) List(ctx context.Context, filter domain.ListFilter, page pagination.Pagination) ([]domain.Log, error) {
	opts := []option.QueryOption{
		option.ApplyOperator(option.Condition{Field: "team_id", Operator: option.EQ, Value: filter.TeamID}),
	}
	if action := strings.TrimSpace(filter.Action); action != "" {
		opts = append(opts, option.ApplyOperator(option.Condition{Field: "action", Operator: option.EQ, Value: action}))
	}
	opts = append(opts, option.WithSortBy(option.QuerySortBy{}), option.ApplyPagination(page))

	return r.store.Find(ctx, nil, opts...)
}
