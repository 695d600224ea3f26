package repository

import (
	"context"
	"errors"

	"github.com/smallbiznis/talentlink/pkg/db/option"
	"gorm.io/gorm"
)

// Store is a thin generic accessor for tables whose rows map 1:1 onto a gorm model.
type Store[T any] interface {
	WithTx(tx *gorm.DB) Store[T]
	Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]T, error)
	FindOne(ctx context.Context, filter *T, opts ...option.QueryOption) (*T, error)
	Create(ctx context.Context, resource *T) error
	Count(ctx context.Context, filter *T, opts ...option.QueryOption) (int64, error)
}

type store[T any] struct {
	db *gorm.DB
}

func ProvideStore[T any](db *gorm.DB) Store[T] {
	return &store[T]{db: db}
}

func (r *store[T]) WithTx(tx *gorm.DB) Store[T] {
	return &store[T]{db: tx}
}

func (r *store[T]) Find(ctx context.Context, filter *T, opts ...option.QueryOption) ([]T, error) {
	var result []T
	err := r.buildQuery(ctx, filter, opts...).Find(&result).Error
	return result, err
}

// FindOne returns nil, nil when nothing matches.
func (r *store[T]) FindOne(ctx context.Context, filter *T, opts ...option.QueryOption) (*T, error) {
	var result T
	err := r.buildQuery(ctx, filter, opts...).First(&result).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &result, nil
}

func (r *store[T]) Create(ctx context.Context, resource *T) error {
	if resource == nil {
		return nil
	}
	return r.db.WithContext(ctx).Create(resource).Error
}

func (r *store[T]) Count(ctx context.Context, filter *T, opts ...option.QueryOption) (int64, error) {
	var count int64
	err := r.buildQuery(ctx, filter, opts...).Count(&count).Error
	return count, err
}

func (r *store[T]) buildQuery(ctx context.Context, filter *T, opts ...option.QueryOption) *gorm.DB {
	db := r.db.WithContext(ctx).Model(new(T))
	if filter != nil {
		db = db.Where(filter)
	}
	for _, opt := range opts {
		db = opt.Apply(db)
	}
	return db
}
