package repository

import (
	"context"
	"testing"

	"github.com/smallbiznis/talentlink/pkg/db"
	"github.com/smallbiznis/talentlink/pkg/db/option"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type widget struct {
	ID    int64 `gorm:"primaryKey"`
	Kind  string
	Label string
}

func newStore(t *testing.T) Store[widget] {
	t.Helper()

	conn, err := db.NewTest()
	require.NoError(t, err)
	require.NoError(t, conn.AutoMigrate(&widget{}))
	return ProvideStore[widget](conn)
}

func TestStoreFindAndCount(t *testing.T) {
	s := newStore(t)
	ctx := context.Background()

	for i, kind := range []string{"a", "a", "b"} {
		require.NoError(t, s.Create(ctx, &widget{ID: int64(i + 1), Kind: kind, Label: kind}))
	}

	rows, err := s.Find(ctx, &widget{Kind: "a"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	rows, err = s.Find(ctx, nil, option.ApplyOperator(option.Condition{Field: "id", Operator: option.GTE, Value: 2}))
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	count, err := s.Count(ctx, &widget{Kind: "b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestStoreFindOneMissing(t *testing.T) {
	s := newStore(t)

	got, err := s.FindOne(context.Background(), &widget{Kind: "missing"})
	require.NoError(t, err)
	assert.Nil(t, got)
}
