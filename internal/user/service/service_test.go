package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/testutil"
	"github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/internal/user/repository"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

func newService(t *testing.T) (domain.Service, *gorm.DB, *snowflake.Node) {
	t.Helper()

	conn := testutil.NewDB(t)
	node := testutil.NewNode(t)
	svc := New(Params{
		DB:     conn,
		Log:    zaptest.NewLogger(t),
		Repo:   repository.New(conn),
		GenID:  node,
		Clock:  testutil.NewClock(),
		Policy: config.NewStaticPolicy(config.DefaultPolicy()),
	})
	return svc, conn, node
}

func ptr[T any](v T) *T { return &v }

func TestGetHidesEmailAndResolvesUsername(t *testing.T) {
	svc, conn, node := newService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, conn, node, "alice@acme.io")

	byName, err := svc.Get(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, byName.ID)
	assert.Empty(t, byName.Email)
	assert.NotNil(t, byName.Skills)

	byID, err := svc.Get(ctx, alice.ID.String())
	require.NoError(t, err)
	assert.Equal(t, "alice", byID.Username)

	_, err = svc.Get(ctx, "nobody")
	assert.ErrorIs(t, err, domain.ErrUserNotFound)

	self, err := svc.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice@acme.io", self.Email)
}

func TestUpdateProfileValidates(t *testing.T) {
	svc, conn, node := newService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, conn, node, "alice@acme.io")

	_, err := svc.UpdateProfile(ctx, alice.ID, domain.UpdateProfileRequest{Availability: ptr("sleeping")})
	assert.ErrorIs(t, err, domain.ErrInvalidAvailability)

	_, err = svc.UpdateProfile(ctx, alice.ID, domain.UpdateProfileRequest{HourlyRate: ptr(-1.0)})
	assert.ErrorIs(t, err, domain.ErrInvalidHourlyRate)

	got, err := svc.UpdateProfile(ctx, alice.ID, domain.UpdateProfileRequest{
		FirstName:    ptr("  Alice "),
		Availability: ptr("busy"),
		HourlyRate:   ptr(85.0),
	})
	require.NoError(t, err)
	assert.Equal(t, "Alice", got.FirstName)
	assert.Equal(t, domain.AvailabilityBusy, got.Availability)
}

func TestSetSkillsReplacesAndDedupes(t *testing.T) {
	svc, conn, node := newService(t)
	ctx := context.Background()
	alice := testutil.CreateUser(t, conn, node, "alice@acme.io")

	got, err := svc.SetSkills(ctx, alice.ID, []domain.SkillInput{
		{Name: "Go", Level: "expert"},
		{Name: "go"},
		{Name: "Postgres"},
	})
	require.NoError(t, err)
	assert.Len(t, got.Skills, 2)

	got, err = svc.SetSkills(ctx, alice.ID, []domain.SkillInput{{Name: "Kubernetes"}})
	require.NoError(t, err)
	require.Len(t, got.Skills, 1)
	assert.Equal(t, "Kubernetes", got.Skills[0].Name)

	_, err = svc.SetSkills(ctx, alice.ID, []domain.SkillInput{{Name: "  "}})
	assert.ErrorIs(t, err, domain.ErrInvalidSkill)
}

func TestSearchFiltersBySkillAndPaginates(t *testing.T) {
	svc, conn, node := newService(t)
	ctx := context.Background()

	alice := testutil.CreateUser(t, conn, node, "alice@acme.io")
	testutil.CreateUser(t, conn, node, "bob@acme.io")
	testutil.CreateUser(t, conn, node, "carol@acme.io")
	_, err := svc.SetSkills(ctx, alice.ID, []domain.SkillInput{{Name: "Go"}})
	require.NoError(t, err)

	res, err := svc.Search(ctx, domain.SearchRequest{SearchFilter: domain.SearchFilter{Skill: "GO"}})
	require.NoError(t, err)
	require.Len(t, res.Users, 1)
	assert.Equal(t, alice.ID, res.Users[0].ID)
	assert.Empty(t, res.Users[0].Email)
	assert.Len(t, res.Users[0].Skills, 1)

	res, err = svc.Search(ctx, domain.SearchRequest{SearchFilter: domain.SearchFilter{Query: "Bo"}})
	require.NoError(t, err)
	require.Len(t, res.Users, 1)
	assert.Equal(t, "bob", res.Users[0].Username)

	first, err := svc.Search(ctx, domain.SearchRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	assert.Len(t, first.Users, 2)
	require.True(t, first.PageInfo.HasMore)

	second, err := svc.Search(ctx, domain.SearchRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: first.PageInfo.NextPageToken}})
	require.NoError(t, err)
	assert.Len(t, second.Users, 1)
	assert.False(t, second.PageInfo.HasMore)
}
