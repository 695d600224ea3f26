package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	collabrepo "github.com/smallbiznis/talentlink/internal/collaboration/repository"
	collabservice "github.com/smallbiznis/talentlink/internal/collaboration/service"
	"github.com/smallbiznis/talentlink/internal/config"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	portfoliorepo "github.com/smallbiznis/talentlink/internal/portfolio/repository"
	"github.com/smallbiznis/talentlink/internal/recommendation/domain"
	"github.com/smallbiznis/talentlink/internal/recommendation/repository"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	teamrepo "github.com/smallbiznis/talentlink/internal/team/repository"
	"github.com/smallbiznis/talentlink/internal/testutil"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	userrepo "github.com/smallbiznis/talentlink/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

type fixture struct {
	svc  domain.Service
	conn *gorm.DB
	node *snowflake.Node

	alice userdomain.User
	bob   userdomain.User
	carol userdomain.User
}

// newFixture seeds alice and bob as teammates; carol shares nothing with either.
func newFixture(t *testing.T) fixture {
	t.Helper()

	conn := testutil.NewDB(t)
	node := testutil.NewNode(t)
	log := zaptest.NewLogger(t)
	users := userrepo.New(conn)
	portfolios := portfoliorepo.New(conn)

	collab := collabservice.New(collabservice.Params{
		Log:        log,
		Repo:       collabrepo.New(conn),
		Users:      users,
		Portfolios: portfolios,
		Policy:     config.NewStaticPolicy(config.DefaultPolicy()),
	})
	svc := New(Params{
		DB:            conn,
		Log:           log,
		Repo:          repository.New(conn),
		Users:         users,
		Portfolios:    portfolios,
		Teams:         teamrepo.New(conn),
		Collaboration: collab,
		GenID:         node,
		Clock:         testutil.NewClock(),
	})

	alice := testutil.CreateUser(t, conn, node, "alice@acme.io")
	bob := testutil.CreateUser(t, conn, node, "bob@acme.io")
	carol := testutil.CreateUser(t, conn, node, "carol@acme.io")
	team := testutil.CreateTeam(t, conn, node, alice, "Acme", nil)
	testutil.AddMember(t, conn, node, team, bob, teamdomain.RoleMember)

	return fixture{svc: svc, conn: conn, node: node, alice: alice, bob: bob, carol: carol}
}

func parseID(t *testing.T, raw string) snowflake.ID {
	t.Helper()
	id, err := snowflake.ParseString(raw)
	require.NoError(t, err)
	return id
}

func intp(v int) *int { return &v }

func TestGiveRequiresCollaboration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Give(ctx, f.carol.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: "Great"})
	assert.ErrorIs(t, err, domain.ErrNotCollaborator)

	rec, err := f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: "Great lead", Rating: intp(5)})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeGiven, rec.Type)
	assert.Equal(t, domain.StatusPending, rec.Status)
	assert.Equal(t, "bob", rec.Sender.Username)
	assert.Equal(t, "alice", rec.Receiver.Username)
}

func TestGiveValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.bob.ID, Message: "me"})
	assert.ErrorIs(t, err, domain.ErrSelfRecommendation)

	_, err = f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: "  "})
	assert.ErrorIs(t, err, domain.ErrInvalidMessage)

	for _, rating := range []int{0, 6} {
		_, err = f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: "ok", Rating: intp(rating)})
		assert.ErrorIs(t, err, domain.ErrInvalidRating)
	}

	_, err = f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.node.Generate(), Message: "ok"})
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)
}

func TestOneSubstantiveRecommendationButUnlimitedLikes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: "Great lead"})
	require.NoError(t, err)
	_, err = f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: "Still great"})
	assert.ErrorIs(t, err, domain.ErrAlreadyRecommended)

	for i := 0; i < 3; i++ {
		like, err := f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: domain.LikeMessage})
		require.NoError(t, err)
		assert.True(t, like.IsLike)
	}

	given, err := f.svc.ListGiven(ctx, f.bob.ID, "given")
	require.NoError(t, err)
	assert.Len(t, given, 4)
}

func TestPortfolioScopedSkipsCollaboration(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	portfolio := portfoliodomain.Portfolio{
		ID:        f.node.Generate(),
		UserID:    f.alice.ID,
		Title:     "Shop",
		Slug:      "shop",
		CreatedAt: testutil.Epoch,
		UpdatedAt: testutil.Epoch,
	}
	require.NoError(t, f.conn.Create(&portfolio).Error)

	_, err := f.svc.Give(ctx, f.carol.ID, domain.GiveRecommendation{ReceiverID: f.bob.ID, Message: "Nice", PortfolioID: &portfolio.ID})
	assert.ErrorIs(t, err, domain.ErrPortfolioMismatch)

	rec, err := f.svc.Give(ctx, f.carol.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: "Nice work", Rating: intp(4), PortfolioID: &portfolio.ID})
	require.NoError(t, err)
	require.NotNil(t, rec.PortfolioID)

	public, err := f.svc.ListForPortfolio(ctx, portfolio.ID, f.carol.ID)
	require.NoError(t, err)
	assert.Empty(t, public)

	owner, err := f.svc.ListForPortfolio(ctx, portfolio.ID, f.alice.ID)
	require.NoError(t, err)
	require.Len(t, owner, 1)

	_, err = f.svc.Respond(ctx, f.alice.ID, parseID(t, rec.ID), true)
	require.NoError(t, err)

	public, err = f.svc.ListForPortfolio(ctx, portfolio.ID, 0)
	require.NoError(t, err)
	assert.Len(t, public, 1)

	stats, err := f.svc.Stats(ctx, f.alice.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, stats.Count)
	require.NotNil(t, stats.AverageRating)
	assert.InDelta(t, 4.0, *stats.AverageRating, 0.001)
}

func TestRequestFulfilledByGive(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.svc.Request(ctx, f.carol.ID, domain.RequestRecommendation{ReceiverID: f.alice.ID})
	assert.ErrorIs(t, err, domain.ErrNotCollaborator)

	req, err := f.svc.Request(ctx, f.alice.ID, domain.RequestRecommendation{ReceiverID: f.bob.ID, Message: "Could you vouch for me?"})
	require.NoError(t, err)
	assert.Equal(t, domain.TypeRequest, req.Type)

	_, err = f.svc.Request(ctx, f.alice.ID, domain.RequestRecommendation{ReceiverID: f.bob.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyRequested)

	inbox, err := f.svc.ListReceived(ctx, f.bob.ID, domain.TypeRequest, domain.StatusPending)
	require.NoError(t, err)
	require.Len(t, inbox, 1)

	_, err = f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: "Alice is great"})
	require.NoError(t, err)

	inbox, err = f.svc.ListReceived(ctx, f.bob.ID, domain.TypeRequest, domain.StatusPending)
	require.NoError(t, err)
	assert.Empty(t, inbox)

	_, err = f.svc.ListReceived(ctx, f.bob.ID, "MENTION", "")
	assert.ErrorIs(t, err, domain.ErrInvalidType)
}

func TestRespondAndDeleteOwnership(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	rec, err := f.svc.Give(ctx, f.bob.ID, domain.GiveRecommendation{ReceiverID: f.alice.ID, Message: "Great"})
	require.NoError(t, err)
	id := parseID(t, rec.ID)

	_, err = f.svc.Respond(ctx, f.bob.ID, id, true)
	assert.ErrorIs(t, err, domain.ErrNotReceiver)

	rejected, err := f.svc.Respond(ctx, f.alice.ID, id, false)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusRejected, rejected.Status)

	_, err = f.svc.Respond(ctx, f.alice.ID, id, true)
	assert.ErrorIs(t, err, domain.ErrAlreadyResponded)

	assert.ErrorIs(t, f.svc.Delete(ctx, f.alice.ID, id), domain.ErrNotSender)
	require.NoError(t, f.svc.Delete(ctx, f.bob.ID, id))
	assert.ErrorIs(t, f.svc.Delete(ctx, f.bob.ID, id), domain.ErrRecommendationNotFound)
}
