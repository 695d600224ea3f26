package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	auditrepo "github.com/smallbiznis/talentlink/internal/audit/repository"
	auditservice "github.com/smallbiznis/talentlink/internal/audit/service"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/invitation/domain"
	"github.com/smallbiznis/talentlink/internal/invitation/repository"
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
	svc   domain.Service
	conn  *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock

	owner   userdomain.User
	invitee userdomain.User
	team    teamdomain.Team
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	conn := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := testutil.NewClock()
	log := zaptest.NewLogger(t)
	authz := testutil.NewAuthorizer(t, conn)
	policy := config.NewStaticPolicy(config.DefaultPolicy())

	audit := auditservice.New(auditservice.Params{
		Log:    log,
		Repo:   auditrepo.New(conn),
		Authz:  authz,
		GenID:  node,
		Clock:  clk,
		Policy: policy,
	})
	svc := New(Params{
		DB:     conn,
		Log:    log,
		Repo:   repository.New(conn),
		Teams:  teamrepo.New(conn),
		Users:  userrepo.New(conn),
		Authz:  authz,
		Audit:  audit,
		GenID:  node,
		Clock:  clk,
		Policy: policy,
	})

	owner := testutil.CreateUser(t, conn, node, "owner@acme.io")
	invitee := testutil.CreateUser(t, conn, node, "invitee@acme.io")
	team := testutil.CreateTeam(t, conn, node, owner, "Core", nil)

	return fixture{svc: svc, conn: conn, node: node, clock: clk, owner: owner, invitee: invitee, team: team}
}

func (f fixture) send(t *testing.T) *domain.InvitationResponse {
	t.Helper()
	inv, err := f.svc.Send(context.Background(), f.owner.ID, domain.SendRequest{
		TeamID:     f.team.ID,
		ReceiverID: f.invitee.ID,
		Role:       teamdomain.RoleMember,
	})
	require.NoError(t, err)
	return inv
}

func mustID(t *testing.T, raw string) snowflake.ID {
	t.Helper()
	id, err := snowflake.ParseString(raw)
	require.NoError(t, err)
	return id
}

func TestSendAndAccept(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	inv := f.send(t)
	assert.Equal(t, domain.StatusPending, inv.Status)
	assert.Equal(t, "Core", inv.Team.Name)
	assert.Equal(t, "owner", inv.Sender.Username)
	assert.Equal(t, testutil.Epoch.Add(7*24*time.Hour), inv.ExpiresAt.UTC())

	accepted, err := f.svc.Accept(ctx, mustID(t, inv.ID), f.invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusAccepted, accepted.Status)
	require.NotNil(t, accepted.RespondedAt)

	var member teamdomain.Member
	require.NoError(t, f.conn.Where("team_id = ? AND user_id = ?", f.team.ID, f.invitee.ID).First(&member).Error)
	assert.Equal(t, teamdomain.RoleMember, member.Role)

	_, err = f.svc.Accept(ctx, mustID(t, inv.ID), f.invitee.ID)
	assert.ErrorIs(t, err, domain.ErrInvitationResolved)
	_, err = f.svc.Decline(ctx, mustID(t, inv.ID), f.invitee.ID)
	assert.ErrorIs(t, err, domain.ErrInvitationResolved)
	_, err = f.svc.Cancel(ctx, mustID(t, inv.ID), f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrInvitationResolved)
}

func TestSendRules(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	member := testutil.CreateUser(t, f.conn, f.node, "member@acme.io")
	testutil.AddMember(t, f.conn, f.node, f.team, member, teamdomain.RoleMember)

	_, err := f.svc.Send(ctx, member.ID, domain.SendRequest{TeamID: f.team.ID, ReceiverID: f.invitee.ID})
	assert.ErrorIs(t, err, domain.ErrCannotInvite)

	_, err = f.svc.Send(ctx, f.owner.ID, domain.SendRequest{TeamID: f.team.ID, ReceiverID: member.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyMember)

	_, err = f.svc.Send(ctx, f.owner.ID, domain.SendRequest{TeamID: f.team.ID, ReceiverID: f.owner.ID})
	assert.ErrorIs(t, err, domain.ErrCannotInviteSelf)

	_, err = f.svc.Send(ctx, f.owner.ID, domain.SendRequest{TeamID: f.team.ID, ReceiverID: f.invitee.ID, Role: "OWNER"})
	assert.ErrorIs(t, err, teamdomain.ErrInvalidRole)

	_, err = f.svc.Send(ctx, f.owner.ID, domain.SendRequest{TeamID: f.node.Generate(), ReceiverID: f.invitee.ID})
	assert.ErrorIs(t, err, teamdomain.ErrTeamNotFound)

	_, err = f.svc.Send(ctx, f.owner.ID, domain.SendRequest{TeamID: f.team.ID, ReceiverID: f.node.Generate()})
	assert.ErrorIs(t, err, userdomain.ErrUserNotFound)

	f.send(t)
	_, err = f.svc.Send(ctx, f.owner.ID, domain.SendRequest{TeamID: f.team.ID, ReceiverID: f.invitee.ID})
	assert.ErrorIs(t, err, domain.ErrAlreadyInvited)
}

func TestAcceptExpiredIsGone(t *testing.T) {
	f := newFixture(t)
	inv := f.send(t)

	f.clock.Advance(8 * 24 * time.Hour)
	_, err := f.svc.Accept(context.Background(), mustID(t, inv.ID), f.invitee.ID)
	assert.ErrorIs(t, err, domain.ErrInvitationExpired)

	var count int64
	require.NoError(t, f.conn.Model(&teamdomain.Member{}).Where("user_id = ?", f.invitee.ID).Count(&count).Error)
	assert.Zero(t, count)

	_, err = f.svc.Send(context.Background(), f.owner.ID, domain.SendRequest{TeamID: f.team.ID, ReceiverID: f.invitee.ID})
	assert.NoError(t, err)
}

func TestOnlyReceiverResponds(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.send(t)
	id := mustID(t, inv.ID)

	_, err := f.svc.Accept(ctx, id, f.owner.ID)
	assert.ErrorIs(t, err, domain.ErrNotReceiver)
	_, err = f.svc.Cancel(ctx, id, f.invitee.ID)
	assert.ErrorIs(t, err, domain.ErrNotSender)

	declined, err := f.svc.Decline(ctx, id, f.invitee.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDeclined, declined.Status)

	_, err = f.svc.Accept(ctx, f.node.Generate(), f.invitee.ID)
	assert.ErrorIs(t, err, domain.ErrInvitationNotFound)
}

func TestListings(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	inv := f.send(t)
	_, err := f.svc.Cancel(ctx, mustID(t, inv.ID), f.owner.ID)
	require.NoError(t, err)
	f.send(t)

	received, err := f.svc.ListReceived(ctx, f.invitee.ID, "pending")
	require.NoError(t, err)
	assert.Len(t, received, 1)

	all, err := f.svc.ListReceived(ctx, f.invitee.ID, "")
	require.NoError(t, err)
	assert.Len(t, all, 2)

	_, err = f.svc.ListReceived(ctx, f.invitee.ID, "bogus")
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)

	sent, err := f.svc.ListSent(ctx, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, sent, 2)

	team, err := f.svc.ListForTeam(ctx, f.team.ID, f.owner.ID)
	require.NoError(t, err)
	assert.Len(t, team, 2)

	_, err = f.svc.ListForTeam(ctx, f.team.ID, f.invitee.ID)
	assert.ErrorIs(t, err, domain.ErrCannotViewInvitation)
}
