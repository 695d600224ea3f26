package service

import (
	"context"
	"testing"
	"time"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/smallbiznis/talentlink/internal/application/domain"
	applicationrepo "github.com/smallbiznis/talentlink/internal/application/repository"
	applicationservice "github.com/smallbiznis/talentlink/internal/application/service"
	auditrepo "github.com/smallbiznis/talentlink/internal/audit/repository"
	auditservice "github.com/smallbiznis/talentlink/internal/audit/service"
	collabrepo "github.com/smallbiznis/talentlink/internal/collaboration/repository"
	collabservice "github.com/smallbiznis/talentlink/internal/collaboration/service"
	"github.com/smallbiznis/talentlink/internal/config"
	invitationdomain "github.com/smallbiznis/talentlink/internal/invitation/domain"
	invitationrepo "github.com/smallbiznis/talentlink/internal/invitation/repository"
	invitationservice "github.com/smallbiznis/talentlink/internal/invitation/service"
	jobrepo "github.com/smallbiznis/talentlink/internal/job/repository"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	portfoliorepo "github.com/smallbiznis/talentlink/internal/portfolio/repository"
	portfolioservice "github.com/smallbiznis/talentlink/internal/portfolio/service"
	recommendationdomain "github.com/smallbiznis/talentlink/internal/recommendation/domain"
	recommendationrepo "github.com/smallbiznis/talentlink/internal/recommendation/repository"
	recommendationservice "github.com/smallbiznis/talentlink/internal/recommendation/service"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	teamrepo "github.com/smallbiznis/talentlink/internal/team/repository"
	teamservice "github.com/smallbiznis/talentlink/internal/team/service"
	"github.com/smallbiznis/talentlink/internal/testutil"
	userrepo "github.com/smallbiznis/talentlink/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestDashboardAggregatesEverySection(t *testing.T) {
	conn := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := testutil.NewClock()
	log := zaptest.NewLogger(t)
	authz := testutil.NewAuthorizer(t, conn)
	policy := config.NewStaticPolicy(config.DefaultPolicy())
	ctx := context.Background()

	users := userrepo.New(conn)
	teams := teamrepo.New(conn)
	jobs := jobrepo.New(conn)
	portfolios := portfoliorepo.New(conn)
	audit := auditservice.New(auditservice.Params{Log: log, Repo: auditrepo.New(conn), Authz: authz, GenID: node, Clock: clk, Policy: policy})

	teamSvc := teamservice.New(teamservice.Params{
		DB: conn, Log: log, Repo: teams, Users: users, Authz: authz, Audit: audit, GenID: node, Clock: clk, Policy: policy,
	})
	invitationSvc := invitationservice.New(invitationservice.Params{
		DB: conn, Log: log, Repo: invitationrepo.New(conn), Teams: teams, Users: users, Authz: authz, Audit: audit, GenID: node, Clock: clk, Policy: policy,
	})
	portfolioSvc := portfolioservice.New(portfolioservice.Params{
		DB: conn, Log: log, Repo: portfolios, Users: users, GenID: node, Clock: clk,
	})
	applicationSvc := applicationservice.New(applicationservice.Params{
		Log: log, Repo: applicationrepo.New(conn), Jobs: jobs, Users: users, Authz: authz, Audit: audit, GenID: node, Clock: clk,
	})
	collab := collabservice.New(collabservice.Params{
		Log: log, Repo: collabrepo.New(conn), Users: users, Portfolios: portfolios, Policy: policy,
	})
	recommendationSvc := recommendationservice.New(recommendationservice.Params{
		DB: conn, Log: log, Repo: recommendationrepo.New(conn), Users: users, Portfolios: portfolios, Teams: teams, Collaboration: collab, GenID: node, Clock: clk,
	})
	svc := New(Params{
		Log:             log,
		Teams:           teamSvc,
		TeamRepo:        teams,
		Invitations:     invitationSvc,
		Portfolios:      portfolioSvc,
		Applications:    applicationSvc,
		Jobs:            jobs,
		Recommendations: recommendationSvc,
	})

	alice := testutil.CreateUser(t, conn, node, "alice@acme.io")
	bob := testutil.CreateUser(t, conn, node, "bob@acme.io")
	carol := testutil.CreateUser(t, conn, node, "carol@acme.io")

	acme := testutil.CreateTeam(t, conn, node, alice, "Acme", nil)
	testutil.AddMember(t, conn, node, acme, bob, teamdomain.RoleMember)
	other := testutil.CreateTeam(t, conn, node, carol, "Other", nil)
	testutil.CreateJob(t, conn, node, acme, alice, "Go Engineer")
	carolJob := testutil.CreateJob(t, conn, node, other, carol, "Designer")

	_, err := invitationSvc.Send(ctx, carol.ID, invitationdomain.SendRequest{TeamID: other.ID, ReceiverID: alice.ID})
	require.NoError(t, err)
	clk.Advance(time.Second)

	portfolio, err := portfolioSvc.Create(ctx, carol.ID, portfoliodomain.CreatePortfolioRequest{Title: "Brand"})
	require.NoError(t, err)
	_, err = portfolioSvc.Invite(ctx, carol.ID, portfolio.ID, portfoliodomain.InviteContributorRequest{UserID: alice.ID})
	require.NoError(t, err)

	_, err = applicationSvc.Apply(ctx, alice.ID, carolJob.ID, applicationdomain.ApplyRequest{})
	require.NoError(t, err)

	rating := 5
	rec, err := recommendationSvc.Give(ctx, bob.ID, recommendationdomain.GiveRecommendation{ReceiverID: alice.ID, Message: "Great", Rating: &rating})
	require.NoError(t, err)
	recID, err := snowflake.ParseString(rec.ID)
	require.NoError(t, err)
	_, err = recommendationSvc.Respond(ctx, alice.ID, recID, true)
	require.NoError(t, err)
	_, err = recommendationSvc.Request(ctx, bob.ID, recommendationdomain.RequestRecommendation{ReceiverID: alice.ID})
	require.NoError(t, err)

	dash, err := svc.Get(ctx, alice.ID)
	require.NoError(t, err)

	require.Len(t, dash.Teams, 1)
	assert.Equal(t, teamdomain.RoleOwner, dash.Teams[0].Role)
	assert.Len(t, dash.PendingInvitations, 1)
	require.Len(t, dash.ContributorInvitations, 1)
	assert.Equal(t, "Brand", dash.ContributorInvitations[0].Portfolio.Title)
	assert.EqualValues(t, 1, dash.Applications[applicationdomain.StatusPending])
	require.Len(t, dash.ManagedJobs, 1)
	assert.Equal(t, "Go Engineer", dash.ManagedJobs[0].Title)
	assert.EqualValues(t, 1, dash.Recommendations.Received)
	assert.Equal(t, 1, dash.Recommendations.PendingRequests)
	require.NotNil(t, dash.Recommendations.AverageRating)
	assert.InDelta(t, 5.0, *dash.Recommendations.AverageRating, 0.001)

	empty, err := svc.Get(ctx, carol.ID)
	require.NoError(t, err)
	assert.Empty(t, empty.PendingInvitations)
	assert.Len(t, empty.ManagedJobs, 1)
}
