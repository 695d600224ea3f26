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
	"github.com/smallbiznis/talentlink/internal/job/domain"
	"github.com/smallbiznis/talentlink/internal/job/repository"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	teamrepo "github.com/smallbiznis/talentlink/internal/team/repository"
	"github.com/smallbiznis/talentlink/internal/testutil"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
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
		Authz:  authz,
		Audit:  audit,
		GenID:  node,
		Clock:  clk,
		Policy: policy,
	})
	return fixture{svc: svc, conn: conn, node: node, clock: clk}
}

func (f fixture) user(t *testing.T, email string) userdomain.User {
	return testutil.CreateUser(t, f.conn, f.node, email)
}

func int64p(v int64) *int64 { return &v }

func TestCreateDefaults(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io")
	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)

	job, err := f.svc.Create(ctx, alice.ID, domain.CreateJobRequest{
		TeamID: team.ID,
		Title:  "  Go Engineer ",
		Skills: []string{"Go", " go ", "", "Postgres"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Go Engineer", job.Title)
	assert.Equal(t, domain.StatusActive, job.Status)
	assert.Equal(t, domain.EmploymentFullTime, job.EmploymentType)
	assert.Equal(t, "USD", job.Currency)
	assert.Equal(t, []string{"Go", "Postgres"}, []string(job.Skills))
	assert.Equal(t, alice.ID, job.CreatedBy)

	stored, err := f.svc.Get(ctx, alice.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, []string{"Go", "Postgres"}, []string(stored.Skills))
}

func TestCreateValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io")
	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)
	other := testutil.CreateTeam(t, f.conn, f.node, alice, "Other", nil)
	foreignSub := testutil.CreateTeam(t, f.conn, f.node, alice, "Foreign Sub", &other.ID)

	cases := []struct {
		name string
		req  domain.CreateJobRequest
		want error
	}{
		{"blank title", domain.CreateJobRequest{TeamID: team.ID, Title: " "}, domain.ErrInvalidTitle},
		{"unknown team", domain.CreateJobRequest{TeamID: f.node.Generate(), Title: "X"}, teamdomain.ErrTeamNotFound},
		{"bad status", domain.CreateJobRequest{TeamID: team.ID, Title: "X", Status: "archived"}, domain.ErrInvalidStatus},
		{"bad employment type", domain.CreateJobRequest{TeamID: team.ID, Title: "X", EmploymentType: "gig"}, domain.ErrInvalidEmploymentType},
		{"inverted salary", domain.CreateJobRequest{TeamID: team.ID, Title: "X", SalaryMin: int64p(10), SalaryMax: int64p(5)}, domain.ErrInvalidSalary},
		{"negative salary", domain.CreateJobRequest{TeamID: team.ID, Title: "X", SalaryMin: int64p(-1)}, domain.ErrInvalidSalary},
		{"foreign sub-team", domain.CreateJobRequest{TeamID: team.ID, Title: "X", SubTeamID: &foreignSub.ID}, domain.ErrInvalidSubTeam},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.svc.Create(ctx, alice.ID, tc.req)
			assert.ErrorIs(t, err, tc.want)
		})
	}

	job, err := f.svc.Create(ctx, alice.ID, domain.CreateJobRequest{TeamID: team.ID, Title: "X", EmploymentType: "part-time"})
	require.NoError(t, err)
	assert.Equal(t, domain.EmploymentPartTime, job.EmploymentType)
}

func TestOnlyManagersCanPost(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io")
	bob := f.user(t, "bob@acme.io")
	carol := f.user(t, "carol@acme.io")
	dave := f.user(t, "dave@acme.io")
	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)
	testutil.AddMember(t, f.conn, f.node, team, bob, teamdomain.RoleAdmin)
	testutil.AddMember(t, f.conn, f.node, team, carol, teamdomain.RoleMember)

	_, err := f.svc.Create(ctx, bob.ID, domain.CreateJobRequest{TeamID: team.ID, Title: "Designer"})
	require.NoError(t, err)

	_, err = f.svc.Create(ctx, carol.ID, domain.CreateJobRequest{TeamID: team.ID, Title: "Designer"})
	assert.ErrorIs(t, err, domain.ErrCannotManageJobs)
	_, err = f.svc.Create(ctx, dave.ID, domain.CreateJobRequest{TeamID: team.ID, Title: "Designer"})
	assert.ErrorIs(t, err, domain.ErrCannotManageJobs)
}

func TestParentAdminCanPostForSubTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io")
	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)
	sub := testutil.CreateTeam(t, f.conn, f.node, alice, "Frontend", &team.ID)

	job, err := f.svc.Create(ctx, alice.ID, domain.CreateJobRequest{TeamID: team.ID, SubTeamID: &sub.ID, Title: "React Dev"})
	require.NoError(t, err)
	require.NotNil(t, job.SubTeamID)
	assert.Equal(t, sub.ID, *job.SubTeamID)
}

func TestListOrdersPromotedFirst(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io")
	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)

	create := func(title string, featured, sponsored bool, status string) {
		t.Helper()
		_, err := f.svc.Create(ctx, alice.ID, domain.CreateJobRequest{
			TeamID: team.ID, Title: title, IsFeatured: featured, IsSponsored: sponsored, Status: status,
		})
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}
	create("plain old", false, false, "")
	create("featured", true, false, "")
	create("sponsored", false, true, "")
	create("plain new", false, false, "")
	create("draft", false, false, domain.StatusDraft)

	resp, err := f.svc.List(ctx, domain.ListRequest{})
	require.NoError(t, err)
	titles := make([]string, 0, len(resp.Jobs))
	for _, job := range resp.Jobs {
		titles = append(titles, job.Title)
	}
	assert.Equal(t, []string{"sponsored", "featured", "plain new", "plain old"}, titles)

	resp, err = f.svc.List(ctx, domain.ListRequest{ListFilter: domain.ListFilter{Query: "PLAIN"}})
	require.NoError(t, err)
	assert.Len(t, resp.Jobs, 2)

	resp, err = f.svc.List(ctx, domain.ListRequest{ViewerID: alice.ID, ListFilter: domain.ListFilter{TeamID: &team.ID, Status: "draft"}})
	require.NoError(t, err)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, "draft", resp.Jobs[0].Title)

	_, err = f.svc.List(ctx, domain.ListRequest{ListFilter: domain.ListFilter{Status: "gone"}})
	assert.ErrorIs(t, err, domain.ErrInvalidStatus)
}

func TestListPaginates(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io")
	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)
	for _, title := range []string{"a", "b", "c"} {
		_, err := f.svc.Create(ctx, alice.ID, domain.CreateJobRequest{TeamID: team.ID, Title: title})
		require.NoError(t, err)
		f.clock.Advance(time.Second)
	}

	first, err := f.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageSize: 2}})
	require.NoError(t, err)
	assert.Len(t, first.Jobs, 2)
	assert.True(t, first.PageInfo.HasMore)
	require.NotEmpty(t, first.PageInfo.NextPageToken)

	second, err := f.svc.List(ctx, domain.ListRequest{Pagination: pagination.Pagination{PageSize: 2, PageToken: first.PageInfo.NextPageToken}})
	require.NoError(t, err)
	require.Len(t, second.Jobs, 1)
	assert.False(t, second.PageInfo.HasMore)
	assert.Equal(t, "a", second.Jobs[0].Title)
}

func TestListForTeamHidesDraftsFromOutsiders(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io")
	bob := f.user(t, "bob@acme.io")
	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)

	_, err := f.svc.Create(ctx, alice.ID, domain.CreateJobRequest{TeamID: team.ID, Title: "Live"})
	require.NoError(t, err)
	_, err = f.svc.Create(ctx, alice.ID, domain.CreateJobRequest{TeamID: team.ID, Title: "Draft", Status: domain.StatusDraft})
	require.NoError(t, err)

	all, err := f.svc.ListForTeam(ctx, team.ID, alice.ID)
	require.NoError(t, err)
	assert.Len(t, all, 2)

	public, err := f.svc.ListForTeam(ctx, team.ID, bob.ID)
	require.NoError(t, err)
	require.Len(t, public, 1)
	assert.Equal(t, "Live", public[0].Title)

	anonymous, err := f.svc.ListForTeam(ctx, team.ID, 0)
	require.NoError(t, err)
	assert.Len(t, anonymous, 1)
}

func TestDraftsAreHiddenFromNonManagers(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io")
	bob := f.user(t, "bob@acme.io")
	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)
	other := testutil.CreateTeam(t, f.conn, f.node, bob, "Other", nil)

	draft, err := f.svc.Create(ctx, alice.ID, domain.CreateJobRequest{TeamID: team.ID, Title: "Secret", Status: domain.StatusDraft})
	require.NoError(t, err)

	got, err := f.svc.Get(ctx, alice.ID, draft.ID)
	require.NoError(t, err)
	assert.Equal(t, "Secret", got.Title)

	_, err = f.svc.Get(ctx, bob.ID, draft.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = f.svc.Get(ctx, 0, draft.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	drafts := domain.ListFilter{TeamID: &team.ID, Status: domain.StatusDraft}
	_, err = f.svc.List(ctx, domain.ListRequest{ListFilter: drafts})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = f.svc.List(ctx, domain.ListRequest{ViewerID: bob.ID, ListFilter: drafts})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = f.svc.List(ctx, domain.ListRequest{ViewerID: alice.ID, ListFilter: domain.ListFilter{Status: domain.StatusDraft}})
	assert.ErrorIs(t, err, domain.ErrJobNotFound)
	_, err = f.svc.List(ctx, domain.ListRequest{ViewerID: bob.ID, ListFilter: domain.ListFilter{TeamID: &other.ID, Status: domain.StatusDraft}})
	require.NoError(t, err)

	resp, err := f.svc.List(ctx, domain.ListRequest{ViewerID: alice.ID, ListFilter: drafts})
	require.NoError(t, err)
	require.Len(t, resp.Jobs, 1)
	assert.Equal(t, draft.ID, resp.Jobs[0].ID)
}

func TestUpdateCloseAndDelete(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io")
	bob := f.user(t, "bob@acme.io")
	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)

	job, err := f.svc.Create(ctx, alice.ID, domain.CreateJobRequest{TeamID: team.ID, Title: "Go", SalaryMin: int64p(100)})
	require.NoError(t, err)

	title := "Senior Go"
	_, err = f.svc.Update(ctx, bob.ID, job.ID, domain.UpdateJobRequest{Title: &title})
	assert.ErrorIs(t, err, domain.ErrCannotManageJobs)

	_, err = f.svc.Update(ctx, alice.ID, job.ID, domain.UpdateJobRequest{SalaryMax: int64p(50)})
	assert.ErrorIs(t, err, domain.ErrInvalidSalary)

	updated, err := f.svc.Update(ctx, alice.ID, job.ID, domain.UpdateJobRequest{Title: &title, SalaryMax: int64p(200)})
	require.NoError(t, err)
	assert.Equal(t, "Senior Go", updated.Title)
	require.NotNil(t, updated.SalaryMax)
	assert.EqualValues(t, 200, *updated.SalaryMax)

	closed, err := f.svc.Close(ctx, alice.ID, job.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusClosed, closed.Status)

	require.NoError(t, f.conn.Exec(
		`INSERT INTO job_applications (id, job_id, user_id, status, created_at, updated_at) VALUES (?, ?, ?, 'PENDING', ?, ?)`,
		f.node.Generate(), job.ID, bob.ID, testutil.Epoch, testutil.Epoch,
	).Error)

	assert.ErrorIs(t, f.svc.Delete(ctx, bob.ID, job.ID), domain.ErrCannotManageJobs)
	require.NoError(t, f.svc.Delete(ctx, alice.ID, job.ID))

	_, err = f.svc.Get(ctx, alice.ID, job.ID)
	assert.ErrorIs(t, err, domain.ErrJobNotFound)

	var remaining int64
	require.NoError(t, f.conn.Table("job_applications").Where("job_id = ?", job.ID).Count(&remaining).Error)
	assert.Zero(t, remaining)
}
