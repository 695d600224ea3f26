package service

import (
	"context"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/collaboration/domain"
	"github.com/smallbiznis/talentlink/internal/collaboration/repository"
	"github.com/smallbiznis/talentlink/internal/config"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	portfoliorepo "github.com/smallbiznis/talentlink/internal/portfolio/repository"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	"github.com/smallbiznis/talentlink/internal/testutil"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	userrepo "github.com/smallbiznis/talentlink/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type fixture struct {
	svc  domain.Service
	conn *gorm.DB
	node *snowflake.Node
}

func newFixture(t *testing.T) fixture {
	t.Helper()

	conn := testutil.NewDB(t)
	node := testutil.NewNode(t)
	svc := New(Params{
		Log:        zaptest.NewLogger(t),
		Repo:       repository.New(conn),
		Users:      userrepo.New(conn),
		Portfolios: portfoliorepo.New(conn),
		Policy:     config.NewStaticPolicy(config.DefaultPolicy()),
	})
	return fixture{svc: svc, conn: conn, node: node}
}

func (f fixture) user(t *testing.T, email, bio string, skills ...string) userdomain.User {
	t.Helper()
	user := testutil.CreateUser(t, f.conn, f.node, email)
	if bio != "" {
		require.NoError(t, f.conn.Model(&userdomain.User{}).Where("id = ?", user.ID).Update("bio", bio).Error)
		user.Bio = bio
	}
	for _, name := range skills {
		var skill userdomain.Skill
		err := f.conn.Where("name = ?", name).First(&skill).Error
		if err != nil {
			skill = userdomain.Skill{ID: f.node.Generate(), Name: name, CreatedAt: testutil.Epoch}
			require.NoError(t, f.conn.Create(&skill).Error)
		}
		require.NoError(t, f.conn.Create(&userdomain.UserSkill{
			ID:        f.node.Generate(),
			UserID:    user.ID,
			SkillID:   skill.ID,
			CreatedAt: testutil.Epoch,
		}).Error)
	}
	return user
}

func (f fixture) portfolio(t *testing.T, owner userdomain.User, title, description string, tags ...string) portfoliodomain.Portfolio {
	t.Helper()
	p := portfoliodomain.Portfolio{
		ID:          f.node.Generate(),
		UserID:      owner.ID,
		Title:       title,
		Slug:        f.node.Generate().String(),
		Description: description,
		Tags:        datatypes.JSONSlice[string](tags),
		CreatedAt:   testutil.Epoch,
		UpdatedAt:   testutil.Epoch,
	}
	require.NoError(t, f.conn.Create(&p).Error)
	return p
}

func (f fixture) contributor(t *testing.T, p portfoliodomain.Portfolio, user userdomain.User, status string) {
	t.Helper()
	require.NoError(t, f.conn.Create(&portfoliodomain.Contributor{
		ID:          f.node.Generate(),
		PortfolioID: p.ID,
		UserID:      user.ID,
		Status:      status,
		InvitedBy:   p.UserID,
		CreatedAt:   testutil.Epoch,
		UpdatedAt:   testutil.Epoch,
	}).Error)
}

func TestHaveCollaboratedThroughTeam(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io", "")
	bob := f.user(t, "bob@acme.io", "")
	carol := f.user(t, "carol@acme.io", "")

	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)
	testutil.AddMember(t, f.conn, f.node, team, bob, teamdomain.RoleMember)

	ok, err := f.svc.HaveCollaborated(ctx, alice.ID, bob.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HaveCollaborated(ctx, bob.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = f.svc.HaveCollaborated(ctx, alice.ID, alice.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestHaveCollaboratedThroughPortfolio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io", "")
	bob := f.user(t, "bob@acme.io", "")
	carol := f.user(t, "carol@acme.io", "")

	p := f.portfolio(t, alice, "Shop", "")
	f.contributor(t, p, bob, portfoliodomain.ContributorAccepted)
	f.contributor(t, p, carol, portfoliodomain.ContributorPending)

	ok, err := f.svc.HaveCollaborated(ctx, bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = f.svc.HaveCollaborated(ctx, alice.ID, carol.ID)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestListCollaborators(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	alice := f.user(t, "alice@acme.io", "")
	bob := f.user(t, "bob@acme.io", "")
	carol := f.user(t, "carol@acme.io", "")
	f.user(t, "dave@acme.io", "")

	team := testutil.CreateTeam(t, f.conn, f.node, alice, "Acme", nil)
	testutil.AddMember(t, f.conn, f.node, team, bob, teamdomain.RoleMember)
	p := f.portfolio(t, carol, "Shop", "")
	f.contributor(t, p, alice, portfoliodomain.ContributorAccepted)
	f.contributor(t, p, bob, portfoliodomain.ContributorAccepted)

	collaborators, err := f.svc.ListCollaborators(ctx, alice.ID)
	require.NoError(t, err)
	require.Len(t, collaborators, 2)
	assert.Equal(t, "bob", collaborators[0].User.Username)
	assert.Equal(t, []string{domain.ViaTeam}, collaborators[0].Via)
	assert.Equal(t, "carol", collaborators[1].User.Username)
	assert.Equal(t, []string{domain.ViaPortfolio}, collaborators[1].Via)
}

func TestSuggestContributorsRanksBySkillThenBio(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	owner := f.user(t, "owner@acme.io", "", "Go")
	f.user(t, "zoe@acme.io", "", "Go", "React")
	f.user(t, "adam@acme.io", "", "Go")
	f.user(t, "bio@acme.io", "I love kubernetes and react")
	f.user(t, "nobody@acme.io", "gardening", "Cooking")
	existing := f.user(t, "existing@acme.io", "", "Go", "React")

	p := f.portfolio(t, owner, "Realtime dashboard", "Built with Go and React on kubernetes", "react")
	f.contributor(t, p, existing, portfoliodomain.ContributorPending)

	suggestions, err := f.svc.SuggestContributors(ctx, owner.ID, p.ID, 0)
	require.NoError(t, err)

	names := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		names = append(names, s.User.Username)
	}
	assert.Equal(t, []string{"zoe", "adam", "bio"}, names)
	assert.Equal(t, 6, suggestions[0].Score)
	assert.Equal(t, []string{"Go", "React"}, suggestions[0].MatchedSkills)
	assert.Equal(t, 3, suggestions[1].Score)
	assert.Equal(t, 2, suggestions[2].Score)

	limited, err := f.svc.SuggestContributors(ctx, owner.ID, p.ID, 1)
	require.NoError(t, err)
	assert.Len(t, limited, 1)

	_, err = f.svc.SuggestContributors(ctx, existing.ID, p.ID, 0)
	assert.ErrorIs(t, err, portfoliodomain.ErrNotOwner)
}
