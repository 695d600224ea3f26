package testutil

import (
	"strings"
	"testing"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	jobdomain "github.com/smallbiznis/talentlink/internal/job/domain"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"gorm.io/gorm"
)

// CreateUser inserts a user whose username is the local part of email.
func CreateUser(t testing.TB, conn *gorm.DB, node *snowflake.Node, email string) userdomain.User {
	t.Helper()

	local, _, _ := strings.Cut(email, "@")
	user := userdomain.User{
		ID:           node.Generate(),
		Email:        strings.ToLower(email),
		Username:     local,
		Role:         userdomain.RoleFreelancer,
		Availability: userdomain.AvailabilityAvailable,
		CreatedAt:    Epoch,
		UpdatedAt:    Epoch,
	}
	if err := conn.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user %s: %v", email, err)
	}
	return user
}

// CreateTeam inserts a team with its OWNER membership row.
func CreateTeam(t testing.TB, conn *gorm.DB, node *snowflake.Node, owner userdomain.User, name string, parentID *snowflake.ID) teamdomain.Team {
	t.Helper()

	team := teamdomain.Team{
		ID:           node.Generate(),
		Name:         name,
		Slug:         slug.Make(name) + "-" + node.Generate().String(),
		Type:         teamdomain.TypeTeam,
		OwnerID:      owner.ID,
		ParentTeamID: parentID,
		CreatedAt:    Epoch,
		UpdatedAt:    Epoch,
	}
	if err := conn.Create(&team).Error; err != nil {
		t.Fatalf("failed to create team %s: %v", name, err)
	}
	AddMember(t, conn, node, team, owner, teamdomain.RoleOwner)
	return team
}

// AddMember inserts a membership row directly.
func AddMember(t testing.TB, conn *gorm.DB, node *snowflake.Node, team teamdomain.Team, user userdomain.User, role string) teamdomain.Member {
	t.Helper()

	member := teamdomain.Member{
		ID:        node.Generate(),
		TeamID:    team.ID,
		UserID:    user.ID,
		Role:      role,
		JoinedAt:  Epoch,
		CreatedAt: Epoch,
	}
	if err := conn.Create(&member).Error; err != nil {
		t.Fatalf("failed to add member %s: %v", user.Username, err)
	}
	return member
}

// CreateJob inserts an ACTIVE posting for team authored by author.
func CreateJob(t testing.TB, conn *gorm.DB, node *snowflake.Node, team teamdomain.Team, author userdomain.User, title string) jobdomain.Posting {
	t.Helper()

	job := jobdomain.Posting{
		ID:             node.Generate(),
		TeamID:         team.ID,
		CreatedBy:      author.ID,
		Title:          title,
		EmploymentType: jobdomain.EmploymentFullTime,
		Currency:       "USD",
		Status:         jobdomain.StatusActive,
		CreatedAt:      Epoch,
		UpdatedAt:      Epoch,
	}
	if err := conn.Create(&job).Error; err != nil {
		t.Fatalf("failed to create job %s: %v", title, err)
	}
	return job
}
