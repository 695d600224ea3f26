// Package authorization implements the team membership capability check shared
// by every service that gates an operation on a caller's role in a team.
package authorization

import (
	"context"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	gormadapter "github.com/casbin/gorm-adapter/v3"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	"github.com/smallbiznis/talentlink/pkg/apperr"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

//go:embed model.conf
var modelText string

const (
	ActionTeamView          = "team.view"
	ActionTeamUpdate        = "team.update"
	ActionTeamDelete        = "team.delete"
	ActionMemberAdd         = "member.add"
	ActionMemberRemove      = "member.remove"
	ActionMemberRoleUpdate  = "member.role.update"
	ActionInvitationSend    = "invitation.send"
	ActionSubTeamCreate     = "subteam.create"
	ActionJobManage         = "job.manage"
	ActionApplicationReview = "application.review"
	ActionAuditLogView      = "audit_log.view"
)

var ErrForbidden = apperr.Forbidden("forbidden", "You do not have permission to perform this action")

// MembershipAuthorizer answers role questions about a user in a team.
type MembershipAuthorizer interface {
	Authorize(ctx context.Context, userID, teamID snowflake.ID, action string) error
	RoleOf(ctx context.Context, userID, teamID snowflake.ID) (string, error)
	CanManage(ctx context.Context, userID, teamID snowflake.ID) bool
}

type Params struct {
	fx.In

	DB       *gorm.DB
	Log      *zap.Logger
	Enforcer *casbin.SyncedEnforcer
}

type Authorizer struct {
	db       *gorm.DB
	log      *zap.Logger
	enforcer *casbin.SyncedEnforcer
}

func New(p Params) MembershipAuthorizer {
	return &Authorizer{
		db:       p.DB,
		log:      p.Log.Named("authorization"),
		enforcer: p.Enforcer,
	}
}

// NewEnforcer loads role policies through the gorm adapter and seeds the defaults.
func NewEnforcer(db *gorm.DB) (*casbin.SyncedEnforcer, error) {
	adapter, err := gormadapter.NewAdapterByDB(db)
	if err != nil {
		return nil, err
	}
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m, adapter)
	if err != nil {
		return nil, err
	}
	enforcer.EnableAutoSave(true)
	enforcer.EnableAutoBuildRoleLinks(true)
	if err := enforcer.LoadPolicy(); err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

// NewMemoryEnforcer builds an enforcer with the default policies and no storage.
func NewMemoryEnforcer() (*casbin.SyncedEnforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}
	enforcer, err := casbin.NewSyncedEnforcer(m)
	if err != nil {
		return nil, err
	}
	if err := seedPolicies(enforcer); err != nil {
		return nil, err
	}
	if err := enforcer.BuildRoleLinks(); err != nil {
		return nil, err
	}
	return enforcer, nil
}

func (a *Authorizer) Authorize(ctx context.Context, userID, teamID snowflake.ID, action string) error {
	action = strings.TrimSpace(action)
	if userID == 0 || teamID == 0 || action == "" {
		return ErrForbidden
	}

	role, err := a.effectiveRole(ctx, userID, teamID, action)
	if err != nil {
		return err
	}

	allowed, err := a.enforcer.Enforce(subject(role), action)
	if err != nil {
		return err
	}
	if !allowed {
		a.log.Debug("authorization denied",
			zap.String("user_id", userID.String()),
			zap.String("team_id", teamID.String()),
			zap.String("role", role),
			zap.String("action", action),
		)
		return ErrForbidden
	}
	return nil
}

// RoleOf returns the caller's own role in teamID or ErrForbidden for non-members.
func (a *Authorizer) RoleOf(ctx context.Context, userID, teamID snowflake.ID) (string, error) {
	var member teamdomain.Member
	err := a.db.WithContext(ctx).
		Select("role").
		Where("team_id = ? AND user_id = ?", teamID, userID).
		Take(&member).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrForbidden
	}
	if err != nil {
		return "", err
	}
	return member.Role, nil
}

func (a *Authorizer) CanManage(ctx context.Context, userID, teamID snowflake.ID) bool {
	return a.Authorize(ctx, userID, teamID, ActionJobManage) == nil
}

// effectiveRole resolves the caller's role. For job and application actions on a
// sub-team, the stronger of the sub-team role and the parent team role wins.
func (a *Authorizer) effectiveRole(ctx context.Context, userID, teamID snowflake.ID, action string) (string, error) {
	role, err := a.RoleOf(ctx, userID, teamID)
	if err != nil && !errors.Is(err, ErrForbidden) {
		return "", err
	}
	if !inheritsFromParent(action) {
		return role, err
	}

	var team teamdomain.Team
	if lookupErr := a.db.WithContext(ctx).Select("parent_team_id").Where("id = ?", teamID).Take(&team).Error; lookupErr != nil {
		if errors.Is(lookupErr, gorm.ErrRecordNotFound) {
			return "", ErrForbidden
		}
		return "", lookupErr
	}
	if team.ParentTeamID == nil {
		return role, err
	}

	parentRole, parentErr := a.RoleOf(ctx, userID, *team.ParentTeamID)
	if parentErr != nil && !errors.Is(parentErr, ErrForbidden) {
		return "", parentErr
	}
	if roleRank[parentRole] > roleRank[role] {
		return parentRole, nil
	}
	return role, err
}

var roleRank = map[string]int{
	teamdomain.RoleMember: 1,
	teamdomain.RoleAdmin:  2,
	teamdomain.RoleOwner:  3,
}

func inheritsFromParent(action string) bool {
	switch action {
	case ActionJobManage, ActionApplicationReview, ActionTeamView:
		return true
	default:
		return false
	}
}

// Deny replaces the generic forbidden error with a caller-specific one.
func Deny(err error, denied *apperr.Error) error {
	if errors.Is(err, ErrForbidden) {
		return denied
	}
	return err
}

func subject(role string) string {
	return fmt.Sprintf("role:%s", strings.ToLower(role))
}

func seedPolicies(enforcer *casbin.SyncedEnforcer) error {
	policies := [][]string{
		{subject(teamdomain.RoleMember), ActionTeamView},

		{subject(teamdomain.RoleAdmin), ActionMemberAdd},
		{subject(teamdomain.RoleAdmin), ActionMemberRemove},
		{subject(teamdomain.RoleAdmin), ActionInvitationSend},
		{subject(teamdomain.RoleAdmin), ActionSubTeamCreate},
		{subject(teamdomain.RoleAdmin), ActionJobManage},
		{subject(teamdomain.RoleAdmin), ActionApplicationReview},
		{subject(teamdomain.RoleAdmin), ActionAuditLogView},

		{subject(teamdomain.RoleOwner), ActionTeamUpdate},
		{subject(teamdomain.RoleOwner), ActionTeamDelete},
		{subject(teamdomain.RoleOwner), ActionMemberRoleUpdate},
	}
	for _, policy := range policies {
		if _, err := enforcer.AddPolicy(policy); err != nil {
			return err
		}
	}

	hierarchy := [][]string{
		{subject(teamdomain.RoleOwner), subject(teamdomain.RoleAdmin)},
		{subject(teamdomain.RoleAdmin), subject(teamdomain.RoleMember)},
	}
	for _, link := range hierarchy {
		if _, err := enforcer.AddGroupingPolicy(link); err != nil {
			return err
		}
	}
	return nil
}
