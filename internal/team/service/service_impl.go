package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	auditdomain "github.com/smallbiznis/talentlink/internal/audit/domain"
	"github.com/smallbiznis/talentlink/internal/authorization"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/observability/metrics"
	"github.com/smallbiznis/talentlink/internal/team/domain"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	auditTeamCreate       = "team.create"
	auditTeamUpdate       = "team.update"
	auditTeamDelete       = "team.delete"
	auditMemberAdd        = "member.add"
	auditMemberRemove     = "member.remove"
	auditMemberRoleUpdate = "member.role.update"
	auditMemberLeave      = "member.leave"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Users   userdomain.Repository
	Authz   authorization.MembershipAuthorizer
	Audit   auditdomain.Service
	GenID   *snowflake.Node
	Clock   clock.Clock
	Policy  *config.PolicyHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db      *gorm.DB
	log     *zap.Logger
	repo    domain.Repository
	users   userdomain.Repository
	authz   authorization.MembershipAuthorizer
	audit   auditdomain.Service
	genID   *snowflake.Node
	clock   clock.Clock
	policy  *config.PolicyHolder
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:      p.DB,
		log:     p.Log.Named("team.service"),
		repo:    p.Repo,
		users:   p.Users,
		authz:   p.Authz,
		audit:   p.Audit,
		genID:   p.GenID,
		clock:   p.Clock,
		policy:  p.Policy,
		metrics: p.Metrics,
	}
}

func (s *Service) Create(ctx context.Context, ownerID snowflake.ID, req domain.CreateTeamRequest) (*domain.TeamResponse, error) {
	name := strings.TrimSpace(req.Name)
	if name == "" {
		return nil, domain.ErrInvalidName
	}

	teamType := domain.TypeTeam
	if strings.TrimSpace(req.Type) != "" {
		normalized, ok := domain.NormalizeType(req.Type)
		if !ok {
			return nil, domain.ErrInvalidType
		}
		teamType = normalized
	}

	if req.ParentTeamID != nil {
		parent, err := s.repo.FindByID(ctx, *req.ParentTeamID)
		if err != nil {
			if errors.Is(err, domain.ErrTeamNotFound) {
				return nil, domain.ErrParentTeamNotFound
			}
			return nil, err
		}
		if !parent.IsMainTeam() {
			return nil, domain.ErrNestedSubTeam
		}
		if err := s.authz.Authorize(ctx, ownerID, parent.ID, authorization.ActionSubTeamCreate); err != nil {
			return nil, authorization.Deny(err, domain.ErrCannotCreateSubTeam)
		}
	}

	now := s.clock.Now()
	team := domain.Team{
		ID:           s.genID.Generate(),
		Name:         name,
		Description:  strings.TrimSpace(req.Description),
		Type:         teamType,
		OwnerID:      ownerID,
		ParentTeamID: req.ParentTeamID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		teamSlug, err := uniqueSlug(ctx, repo, name)
		if err != nil {
			return err
		}
		team.Slug = teamSlug

		if err := repo.CreateTeam(ctx, &team); err != nil {
			return err
		}
		return repo.AddMember(ctx, &domain.Member{
			ID:        s.genID.Generate(),
			TeamID:    team.ID,
			UserID:    ownerID,
			Role:      domain.RoleOwner,
			JoinedAt:  now,
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordTeamCreated(ctx, team.Type)
	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &team.ID,
		ActorID:    ownerID,
		Action:     auditTeamCreate,
		TargetType: auditdomain.TargetTeam,
		TargetID:   team.ID.String(),
		Metadata:   map[string]any{"name": team.Name, "type": team.Type, "main_team": team.IsMainTeam()},
	})
	s.log.Info("team created",
		zap.String("team_id", team.ID.String()),
		zap.String("slug", team.Slug),
		zap.Bool("main_team", team.IsMainTeam()),
	)

	resp := domain.NewTeamResponse(team, 1)
	return &resp, nil
}

// uniqueSlug appends -2, -3, ... to the base slug until no team uses it.
func uniqueSlug(ctx context.Context, repo domain.Repository, name string) (string, error) {
	base := slug.Make(name)
	if base == "" {
		base = "team"
	}

	candidate := base
	for n := 2; ; n++ {
		exists, err := repo.SlugExists(ctx, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

// Get resolves a team by snowflake id or slug.
func (s *Service) Get(ctx context.Context, identifier string) (*domain.TeamResponse, error) {
	team, err := s.resolve(ctx, identifier)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, *team)
}

func (s *Service) resolve(ctx context.Context, identifier string) (*domain.Team, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domain.ErrTeamNotFound
	}
	if id, err := snowflake.ParseString(identifier); err == nil && id > 0 {
		team, err := s.repo.FindByID(ctx, id)
		if !errors.Is(err, domain.ErrTeamNotFound) {
			return team, err
		}
	}
	return s.repo.FindBySlug(ctx, identifier)
}

func (s *Service) Update(ctx context.Context, teamID, actorID snowflake.ID, req domain.UpdateTeamRequest) (*domain.TeamResponse, error) {
	team, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if team.OwnerID != actorID {
		return nil, domain.ErrOnlyOwnerCanUpdate
	}

	fields := map[string]any{}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return nil, domain.ErrInvalidName
		}
		fields["name"] = name
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.Type != nil {
		teamType, ok := domain.NormalizeType(*req.Type)
		if !ok {
			return nil, domain.ErrInvalidType
		}
		fields["type"] = teamType
	}
	if len(fields) == 0 {
		return s.respond(ctx, *team)
	}

	fields["updated_at"] = s.clock.Now()
	if err := s.repo.UpdateFields(ctx, teamID, fields); err != nil {
		return nil, err
	}

	changed := make([]any, 0, len(fields))
	for key := range fields {
		if key != "updated_at" {
			changed = append(changed, key)
		}
	}
	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &teamID,
		ActorID:    actorID,
		Action:     auditTeamUpdate,
		TargetType: auditdomain.TargetTeam,
		TargetID:   teamID.String(),
		Metadata:   map[string]any{"fields": changed},
	})

	updated, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, *updated)
}

// Delete removes the team, its sub-teams and everything that references them.
func (s *Service) Delete(ctx context.Context, teamID, actorID snowflake.ID) error {
	team, err := s.repo.FindByID(ctx, teamID)
	if err != nil {
		return err
	}
	if team.OwnerID != actorID {
		return domain.ErrOnlyOwnerCanDelete
	}

	var removed int
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		ids, err := repo.ListSubTeamIDs(ctx, teamID)
		if err != nil {
			return err
		}
		ids = append(ids, teamID)
		removed = len(ids)
		return repo.DeleteCascade(ctx, ids)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &teamID,
		ActorID:    actorID,
		Action:     auditTeamDelete,
		TargetType: auditdomain.TargetTeam,
		TargetID:   teamID.String(),
		Metadata:   map[string]any{"name": team.Name, "teams_removed": removed},
	})
	s.log.Info("team deleted", zap.String("team_id", teamID.String()), zap.Int("teams_removed", removed))
	return nil
}

func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	filter := req.SearchFilter
	if strings.TrimSpace(filter.Type) != "" {
		teamType, ok := domain.NormalizeType(filter.Type)
		if !ok {
			return nil, domain.ErrInvalidType
		}
		filter.Type = teamType
	}

	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  s.policy.Get().PageSize(req.PageSize),
	}
	teams, err := s.repo.Search(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	teams, pageInfo := pagination.BuildPageInfo(teams, page)

	out, err := s.respondAll(ctx, teams)
	if err != nil {
		return nil, err
	}
	return &domain.SearchResponse{Teams: out, PageInfo: pageInfo}, nil
}

func (s *Service) ListMine(ctx context.Context, userID snowflake.ID) ([]domain.MyTeam, error) {
	memberships, err := s.repo.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}

	ids := make([]snowflake.ID, 0, len(memberships))
	for _, m := range memberships {
		ids = append(ids, m.ID)
	}
	counts, err := s.repo.CountMembers(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.MyTeam, 0, len(memberships))
	for _, m := range memberships {
		out = append(out, domain.MyTeam{
			TeamResponse: domain.NewTeamResponse(m.Team, counts[m.ID]),
			Role:         m.Role,
			JoinedAt:     m.JoinedAt,
		})
	}
	return out, nil
}

func (s *Service) ListSubTeams(ctx context.Context, teamID snowflake.ID) ([]domain.TeamResponse, error) {
	if _, err := s.repo.FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	teams, err := s.repo.ListSubTeams(ctx, teamID)
	if err != nil {
		return nil, err
	}
	return s.respondAll(ctx, teams)
}

func (s *Service) ListMembers(ctx context.Context, teamID snowflake.ID) ([]domain.MemberResponse, error) {
	if _, err := s.repo.FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	members, err := s.repo.ListMembers(ctx, teamID)
	if err != nil {
		return nil, err
	}

	userIDs := make([]snowflake.ID, 0, len(members))
	for _, m := range members {
		userIDs = append(userIDs, m.UserID)
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.MemberResponse, 0, len(members))
	for _, m := range members {
		out = append(out, newMemberResponse(m, users[m.UserID]))
	}
	return out, nil
}

func (s *Service) AddMember(ctx context.Context, teamID, actorID snowflake.ID, req domain.AddMemberRequest) (*domain.MemberResponse, error) {
	if _, err := s.repo.FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actorID, teamID, authorization.ActionMemberAdd); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotManageMembers)
	}

	role, err := grantableRole(req.Role)
	if err != nil {
		return nil, err
	}

	user, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}

	if _, err := s.repo.FindMember(ctx, teamID, user.ID); err == nil {
		return nil, domain.ErrAlreadyMember
	} else if !errors.Is(err, domain.ErrMemberNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	member := domain.Member{
		ID:        s.genID.Generate(),
		TeamID:    teamID,
		UserID:    user.ID,
		Role:      role,
		JoinedAt:  now,
		CreatedAt: now,
	}
	if err := s.repo.AddMember(ctx, &member); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyMember
		}
		return nil, err
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &teamID,
		ActorID:    actorID,
		Action:     auditMemberAdd,
		TargetType: auditdomain.TargetMember,
		TargetID:   user.ID.String(),
		Metadata:   map[string]any{"role": role},
	})

	resp := newMemberResponse(member, *user)
	return &resp, nil
}

func (s *Service) RemoveMember(ctx context.Context, teamID, actorID, targetID snowflake.ID) error {
	if _, err := s.repo.FindByID(ctx, teamID); err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actorID, teamID, authorization.ActionMemberRemove); err != nil {
		return authorization.Deny(err, domain.ErrCannotManageMembers)
	}

	target, err := s.repo.FindMember(ctx, teamID, targetID)
	if err != nil {
		return err
	}
	switch target.Role {
	case domain.RoleOwner:
		return domain.ErrCannotRemoveOwner
	case domain.RoleAdmin:
		actorRole, err := s.authz.RoleOf(ctx, actorID, teamID)
		if err != nil {
			return authorization.Deny(err, domain.ErrCannotManageMembers)
		}
		if actorRole != domain.RoleOwner {
			return domain.ErrAdminCannotRemoveAdmin
		}
	}

	if err := s.repo.RemoveMember(ctx, teamID, targetID); err != nil {
		return err
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &teamID,
		ActorID:    actorID,
		Action:     auditMemberRemove,
		TargetType: auditdomain.TargetMember,
		TargetID:   targetID.String(),
		Metadata:   map[string]any{"role": target.Role},
	})
	return nil
}

func (s *Service) UpdateMemberRole(ctx context.Context, teamID, actorID, targetID snowflake.ID, role string) (*domain.MemberResponse, error) {
	if _, err := s.repo.FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actorID, teamID, authorization.ActionMemberRoleUpdate); err != nil {
		return nil, authorization.Deny(err, domain.ErrOnlyOwnerCanSetRole)
	}

	newRole, err := grantableRole(role)
	if err != nil {
		return nil, err
	}

	target, err := s.repo.FindMember(ctx, teamID, targetID)
	if err != nil {
		return nil, err
	}
	if target.Role == domain.RoleOwner {
		return nil, domain.ErrCannotChangeOwner
	}

	if target.Role != newRole {
		if err := s.repo.UpdateMemberRole(ctx, teamID, targetID, newRole); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, auditdomain.Entry{
			TeamID:     &teamID,
			ActorID:    actorID,
			Action:     auditMemberRoleUpdate,
			TargetType: auditdomain.TargetMember,
			TargetID:   targetID.String(),
			Metadata:   map[string]any{"from": target.Role, "to": newRole},
		})
		target.Role = newRole
	}

	user, err := s.users.FindByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	resp := newMemberResponse(*target, *user)
	return &resp, nil
}

func (s *Service) Leave(ctx context.Context, teamID, userID snowflake.ID) error {
	if _, err := s.repo.FindByID(ctx, teamID); err != nil {
		return err
	}
	member, err := s.repo.FindMember(ctx, teamID, userID)
	if err != nil {
		return err
	}
	if member.Role == domain.RoleOwner {
		return domain.ErrOwnerCannotLeave
	}
	if err := s.repo.RemoveMember(ctx, teamID, userID); err != nil {
		return err
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &teamID,
		ActorID:    userID,
		Action:     auditMemberLeave,
		TargetType: auditdomain.TargetMember,
		TargetID:   userID.String(),
	})
	return nil
}

func (s *Service) respond(ctx context.Context, team domain.Team) (*domain.TeamResponse, error) {
	counts, err := s.repo.CountMembers(ctx, []snowflake.ID{team.ID})
	if err != nil {
		return nil, err
	}
	resp := domain.NewTeamResponse(team, counts[team.ID])
	return &resp, nil
}

func (s *Service) respondAll(ctx context.Context, teams []domain.Team) ([]domain.TeamResponse, error) {
	ids := make([]snowflake.ID, 0, len(teams))
	for _, t := range teams {
		ids = append(ids, t.ID)
	}
	counts, err := s.repo.CountMembers(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.TeamResponse, 0, len(teams))
	for _, t := range teams {
		out = append(out, domain.NewTeamResponse(t, counts[t.ID]))
	}
	return out, nil
}

// grantableRole accepts ADMIN or MEMBER, defaulting to MEMBER. OWNER is never grantable.
func grantableRole(raw string) (string, error) {
	if strings.TrimSpace(raw) == "" {
		return domain.RoleMember, nil
	}
	role, ok := domain.NormalizeRole(raw)
	if !ok || role == domain.RoleOwner {
		return "", domain.ErrInvalidRole
	}
	return role, nil
}

func newMemberResponse(m domain.Member, user userdomain.User) domain.MemberResponse {
	return domain.MemberResponse{
		ID:       m.ID.String(),
		TeamID:   m.TeamID.String(),
		UserID:   m.UserID.String(),
		Role:     m.Role,
		JoinedAt: m.JoinedAt,
		User:     user.Summary(),
	}
}
