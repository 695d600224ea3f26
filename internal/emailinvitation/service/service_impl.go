package service

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"strings"
	"time"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/talentlink/internal/audit/domain"
	"github.com/smallbiznis/talentlink/internal/authorization"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/emailinvitation/domain"
	"github.com/smallbiznis/talentlink/internal/observability/metrics"
	"github.com/smallbiznis/talentlink/internal/providers/email"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const tokenBytes = 32

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Config  config.Config
	Repo    domain.Repository
	Teams   teamdomain.Repository
	Users   userdomain.Repository
	Authz   authorization.MembershipAuthorizer
	Audit   auditdomain.Service
	Email   email.Provider
	GenID   *snowflake.Node
	Clock   clock.Clock
	Policy  *config.PolicyHolder
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	db        *gorm.DB
	log       *zap.Logger
	publicURL string
	repo      domain.Repository
	teams     teamdomain.Repository
	users     userdomain.Repository
	authz     authorization.MembershipAuthorizer
	audit     auditdomain.Service
	email     email.Provider
	genID     *snowflake.Node
	clock     clock.Clock
	policy    *config.PolicyHolder
	metrics   *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:        p.DB,
		log:       p.Log.Named("emailinvitation.service"),
		publicURL: strings.TrimRight(p.Config.PublicURL, "/"),
		repo:      p.Repo,
		teams:     p.Teams,
		users:     p.Users,
		authz:     p.Authz,
		audit:     p.Audit,
		email:     p.Email,
		genID:     p.GenID,
		clock:     p.Clock,
		policy:    p.Policy,
		metrics:   p.Metrics,
	}
}

func (s *Service) IsCompanyEmail(address string) bool {
	return domain.IsCompanyEmail(s.policy.Get(), address)
}

func (s *Service) ValidateCompanyEmail(inviteeEmail, ownerEmail string) error {
	return domain.ValidateCompanyEmail(s.policy.Get(), inviteeEmail, ownerEmail)
}

func (s *Service) Send(ctx context.Context, teamID, inviterID snowflake.ID, req domain.SendRequest) (*domain.EmailInvitation, error) {
	team, err := s.teams.FindByID(ctx, teamID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, inviterID, teamID, authorization.ActionInvitationSend); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotInvite)
	}

	address, ok := domain.NormalizeEmail(req.Email)
	if !ok {
		return nil, domain.ErrInvalidEmail
	}
	role := teamdomain.RoleMember
	if strings.TrimSpace(req.Role) != "" {
		normalized, ok := teamdomain.NormalizeRole(req.Role)
		if !ok || normalized == teamdomain.RoleOwner {
			return nil, teamdomain.ErrInvalidRole
		}
		role = normalized
	}

	owner, err := s.users.FindByID(ctx, team.OwnerID)
	if err != nil {
		return nil, err
	}
	if err := s.ValidateCompanyEmail(address, owner.Email); err != nil {
		return nil, err
	}

	if registered, err := s.users.FindByEmail(ctx, address); err == nil {
		if _, err := s.teams.FindMember(ctx, teamID, registered.ID); err == nil {
			return nil, domain.ErrAlreadyMember
		} else if !errors.Is(err, teamdomain.ErrMemberNotFound) {
			return nil, err
		}
	} else if !errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	existing, err := s.repo.FindByEmailAndTeam(ctx, address, teamID)
	if err != nil && !errors.Is(err, domain.ErrInvitationNotFound) {
		return nil, err
	}
	if existing != nil && !existing.IsTerminal(now) {
		return nil, domain.ErrAlreadyInvited
	}

	token, err := newToken()
	if err != nil {
		return nil, err
	}

	inv := domain.EmailInvitation{
		ID:        s.genID.Generate(),
		Email:     address,
		TeamID:    teamID,
		Token:     token,
		Role:      role,
		InvitedBy: inviterID,
		Status:    domain.StatusPending,
		ExpiresAt: now.Add(s.policy.Get().EmailInvitationTTL),
		CreatedAt: now,
		UpdatedAt: now,
	}
	var prior *domain.EmailInvitation
	if existing != nil {
		snapshot := *existing
		prior = &snapshot
		inv.ID = existing.ID
		inv.CreatedAt = existing.CreatedAt
		err = s.repo.Save(ctx, &inv)
	} else {
		err = s.repo.Create(ctx, &inv)
	}
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyInvited
		}
		return nil, err
	}

	inviter, err := s.users.FindByID(ctx, inviterID)
	if err != nil {
		s.compensate(ctx, inv, prior)
		return nil, err
	}
	if err := s.dispatch(ctx, inv, *team, *inviter); err != nil {
		s.log.Error("failed to send invitation email",
			zap.String("invitation_id", inv.ID.String()),
			zap.String("team_id", teamID.String()),
			zap.Error(err),
		)
		s.metrics.RecordEmailDispatchFailure(ctx, email.TemplateTeamInvitation)
		s.compensate(ctx, inv, prior)
		return nil, domain.ErrDispatchFailed
	}

	s.metrics.RecordInvitationSent(ctx, metrics.KindEmail)
	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &teamID,
		ActorID:    inviterID,
		Action:     "email_invitation.send",
		TargetType: auditdomain.TargetEmailInvitation,
		TargetID:   inv.ID.String(),
		Metadata:   map[string]any{"email": address, "role": role, "reused": prior != nil},
	})
	return &inv, nil
}

// compensate removes a row created for a failed dispatch, or restores the terminal row it replaced.
func (s *Service) compensate(ctx context.Context, inv domain.EmailInvitation, prior *domain.EmailInvitation) {
	var err error
	if prior != nil {
		err = s.repo.Save(ctx, prior)
	} else {
		err = s.repo.Delete(ctx, inv.ID)
	}
	if err != nil {
		s.log.Error("failed to roll back email invitation",
			zap.String("invitation_id", inv.ID.String()),
			zap.Error(err),
		)
	}
}

func (s *Service) dispatch(ctx context.Context, inv domain.EmailInvitation, team teamdomain.Team, inviter userdomain.User) error {
	return s.email.SendTemplate(ctx, []string{inv.Email}, email.TemplateTeamInvitation, map[string]any{
		"team_name":    team.Name,
		"inviter_name": inviter.DisplayName(),
		"role":         inv.Role,
		"accept_url":   s.publicURL + "/invitations/accept/" + inv.Token,
		"expires_at":   inv.ExpiresAt.Format("Jan 2, 2006"),
	})
}

func (s *Service) Validate(ctx context.Context, token string) (*domain.ValidationResponse, error) {
	inv, err := s.check(ctx, token)
	if err != nil {
		return nil, err
	}

	team, err := s.teams.FindByID(ctx, inv.TeamID)
	if err != nil {
		return nil, err
	}
	resp := &domain.ValidationResponse{
		Email:     inv.Email,
		Role:      inv.Role,
		TeamID:    team.ID.String(),
		TeamName:  team.Name,
		TeamSlug:  team.Slug,
		ExpiresAt: inv.ExpiresAt,
	}
	if inviter, err := s.users.FindByID(ctx, inv.InvitedBy); err == nil {
		resp.InviterName = inviter.DisplayName()
	}
	return resp, nil
}

// check resolves a token to a usable invitation. Pending rows past their expiry are marked EXPIRED here.
func (s *Service) check(ctx context.Context, token string) (*domain.EmailInvitation, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, domain.ErrInvalidToken
	}
	inv, err := s.repo.FindByToken(ctx, token)
	if errors.Is(err, domain.ErrInvitationNotFound) {
		return nil, domain.ErrInvalidToken
	}
	if err != nil {
		return nil, err
	}

	switch inv.Status {
	case domain.StatusAccepted:
		return nil, domain.ErrAlreadyAccepted
	case domain.StatusCancelled:
		return nil, domain.ErrCancelled
	case domain.StatusExpired:
		return nil, domain.ErrExpired
	}

	now := s.clock.Now()
	if inv.IsExpired(now) {
		if _, err := s.repo.Transition(ctx, inv.ID, domain.StatusPending, map[string]any{
			"status":     domain.StatusExpired,
			"updated_at": now,
		}); err != nil {
			return nil, err
		}
		s.metrics.RecordInvitationResolved(ctx, metrics.KindEmail, "expired")
		return nil, domain.ErrExpired
	}
	return inv, nil
}

func (s *Service) Accept(ctx context.Context, token string, userID snowflake.ID) (*domain.AcceptResponse, error) {
	inv, err := s.check(ctx, token)
	if err != nil {
		return nil, err
	}
	team, err := s.teams.FindByID(ctx, inv.TeamID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teams := s.teams.WithTx(tx)
		if _, err := teams.FindMember(ctx, inv.TeamID, userID); err == nil {
			return domain.ErrAlreadyMember
		} else if !errors.Is(err, teamdomain.ErrMemberNotFound) {
			return err
		}

		ok, err := s.repo.WithTx(tx).Transition(ctx, inv.ID, domain.StatusPending, map[string]any{
			"status":      domain.StatusAccepted,
			"accepted_by": userID,
			"accepted_at": now,
			"updated_at":  now,
		})
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrAlreadyAccepted
		}

		err = teams.AddMember(ctx, &teamdomain.Member{
			ID:        s.genID.Generate(),
			TeamID:    inv.TeamID,
			UserID:    userID,
			Role:      inv.Role,
			JoinedAt:  now,
			CreatedAt: now,
		})
		if db.IsDuplicateKeyErr(err) {
			return domain.ErrAlreadyMember
		}
		return err
	})
	if err != nil {
		return nil, err
	}

	s.metrics.RecordInvitationResolved(ctx, metrics.KindEmail, "accepted")
	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &inv.TeamID,
		ActorID:    userID,
		Action:     "email_invitation.accept",
		TargetType: auditdomain.TargetEmailInvitation,
		TargetID:   inv.ID.String(),
		Metadata:   map[string]any{"role": inv.Role},
	})
	return &domain.AcceptResponse{TeamID: team.ID.String(), TeamSlug: team.Slug, Role: inv.Role}, nil
}

func (s *Service) Cancel(ctx context.Context, id, actorID snowflake.ID) error {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.authz.Authorize(ctx, actorID, inv.TeamID, authorization.ActionInvitationSend); err != nil {
		return authorization.Deny(err, domain.ErrCannotManage)
	}
	if inv.Status != domain.StatusPending {
		return domain.ErrNotPending
	}

	ok, err := s.repo.Transition(ctx, inv.ID, domain.StatusPending, map[string]any{
		"status":     domain.StatusCancelled,
		"updated_at": s.clock.Now(),
	})
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotPending
	}

	s.metrics.RecordInvitationResolved(ctx, metrics.KindEmail, "cancelled")
	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &inv.TeamID,
		ActorID:    actorID,
		Action:     "email_invitation.cancel",
		TargetType: auditdomain.TargetEmailInvitation,
		TargetID:   inv.ID.String(),
	})
	return nil
}

func (s *Service) ListForTeam(ctx context.Context, teamID, actorID snowflake.ID) ([]domain.EmailInvitation, error) {
	if _, err := s.teams.FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actorID, teamID, authorization.ActionInvitationSend); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotManage)
	}
	return s.repo.ListByTeam(ctx, teamID)
}

func (s *Service) CleanupExpired(ctx context.Context) (int64, error) {
	start := time.Now()
	count, err := s.repo.ExpirePending(ctx, s.clock.Now())
	if err != nil {
		return 0, err
	}
	s.metrics.RecordInvitationsExpired(ctx, count)
	if count > 0 {
		s.log.Info("expired email invitations",
			zap.Int64("count", count),
			zap.Duration("took", time.Since(start)),
		)
	}
	return count, nil
}

func newToken() (string, error) {
	buf := make([]byte, tokenBytes)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
