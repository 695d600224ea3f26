package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/talentlink/internal/audit/domain"
	"github.com/smallbiznis/talentlink/internal/authorization"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/invitation/domain"
	"github.com/smallbiznis/talentlink/internal/observability/metrics"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB      *gorm.DB
	Log     *zap.Logger
	Repo    domain.Repository
	Teams   teamdomain.Repository
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
	teams   teamdomain.Repository
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
		log:     p.Log.Named("invitation.service"),
		repo:    p.Repo,
		teams:   p.Teams,
		users:   p.Users,
		authz:   p.Authz,
		audit:   p.Audit,
		genID:   p.GenID,
		clock:   p.Clock,
		policy:  p.Policy,
		metrics: p.Metrics,
	}
}

func (s *Service) Send(ctx context.Context, senderID snowflake.ID, req domain.SendRequest) (*domain.InvitationResponse, error) {
	if _, err := s.teams.FindByID(ctx, req.TeamID); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, senderID, req.TeamID, authorization.ActionInvitationSend); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotInvite)
	}
	if req.ReceiverID == senderID {
		return nil, domain.ErrCannotInviteSelf
	}

	role := teamdomain.RoleMember
	if strings.TrimSpace(req.Role) != "" {
		normalized, ok := teamdomain.NormalizeRole(req.Role)
		if !ok || normalized == teamdomain.RoleOwner {
			return nil, teamdomain.ErrInvalidRole
		}
		role = normalized
	}

	if _, err := s.users.FindByID(ctx, req.ReceiverID); err != nil {
		return nil, err
	}

	if _, err := s.teams.FindMember(ctx, req.TeamID, req.ReceiverID); err == nil {
		return nil, domain.ErrAlreadyMember
	} else if !errors.Is(err, teamdomain.ErrMemberNotFound) {
		return nil, err
	}

	now := s.clock.Now()
	if _, err := s.repo.FindPending(ctx, req.TeamID, req.ReceiverID, now); err == nil {
		return nil, domain.ErrAlreadyInvited
	} else if !errors.Is(err, domain.ErrInvitationNotFound) {
		return nil, err
	}

	inv := domain.Invitation{
		ID:         s.genID.Generate(),
		TeamID:     req.TeamID,
		SenderID:   senderID,
		ReceiverID: req.ReceiverID,
		Role:       role,
		Message:    strings.TrimSpace(req.Message),
		Status:     domain.StatusPending,
		ExpiresAt:  now.Add(s.policy.Get().InvitationTTL),
		CreatedAt:  now,
		UpdatedAt:  now,
	}
	if err := s.repo.Create(ctx, &inv); err != nil {
		return nil, err
	}

	s.metrics.RecordInvitationSent(ctx, metrics.KindInApp)
	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &inv.TeamID,
		ActorID:    senderID,
		Action:     "invitation.send",
		TargetType: auditdomain.TargetInvitation,
		TargetID:   inv.ID.String(),
		Metadata:   map[string]any{"receiver_id": inv.ReceiverID.String(), "role": role},
	})

	return s.render(ctx, inv)
}

// Accept turns a pending invitation into a membership. Status change and member insert share one transaction.
func (s *Service) Accept(ctx context.Context, id, userID snowflake.ID) (*domain.InvitationResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.ReceiverID != userID {
		return nil, domain.ErrNotReceiver
	}
	if inv.Status != domain.StatusPending {
		return nil, domain.ErrInvitationResolved
	}

	now := s.clock.Now()
	if inv.IsExpired(now) {
		s.metrics.RecordInvitationResolved(ctx, metrics.KindInApp, "expired")
		return nil, domain.ErrInvitationExpired
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		teams := s.teams.WithTx(tx)
		if _, err := teams.FindMember(ctx, inv.TeamID, userID); err == nil {
			return domain.ErrAlreadyMember
		} else if !errors.Is(err, teamdomain.ErrMemberNotFound) {
			return err
		}

		ok, err := s.repo.WithTx(tx).Resolve(ctx, inv.ID, domain.StatusAccepted, now)
		if err != nil {
			return err
		}
		if !ok {
			return domain.ErrInvitationResolved
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

	inv.Status = domain.StatusAccepted
	inv.RespondedAt = &now
	s.metrics.RecordInvitationResolved(ctx, metrics.KindInApp, "accepted")
	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &inv.TeamID,
		ActorID:    userID,
		Action:     "invitation.accept",
		TargetType: auditdomain.TargetInvitation,
		TargetID:   inv.ID.String(),
		Metadata:   map[string]any{"role": inv.Role},
	})
	s.log.Info("invitation accepted",
		zap.String("invitation_id", inv.ID.String()),
		zap.String("team_id", inv.TeamID.String()),
	)

	return s.render(ctx, *inv)
}

func (s *Service) Decline(ctx context.Context, id, userID snowflake.ID) (*domain.InvitationResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.ReceiverID != userID {
		return nil, domain.ErrNotReceiver
	}
	return s.resolve(ctx, inv, userID, domain.StatusDeclined)
}

func (s *Service) Cancel(ctx context.Context, id, userID snowflake.ID) (*domain.InvitationResponse, error) {
	inv, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if inv.SenderID != userID {
		return nil, domain.ErrNotSender
	}
	return s.resolve(ctx, inv, userID, domain.StatusCancelled)
}

func (s *Service) resolve(ctx context.Context, inv *domain.Invitation, actorID snowflake.ID, status string) (*domain.InvitationResponse, error) {
	if inv.Status != domain.StatusPending {
		return nil, domain.ErrInvitationResolved
	}

	now := s.clock.Now()
	ok, err := s.repo.Resolve(ctx, inv.ID, status, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvitationResolved
	}

	inv.Status = status
	inv.RespondedAt = &now
	outcome := strings.ToLower(status)
	s.metrics.RecordInvitationResolved(ctx, metrics.KindInApp, outcome)
	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &inv.TeamID,
		ActorID:    actorID,
		Action:     "invitation." + outcome,
		TargetType: auditdomain.TargetInvitation,
		TargetID:   inv.ID.String(),
	})
	return s.render(ctx, *inv)
}

func (s *Service) ListReceived(ctx context.Context, userID snowflake.ID, status string) ([]domain.InvitationResponse, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if status != "" && !validStatus(status) {
		return nil, domain.ErrInvalidStatus
	}
	invitations, err := s.repo.List(ctx, domain.ListFilter{ReceiverID: &userID, Status: status})
	if err != nil {
		return nil, err
	}
	return s.renderAll(ctx, invitations)
}

func (s *Service) ListSent(ctx context.Context, userID snowflake.ID) ([]domain.InvitationResponse, error) {
	invitations, err := s.repo.List(ctx, domain.ListFilter{SenderID: &userID})
	if err != nil {
		return nil, err
	}
	return s.renderAll(ctx, invitations)
}

func (s *Service) ListForTeam(ctx context.Context, teamID, actorID snowflake.ID) ([]domain.InvitationResponse, error) {
	if _, err := s.teams.FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actorID, teamID, authorization.ActionTeamView); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotViewInvitation)
	}
	invitations, err := s.repo.List(ctx, domain.ListFilter{TeamID: &teamID})
	if err != nil {
		return nil, err
	}
	return s.renderAll(ctx, invitations)
}

func (s *Service) render(ctx context.Context, inv domain.Invitation) (*domain.InvitationResponse, error) {
	out, err := s.renderAll(ctx, []domain.Invitation{inv})
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

func (s *Service) renderAll(ctx context.Context, invitations []domain.Invitation) ([]domain.InvitationResponse, error) {
	teamIDs := make([]snowflake.ID, 0, len(invitations))
	userIDs := make([]snowflake.ID, 0, len(invitations)*2)
	for _, inv := range invitations {
		teamIDs = append(teamIDs, inv.TeamID)
		userIDs = append(userIDs, inv.SenderID, inv.ReceiverID)
	}

	teams, err := s.teams.FindByIDs(ctx, teamIDs)
	if err != nil {
		return nil, err
	}
	users, err := s.users.FindByIDs(ctx, userIDs)
	if err != nil {
		return nil, err
	}

	out := make([]domain.InvitationResponse, 0, len(invitations))
	for _, inv := range invitations {
		team := teams[inv.TeamID]
		out = append(out, domain.InvitationResponse{
			ID:          inv.ID.String(),
			Team:        domain.TeamSummary{ID: inv.TeamID.String(), Name: team.Name, Slug: team.Slug},
			Sender:      users[inv.SenderID].Summary(),
			Receiver:    users[inv.ReceiverID].Summary(),
			Role:        inv.Role,
			Message:     inv.Message,
			Status:      inv.Status,
			ExpiresAt:   inv.ExpiresAt,
			RespondedAt: inv.RespondedAt,
			CreatedAt:   inv.CreatedAt,
		})
	}
	return out, nil
}

func validStatus(status string) bool {
	switch status {
	case domain.StatusPending, domain.StatusAccepted, domain.StatusDeclined, domain.StatusCancelled:
		return true
	default:
		return false
	}
}
