package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/audit/domain"
	"github.com/smallbiznis/talentlink/internal/audit/masking"
	"github.com/smallbiznis/talentlink/internal/authorization"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	obscontext "github.com/smallbiznis/talentlink/internal/observability/context"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type Params struct {
	fx.In

	Log    *zap.Logger
	Repo   domain.Repository
	Authz  authorization.MembershipAuthorizer
	GenID  *snowflake.Node
	Clock  clock.Clock
	Policy *config.PolicyHolder
}

type Service struct {
	log    *zap.Logger
	repo   domain.Repository
	authz  authorization.MembershipAuthorizer
	genID  *snowflake.Node
	clock  clock.Clock
	policy *config.PolicyHolder
}

func New(p Params) domain.Service {
	return &Service{
		log:    p.Log.Named("audit.service"),
		repo:   p.Repo,
		authz:  p.Authz,
		genID:  p.GenID,
		clock:  p.Clock,
		policy: p.Policy,
	}
}

func (s *Service) Record(ctx context.Context, entry domain.Entry) {
	action := strings.TrimSpace(entry.Action)
	if action == "" {
		s.log.Warn("audit entry without action dropped")
		return
	}

	targetType := strings.TrimSpace(entry.TargetType)
	if targetType == "" {
		targetType = "unknown"
	}

	log := domain.Log{
		ID:         s.genID.Generate(),
		TeamID:     entry.TeamID,
		Action:     action,
		TargetType: targetType,
		RequestID:  obscontext.RequestIDFromContext(ctx),
		CreatedAt:  s.clock.Now().UTC(),
	}
	if entry.ActorID != 0 {
		actorID := entry.ActorID
		log.ActorID = &actorID
	}
	if targetID := strings.TrimSpace(entry.TargetID); targetID != "" {
		log.TargetID = &targetID
	}
	if metadata := masking.MaskMetadata(entry.Metadata); metadata != nil {
		log.Metadata = datatypes.JSONMap(metadata)
	}

	if err := s.repo.Insert(ctx, &log); err != nil {
		s.log.Warn("failed to write audit log",
			zap.String("action", action),
			zap.String("request_id", log.RequestID),
			zap.Error(err),
		)
	}
}

func (s *Service) List(ctx context.Context, teamID, actorID snowflake.ID, req domain.ListRequest) (*domain.ListResponse, error) {
	if err := s.authz.Authorize(ctx, actorID, teamID, authorization.ActionAuditLogView); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotViewAuditLogs)
	}

	page := req.Pagination
	page.PageSize = s.policy.Get().PageSize(page.PageSize)

	logs, err := s.repo.List(ctx, domain.ListFilter{TeamID: teamID, Action: req.Action}, page)
	if err != nil {
		return nil, err
	}

	logs, pageInfo := pagination.BuildPageInfo(logs, page)
	if logs == nil {
		logs = []domain.Log{}
	}
	return &domain.ListResponse{AuditLogs: logs, PageInfo: pageInfo}, nil
}
