package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/clock"
	collabdomain "github.com/smallbiznis/talentlink/internal/collaboration/domain"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	"github.com/smallbiznis/talentlink/internal/recommendation/domain"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB            *gorm.DB
	Log           *zap.Logger
	Repo          domain.Repository
	Users         userdomain.Repository
	Portfolios    portfoliodomain.Repository
	Teams         teamdomain.Repository
	Collaboration collabdomain.Service
	GenID         *snowflake.Node
	Clock         clock.Clock
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	repo       domain.Repository
	users      userdomain.Repository
	portfolios portfoliodomain.Repository
	teams      teamdomain.Repository
	collab     collabdomain.Service
	genID      *snowflake.Node
	clock      clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("recommendation.service"),
		repo:       p.Repo,
		users:      p.Users,
		portfolios: p.Portfolios,
		teams:      p.Teams,
		collab:     p.Collaboration,
		genID:      p.GenID,
		clock:      p.Clock,
	}
}

func (s *Service) Request(ctx context.Context, senderID snowflake.ID, req domain.RequestRecommendation) (*domain.RecommendationResponse, error) {
	if req.ReceiverID == senderID {
		return nil, domain.ErrSelfRecommendation
	}
	if _, err := s.users.FindByID(ctx, req.ReceiverID); err != nil {
		return nil, err
	}
	if err := s.checkTeam(ctx, req.TeamID); err != nil {
		return nil, err
	}
	if err := s.requireCollaboration(ctx, senderID, req.ReceiverID); err != nil {
		return nil, err
	}
	pending, err := s.repo.HasPendingRequest(ctx, senderID, req.ReceiverID)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, domain.ErrAlreadyRequested
	}

	now := s.clock.Now()
	rec := domain.Recommendation{
		ID:          s.genID.Generate(),
		SenderID:    senderID,
		ReceiverID:  req.ReceiverID,
		Type:        domain.TypeRequest,
		Status:      domain.StatusPending,
		Message:     strings.TrimSpace(req.Message),
		ProjectName: strings.TrimSpace(req.ProjectName),
		TeamID:      req.TeamID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &rec); err != nil {
		return nil, err
	}
	return s.respond(ctx, rec)
}

// Give records a written recommendation or a like. Portfolio-scoped
// recommendations skip the collaboration check.
func (s *Service) Give(ctx context.Context, senderID snowflake.ID, req domain.GiveRecommendation) (*domain.RecommendationResponse, error) {
	if req.ReceiverID == senderID {
		return nil, domain.ErrSelfRecommendation
	}
	message := strings.TrimSpace(req.Message)
	if message == "" {
		return nil, domain.ErrInvalidMessage
	}
	if req.Rating != nil && (*req.Rating < 1 || *req.Rating > 5) {
		return nil, domain.ErrInvalidRating
	}
	if _, err := s.users.FindByID(ctx, req.ReceiverID); err != nil {
		return nil, err
	}
	if err := s.checkTeam(ctx, req.TeamID); err != nil {
		return nil, err
	}

	if req.PortfolioID != nil {
		portfolio, err := s.portfolios.FindByID(ctx, *req.PortfolioID)
		if err != nil {
			return nil, err
		}
		if portfolio.UserID != req.ReceiverID {
			return nil, domain.ErrPortfolioMismatch
		}
	} else if err := s.requireCollaboration(ctx, senderID, req.ReceiverID); err != nil {
		return nil, err
	}

	if message != domain.LikeMessage {
		count, err := s.repo.CountSubstantive(ctx, senderID, req.ReceiverID)
		if err != nil {
			return nil, err
		}
		if count > 0 {
			return nil, domain.ErrAlreadyRecommended
		}
	}

	now := s.clock.Now()
	rec := domain.Recommendation{
		ID:          s.genID.Generate(),
		SenderID:    senderID,
		ReceiverID:  req.ReceiverID,
		Type:        domain.TypeGiven,
		Status:      domain.StatusPending,
		Message:     message,
		Rating:      req.Rating,
		PortfolioID: req.PortfolioID,
		ProjectName: strings.TrimSpace(req.ProjectName),
		TeamID:      req.TeamID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Create(ctx, &rec); err != nil {
			return err
		}
		if rec.IsLike() {
			return nil
		}
		fulfilled, err := repo.FulfillRequests(ctx, req.ReceiverID, senderID, now)
		if err != nil {
			return err
		}
		if fulfilled > 0 {
			s.log.Debug("recommendation requests fulfilled",
				zap.String("writer_id", senderID.String()),
				zap.Int64("count", fulfilled),
			)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return s.respond(ctx, rec)
}

func (s *Service) Respond(ctx context.Context, userID, id snowflake.ID, accept bool) (*domain.RecommendationResponse, error) {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if rec.ReceiverID != userID {
		return nil, domain.ErrNotReceiver
	}
	if rec.Status != domain.StatusPending {
		return nil, domain.ErrAlreadyResponded
	}

	status := domain.StatusRejected
	if accept {
		status = domain.StatusAccepted
	}
	now := s.clock.Now()
	ok, err := s.repo.Resolve(ctx, id, status, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAlreadyResponded
	}
	rec.Status = status
	rec.RespondedAt = &now
	rec.UpdatedAt = now
	return s.respond(ctx, *rec)
}

func (s *Service) ListReceived(ctx context.Context, userID snowflake.ID, recType, status string) ([]domain.RecommendationResponse, error) {
	filter := domain.ListFilter{ReceiverID: &userID}
	var err error
	if filter.Type, err = normalizeType(recType); err != nil {
		return nil, err
	}
	if filter.Status, err = normalizeStatus(status); err != nil {
		return nil, err
	}
	return s.list(ctx, filter)
}

func (s *Service) ListGiven(ctx context.Context, userID snowflake.ID, recType string) ([]domain.RecommendationResponse, error) {
	filter := domain.ListFilter{SenderID: &userID}
	var err error
	if filter.Type, err = normalizeType(recType); err != nil {
		return nil, err
	}
	return s.list(ctx, filter)
}

// ListForPortfolio shows accepted recommendations publicly and every one to the portfolio owner.
func (s *Service) ListForPortfolio(ctx context.Context, portfolioID, viewerID snowflake.ID) ([]domain.RecommendationResponse, error) {
	portfolio, err := s.portfolios.FindByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	filter := domain.ListFilter{PortfolioID: &portfolioID, Type: domain.TypeGiven, Status: domain.StatusAccepted}
	if viewerID != 0 && viewerID == portfolio.UserID {
		filter.Status = ""
	}
	return s.list(ctx, filter)
}

func (s *Service) Delete(ctx context.Context, senderID, id snowflake.ID) error {
	rec, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if rec.SenderID != senderID {
		return domain.ErrNotSender
	}
	return s.repo.Delete(ctx, id)
}

func (s *Service) Stats(ctx context.Context, userID snowflake.ID) (domain.RatingStats, error) {
	return s.repo.ReceivedStats(ctx, userID)
}

func (s *Service) requireCollaboration(ctx context.Context, a, b snowflake.ID) error {
	ok, err := s.collab.HaveCollaborated(ctx, a, b)
	if err != nil {
		return err
	}
	if !ok {
		return domain.ErrNotCollaborator
	}
	return nil
}

func (s *Service) checkTeam(ctx context.Context, teamID *snowflake.ID) error {
	if teamID == nil {
		return nil
	}
	_, err := s.teams.FindByID(ctx, *teamID)
	return err
}

func (s *Service) list(ctx context.Context, filter domain.ListFilter) ([]domain.RecommendationResponse, error) {
	recs, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, err
	}
	ids := make([]snowflake.ID, 0, len(recs)*2)
	for _, rec := range recs {
		ids = append(ids, rec.SenderID, rec.ReceiverID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.RecommendationResponse, 0, len(recs))
	for _, rec := range recs {
		out = append(out, newResponse(rec, users[rec.SenderID], users[rec.ReceiverID]))
	}
	return out, nil
}

func (s *Service) respond(ctx context.Context, rec domain.Recommendation) (*domain.RecommendationResponse, error) {
	users, err := s.users.FindByIDs(ctx, []snowflake.ID{rec.SenderID, rec.ReceiverID})
	if err != nil {
		return nil, err
	}
	resp := newResponse(rec, users[rec.SenderID], users[rec.ReceiverID])
	return &resp, nil
}

func normalizeType(raw string) (string, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value != "" && !domain.ValidType(value) {
		return "", domain.ErrInvalidType
	}
	return value, nil
}

func normalizeStatus(raw string) (string, error) {
	value := strings.ToUpper(strings.TrimSpace(raw))
	if value != "" && !domain.ValidStatus(value) {
		return "", domain.ErrInvalidStatus
	}
	return value, nil
}

func newResponse(rec domain.Recommendation, sender, receiver userdomain.User) domain.RecommendationResponse {
	resp := domain.RecommendationResponse{
		ID:          rec.ID.String(),
		Type:        rec.Type,
		Status:      rec.Status,
		Message:     rec.Message,
		Rating:      rec.Rating,
		IsLike:      rec.IsLike(),
		ProjectName: rec.ProjectName,
		RespondedAt: rec.RespondedAt,
		CreatedAt:   rec.CreatedAt,
		Sender:      sender.Summary(),
		Receiver:    receiver.Summary(),
	}
	if rec.PortfolioID != nil {
		id := rec.PortfolioID.String()
		resp.PortfolioID = &id
	}
	if rec.TeamID != nil {
		id := rec.TeamID.String()
		resp.TeamID = &id
	}
	return resp
}
