package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/portfolio/domain"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	Repo  domain.Repository
	Users userdomain.Repository
	GenID *snowflake.Node
	Clock clock.Clock
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	repo  domain.Repository
	users userdomain.Repository
	genID *snowflake.Node
	clock clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("portfolio.service"),
		repo:  p.Repo,
		users: p.Users,
		genID: p.GenID,
		clock: p.Clock,
	}
}

func (s *Service) Create(ctx context.Context, userID snowflake.ID, req domain.CreatePortfolioRequest) (*domain.PortfolioResponse, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}
	projectURL, err := cleanURL(req.ProjectURL)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	portfolio := domain.Portfolio{
		ID:          s.genID.Generate(),
		UserID:      userID,
		Title:       title,
		Description: strings.TrimSpace(req.Description),
		ProjectURL:  projectURL,
		Tags:        datatypes.JSONSlice[string](cleanTags(req.Tags)),
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		unique, err := uniqueSlug(ctx, repo, userID, title)
		if err != nil {
			return err
		}
		portfolio.Slug = unique
		return repo.Create(ctx, &portfolio)
	})
	if err != nil {
		return nil, err
	}

	return &domain.PortfolioResponse{Portfolio: portfolio, Owner: owner.Summary()}, nil
}

// uniqueSlug appends -2, -3, ... until the slug is free among the user's portfolios.
func uniqueSlug(ctx context.Context, repo domain.Repository, userID snowflake.ID, title string) (string, error) {
	base := slug.Make(title)
	if base == "" {
		base = "portfolio"
	}

	candidate := base
	for n := 2; ; n++ {
		exists, err := repo.SlugExists(ctx, userID, candidate)
		if err != nil {
			return "", err
		}
		if !exists {
			return candidate, nil
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func (s *Service) Get(ctx context.Context, id snowflake.ID) (*domain.PortfolioResponse, error) {
	portfolio, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	owner, err := s.users.FindByID(ctx, portfolio.UserID)
	if err != nil {
		return nil, err
	}
	return &domain.PortfolioResponse{Portfolio: *portfolio, Owner: owner.Summary()}, nil
}

func (s *Service) ListByUser(ctx context.Context, userID snowflake.ID) ([]domain.PortfolioResponse, error) {
	owner, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	portfolios, err := s.repo.ListByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	out := make([]domain.PortfolioResponse, 0, len(portfolios))
	for _, p := range portfolios {
		out = append(out, domain.PortfolioResponse{Portfolio: p, Owner: owner.Summary()})
	}
	return out, nil
}

func (s *Service) Update(ctx context.Context, actorID, id snowflake.ID, req domain.UpdatePortfolioRequest) (*domain.PortfolioResponse, error) {
	portfolio, err := s.owned(ctx, actorID, id)
	if err != nil {
		return nil, err
	}

	fields := map[string]any{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, domain.ErrInvalidTitle
		}
		fields["title"] = title
	}
	if req.Description != nil {
		fields["description"] = strings.TrimSpace(*req.Description)
	}
	if req.ProjectURL != nil {
		projectURL, err := cleanURL(*req.ProjectURL)
		if err != nil {
			return nil, err
		}
		fields["project_url"] = projectURL
	}
	if req.Tags != nil {
		fields["tags"] = datatypes.JSONSlice[string](cleanTags(req.Tags))
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateFields(ctx, portfolio.ID, fields); err != nil {
			return nil, err
		}
	}
	return s.Get(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actorID, id snowflake.ID) error {
	if _, err := s.owned(ctx, actorID, id); err != nil {
		return err
	}
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
}

func (s *Service) Invite(ctx context.Context, actorID, portfolioID snowflake.ID, req domain.InviteContributorRequest) (*domain.ContributorResponse, error) {
	portfolio, err := s.owned(ctx, actorID, portfolioID)
	if err != nil {
		return nil, err
	}
	if req.UserID == actorID {
		return nil, domain.ErrSelfContributor
	}
	invitee, err := s.users.FindByID(ctx, req.UserID)
	if err != nil {
		return nil, err
	}
	exists, err := s.repo.ContributorExists(ctx, portfolioID, req.UserID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyContributor
	}

	now := s.clock.Now()
	contributor := domain.Contributor{
		ID:          s.genID.Generate(),
		PortfolioID: portfolioID,
		UserID:      req.UserID,
		Role:        strings.TrimSpace(req.Role),
		Status:      domain.ContributorPending,
		InvitedBy:   actorID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.AddContributor(ctx, &contributor); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyContributor
		}
		return nil, err
	}

	s.log.Debug("contributor invited",
		zap.String("portfolio_id", portfolioID.String()),
		zap.String("user_id", req.UserID.String()),
	)
	resp := newContributorResponse(contributor, *invitee)
	resp.Portfolio = portfolioSummary(*portfolio)
	return &resp, nil
}

func (s *Service) Respond(ctx context.Context, userID, contributorID snowflake.ID, accept bool) (*domain.ContributorResponse, error) {
	contributor, err := s.repo.FindContributor(ctx, contributorID)
	if err != nil {
		return nil, err
	}
	if contributor.UserID != userID {
		return nil, domain.ErrNotInvitee
	}
	if contributor.Status != domain.ContributorPending {
		return nil, domain.ErrAlreadyResponded
	}

	status := domain.ContributorRejected
	if accept {
		status = domain.ContributorAccepted
	}
	now := s.clock.Now()
	ok, err := s.repo.ResolveContributor(ctx, contributorID, status, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrAlreadyResponded
	}

	contributor.Status = status
	contributor.RespondedAt = &now
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	resp := newContributorResponse(*contributor, *user)
	return &resp, nil
}

// Remove lets the portfolio owner drop a contributor, or a contributor drop themselves.
func (s *Service) Remove(ctx context.Context, actorID, contributorID snowflake.ID) error {
	contributor, err := s.repo.FindContributor(ctx, contributorID)
	if err != nil {
		return err
	}
	if contributor.UserID != actorID {
		if _, err := s.owned(ctx, actorID, contributor.PortfolioID); err != nil {
			return err
		}
	}
	return s.repo.RemoveContributor(ctx, contributorID)
}

// ListContributors returns every contributor to the owner and only accepted ones to everyone else.
func (s *Service) ListContributors(ctx context.Context, portfolioID, viewerID snowflake.ID) ([]domain.ContributorResponse, error) {
	portfolio, err := s.repo.FindByID(ctx, portfolioID)
	if err != nil {
		return nil, err
	}
	filter := domain.ContributorFilter{PortfolioID: &portfolioID, Status: domain.ContributorAccepted}
	if viewerID != 0 && viewerID == portfolio.UserID {
		filter.Status = ""
	}
	contributors, err := s.repo.ListContributors(ctx, filter)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, contributors, nil)
}

func (s *Service) ListMyInvitations(ctx context.Context, userID snowflake.ID) ([]domain.ContributorResponse, error) {
	contributors, err := s.repo.ListContributors(ctx, domain.ContributorFilter{UserID: &userID, Status: domain.ContributorPending})
	if err != nil {
		return nil, err
	}
	ids := make([]snowflake.ID, 0, len(contributors))
	for _, c := range contributors {
		ids = append(ids, c.PortfolioID)
	}
	portfolios, err := s.repo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.render(ctx, contributors, portfolios)
}

func (s *Service) render(ctx context.Context, contributors []domain.Contributor, portfolios map[snowflake.ID]domain.Portfolio) ([]domain.ContributorResponse, error) {
	ids := make([]snowflake.ID, 0, len(contributors))
	for _, c := range contributors {
		ids = append(ids, c.UserID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ContributorResponse, 0, len(contributors))
	for _, c := range contributors {
		resp := newContributorResponse(c, users[c.UserID])
		if p, ok := portfolios[c.PortfolioID]; ok {
			resp.Portfolio = portfolioSummary(p)
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) owned(ctx context.Context, actorID, id snowflake.ID) (*domain.Portfolio, error) {
	portfolio, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if portfolio.UserID != actorID {
		return nil, domain.ErrNotOwner
	}
	return portfolio, nil
}

func cleanURL(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", nil
	}
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Host == "" || (parsed.Scheme != "http" && parsed.Scheme != "https") {
		return "", domain.ErrInvalidProjectURL
	}
	return parsed.String(), nil
}

func cleanTags(tags []string) []string {
	out := make([]string, 0, len(tags))
	seen := make(map[string]struct{}, len(tags))
	for _, tag := range tags {
		tag = strings.ToLower(strings.TrimSpace(tag))
		if tag == "" {
			continue
		}
		if _, dup := seen[tag]; dup {
			continue
		}
		seen[tag] = struct{}{}
		out = append(out, tag)
	}
	return out
}

func newContributorResponse(c domain.Contributor, user userdomain.User) domain.ContributorResponse {
	return domain.ContributorResponse{
		ID:          c.ID.String(),
		PortfolioID: c.PortfolioID.String(),
		UserID:      c.UserID.String(),
		Role:        c.Role,
		Status:      c.Status,
		InvitedBy:   c.InvitedBy.String(),
		RespondedAt: c.RespondedAt,
		CreatedAt:   c.CreatedAt,
		User:        user.Summary(),
	}
}

func portfolioSummary(p domain.Portfolio) *domain.PortfolioSummary {
	return &domain.PortfolioSummary{
		ID:    p.ID.String(),
		Title: p.Title,
		Slug:  p.Slug,
	}
}
