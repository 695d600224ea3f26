package service

import (
	"context"

	"github.com/bwmarrin/snowflake"
	applicationdomain "github.com/smallbiznis/talentlink/internal/application/domain"
	"github.com/smallbiznis/talentlink/internal/dashboard/domain"
	invitationdomain "github.com/smallbiznis/talentlink/internal/invitation/domain"
	jobdomain "github.com/smallbiznis/talentlink/internal/job/domain"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	recommendationdomain "github.com/smallbiznis/talentlink/internal/recommendation/domain"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

type Params struct {
	fx.In

	Log             *zap.Logger
	Teams           teamdomain.Service
	TeamRepo        teamdomain.Repository
	Invitations     invitationdomain.Service
	Portfolios      portfoliodomain.Service
	Applications    applicationdomain.Service
	Jobs            jobdomain.Repository
	Recommendations recommendationdomain.Service
}

type Service struct {
	log             *zap.Logger
	teams           teamdomain.Service
	teamRepo        teamdomain.Repository
	invitations     invitationdomain.Service
	portfolios      portfoliodomain.Service
	applications    applicationdomain.Service
	jobs            jobdomain.Repository
	recommendations recommendationdomain.Service
}

func New(p Params) domain.Service {
	return &Service{
		log:             p.Log.Named("dashboard.service"),
		teams:           p.Teams,
		teamRepo:        p.TeamRepo,
		invitations:     p.Invitations,
		portfolios:      p.Portfolios,
		applications:    p.Applications,
		jobs:            p.Jobs,
		recommendations: p.Recommendations,
	}
}

// Get runs the independent reads concurrently; the first failure cancels the rest.
func (s *Service) Get(ctx context.Context, userID snowflake.ID) (*domain.Dashboard, error) {
	var out domain.Dashboard
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		teams, err := s.teams.ListMine(gctx, userID)
		out.Teams = teams
		return err
	})
	g.Go(func() error {
		invitations, err := s.invitations.ListReceived(gctx, userID, invitationdomain.StatusPending)
		out.PendingInvitations = invitations
		return err
	})
	g.Go(func() error {
		invitations, err := s.portfolios.ListMyInvitations(gctx, userID)
		out.ContributorInvitations = invitations
		return err
	})
	g.Go(func() error {
		counts, err := s.applications.CountMine(gctx, userID)
		out.Applications = counts
		return err
	})
	g.Go(func() error {
		jobs, err := s.managedJobs(gctx, userID)
		out.ManagedJobs = jobs
		return err
	})
	g.Go(func() error {
		stats, err := s.recommendations.Stats(gctx, userID)
		if err != nil {
			return err
		}
		requests, err := s.recommendations.ListReceived(gctx, userID, recommendationdomain.TypeRequest, recommendationdomain.StatusPending)
		if err != nil {
			return err
		}
		out.Recommendations = domain.RecommendationSummary{
			Received:        stats.Count,
			PendingRequests: len(requests),
			AverageRating:   stats.AverageRating,
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		s.log.Warn("dashboard read failed", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, err
	}
	return &out, nil
}

// managedJobs lists active postings on teams where the user is OWNER or ADMIN.
func (s *Service) managedJobs(ctx context.Context, userID snowflake.ID) ([]jobdomain.Posting, error) {
	memberships, err := s.teamRepo.ListMembershipsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	var teamIDs []snowflake.ID
	for _, m := range memberships {
		if m.Role == teamdomain.RoleOwner || m.Role == teamdomain.RoleAdmin {
			teamIDs = append(teamIDs, m.ID)
		}
	}
	if len(teamIDs) == 0 {
		return []jobdomain.Posting{}, nil
	}
	jobs, err := s.jobs.List(ctx, jobdomain.ListFilter{Status: jobdomain.StatusActive, TeamIDs: teamIDs}, pagination.Pagination{})
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []jobdomain.Posting{}
	}
	return jobs, nil
}
