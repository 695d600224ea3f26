package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/smallbiznis/talentlink/internal/application"
	applicationdomain "github.com/smallbiznis/talentlink/internal/application/domain"
	"github.com/smallbiznis/talentlink/internal/audit"
	auditdomain "github.com/smallbiznis/talentlink/internal/audit/domain"
	"github.com/smallbiznis/talentlink/internal/auth"
	authdomain "github.com/smallbiznis/talentlink/internal/auth/domain"
	"github.com/smallbiznis/talentlink/internal/authorization"
	"github.com/smallbiznis/talentlink/internal/collaboration"
	collabdomain "github.com/smallbiznis/talentlink/internal/collaboration/domain"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/dashboard"
	dashboarddomain "github.com/smallbiznis/talentlink/internal/dashboard/domain"
	"github.com/smallbiznis/talentlink/internal/emailinvitation"
	emaildomain "github.com/smallbiznis/talentlink/internal/emailinvitation/domain"
	"github.com/smallbiznis/talentlink/internal/invitation"
	invitationdomain "github.com/smallbiznis/talentlink/internal/invitation/domain"
	"github.com/smallbiznis/talentlink/internal/job"
	jobdomain "github.com/smallbiznis/talentlink/internal/job/domain"
	"github.com/smallbiznis/talentlink/internal/observability"
	obsmiddleware "github.com/smallbiznis/talentlink/internal/observability/logger"
	obsmetrics "github.com/smallbiznis/talentlink/internal/observability/metrics"
	obstracing "github.com/smallbiznis/talentlink/internal/observability/tracing"
	"github.com/smallbiznis/talentlink/internal/portfolio"
	portfoliodomain "github.com/smallbiznis/talentlink/internal/portfolio/domain"
	"github.com/smallbiznis/talentlink/internal/providers"
	"github.com/smallbiznis/talentlink/internal/ratelimit"
	"github.com/smallbiznis/talentlink/internal/recommendation"
	recommendationdomain "github.com/smallbiznis/talentlink/internal/recommendation/domain"
	"github.com/smallbiznis/talentlink/internal/team"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	"github.com/smallbiznis/talentlink/internal/user"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var Module = fx.Module("http.server",
	fx.Provide(registerGin),
	authorization.Module,
	audit.Module,
	auth.Module,
	user.Module,
	team.Module,
	invitation.Module,
	providers.Module,
	emailinvitation.Module,
	job.Module,
	application.Module,
	portfolio.Module,
	collaboration.Module,
	recommendation.Module,
	dashboard.Module,
	ratelimit.Module,
	fx.Provide(NewServer),
	fx.Invoke(run),
)

func NewEngine(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(obsmiddleware.GinMiddleware(obsmiddleware.MiddlewareConfig{
		Debug:           obsCfg.Debug(),
		ErrorClassifier: classifyErrorForLog,
	}))
	r.Use(obstracing.HTTPServer(obstracing.WithSkippedRoutes("/health")))
	r.Use(obsmetrics.GinMiddleware(httpMetrics))
	r.Use(ErrorHandlingMiddleware())

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	return r
}

func registerGin(obsCfg observability.Config, httpMetrics *obsmetrics.HTTPMetrics) *gin.Engine {
	if !obsCfg.Debug() {
		gin.SetMode(gin.ReleaseMode)
	}
	return NewEngine(obsCfg, httpMetrics)
}

func run(lc fx.Lifecycle, cfg config.Config, s *Server, log *zap.Logger) {
	srv := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           s.Engine(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	lc.Append(fx.Hook{
		OnStart: func(ctx context.Context) error {
			go func() {
				log.Info("http server listening", zap.String("addr", srv.Addr))
				if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
					log.Fatal("http server stopped", zap.Error(err))
				}
			}()
			return nil
		},
		OnStop: func(ctx context.Context) error {
			shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
			defer cancel()
			return srv.Shutdown(shutdownCtx)
		},
	})
}

type Server struct {
	engine            *gin.Engine
	cfg               config.Config
	authsvc           authdomain.Service
	userSvc           userdomain.Service
	teamSvc           teamdomain.Service
	invitationSvc     invitationdomain.Service
	emailInviteSvc    emaildomain.Service
	jobSvc            jobdomain.Service
	applicationSvc    applicationdomain.Service
	portfolioSvc      portfoliodomain.Service
	collaborationSvc  collabdomain.Service
	recommendationSvc recommendationdomain.Service
	dashboardSvc      dashboarddomain.Service
	auditSvc          auditdomain.Service
	limiter           *ratelimit.Limiter
}

type ServerParams struct {
	fx.In

	Gin               *gin.Engine
	Cfg               config.Config
	Authsvc           authdomain.Service
	UserSvc           userdomain.Service
	TeamSvc           teamdomain.Service
	InvitationSvc     invitationdomain.Service
	EmailInviteSvc    emaildomain.Service
	JobSvc            jobdomain.Service
	ApplicationSvc    applicationdomain.Service
	PortfolioSvc      portfoliodomain.Service
	CollaborationSvc  collabdomain.Service
	RecommendationSvc recommendationdomain.Service
	DashboardSvc      dashboarddomain.Service
	AuditSvc          auditdomain.Service
	Limiter           *ratelimit.Limiter `optional:"true"`
}

func NewServer(p ServerParams) *Server {
	svc := &Server{
		engine:            p.Gin,
		cfg:               p.Cfg,
		authsvc:           p.Authsvc,
		userSvc:           p.UserSvc,
		teamSvc:           p.TeamSvc,
		invitationSvc:     p.InvitationSvc,
		emailInviteSvc:    p.EmailInviteSvc,
		jobSvc:            p.JobSvc,
		applicationSvc:    p.ApplicationSvc,
		portfolioSvc:      p.PortfolioSvc,
		collaborationSvc:  p.CollaborationSvc,
		recommendationSvc: p.RecommendationSvc,
		dashboardSvc:      p.DashboardSvc,
		auditSvc:          p.AuditSvc,
		limiter:           p.Limiter,
	}

	svc.registerAPIRoutes()
	svc.registerFallback()

	return svc
}

func (s *Server) Engine() *gin.Engine {
	return s.engine
}

func (s *Server) registerAPIRoutes() {
	api := s.engine.Group("/api")
	authed := s.AuthRequired()

	// -------- Auth --------
	api.POST("/auth/register", s.Register)
	api.POST("/auth/login", s.Login)

	// -------- Users --------
	api.GET("/users/me", authed, s.GetMe)
	api.PUT("/users/me", authed, s.UpdateMe)
	api.PUT("/users/me/skills", authed, s.SetMySkills)
	api.GET("/users", s.SearchUsers)
	api.GET("/users/:identifier", s.GetUser)
	api.GET("/users/:identifier/collaborators", s.ListCollaborators)
	api.GET("/users/:identifier/portfolios", s.ListUserPortfolios)
	api.GET("/dashboard", authed, s.GetDashboard)

	// -------- Teams --------
	teams := api.Group("/teams")
	{
		teams.POST("", authed, s.CreateTeam)
		teams.GET("", s.SearchTeams)
		teams.GET("/mine", authed, s.ListMyTeams)
		teams.GET("/:teamId", s.GetTeam)
		teams.PUT("/:teamId", authed, s.UpdateTeam)
		teams.DELETE("/:teamId", authed, s.DeleteTeam)
		teams.GET("/:teamId/sub-teams", s.ListSubTeams)
		teams.GET("/:teamId/members", s.ListTeamMembers)
		teams.POST("/:teamId/members", authed, s.AddTeamMember)
		teams.DELETE("/:teamId/members/:userId", authed, s.RemoveTeamMember)
		teams.PUT("/:teamId/members/:userId/role", authed, s.UpdateTeamMemberRole)
		teams.POST("/:teamId/leave", authed, s.LeaveTeam)
		teams.GET("/:teamId/invitations", authed, s.ListTeamInvitations)
		teams.GET("/:teamId/jobs", s.OptionalAuth(), s.ListTeamJobs)
		teams.GET("/:teamId/audit-logs", authed, s.ListAuditLogs)
	}

	// -------- Invitations --------
	invitations := api.Group("/invitations", authed)
	{
		invitations.POST("", s.SendInvitation)
		invitations.GET("/received", s.ListReceivedInvitations)
		invitations.GET("/sent", s.ListSentInvitations)
		invitations.PUT("/:id/accept", s.AcceptInvitation)
		invitations.PUT("/:id/decline", s.DeclineInvitation)
		invitations.DELETE("/:id", s.CancelInvitation)
	}

	// -------- Email invitations --------
	emailInvites := api.Group("/email-invitations")
	{
		emailInvites.POST("/teams/:teamId", authed, s.RateLimit(emailInvitePolicy, userSubject), s.SendEmailInvitation)
		emailInvites.GET("/teams/:teamId", authed, s.ListEmailInvitations)
		emailInvites.DELETE("/:id", authed, s.CancelEmailInvitation)
		emailInvites.GET("/validate/:token", s.RateLimit(tokenValidatePolicy, clientIPSubject), s.ValidateEmailInvitation)
		emailInvites.POST("/accept/:token", authed, s.AcceptEmailInvitation)
	}

	// -------- Jobs & applications --------
	jobs := api.Group("/jobs")
	{
		jobs.POST("", authed, s.CreateJob)
		jobs.GET("", s.OptionalAuth(), s.ListJobs)
		jobs.GET("/:id", s.OptionalAuth(), s.GetJob)
		jobs.PUT("/:id", authed, s.UpdateJob)
		jobs.DELETE("/:id", authed, s.DeleteJob)
		jobs.POST("/:id/close", authed, s.CloseJob)
		jobs.POST("/:id/applications", authed, s.ApplyToJob)
		jobs.GET("/:id/applications", authed, s.ListJobApplications)
	}
	applications := api.Group("/applications", authed)
	{
		applications.GET("/mine", s.ListMyApplications)
		applications.PUT("/:id/status", s.UpdateApplicationStatus)
		applications.DELETE("/:id", s.WithdrawApplication)
	}

	// -------- Portfolios & contributors --------
	portfolios := api.Group("/portfolios")
	{
		portfolios.POST("", authed, s.CreatePortfolio)
		portfolios.GET("/:id", s.GetPortfolio)
		portfolios.PUT("/:id", authed, s.UpdatePortfolio)
		portfolios.DELETE("/:id", authed, s.DeletePortfolio)
		portfolios.GET("/:id/contributors", s.OptionalAuth(), s.ListContributors)
		portfolios.POST("/:id/contributors", authed, s.InviteContributor)
		portfolios.GET("/:id/suggested-contributors", authed, s.SuggestContributors)
		portfolios.GET("/:id/recommendations", s.OptionalAuth(), s.ListPortfolioRecommendations)
	}
	contributors := api.Group("/contributors", authed)
	{
		contributors.GET("/invitations", s.ListContributorInvitations)
		contributors.PUT("/:id/respond", s.RespondContributor)
		contributors.DELETE("/:id", s.RemoveContributor)
	}

	// -------- Recommendations --------
	recommendations := api.Group("/recommendations", authed)
	{
		recommendations.POST("", s.GiveRecommendation)
		recommendations.POST("/requests", s.RequestRecommendation)
		recommendations.GET("/received", s.ListReceivedRecommendations)
		recommendations.GET("/given", s.ListGivenRecommendations)
		recommendations.PUT("/:id/respond", s.RespondRecommendation)
		recommendations.DELETE("/:id", s.DeleteRecommendation)
	}
}

func (s *Server) registerFallback() {
	s.engine.NoRoute(func(c *gin.Context) {
		AbortWithError(c, ErrNotFound)
	})
}
