package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/application/domain"
	auditdomain "github.com/smallbiznis/talentlink/internal/audit/domain"
	"github.com/smallbiznis/talentlink/internal/authorization"
	"github.com/smallbiznis/talentlink/internal/clock"
	jobdomain "github.com/smallbiznis/talentlink/internal/job/domain"
	"github.com/smallbiznis/talentlink/internal/observability/metrics"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Params struct {
	fx.In

	Log     *zap.Logger
	Repo    domain.Repository
	Jobs    jobdomain.Repository
	Users   userdomain.Repository
	Authz   authorization.MembershipAuthorizer
	Audit   auditdomain.Service
	GenID   *snowflake.Node
	Clock   clock.Clock
	Metrics *metrics.Metrics `optional:"true"`
}

type Service struct {
	log     *zap.Logger
	repo    domain.Repository
	jobs    jobdomain.Repository
	users   userdomain.Repository
	authz   authorization.MembershipAuthorizer
	audit   auditdomain.Service
	genID   *snowflake.Node
	clock   clock.Clock
	metrics *metrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		log:     p.Log.Named("application.service"),
		repo:    p.Repo,
		jobs:    p.Jobs,
		users:   p.Users,
		authz:   p.Authz,
		audit:   p.Audit,
		genID:   p.GenID,
		clock:   p.Clock,
		metrics: p.Metrics,
	}
}

func (s *Service) Apply(ctx context.Context, userID, jobID snowflake.ID, req domain.ApplyRequest) (*domain.ApplicationResponse, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if job.Status != jobdomain.StatusActive {
		return nil, domain.ErrJobNotActive
	}
	if job.CreatedBy == userID {
		return nil, domain.ErrOwnJob
	}

	exists, err := s.repo.Exists(ctx, userID, jobID)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, domain.ErrAlreadyApplied
	}

	now := s.clock.Now()
	app := domain.Application{
		ID:          s.genID.Generate(),
		JobID:       jobID,
		UserID:      userID,
		CoverLetter: strings.TrimSpace(req.CoverLetter),
		Status:      domain.StatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.repo.Create(ctx, &app); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrAlreadyApplied
		}
		return nil, err
	}

	s.metrics.RecordApplicationSubmitted(ctx)
	s.log.Debug("application submitted",
		zap.String("application_id", app.ID.String()),
		zap.String("job_id", jobID.String()),
	)

	resp := newResponse(app)
	resp.Job = jobSummary(*job)
	return &resp, nil
}

func (s *Service) ListMine(ctx context.Context, userID snowflake.ID, status string) ([]domain.ApplicationResponse, error) {
	status, err := normalizeStatus(status)
	if err != nil {
		return nil, err
	}
	apps, err := s.repo.List(ctx, domain.ListFilter{UserID: &userID, Status: status})
	if err != nil {
		return nil, err
	}

	out := make([]domain.ApplicationResponse, 0, len(apps))
	jobs := make(map[snowflake.ID]*jobdomain.Posting, len(apps))
	for _, app := range apps {
		resp := newResponse(app)
		job, ok := jobs[app.JobID]
		if !ok {
			job, err = s.jobs.FindByID(ctx, app.JobID)
			if err != nil {
				return nil, err
			}
			jobs[app.JobID] = job
		}
		resp.Job = jobSummary(*job)
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) ListForJob(ctx context.Context, actorID, jobID snowflake.ID, status string) ([]domain.ApplicationResponse, error) {
	job, err := s.jobs.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actorID, job.TeamID, authorization.ActionApplicationReview); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotReview)
	}
	status, err = normalizeStatus(status)
	if err != nil {
		return nil, err
	}

	apps, err := s.repo.List(ctx, domain.ListFilter{JobID: &jobID, Status: status})
	if err != nil {
		return nil, err
	}
	ids := make([]snowflake.ID, 0, len(apps))
	for _, app := range apps {
		ids = append(ids, app.UserID)
	}
	users, err := s.users.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}

	out := make([]domain.ApplicationResponse, 0, len(apps))
	for _, app := range apps {
		resp := newResponse(app)
		if user, ok := users[app.UserID]; ok {
			summary := user.Summary()
			resp.Applicant = &summary
		}
		out = append(out, resp)
	}
	return out, nil
}

func (s *Service) UpdateStatus(ctx context.Context, actorID, id snowflake.ID, status string) (*domain.ApplicationResponse, error) {
	status = strings.ToUpper(strings.TrimSpace(status))
	if !domain.ValidStatus(status) {
		return nil, domain.ErrInvalidStatus
	}

	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	job, err := s.jobs.FindByID(ctx, app.JobID)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actorID, job.TeamID, authorization.ActionApplicationReview); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotReview)
	}
	if !domain.CanTransition(app.Status, status) {
		return nil, domain.ErrInvalidTransition
	}

	now := s.clock.Now()
	ok, err := s.repo.Transition(ctx, id, app.Status, status, now)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrInvalidTransition
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &job.TeamID,
		ActorID:    actorID,
		Action:     "application.status.update",
		TargetType: auditdomain.TargetApplication,
		TargetID:   id.String(),
		Metadata:   map[string]any{"from": app.Status, "to": status, "job_id": job.ID.String()},
	})

	app.Status = status
	app.UpdatedAt = now
	resp := newResponse(*app)
	resp.Job = jobSummary(*job)
	return &resp, nil
}

func (s *Service) Withdraw(ctx context.Context, userID, id snowflake.ID) error {
	app, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if app.UserID != userID {
		return domain.ErrNotApplicant
	}

	deleted, err := s.repo.DeleteUnlessStatus(ctx, id, domain.StatusAccepted)
	if err != nil {
		return err
	}
	if deleted {
		return nil
	}
	if _, err := s.repo.FindByID(ctx, id); err != nil {
		return err
	}
	return domain.ErrWithdrawAccepted
}

// CountMine groups the caller's applications by status.
func (s *Service) CountMine(ctx context.Context, userID snowflake.ID) (map[string]int64, error) {
	rows, err := s.repo.CountByStatus(ctx, userID)
	if err != nil {
		return nil, err
	}
	counts := map[string]int64{
		domain.StatusPending:   0,
		domain.StatusReviewing: 0,
		domain.StatusAccepted:  0,
		domain.StatusRejected:  0,
	}
	for _, row := range rows {
		counts[row.Status] = row.Total
	}
	return counts, nil
}

func normalizeStatus(raw string) (string, error) {
	status := strings.ToUpper(strings.TrimSpace(raw))
	if status != "" && !domain.ValidStatus(status) {
		return "", domain.ErrInvalidStatus
	}
	return status, nil
}

func newResponse(app domain.Application) domain.ApplicationResponse {
	return domain.ApplicationResponse{
		ID:          app.ID.String(),
		JobID:       app.JobID.String(),
		UserID:      app.UserID.String(),
		CoverLetter: app.CoverLetter,
		Status:      app.Status,
		CreatedAt:   app.CreatedAt,
		UpdatedAt:   app.UpdatedAt,
	}
}

func jobSummary(job jobdomain.Posting) *domain.JobSummary {
	return &domain.JobSummary{
		ID:     job.ID.String(),
		TeamID: job.TeamID.String(),
		Title:  job.Title,
		Status: job.Status,
	}
}
