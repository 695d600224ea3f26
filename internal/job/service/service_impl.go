package service

import (
	"context"
	"strings"

	"github.com/bwmarrin/snowflake"
	auditdomain "github.com/smallbiznis/talentlink/internal/audit/domain"
	"github.com/smallbiznis/talentlink/internal/authorization"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/job/domain"
	teamdomain "github.com/smallbiznis/talentlink/internal/team/domain"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const defaultCurrency = "USD"

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	Teams  teamdomain.Repository
	Authz  authorization.MembershipAuthorizer
	Audit  auditdomain.Service
	GenID  *snowflake.Node
	Clock  clock.Clock
	Policy *config.PolicyHolder
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	repo   domain.Repository
	teams  teamdomain.Repository
	authz  authorization.MembershipAuthorizer
	audit  auditdomain.Service
	genID  *snowflake.Node
	clock  clock.Clock
	policy *config.PolicyHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("job.service"),
		repo:   p.Repo,
		teams:  p.Teams,
		authz:  p.Authz,
		audit:  p.Audit,
		genID:  p.GenID,
		clock:  p.Clock,
		policy: p.Policy,
	}
}

func (s *Service) Create(ctx context.Context, actorID snowflake.ID, req domain.CreateJobRequest) (*domain.Posting, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, domain.ErrInvalidTitle
	}

	if _, err := s.teams.FindByID(ctx, req.TeamID); err != nil {
		return nil, err
	}
	if req.SubTeamID != nil {
		sub, err := s.teams.FindByID(ctx, *req.SubTeamID)
		if err != nil {
			return nil, err
		}
		if sub.ParentTeamID == nil || *sub.ParentTeamID != req.TeamID {
			return nil, domain.ErrInvalidSubTeam
		}
	}
	if err := s.authz.Authorize(ctx, actorID, req.TeamID, authorization.ActionJobManage); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotManageJobs)
	}

	status := domain.StatusActive
	if raw := strings.TrimSpace(req.Status); raw != "" {
		status = strings.ToUpper(raw)
		if !domain.ValidStatus(status) {
			return nil, domain.ErrInvalidStatus
		}
	}
	employmentType := domain.EmploymentFullTime
	if raw := strings.TrimSpace(req.EmploymentType); raw != "" {
		employmentType = normalizeEnum(raw)
		if !domain.ValidEmploymentType(employmentType) {
			return nil, domain.ErrInvalidEmploymentType
		}
	}
	if err := validateSalary(req.SalaryMin, req.SalaryMax); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = defaultCurrency
	}

	now := s.clock.Now()
	job := domain.Posting{
		ID:             s.genID.Generate(),
		TeamID:         req.TeamID,
		SubTeamID:      req.SubTeamID,
		CreatedBy:      actorID,
		Title:          title,
		Description:    strings.TrimSpace(req.Description),
		Location:       strings.TrimSpace(req.Location),
		Remote:         req.Remote,
		EmploymentType: employmentType,
		SalaryMin:      req.SalaryMin,
		SalaryMax:      req.SalaryMax,
		Currency:       currency,
		Skills:         datatypes.JSONSlice[string](cleanSkills(req.Skills)),
		Status:         status,
		IsFeatured:     req.IsFeatured,
		IsSponsored:    req.IsSponsored,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	if err := s.repo.Create(ctx, &job); err != nil {
		return nil, err
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &job.TeamID,
		ActorID:    actorID,
		Action:     "job.create",
		TargetType: auditdomain.TargetJob,
		TargetID:   job.ID.String(),
		Metadata:   map[string]any{"title": job.Title, "status": job.Status},
	})
	return &job, nil
}

// Get hides drafts from anyone who cannot manage the owning team.
func (s *Service) Get(ctx context.Context, viewerID, id snowflake.ID) (*domain.Posting, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if job.Status == domain.StatusDraft && !s.canManage(ctx, viewerID, job.TeamID) {
		return nil, domain.ErrJobNotFound
	}
	return job, nil
}

func (s *Service) List(ctx context.Context, req domain.ListRequest) (*domain.ListResponse, error) {
	filter := req.ListFilter
	filter.Status = strings.ToUpper(strings.TrimSpace(filter.Status))
	if filter.Status == "" {
		filter.Status = domain.StatusActive
	}
	if !domain.ValidStatus(filter.Status) {
		return nil, domain.ErrInvalidStatus
	}
	// Drafts are only listable per team, by its managers.
	if filter.Status == domain.StatusDraft && (filter.TeamID == nil || !s.canManage(ctx, req.ViewerID, *filter.TeamID)) {
		return nil, domain.ErrJobNotFound
	}
	if filter.EmploymentType != "" {
		filter.EmploymentType = normalizeEnum(filter.EmploymentType)
	}

	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  s.policy.Get().PageSize(req.PageSize),
	}
	jobs, err := s.repo.List(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	jobs, pageInfo := pagination.BuildPageInfo(jobs, page)
	if jobs == nil {
		jobs = []domain.Posting{}
	}
	return &domain.ListResponse{Jobs: jobs, PageInfo: pageInfo}, nil
}

// ListForTeam shows every posting to team managers and only active ones to everyone else.
func (s *Service) ListForTeam(ctx context.Context, teamID, viewerID snowflake.ID) ([]domain.Posting, error) {
	if _, err := s.teams.FindByID(ctx, teamID); err != nil {
		return nil, err
	}
	filter := domain.ListFilter{TeamID: &teamID, Status: domain.StatusActive}
	if s.canManage(ctx, viewerID, teamID) {
		filter.Status = ""
	}
	jobs, err := s.repo.List(ctx, filter, pagination.Pagination{})
	if err != nil {
		return nil, err
	}
	if jobs == nil {
		jobs = []domain.Posting{}
	}
	return jobs, nil
}

func (s *Service) Update(ctx context.Context, actorID, id snowflake.ID, req domain.UpdateJobRequest) (*domain.Posting, error) {
	job, err := s.manageable(ctx, actorID, id)
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
	if req.Location != nil {
		fields["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Remote != nil {
		fields["remote"] = *req.Remote
	}
	if req.EmploymentType != nil {
		employmentType := normalizeEnum(*req.EmploymentType)
		if !domain.ValidEmploymentType(employmentType) {
			return nil, domain.ErrInvalidEmploymentType
		}
		fields["employment_type"] = employmentType
	}
	if req.Status != nil {
		status := strings.ToUpper(strings.TrimSpace(*req.Status))
		if !domain.ValidStatus(status) {
			return nil, domain.ErrInvalidStatus
		}
		fields["status"] = status
	}

	salaryMin, salaryMax := job.SalaryMin, job.SalaryMax
	if req.SalaryMin != nil {
		salaryMin = req.SalaryMin
		fields["salary_min"] = *req.SalaryMin
	}
	if req.SalaryMax != nil {
		salaryMax = req.SalaryMax
		fields["salary_max"] = *req.SalaryMax
	}
	if err := validateSalary(salaryMin, salaryMax); err != nil {
		return nil, err
	}

	if req.Currency != nil {
		currency := strings.ToUpper(strings.TrimSpace(*req.Currency))
		if currency == "" {
			currency = defaultCurrency
		}
		fields["currency"] = currency
	}
	if req.Skills != nil {
		fields["skills"] = datatypes.JSONSlice[string](cleanSkills(req.Skills))
	}
	if req.IsFeatured != nil {
		fields["is_featured"] = *req.IsFeatured
	}
	if req.IsSponsored != nil {
		fields["is_sponsored"] = *req.IsSponsored
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateFields(ctx, id, fields); err != nil {
			return nil, err
		}
		s.audit.Record(ctx, auditdomain.Entry{
			TeamID:     &job.TeamID,
			ActorID:    actorID,
			Action:     "job.update",
			TargetType: auditdomain.TargetJob,
			TargetID:   id.String(),
		})
	}
	return s.repo.FindByID(ctx, id)
}

func (s *Service) Delete(ctx context.Context, actorID, id snowflake.ID) error {
	job, err := s.manageable(ctx, actorID, id)
	if err != nil {
		return err
	}
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Delete(ctx, id)
	})
	if err != nil {
		return err
	}

	s.audit.Record(ctx, auditdomain.Entry{
		TeamID:     &job.TeamID,
		ActorID:    actorID,
		Action:     "job.delete",
		TargetType: auditdomain.TargetJob,
		TargetID:   id.String(),
		Metadata:   map[string]any{"title": job.Title},
	})
	return nil
}

func (s *Service) Close(ctx context.Context, actorID, id snowflake.ID) (*domain.Posting, error) {
	closed := domain.StatusClosed
	return s.Update(ctx, actorID, id, domain.UpdateJobRequest{Status: &closed})
}

// manageable loads the posting and checks job.manage on its team.
func (s *Service) manageable(ctx context.Context, actorID, id snowflake.ID) (*domain.Posting, error) {
	job, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authz.Authorize(ctx, actorID, job.TeamID, authorization.ActionJobManage); err != nil {
		return nil, authorization.Deny(err, domain.ErrCannotManageJobs)
	}
	return job, nil
}

func (s *Service) canManage(ctx context.Context, viewerID, teamID snowflake.ID) bool {
	return viewerID != 0 && s.authz.CanManage(ctx, viewerID, teamID)
}

func validateSalary(min, max *int64) error {
	if min != nil && *min < 0 {
		return domain.ErrInvalidSalary
	}
	if max != nil && *max < 0 {
		return domain.ErrInvalidSalary
	}
	if min != nil && max != nil && *min > *max {
		return domain.ErrInvalidSalary
	}
	return nil
}

func normalizeEnum(raw string) string {
	value := strings.ToUpper(strings.TrimSpace(raw))
	return strings.NewReplacer("-", "_", " ", "_").Replace(value)
}

func cleanSkills(skills []string) []string {
	out := make([]string, 0, len(skills))
	seen := make(map[string]struct{}, len(skills))
	for _, skill := range skills {
		skill = strings.TrimSpace(skill)
		key := strings.ToLower(skill)
		if skill == "" {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, skill)
	}
	return out
}
