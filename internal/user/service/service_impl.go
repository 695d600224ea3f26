package service

import (
	"context"
	"errors"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db/pagination"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB     *gorm.DB
	Log    *zap.Logger
	Repo   domain.Repository
	GenID  *snowflake.Node
	Clock  clock.Clock
	Policy *config.PolicyHolder
}

type Service struct {
	db     *gorm.DB
	log    *zap.Logger
	repo   domain.Repository
	genID  *snowflake.Node
	clock  clock.Clock
	policy *config.PolicyHolder
}

func New(p Params) domain.Service {
	return &Service{
		db:     p.DB,
		log:    p.Log.Named("user.service"),
		repo:   p.Repo,
		genID:  p.GenID,
		clock:  p.Clock,
		policy: p.Policy,
	}
}

func (s *Service) GetByID(ctx context.Context, id snowflake.ID) (*domain.Profile, error) {
	user, err := s.repo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.withSkills(ctx, *user)
}

// Get resolves a user by snowflake id or username. Email is not exposed.
func (s *Service) Get(ctx context.Context, identifier string) (*domain.Profile, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return nil, domain.ErrUserNotFound
	}

	var (
		user *domain.User
		err  error
	)
	if id, parseErr := snowflake.ParseString(identifier); parseErr == nil && id > 0 {
		user, err = s.repo.FindByID(ctx, id)
		if errors.Is(err, domain.ErrUserNotFound) {
			user, err = s.repo.FindByUsername(ctx, identifier)
		}
	} else {
		user, err = s.repo.FindByUsername(ctx, identifier)
	}
	if err != nil {
		return nil, err
	}

	user.Email = ""
	return s.withSkills(ctx, *user)
}

func (s *Service) UpdateProfile(ctx context.Context, userID snowflake.ID, req domain.UpdateProfileRequest) (*domain.Profile, error) {
	fields := map[string]any{}
	if req.FirstName != nil {
		fields["first_name"] = strings.TrimSpace(*req.FirstName)
	}
	if req.LastName != nil {
		fields["last_name"] = strings.TrimSpace(*req.LastName)
	}
	if req.Bio != nil {
		fields["bio"] = strings.TrimSpace(*req.Bio)
	}
	if req.Location != nil {
		fields["location"] = strings.TrimSpace(*req.Location)
	}
	if req.Availability != nil {
		availability := strings.ToUpper(strings.TrimSpace(*req.Availability))
		if !domain.ValidAvailability(availability) {
			return nil, domain.ErrInvalidAvailability
		}
		fields["availability"] = availability
	}
	if req.HourlyRate != nil {
		if *req.HourlyRate < 0 {
			return nil, domain.ErrInvalidHourlyRate
		}
		fields["hourly_rate"] = *req.HourlyRate
	}
	if req.Links != nil {
		fields["links"] = datatypes.JSONMap(req.Links)
	}

	if len(fields) > 0 {
		fields["updated_at"] = s.clock.Now()
		if err := s.repo.UpdateFields(ctx, userID, fields); err != nil {
			return nil, err
		}
	}
	return s.GetByID(ctx, userID)
}

// SetSkills replaces the user's skill set, creating catalog entries on demand.
func (s *Service) SetSkills(ctx context.Context, userID snowflake.ID, skills []domain.SkillInput) (*domain.Profile, error) {
	if _, err := s.repo.FindByID(ctx, userID); err != nil {
		return nil, err
	}

	seen := map[string]struct{}{}
	now := s.clock.Now()
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		rows := make([]domain.UserSkill, 0, len(skills))
		for _, input := range skills {
			name := strings.TrimSpace(input.Name)
			if name == "" {
				return domain.ErrInvalidSkill
			}
			key := strings.ToLower(name)
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}

			skill, err := repo.FindOrCreateSkill(ctx, &domain.Skill{
				ID:        s.genID.Generate(),
				Name:      name,
				CreatedAt: now,
			})
			if err != nil {
				return err
			}
			rows = append(rows, domain.UserSkill{
				ID:        s.genID.Generate(),
				UserID:    userID,
				SkillID:   skill.ID,
				Level:     strings.TrimSpace(input.Level),
				CreatedAt: now,
			})
		}
		return repo.ReplaceUserSkills(ctx, userID, rows)
	})
	if err != nil {
		return nil, err
	}

	s.log.Debug("skills updated", zap.String("user_id", userID.String()), zap.Int("count", len(seen)))
	return s.GetByID(ctx, userID)
}

func (s *Service) Search(ctx context.Context, req domain.SearchRequest) (*domain.SearchResponse, error) {
	page := pagination.Pagination{
		PageToken: req.PageToken,
		PageSize:  s.policy.Get().PageSize(req.PageSize),
	}
	filter := req.SearchFilter
	filter.Role = strings.ToUpper(strings.TrimSpace(filter.Role))
	filter.Availability = strings.ToUpper(strings.TrimSpace(filter.Availability))

	users, err := s.repo.Search(ctx, filter, page)
	if err != nil {
		return nil, err
	}
	users, pageInfo := pagination.BuildPageInfo(users, page)

	ids := make([]snowflake.ID, 0, len(users))
	for _, u := range users {
		ids = append(ids, u.ID)
	}
	skills, err := s.repo.ListSkills(ctx, ids)
	if err != nil {
		return nil, err
	}
	byUser := groupSkills(skills)

	profiles := make([]domain.Profile, 0, len(users))
	for _, u := range users {
		u.Email = ""
		profiles = append(profiles, domain.Profile{User: u, Skills: byUser[u.ID]})
	}
	return &domain.SearchResponse{Users: profiles, PageInfo: pageInfo}, nil
}

func (s *Service) withSkills(ctx context.Context, user domain.User) (*domain.Profile, error) {
	skills, err := s.repo.ListSkills(ctx, []snowflake.ID{user.ID})
	if err != nil {
		return nil, err
	}
	return &domain.Profile{User: user, Skills: nonNil(skills)}, nil
}

func groupSkills(skills []domain.SkillView) map[snowflake.ID][]domain.SkillView {
	out := make(map[snowflake.ID][]domain.SkillView)
	for _, skill := range skills {
		out[skill.UserID] = append(out[skill.UserID], skill)
	}
	return out
}

func nonNil(skills []domain.SkillView) []domain.SkillView {
	if skills == nil {
		return []domain.SkillView{}
	}
	return skills
}

