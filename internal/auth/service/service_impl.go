package service

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"regexp"
	"strings"

	"github.com/bwmarrin/snowflake"
	"github.com/gosimple/slug"
	"github.com/smallbiznis/talentlink/internal/auth/domain"
	"github.com/smallbiznis/talentlink/internal/auth/password"
	"github.com/smallbiznis/talentlink/internal/auth/token"
	"github.com/smallbiznis/talentlink/internal/clock"
	userdomain "github.com/smallbiznis/talentlink/internal/user/domain"
	"github.com/smallbiznis/talentlink/pkg/db"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const minPasswordLength = 8

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_-]{3,32}$`)

type Params struct {
	fx.In

	Log    *zap.Logger
	Users  userdomain.Repository
	Tokens *token.Issuer
	GenID  *snowflake.Node
	Clock  clock.Clock
}

type Service struct {
	log    *zap.Logger
	users  userdomain.Repository
	tokens *token.Issuer
	genID  *snowflake.Node
	clock  clock.Clock
}

func New(p Params) domain.Service {
	return &Service{
		log:    p.Log.Named("auth.service"),
		users:  p.Users,
		tokens: p.Tokens,
		genID:  p.GenID,
		clock:  p.Clock,
	}
}

func (s *Service) Register(ctx context.Context, req domain.RegisterRequest) (*domain.AuthResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil {
		return nil, domain.ErrInvalidEmail
	}
	if len(req.Password) < minPasswordLength {
		return nil, domain.ErrWeakPassword
	}

	role := strings.ToUpper(strings.TrimSpace(req.Role))
	if role == "" {
		role = userdomain.RoleFreelancer
	}
	if !userdomain.ValidRole(role) {
		return nil, domain.ErrInvalidRole
	}

	if _, err := s.users.FindByEmail(ctx, email); err == nil {
		return nil, domain.ErrEmailTaken
	} else if !errors.Is(err, userdomain.ErrUserNotFound) {
		return nil, err
	}

	username := strings.TrimSpace(req.Username)
	if username == "" {
		username, err = s.deriveUsername(ctx, email)
		if err != nil {
			return nil, err
		}
	} else {
		if !usernamePattern.MatchString(username) {
			return nil, domain.ErrInvalidUsername
		}
		if _, err := s.users.FindByUsername(ctx, username); err == nil {
			return nil, domain.ErrUsernameTaken
		} else if !errors.Is(err, userdomain.ErrUserNotFound) {
			return nil, err
		}
	}

	hashed, err := password.Hash(req.Password)
	if err != nil {
		return nil, err
	}

	now := s.clock.Now()
	user := &userdomain.User{
		ID:           s.genID.Generate(),
		Email:        email,
		Username:     username,
		PasswordHash: &hashed,
		Role:         role,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		Availability: userdomain.AvailabilityAvailable,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return nil, domain.ErrEmailTaken
		}
		return nil, err
	}

	s.log.Info("user registered", zap.String("user_id", user.ID.String()), zap.String("role", role))
	return s.issue(user)
}

func (s *Service) Login(ctx context.Context, req domain.LoginRequest) (*domain.AuthResult, error) {
	email, err := normalizeEmail(req.Email)
	if err != nil || req.Password == "" {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			return nil, domain.ErrInvalidCredentials
		}
		return nil, err
	}
	if user.PasswordHash == nil || !password.Verify(req.Password, *user.PasswordHash) {
		return nil, domain.ErrInvalidCredentials
	}
	return s.issue(user)
}

// Authenticate verifies a bearer token and confirms the account still exists.
func (s *Service) Authenticate(ctx context.Context, rawToken string) (snowflake.ID, error) {
	rawToken = strings.TrimSpace(rawToken)
	if rawToken == "" {
		return 0, domain.ErrMissingToken
	}
	userID, err := s.tokens.Parse(rawToken)
	if err != nil {
		return 0, domain.ErrInvalidToken
	}
	if _, err := s.users.FindByID(ctx, userID); err != nil {
		if errors.Is(err, userdomain.ErrUserNotFound) {
			return 0, domain.ErrInvalidToken
		}
		return 0, err
	}
	return userID, nil
}

func (s *Service) issue(user *userdomain.User) (*domain.AuthResult, error) {
	raw, expiresAt, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, err
	}
	return &domain.AuthResult{Token: raw, ExpiresAt: expiresAt, User: user}, nil
}

func (s *Service) deriveUsername(ctx context.Context, email string) (string, error) {
	local, _, _ := strings.Cut(email, "@")
	base := slug.Make(local)
	if len(base) < 3 {
		base = "user-" + base
	}
	if len(base) > 28 {
		base = base[:28]
	}
	candidate := base
	for n := 2; ; n++ {
		_, err := s.users.FindByUsername(ctx, candidate)
		if errors.Is(err, userdomain.ErrUserNotFound) {
			return candidate, nil
		}
		if err != nil {
			return "", err
		}
		candidate = fmt.Sprintf("%s-%d", base, n)
	}
}

func normalizeEmail(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	addr, err := mail.ParseAddress(raw)
	if err != nil || addr.Address != raw {
		return "", domain.ErrInvalidEmail
	}
	return strings.ToLower(addr.Address), nil
}
