package service

import (
	"context"
	"testing"
	"time"

	"github.com/smallbiznis/talentlink/internal/auth/domain"
	"github.com/smallbiznis/talentlink/internal/auth/token"
	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	"github.com/smallbiznis/talentlink/internal/testutil"
	userrepo "github.com/smallbiznis/talentlink/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func newTestService(t *testing.T) (domain.Service, *clock.FakeClock) {
	t.Helper()

	dbConn := testutil.NewDB(t)
	clk := testutil.NewClock()
	issuer, err := token.NewIssuer(config.Config{AuthJWTSecret: "test-secret", AuthTokenTTL: time.Hour}, clk)
	require.NoError(t, err)

	svc := New(Params{
		Log:    zaptest.NewLogger(t),
		Users:  userrepo.New(dbConn),
		Tokens: issuer,
		GenID:  testutil.NewNode(t),
		Clock:  clk,
	})
	return svc, clk
}

func TestRegisterAndLogin(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, domain.RegisterRequest{
		Email:    "Alice@Acme.io",
		Username: "alice",
		Password: "correct-password",
		Role:     "freelancer",
	})
	require.NoError(t, err)
	assert.Equal(t, "alice@acme.io", res.User.Email)
	assert.Equal(t, "FREELANCER", res.User.Role)
	assert.NotEmpty(t, res.Token)

	login, err := svc.Login(ctx, domain.LoginRequest{Email: "alice@acme.io", Password: "correct-password"})
	require.NoError(t, err)

	userID, err := svc.Authenticate(ctx, login.Token)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, userID)
}

func TestLoginWrongPassword(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "bob@acme.io", Username: "bob", Password: "strong-password"})
	require.NoError(t, err)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "bob@acme.io", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)

	_, err = svc.Login(ctx, domain.LoginRequest{Email: "nobody@acme.io", Password: "wrong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidCredentials)
}

func TestRegisterDuplicates(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "carol@acme.io", Username: "carol", Password: "strong-password"})
	require.NoError(t, err)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "CAROL@acme.io", Username: "carol2", Password: "strong-password"})
	assert.ErrorIs(t, err, domain.ErrEmailTaken)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "other@acme.io", Username: "carol", Password: "strong-password"})
	assert.ErrorIs(t, err, domain.ErrUsernameTaken)
}

func TestRegisterValidation(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	_, err := svc.Register(ctx, domain.RegisterRequest{Email: "not-an-email", Password: "strong-password"})
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "dan@acme.io", Password: "short"})
	assert.ErrorIs(t, err, domain.ErrWeakPassword)

	_, err = svc.Register(ctx, domain.RegisterRequest{Email: "dan@acme.io", Password: "strong-password", Role: "ADMIN"})
	assert.ErrorIs(t, err, domain.ErrInvalidRole)
}

func TestRegisterDerivesUniqueUsername(t *testing.T) {
	svc, _ := newTestService(t)
	ctx := context.Background()

	first, err := svc.Register(ctx, domain.RegisterRequest{Email: "erin@acme.io", Password: "strong-password"})
	require.NoError(t, err)
	second, err := svc.Register(ctx, domain.RegisterRequest{Email: "erin@other.io", Password: "strong-password"})
	require.NoError(t, err)

	assert.Equal(t, "erin", first.User.Username)
	assert.Equal(t, "erin-2", second.User.Username)
}

func TestAuthenticateExpiredToken(t *testing.T) {
	svc, clk := newTestService(t)
	ctx := context.Background()

	res, err := svc.Register(ctx, domain.RegisterRequest{Email: "fay@acme.io", Password: "strong-password"})
	require.NoError(t, err)

	clk.Advance(2 * time.Hour)
	_, err = svc.Authenticate(ctx, res.Token)
	assert.ErrorIs(t, err, domain.ErrInvalidToken)

	_, err = svc.Authenticate(ctx, "")
	assert.ErrorIs(t, err, domain.ErrMissingToken)
}
