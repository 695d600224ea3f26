package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang/mock/gomock"
	applicationrepo "github.com/smallbiznis/talentlink/internal/application/repository"
	applicationservice "github.com/smallbiznis/talentlink/internal/application/service"
	auditrepo "github.com/smallbiznis/talentlink/internal/audit/repository"
	auditservice "github.com/smallbiznis/talentlink/internal/audit/service"
	authservice "github.com/smallbiznis/talentlink/internal/auth/service"
	"github.com/smallbiznis/talentlink/internal/auth/token"
	collabrepo "github.com/smallbiznis/talentlink/internal/collaboration/repository"
	collabservice "github.com/smallbiznis/talentlink/internal/collaboration/service"
	"github.com/smallbiznis/talentlink/internal/config"
	dashboardservice "github.com/smallbiznis/talentlink/internal/dashboard/service"
	emailrepo "github.com/smallbiznis/talentlink/internal/emailinvitation/repository"
	emailservice "github.com/smallbiznis/talentlink/internal/emailinvitation/service"
	invitationrepo "github.com/smallbiznis/talentlink/internal/invitation/repository"
	invitationservice "github.com/smallbiznis/talentlink/internal/invitation/service"
	jobrepo "github.com/smallbiznis/talentlink/internal/job/repository"
	jobservice "github.com/smallbiznis/talentlink/internal/job/service"
	"github.com/smallbiznis/talentlink/internal/observability"
	portfoliorepo "github.com/smallbiznis/talentlink/internal/portfolio/repository"
	portfolioservice "github.com/smallbiznis/talentlink/internal/portfolio/service"
	"github.com/smallbiznis/talentlink/internal/providers/email"
	"github.com/smallbiznis/talentlink/internal/providers/email/mocks"
	"github.com/smallbiznis/talentlink/internal/ratelimit"
	recommendationrepo "github.com/smallbiznis/talentlink/internal/recommendation/repository"
	recommendationservice "github.com/smallbiznis/talentlink/internal/recommendation/service"
	teamrepo "github.com/smallbiznis/talentlink/internal/team/repository"
	teamservice "github.com/smallbiznis/talentlink/internal/team/service"
	"github.com/smallbiznis/talentlink/internal/testutil"
	userrepo "github.com/smallbiznis/talentlink/internal/user/repository"
	userservice "github.com/smallbiznis/talentlink/internal/user/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

type harness struct {
	engine *gin.Engine
	mailer *mocks.MockProvider
}

func newHarness(t *testing.T, limits config.RateLimitConfig) harness {
	t.Helper()
	gin.SetMode(gin.TestMode)

	conn := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := testutil.NewClock()
	log := zaptest.NewLogger(t)
	authz := testutil.NewAuthorizer(t, conn)
	policy := config.NewStaticPolicy(config.DefaultPolicy())
	mailer := mocks.NewMockProvider(gomock.NewController(t))

	users := userrepo.New(conn)
	teams := teamrepo.New(conn)
	jobs := jobrepo.New(conn)
	portfolios := portfoliorepo.New(conn)

	issuer, err := token.NewIssuer(config.Config{AuthTokenTTL: time.Hour}, clk)
	require.NoError(t, err)

	audit := auditservice.New(auditservice.Params{Log: log, Repo: auditrepo.New(conn), Authz: authz, GenID: node, Clock: clk, Policy: policy})
	authSvc := authservice.New(authservice.Params{Log: log, Users: users, Tokens: issuer, GenID: node, Clock: clk})
	userSvc := userservice.New(userservice.Params{DB: conn, Log: log, Repo: users, GenID: node, Clock: clk, Policy: policy})
	teamSvc := teamservice.New(teamservice.Params{
		DB: conn, Log: log, Repo: teams, Users: users, Authz: authz, Audit: audit, GenID: node, Clock: clk, Policy: policy,
	})
	invitationSvc := invitationservice.New(invitationservice.Params{
		DB: conn, Log: log, Repo: invitationrepo.New(conn), Teams: teams, Users: users, Authz: authz, Audit: audit, GenID: node, Clock: clk, Policy: policy,
	})
	emailSvc := emailservice.New(emailservice.Params{
		DB: conn, Log: log, Config: config.Config{PublicURL: "https://talentlink.test"}, Repo: emailrepo.New(conn),
		Teams: teams, Users: users, Authz: authz, Audit: audit, Email: mailer, GenID: node, Clock: clk, Policy: policy,
	})
	jobSvc := jobservice.New(jobservice.Params{
		DB: conn, Log: log, Repo: jobs, Teams: teams, Authz: authz, Audit: audit, GenID: node, Clock: clk, Policy: policy,
	})
	applicationSvc := applicationservice.New(applicationservice.Params{
		Log: log, Repo: applicationrepo.New(conn), Jobs: jobs, Users: users, Authz: authz, Audit: audit, GenID: node, Clock: clk,
	})
	portfolioSvc := portfolioservice.New(portfolioservice.Params{
		DB: conn, Log: log, Repo: portfolios, Users: users, GenID: node, Clock: clk,
	})
	collab := collabservice.New(collabservice.Params{
		Log: log, Repo: collabrepo.New(conn), Users: users, Portfolios: portfolios, Policy: policy,
	})
	recommendationSvc := recommendationservice.New(recommendationservice.Params{
		DB: conn, Log: log, Repo: recommendationrepo.New(conn), Users: users, Portfolios: portfolios, Teams: teams, Collaboration: collab, GenID: node, Clock: clk,
	})
	dashboardSvc := dashboardservice.New(dashboardservice.Params{
		Log: log, Teams: teamSvc, TeamRepo: teams, Invitations: invitationSvc, Portfolios: portfolioSvc,
		Applications: applicationSvc, Jobs: jobs, Recommendations: recommendationSvc,
	})

	s := NewServer(ServerParams{
		Gin:               NewEngine(observability.Config{}, nil),
		Authsvc:           authSvc,
		UserSvc:           userSvc,
		TeamSvc:           teamSvc,
		InvitationSvc:     invitationSvc,
		EmailInviteSvc:    emailSvc,
		JobSvc:            jobSvc,
		ApplicationSvc:    applicationSvc,
		PortfolioSvc:      portfolioSvc,
		CollaborationSvc:  collab,
		RecommendationSvc: recommendationSvc,
		DashboardSvc:      dashboardSvc,
		AuditSvc:          audit,
		Limiter:           ratelimit.NewWithBucket(limits, ratelimit.NewLocalBucket()),
	})
	return harness{engine: s.Engine(), mailer: mailer}
}

func defaultLimits() config.RateLimitConfig {
	return config.RateLimitConfig{
		Enabled:            true,
		TokenValidateRate:  0.5,
		TokenValidateBurst: 10,
		EmailInviteRate:    1,
		EmailInviteBurst:   10,
	}
}

func (h harness) do(t *testing.T, method, path, bearer string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	h.engine.ServeHTTP(rec, req)
	return rec
}

type envelope struct {
	Data    json.RawMessage `json:"data"`
	Message string          `json:"message"`
	Error   string          `json:"error"`
	Code    string          `json:"code"`
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &env), rec.Body.String())
	return env
}

func decodeData(t *testing.T, rec *httptest.ResponseRecorder, out any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(decode(t, rec).Data, out), rec.Body.String())
}

// register creates an account and returns its bearer token and id.
func (h harness) register(t *testing.T, address, username string) (string, string) {
	t.Helper()

	rec := h.do(t, http.MethodPost, "/api/auth/register", "", gin.H{
		"email":    address,
		"username": username,
		"password": "correct-horse",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		Token string `json:"token"`
		User  struct {
			ID   string `json:"id"`
			Role string `json:"role"`
		} `json:"user"`
	}
	decodeData(t, rec, &out)
	require.NotEmpty(t, out.Token)
	assert.Equal(t, "FREELANCER", out.User.Role)
	return out.Token, out.User.ID
}

func TestHealth(t *testing.T) {
	h := newHarness(t, defaultLimits())

	rec := h.do(t, http.MethodGet, "/health", "", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestErrorBodyShape(t *testing.T) {
	h := newHarness(t, defaultLimits())

	rec := h.do(t, http.MethodGet, "/api/users/me", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	env := decode(t, rec)
	assert.Equal(t, "missing_token", env.Code)
	assert.Equal(t, "Authentication required", env.Error)

	rec = h.do(t, http.MethodGet, "/api/users/me", "not-a-jwt", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid_token", decode(t, rec).Code)

	rec = h.do(t, http.MethodGet, "/api/nowhere", "", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.NotEmpty(t, decode(t, rec).Error)

	tok, _ := h.register(t, "pat@acme.io", "pat")
	rec = h.do(t, http.MethodPut, "/api/invitations/abc/accept", tok, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid_id", decode(t, rec).Code)
}

func TestLoginReturnsTokenForRegisteredUser(t *testing.T) {
	h := newHarness(t, defaultLimits())
	h.register(t, "dev@acme.io", "dev")

	rec := h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "DEV@acme.io", "password": "correct-horse"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var out struct {
		Token string `json:"token"`
	}
	decodeData(t, rec, &out)

	rec = h.do(t, http.MethodGet, "/api/users/me", out.Token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var me struct {
		Email string `json:"email"`
	}
	decodeData(t, rec, &me)
	assert.Equal(t, "dev@acme.io", me.Email)

	rec = h.do(t, http.MethodPost, "/api/auth/login", "", gin.H{"email": "dev@acme.io", "password": "wrong-password"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestTeamInvitationLifecycle(t *testing.T) {
	h := newHarness(t, defaultLimits())
	ownerToken, _ := h.register(t, "u1@acme.io", "owner1")
	memberToken, memberID := h.register(t, "u2@acme.io", "member2")

	rec := h.do(t, http.MethodPost, "/api/teams", ownerToken, gin.H{"name": "Acme Studio", "type": "PROJECT"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var team struct {
		ID         string `json:"id"`
		Slug       string `json:"slug"`
		Type       string `json:"type"`
		IsMainTeam bool   `json:"is_main_team"`
	}
	decodeData(t, rec, &team)
	assert.Equal(t, "acme-studio", team.Slug)
	assert.Equal(t, "TEAM", team.Type)
	assert.True(t, team.IsMainTeam)

	rec = h.do(t, http.MethodGet, "/api/teams/"+team.Slug, "", nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodPost, "/api/invitations", ownerToken, gin.H{"team_id": team.ID, "receiver_id": memberID})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var inv struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, rec, &inv)
	assert.Equal(t, "PENDING", inv.Status)

	rec = h.do(t, http.MethodPost, "/api/invitations", ownerToken, gin.H{"team_id": team.ID, "receiver_id": memberID})
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = h.do(t, http.MethodPut, "/api/invitations/"+inv.ID+"/accept", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)

	rec = h.do(t, http.MethodPut, "/api/invitations/"+inv.ID+"/accept", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/teams/"+team.ID+"/members", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var members []struct {
		Role string `json:"role"`
	}
	decodeData(t, rec, &members)
	assert.Len(t, members, 2)

	rec = h.do(t, http.MethodPost, "/api/teams/"+team.ID+"/leave", ownerToken, nil)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, "owner_cannot_leave", decode(t, rec).Code)

	rec = h.do(t, http.MethodPost, "/api/teams/"+team.ID+"/leave", memberToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Left team successfully", decode(t, rec).Message)

	rec = h.do(t, http.MethodGet, "/api/teams/"+team.ID+"/members", "", nil)
	decodeData(t, rec, &members)
	require.Len(t, members, 1)
	assert.Equal(t, "OWNER", members[0].Role)
}

func TestEmailInvitationDomainRules(t *testing.T) {
	h := newHarness(t, defaultLimits())
	ownerToken, _ := h.register(t, "u1@acme.io", "owner1")

	rec := h.do(t, http.MethodPost, "/api/teams", ownerToken, gin.H{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var team struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &team)
	path := "/api/email-invitations/teams/" + team.ID

	rec = h.do(t, http.MethodPost, path, ownerToken, gin.H{"email": "x@gmail.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "free_email_provider", decode(t, rec).Code)

	rec = h.do(t, http.MethodPost, path, ownerToken, gin.H{"email": "x@other.com"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "email_domain_mismatch", decode(t, rec).Code)

	h.mailer.EXPECT().
		SendTemplate(gomock.Any(), []string{"x@acme.io"}, email.TemplateTeamInvitation, gomock.Any()).
		Return(nil).
		Times(1)

	rec = h.do(t, http.MethodPost, path, ownerToken, gin.H{"email": "X@Acme.io"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var inv struct {
		Email     string    `json:"email"`
		Status    string    `json:"status"`
		Role      string    `json:"role"`
		ExpiresAt time.Time `json:"expires_at"`
	}
	decodeData(t, rec, &inv)
	assert.Equal(t, "x@acme.io", inv.Email)
	assert.Equal(t, "PENDING", inv.Status)
	assert.Equal(t, "MEMBER", inv.Role)
	assert.True(t, inv.ExpiresAt.Equal(testutil.Epoch.Add(7*24*time.Hour)))
	assert.NotContains(t, rec.Body.String(), "token")
}

func TestValidateTokenIsRateLimited(t *testing.T) {
	limits := defaultLimits()
	limits.TokenValidateBurst = 2
	limits.TokenValidateRate = 0.01
	h := newHarness(t, limits)

	for i := 0; i < 2; i++ {
		rec := h.do(t, http.MethodGet, "/api/email-invitations/validate/unknown-token", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "invalid_token", decode(t, rec).Code)
		assert.NotEmpty(t, rec.Header().Get("X-RateLimit-Limit"))
	}

	rec := h.do(t, http.MethodGet, "/api/email-invitations/validate/unknown-token", "", nil)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "rate_limited", decode(t, rec).Code)
	assert.NotEmpty(t, rec.Header().Get("Retry-After"))
	assert.Equal(t, "0", rec.Header().Get("X-RateLimit-Remaining"))
}

func TestDisabledLimiterPassesThrough(t *testing.T) {
	limits := defaultLimits()
	limits.Enabled = false
	limits.TokenValidateBurst = 1
	h := newHarness(t, limits)

	for i := 0; i < 3; i++ {
		rec := h.do(t, http.MethodGet, "/api/email-invitations/validate/unknown-token", "", nil)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Empty(t, rec.Header().Get("X-RateLimit-Limit"))
	}
}

func TestJobApplicationFlow(t *testing.T) {
	h := newHarness(t, defaultLimits())
	ownerToken, _ := h.register(t, "lead@acme.io", "lead")
	applicantToken, _ := h.register(t, "dev@beta.io", "dev")

	rec := h.do(t, http.MethodPost, "/api/teams", ownerToken, gin.H{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var team struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &team)

	rec = h.do(t, http.MethodPost, "/api/jobs", ownerToken, gin.H{
		"team_id":     team.ID,
		"title":       "Go Engineer",
		"description": "Build services",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var job struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, rec, &job)
	assert.Equal(t, "ACTIVE", job.Status)

	rec = h.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", ownerToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "own_job", decode(t, rec).Code)

	rec = h.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", applicantToken, gin.H{"cover_letter": "Hi"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var app struct {
		ID     string `json:"id"`
		Status string `json:"status"`
	}
	decodeData(t, rec, &app)
	assert.Equal(t, "PENDING", app.Status)

	rec = h.do(t, http.MethodPost, "/api/jobs/"+job.ID+"/applications", applicantToken, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "already_applied", decode(t, rec).Code)

	rec = h.do(t, http.MethodPut, "/api/applications/"+app.ID+"/status", ownerToken, gin.H{"status": "reviewing"})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/applications/mine", applicantToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var mine []struct {
		Status string `json:"status"`
	}
	decodeData(t, rec, &mine)
	require.Len(t, mine, 1)
	assert.Equal(t, "REVIEWING", mine[0].Status)
}

func TestDraftJobsStayPrivate(t *testing.T) {
	h := newHarness(t, defaultLimits())
	ownerToken, _ := h.register(t, "lead@acme.io", "lead")
	outsiderToken, _ := h.register(t, "dev@beta.io", "dev")

	rec := h.do(t, http.MethodPost, "/api/teams", ownerToken, gin.H{"name": "Acme"})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var team struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &team)

	rec = h.do(t, http.MethodPost, "/api/jobs", ownerToken, gin.H{
		"team_id": team.ID,
		"title":   "Stealth Role",
		"status":  "DRAFT",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	var job struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &job)

	for _, bearer := range []string{"", outsiderToken} {
		rec = h.do(t, http.MethodGet, "/api/jobs/"+job.ID, bearer, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, "job_not_found", decode(t, rec).Code)

		rec = h.do(t, http.MethodGet, "/api/jobs?status=draft&team_id="+team.ID, bearer, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	}

	rec = h.do(t, http.MethodGet, "/api/jobs/"+job.ID, ownerToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	rec = h.do(t, http.MethodGet, "/api/jobs?status=draft&team_id="+team.ID, ownerToken, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var drafts []struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &drafts)
	require.Len(t, drafts, 1)
	assert.Equal(t, job.ID, drafts[0].ID)

	rec = h.do(t, http.MethodGet, "/api/jobs", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	var public []struct {
		ID string `json:"id"`
	}
	decodeData(t, rec, &public)
	assert.Empty(t, public)
}
