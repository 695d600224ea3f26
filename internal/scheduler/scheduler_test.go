package scheduler

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/smallbiznis/talentlink/internal/clock"
	"github.com/smallbiznis/talentlink/internal/config"
	emaildomain "github.com/smallbiznis/talentlink/internal/emailinvitation/domain"
	emailrepo "github.com/smallbiznis/talentlink/internal/emailinvitation/repository"
	emailservice "github.com/smallbiznis/talentlink/internal/emailinvitation/service"
	"github.com/smallbiznis/talentlink/internal/observability/metrics"
	teamrepo "github.com/smallbiznis/talentlink/internal/team/repository"
	"github.com/smallbiznis/talentlink/internal/testutil"
	userrepo "github.com/smallbiznis/talentlink/internal/user/repository"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

type stubInvitations struct {
	emaildomain.Service
	expired int64
	err     error
	calls   int
}

func (s *stubInvitations) CleanupExpired(ctx context.Context) (int64, error) {
	s.calls++
	return s.expired, s.err
}

func newTestScheduler(t *testing.T, svc emaildomain.Service, cfg Config) *Scheduler {
	t.Helper()
	s, err := New(Params{
		Log:              zaptest.NewLogger(t),
		Config:           cfg,
		Clock:            clock.NewFakeClock(time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)),
		EmailInvitations: svc,
	})
	require.NoError(t, err)
	return s
}

func TestNewRejectsBadSpec(t *testing.T) {
	_, err := New(Params{
		Config:           Config{InvitationCleanupSpec: "every tuesday"},
		EmailInvitations: &stubInvitations{},
	})
	assert.Error(t, err)

	_, err = New(Params{Config: Config{}})
	assert.Error(t, err)
}

func TestConfigDefaults(t *testing.T) {
	cfg := Config{LockTTL: time.Minute, JobTimeout: time.Hour}.withDefaults()
	assert.Equal(t, defaultCleanupSpec, cfg.InvitationCleanupSpec)
	assert.Equal(t, time.Minute, cfg.JobTimeout)
	assert.Equal(t, defaultLockPrefix, cfg.LockPrefix)
}

func TestRunOnceCleansUpEmailInvitations(t *testing.T) {
	svc := &stubInvitations{expired: 3}
	s := newTestScheduler(t, svc, Config{})

	require.NoError(t, s.RunOnce(context.Background()))
	assert.Equal(t, 1, svc.calls)
}

func TestExpiredInvitationsAreCountedOncePerSweep(t *testing.T) {
	ctx := context.Background()
	conn := testutil.NewDB(t)
	node := testutil.NewNode(t)
	clk := testutil.NewClock()
	log := zaptest.NewLogger(t)

	reader := sdkmetric.NewManualReader()
	m, err := metrics.New(metrics.Config{ServiceName: "test"}, sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader)))
	require.NoError(t, err)

	owner := testutil.CreateUser(t, conn, node, "lead@acme.io")
	team := testutil.CreateTeam(t, conn, node, owner, "Acme", nil)
	for i, address := range []string{"a@acme.io", "b@acme.io"} {
		require.NoError(t, conn.Create(&emaildomain.EmailInvitation{
			ID:        node.Generate(),
			Email:     address,
			TeamID:    team.ID,
			Token:     address,
			Role:      "MEMBER",
			InvitedBy: owner.ID,
			Status:    emaildomain.StatusPending,
			ExpiresAt: clk.Now().Add(-time.Duration(i+1) * time.Hour),
			CreatedAt: clk.Now(),
			UpdatedAt: clk.Now(),
		}).Error)
	}

	svc := emailservice.New(emailservice.Params{
		DB:      conn,
		Log:     log,
		Repo:    emailrepo.New(conn),
		Teams:   teamrepo.New(conn),
		Users:   userrepo.New(conn),
		Authz:   testutil.NewAuthorizer(t, conn),
		GenID:   node,
		Clock:   clk,
		Policy:  config.NewStaticPolicy(config.DefaultPolicy()),
		Metrics: m,
	})
	s, err := New(Params{Log: log, Clock: clk, EmailInvitations: svc, Metrics: m})
	require.NoError(t, err)

	require.NoError(t, s.RunOnce(ctx))
	assert.EqualValues(t, 2, counterTotal(t, reader, "talentlink_invitations_expired_total"))
	assert.EqualValues(t, 1, counterTotal(t, reader, "talentlink_scheduler_job_runs_total"))

	require.NoError(t, s.RunOnce(ctx))
	assert.EqualValues(t, 2, counterTotal(t, reader, "talentlink_invitations_expired_total"))
	assert.EqualValues(t, 2, counterTotal(t, reader, "talentlink_scheduler_job_runs_total"))
}

func counterTotal(t *testing.T, reader sdkmetric.Reader, name string) int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	var total int64
	for _, scope := range rm.ScopeMetrics {
		for _, m := range scope.Metrics {
			if m.Name != name {
				continue
			}
			sum, ok := m.Data.(metricdata.Sum[int64])
			require.True(t, ok, "%s is not an int64 sum", name)
			for _, dp := range sum.DataPoints {
				total += dp.Value
			}
		}
	}
	return total
}

func TestRunOnceWrapsJobErrors(t *testing.T) {
	svc := &stubInvitations{err: errors.New("db down")}
	s := newTestScheduler(t, svc, Config{})

	err := s.RunOnce(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), JobEmailInvitationCleanup)
	assert.Contains(t, err.Error(), "db down")
}

func TestRunJobTimeoutIsSoft(t *testing.T) {
	s := newTestScheduler(t, &stubInvitations{}, Config{})

	err := s.runJob(context.Background(), "slow", 5*time.Millisecond, func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	assert.NoError(t, err)
}

func TestStartStop(t *testing.T) {
	s := newTestScheduler(t, &stubInvitations{}, Config{InvitationCleanupSpec: "@every 1h"})

	require.NoError(t, s.Start())
	require.NoError(t, s.Start())

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, s.Stop(ctx))
	require.NoError(t, s.Stop(ctx))
}
