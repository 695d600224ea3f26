package scheduler

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/talentlink/internal/clock"
	emaildomain "github.com/smallbiznis/talentlink/internal/emailinvitation/domain"
	"github.com/smallbiznis/talentlink/internal/observability/metrics"
	"github.com/smallbiznis/talentlink/internal/ratelimit"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

const JobEmailInvitationCleanup = "email_invitation_cleanup"

type Params struct {
	fx.In

	Log              *zap.Logger
	Config           Config
	Clock            clock.Clock
	EmailInvitations emaildomain.Service
	Lock             *ratelimit.JobLock `optional:"true"`
	Metrics          *metrics.Metrics   `optional:"true"`
}

// Scheduler runs periodic maintenance jobs outside the API process.
type Scheduler struct {
	log              *zap.Logger
	cfg              Config
	clock            clock.Clock
	emailInvitations emaildomain.Service
	lock             *ratelimit.JobLock
	metrics          *metrics.Metrics

	mu   sync.Mutex
	cron *cron.Cron
}

type job struct {
	name string
	spec string
	run  func(context.Context) error
}

func New(p Params) (*Scheduler, error) {
	if p.EmailInvitations == nil {
		return nil, errors.New("scheduler: email invitation service is required")
	}
	cfg := p.Config.withDefaults()
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("scheduler: invalid invitation cleanup spec %q: %w", cfg.InvitationCleanupSpec, err)
	}

	log := p.Log
	if log == nil {
		log = zap.NewNop()
	}
	clk := p.Clock
	if clk == nil {
		clk = clock.SystemClock{}
	}

	return &Scheduler{
		log:              log.Named("scheduler"),
		cfg:              cfg,
		clock:            clk,
		emailInvitations: p.EmailInvitations,
		lock:             p.Lock,
		metrics:          p.Metrics,
	}, nil
}

func (s *Scheduler) jobs() []job {
	return []job{
		{name: JobEmailInvitationCleanup, spec: s.cfg.InvitationCleanupSpec, run: s.CleanupEmailInvitationsJob},
	}
}

// Start registers every job on a cron and starts it. Calling Start twice is a no-op.
func (s *Scheduler) Start() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cron != nil {
		return nil
	}

	c := cron.New(cron.WithChain(cron.Recover(cronLogger{log: s.log})))
	for _, j := range s.jobs() {
		j := j
		if _, err := c.AddFunc(j.spec, func() {
			if err := s.runJob(context.Background(), j.name, s.cfg.JobTimeout, j.run); err != nil {
				s.log.Error("scheduled job failed", zap.String("job", j.name), zap.Error(err))
			}
		}); err != nil {
			return fmt.Errorf("schedule %s: %w", j.name, err)
		}
		s.log.Info("job scheduled", zap.String("job", j.name), zap.String("spec", j.spec))
	}

	c.Start()
	s.cron = c
	return nil
}

// Stop waits for running jobs to finish or ctx to expire.
func (s *Scheduler) Stop(ctx context.Context) error {
	s.mu.Lock()
	c := s.cron
	s.cron = nil
	s.mu.Unlock()
	if c == nil {
		return nil
	}

	select {
	case <-c.Stop().Done():
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// RunOnce executes every job immediately, regardless of its schedule.
func (s *Scheduler) RunOnce(parent context.Context) error {
	var err error
	for _, j := range s.jobs() {
		err = errors.Join(err, s.runJob(parent, j.name, s.cfg.JobTimeout, j.run))
	}
	return err
}

func (s *Scheduler) runJob(
	parent context.Context,
	name string,
	timeout time.Duration,
	fn func(context.Context) error,
) error {
	log := s.log.With(zap.String("job", name))

	if s.lock != nil {
		lease, err := s.lock.Acquire(parent, s.cfg.LockPrefix+name, s.cfg.LockTTL)
		if err != nil {
			return fmt.Errorf("%s: acquire lock: %w", name, err)
		}
		if lease == nil {
			log.Debug("job skipped, lock held elsewhere")
			return nil
		}
		defer func() {
			if err := lease.Release(context.Background()); err != nil {
				log.Warn("failed to release job lock", zap.String("key", lease.Key()), zap.Error(err))
			}
		}()
	}

	ctx := parent
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(parent, timeout)
		defer cancel()
	}

	start := s.clock.Now()
	err := fn(ctx)
	took := s.clock.Now().Sub(start)
	s.metrics.RecordJobRun(ctx, name, took, err)

	if err == nil {
		return nil
	}

	// deadline is a soft timeout; the next tick picks up the rest
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		log.Warn("job timed out", zap.Duration("timeout", timeout), zap.Error(err))
		return nil
	}
	return fmt.Errorf("%s: %w", name, err)
}

// CleanupEmailInvitationsJob marks PENDING email invitations past expiry as EXPIRED.
func (s *Scheduler) CleanupEmailInvitationsJob(ctx context.Context) error {
	_, err := s.emailInvitations.CleanupExpired(ctx)
	return err
}

type cronLogger struct {
	log *zap.Logger
}

func (l cronLogger) Info(msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Debugw(msg, keysAndValues...)
}

func (l cronLogger) Error(err error, msg string, keysAndValues ...interface{}) {
	l.log.Sugar().Errorw(msg, append(keysAndValues, "error", err)...)
}
