package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"
	"github.com/smallbiznis/talentlink/internal/config"
)

const (
	defaultCleanupSpec = "@every 1h"
	defaultLockTTL     = 5 * time.Minute
	defaultJobTimeout  = 2 * time.Minute
	defaultLockPrefix  = "talentlink:scheduler:"
)

type Config struct {
	InvitationCleanupSpec string
	LockTTL               time.Duration
	JobTimeout            time.Duration
	LockPrefix            string
}

func ProvideConfig(cfg config.Config) Config {
	return Config{
		InvitationCleanupSpec: cfg.Scheduler.InvitationCleanupSpec,
		LockTTL:               cfg.Scheduler.LockTTL,
	}.withDefaults()
}

func (c Config) withDefaults() Config {
	if c.InvitationCleanupSpec == "" {
		c.InvitationCleanupSpec = defaultCleanupSpec
	}
	if c.LockTTL <= 0 {
		c.LockTTL = defaultLockTTL
	}
	if c.JobTimeout <= 0 {
		c.JobTimeout = defaultJobTimeout
	}
	if c.JobTimeout > c.LockTTL {
		c.JobTimeout = c.LockTTL
	}
	if c.LockPrefix == "" {
		c.LockPrefix = defaultLockPrefix
	}
	return c
}

func (c Config) validate() error {
	_, err := cron.ParseStandard(c.InvitationCleanupSpec)
	return err
}
