package config

import (
	"errors"
	"strings"
	"sync/atomic"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Policy holds marketplace rules that operators may tune without a redeploy.
type Policy struct {
	FreeEmailProviders       []string      `mapstructure:"freeEmailProviders"`
	InvitationTTL            time.Duration `mapstructure:"invitationTTL"`
	EmailInvitationTTL       time.Duration `mapstructure:"emailInvitationTTL"`
	DefaultPageSize          int           `mapstructure:"defaultPageSize"`
	MaxPageSize              int           `mapstructure:"maxPageSize"`
	SuggestedContributorsMax int           `mapstructure:"suggestedContributorsMax"`
}

func DefaultPolicy() Policy {
	return Policy{
		FreeEmailProviders: []string{
			"gmail.com",
			"yahoo.com",
			"outlook.com",
			"hotmail.com",
			"live.com",
			"aol.com",
			"icloud.com",
			"protonmail.com",
			"mail.com",
			"zoho.com",
			"yandex.com",
		},
		InvitationTTL:            7 * 24 * time.Hour,
		EmailInvitationTTL:       7 * 24 * time.Hour,
		DefaultPageSize:          20,
		MaxPageSize:              100,
		SuggestedContributorsMax: 10,
	}
}

// IsFreeEmailDomain reports whether domain is on the free provider denylist.
func (p Policy) IsFreeEmailDomain(domain string) bool {
	domain = strings.ToLower(strings.TrimSpace(domain))
	for _, provider := range p.FreeEmailProviders {
		if strings.EqualFold(provider, domain) {
			return true
		}
	}
	return false
}

// PageSize clamps a requested page size to the policy bounds.
func (p Policy) PageSize(requested int) int {
	if requested <= 0 {
		return p.DefaultPageSize
	}
	if requested > p.MaxPageSize {
		return p.MaxPageSize
	}
	return requested
}

type PolicyHolder struct {
	current atomic.Value // holds Policy
}

// NewStaticPolicy returns a holder that never reloads.
func NewStaticPolicy(p Policy) *PolicyHolder {
	holder := &PolicyHolder{}
	holder.current.Store(p)
	return holder
}

func NewPolicyHolder() (*PolicyHolder, error) {
	v := viper.New()

	v.SetConfigName("policy")
	v.SetConfigType("yml")
	v.AddConfigPath("/etc/talentlink")
	v.AddConfigPath(".")

	v.SetEnvPrefix("TALENTLINK")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	defaults := DefaultPolicy()
	v.SetDefault("policy.freeEmailProviders", defaults.FreeEmailProviders)
	v.SetDefault("policy.invitationTTL", defaults.InvitationTTL)
	v.SetDefault("policy.emailInvitationTTL", defaults.EmailInvitationTTL)
	v.SetDefault("policy.defaultPageSize", defaults.DefaultPageSize)
	v.SetDefault("policy.maxPageSize", defaults.MaxPageSize)
	v.SetDefault("policy.suggestedContributorsMax", defaults.SuggestedContributorsMax)

	fileLoaded := true
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
		fileLoaded = false
	}

	var p Policy
	if err := v.UnmarshalKey("policy", &p); err != nil {
		return nil, err
	}
	if err := validatePolicy(p); err != nil {
		return nil, err
	}

	holder := NewStaticPolicy(p)
	if !fileLoaded {
		return holder, nil
	}

	v.WatchConfig()
	v.OnConfigChange(func(e fsnotify.Event) {
		var updated Policy
		if err := v.UnmarshalKey("policy", &updated); err != nil {
			zap.L().Warn("policy reload failed", zap.Error(err))
			return
		}
		if err := validatePolicy(updated); err != nil {
			zap.L().Warn("invalid policy ignored", zap.Error(err))
			return
		}
		holder.current.Store(updated)
		zap.L().Info("policy reloaded", zap.String("file", e.Name))
	})

	return holder, nil
}

func (h *PolicyHolder) Get() Policy {
	if h == nil {
		return DefaultPolicy()
	}
	return h.current.Load().(Policy)
}

func validatePolicy(p Policy) error {
	if len(p.FreeEmailProviders) == 0 {
		return errors.New("policy.freeEmailProviders cannot be empty")
	}
	if p.InvitationTTL <= 0 || p.EmailInvitationTTL <= 0 {
		return errors.New("policy invitation TTLs must be positive")
	}
	if p.DefaultPageSize <= 0 || p.MaxPageSize < p.DefaultPageSize {
		return errors.New("policy page sizes are inconsistent")
	}
	return nil
}
