package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultPolicyDenylist(t *testing.T) {
	p := DefaultPolicy()
	require.Len(t, p.FreeEmailProviders, 11)
	assert.True(t, p.IsFreeEmailDomain("gmail.com"))
	assert.True(t, p.IsFreeEmailDomain(" Yandex.COM "))
	assert.False(t, p.IsFreeEmailDomain("acme.io"))
}

func TestPageSizeClamp(t *testing.T) {
	p := DefaultPolicy()
	assert.Equal(t, p.DefaultPageSize, p.PageSize(0))
	assert.Equal(t, 5, p.PageSize(5))
	assert.Equal(t, p.MaxPageSize, p.PageSize(10_000))
}

func TestValidatePolicy(t *testing.T) {
	p := DefaultPolicy()
	require.NoError(t, validatePolicy(p))

	p.FreeEmailProviders = nil
	assert.Error(t, validatePolicy(p))

	p = DefaultPolicy()
	p.MaxPageSize = 1
	assert.Error(t, validatePolicy(p))
}

func TestNilHolderFallsBackToDefaults(t *testing.T) {
	var h *PolicyHolder
	assert.Equal(t, DefaultPolicy().InvitationTTL, h.Get().InvitationTTL)
}
