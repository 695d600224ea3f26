package masking

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskEmail(t *testing.T) {
	assert.Equal(t, "b****@acme.io", MaskEmail("bob@acme.io"))
	assert.Equal(t, "****", MaskEmail("bob"))
}

func TestMaskSecretKeepsSuffix(t *testing.T) {
	assert.Equal(t, "****cdef", MaskSecret("0123456789abcdef"))
	assert.Equal(t, "", MaskSecret("  "))
}

func TestMaskMetadata(t *testing.T) {
	masked := MaskMetadata(map[string]any{
		"email":         "carol@acme.io",
		"invitee_email": "dave@acme.io",
		"token":         "deadbeefcafe",
		"role":          "ADMIN",
		"nested":        map[string]any{"email": "erin@acme.io"},
		"":              "dropped",
	})

	assert.Equal(t, "c****@acme.io", masked["email"])
	assert.Equal(t, "d****@acme.io", masked["invitee_email"])
	assert.Equal(t, "****cafe", masked["token"])
	assert.Equal(t, "ADMIN", masked["role"])
	assert.Equal(t, map[string]any{"email": "e****@acme.io"}, masked["nested"])
	assert.NotContains(t, masked, "")
	assert.Nil(t, MaskMetadata(nil))
}
