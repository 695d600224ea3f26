package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrappedSentinelKeepsKind(t *testing.T) {
	sentinel := Conflict("already_member", "user is already a member of this team")
	wrapped := fmt.Errorf("add member: %w", sentinel)

	require.True(t, errors.Is(wrapped, sentinel))
	assert.Equal(t, KindConflict, KindOf(wrapped))
	assert.Equal(t, http.StatusConflict, KindOf(wrapped).Status())
}

func TestIsComparesKindAndCode(t *testing.T) {
	a := Gone("invitation_expired", "invitation has expired")
	b := Gone("invitation_expired", "different text")
	c := Conflict("invitation_expired", "invitation has expired")

	assert.True(t, errors.Is(a, b))
	assert.False(t, errors.Is(a, c))
}

func TestUnclassifiedErrorIsInternal(t *testing.T) {
	err := errors.New("boom")
	_, ok := As(err)
	assert.False(t, ok)
	assert.Equal(t, http.StatusInternalServerError, KindOf(err).Status())
	assert.Equal(t, "internal_error", KindOf(err).Type())
}

func TestKindStatusTable(t *testing.T) {
	cases := map[Kind]int{
		KindValidation:      http.StatusBadRequest,
		KindUnauthorized:    http.StatusUnauthorized,
		KindForbidden:       http.StatusForbidden,
		KindNotFound:        http.StatusNotFound,
		KindConflict:        http.StatusConflict,
		KindGone:            http.StatusGone,
		KindTooManyRequests: http.StatusTooManyRequests,
	}
	for kind, status := range cases {
		assert.Equal(t, status, kind.Status(), kind.Type())
	}
}
