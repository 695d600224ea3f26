package pagination

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPageInfoTrimsLookahead(t *testing.T) {
	page := Pagination{PageSize: 2}
	items, info := BuildPageInfo([]int{1, 2, 3}, page)

	assert.Equal(t, []int{1, 2}, items)
	require.True(t, info.HasMore)

	next := Pagination{PageToken: info.NextPageToken, PageSize: 2}
	assert.Equal(t, 2, next.Offset())
}

func TestBuildPageInfoLastPage(t *testing.T) {
	items, info := BuildPageInfo([]int{1}, Pagination{PageSize: 2})
	assert.Equal(t, []int{1}, items)
	assert.False(t, info.HasMore)
	assert.Empty(t, info.NextPageToken)
}

func TestMalformedTokenRestarts(t *testing.T) {
	assert.Equal(t, 0, Pagination{PageToken: "%%%"}.Offset())
}
