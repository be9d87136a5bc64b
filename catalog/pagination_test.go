package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/relaymesh/gateway/schemas"
)

func models(n int) []schemas.ModelInfo {
	out := make([]schemas.ModelInfo, n)
	for i := range out {
		out[i] = schemas.ModelInfo{ID: string(rune('a' + i)), Provider: "p1"}
	}
	return out
}

func TestApplyPagination_WalksAllPages(t *testing.T) {
	all := models(7)

	page1 := ApplyPagination(all, 3, "")
	require.Len(t, page1.Models, 3)
	require.NotEmpty(t, page1.NextPageToken)

	page2 := ApplyPagination(all, 3, page1.NextPageToken)
	require.Len(t, page2.Models, 3)
	require.NotEmpty(t, page2.NextPageToken)

	page3 := ApplyPagination(all, 3, page2.NextPageToken)
	require.Len(t, page3.Models, 1)
	assert.Empty(t, page3.NextPageToken)
}

func TestApplyPagination_NoPageSizeReturnsEverything(t *testing.T) {
	all := models(5)
	page := ApplyPagination(all, 0, "")
	assert.Len(t, page.Models, 5)
	assert.Empty(t, page.NextPageToken)
}

func TestApplyPagination_StaleCursorResetsToStart(t *testing.T) {
	all := models(5)
	token, err := encodePaginationCursor(3, "does-not-match-anything")
	require.NoError(t, err)

	page := ApplyPagination(all, 2, token)
	assert.Equal(t, all[0].ID, page.Models[0].ID)
}

func TestApplyPagination_OffsetPastEndReturnsEmpty(t *testing.T) {
	all := models(3)
	token, err := encodePaginationCursor(10, "")
	require.NoError(t, err)

	page := ApplyPagination(all, 2, token)
	assert.Empty(t, page.Models)
	assert.Empty(t, page.NextPageToken)
}

func TestDecodePaginationCursor_MalformedTokenIsZeroCursor(t *testing.T) {
	assert.Equal(t, paginationCursor{}, decodePaginationCursor("not-valid-base64!!"))
}
