package normalize

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prgate/prgate/internal/models"
)

func TestParseComments(t *testing.T) {
	t.Run("array of comments", func(t *testing.T) {
		raw := `[
			{"id": 11, "user": {"login": "greptile[bot]"}, "created_at": "2026-01-05T10:00:00Z", "html_url": "https://example.com/c/11", "body": "lgtm"},
			{"id": 12, "user": {"login": "dev"}, "body": "thanks"}
		]`

		parsed, err := ParseComments([]byte(raw))
		require.NoError(t, err)
		require.Len(t, parsed, 2)
		assert.Equal(t, int64(11), parsed[0].ID)
		assert.Equal(t, "greptile[bot]", parsed[0].Author)
		assert.Equal(t, "https://example.com/c/11", parsed[0].URL)
		assert.Equal(t, "lgtm", parsed[0].Body)
	})

	t.Run("single object becomes one-element list", func(t *testing.T) {
		parsed, err := ParseComments([]byte(`{"id": 5, "user": {"login": "greptile"}, "body": "hi"}`))
		require.NoError(t, err)
		require.Len(t, parsed, 1)
		assert.Equal(t, "greptile", parsed[0].Author)
	})

	t.Run("missing fields get defaults", func(t *testing.T) {
		parsed, err := ParseComments([]byte(`[{}]`))
		require.NoError(t, err)
		require.Len(t, parsed, 1)
		assert.Equal(t, int64(0), parsed[0].ID)
		assert.Equal(t, "unknown", parsed[0].Author)
		assert.Equal(t, "", parsed[0].Body)
	})

	t.Run("empty and null payloads yield empty list", func(t *testing.T) {
		for _, raw := range []string{"", "  \n", "null"} {
			parsed, err := ParseComments([]byte(raw))
			require.NoError(t, err)
			assert.Empty(t, parsed)
		}
	})

	t.Run("scalar payload is a hard input error", func(t *testing.T) {
		_, err := ParseComments([]byte(`"just a string"`))
		require.Error(t, err)
		var inputErr *InputError
		assert.ErrorAs(t, err, &inputErr)
	})

	t.Run("malformed array is a hard input error", func(t *testing.T) {
		_, err := ParseComments([]byte(`[{"id": }`))
		var inputErr *InputError
		assert.ErrorAs(t, err, &inputErr)
	})
}

func TestNormalize(t *testing.T) {
	n := New("greptile")

	t.Run("composes extraction and classification", func(t *testing.T) {
		raw := `[
			{"id": 1, "user": {"login": "greptile[bot]"}, "body": "changes requested"},
			{"id": 2, "user": {"login": "human"}, "body": "nice"}
		]`
		review, err := n.Normalize(3, `{"score": 9.5, "verdict": "approve", "findings": []}`, []byte(raw))
		require.NoError(t, err)

		assert.Equal(t, 3, review.Iteration)
		require.NotNil(t, review.Opus.Score)
		assert.Equal(t, 9.5, *review.Opus.Score)
		assert.Equal(t, models.VerdictApprove, review.Opus.Verdict)
		require.Len(t, review.Greptile.Comments, 1)
		assert.Equal(t, models.CommentStatusChangesRequested, review.Greptile.Status)
	})

	t.Run("no comments yields pending", func(t *testing.T) {
		review, err := n.Normalize(1, "free-form text", []byte(`[]`))
		require.NoError(t, err)

		assert.Equal(t, models.CommentStatusPending, review.Greptile.Status)
		assert.Empty(t, review.Greptile.Comments)
	})

	t.Run("bad comment payload fails, response text does not", func(t *testing.T) {
		_, err := n.Normalize(1, "anything at all", []byte(`42`))
		assert.Error(t, err)
	})
}
