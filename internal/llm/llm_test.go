package llm

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuildReviewPrompt(t *testing.T) {
	t.Run("system prompt specifies the JSON contract", func(t *testing.T) {
		system, _ := buildReviewPrompt("diff --git a/x b/x")

		assert.Contains(t, system, `"score"`)
		assert.Contains(t, system, `"verdict"`)
		assert.Contains(t, system, `"findings"`)
		assert.Contains(t, system, `"severity"`)
		assert.Contains(t, system, `"approve"`)
		assert.Contains(t, system, `"request-changes"`)
		assert.Contains(t, system, `"reject"`)
		assert.Contains(t, system, "no markdown fencing")
	})

	t.Run("user prompt carries the diff verbatim", func(t *testing.T) {
		diff := strings.Repeat("+added line\n", 500)
		_, user := buildReviewPrompt(diff)

		assert.Contains(t, user, diff)
	})
}

func TestClient_Model(t *testing.T) {
	c := NewClient("", "claude-opus-4-1")
	assert.Equal(t, "claude-opus-4-1", c.Model())
}

func TestIsTimeout(t *testing.T) {
	assert.True(t, isTimeout(context.DeadlineExceeded))
	assert.True(t, isTimeout(fmt.Errorf("wrapped: %w", context.DeadlineExceeded)))
	assert.False(t, isTimeout(fmt.Errorf("api: rate limited")))
	assert.False(t, isTimeout(nil))
}
