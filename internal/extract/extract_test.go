package extract

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/prgate/prgate/internal/models"
)

func TestExtract_StructuredJSON(t *testing.T) {
	e := New()

	t.Run("full object round-trips score exactly", func(t *testing.T) {
		out := e.Extract(`{"score": 9.5, "verdict": "approve", "findings": []}`)

		require.NotNil(t, out.Score)
		assert.Equal(t, 9.5, *out.Score)
		assert.Equal(t, models.VerdictApprove, out.Verdict)
		assert.Empty(t, out.Findings)
	})

	t.Run("findings carry through", func(t *testing.T) {
		out := e.Extract(`{"score": 6.0, "verdict": "request-changes", "findings": [
			{"severity": "high", "file": "main.go", "line": 42, "issue": "nil deref", "fix": "guard it"}
		]}`)

		require.Len(t, out.Findings, 1)
		f := out.Findings[0]
		assert.Equal(t, models.SeverityHigh, f.Severity)
		assert.Equal(t, "main.go", f.File)
		assert.Equal(t, 42, f.Line)
		assert.Equal(t, "nil deref", f.Issue)
		assert.Equal(t, "guard it", f.Fix)
	})

	t.Run("absent verdict defaults to request-changes", func(t *testing.T) {
		out := e.Extract(`{"score": 7.0}`)

		assert.Equal(t, models.VerdictRequestChanges, out.Verdict)
		assert.NotNil(t, out.Findings, "findings default to empty, not nil")
	})

	t.Run("absent score stays nil", func(t *testing.T) {
		out := e.Extract(`{"verdict": "approve"}`)

		assert.Nil(t, out.Score)
		assert.Equal(t, models.VerdictApprove, out.Verdict)
	})

	t.Run("unknown severity defaults to medium", func(t *testing.T) {
		out := e.Extract(`{"score": 5.0, "findings": [{"severity": "catastrophic", "issue": "x"}]}`)

		require.Len(t, out.Findings, 1)
		assert.Equal(t, models.SeverityMedium, out.Findings[0].Severity)
	})
}

func TestExtract_Fenced(t *testing.T) {
	e := New()
	inner := `{"score": 8.0, "verdict": "reject", "findings": []}`

	t.Run("fenced equals inner content", func(t *testing.T) {
		fenced := "```json\n" + inner + "\n```"

		assert.Equal(t, e.Extract(inner), e.Extract(fenced))
	})

	t.Run("fence without language tag", func(t *testing.T) {
		out := e.Extract("```\n" + inner + "\n```")

		require.NotNil(t, out.Score)
		assert.Equal(t, 8.0, *out.Score)
		assert.Equal(t, models.VerdictReject, out.Verdict)
	})

	t.Run("non-JSON fence falls through to heuristic", func(t *testing.T) {
		out := e.Extract("```\njust some prose, score: 4.2\n```")

		require.NotNil(t, out.Score)
		assert.Equal(t, 4.2, *out.Score)
	})
}

func TestExtract_Heuristic(t *testing.T) {
	e := New()

	t.Run("end-to-end prose example", func(t *testing.T) {
		out := e.Extract("Looks solid.\nscore: 8.5\nverdict: request-changes\n- missing null check on line 42")

		require.NotNil(t, out.Score)
		assert.Equal(t, 8.5, *out.Score)
		assert.Equal(t, models.VerdictRequestChanges, out.Verdict)
		require.Len(t, out.Findings, 1)
		assert.Equal(t, models.SeverityMedium, out.Findings[0].Severity)
		assert.Equal(t, "missing null check on line 42", out.Findings[0].Issue)
		assert.Empty(t, out.Findings[0].Fix)
	})

	t.Run("no score in prose yields nil score", func(t *testing.T) {
		out := e.Extract("This change looks fine to me overall.")

		assert.Nil(t, out.Score)
		assert.Equal(t, models.VerdictRequestChanges, out.Verdict)
	})

	t.Run("score keyword is case-insensitive", func(t *testing.T) {
		out := e.Extract("Overall SCORE = 7")

		require.NotNil(t, out.Score)
		assert.Equal(t, 7.0, *out.Score)
	})

	t.Run("first score wins left to right", func(t *testing.T) {
		out := e.Extract("score: 3.0 but honestly score: 9.0")

		require.NotNil(t, out.Score)
		assert.Equal(t, 3.0, *out.Score)
	})

	t.Run("verdict requires a whole word", func(t *testing.T) {
		out := e.Extract("the approved changes were rejected")

		// "approved" and "rejected" are not whole-word verdict matches
		assert.Equal(t, models.VerdictRequestChanges, out.Verdict)
	})

	t.Run("verdict found anywhere in text", func(t *testing.T) {
		out := e.Extract("after careful thought I reject this")

		assert.Equal(t, models.VerdictReject, out.Verdict)
	})

	t.Run("star bullets become findings", func(t *testing.T) {
		out := e.Extract("issues:\n* first problem\n  - indented second\nnot a bullet")

		require.Len(t, out.Findings, 2)
		assert.Equal(t, "first problem", out.Findings[0].Issue)
		assert.Equal(t, "indented second", out.Findings[1].Issue)
	})

	t.Run("empty input", func(t *testing.T) {
		out := e.Extract("")

		assert.Nil(t, out.Score)
		assert.Equal(t, models.VerdictRequestChanges, out.Verdict)
		assert.Empty(t, out.Findings)
	})
}
