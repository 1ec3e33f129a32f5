// Package extract normalizes model review responses. Responses arrive as
// structured JSON, JSON inside a fenced code block, or free prose; the
// extractor tries each interpretation in order of decreasing confidence and
// always produces a usable outcome.
package extract

import (
	"encoding/json"
	"regexp"
	"strconv"
	"strings"

	"github.com/prgate/prgate/internal/models"
)

// strategy attempts one interpretation of the response text. A nil result
// means the strategy does not apply and the next one is tried.
type strategy func(text string) *models.Outcome

// Extractor runs an ordered strategy cascade over a response blob.
type Extractor struct {
	strategies []strategy
}

// New returns an extractor with the standard cascade: direct JSON parse,
// fenced-block JSON parse, then the free-text heuristic (which never fails).
func New() *Extractor {
	return &Extractor{
		strategies: []strategy{
			parseStructured,
			parseFenced,
			parseHeuristic,
		},
	}
}

// Extract returns the best-effort outcome for a response blob. It never
// fails; a nil Score on the result marks the score as unparseable.
func (e *Extractor) Extract(text string) models.Outcome {
	for _, s := range e.strategies {
		if out := s(text); out != nil {
			return *out
		}
	}

	// Unreachable with the standard cascade; kept so a custom strategy list
	// still yields a well-formed outcome.
	return models.Outcome{Verdict: models.VerdictRequestChanges, Findings: []models.Finding{}}
}

// rawOutcome mirrors the JSON the review prompt asks the model to emit.
type rawOutcome struct {
	Score    *float64     `json:"score"`
	Verdict  string       `json:"verdict"`
	Findings []rawFinding `json:"findings"`
}

type rawFinding struct {
	Severity string `json:"severity"`
	File     string `json:"file"`
	Line     int    `json:"line"`
	Issue    string `json:"issue"`
	Fix      string `json:"fix"`
}

func (r rawOutcome) toOutcome() *models.Outcome {
	out := &models.Outcome{
		Score:    r.Score,
		Verdict:  models.VerdictRequestChanges,
		Findings: []models.Finding{},
	}
	switch models.Verdict(strings.ToLower(strings.TrimSpace(r.Verdict))) {
	case models.VerdictApprove:
		out.Verdict = models.VerdictApprove
	case models.VerdictReject:
		out.Verdict = models.VerdictReject
	case models.VerdictRequestChanges:
		out.Verdict = models.VerdictRequestChanges
	}
	for _, f := range r.Findings {
		out.Findings = append(out.Findings, models.Finding{
			Severity: parseSeverity(f.Severity),
			File:     f.File,
			Line:     f.Line,
			Issue:    f.Issue,
			Fix:      f.Fix,
		})
	}
	return out
}

func parseSeverity(s string) models.Severity {
	switch models.Severity(strings.ToLower(strings.TrimSpace(s))) {
	case models.SeverityLow:
		return models.SeverityLow
	case models.SeverityHigh:
		return models.SeverityHigh
	default:
		return models.SeverityMedium
	}
}

// parseStructured handles a response that is one JSON object.
func parseStructured(text string) *models.Outcome {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "{") {
		return nil
	}
	var raw rawOutcome
	if err := json.Unmarshal([]byte(trimmed), &raw); err != nil {
		return nil
	}
	return raw.toOutcome()
}

// parseFenced strips markdown code fences and retries the structured parse on
// the interior content.
func parseFenced(text string) *models.Outcome {
	trimmed := strings.TrimSpace(text)
	if !strings.HasPrefix(trimmed, "```") {
		return nil
	}
	lines := strings.SplitN(trimmed, "\n", 2)
	if len(lines) < 2 {
		return nil
	}
	inner := lines[1]
	if idx := strings.LastIndex(inner, "```"); idx >= 0 {
		inner = inner[:idx]
	}
	return parseStructured(inner)
}

var (
	scorePattern   = regexp.MustCompile(`(?i)\bscore\b[^0-9]*?(\d+(?:\.\d+)?)`)
	verdictPattern = regexp.MustCompile(`(?i)\b(approve|request-changes|reject)\b`)
	bulletPattern  = regexp.MustCompile(`^\s*[-*]\s+(.+)$`)
)

// parseHeuristic treats the response as prose. It is deliberately imprecise
// (a score-like number elsewhere in the text can false-match) and only runs
// after both structured parses have failed. Never returns nil.
func parseHeuristic(text string) *models.Outcome {
	out := &models.Outcome{
		Verdict:  models.VerdictRequestChanges,
		Findings: []models.Finding{},
	}

	if m := scorePattern.FindStringSubmatch(text); m != nil {
		if v, err := strconv.ParseFloat(m[1], 64); err == nil {
			out.Score = &v
		}
	}

	if m := verdictPattern.FindStringSubmatch(text); m != nil {
		out.Verdict = models.Verdict(strings.ToLower(m[1]))
	}

	for _, line := range strings.Split(text, "\n") {
		if m := bulletPattern.FindStringSubmatch(line); m != nil {
			out.Findings = append(out.Findings, models.Finding{
				Severity: models.SeverityMedium,
				Issue:    strings.TrimSpace(m[1]),
			})
		}
	}

	return out
}
