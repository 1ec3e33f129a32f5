package models

// Severity is the importance level of a review finding.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Verdict is the reviewer's categorical recommendation, independent of the
// numeric score.
type Verdict string

const (
	VerdictApprove        Verdict = "approve"
	VerdictRequestChanges Verdict = "request-changes"
	VerdictReject         Verdict = "reject"
	VerdictTimeout        Verdict = "timeout"
)

// Finding is one reviewer-identified issue. Produced only by extraction.
type Finding struct {
	Severity Severity `json:"severity"`
	File     string   `json:"file,omitempty"`
	Line     int      `json:"line,omitempty"`
	Issue    string   `json:"issue"`
	Fix      string   `json:"fix,omitempty"`
}

// Outcome is the canonical review record extracted from one model response.
// A nil Score means the response was unparseable; it is never coerced to 0.
type Outcome struct {
	Score    *float64  `json:"score"`
	Verdict  Verdict   `json:"verdict"`
	Findings []Finding `json:"findings"`
}

// Float returns a pointer to v, for building optional scores.
func Float(v float64) *float64 { return &v }
