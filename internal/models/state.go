package models

import "time"

// GateStatus is the persisted gate state of a review task.
type GateStatus string

const (
	GateStatusPending GateStatus = "pending"
	GateStatusWarning GateStatus = "warning"
	GateStatusFailed  GateStatus = "failed"
	GateStatusReady   GateStatus = "ready"
)

// IterationReview is one pipeline run's outcome. Iterations are 1-based and
// strictly increasing within a state record.
type IterationReview struct {
	Iteration int     `json:"iteration"`
	Opus      Outcome `json:"opus"`
}

// CostEntry is the per-model token and spend tally. Monetary amounts carry
// 6-decimal precision.
type CostEntry struct {
	TokensIn  int64   `json:"tokens_in"`
	TokensOut int64   `json:"tokens_out"`
	CostUSD   float64 `json:"cost_usd"`
}

// CostAuditEntry records one review call for the cost audit trail.
type CostAuditEntry struct {
	Model     string     `json:"model"`
	PRNumber  int        `json:"pr_number"`
	Score     *float64   `json:"score"`
	Status    GateStatus `json:"status"`
	TokensIn  int64      `json:"tokens_in"`
	TokensOut int64      `json:"tokens_out"`
	CostUSD   float64    `json:"cost_usd"`
	Timestamp time.Time  `json:"timestamp"`
}

// CostBreakdown splits cumulative cost by reviewer model.
type CostBreakdown struct {
	Opus CostEntry `json:"opus"`
}

// CostSummary is the cumulative spend block of a state record. Total is
// always Opus + Codex after every update.
type CostSummary struct {
	Codex     float64          `json:"codex"`
	Opus      float64          `json:"opus"`
	Total     float64          `json:"total"`
	Breakdown CostBreakdown    `json:"breakdown"`
	Reviews   []CostAuditEntry `json:"reviews"`
}

// StateRecord is the append-only ledger of review iterations and costs for
// one task. Reviews only grows; StartedAt is set once; UpdatedAt is
// monotonically non-decreasing.
type StateRecord struct {
	ID            string            `json:"id"`
	Task          string            `json:"task"`
	Iteration     int               `json:"iteration"`
	MaxIterations int               `json:"max_iterations"`
	Status        GateStatus        `json:"status"`
	Reviews       []IterationReview `json:"reviews"`
	StartedAt     time.Time         `json:"started_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
	Cost          CostSummary       `json:"cost"`
}
