// Package ledger maintains the append-only review state record. Update is a
// pure value-to-value transformation: the prior snapshot is never mutated,
// and durable persistence of the returned snapshot is the caller's job.
package ledger

import (
	"time"

	"github.com/prgate/prgate/internal/cost"
	"github.com/prgate/prgate/internal/models"
)

// Context identifies the task and call being recorded. ID is used on first
// creation only; an existing record keeps its id.
type Context struct {
	ID        string
	Task      string
	PRNumber  int
	Model     string
	Timestamp time.Time
}

// UpdateParams carries one pipeline run's outcome into the ledger.
type UpdateParams struct {
	Outcome     models.Outcome
	Status      models.GateStatus
	OpusCostUSD float64
	TokensIn    int64
	TokensOut   int64
	Context     Context
}

// Update appends one iteration to the prior state record, or creates a fresh
// record when prior is nil. Monetary fields are rounded to 6 decimals once
// per update. The status is persisted verbatim; the ledger does not compute
// it. Not idempotent: every call appends, so the caller must invoke it
// exactly once per logical review event.
func Update(prior *models.StateRecord, p UpdateParams) *models.StateRecord {
	if prior == nil {
		return newRecord(p)
	}

	rec := clone(prior)
	iteration := len(rec.Reviews) + 1

	rec.Iteration = iteration
	rec.Status = p.Status
	rec.UpdatedAt = p.Context.Timestamp
	rec.Reviews = append(rec.Reviews, models.IterationReview{
		Iteration: iteration,
		Opus:      p.Outcome,
	})

	rec.Cost.Opus = cost.Round(rec.Cost.Opus + p.OpusCostUSD)
	rec.Cost.Total = cost.Round(rec.Cost.Opus + rec.Cost.Codex)
	rec.Cost.Breakdown.Opus.TokensIn += p.TokensIn
	rec.Cost.Breakdown.Opus.TokensOut += p.TokensOut
	rec.Cost.Breakdown.Opus.CostUSD = cost.Round(rec.Cost.Breakdown.Opus.CostUSD + p.OpusCostUSD)
	rec.Cost.Reviews = append(rec.Cost.Reviews, auditEntry(p))

	return rec
}

func newRecord(p UpdateParams) *models.StateRecord {
	c := cost.Round(p.OpusCostUSD)
	return &models.StateRecord{
		ID:            p.Context.ID,
		Task:          p.Context.Task,
		Iteration:     1,
		MaxIterations: 1,
		Status:        p.Status,
		Reviews: []models.IterationReview{
			{Iteration: 1, Opus: p.Outcome},
		},
		StartedAt: p.Context.Timestamp,
		UpdatedAt: p.Context.Timestamp,
		Cost: models.CostSummary{
			Opus:  c,
			Total: c,
			Breakdown: models.CostBreakdown{
				Opus: models.CostEntry{
					TokensIn:  p.TokensIn,
					TokensOut: p.TokensOut,
					CostUSD:   c,
				},
			},
			Reviews: []models.CostAuditEntry{auditEntry(p)},
		},
	}
}

func auditEntry(p UpdateParams) models.CostAuditEntry {
	return models.CostAuditEntry{
		Model:     p.Context.Model,
		PRNumber:  p.Context.PRNumber,
		Score:     p.Outcome.Score,
		Status:    p.Status,
		TokensIn:  p.TokensIn,
		TokensOut: p.TokensOut,
		CostUSD:   cost.Round(p.OpusCostUSD),
		Timestamp: p.Context.Timestamp,
	}
}

// clone copies a state record deeply enough that appends and cost additions
// never touch the prior snapshot.
func clone(prior *models.StateRecord) *models.StateRecord {
	rec := *prior
	rec.Reviews = append([]models.IterationReview(nil), prior.Reviews...)
	rec.Cost.Reviews = append([]models.CostAuditEntry(nil), prior.Cost.Reviews...)
	return &rec
}
