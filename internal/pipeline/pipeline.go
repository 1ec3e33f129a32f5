// Package pipeline sequences one review iteration: extract the outcome from
// the response blob, compare against the threshold, price the call, fold the
// result into the state ledger, and emit the gate signal. It is the only
// component with side effects (reading and writing the persisted state).
package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/prgate/prgate/internal/cost"
	"github.com/prgate/prgate/internal/extract"
	"github.com/prgate/prgate/internal/ledger"
	"github.com/prgate/prgate/internal/models"
	"github.com/prgate/prgate/internal/store"
)

// Config carries gate policy for a runner.
type Config struct {
	Threshold float64
}

// RunInput is one review event as supplied by the caller. TimedOut signals
// that the upstream review call failed on transport; the pipeline then takes
// the fail-open path instead of reading ResponseText.
type RunInput struct {
	Task         string
	PRNumber     int
	Model        string
	ResponseText string
	TimedOut     bool
	TokensIn     int64
	TokensOut    int64
	Timestamp    time.Time
}

// Runner executes review iterations against a store.
type Runner struct {
	extractor *extract.Extractor
	store     store.Store
	pricing   *cost.Table
	cfg       Config
}

// New creates a pipeline runner.
func New(s store.Store, pricing *cost.Table, cfg Config) *Runner {
	return &Runner{
		extractor: extract.New(),
		store:     s,
		pricing:   pricing,
		cfg:       cfg,
	}
}

// Run processes one review event end-to-end and returns the emitted result
// together with the updated state record. The ledger is updated exactly once
// per call; concurrent runs against the same task need external serialization.
func (r *Runner) Run(ctx context.Context, in RunInput) (*models.Result, *models.StateRecord, error) {
	ts := in.Timestamp
	if ts.IsZero() {
		ts = time.Now().UTC()
	}

	outcome, passed, status := r.gate(in)

	amount := cost.Amount(in.TokensIn, in.TokensOut, r.pricing.RatesFor(in.Model))

	prior, err := r.store.GetState(ctx, in.Task)
	if err != nil {
		return nil, nil, fmt.Errorf("load state: %w", err)
	}

	id := ""
	if prior == nil {
		id = store.NewID()
	}

	rec := ledger.Update(prior, ledger.UpdateParams{
		Outcome:     outcome,
		Status:      status,
		OpusCostUSD: amount,
		TokensIn:    in.TokensIn,
		TokensOut:   in.TokensOut,
		Context: ledger.Context{
			ID:        id,
			Task:      in.Task,
			PRNumber:  in.PRNumber,
			Model:     in.Model,
			Timestamp: ts,
		},
	})

	if err := r.store.PutState(ctx, rec, in.PRNumber); err != nil {
		return nil, nil, fmt.Errorf("persist state: %w", err)
	}

	result := &models.Result{
		TimedOut:  in.TimedOut,
		Passed:    passed,
		Status:    status,
		Threshold: r.cfg.Threshold,
		Score:     outcome.Score,
		Verdict:   outcome.Verdict,
		Findings:  outcome.Findings,
		CostUSD:   cost.Round(amount),
		TokensIn:  in.TokensIn,
		TokensOut: in.TokensOut,
		Model:     in.Model,
	}
	return result, rec, nil
}

// gate derives the outcome, pass flag, and persisted status for one event.
func (r *Runner) gate(in RunInput) (models.Outcome, bool, models.GateStatus) {
	if in.TimedOut {
		// Fail-open: provider flakiness must never block a pull request.
		outcome := models.Outcome{
			Verdict:  models.VerdictTimeout,
			Findings: []models.Finding{},
		}
		return outcome, true, models.GateStatusWarning
	}

	outcome := r.extractor.Extract(in.ResponseText)
	if outcome.Score == nil {
		// An unparseable score is never trusted, even when a verdict string
		// was found in the text.
		outcome.Verdict = models.VerdictRequestChanges
		return outcome, false, models.GateStatusFailed
	}

	if *outcome.Score >= r.cfg.Threshold {
		return outcome, true, models.GateStatusReady
	}
	return outcome, false, models.GateStatusFailed
}
