package store

import (
	"context"
	"time"

	"github.com/prgate/prgate/internal/models"
)

// StateSummary is the list-view projection of a state record.
type StateSummary struct {
	ID        string
	Task      string
	PRNumber  int
	Status    models.GateStatus
	Iteration int
	TotalUSD  float64
	UpdatedAt time.Time
}

// Store defines the persistence interface for review state records.
type Store interface {
	// GetState returns the record for a task, or nil when no usable record
	// exists. A persisted record whose body no longer parses is treated as
	// absent so a corrupted ledger never blocks a review.
	GetState(ctx context.Context, task string) (*models.StateRecord, error)
	PutState(ctx context.Context, rec *models.StateRecord, prNumber int) error
	ListStates(ctx context.Context) ([]StateSummary, error)

	// Lifecycle
	Migrate(ctx context.Context) error
	Close() error
}
