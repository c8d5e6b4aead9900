// Package ledger records a per-run status row (run id, status, objective
// bounds, graph size, elapsed time) after Fit completes, so a fleet of
// solves can be tracked without each caller building its own bookkeeping.
//
// Grounded on the teacher's blobstore/s3.DDBCommitStore: a narrow
// interface over the handful of DynamoDB operations actually used, so
// callers can pass either the real *dynamodb.Client or a test double.
package ledger

import (
	"context"
	"time"
)

// Record is one run's outcome, the ledger's unit of storage.
type Record struct {
	RunID       string
	Status      string
	LowerBound  float64
	UpperBound  float64
	GraphSize   int
	NIterations uint64
	TimeElapsed time.Duration
	StartedAt   time.Time
	FinishedAt  time.Time
}

// Ledger persists and retrieves per-run Records.
type Ledger interface {
	RecordRun(ctx context.Context, rec Record) error
	GetRun(ctx context.Context, runID string) (Record, error)
}
