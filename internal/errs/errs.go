// Package errs defines the internal error values raised by the solver's
// subsystems (internal/dataset, internal/task, internal/graph,
// internal/optimizer). The root package translates these into its own
// public error types the same way the teacher's translateError funnel
// maps index-level errors onto vecgo-level ones.
package errs

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyDataset is returned when a dataset has zero rows.
	ErrEmptyDataset = errors.New("dataset has no rows")

	// ErrNoFeatureColumns is returned when a dataset has zero feature
	// columns after subtracting the target columns.
	ErrNoFeatureColumns = errors.New("dataset has no feature columns")

	// ErrNonSquareCostMatrix is returned when the cost matrix is not square
	// or is empty.
	ErrNonSquareCostMatrix = errors.New("cost matrix must be square and non-empty")

	// ErrEmptyTargetRow is returned when a dataset row has no target bit
	// set, so no empirical label can be determined for it.
	ErrEmptyTargetRow = errors.New("dataset row has no target value")

	// ErrUnknownMessageKind is returned when the optimizer dispatcher pops a
	// message whose kind tag does not match Exploration or Exploitation.
	ErrUnknownMessageKind = errors.New("unknown message kind")
)

// ReferenceMatrixShape indicates a reference-model matrix whose dimensions
// don't match the dataset it was built against.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ReferenceMatrixShape struct {
	WantRows, WantCols int
	GotRows, GotCols   int
	cause              error
}

func (e *ReferenceMatrixShape) Error() string {
	return fmt.Sprintf("reference matrix shape [%d x %d] does not match dataset shape [%d x %d]",
		e.GotRows, e.GotCols, e.WantRows, e.WantCols)
}

func (e *ReferenceMatrixShape) Unwrap() error { return e.cause }

// NewReferenceMatrixShape builds a ReferenceMatrixShape error.
func NewReferenceMatrixShape(wantRows, wantCols, gotRows, gotCols int) *ReferenceMatrixShape {
	return &ReferenceMatrixShape{WantRows: wantRows, WantCols: wantCols, GotRows: gotRows, GotCols: gotCols}
}

// BoundInvariant indicates a Task's lower/upper bound invariant was broken
// before clamping (lower > upper), or some other internal consistency check
// failed mid-solve. A live occurrence signals a solver bug, not bad input.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type BoundInvariant struct {
	Reason string
	cause  error
}

func (e *BoundInvariant) Error() string {
	return fmt.Sprintf("bound invariant violated: %s", e.Reason)
}

func (e *BoundInvariant) Unwrap() error { return e.cause }

// NewBoundInvariant builds a BoundInvariant error.
func NewBoundInvariant(reason string) *BoundInvariant {
	return &BoundInvariant{Reason: reason}
}
