package gosdt

import (
	"errors"
	"fmt"

	"github.com/vishalbelsare/gosdt-guesses/internal/errs"
)

var (
	// ErrInvalidInput groups every construction-time validation failure:
	// an empty dataset, a non-square cost matrix, a mismatched reference
	// matrix, or zero feature columns. Returned errors can be inspected
	// further with errors.Is/errors.As against the internal/errs values
	// they wrap.
	ErrInvalidInput = errors.New("invalid input")

	// ErrIntegrityViolation groups internal consistency failures (a broken
	// bound invariant, an unknown message kind reaching the dispatcher).
	// A live occurrence indicates a solver bug; Fit marks the run
	// NON_CONVERGENCE and surfaces the wrapped error to the caller.
	ErrIntegrityViolation = errors.New("solver integrity violation")
)

// ErrReferenceMatrixShape indicates a reference-model matrix whose
// dimensions don't match the dataset it was built against.
//
// The original underlying error (if any) can be accessed via errors.Unwrap.
type ErrReferenceMatrixShape struct {
	WantRows, WantCols int
	GotRows, GotCols   int
	cause              error
}

func (e *ErrReferenceMatrixShape) Error() string {
	return fmt.Sprintf("reference matrix shape [%d x %d] does not match dataset shape [%d x %d]",
		e.GotRows, e.GotCols, e.WantRows, e.WantCols)
}

func (e *ErrReferenceMatrixShape) Unwrap() error { return e.cause }

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, errs.ErrEmptyDataset) ||
		errors.Is(err, errs.ErrNoFeatureColumns) ||
		errors.Is(err, errs.ErrNonSquareCostMatrix) ||
		errors.Is(err, errs.ErrEmptyTargetRow) {
		return fmt.Errorf("%w: %w", ErrInvalidInput, err)
	}

	var shape *errs.ReferenceMatrixShape
	if errors.As(err, &shape) {
		wrapped := &ErrReferenceMatrixShape{
			WantRows: shape.WantRows, WantCols: shape.WantCols,
			GotRows: shape.GotRows, GotCols: shape.GotCols,
			cause: err,
		}
		return fmt.Errorf("%w: %w", ErrInvalidInput, wrapped)
	}

	if errors.Is(err, errs.ErrUnknownMessageKind) {
		return fmt.Errorf("%w: %w", ErrIntegrityViolation, err)
	}
	var bound *errs.BoundInvariant
	if errors.As(err, &bound) {
		return fmt.Errorf("%w: %w", ErrIntegrityViolation, err)
	}

	return err
}
