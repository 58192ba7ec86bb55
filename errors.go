package vecscan

import (
	"errors"
	"fmt"

	"github.com/hupe1980/vecscan/internal/intern"
	"github.com/hupe1980/vecscan/persistence"
)

var (
	// ErrInvalidK is returned when n is not positive.
	ErrInvalidK = errors.New("n must be positive")

	// ErrKeyNotFound is returned when a key is absent or has frequency 0.
	ErrKeyNotFound = errors.New("key not found")

	// ErrKeyExists is returned when adding a key that is already present.
	ErrKeyExists = errors.New("key already exists")

	// ErrCorruptPersistedData indicates persisted data that cannot be decoded.
	ErrCorruptPersistedData = errors.New("corrupt persisted data")

	// ErrPreconditionViolation is returned when an operation is invoked in a
	// state that does not allow it, such as loading into a non-empty table.
	ErrPreconditionViolation = errors.New("precondition violation")
)

// ErrDimensionMismatch is returned when a vector or query does not have the
// table's dimension. Match it with errors.As.
type ErrDimensionMismatch struct {
	Expected int
	Actual   int
}

func (e *ErrDimensionMismatch) Error() string {
	return fmt.Sprintf("dimension mismatch: expected %d, got %d", e.Expected, e.Actual)
}

// ErrInvalidDimension indicates an invalid configured dimension.
type ErrInvalidDimension struct {
	Dimension int
}

func (e *ErrInvalidDimension) Error() string {
	return fmt.Sprintf("invalid dimension: %d", e.Dimension)
}

func translateError(err error) error {
	if err == nil {
		return nil
	}

	if errors.Is(err, ErrCorruptPersistedData) {
		return err
	}
	if errors.Is(err, persistence.ErrCorrupt) {
		return fmt.Errorf("%w: %w", ErrCorruptPersistedData, err)
	}
	if errors.Is(err, intern.ErrUnknownID) {
		return fmt.Errorf("%w: %w", ErrKeyNotFound, err)
	}

	return err
}
