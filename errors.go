package featmap

import (
	"errors"
	"fmt"

	"github.com/hupe1980/featmap/csr"
)

var (
	// ErrInvalidInput is the parent of every input validation error.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidMinSupport is returned when the minimum support is negative.
	ErrInvalidMinSupport = fmt.Errorf("%w: minimum support must not be negative", ErrInvalidInput)
)

// ErrShapeMismatch indicates that the diagnosis columns of the observation
// matrix and the indicator matrix disagree.
//
// errors.Is(err, ErrInvalidInput) holds for every ErrShapeMismatch.
type ErrShapeMismatch struct {
	Expected int // I.Cols
	Actual   int // X.Cols
}

func (e *ErrShapeMismatch) Error() string {
	return fmt.Sprintf("shape mismatch: indicator matrix has %d diagnosis columns, observation matrix has %d", e.Expected, e.Actual)
}

func (e *ErrShapeMismatch) Unwrap() error { return ErrInvalidInput }

// ErrMalformedMatrix reports which input matrix failed CSR validation.
//
// The validation error can be accessed via errors.Unwrap; it always wraps
// csr.ErrInvalidMatrix or csr.ErrTooLarge.
type ErrMalformedMatrix struct {
	Name  string // "observations" or "indicator"
	cause error
}

func (e *ErrMalformedMatrix) Error() string {
	return fmt.Sprintf("malformed %s matrix: %v", e.Name, e.cause)
}

func (e *ErrMalformedMatrix) Unwrap() []error { return []error{ErrInvalidInput, e.cause} }

func validateInputs(x, i *csr.Matrix) error {
	if x == nil {
		return &ErrMalformedMatrix{Name: "observations", cause: fmt.Errorf("%w: nil matrix", csr.ErrInvalidMatrix)}
	}
	if i == nil {
		return &ErrMalformedMatrix{Name: "indicator", cause: fmt.Errorf("%w: nil matrix", csr.ErrInvalidMatrix)}
	}
	if err := x.Validate(); err != nil {
		return &ErrMalformedMatrix{Name: "observations", cause: err}
	}
	if err := i.Validate(); err != nil {
		return &ErrMalformedMatrix{Name: "indicator", cause: err}
	}
	if x.Cols != i.Cols {
		return &ErrShapeMismatch{Expected: i.Cols, Actual: x.Cols}
	}
	return nil
}
