package domain

import (
	"errors"
	"fmt"
)

var (
	ErrClassification = errors.New("classification fault")
	ErrRetrieval      = errors.New("retrieval fault")
	ErrGeneration     = errors.New("generation fault")
	ErrInvalidInput   = errors.New("invalid input")
	ErrTemporary      = errors.New("temporary failure")
	ErrInvariant      = errors.New("pipeline invariant violated")
)

// WrapError preserves typed semantic errors with operation context.
func WrapError(kind error, operation string, err error) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w: %w", operation, kind, err)
}

func IsKind(err error, kind error) bool {
	return errors.Is(err, kind)
}

// FaultKind returns a stable label for logs and metrics.
func FaultKind(err error) string {
	switch {
	case err == nil:
		return ""
	case IsKind(err, ErrInvalidInput):
		return "invalid_input"
	case IsKind(err, ErrClassification):
		return "classification"
	case IsKind(err, ErrRetrieval):
		return "retrieval"
	case IsKind(err, ErrGeneration):
		return "generation"
	case IsKind(err, ErrInvariant):
		return "invariant"
	default:
		return "unknown"
	}
}
