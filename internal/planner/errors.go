package planner

import (
	"errors"
	"fmt"
)

// Sentinel errors for planner operations. Store lookups surface
// store.ErrTaskNotFound and friends unchanged.
var (
	ErrInvalidInput  = errors.New("invalid input")
	ErrUnknownBucket = errors.New("unknown bucket")
)

func invalid(err error) error {
	return fmt.Errorf("%w: %v", ErrInvalidInput, err)
}

func invalidf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
