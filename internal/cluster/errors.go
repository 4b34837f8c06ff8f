package cluster

import (
	"errors"
	"fmt"
)

// ErrCountMismatch is wrapped by CountMismatchError.
var ErrCountMismatch = errors.New("unexpected number of running instances")

// ErrAlreadyRunning is returned when launching a role that already has
// running instances.
var ErrAlreadyRunning = errors.New("role already has running instances")

// CountMismatchError reports that a role did not have the expected number of
// running instances.
type CountMismatchError struct {
	Role     string
	Expected int
	Actual   int
}

func (e *CountMismatchError) Error() string {
	return fmt.Sprintf("expected %d running instances in role %s, but found %d", e.Expected, e.Role, e.Actual)
}

func (e *CountMismatchError) Unwrap() error { return ErrCountMismatch }
