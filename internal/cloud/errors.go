package cloud

import "errors"

var (
	// ErrUnsupported is returned by adapters for operations the underlying
	// cloud cannot express.
	ErrUnsupported = errors.New("operation not supported by provider")

	// ErrNotFound is returned when a referenced resource does not exist.
	ErrNotFound = errors.New("resource not found")
)
