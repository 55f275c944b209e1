package petrel

import "fmt"

// Common errors returned by the pool.
var (
	// ErrNilTask is returned when attempting to submit a nil task function.
	ErrNilTask = &PoolError{msg: "task is nil"}

	// ErrPoolClosed is returned when attempting to submit to, halt, or
	// resume a pool whose Close has begun. A closed pool cannot be revived.
	ErrPoolClosed = &PoolError{msg: "pool is closed"}
)

// PoolError represents an error that occurred within the pool. It implements
// the error interface and supports unwrapping via errors.Is / errors.As.
type PoolError struct {
	msg string
	err error
}

// Error returns a formatted error message. If an underlying error exists,
// it is included in the output.
func (e *PoolError) Error() string {
	if e.err != nil {
		return fmt.Sprintf("petrel: %s: %v", e.msg, e.err)
	}
	return fmt.Sprintf("petrel: %s", e.msg)
}

// Unwrap returns the underlying error.
func (e *PoolError) Unwrap() error {
	return e.err
}

// errInvalidConfig creates an error for invalid pool configuration,
// returned during pool creation when validation fails.
func errInvalidConfig(msg string) error {
	return &PoolError{msg: "invalid config: " + msg}
}
