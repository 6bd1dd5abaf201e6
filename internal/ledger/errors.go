package ledger

import (
	"errors"
	"fmt"
)

// Business-rule errors. All are terminal for the request: they signal invalid
// input or a violated invariant, never a transient condition, so callers must
// not retry them. Match with errors.Is.
var (
	ErrUserNotFound      = errors.New("user not found")
	ErrInsufficientFunds = errors.New("insufficient funds")
	ErrStatementNotFound = errors.New("statement not found")
	ErrInvalidAmount     = errors.New("amount must be a positive number of cents")
)

// StorageError wraps an infrastructure failure from the backing store. It is
// the only error kind a caller may reasonably retry, and it is deliberately
// distinct from the business errors above so the HTTP layer maps it to 500
// rather than 4xx.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage failure during %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

func storageErr(op string, err error) error {
	return &StorageError{Op: op, Err: err}
}
