package worker

import (
	"errors"
	"fmt"
)

// Sentinel errors.
var (
	// ErrDone is returned by Work to signal the worker finished normally.
	ErrDone = errors.New("worker: done")

	// ErrJoinTimeout is reported for workers that did not exit in time.
	ErrJoinTimeout = errors.New("worker: did not exit before join timeout")
)

// FaultError records that a worker stopped because of an error.
type FaultError struct {
	// Name is the worker name given at registration.
	Name string

	// ID is the instance id assigned by the Hub.
	ID string

	Err error
}

// Error implements the error interface.
func (e *FaultError) Error() string {
	return fmt.Sprintf("worker [%s %s]: %v", e.Name, e.ID, e.Err)
}

// Unwrap returns the underlying error.
func (e *FaultError) Unwrap() error {
	return e.Err
}
