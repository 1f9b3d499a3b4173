package core

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Returned by TestCase.Result when the case has not completed yet.
	ErrNotCompleted = errors.New("test case has not completed")

	// Cancel cause used when a deadline elapsed before the case completed.
	ErrTimedOut = errors.New("test case timed out")

	// Returned by Start when the case was already started or finalised.
	ErrAlreadyStarted = errors.New("test case was already started")

	// A completed case exposes no result.
	ErrMissingResult = errors.New("test case has no result")

	// Run referenced an id that is not in the registry.
	ErrUnknownID = errors.New("unknown test case id")
)

// StartError wraps the failure of a test case's start operation.
type StartError struct {
	Name string
	Err  error
}

func (se *StartError) Error() string {
	return fmt.Sprintf("failed to start test case '%s': %v", se.Name, se.Err)
}

func (se *StartError) Unwrap() error {
	return se.Err
}

// TimeoutError is the cancel cause the runner hands to a case whose deadline
// elapsed. It matches ErrTimedOut with errors.Is.
type TimeoutError struct {
	// Whether the case's own local timeout was the binding limit.
	Local bool
	After time.Duration
}

func (te *TimeoutError) Error() string {
	kind := "global"
	if te.Local {
		kind = "local"
	}

	return fmt.Sprintf("%s timeout exceeded after %s", kind, te.After.Round(time.Millisecond))
}

func (te *TimeoutError) Is(target error) bool {
	return target == ErrTimedOut
}

type PanicError struct {
	any
	Stack []byte
}

func NewPanicError(any any, stack []byte) PanicError {
	return PanicError{
		any:   any,
		Stack: stack,
	}
}

func (pe PanicError) Error() string {
	return fmt.Sprintf("panic occurred: %v", pe.any)
}
