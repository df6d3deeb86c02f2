// Package errors defines the sentinel errors shared by every wallet component.
// Domain packages wrap them with their own messages; the HTTP layer and the
// health checks only look at the sentinel.
package errors

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned for unknown wallets, credentials and keys.
	ErrNotFound = errors.New("not found")

	// ErrConflict is returned for duplicate wallets and duplicate credentials.
	ErrConflict = errors.New("conflict")

	// ErrInvalidInput is returned when a request fails validation.
	ErrInvalidInput = errors.New("invalid input")

	// ErrCustodyFailure means key custody is unusable. It is never retried.
	ErrCustodyFailure = errors.New("custody failure")

	// ErrConfigurationFailure means the deployment is misconfigured, for
	// example the authority wallet is missing. It blocks readiness.
	ErrConfigurationFailure = errors.New("configuration failure")
)

// New returns an error with the given message.
func New(message string) error {
	return errors.New(message)
}

// Wrap prefixes err with message, keeping it matchable with Is.
// A nil err stays nil.
func Wrap(err error, message string) error {
	if err == nil {
		return nil
	}
	return fmt.Errorf("%s: %w", message, err)
}

// Is reports whether any error in err's tree matches target.
func Is(err, target error) bool {
	return errors.Is(err, target)
}
