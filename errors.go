package songvault

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned when a song record or blob does not exist
	ErrNotFound = errors.New("not found")
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
	// ErrStorage is returned when the metadata store or the object store fails
	ErrStorage = errors.New("storage error")
	// ErrUnresolvedLocation is returned by a deleting Sweep when some song's
	// file location does not belong to the configured object store
	ErrUnresolvedLocation = errors.New("unresolved file location")
)

// storageErr tags err as a storage failure unless it already carries a category
// or is a context error.
func storageErr(err error) error {
	switch {
	case err == nil:
		return nil
	case errors.Is(err, ErrStorage),
		errors.Is(err, ErrNotFound),
		errors.Is(err, ErrInvalidInput),
		errors.Is(err, context.Canceled),
		errors.Is(err, context.DeadlineExceeded):
		return err
	default:
		return fmt.Errorf("%w: %w", ErrStorage, err)
	}
}
