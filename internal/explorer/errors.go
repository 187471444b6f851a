package explorer

import (
	"context"
	"errors"
	"fmt"

	"github.com/damacus/iron-explorer/internal/models"
)

var (
	// ErrListingFailed wraps adapter failures that abort a read operation.
	ErrListingFailed = errors.New("listing failed")

	// ErrAlreadyExists is returned when a folder or file already occupies
	// the target key.
	ErrAlreadyExists = errors.New("a folder or file with this name already exists")

	// ErrMalformedCursor is returned by DecodeCursor. The listing engine
	// never surfaces it; it restarts from the first page instead.
	ErrMalformedCursor = errors.New("malformed cursor")
)

// ValidationError rejects input before any backend call is made.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

func invalid(field, format string, args ...any) error {
	return &ValidationError{Field: field, Message: fmt.Sprintf(format, args...)}
}

// BatchError reports the items of a multi-item operation that failed. The
// remaining items succeeded.
type BatchError struct {
	Op       string
	Total    int
	Failures []models.Failure
}

func (e *BatchError) Error() string {
	return fmt.Sprintf("%s: %d of %d items failed", e.Op, len(e.Failures), e.Total)
}

// RenameError describes a failed rename. Partial means the copy exists under
// NewKey but OldKey could not be removed, so both keys are present.
type RenameError struct {
	OldKey  string
	NewKey  string
	Partial bool
	Err     error
}

func (e *RenameError) Error() string {
	if e.Partial {
		return fmt.Sprintf("copied %q to %q but could not remove the original: %v", e.OldKey, e.NewKey, e.Err)
	}
	return fmt.Sprintf("rename %q to %q: %v", e.OldKey, e.NewKey, e.Err)
}

func (e *RenameError) Unwrap() error {
	return e.Err
}

// listingFailed tags an adapter error as a listing failure. Cancellation is
// passed through untouched.
func listingFailed(err error) error {
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %w", ErrListingFailed, err)
}
