package filesystem

import (
	"errors"
	"fmt"
)

// Sentinel errors. Every error returned by this package wraps exactly one of
// these, so callers can branch with errors.Is.
var (
	ErrPathEscape      = errors.New("path escapes root directory")
	ErrNotFound        = errors.New("not found")
	ErrNotDirectory    = errors.New("not a directory")
	ErrUnreadable      = errors.New("directory unreadable")
	ErrRootDelete      = errors.New("cannot delete root directory")
	ErrDeleteFailed    = errors.New("delete failed")
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidFilename = errors.New("invalid filename")
	ErrAlreadyExists   = errors.New("already exists")
	ErrFetchFailed     = errors.New("fetch failed")
	ErrFetchTimeout    = errors.New("fetch timed out")
	ErrToolUnavailable = errors.New("fetch tool unavailable")
	ErrLinkFailed      = errors.New("link failed")
)

// LinkError reports a failed link creation after a successful fetch.
// The staging artifact is kept so the link can be retried by hand.
type LinkError struct {
	LinkPath    string
	StagingPath string
	Err         error
}

func (e *LinkError) Error() string {
	return fmt.Sprintf("%v: %s -> %s: %v", ErrLinkFailed, e.LinkPath, e.StagingPath, e.Err)
}

// Unwrap exposes both ErrLinkFailed and the underlying OS error.
func (e *LinkError) Unwrap() []error {
	return []error{ErrLinkFailed, e.Err}
}
