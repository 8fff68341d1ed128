package errors

import (
	stderrors "errors"
	"fmt"
)

// Fatal errors abort the sync run with a non-zero exit and must leave the
// cache directory and manifest file exactly as they were before the run.
// Per-item download and cleanup failures are not represented here; those
// are logged and skipped where they occur.

// StorageError indicates the cache directory tree could not be prepared.
type StorageError struct {
	Path string
	Err  error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("storage unavailable at %s: %v", e.Path, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// ProfileResolutionError indicates the profile lookup failed after all
// retries, or the profile does not exist.
type ProfileResolutionError struct {
	Username string
	Err      error
}

func (e *ProfileResolutionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("failed to resolve profile %q: %v", e.Username, e.Err)
	}
	return fmt.Sprintf("failed to resolve profile %q", e.Username)
}

func (e *ProfileResolutionError) Unwrap() error { return e.Err }

// NoPostsError indicates neither extraction strategy produced a single
// valid post entry.
type NoPostsError struct {
	Username string
}

func (e *NoPostsError) Error() string {
	return fmt.Sprintf("no valid posts found for profile %q", e.Username)
}

// EmptyResultError indicates no post's media could be cached; every
// download exhausted its retries.
type EmptyResultError struct {
	Username  string
	Attempted int
}

func (e *EmptyResultError) Error() string {
	return fmt.Sprintf("no media cached for profile %q (%d posts attempted)", e.Username, e.Attempted)
}

// IsFatal reports whether err is one of the run-aborting error kinds.
func IsFatal(err error) bool {
	var (
		storageErr *StorageError
		profileErr *ProfileResolutionError
		noPostsErr *NoPostsError
		emptyErr   *EmptyResultError
	)
	return stderrors.As(err, &storageErr) ||
		stderrors.As(err, &profileErr) ||
		stderrors.As(err, &noPostsErr) ||
		stderrors.As(err, &emptyErr)
}
