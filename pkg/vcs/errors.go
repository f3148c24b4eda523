package vcs

import "fmt"

// SourceError reports that an adapter could not reach, authenticate against,
// or validate the upstream repository. Recoverable: the orchestrator skips
// the repository for this run and retries next run.
type SourceError struct {
	Repo string
	Err  error
}

// Error implements the error interface.
func (e *SourceError) Error() string {
	return fmt.Sprintf("repository source %s: %v", e.Repo, e.Err)
}

// Unwrap returns the underlying cause.
func (e *SourceError) Unwrap() error {
	return e.Err
}

// DataError reports that a repository was reached but produced invalid data.
// Recoverable like SourceError; under force mode it additionally invalidates
// the stored cursor so the next run performs a full redo.
type DataError struct {
	Repo string
	Err  error
}

// Error implements the error interface.
func (e *DataError) Error() string {
	return fmt.Sprintf("repository data %s: %v", e.Repo, e.Err)
}

// Unwrap returns the underlying cause.
func (e *DataError) Unwrap() error {
	return e.Err
}

// FileNotFoundError reports a content retrieval for an invalid path or
// revision. Always surfaced, never replaced with empty content.
type FileNotFoundError struct {
	Path     string
	Revision string
}

// Error implements the error interface.
func (e *FileNotFoundError) Error() string {
	return fmt.Sprintf("file %s not found at revision %s", e.Path, e.Revision)
}
