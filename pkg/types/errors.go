package types

import "errors"

// Domain errors shared across packages
var (
	// ErrFolderRequired is returned when a search path names only an
	// account. Account-only searches return nothing useful; callers are
	// pointed at list_folders instead.
	ErrFolderRequired = errors.New("must specify a folder, not just an account")

	// ErrEmptyPath is returned when no path was supplied at all.
	ErrEmptyPath = errors.New("path cannot be empty")
)
