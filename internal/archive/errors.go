package archive

import "errors"

var (
	// ErrCopyFailed indicates copying into the archive failed. The original is left in place.
	ErrCopyFailed = errors.New("failed to copy into archive")

	// ErrOrphanCopy indicates the copy succeeded but the original could not be deleted,
	// so both copies now exist. It is reported as a warning, not a failure.
	ErrOrphanCopy = errors.New("original not removed after copy")

	// ErrProtectedResource indicates an attempt to delete or overwrite the read-history log.
	ErrProtectedResource = errors.New("refusing to touch protected file")

	// ErrUnknownEntityType indicates a path that is neither a regular file nor a directory.
	ErrUnknownEntityType = errors.New("not a regular file or directory")

	// ErrDestinationExists indicates a different file already occupies the archive destination.
	ErrDestinationExists = errors.New("destination already exists with different content")

	// ErrPathTraversal indicates a destination that would escape the archive directory.
	ErrPathTraversal = errors.New("path traversal detected")

	// ErrAlreadyArchived indicates the source already lives at its archive destination.
	ErrAlreadyArchived = errors.New("source is already in the archive")
)
