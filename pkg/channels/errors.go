package channels

import "errors"

var (
	// ErrNotFound indicates that a channel id does not exist.
	ErrNotFound = errors.New("channel not found")

	// ErrDuplicateID indicates an insert with an id that is already taken.
	ErrDuplicateID = errors.New("duplicate channel id")

	// ErrParentNotFound indicates a parent id that does not exist.
	ErrParentNotFound = errors.New("parent channel not found")

	// ErrHasChildren indicates a single-channel removal of a channel that
	// still has children.
	ErrHasChildren = errors.New("channel has children")

	// ErrNotEmpty indicates a single-channel removal of a channel that
	// still owns annotations.
	ErrNotEmpty = errors.New("channel still has annotations")
)
