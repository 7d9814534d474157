package models

import "errors"

// Common errors for filesystem metadata operations.
//
// Not-found conditions are expected in normal operation and returned as
// sentinels so hot-path callers can branch with errors.Is instead of parsing
// messages. Infrastructure failures (broken ancestor chains, store errors)
// use dedicated typed errors in their packages.
var (
	// Entry errors
	ErrEntryNotFound  = errors.New("filesystem entry not found")
	ErrDuplicateEntry = errors.New("filesystem entry already exists")

	// User errors
	ErrUserNotFound  = errors.New("user not found")
	ErrDuplicateUser = errors.New("user already exists")

	// App errors
	ErrAppNotFound  = errors.New("app not found")
	ErrDuplicateApp = errors.New("app already exists")

	// Share errors
	ErrShareNotFound  = errors.New("share not found")
	ErrDuplicateShare = errors.New("share already exists")
)
