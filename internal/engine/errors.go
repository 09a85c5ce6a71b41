package engine

import "errors"

// Command errors. Network failures are reported as fetch.StatusError or
// wrapped transport errors; configuration problems fail New at startup.
var (
	// ErrNotFound covers unknown item, account, and thread identifiers.
	ErrNotFound = errors.New("not found")
	// ErrReadOnly is returned when completing an item whose origin system
	// does not accept completion from here. No network call is made.
	ErrReadOnly = errors.New("task is read-only and cannot be completed from traybrief")
	// ErrNoDueDate is returned when snoozing an item without a due instant.
	ErrNoDueDate = errors.New("task has no due date")
	// ErrUnknownSnooze is returned for a duration label that was not
	// configured.
	ErrUnknownSnooze = errors.New("unknown snooze duration")
)
