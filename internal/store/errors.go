package store

import "errors"

var (
	// ErrTaskNotFound is returned when updating or deleting a missing task.
	ErrTaskNotFound = errors.New("task not found")

	// ErrFilterNotFound is returned for a missing saved filter.
	ErrFilterNotFound = errors.New("saved filter not found")

	// ErrFilterNameTaken is returned when another saved filter already uses the name.
	ErrFilterNameTaken = errors.New("saved filter name already in use")
)
