package domain

import "errors"

// Common validation errors for Task
var (
	ErrEmptyTaskID       = errors.New("task ID cannot be empty")
	ErrEmptyRequestKey   = errors.New("task request key cannot be empty")
	ErrNoMessages        = errors.New("task messages cannot be empty")
	ErrInvalidTaskStatus = errors.New("invalid task status")
	ErrTerminalTask      = errors.New("task is in a terminal state")
)
