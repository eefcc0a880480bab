package scheduler

import "errors"

// Admission errors returned synchronously by Submit. They never create
// a task record.
var (
	// ErrTaskExists indicates a task with the same request key is
	// already pending or running.
	ErrTaskExists = errors.New("task already exists")

	// ErrNoConfiguration indicates no usable model/provider
	// configuration exists.
	ErrNoConfiguration = errors.New("no api configuration")

	// ErrTaskNotFound indicates the referenced task id is unknown.
	ErrTaskNotFound = errors.New("task not found")

	// ErrTaskNotFinished indicates an operation that requires a
	// successfully finished task was attempted on one that is not.
	ErrTaskNotFinished = errors.New("task is not finished")
)
