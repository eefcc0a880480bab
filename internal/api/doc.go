// Package api contains the HTTP boundary: request/response models,
// handlers for the task and publishing operations, error-to-status
// mapping, and the middleware that wraps them. Handlers call into the
// scheduler and publisher and never touch task state directly.
package api
