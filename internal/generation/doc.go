// Package generation defines the boundary between the application core
// and external LLM services. The scheduler depends only on the
// Generator interface; concrete providers live under internal/platform.
package generation
