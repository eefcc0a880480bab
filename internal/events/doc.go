// Package events provides types and interfaces for broadcasting task
// state transitions to observers.
//
// The scheduler emits a TaskEvent on every transition without knowing
// which handlers will process it. Handlers are advisory: badge and
// notification side effects, and the SSE push stream, all subscribe
// here. Handler failures are logged and swallowed; they never affect
// task state.
package events
