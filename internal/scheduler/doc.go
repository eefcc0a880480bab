// Package scheduler owns the article-generation task queue: admission
// control, single-flight execution, status transitions, and
// persistence after every mutation. It is the only component that
// mutates TaskBuckets; the API layer calls into it and never touches
// task state directly.
package scheduler
