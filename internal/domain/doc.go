// Package domain defines the core business entities and errors.
// The central entity is Task, one article-generation request tracked
// from submission through terminal completion, together with the
// status-partitioned TaskBuckets projection used for scheduling and
// display.
package domain
