// Package store defines interfaces for data persistence operations.
// These interfaces abstract the underlying data storage mechanism from
// the application's core logic, allowing business rules to remain
// independent of specific database technologies or persistence details.
//
// The scheduler treats the store as an async key-value blob store:
// a single JSON record holds the serialized task buckets, and one text
// blob per task id holds the raw generated article, addressed
// separately so the index record stays small.
package store
