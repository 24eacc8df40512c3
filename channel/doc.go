// Package channel provides the shared, ordered message log that participants
// communicate over. Messages are immutable once appended; the log is bounded
// and evicts oldest-first. Appends are serialized by a single writer lock so
// the channel is safe to share across goroutines.
package channel
