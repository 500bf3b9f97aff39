// Package temporal groups warning-and-above log entries by time proximity.
//
// Two independent views are produced from the same entries:
//
//   - Clusters: sliding-window groups whose consecutive gaps never exceed
//     the configured window, reported as TEMP- patterns.
//   - Cascades: an error followed within a short window by related errors
//     (same component, same correlation ID or overlapping wording).
//
// Entries without a timestamp are ignored by both.
package temporal
