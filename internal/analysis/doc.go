// Package analysis runs the log analysis pipeline over a batch of entries.
//
// # Overview
//
// An Engine owns the long-lived parts of the pipeline: configuration, the
// categorization and signature memo caches, the optional prediction history,
// metrics and the tracer. Everything that belongs to a single run lives in a
// Session, so independent runs never observe each other's working state.
//
// # Pipeline
//
// Each run executes the following stages in order, each in its own span:
//
//  1. categorize: every entry gets a category; warning-and-above entries are
//     hashed into signature clusters. Large inputs are split into shards that
//     run in parallel and whose partial cluster maps are merged afterwards.
//  2. patterns: clusters reaching min_occurrences become ErrorPatterns, which
//     are then grouped into Drain families and linked to similar patterns.
//  3. temporal: time-window clusters and root/consequent cascades.
//  4. correlation: temporal, account and co-occurrence correlations plus the
//     hourly similarity matrix.
//  5. graph: the dependency graph over strong temporal correlations.
//  6. prediction: history recording, forecasts, early warnings and
//     recommendations.
//
// Every stage is total. Empty input, or input without any eligible entry,
// yields empty outputs for all stages.
package analysis
