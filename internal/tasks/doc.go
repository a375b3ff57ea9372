// Package tasks runs long replay operations with real-time progress reporting.
//
// # Core Operations
//
// The [Engine] interface defines two operations:
//
//  1. [Engine.Export] : walk the whole games feed
//     - Follows the server's next cursors, paced by a rate limiter
//     - Applies the filter query to every page
//     - Writes the matches through the formatter package
//
//  2. [Engine.Prefetch] : warm the card metadata cache
//     - Fetches each build's document once per locale with a bounded errgroup
//     - Skips builds the backend already holds unless forced
//     - Reports per-build results; one failing build does not stop the others
//
// # Progress Reporting
//
// All operations use non-blocking channels for progress updates.
//
// The [ProgressUpdate] struct contains phase, step counters, messages, and optional data for advanced UI rendering.
// Updates use select with default to prevent blocking.
package tasks
