// Package metrics buffers telemetry points and ships them in batches using the
// InfluxDB line protocol.
//
// A [Reporter] prefixes series names and attaches default tags, a [Batcher]
// buffers points and flushes them on a timer or on Close, and an [InfluxSink]
// posts each batch as one newline-joined body.
//
// Flushes take a [FlushMode]. [Deferred] hands the batch to a background
// sender and falls back to a direct write when the sender cannot take it.
// [Immediate] writes synchronously and is used for the final flush on Close.
package metrics
