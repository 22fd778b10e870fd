// Package sink provides frame consumers used by the CLI.
//
// LogSink reports the handshake and the decode rate. SnapshotSink writes
// periodic frames to disk as PNG.
package sink
