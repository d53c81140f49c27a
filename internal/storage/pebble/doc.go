// Package pebblestore wraps Pebble as the key/value engine behind the entry
// store.
//
// The mock server never persists across restarts, so Open defaults to an
// in-memory filesystem (vfs.NewMem). A DataDir can still be set, which is
// handy when inspecting a keyspace with Pebble tooling. Metrics are reported
// through MetricsHook; Pebble's own log lines go through pkg/log.
package pebblestore
