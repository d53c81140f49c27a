// Package log provides the structured logging facade used across wireq.
//
// # Overview
//
// The package exposes a small Logger interface with leveled methods and a
// Field type for structured context. Records are routed through a slog
// handler that applies the configured formatter and outputs, so the slog
// ecosystem stays available while output stays uniform.
//
// Quick start
//
//	l := log.NewLogger(
//	    log.WithLevel(log.InfoLevel),
//	    log.WithFormatter(&log.TextFormatter{}),
//	    log.WithOutput(log.NewConsoleOutput()),
//	)
//	l = l.With(log.Component("http"))
//	l.Info("listening", log.Str("addr", ":8080"))
//
// # Configuration
//
// ApplyConfig builds a logger from a declarative Config: text or JSON
// formatting, console/file/null outputs, key redaction and sampling.
//
// # Interop
//
// RedirectStdLog routes the standard library logger (used by Pebble and
// net/http internals) through a Logger.
package log
